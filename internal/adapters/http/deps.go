package http

import (
	"github.com/nats-io/nats.go"

	"github.com/localelore/localelore/internal/adapters/postgres"
	"github.com/localelore/localelore/internal/adapters/valkey"
	"github.com/localelore/localelore/internal/core/usecases"
	"github.com/localelore/localelore/internal/offload"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Viewports  *usecases.ViewportService
	Facts      *usecases.FactService
	Categories *usecases.CategoryService
	Rewards    *usecases.RewardService
	Offload    *offload.Offloader

	// GreedyRadiusPx is the default pixel radius for greedy clustering.
	GreedyRadiusPx float64

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
