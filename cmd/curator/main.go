package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/localelore/localelore/internal/adapters/nats"
	"github.com/localelore/localelore/internal/adapters/postgres"
	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/core/usecases"
	"github.com/localelore/localelore/internal/pkg/config"
	"github.com/localelore/localelore/internal/pkg/logging"
	"github.com/localelore/localelore/internal/workflows"
)

// The curator listens for verified facts and runs the contributor reward
// saga for each one on a Temporal worker.
func main() {
	cfg, err := config.Load("localelore-curator")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup("curator", "info", "json")

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	factRepo := postgres.NewFactRepo(db)
	rewardRepo := postgres.NewRewardRepo(db)
	rewardSvc := usecases.NewRewardService(rewardRepo, factRepo)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RewardWorkflow)
	w.RegisterActivity(&workflows.RewardActivities{
		RewardService: rewardSvc,
		Rewards:       rewardRepo,
	})

	// Trigger a workflow per verified-fact event
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeFactVerified(ctx, func(ctx context.Context, event *domain.FactEvent) error {
		opts := client.StartWorkflowOptions{
			ID:        "reward-" + event.FactID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}
		_, err := c.ExecuteWorkflow(ctx, opts, workflows.RewardWorkflow, workflows.RewardInput{
			FactID:   event.FactID,
			AuthorID: event.AuthorID,
		})
		if err != nil {
			slog.Warn("start reward workflow failed", "fact_id", event.FactID, "error", err)
			return err
		}
		slog.Info("reward workflow started", "fact_id", event.FactID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	log.Println("curator worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
