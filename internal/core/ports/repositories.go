package ports

import (
	"context"

	"github.com/localelore/localelore/internal/core/domain"
)

// FactRepository is the remote fact source. FindInViewport owns the bounds
// predicate: it returns only facts whose coordinates fall inside the box,
// ordered by descending vote score and capped by a zoom-dependent limit.
type FactRepository interface {
	FindInViewport(ctx context.Context, bounds domain.Bounds, zoom int) ([]domain.Fact, error)
	GetByID(ctx context.Context, id string) (*domain.Fact, error)
	Insert(ctx context.Context, fact *domain.Fact) error
	UpsertBatch(ctx context.Context, facts []domain.Fact) error
	Vote(ctx context.Context, id, direction string) (*domain.Fact, error)
	SetStatus(ctx context.Context, id, status string) (*domain.Fact, error)
	Trending(ctx context.Context, limit int) ([]domain.Fact, error)
}

// CategoryRepository lists fact categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// RewardRepository persists contributor rewards.
type RewardRepository interface {
	Create(ctx context.Context, reward *domain.Reward) error
	GetByCode(ctx context.Context, code string) (*domain.Reward, error)
	Revoke(ctx context.Context, code string) error
	Delete(ctx context.Context, code string) error
}
