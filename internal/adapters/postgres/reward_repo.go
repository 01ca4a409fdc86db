package postgres

import (
	"context"

	"github.com/localelore/localelore/internal/core/domain"
)

// RewardRepo implements ports.RewardRepository with pgx.
type RewardRepo struct {
	db *DB
}

// NewRewardRepo creates a new RewardRepo.
func NewRewardRepo(db *DB) *RewardRepo {
	return &RewardRepo{db: db}
}

// Create stores a new reward and fills in its generated ID.
func (r *RewardRepo) Create(ctx context.Context, reward *domain.Reward) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO rewards (fact_id, user_id, code, amount_cents, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, reward.FactID, reward.UserID, reward.Code, reward.AmountCents,
		reward.IssuedAt, reward.ExpiresAt).Scan(&reward.ID)
}

// GetByCode returns a reward by its redemption code.
func (r *RewardRepo) GetByCode(ctx context.Context, code string) (*domain.Reward, error) {
	var rw domain.Reward
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, fact_id, user_id, code, amount_cents, issued_at, expires_at, revoked_at
		FROM rewards WHERE code = $1
	`, code).Scan(&rw.ID, &rw.FactID, &rw.UserID, &rw.Code, &rw.AmountCents,
		&rw.IssuedAt, &rw.ExpiresAt, &rw.RevokedAt)
	if err != nil {
		return nil, err
	}
	return &rw, nil
}

// Revoke marks a reward as revoked without deleting the row.
func (r *RewardRepo) Revoke(ctx context.Context, code string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE rewards SET revoked_at = now() WHERE code = $1 AND revoked_at IS NULL
	`, code)
	return err
}

// Delete removes a reward row entirely (saga compensation path).
func (r *RewardRepo) Delete(ctx context.Context, code string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM rewards WHERE code = $1`, code)
	return err
}
