package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/core/ports"
)

// Reward amounts in cents by fact vote score at verification time.
const (
	rewardBaseCents  = 200
	rewardBonusCents = 5 // per point of vote score, capped below
	rewardMaxCents   = 1000
)

// RewardService issues contributor payout credits when facts get verified.
type RewardService struct {
	rewards ports.RewardRepository
	facts   ports.FactRepository
}

// NewRewardService creates a new RewardService.
func NewRewardService(rewards ports.RewardRepository, facts ports.FactRepository) *RewardService {
	return &RewardService{rewards: rewards, facts: facts}
}

// IssueReward creates a reward credit for the fact's author and notifies them.
func (s *RewardService) IssueReward(ctx context.Context, factID string) (*domain.Reward, error) {
	fact, err := s.facts.GetByID(ctx, factID)
	if err != nil {
		return nil, fmt.Errorf("get fact: %w", err)
	}
	if fact.Status != domain.FactStatusVerified {
		return nil, fmt.Errorf("fact %s is not verified", factID)
	}
	if fact.AuthorID == "" {
		return nil, fmt.Errorf("fact %s has no author", factID)
	}

	code, err := generateRewardCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	amount := rewardBaseCents + rewardBonusCents*(fact.VoteCountUp-fact.VoteCountDown)
	if amount > rewardMaxCents {
		amount = rewardMaxCents
	}
	if amount < rewardBaseCents {
		amount = rewardBaseCents
	}

	reward := &domain.Reward{
		FactID:      fact.ID,
		UserID:      fact.AuthorID,
		Code:        code,
		AmountCents: amount,
		IssuedAt:    time.Now(),
		ExpiresAt:   time.Now().Add(30 * 24 * time.Hour),
	}

	if err := s.rewards.Create(ctx, reward); err != nil {
		return nil, fmt.Errorf("create reward: %w", err)
	}

	// Notification is the curator workflow's job; it retries and compensates.
	return reward, nil
}

// GetByCode looks up a reward by its redemption code.
func (s *RewardService) GetByCode(ctx context.Context, code string) (*domain.Reward, error) {
	return s.rewards.GetByCode(ctx, code)
}

// RevokeReward marks a reward revoked (moderation reversal).
func (s *RewardService) RevokeReward(ctx context.Context, code string) error {
	return s.rewards.Revoke(ctx, code)
}

func generateRewardCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "LL-" + hex.EncodeToString(b), nil
}
