package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/localelore/localelore/internal/core/ports"
	"github.com/localelore/localelore/internal/core/usecases"
)

// RewardActivities holds the activity implementations for the reward workflow.
type RewardActivities struct {
	RewardService *usecases.RewardService
	Rewards       ports.RewardRepository
	Notifier      ports.NotificationService
}

// IssueRewardCredit creates a reward credit for the fact's author and returns
// its redemption code.
func (a *RewardActivities) IssueRewardCredit(ctx context.Context, factID string) (string, error) {
	// Delegate to the RewardService which already handles code generation,
	// amount calculation, and persistence.
	reward, err := a.RewardService.IssueReward(ctx, factID)
	if err != nil {
		return "", fmt.Errorf("issue reward: %w", err)
	}
	return reward.Code, nil
}

// NotifyAuthor sends a push notification to the fact's author.
func (a *RewardActivities) NotifyAuthor(ctx context.Context, authorID, code string) error {
	if a.Notifier == nil {
		slog.Info("push (no notifier)", "author", authorID, "code", code)
		return nil
	}
	title := "Your story was verified!"
	body := fmt.Sprintf("Show code %s to redeem your contributor credit.", code)
	return a.Notifier.SendPush(ctx, authorID, title, body)
}

// DeleteRewardCredit removes a reward credit (saga compensation / rollback).
func (a *RewardActivities) DeleteRewardCredit(ctx context.Context, code string) error {
	if err := a.Rewards.Delete(ctx, code); err != nil {
		return fmt.Errorf("delete reward %s: %w", code, err)
	}
	slog.Info("reward credit deleted (saga compensation)", "code", code)
	return nil
}
