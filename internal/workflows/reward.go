package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RewardInput is the input for the contributor reward workflow.
type RewardInput struct {
	FactID   string
	AuthorID string
}

// RewardWorkflow orchestrates issuing a payout credit for a freshly verified
// fact and notifying its author. If the notification fails, the credit is
// deleted (saga compensation) so moderation can re-trigger cleanly.
func RewardWorkflow(ctx workflow.Context, input RewardInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting reward workflow", "factID", input.FactID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Issue the reward credit
	var code string
	err := workflow.ExecuteActivity(ctx, "IssueRewardCredit", input.FactID).Get(ctx, &code)
	if err != nil {
		return err
	}

	// Step 2: Notify the author
	err = workflow.ExecuteActivity(ctx, "NotifyAuthor", input.AuthorID, code).Get(ctx, nil)
	if err != nil {
		logger.Warn("author notification failed, compensating", "error", err)
		// Compensate: delete the credit
		_ = workflow.ExecuteActivity(ctx, "DeleteRewardCredit", code).Get(ctx, nil)
		return err
	}

	logger.Info("Reward issued successfully", "code", code)
	return nil
}
