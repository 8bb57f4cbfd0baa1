package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"verinest-onboarding/shared"
)

// SaveProgress writes a wizard snapshot under its storage key.
// Idempotency: naturally idempotent, the last write wins.
func (a *Activities) SaveProgress(ctx context.Context, req shared.ProgressRequest) error {
	if a.Store == nil {
		return nil
	}
	if err := a.Store.Save(ctx, req.Key, req.Snapshot); err != nil {
		return fmt.Errorf("failed to save progress for %s: %w", req.Key, err)
	}
	activity.GetLogger(ctx).Debug("Progress saved", "key", req.Key, "bytes", len(req.Snapshot))
	return nil
}

// ClearProgress removes the saved snapshot once the wizard is finished.
// Idempotency: naturally idempotent, clearing a missing key succeeds.
func (a *Activities) ClearProgress(ctx context.Context, key string) error {
	if a.Store == nil {
		return nil
	}
	if err := a.Store.Clear(ctx, key); err != nil {
		return fmt.Errorf("failed to clear progress for %s: %w", key, err)
	}
	activity.GetLogger(ctx).Info("Progress cleared", "key", key)
	return nil
}
