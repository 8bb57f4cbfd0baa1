package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"verinest-onboarding/events"
	"verinest-onboarding/shared"
)

// SendReminder nudges a user to resume an idle wizard.
// Idempotency: not naturally idempotent (a retry publishes a second reminder event);
// consumers deduplicate on the returned reminder ID.
func (a *Activities) SendReminder(ctx context.Context, req shared.ReminderRequest) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Sending reminder",
		"sessionId", req.SessionID,
		"reminderType", req.ReminderType,
		"step", req.Step,
		"email", req.Email,
	)

	reminderID := fmt.Sprintf("REMIND-%s-%s", req.SessionID, req.ReminderType)
	if a.Publisher != nil {
		err := a.Publisher.Publish(ctx, events.Event{
			Type:      events.TypeReminder,
			SessionID: req.SessionID,
			UserID:    req.UserID,
			Flow:      req.Flow,
			Detail:    fmt.Sprintf("%s reminder: resume at %s (%s)", req.ReminderType, req.Step, reminderID),
		})
		if err != nil {
			return "", fmt.Errorf("failed to publish reminder: %w", err)
		}
	}
	logger.Info("Reminder sent successfully", "reminderID", reminderID)

	return reminderID, nil
}

// PublishOutcome announces a finished wizard session.
func (a *Activities) PublishOutcome(ctx context.Context, e events.Event) error {
	logger := activity.GetLogger(ctx)
	if a.Publisher == nil {
		logger.Info("No publisher configured, dropping outcome", "type", e.Type, "sessionId", e.SessionID)
		return nil
	}
	if err := a.Publisher.Publish(ctx, e); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	logger.Info("Outcome published", "type", e.Type, "sessionId", e.SessionID)
	return nil
}
