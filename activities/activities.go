package activities

import (
	"context"

	"verinest-onboarding/events"
	"verinest-onboarding/gateway"
	"verinest-onboarding/shared"
)

// VerificationClient submits a prepared payload to the verification backend.
type VerificationClient interface {
	Submit(ctx context.Context, token string, payload shared.VerificationPayload) (*gateway.Response, error)
}

// ProgressStore keeps wizard snapshots between sessions.
type ProgressStore interface {
	Save(ctx context.Context, key string, blob []byte) error
	Clear(ctx context.Context, key string) error
}

// Activities is the receiver for all activity methods. Registering the struct
// registers every method; its fields are the side-effecting collaborators.
// Nil Store or Publisher turn the matching activities into no-ops.
type Activities struct {
	Gateway   VerificationClient
	Store     ProgressStore
	Publisher events.Publisher
}
