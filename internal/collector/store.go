package collector

import (
	"context"

	"github.com/devdazzlee/southen-sweet-sub000/internal/analytics"
)

// EventStore persists accepted tracking events.
type EventStore interface {
	SaveBatch(ctx context.Context, websiteID string, events []analytics.Event) error
	ListBySession(ctx context.Context, sessionID string) ([]analytics.Event, error)
	Close() error
}
