package repository

import (
	"context"
	"time"

	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
)

// EventStore persists realtime events for replay and inspection. The live
// fan-out path does not depend on it; implementations may be absent entirely.
type EventStore interface {
	// StoreEvent appends an event to the history of its collection path.
	StoreEvent(ctx context.Context, event model.RealtimeEvent) error

	// GetEventsSince returns events on a collection path after the resume
	// token, oldest first. An empty token reads from the beginning.
	GetEventsSince(ctx context.Context, path string, resumeToken model.ResumeToken) ([]model.RealtimeEvent, error)

	// CleanupOldEvents trims event history beyond the retention period.
	CleanupOldEvents(ctx context.Context, retentionPeriod time.Duration) error
}
