package repository

import (
	"context"

	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
)

// ContentRepository defines the interface for content record persistence.
type ContentRepository interface {
	// CreateRecord stores a new record.
	CreateRecord(ctx context.Context, record *model.Record) error

	// GetRecord fetches one record by collection and id.
	GetRecord(ctx context.Context, namespace, collection, id string) (*model.Record, error)

	// ListRecords returns every record of a collection ordered by creation
	// timestamp descending (newest first).
	ListRecords(ctx context.Context, namespace, collection string) ([]model.Record, error)

	// DeleteRecord removes a record outright. No soft delete exists.
	DeleteRecord(ctx context.Context, namespace, collection, id string) error

	// UnfeatureAll clears isFeatured on every currently-featured photo and
	// returns the ids it cleared. Tolerates zero or more than one featured
	// photo left behind by prior races.
	UnfeatureAll(ctx context.Context, namespace string) ([]string, error)

	// Feature sets isFeatured on one photo.
	Feature(ctx context.Context, namespace, photoID string) error

	// SetFeaturedAtomic performs unfeature-all plus feature-target as a single
	// bulk write, for deployments that opt into the atomic mode.
	SetFeaturedAtomic(ctx context.Context, namespace, photoID string) ([]string, error)
}
