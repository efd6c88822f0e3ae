package ports

import (
	"context"

	"github.com/aretw0/capsid/pkg/domain"
)

// RunStore persists summaries of finished runs and actions. The engine
// treats it as best-effort telemetry: a store failure is logged and never
// affects the outcome of the run it describes.
type RunStore interface {
	// Save persists a history record keyed by its ID.
	Save(ctx context.Context, rec domain.HistoryRecord) error

	// Load retrieves a record by ID.
	// Returns domain.ErrRecordNotFound if the record does not exist.
	Load(ctx context.Context, id string) (domain.HistoryRecord, error)

	// List returns all records, most recently finished first.
	List(ctx context.Context) ([]domain.HistoryRecord, error)

	// Delete removes a record by ID.
	Delete(ctx context.Context, id string) error
}
