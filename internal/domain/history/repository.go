package history

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for history entries.
type Repository interface {
	// Append stores e. It returns ErrDuplicateExecution when an entry for the
	// same execution already exists.
	Append(ctx context.Context, e *Entry) error
	GetByExecutionID(ctx context.Context, executionID uuid.UUID) (*Entry, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, error)
}
