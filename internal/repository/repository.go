// FilePath: server/dashboard/internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates that a resource already exists
	ErrDuplicate = errors.New("resource already exists")
)

// Source loads one dataset. Identity names the source, Fingerprint changes
// whenever its content changes.
type Source[T any] interface {
	Identity() string
	Fingerprint(ctx context.Context) (string, error)
	Load(ctx context.Context) ([]T, error)
}

// ObservationSource loads hive scale observations ordered by timestamp
type ObservationSource = Source[models.Observation]

// IntervalSource loads detected rapid weight change intervals
type IntervalSource = Source[models.EventInterval]

// EventRepository stores manually uploaded events. There is no update or delete.
type EventRepository interface {
	Create(ctx context.Context, event *models.UploadedEvent) error
	Get(ctx context.Context, id string) (*models.UploadedEvent, error)
	List(ctx context.Context, filters models.EventFilters, offset, limit int) ([]*models.UploadedEvent, error)
}
