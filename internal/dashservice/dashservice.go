package dashservice

import (
	"time"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/dataset"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

const (
	EventUploaded           = "event.uploaded"
	EventDatasetInvalidated = "dataset.invalidated"
)

// Options carries the tunables of the dashboard service
type Options struct {
	DefaultFields    []models.Field
	MaxImageSize     int64
	AllowedMimeTypes []string
}

// DashService contains all data sources and service-wide dependencies
type DashService struct {
	Observations *dataset.Cached[models.Observation]
	Intervals    *dataset.Cached[models.EventInterval]
	Events       repository.EventRepository

	opts    Options
	emitter *nuts.EventEmitter
	now     func() time.Time
}

// New creates a new DashService instance
func New(
	observations *dataset.Cached[models.Observation],
	intervals *dataset.Cached[models.EventInterval],
	events repository.EventRepository,
	opts Options,
) *DashService {
	if len(opts.DefaultFields) == 0 {
		opts.DefaultFields = models.Fields
	}
	return &DashService{
		Observations: observations,
		Intervals:    intervals,
		Events:       events,
		opts:         opts,
		emitter:      nuts.NewEventEmitter(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks if all required sources are initialized
func (s *DashService) Validate() error {
	if s.Observations == nil {
		return ErrMissingRepository("observations")
	}
	if s.Intervals == nil {
		return ErrMissingRepository("intervals")
	}
	if s.Events == nil {
		return ErrMissingRepository("events")
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}

// OnEvent registers a callback for service events. The callback receives the
// id of the affected event or dataset.
func (s *DashService) OnEvent(event string, handler func(id string)) error {
	if _, err := s.emitter.On(event, nuts.NID("hdl", 8), handler); err != nil {
		return errors.NewInternalError("failed to register handler for "+event, err)
	}
	return nil
}

// emit notifies the handlers of event. Failures are logged only, the
// operation that triggered the event has already completed.
func (s *DashService) emit(event, id string) {
	if err := s.emitter.Emit(event, id); err != nil {
		nuts.L.Warnf("[DashService] Failed to emit %s for %s: %v", event, id, err)
	}
}
