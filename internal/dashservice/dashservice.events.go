package dashservice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	z "github.com/Oudwins/zog"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
	MaxDescription   = 2000
)

var uploadRequestSchema = z.Struct(z.Shape{
	"EventTime":   z.Time().Required(),
	"EventType":   z.String().Required().OneOf(eventTypeNames()),
	"Description": z.String().Max(MaxDescription),
})

func eventTypeNames() []string {
	names := make([]string, 0, len(models.EventTypes))
	for _, t := range models.EventTypes {
		names = append(names, string(t))
	}
	return names
}

// UploadEvent validates and stores a beekeeper-reported event
func (s *DashService) UploadEvent(ctx context.Context, req *models.EventUploadRequest) (*models.UploadedEvent, error) {
	if issues := uploadRequestSchema.Validate(req); len(issues) > 0 {
		return nil, errors.NewValidationError("invalid event upload", nil).
			WithDetails(fmt.Sprintf("%v", issues))
	}

	event := &models.UploadedEvent{
		ID:          nuts.NID("evt", 12),
		EventTime:   req.EventTime,
		EventType:   models.EventType(req.EventType),
		Description: strings.TrimSpace(req.Description),
		UploadedAt:  s.now(),
	}

	if len(req.Image) > 0 {
		mime, err := s.checkImage(req.Image)
		if err != nil {
			return nil, err
		}
		event.Image = req.Image
		event.ImageMime = mime
		event.ImageSize = len(req.Image)
	}

	if err := s.Events.Create(ctx, event); err != nil {
		return nil, err
	}

	nuts.L.Infof("[DashService] Stored %s event %s at %s", event.EventType, event.ID, event.EventTime.Format("2006-01-02 15:04"))
	s.emit(EventUploaded, event.ID)
	return event, nil
}

func (s *DashService) checkImage(image []byte) (string, error) {
	if s.opts.MaxImageSize > 0 && int64(len(image)) > s.opts.MaxImageSize {
		return "", errors.NewValidationError(
			fmt.Sprintf("image exceeds %d bytes", s.opts.MaxImageSize), nil)
	}
	mime := http.DetectContentType(image)
	if !s.isAllowedMimeType(mime) {
		return "", errors.NewValidationError("unsupported image type: "+mime, nil)
	}
	return mime, nil
}

func (s *DashService) isAllowedMimeType(mime string) bool {
	if len(s.opts.AllowedMimeTypes) == 0 {
		return strings.HasPrefix(mime, "image/")
	}
	for _, allowed := range s.opts.AllowedMimeTypes {
		if mime == allowed {
			return true
		}
	}
	return false
}

// ListEvents returns uploaded events ordered by event time
func (s *DashService) ListEvents(ctx context.Context, filters models.EventFilters, offset, limit int) ([]*models.UploadedEvent, error) {
	if filters.Type != "" && !filters.Type.Valid() {
		return nil, errors.NewValidationError("unknown event type: "+string(filters.Type), nil)
	}
	if tr := filters.EventTime; tr != nil && tr.Start != nil && tr.End != nil && tr.Start.After(*tr.End) {
		return nil, errors.NewValidationError("event time range start is after its end", nil)
	}

	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Events.List(ctx, filters, offset, limit)
}

// GetEvent returns one uploaded event including its image
func (s *DashService) GetEvent(ctx context.Context, id string) (*models.UploadedEvent, error) {
	if id == "" {
		return nil, errors.NewValidationError("event id is required", nil)
	}
	return s.Events.Get(ctx, id)
}

// EventImage returns the stored image of an event and its MIME type
func (s *DashService) EventImage(ctx context.Context, id string) ([]byte, string, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if len(event.Image) == 0 {
		return nil, "", errors.NewNotFoundError("event has no image", nil)
	}
	return event.Image, event.ImageMime, nil
}
