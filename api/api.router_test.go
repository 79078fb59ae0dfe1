package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/dashboard/api/middleware"
	"github.com/itsatony/w4b_v3/server/dashboard/api/resources"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/cache"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/dashservice"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/dataset"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type staticSource[T any] struct {
	id   string
	data []T
}

func (s staticSource[T]) Identity() string { return s.id }

func (s staticSource[T]) Fingerprint(ctx context.Context) (string, error) { return "v1", nil }

func (s staticSource[T]) Load(ctx context.Context) ([]T, error) { return s.data, nil }

type eventStore struct {
	mu     sync.Mutex
	events []*models.UploadedEvent
}

func (s *eventStore) Create(ctx context.Context, event *models.UploadedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *eventStore) Get(ctx context.Context, id string) (*models.UploadedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, errors.NewNotFoundError("event not found", nil)
}

func (s *eventStore) List(ctx context.Context, filters models.EventFilters, offset, limit int) ([]*models.UploadedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.UploadedEvent{}
	for _, e := range s.events {
		if filters.Type == "" || e.EventType == filters.Type {
			out = append(out, e)
		}
	}
	return out, nil
}

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	observations := []models.Observation{
		{CreatedAt: at(2023, time.June, 10), Weight: 40, Temperature: 30, Humidity: 60},
		{CreatedAt: at(2024, time.June, 1), Weight: 50, Temperature: 34, Humidity: 64},
		{CreatedAt: at(2024, time.June, 2), Weight: 52, Temperature: 36, Humidity: 66},
	}
	intervals := []models.EventInterval{
		{CreatedAt: at(2024, time.June, 1), EndDate: at(2024, time.June, 2), WeightDiff: 4},
	}
	store := cache.NewMemoryStore(0)
	svc := dashservice.New(
		dataset.NewCached[models.Observation](staticSource[models.Observation]{id: "obs", data: observations}, store),
		dataset.NewCached[models.EventInterval](staticSource[models.EventInterval]{id: "ivs", data: intervals}, store),
		&eventStore{},
		dashservice.Options{MaxImageSize: 1024, AllowedMimeTypes: []string{"image/png"}},
	)
	require.NoError(t, svc.Validate())

	res := resources.NewResources(svc, 1024)
	res.SetHealthCheck(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return NewRouter(res, middleware.HTTPConfig{})
}

func get(t *testing.T, router http.Handler, path string, query url.Values) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func uploadRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "hive.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)
	rec := get(t, router, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_DashboardMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/v1/dashboard/metrics", url.Values{
		"start":  {"2024-06-01T00:00:00+00:00"},
		"end":    {"2024-06-30T00:00:00+00:00"},
		"fields": {"weight"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "Average weight", body[0]["label"])
	assert.Equal(t, 51.0, body[0]["current_value"])
	assert.Equal(t, 40.0, body[0]["baseline"])
	assert.Equal(t, "Rapid weight changes", body[1]["label"])
	assert.Nil(t, body[1]["baseline"])
	assert.Equal(t, dashservice.WarningInsufficientHistory, body[1]["warning"])
}

func TestRouter_DashboardRejectsBadQueries(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name  string
		path  string
		query url.Values
	}{
		{"naive timestamp", "/api/v1/dashboard/metrics", url.Values{"end": {"2024-06-30 00:00:00"}}},
		{"garbage timestamp", "/api/v1/dashboard/series", url.Values{"start": {"yesterday"}}},
		{"unknown field", "/api/v1/dashboard/series", url.Values{"fields": {"weight,pressure"}}},
		{"inverted window", "/api/v1/dashboard/overlay", url.Values{
			"start": {"2024-06-30T00:00:00Z"},
			"end":   {"2024-06-01T00:00:00Z"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.path, tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var apiErr map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, "validation", apiErr["type"])
			assert.NotEmpty(t, apiErr["request_id"])
		})
	}
}

func TestRouter_DashboardSeriesAndOverlay(t *testing.T) {
	router := newTestRouter(t)
	window := url.Values{
		"start":  {"2024-06-01T00:00:00Z"},
		"end":    {"2024-06-02T12:00:00Z"},
		"fields": {"weight,humidity"},
	}

	rec := get(t, router, "/api/v1/dashboard/series", window)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var points []models.SeriesPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 2)
	assert.Equal(t, map[models.Field]float64{models.Weight: 52, models.Humidity: 66}, points[1].Values)

	rec = get(t, router, "/api/v1/dashboard/overlay", window)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var bands []models.OverlayBand
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bands))
	require.Len(t, bands, 1)
	assert.Equal(t, models.Rising, bands[0].Trend)
}

func TestRouter_DashboardReload(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/reload", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_EventLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, map[string]string{
		"event_time":  "2024-06-03T17:00:00+02:00",
		"event_type":  "harvest",
		"description": "first honey of the year",
	}, pngHeader))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.UploadedEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, models.EventHarvest, created.EventType)
	assert.True(t, created.EventTime.Equal(time.Date(2024, time.June, 3, 15, 0, 0, 0, time.UTC)))

	rec = get(t, router, "/api/v1/events/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "\"image\"")

	rec = get(t, router, "/api/v1/events/"+created.ID+"/image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	rec = get(t, router, "/api/v1/events", url.Values{"type": {"harvest"}, "limit": {"10"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.UploadedEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestRouter_EventUploadRejects(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
	}{
		{"naive event time", map[string]string{"event_time": "2024-06-03 17:00:00", "event_type": "feeding"}, nil},
		{"unknown type", map[string]string{"event_time": "2024-06-03T17:00:00Z", "event_type": "swarm"}, nil},
		{"not an image", map[string]string{"event_time": "2024-06-03T17:00:00Z", "event_type": "feeding"}, []byte("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, uploadRequest(t, tt.fields, tt.image))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_EventNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/v1/events/evt_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, router, "/api/v1/events", url.Values{"limit": {"many"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_DashboardOffsetEncoding(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/dashboard/series?start=2024-06-01T02:00:00%2B02:00&end=2024-06-02T14:00:00%2B02:00", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var points []models.SeriesPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	assert.Len(t, points, 2)

	// a raw + decodes to a space
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/dashboard/series?end=2024-06-02T14:00:00+02:00", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}
