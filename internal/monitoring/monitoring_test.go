package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RecordEvent(t *testing.T) {
	s := NewService()
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.RecordEvent("event_upload", map[string]string{"event_type": "feeding"}, "evt_1")
	s.RecordEvent("event_upload", map[string]string{"event_type": "feeding"}, "evt_2")
	s.RecordEvent("event_upload", map[string]string{"event_type": "harvest"}, "evt_3")
	s.RecordEvent("dataset_invalidation", nil, "csv:data/a.csv")

	uploads := s.GetEventMetrics("event_upload", 0)
	require.Len(t, uploads, 2)
	assert.Equal(t, "feeding", uploads[0].Labels["event_type"])
	assert.Equal(t, int64(2), uploads[0].Count)
	assert.Equal(t, int64(1), uploads[1].Count)

	assert.Len(t, s.GetEventMetrics("", 0), 3)
}

func TestService_GetEventMetricsWindow(t *testing.T) {
	s := NewService()
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.RecordEvent("dataset_invalidation", nil, "a")
	now = now.Add(2 * time.Hour)

	assert.Empty(t, s.GetEventMetrics("dataset_invalidation", time.Hour))
	assert.Len(t, s.GetEventMetrics("dataset_invalidation", 3*time.Hour), 1)
}
