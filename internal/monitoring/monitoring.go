package monitoring

import (
	"sort"
	"strings"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// EventCount is the number of times an event was recorded and when it last happened
type EventCount struct {
	Event    string            `json:"event"`
	Labels   map[string]string `json:"labels,omitempty"`
	Count    int64             `json:"count"`
	LastSeen time.Time         `json:"last_seen"`
}

// Service counts service events in memory and logs them
type Service struct {
	mu       sync.Mutex
	started  time.Time
	counters map[string]*EventCount
	now      func() time.Time
}

// NewService creates a new monitoring service
func NewService() *Service {
	return &Service{
		started:  time.Now().UTC(),
		counters: make(map[string]*EventCount),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RecordEvent records a monitored event. Labels that identify a single
// entity, like ids, belong in the log line and not in the counter key.
func (s *Service) RecordEvent(eventName string, labels map[string]string, id string) {
	ts := s.now()
	nuts.L.Infof("[Monitoring] Event %s (%s) recorded at %v with labels: %v", eventName, id, ts, labels)

	key := counterKey(eventName, labels)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok {
		c = &EventCount{Event: eventName, Labels: labels}
		s.counters[key] = c
	}
	c.Count++
	c.LastSeen = ts
}

// GetEventMetrics returns all counters for eventName recorded within the last
// duration. An empty eventName matches every event, a zero duration any age.
func (s *Service) GetEventMetrics(eventName string, duration time.Duration) []EventCount {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Time{}
	if duration > 0 {
		cutoff = s.now().Add(-duration)
	}
	out := []EventCount{}
	for _, c := range s.counters {
		if eventName != "" && c.Event != eventName {
			continue
		}
		if c.LastSeen.Before(cutoff) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Event != out[j].Event {
			return out[i].Event < out[j].Event
		}
		return counterKey("", out[i].Labels) < counterKey("", out[j].Labels)
	})
	return out
}

// Uptime returns how long the service has been running
func (s *Service) Uptime() time.Duration {
	return s.now().Sub(s.started)
}

func counterKey(eventName string, labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(eventName)
	for _, k := range keys {
		b.WriteString("|" + k + "=" + labels[k])
	}
	return b.String()
}
