package models

import "time"

// Selection is the caller-owned dashboard state: which fields to show and
// which window to look at. WindowEnd doubles as the metric reference date.
type Selection struct {
	Fields      []Field   `json:"fields"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// EventFilters defines the available filter options for uploaded events
type EventFilters struct {
	Type      EventType  `json:"type"`
	EventTime *TimeRange `json:"event_time"`
}

// TimeRange represents a time range filter
type TimeRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}
