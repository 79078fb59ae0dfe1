// FilePath: server/dashboard/internal/models/models.event.go
package models

import "time"

// EventType classifies a manually observed hive event
type EventType string

const (
	EventFeeding   EventType = "feeding"
	EventBoxChange EventType = "box change"
	EventHarvest   EventType = "harvest"
	EventTreatment EventType = "treatment"
	EventOther     EventType = "other"
)

var EventTypes = []EventType{EventFeeding, EventBoxChange, EventHarvest, EventTreatment, EventOther}

func (t EventType) Valid() bool {
	for _, et := range EventTypes {
		if t == et {
			return true
		}
	}
	return false
}

// UploadedEvent is a beekeeper-reported event. Written once, never mutated.
type UploadedEvent struct {
	ID          string    `json:"id" bson:"_id"`
	EventTime   time.Time `json:"event_time" bson:"event_time"`
	EventType   EventType `json:"event_type" bson:"event_type"`
	Description string    `json:"description" bson:"description"`
	Image       []byte    `json:"-" bson:"image,omitempty"`
	ImageMime   string    `json:"image_mime,omitempty" bson:"image_mime,omitempty"`
	ImageSize   int       `json:"image_size,omitempty" bson:"image_size,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

// EventUploadRequest carries the parsed form input of an event upload
type EventUploadRequest struct {
	EventTime   time.Time
	EventType   string
	Description string
	Image       []byte
}
