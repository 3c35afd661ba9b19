package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the audit event taxonomy.
type EventType string

const (
	EventValidationRequest EventType = "validation_request"
	EventValidationResult  EventType = "validation_result"
	EventSafetyAlert       EventType = "safety_alert"
	EventFeedback          EventType = "feedback"
	EventCacheRefresh      EventType = "cache_refresh"
)

var validEventTypes = map[EventType]bool{
	EventValidationRequest: true,
	EventValidationResult:  true,
	EventSafetyAlert:       true,
	EventFeedback:          true,
	EventCacheRefresh:      true,
}

// Entry is one append-only audit record. Detail is a free-form payload
// stored as JSON.
type Entry struct {
	ID        uuid.UUID              `db:"id" json:"id"`
	PatientID string                 `db:"patient_id" json:"patient_id"`
	ActorID   string                 `db:"actor_id" json:"actor_id"`
	Type      EventType              `db:"event_type" json:"event_type"`
	Detail    map[string]interface{} `db:"detail" json:"detail,omitempty"`
	RequestID string                 `db:"request_id" json:"request_id,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// TrailFilter narrows an audit-trail query.
type TrailFilter struct {
	From   *time.Time
	To     *time.Time
	Types  []EventType
	Limit  int
	Offset int
}
