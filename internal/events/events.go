package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	// TypeAttemptGraded is emitted after a graded attempt has been persisted.
	TypeAttemptGraded = "attempt.graded"
	// TypeProgressReset is emitted after a learner's review states are deleted.
	TypeProgressReset = "progress.reset"
)

// Event is a notification published by services after a state change.
// Handlers must not be required for correctness: scheduling never reads
// anything a handler produces.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type identifies the payload schema
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// AttemptGraded is the payload of TypeAttemptGraded.
type AttemptGraded struct {
	LearnerID           string    `json:"learner_id"`
	ItemKey             string    `json:"item_key"`
	AttemptID           string    `json:"attempt_id"`
	IsCorrect           bool      `json:"is_correct"`
	MatchedAlternative  bool      `json:"matched_alternative"`
	Score               int       `json:"score"`
	Quality             int       `json:"quality"`
	ResponseTimeSeconds float64   `json:"response_time_seconds"`
	Tier                string    `json:"tier"`
	IntervalDays        int       `json:"interval_days"`
	NextReviewAt        time.Time `json:"next_review_at"`
	// Duplicate is set when the attempt was a retry of one already applied.
	Duplicate bool `json:"duplicate,omitempty"`
}

// ProgressReset is the payload of TypeProgressReset.
type ProgressReset struct {
	LearnerID string `json:"learner_id"`
	Deleted   int    `json:"deleted"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
