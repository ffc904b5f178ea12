package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// wireEvent is the JSON shape published to Kafka. CreatedAt travels as
// RFC3339Nano so consumers in other languages can parse it.
type wireEvent struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	Actor     string         `json:"actor,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// Encode serializes an event for the stream.
func Encode(e Event) ([]byte, error) {
	w := wireEvent{
		ID:        e.ID.String(),
		Name:      string(e.Name),
		Category:  string(e.Category),
		Actor:     e.Actor,
		Subject:   e.Subject,
		RequestID: e.RequestID,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt.Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode audit event: %w", err)
	}
	return data, nil
}

// Decode parses an event from the stream.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("decode audit event: %w", err)
	}

	eventID, err := uuid.Parse(w.ID)
	if err != nil {
		return Event{}, fmt.Errorf("decode audit event id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return Event{}, fmt.Errorf("decode audit event timestamp: %w", err)
	}

	return Event{
		ID:        eventID,
		Name:      EventName(w.Name),
		Category:  EventCategory(w.Category),
		Actor:     w.Actor,
		Subject:   w.Subject,
		RequestID: w.RequestID,
		Metadata:  w.Metadata,
		CreatedAt: createdAt,
	}, nil
}
