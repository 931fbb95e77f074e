package publishers

import "time"

// Event types emitted by the syncer.
const (
	EventEmbeddingsUpserted = "embeddings.upserted"
)

// Event represents the payload published downstream after a collection changes.
type Event struct {
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	IDs        []string  `json:"ids"`
	Count      int       `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent constructs an Event for the given collection change.
func NewEvent(typ, collection string, ids []string) Event {
	return Event{
		Type:       typ,
		Collection: collection,
		IDs:        ids,
		Count:      len(ids),
		OccurredAt: time.Now().UTC(),
	}
}

// attributes returns the routing attributes shared by queue-style publishers.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type": e.Type,
		"collection": e.Collection,
	}
}
