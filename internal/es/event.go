package es

import (
	"maps"
	"strings"
	"time"
)

// Details is the structured payload of an event. It must survive a JSON
// round trip; the shape is owned by whoever interprets the event name.
type Details map[string]any

// String returns the string stored under key, or "" when absent or not a string.
func (d Details) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// UnpublishedEvent is an event queued on an aggregate and not yet persisted.
type UnpublishedEvent struct {
	name    string
	details Details
}

// NewUnpublishedEvent returns an event named name. The name must be non-empty
// and details must be set; an empty map is fine.
func NewUnpublishedEvent(name string, details Details) (UnpublishedEvent, error) {
	if strings.TrimSpace(name) == "" {
		return UnpublishedEvent{}, NewValidationError("event name must be set")
	}
	if details == nil {
		return UnpublishedEvent{}, NewValidationError("details of event %q must be set", name)
	}
	return UnpublishedEvent{name: name, details: maps.Clone(details)}, nil
}

// MustUnpublishedEvent is like NewUnpublishedEvent but panics on invalid input.
func MustUnpublishedEvent(name string, details Details) UnpublishedEvent {
	ev, err := NewUnpublishedEvent(name, details)
	if err != nil {
		panic(err)
	}
	return ev
}

func (e UnpublishedEvent) Name() string { return e.name }

// Details returns a shallow copy of the payload.
func (e UnpublishedEvent) Details() Details { return maps.Clone(e.details) }

// PublishedEvent is the durable form of an event as returned by history reads.
type PublishedEvent struct {
	Name    string  `json:"name"`
	Details Details `json:"details"`
}

// RecordedEvent is a durable event with everything the store assigned to it.
type RecordedEvent struct {
	Entity    CanonicalEntityID
	Name      string
	Details   Details
	Actor     string
	Version   EntityVersion
	Position  int64
	Timestamp time.Time
}

// EntityEvent tags an event with the entity it belongs to. Projections
// consume flat lists of these.
type EntityEvent struct {
	Entity  CanonicalEntityID
	Name    string
	Details Details
}

// EventsOf flattens the queued events of entities, preserving entity order and
// enqueue order within each entity.
func EventsOf(entities ...Entity) []EntityEvent {
	var out []EntityEvent
	for _, e := range entities {
		for _, ev := range e.UnpublishedEvents() {
			out = append(out, EntityEvent{Entity: e.ID(), Name: ev.Name(), Details: ev.Details()})
		}
	}
	return out
}

// EventsFrom converts recorded events into projection input.
func EventsFrom(recorded []RecordedEvent) []EntityEvent {
	out := make([]EntityEvent, 0, len(recorded))
	for _, r := range recorded {
		out = append(out, EntityEvent{Entity: r.Entity, Name: r.Name, Details: r.Details})
	}
	return out
}
