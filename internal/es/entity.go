package es

import "context"

// Entity is the contract every aggregate fulfils towards the store.
type Entity interface {
	ID() CanonicalEntityID

	// Version is the version the aggregate was loaded at, or VersionNew.
	Version() EntityVersion

	// UnpublishedEvents returns the events queued by the current mutation
	// session, in enqueue order.
	UnpublishedEvents() []UnpublishedEvent
}

// EventQueue holds the unpublished events of an aggregate. The zero value is
// an empty queue.
type EventQueue struct {
	events []UnpublishedEvent
}

// Enqueue appends ev to the queue.
func (q *EventQueue) Enqueue(ev UnpublishedEvent) { q.events = append(q.events, ev) }

// RemoveFirst drops the first queued event for which match returns true and
// reports whether one was dropped.
func (q *EventQueue) RemoveFirst(match func(UnpublishedEvent) bool) bool {
	for i, ev := range q.events {
		if match(ev) {
			q.events = append(q.events[:i:i], q.events[i+1:]...)
			return true
		}
	}
	return false
}

// Events returns a copy of the queued events.
func (q *EventQueue) Events() []UnpublishedEvent {
	out := make([]UnpublishedEvent, len(q.events))
	copy(out, q.events)
	return out
}

func (q *EventQueue) Len() int { return len(q.events) }

// Publisher appends events durably.
type Publisher interface {
	// Publish appends one event as the next version of entity.
	Publish(ctx context.Context, event UnpublishedEvent, entity CanonicalEntityID, actor string) error

	// PublishChanges appends the queued events of all entities atomically,
	// failing with a *ConcurrencyError when any entity's durable version
	// differs from the version it claims.
	PublishChanges(ctx context.Context, actor string, entities ...Entity) error
}

// HistoryReader loads entity histories. A missing entity is reported with
// found == false and a nil error.
type HistoryReader interface {
	// HistoryFor returns the history of id, failing with a
	// *TypeMismatchError when the stored type differs from id.Type().
	HistoryFor(ctx context.Context, id CanonicalEntityID) (history EntityHistory, found bool, err error)

	// History returns the history of the entity with the bare id, whatever
	// its type.
	History(ctx context.Context, id string) (history EntityHistory, found bool, err error)
}

// EventSource reads durable events in global order.
type EventSource interface {
	// ReadEvents returns the events with positions in
	// (afterPosition, afterPosition+maxPositions], ordered by position,
	// entity id and version.
	ReadEvents(ctx context.Context, afterPosition int64, maxPositions int) ([]RecordedEvent, error)

	// LastPosition returns the position of the most recent batch, -1 when
	// the store is empty.
	LastPosition(ctx context.Context) (int64, error)
}
