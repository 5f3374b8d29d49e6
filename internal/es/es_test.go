package es

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalEntityID(t *testing.T) {
	id, err := NewCanonicalEntityID("a1", "Task")
	require.NoError(t, err)
	assert.Equal(t, "a1", id.ID())
	assert.Equal(t, "Task", id.Type())
	assert.False(t, id.IsZero())
	assert.Equal(t, "[Task a1]", id.String())

	assert.True(t, id.Equal(MustCanonicalEntityID("a1", "Task")))
	assert.False(t, id.Equal(MustCanonicalEntityID("a1", "Feature")))
	assert.True(t, id == MustCanonicalEntityID("a1", "Task"))
}

func TestCanonicalEntityID_RequiresFields(t *testing.T) {
	tests := []struct{ id, typ string }{
		{"", "Task"},
		{"a1", ""},
		{"  ", "Task"},
		{"", ""},
	}
	for _, tt := range tests {
		_, err := NewCanonicalEntityID(tt.id, tt.typ)
		assert.True(t, IsValidation(err), "(%q, %q)", tt.id, tt.typ)
	}
	assert.True(t, CanonicalEntityID{}.IsZero())
}

func TestUnpublishedEvent(t *testing.T) {
	ev, err := NewUnpublishedEvent("Created", Details{"title": "X"})
	require.NoError(t, err)
	assert.Equal(t, "Created", ev.Name())
	assert.Equal(t, "X", ev.Details().String("title"))

	_, err = NewUnpublishedEvent("", Details{})
	assert.True(t, IsValidation(err))

	_, err = NewUnpublishedEvent("Created", nil)
	assert.True(t, IsValidation(err))

	_, err = NewUnpublishedEvent("Created", Details{})
	assert.NoError(t, err)
}

func TestUnpublishedEvent_DetailsAreCopied(t *testing.T) {
	src := Details{"title": "X"}
	ev := MustUnpublishedEvent("Created", src)
	src["title"] = "changed"
	assert.Equal(t, "X", ev.Details().String("title"))

	d := ev.Details()
	d["title"] = "changed again"
	assert.Equal(t, "X", ev.Details().String("title"))
}

func TestEventQueue(t *testing.T) {
	var q EventQueue
	assert.Empty(t, q.Events())

	q.Enqueue(MustUnpublishedEvent("A", Details{}))
	q.Enqueue(MustUnpublishedEvent("B", Details{}))
	q.Enqueue(MustUnpublishedEvent("A", Details{"n": 2}))

	removed := q.RemoveFirst(func(ev UnpublishedEvent) bool { return ev.Name() == "A" })
	assert.True(t, removed)
	names := func() []string {
		var out []string
		for _, ev := range q.Events() {
			out = append(out, ev.Name())
		}
		return out
	}
	assert.Equal(t, []string{"B", "A"}, names())

	assert.False(t, q.RemoveFirst(func(ev UnpublishedEvent) bool { return ev.Name() == "C" }))
	assert.Equal(t, 2, q.Len())
}

type stubEntity struct {
	id     CanonicalEntityID
	events []UnpublishedEvent
}

func (s stubEntity) ID() CanonicalEntityID                  { return s.id }
func (s stubEntity) Version() EntityVersion                 { return VersionNew }
func (s stubEntity) UnpublishedEvents() []UnpublishedEvent { return s.events }

func TestEventsOf_PreservesOrder(t *testing.T) {
	a := stubEntity{MustCanonicalEntityID("a", "Item"), []UnpublishedEvent{
		MustUnpublishedEvent("A1", Details{}),
		MustUnpublishedEvent("A2", Details{}),
	}}
	b := stubEntity{MustCanonicalEntityID("b", "Item"), []UnpublishedEvent{
		MustUnpublishedEvent("B1", Details{}),
	}}

	got := EventsOf(a, b)
	require.Len(t, got, 3)
	assert.Equal(t, "A1", got[0].Name)
	assert.Equal(t, a.id, got[0].Entity)
	assert.Equal(t, "A2", got[1].Name)
	assert.Equal(t, "B1", got[2].Name)
	assert.Equal(t, b.id, got[2].Entity)
}

func TestConcurrencyError(t *testing.T) {
	err := fmt.Errorf("publish changes: %w", &ConcurrencyError{
		Entity:   MustCanonicalEntityID("a", "Task"),
		Expected: MustVersion(0),
		Actual:   MustVersion(1),
	})
	assert.True(t, IsConcurrencyConflict(err))
	assert.True(t, errors.Is(err, ErrConcurrencyConflict))
	assert.Contains(t, err.Error(), "[Task a]")
	assert.Contains(t, err.Error(), "expected [version 0], found [version 1]")

	var ce *ConcurrencyError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "a", ce.Entity.ID())

	cause := errors.New("UNIQUE constraint failed")
	wrapped := &ConcurrencyError{Entity: MustCanonicalEntityID("a", "Task"), Err: cause}
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, ErrConcurrencyConflict)
}

func TestTypeMismatchError(t *testing.T) {
	err := fmt.Errorf("history: %w", &TypeMismatchError{ID: "a", Expected: "Task", Actual: "Feature"})
	assert.True(t, IsTypeMismatch(err))
	assert.False(t, IsConcurrencyConflict(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, `history: entity a has type "Feature", expected "Task"`, err.Error())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("title must be set")
	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "title must be set", err.Error())
	assert.False(t, IsValidation(errors.New("other")))
}
