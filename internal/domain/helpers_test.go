package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdbip/agiler-write-model/internal/es"
)

func ev(name string, details es.Details) es.PublishedEvent {
	return es.PublishedEvent{Name: name, Details: details}
}

func created(typ ItemType) es.PublishedEvent {
	return ev(EventCreated, es.Details{"title": "t", "type": string(typ)})
}

func parentChanged(parent string) es.PublishedEvent {
	return ev(EventParentChanged, es.Details{"parent": parent})
}

func childrenAdded(ids ...string) es.PublishedEvent {
	children := make([]any, len(ids))
	for i, id := range ids {
		children[i] = id
	}
	return ev(EventChildrenAdded, es.Details{"children": children})
}

// named returns the queued events with the given name.
func named(e es.Entity, name string) []es.UnpublishedEvent {
	var out []es.UnpublishedEvent
	for _, ev := range e.UnpublishedEvents() {
		if ev.Name() == name {
			out = append(out, ev)
		}
	}
	return out
}

func names(e es.Entity) []string {
	var out []string
	for _, ev := range e.UnpublishedEvents() {
		out = append(out, ev.Name())
	}
	return out
}

func reItem(t *testing.T, id string, events ...es.PublishedEvent) *Item {
	t.Helper()
	item, err := ReconstituteItem(id, es.VersionNew, events)
	require.NoError(t, err)
	return item
}

func reTask(t *testing.T, id string, events ...es.PublishedEvent) *Task {
	t.Helper()
	task, err := ReconstituteTask(id, es.VersionNew, events)
	require.NoError(t, err)
	return task
}

func reFeature(t *testing.T, id string, events ...es.PublishedEvent) *Feature {
	t.Helper()
	f, err := ReconstituteFeature(id, es.VersionNew, events)
	require.NoError(t, err)
	return f
}
