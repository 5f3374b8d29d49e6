// Package domain holds the backlog aggregates: Item, Feature and Task.
//
// Aggregates are plain guard-clause state machines. Behaviour methods check
// their preconditions against the state folded from history and, only when
// they hold, enqueue events. Nothing here talks to storage; the store
// persists whatever an aggregate's queue holds, in order.
//
// Every aggregate is built one of two ways:
//
//   - NewX(id, title, type) queues exactly one Created event.
//   - ReconstituteX(id, version, events) folds history and queues nothing.
//
// Event payloads read from history are checked against the CUE schemas in
// schema.cue before they are applied.
package domain
