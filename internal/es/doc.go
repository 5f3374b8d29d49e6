// Package es defines the value types shared by the event store, the domain
// aggregates and the HTTP layer.
//
// An entity is persisted as an ordered, append-only sequence of events.
// Every durable event carries two counters:
//
//   - Version: local to the entity, 0 for its first event, +1 per event.
//   - Position: global to the store, shared by all events written by one
//     PublishChanges call and strictly increasing in commit order.
//
// Aggregates implement [Entity]: they expose the identity and the version they
// were loaded at, plus the events queued by the current mutation session.
// A [Publisher] appends those events atomically and rejects the whole batch
// with a [ConcurrencyError] when any entity has moved on since it was read.
//
// # Versions
//
// [EntityVersion] has a distinguished "new" value ([VersionNew]) for entities
// that have never been persisted. The zero value of EntityVersion is
// VersionNew; [VersionOf] only accepts non-negative values.
package es
