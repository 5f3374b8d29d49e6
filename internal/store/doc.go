// Package store is the durable event store: an append-only event log with
// per-entity versions and a store-wide position counter.
//
// # Tables
//
//   - entities: one row per aggregate (id, type, version). version always
//     equals the version of the entity's last stored event.
//   - events: one row per event, keyed by (entity_id, version).
//   - positions: named counters; the "events" row holds the position of the
//     most recent batch, -1 for an empty store.
//
// # Write Serialization
//
// Every append transaction reads and advances the position counter before it
// touches any entity. Whoever holds the counter holds the write path, so
// positions follow commit order without gaps.
//
//   - SQLite: transactions begin IMMEDIATE (_txlock=immediate) and the pool
//     has a single connection.
//   - PostgreSQL: the counter row is locked with SELECT ... FOR UPDATE.
//
// Optimistic concurrency is enforced on top of that: the version an aggregate
// claims must match the durable version, and the entities row is advanced
// with a compare-and-set UPDATE.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
