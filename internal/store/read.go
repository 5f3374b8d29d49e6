package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sdbip/agiler-write-model/internal/es"
)

var (
	_ es.HistoryReader = (*Store)(nil)
	_ es.EventSource   = (*Store)(nil)
)

// HistoryFor returns the history of id. It fails with a *es.TypeMismatchError
// when the stored entity has a different type. A missing entity yields
// found == false.
func (s *Store) HistoryFor(ctx context.Context, id es.CanonicalEntityID) (history es.EntityHistory, found bool, err error) {
	ctx, span := s.tracer.Start(ctx, "store.HistoryFor", trace.WithAttributes(
		attribute.String("entity.id", id.ID()),
		attribute.String("entity.type", id.Type()),
	))
	defer func() { endSpan(span, err) }()

	history, found, err = s.readHistory(ctx, id.ID())
	if err != nil || !found {
		return es.EntityHistory{}, found, err
	}
	if history.Type != id.Type() {
		return es.EntityHistory{}, false, fmt.Errorf("history: %w", &es.TypeMismatchError{
			ID:       id.ID(),
			Expected: id.Type(),
			Actual:   history.Type,
		})
	}
	return history, true, nil
}

// History returns the history of the entity with the given id, whatever its
// type.
func (s *Store) History(ctx context.Context, id string) (history es.EntityHistory, found bool, err error) {
	ctx, span := s.tracer.Start(ctx, "store.History", trace.WithAttributes(
		attribute.String("entity.id", id),
	))
	defer func() { endSpan(span, err) }()

	return s.readHistory(ctx, id)
}

// readHistory reads the entity row, then its events in version order. The
// returned version is that of the last event read so it always matches the
// returned events, even when a writer commits in between.
func (s *Store) readHistory(ctx context.Context, id string) (es.EntityHistory, bool, error) {
	var (
		typ     string
		version int64
	)
	err := s.db.QueryRowContext(ctx, s.Rebind(`SELECT type, version FROM entities WHERE id = ?`), id).Scan(&typ, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return es.EntityHistory{}, false, nil
	}
	if err != nil {
		return es.EntityHistory{}, false, fmt.Errorf("history: read entity: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.Rebind(`
		SELECT name, details, version
		FROM events
		WHERE entity_id = ?
		ORDER BY version ASC
	`), id)
	if err != nil {
		return es.EntityHistory{}, false, fmt.Errorf("history: query events: %w", err)
	}
	defer rows.Close()

	events := []es.PublishedEvent{}
	last := int64(-1)
	for rows.Next() {
		var (
			name    string
			details string
		)
		if err := rows.Scan(&name, &details, &last); err != nil {
			return es.EntityHistory{}, false, fmt.Errorf("history: scan event: %w", err)
		}
		d, err := unmarshalDetails(details)
		if err != nil {
			return es.EntityHistory{}, false, fmt.Errorf("history: %s v%d: %w", id, last, err)
		}
		events = append(events, es.PublishedEvent{Name: name, Details: d})
	}
	if err := rows.Err(); err != nil {
		return es.EntityHistory{}, false, fmt.Errorf("history: iterate events: %w", err)
	}

	if len(events) == 0 {
		last = version
	}
	v, err := es.VersionOf(last)
	if err != nil {
		return es.EntityHistory{}, false, fmt.Errorf("history: %w", err)
	}
	return es.EntityHistory{Type: typ, Version: v, Events: events}, true, nil
}

// ReadEvents returns the durable events with positions in
// (afterPosition, afterPosition+maxPositions], ordered by position, entity
// id and version. Batches are never split across calls.
//
// Returns an empty slice (not nil) when no events are in range.
func (s *Store) ReadEvents(ctx context.Context, afterPosition int64, maxPositions int) ([]es.RecordedEvent, error) {
	if maxPositions <= 0 {
		return nil, fmt.Errorf("read events: %w", es.NewValidationError("max positions must be positive, got %d", maxPositions))
	}

	rows, err := s.db.QueryContext(ctx, s.Rebind(`
		SELECT entity_id, entity_type, name, details, actor, version, position, timestamp
		FROM events
		WHERE position > ? AND position <= ?
		ORDER BY position ASC, entity_id ASC, version ASC
	`), afterPosition, afterPosition+int64(maxPositions))
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	out := []es.RecordedEvent{}
	for rows.Next() {
		ev, err := scanRecordedEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: iterate: %w", err)
	}
	return out, nil
}

// LastPosition returns the position of the latest batch, -1 for an empty store.
func (s *Store) LastPosition(ctx context.Context) (int64, error) {
	var last int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM positions WHERE name = 'events'`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last position: %w", err)
	}
	return last, nil
}

func scanRecordedEvent(rows *sql.Rows) (es.RecordedEvent, error) {
	var (
		entityID, entityType string
		name, details, actor string
		version, position    int64
		timestamp            int64
	)
	if err := rows.Scan(&entityID, &entityType, &name, &details, &actor, &version, &position, &timestamp); err != nil {
		return es.RecordedEvent{}, fmt.Errorf("scan event: %w", err)
	}

	entity, err := es.NewCanonicalEntityID(entityID, entityType)
	if err != nil {
		return es.RecordedEvent{}, fmt.Errorf("scan event: %w", err)
	}
	v, err := es.VersionOf(version)
	if err != nil {
		return es.RecordedEvent{}, fmt.Errorf("scan event: %w", err)
	}
	d, err := unmarshalDetails(details)
	if err != nil {
		return es.RecordedEvent{}, fmt.Errorf("scan event %s v%d: %w", entity, version, err)
	}

	return es.RecordedEvent{
		Entity:    entity,
		Name:      name,
		Details:   d,
		Actor:     actor,
		Version:   v,
		Position:  position,
		Timestamp: time.UnixMilli(timestamp).UTC(),
	}, nil
}
