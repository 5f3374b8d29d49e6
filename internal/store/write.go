package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sdbip/agiler-write-model/internal/es"
)

var _ es.Publisher = (*Store)(nil)

var errVersionMoved = errors.New("entity version changed during write")

// Publish appends event as the next version of entity, creating the entity
// on its first event. It performs no optimistic check: the event goes on top
// of whatever is stored.
func (s *Store) Publish(ctx context.Context, event es.UnpublishedEvent, entity es.CanonicalEntityID, actor string) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.Publish", trace.WithAttributes(
		attribute.String("entity.id", entity.ID()),
		attribute.String("entity.type", entity.Type()),
		attribute.String("event.name", event.Name()),
	))
	defer func() { endSpan(span, err) }()

	if entity.IsZero() {
		return fmt.Errorf("publish: %w", es.NewValidationError("entity must be set"))
	}
	if event.Name() == "" {
		return fmt.Errorf("publish: %w", es.NewValidationError("event must be set"))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return s.inTx(ctx, "publish", func(tx *sql.Tx) error {
		last, err := s.lockPosition(ctx, tx)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		position := last + 1

		current, exists, err := s.readEntity(ctx, tx, entity)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}

		if err := s.appendEvents(ctx, tx, entity, current, exists, []es.UnpublishedEvent{event}, position, actor); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		if err := s.advancePosition(ctx, tx, position); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		return nil
	})
}

// PublishChanges appends the queued events of all entities as one atomic
// unit. Every event written by one call shares the same position.
//
// Each entity's durable version must equal entity.Version(); otherwise the
// whole call fails with a *es.ConcurrencyError and nothing is written.
// Entities without queued events are checked but not written. Naming the
// same entity twice fails with es.ErrDuplicateEntity before any I/O.
func (s *Store) PublishChanges(ctx context.Context, actor string, entities ...es.Entity) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.PublishChanges", trace.WithAttributes(
		attribute.Int("entities", len(entities)),
	))
	defer func() { endSpan(span, err) }()

	if err := checkBatch(entities); err != nil {
		return fmt.Errorf("publish changes: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish changes: %w", err)
	}

	err = s.inTx(ctx, "publish changes", func(tx *sql.Tx) error {
		last, err := s.lockPosition(ctx, tx)
		if err != nil {
			return fmt.Errorf("publish changes: %w", err)
		}
		position := last + 1

		written := 0
		for _, entity := range entities {
			id := entity.ID()
			current, exists, err := s.readEntity(ctx, tx, id)
			if err != nil {
				return fmt.Errorf("publish changes: %w", err)
			}
			if !current.Equal(entity.Version()) {
				return fmt.Errorf("publish changes: %w", &es.ConcurrencyError{
					Entity:   id,
					Expected: entity.Version(),
					Actual:   current,
				})
			}

			events := entity.UnpublishedEvents()
			if len(events) == 0 {
				continue
			}
			if err := s.appendEvents(ctx, tx, id, current, exists, events, position, actor); err != nil {
				return fmt.Errorf("publish changes: %w", err)
			}
			written += len(events)
		}

		if written == 0 {
			return nil
		}
		if err := s.advancePosition(ctx, tx, position); err != nil {
			return fmt.Errorf("publish changes: %w", err)
		}
		span.SetAttributes(attribute.Int64("position", position), attribute.Int("events", written))
		return nil
	})
	if es.IsConcurrencyConflict(err) {
		s.log.Warn("publish rejected", "error", err)
	}
	return err
}

func checkBatch(entities []es.Entity) error {
	seen := make(map[string]bool, len(entities))
	for _, entity := range entities {
		if entity == nil {
			return es.NewValidationError("entity must not be nil")
		}
		id := entity.ID()
		if id.IsZero() {
			return es.NewValidationError("entity id must be set")
		}
		if seen[id.ID()] {
			return fmt.Errorf("%s: %w", id, es.ErrDuplicateEntity)
		}
		seen[id.ID()] = true
	}
	return nil
}

// lockPosition returns the position of the latest batch and, depending on
// the dialect, locks the counter until the transaction ends.
func (s *Store) lockPosition(ctx context.Context, tx *sql.Tx) (int64, error) {
	var last int64
	if err := tx.QueryRowContext(ctx, s.dialect.lockPosition).Scan(&last); err != nil {
		return 0, fmt.Errorf("read position: %w", classify(noEntity, err))
	}
	return last, nil
}

func (s *Store) advancePosition(ctx context.Context, tx *sql.Tx, position int64) error {
	_, err := tx.ExecContext(ctx, s.Rebind(`UPDATE positions SET value = ? WHERE name = 'events'`), position)
	if err != nil {
		return fmt.Errorf("advance position: %w", classify(noEntity, err))
	}
	return nil
}

// readEntity returns the durable version of id. A missing row yields
// VersionNew and exists == false. A row of another type is a caller bug.
func (s *Store) readEntity(ctx context.Context, tx *sql.Tx, id es.CanonicalEntityID) (es.EntityVersion, bool, error) {
	var (
		typ     string
		version int64
	)
	err := tx.QueryRowContext(ctx, s.Rebind(`SELECT type, version FROM entities WHERE id = ?`), id.ID()).Scan(&typ, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return es.VersionNew, false, nil
	}
	if err != nil {
		return es.VersionNew, false, fmt.Errorf("read entity %s: %w", id, classify(id, err))
	}
	if typ != id.Type() {
		return es.VersionNew, false, &es.TypeMismatchError{ID: id.ID(), Expected: id.Type(), Actual: typ}
	}
	v, err := es.VersionOf(version)
	if err != nil {
		return es.VersionNew, false, fmt.Errorf("read entity %s: %w", id, err)
	}
	return v, true, nil
}

// appendEvents writes events on top of current and moves the entities row
// to the version of the last one.
func (s *Store) appendEvents(
	ctx context.Context,
	tx *sql.Tx,
	id es.CanonicalEntityID,
	current es.EntityVersion,
	exists bool,
	events []es.UnpublishedEvent,
	position int64,
	actor string,
) error {
	last := current.Add(len(events))

	if exists {
		res, err := tx.ExecContext(ctx, s.Rebind(`
			UPDATE entities SET version = ?
			WHERE id = ? AND version = ?
		`), last.Value(), id.ID(), current.Value())
		if err != nil {
			return fmt.Errorf("update entity: %w", classify(id, err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update entity: rows affected: %w", err)
		}
		if n == 0 {
			return &es.ConcurrencyError{Entity: id, Expected: current, Err: errVersionMoved}
		}
	} else {
		_, err := tx.ExecContext(ctx, s.Rebind(`
			INSERT INTO entities (id, type, version)
			VALUES (?, ?, ?)
		`), id.ID(), id.Type(), last.Value())
		if err != nil {
			return fmt.Errorf("insert entity: %w", classify(id, err))
		}
	}

	timestamp := s.now().UTC().UnixMilli()
	insert := s.Rebind(`
		INSERT INTO events
		(entity_id, entity_type, name, details, actor, version, position, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	version := current
	for _, ev := range events {
		version = version.Next()
		details, err := marshalDetails(ev.Details())
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		_, err = tx.ExecContext(ctx, insert,
			id.ID(),
			id.Type(),
			ev.Name(),
			details,
			actor,
			version.Value(),
			position,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", classify(id, err))
		}
	}

	s.log.Debug("appended events",
		"entity", id,
		"from", current.Next().Value(),
		"to", last.Value(),
		"position", position,
		"actor", actor,
	)
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
