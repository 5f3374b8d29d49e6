// Package projection maintains the items read table from published events.
//
// The table is a denormalized view for queries; the event log stays the
// source of truth and Rebuild can recreate the table from it at any time.
package projection

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sdbip/agiler-write-model/internal/domain"
	"github.com/sdbip/agiler-write-model/internal/es"
)

// Database is the connection the projection writes to. *store.Store
// satisfies it, so the table lives next to the event log.
type Database interface {
	DB() *sql.DB
	Rebind(query string) string
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id        TEXT PRIMARY KEY,
		type      TEXT NOT NULL,
		progress  TEXT NOT NULL,
		title     TEXT NOT NULL DEFAULT '',
		parent_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id)`,
}

// projected lists the entity types whose events feed the table.
var projected = map[string]bool{
	domain.ItemTypeCode:    true,
	domain.FeatureTypeCode: true,
	domain.TaskTypeCode:    true,
}

// Projection applies events to the items table.
type Projection struct {
	db     *sql.DB
	rebind func(string) string
	log    *slog.Logger
	tracer trace.Tracer
}

// New creates the items table if needed.
func New(ctx context.Context, db Database, log *slog.Logger) (*Projection, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, stmt := range schema {
		if _, err := db.DB().ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("projection schema: %w", err)
		}
	}
	return &Projection{
		db:     db.DB(),
		rebind: db.Rebind,
		log:    log,
		tracer: otel.Tracer("github.com/sdbip/agiler-write-model/internal/projection"),
	}, nil
}

// Sync applies events in order inside one transaction.
func (p *Projection) Sync(ctx context.Context, events []es.EntityEvent) (err error) {
	ctx, span := p.tracer.Start(ctx, "projection.Sync", trace.WithAttributes(attribute.Int("events", len(events))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return p.inTx(ctx, "sync", func(tx *sql.Tx) error {
		return p.applyAll(ctx, tx, events)
	})
}

// Rebuild empties the table and replays the whole event log from src,
// reading pageSize positions at a time. It returns the number of events
// applied.
func (p *Projection) Rebuild(ctx context.Context, src es.EventSource, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = 500
	}
	last, err := src.LastPosition(ctx)
	if err != nil {
		return 0, fmt.Errorf("rebuild: %w", err)
	}

	// The log is read before the transaction starts: the store and the
	// projection may share a single connection.
	var events []es.EntityEvent
	for after := int64(-1); after < last; after += int64(pageSize) {
		page, err := src.ReadEvents(ctx, after, pageSize)
		if err != nil {
			return 0, fmt.Errorf("rebuild: %w", err)
		}
		events = append(events, es.EventsFrom(page)...)
	}

	err = p.inTx(ctx, "rebuild", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
			return fmt.Errorf("rebuild: clear: %w", err)
		}
		return p.applyAll(ctx, tx, events)
	})
	if err != nil {
		return 0, err
	}
	p.log.Info("projection rebuilt", "events", len(events), "position", last)
	return len(events), nil
}

func (p *Projection) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

func (p *Projection) applyAll(ctx context.Context, tx *sql.Tx, events []es.EntityEvent) error {
	for _, ev := range events {
		if !projected[ev.Entity.Type()] {
			continue
		}
		if err := p.apply(ctx, tx, ev); err != nil {
			return fmt.Errorf("apply %s to %s: %w", ev.Name, ev.Entity, err)
		}
	}
	return nil
}

func (p *Projection) apply(ctx context.Context, tx *sql.Tx, ev es.EntityEvent) error {
	id := ev.Entity.ID()
	switch ev.Name {
	case domain.EventCreated:
		_, err := tx.ExecContext(ctx, p.rebind(`
			INSERT INTO items (id, type, progress, title)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`), id, ev.Details.String("type"), string(domain.ProgressNotStarted), ev.Details.String("title"))
		return err

	case domain.EventParentChanged:
		parent, _ := ev.Details["parent"].(string)
		if parent == "" {
			_, err := tx.ExecContext(ctx, p.rebind(`UPDATE items SET parent_id = NULL WHERE id = ?`), id)
			return err
		}
		// A child makes a Task a Story and a Feature an Epic.
		_, err := tx.ExecContext(ctx, p.rebind(`
			UPDATE items SET type = CASE type
				WHEN 'Task' THEN 'Story'
				WHEN 'Feature' THEN 'Epic'
				ELSE type END
			WHERE id = ?
		`), parent)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, p.rebind(`UPDATE items SET parent_id = ? WHERE id = ?`), parent, id)
		return err

	case domain.EventProgressChanged:
		_, err := tx.ExecContext(ctx, p.rebind(`UPDATE items SET progress = ? WHERE id = ?`), ev.Details.String("progress"), id)
		return err

	case domain.EventTypeChanged:
		_, err := tx.ExecContext(ctx, p.rebind(`UPDATE items SET type = ? WHERE id = ?`), ev.Details.String("type"), id)
		return err
	}
	return nil
}
