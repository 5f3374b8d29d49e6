package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdbip/agiler-write-model/internal/es"
)

// createTestStore creates a fresh SQLite store in a temp dir.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path, opts...)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createPostgresStore opens the database named by AGILER_TEST_POSTGRES_DSN,
// skipping the test when it is unset. Tables are emptied first.
func createPostgresStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("AGILER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AGILER_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("Open(pgx) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	for _, stmt := range []string{
		`DELETE FROM events`,
		`DELETE FROM entities`,
		`UPDATE positions SET value = -1 WHERE name = 'events'`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("reset %q: %v", stmt, err)
		}
	}
	return s
}

// testEntity is a minimal aggregate: an identity, the version it claims and
// the events it queues.
type testEntity struct {
	id      es.CanonicalEntityID
	version es.EntityVersion
	queue   es.EventQueue
}

func newTestEntity(id, typ string, version es.EntityVersion, names ...string) *testEntity {
	e := &testEntity{id: es.MustCanonicalEntityID(id, typ), version: version}
	for _, name := range names {
		e.queue.Enqueue(es.MustUnpublishedEvent(name, es.Details{"event": name}))
	}
	return e
}

func (e *testEntity) ID() es.CanonicalEntityID                { return e.id }
func (e *testEntity) Version() es.EntityVersion               { return e.version }
func (e *testEntity) UnpublishedEvents() []es.UnpublishedEvent { return e.queue.Events() }

type eventRow struct {
	EntityID string
	Name     string
	Version  int64
	Position int64
}

// allEvents returns every event row in insertion order.
func allEvents(t *testing.T, s *Store) []eventRow {
	t.Helper()
	rows, err := s.db.Query(`SELECT entity_id, name, version, position FROM events ORDER BY position, entity_id, version`)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	defer rows.Close()
	var out []eventRow
	for rows.Next() {
		var r eventRow
		if err := rows.Scan(&r.EntityID, &r.Name, &r.Version, &r.Position); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	return out
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func publish(t *testing.T, s *Store, id es.CanonicalEntityID, name string) {
	t.Helper()
	if err := s.Publish(context.Background(), es.MustUnpublishedEvent(name, es.Details{}), id, "tester"); err != nil {
		t.Fatalf("Publish(%s, %s): %v", id, name, err)
	}
}
