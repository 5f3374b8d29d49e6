package store

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

type dialect struct {
	name   string
	schema string

	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool

	// query that reads the position counter and holds it until commit
	lockPosition string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:   "sqlite",
		schema: sqliteSchema,
		// The IMMEDIATE transaction already holds the write lock.
		lockPosition: `SELECT value FROM positions WHERE name = 'events'`,
	},
	DriverPostgres: {
		name:         "postgres",
		schema:       postgresSchema,
		numbered:     true,
		lockPosition: `SELECT value FROM positions WHERE name = 'events' FOR UPDATE`,
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
	return d, nil
}

// rebind rewrites ? placeholders for dialects that number them. Queries in
// this module never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// statements splits a schema script on semicolons that end a line.
func statements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";\n") {
		stmt = strings.TrimSpace(stmt)
		stmt = strings.TrimSuffix(stmt, ";")
		if stmt == "" || isComment(stmt) {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func isComment(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
