package projection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Row is one record of the items table.
type Row struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Progress string `json:"progress"`
	Title    string `json:"title"`
	ParentID string `json:"parent_id,omitempty"`
}

// Get returns the row for id.
func (p *Projection) Get(ctx context.Context, id string) (Row, bool, error) {
	var (
		r      Row
		parent sql.NullString
	)
	err := p.db.QueryRowContext(ctx, p.rebind(`
		SELECT id, type, progress, title, parent_id FROM items WHERE id = ?
	`), id).Scan(&r.ID, &r.Type, &r.Progress, &r.Title, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, fmt.Errorf("get item: %w", err)
	}
	r.ParentID = parent.String
	return r, true, nil
}

// Children returns the rows whose parent is id, ordered by id.
//
// Returns an empty slice (not nil) when there are none.
func (p *Projection) Children(ctx context.Context, id string) ([]Row, error) {
	rows, err := p.db.QueryContext(ctx, p.rebind(`
		SELECT id, type, progress, title, parent_id FROM items
		WHERE parent_id = ?
		ORDER BY id ASC
	`), id)
	if err != nil {
		return nil, fmt.Errorf("children: %w", err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var (
			r      Row
			parent sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Type, &r.Progress, &r.Title, &parent); err != nil {
			return nil, fmt.Errorf("children: scan: %w", err)
		}
		r.ParentID = parent.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("children: iterate: %w", err)
	}
	return out, nil
}
