package es

import (
	"fmt"
	"log/slog"
	"strings"
)

// CanonicalEntityID identifies one aggregate instance by id and type.
// Values are comparable with ==.
type CanonicalEntityID struct {
	id  string
	typ string
}

// NewCanonicalEntityID returns the identity (id, typ). Both must be non-empty.
func NewCanonicalEntityID(id, typ string) (CanonicalEntityID, error) {
	if strings.TrimSpace(id) == "" {
		return CanonicalEntityID{}, NewValidationError("entity id must be set")
	}
	if strings.TrimSpace(typ) == "" {
		return CanonicalEntityID{}, NewValidationError("entity type must be set")
	}
	return CanonicalEntityID{id: id, typ: typ}, nil
}

// MustCanonicalEntityID is like NewCanonicalEntityID but panics on invalid input.
func MustCanonicalEntityID(id, typ string) CanonicalEntityID {
	cid, err := NewCanonicalEntityID(id, typ)
	if err != nil {
		panic(err)
	}
	return cid
}

func (c CanonicalEntityID) ID() string   { return c.id }
func (c CanonicalEntityID) Type() string { return c.typ }

// IsZero reports whether c was never constructed.
func (c CanonicalEntityID) IsZero() bool { return c.id == "" && c.typ == "" }

func (c CanonicalEntityID) Equal(other CanonicalEntityID) bool { return c == other }

func (c CanonicalEntityID) String() string { return fmt.Sprintf("[%s %s]", c.typ, c.id) }

func (c CanonicalEntityID) LogValue() slog.Value {
	return slog.GroupValue(slog.String("id", c.id), slog.String("type", c.typ))
}
