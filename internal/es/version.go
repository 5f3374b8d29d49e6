package es

import (
	"fmt"
	"log/slog"
	"strconv"
)

// EntityVersion is the version of an entity: the version of its last durable
// event, or VersionNew when nothing has been written yet.
//
// The value is stored offset by one so that the zero value is VersionNew.
type EntityVersion struct {
	n int64
}

// VersionNew is the version of an entity that has not been persisted.
var VersionNew = EntityVersion{}

// VersionOf returns version v. Negative values are rejected; use VersionNew
// for entities without events.
func VersionOf(v int64) (EntityVersion, error) {
	if v < 0 {
		return EntityVersion{}, NewValidationError("version must not be negative, got %d", v)
	}
	return EntityVersion{n: v + 1}, nil
}

// MustVersion is like VersionOf but panics on negative input.
func MustVersion(v int64) EntityVersion {
	ver, err := VersionOf(v)
	if err != nil {
		panic(err)
	}
	return ver
}

// Value returns the numeric version, -1 for VersionNew.
func (v EntityVersion) Value() int64 { return v.n - 1 }

func (v EntityVersion) IsNew() bool { return v.n == 0 }

// Next returns the version of the event following v. VersionNew.Next() is 0.
func (v EntityVersion) Next() EntityVersion { return EntityVersion{n: v.n + 1} }

// Add returns the version after appending count events.
func (v EntityVersion) Add(count int) EntityVersion { return EntityVersion{n: v.n + int64(count)} }

func (v EntityVersion) Equal(other EntityVersion) bool { return v == other }

func (v EntityVersion) String() string {
	if v.IsNew() {
		return "[version new]"
	}
	return fmt.Sprintf("[version %d]", v.Value())
}

func (v EntityVersion) LogValue() slog.Value { return slog.Int64Value(v.Value()) }

// MarshalJSON encodes the version as its numeric value.
func (v EntityVersion) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(v.Value(), 10)), nil
}

// UnmarshalJSON accepts a number; -1 decodes to VersionNew.
func (v *EntityVersion) UnmarshalJSON(data []byte) error {
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("decode version: %w", err)
	}
	if n == -1 {
		*v = VersionNew
		return nil
	}
	parsed, err := VersionOf(n)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
