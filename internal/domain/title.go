package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sdbip/agiler-write-model/internal/es"
)

// NormalizeTitle trims title and converts it to NFC so that visually equal
// titles are stored byte-for-byte equal.
func NormalizeTitle(title string) (string, error) {
	t := norm.NFC.String(strings.TrimSpace(title))
	if t == "" {
		return "", es.NewValidationError("title must not be empty")
	}
	return t, nil
}
