package domain

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/sdbip/agiler-write-model/internal/es"
)

//go:embed schema.cue
var schemaCUE string

// definitions maps event names to their payload definition in schema.cue.
var definitions = map[string]string{
	EventCreated:         "#Created",
	EventTypeChanged:     "#TypeChanged",
	EventParentChanged:   "#ParentChanged",
	EventChildrenAdded:   "#ChildrenAdded",
	EventChildrenRemoved: "#ChildrenRemoved",
	EventProgressChanged: "#ProgressChanged",
}

// cue.Context is not safe for concurrent use; every access goes through mu.
var schema struct {
	once sync.Once
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
	err  error
}

func loadSchema() error {
	schema.once.Do(func() {
		schema.ctx = cuecontext.New()
		schema.root = schema.ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		schema.err = schema.root.Err()
	})
	return schema.err
}

// ValidateDetails checks the payload of a known event against its schema.
// Unknown event names pass; aggregates ignore them when replaying.
func ValidateDetails(name string, details es.Details) error {
	def, ok := definitions[name]
	if !ok {
		return nil
	}
	if err := loadSchema(); err != nil {
		return fmt.Errorf("load event schema: %w", err)
	}

	if details == nil {
		details = es.Details{}
	}

	schema.mu.Lock()
	defer schema.mu.Unlock()

	v := schema.ctx.Encode(map[string]any(details))
	if err := v.Err(); err != nil {
		return es.NewValidationError("%s details: %s", name, strings.TrimSpace(errors.Details(err, nil)))
	}
	unified := schema.root.LookupPath(cue.ParsePath(def)).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return es.NewValidationError("%s details: %s", name, strings.TrimSpace(errors.Details(err, nil)))
	}
	return nil
}
