package domain

import (
	"github.com/sdbip/agiler-write-model/internal/es"
)

const FeatureTypeCode = "Feature"

// Feature is a Feature or Epic. Adding a child turns a Feature into an Epic.
type Feature struct {
	aggregate
}

var _ es.Entity = (*Feature)(nil)

// NewFeature returns an unsaved feature. An empty typ means Feature.
func NewFeature(id, title string, typ ItemType) (*Feature, error) {
	if typ == "" {
		typ = TypeFeature
	}
	a, err := newAggregate(id, FeatureTypeCode, title, typ)
	if err != nil {
		return nil, err
	}
	return &Feature{a}, nil
}

func ReconstituteFeature(id string, version es.EntityVersion, events []es.PublishedEvent) (*Feature, error) {
	a, err := reconstitute(id, FeatureTypeCode, version, events, TypeFeature)
	if err != nil {
		return nil, err
	}
	return &Feature{a}, nil
}

func (f *Feature) Add(child *Feature) error {
	if f.itemType == TypeTask {
		return es.NewValidationError("%s items may not have children", TypeTask)
	}
	if err := f.checkAdoptable(&child.aggregate); err != nil {
		return err
	}
	f.adopt(&child.aggregate)
	return nil
}

func (f *Feature) Remove(child *Feature) {
	f.release(&child.aggregate)
}
