package domain

import (
	"github.com/sdbip/agiler-write-model/internal/es"
)

// ItemTypeCode is the entity type under which items are stored.
const ItemTypeCode = "Item"

// Item is a generic backlog item whose kind (Epic, Feature, Story, Task)
// changes as children are added.
type Item struct {
	aggregate
}

var _ es.Entity = (*Item)(nil)

// NewItem returns an unsaved item with a queued Created event. An empty typ
// means Task.
func NewItem(id, title string, typ ItemType) (*Item, error) {
	if typ == "" {
		typ = TypeTask
	}
	a, err := newAggregate(id, ItemTypeCode, title, typ)
	if err != nil {
		return nil, err
	}
	return &Item{a}, nil
}

// ReconstituteItem folds history into an item loaded at version.
func ReconstituteItem(id string, version es.EntityVersion, events []es.PublishedEvent) (*Item, error) {
	a, err := reconstitute(id, ItemTypeCode, version, events, TypeTask)
	if err != nil {
		return nil, err
	}
	return &Item{a}, nil
}

// Promote turns a Task into a Story.
func (i *Item) Promote() error {
	if i.itemType != TypeTask {
		return es.NewValidationError("only %s items may be promoted", TypeTask)
	}
	i.changeType(TypeStory)
	return nil
}

// Add makes child a child of i. Stories take only Tasks; a Feature that gets
// a child becomes an Epic.
func (i *Item) Add(child *Item) error {
	if i.itemType == TypeTask {
		return es.NewValidationError("%s items may not have children", TypeTask)
	}
	if err := i.checkAdoptable(&child.aggregate); err != nil {
		return err
	}
	if i.itemType == TypeStory && child.itemType != TypeTask {
		return es.NewValidationError("only %s items may be added to a %s", TypeTask, TypeStory)
	}
	i.adopt(&child.aggregate)
	return nil
}

// Remove detaches child if i is its parent and does nothing otherwise.
func (i *Item) Remove(child *Item) {
	i.release(&child.aggregate)
}

// Complete marks a Task completed.
func (i *Item) Complete() error {
	if i.itemType != TypeTask {
		return es.NewValidationError("only %s items may be completed", TypeTask)
	}
	i.complete()
	return nil
}
