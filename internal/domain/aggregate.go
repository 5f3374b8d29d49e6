package domain

import (
	"fmt"

	"github.com/sdbip/agiler-write-model/internal/es"
)

// aggregate is the state and queue shared by Item, Feature and Task.
type aggregate struct {
	id       es.CanonicalEntityID
	version  es.EntityVersion
	queue    es.EventQueue
	itemType ItemType
	parent   string
}

func newAggregate(id, typeCode, title string, typ ItemType) (aggregate, error) {
	cid, err := es.NewCanonicalEntityID(id, typeCode)
	if err != nil {
		return aggregate{}, err
	}
	if !typ.Valid() {
		return aggregate{}, es.NewValidationError("unknown item type %q", typ)
	}
	title, err = NormalizeTitle(title)
	if err != nil {
		return aggregate{}, err
	}

	a := aggregate{id: cid, version: es.VersionNew, itemType: typ}
	a.enqueue(EventCreated, es.Details{"title": title, "type": string(typ)})
	return a, nil
}

// reconstitute folds events into a fresh aggregate. allowed, when set,
// restricts the types Created and TypeChanged may carry.
func reconstitute(id, typeCode string, version es.EntityVersion, events []es.PublishedEvent, def ItemType, allowed ...ItemType) (aggregate, error) {
	cid, err := es.NewCanonicalEntityID(id, typeCode)
	if err != nil {
		return aggregate{}, err
	}
	a := aggregate{id: cid, version: version, itemType: def}

	for i, ev := range events {
		if err := ValidateDetails(ev.Name, ev.Details); err != nil {
			return aggregate{}, fmt.Errorf("reconstitute %s: event %d: %w", cid, i, err)
		}
		switch ev.Name {
		case EventCreated, EventTypeChanged:
			t := ItemType(ev.Details.String("type"))
			if len(allowed) > 0 && !isOneOf(t, allowed) {
				return aggregate{}, fmt.Errorf("reconstitute %s: event %d: %w", cid, i,
					es.NewValidationError("%s may not have type %s", typeCode, t))
			}
			a.itemType = t
		case EventParentChanged:
			a.parent = ev.Details.String("parent")
		}
	}
	return a, nil
}

func isOneOf(t ItemType, types []ItemType) bool {
	for _, candidate := range types {
		if t == candidate {
			return true
		}
	}
	return false
}

func (a *aggregate) ID() es.CanonicalEntityID { return a.id }

func (a *aggregate) Version() es.EntityVersion { return a.version }

func (a *aggregate) UnpublishedEvents() []es.UnpublishedEvent { return a.queue.Events() }

// Type returns the item type folded from history and queued changes.
func (a *aggregate) Type() ItemType { return a.itemType }

// Parent returns the id of the parent, if any.
func (a *aggregate) Parent() (string, bool) { return a.parent, a.parent != "" }

func (a *aggregate) enqueue(name string, details es.Details) {
	a.queue.Enqueue(es.MustUnpublishedEvent(name, details))
}

func (a *aggregate) changeType(t ItemType) {
	a.itemType = t
	a.enqueue(EventTypeChanged, es.Details{"type": string(t)})
}

func (a *aggregate) checkAdoptable(child *aggregate) error {
	if child.id.ID() == a.id.ID() {
		return es.NewValidationError("%s cannot be its own child", a.id)
	}
	if child.parent != "" {
		return es.NewValidationError("%s already has a parent", child.id)
	}
	return nil
}

// adopt makes child a child of a. A ParentChanged still queued on child is
// replaced so that one session emits at most one.
func (a *aggregate) adopt(child *aggregate) {
	a.enqueue(EventChildrenAdded, es.Details{"children": []any{child.id.ID()}})
	if a.itemType == TypeFeature {
		a.changeType(TypeEpic)
	}

	child.queue.RemoveFirst(func(ev es.UnpublishedEvent) bool { return ev.Name() == EventParentChanged })
	child.parent = a.id.ID()
	child.enqueue(EventParentChanged, es.Details{"parent": a.id.ID()})
}

// release detaches child from a. Children of other parents are ignored.
func (a *aggregate) release(child *aggregate) {
	if child.parent != a.id.ID() {
		return
	}
	child.parent = ""
	a.enqueue(EventChildrenRemoved, es.Details{"children": []any{child.id.ID()}})
	child.enqueue(EventParentChanged, es.Details{"parent": nil})
}

func (a *aggregate) complete() {
	a.enqueue(EventProgressChanged, es.Details{"progress": string(ProgressCompleted)})
}
