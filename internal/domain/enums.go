package domain

import "github.com/sdbip/agiler-write-model/internal/es"

// Event names.
const (
	EventCreated         = "Created"
	EventChildrenAdded   = "ChildrenAdded"
	EventChildrenRemoved = "ChildrenRemoved"
	EventParentChanged   = "ParentChanged"
	EventProgressChanged = "ProgressChanged"
	EventTypeChanged     = "TypeChanged"
)

// ItemType is the kind of backlog item.
type ItemType string

const (
	TypeEpic    ItemType = "Epic"
	TypeFeature ItemType = "Feature"
	TypeStory   ItemType = "Story"
	TypeTask    ItemType = "Task"
)

// ParseItemType validates s. The empty string yields def.
func ParseItemType(s string, def ItemType) (ItemType, error) {
	if s == "" {
		return def, nil
	}
	t := ItemType(s)
	if !t.Valid() {
		return "", es.NewValidationError("unknown item type %q", s)
	}
	return t, nil
}

func (t ItemType) Valid() bool {
	switch t {
	case TypeEpic, TypeFeature, TypeStory, TypeTask:
		return true
	}
	return false
}

// Progress is the completion state of an item.
type Progress string

const (
	ProgressNotStarted Progress = "notStarted"
	ProgressCompleted  Progress = "completed"
)
