package domain

import (
	"github.com/sdbip/agiler-write-model/internal/es"
)

const TaskTypeCode = "Task"

// Task is a Task or a Story. Only Stories have children, and only Tasks
// may be their children.
type Task struct {
	aggregate
}

var _ es.Entity = (*Task)(nil)

// NewTask returns an unsaved task. An empty typ means Task.
func NewTask(id, title string, typ ItemType) (*Task, error) {
	if typ == "" {
		typ = TypeTask
	}
	if typ != TypeTask && typ != TypeStory {
		return nil, es.NewValidationError("%s may not have type %s", TaskTypeCode, typ)
	}
	a, err := newAggregate(id, TaskTypeCode, title, typ)
	if err != nil {
		return nil, err
	}
	return &Task{a}, nil
}

// ReconstituteTask folds history into a task. Histories that give it a type
// other than Story or Task are rejected.
func ReconstituteTask(id string, version es.EntityVersion, events []es.PublishedEvent) (*Task, error) {
	a, err := reconstitute(id, TaskTypeCode, version, events, TypeTask, TypeStory, TypeTask)
	if err != nil {
		return nil, err
	}
	return &Task{a}, nil
}

// Promote turns a Task into a Story.
func (t *Task) Promote() error {
	if t.itemType != TypeTask {
		return es.NewValidationError("only %s items may be promoted", TypeTask)
	}
	t.changeType(TypeStory)
	return nil
}

func (t *Task) Add(child *Task) error {
	if t.itemType != TypeStory {
		return es.NewValidationError("only a %s may have children", TypeStory)
	}
	if err := t.checkAdoptable(&child.aggregate); err != nil {
		return err
	}
	if child.itemType != TypeTask {
		return es.NewValidationError("only %s items may be added to a %s", TypeTask, TypeStory)
	}
	t.adopt(&child.aggregate)
	return nil
}

func (t *Task) Remove(child *Task) {
	t.release(&child.aggregate)
}

// Finish marks the task completed.
func (t *Task) Finish() {
	t.complete()
}
