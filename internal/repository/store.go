package repository

import (
	"context"
	"errors"
	"time"

	"todoboard/internal/model"
	"todoboard/pkg/metrics"
)

// ErrNotFound is returned when an operation references a task or assignee
// that does not exist: an orphan assignment rejected by the foreign keys, or
// completing an unknown task.
var ErrNotFound = errors.New("record not found")

// Store is the persistence layer for tasks, assignees and their assignments.
// Callers assign IDs and creation times; each method is one round trip.
type Store interface {
	CreateTask(ctx context.Context, t *model.Task) error
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateAssignee(ctx context.Context, a *model.Assignee) error
	ListAssignees(ctx context.Context) ([]model.Assignee, error)
	// CreateAssignment links a task and an assignee. Linking a pair that is
	// already linked succeeds and leaves the existing row in place.
	CreateAssignment(ctx context.Context, a *model.Assignment) error
	// CompleteTask sets completed=true and returns the task without its assignees.
	CompleteTask(ctx context.Context, id string) (*model.Task, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

func observe(operation, table string, start time.Time) {
	metrics.RecordDBQueryDuration(operation, table, time.Since(start))
}

// taskIndex keeps tasks in list order while joined assignee rows are folded in.
type taskIndex struct {
	tasks []model.Task
	pos   map[string]int
}

func newTaskIndex() *taskIndex {
	return &taskIndex{tasks: []model.Task{}, pos: map[string]int{}}
}

func (ix *taskIndex) add(t model.Task) *model.Task {
	if i, ok := ix.pos[t.ID]; ok {
		return &ix.tasks[i]
	}
	t.Assignees = []model.Assignee{}
	ix.pos[t.ID] = len(ix.tasks)
	ix.tasks = append(ix.tasks, t)
	return &ix.tasks[len(ix.tasks)-1]
}
