package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoboard/internal/model"
)

// runStoreSuite exercises the behaviour every Store driver must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndListTask", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		desc := "buy oat milk"
		task := newTask("groceries", &desc, model.UrgencyHigh)
		require.NoError(t, s.CreateTask(ctx, task))

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		got := tasks[0]
		assert.Equal(t, task.ID, got.ID)
		assert.Equal(t, "groceries", got.Title)
		require.NotNil(t, got.Description)
		assert.Equal(t, desc, *got.Description)
		assert.Equal(t, model.UrgencyHigh, got.Urgency)
		assert.False(t, got.Completed)
		assert.Empty(t, got.Assignees)
		assert.NotNil(t, got.Assignees)
	})

	t.Run("NullDescription", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateTask(ctx, newTask("no description", nil, model.UrgencyNormal)))

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Nil(t, tasks[0].Description)
	})

	t.Run("ListKeepsInsertionOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		titles := []string{"first", "second", "third"}
		for _, title := range titles {
			require.NoError(t, s.CreateTask(ctx, newTask(title, nil, model.UrgencyLow)))
		}

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		for i, title := range titles {
			assert.Equal(t, title, tasks[i].Title)
		}
	})

	t.Run("CreateAndListAssignees", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateAssignee(ctx, newAssignee("Alice")))
		require.NoError(t, s.CreateAssignee(ctx, newAssignee("Bob")))

		assignees, err := s.ListAssignees(ctx)
		require.NoError(t, err)
		require.Len(t, assignees, 2)
		assert.Equal(t, "Alice", assignees[0].Name)
		assert.Equal(t, "Bob", assignees[1].Name)
	})

	t.Run("AssignmentJoinsIntoTaskList", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task := newTask("ship it", nil, model.UrgencyNormal)
		other := newTask("unassigned", nil, model.UrgencyNormal)
		alice, bob := newAssignee("Alice"), newAssignee("Bob")
		require.NoError(t, s.CreateTask(ctx, task))
		require.NoError(t, s.CreateTask(ctx, other))
		require.NoError(t, s.CreateAssignee(ctx, alice))
		require.NoError(t, s.CreateAssignee(ctx, bob))

		require.NoError(t, s.CreateAssignment(ctx, newAssignment(task.ID, bob.ID)))
		require.NoError(t, s.CreateAssignment(ctx, newAssignment(task.ID, alice.ID)))

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2, "a task with two assignees is still listed once")
		require.Len(t, tasks[0].Assignees, 2)
		assert.Equal(t, "Bob", tasks[0].Assignees[0].Name)
		assert.Equal(t, "Alice", tasks[0].Assignees[1].Name)
		assert.Empty(t, tasks[1].Assignees)
	})

	t.Run("DuplicateAssignmentKeepsOriginal", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task, alice := newTask("t", nil, model.UrgencyNormal), newAssignee("Alice")
		require.NoError(t, s.CreateTask(ctx, task))
		require.NoError(t, s.CreateAssignee(ctx, alice))

		require.NoError(t, s.CreateAssignment(ctx, newAssignment(task.ID, alice.ID)))
		require.NoError(t, s.CreateAssignment(ctx, newAssignment(task.ID, alice.ID)))

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		require.Len(t, tasks[0].Assignees, 1)
		assert.Equal(t, alice.ID, tasks[0].Assignees[0].ID)
	})

	t.Run("OrphanAssignmentIsNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task := newTask("t", nil, model.UrgencyNormal)
		require.NoError(t, s.CreateTask(ctx, task))

		err := s.CreateAssignment(ctx, newAssignment(task.ID, uuid.NewString()))
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.CreateAssignment(ctx, newAssignment(uuid.NewString(), uuid.NewString()))
		assert.ErrorIs(t, err, ErrNotFound)

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks[0].Assignees)
	})

	t.Run("CompleteTask", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task := newTask("finish", nil, model.UrgencyLow)
		require.NoError(t, s.CreateTask(ctx, task))

		done, err := s.CompleteTask(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.Equal(t, task.ID, done.ID)
		assert.Equal(t, model.UrgencyLow, done.Urgency)

		again, err := s.CompleteTask(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, again.Completed)

		tasks, err := s.ListTasks(ctx)
		require.NoError(t, err)
		assert.True(t, tasks[0].Completed)
	})

	t.Run("CompleteMissingTaskIsNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CompleteTask(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DuplicateIDIsStorageError", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task := newTask("once", nil, model.UrgencyNormal)
		require.NoError(t, s.CreateTask(ctx, task))

		err := s.CreateTask(ctx, task)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("EmptyTitleRejectedByStorage", func(t *testing.T) {
		s := newStore(t)
		err := s.CreateTask(context.Background(), newTask("", nil, model.UrgencyNormal))
		assert.Error(t, err)
	})
}

func newTask(title string, desc *string, urgency model.Urgency) *model.Task {
	return &model.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: desc,
		Urgency:     urgency,
		CreatedAt:   time.Now().UTC(),
	}
}

func newAssignee(name string) *model.Assignee {
	return &model.Assignee{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
}

func newAssignment(taskID, assigneeID string) *model.Assignment {
	return &model.Assignment{TaskID: taskID, AssigneeID: assigneeID, CreatedAt: time.Now().UTC()}
}
