package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoboard/internal/model"
)

func task(id, title string) model.Task {
	return model.Task{ID: id, Title: title, Urgency: model.UrgencyNormal, Assignees: []model.Assignee{}}
}

func TestReduce_Loaded(t *testing.T) {
	s := Reduce(State{}, Loaded{
		Tasks:     []model.Task{task("t1", "a")},
		Assignees: []model.Assignee{{ID: "a1", Name: "Alice"}},
	})
	require.Len(t, s.Tasks, 1)
	require.Len(t, s.Assignees, 1)

	// a failed assignee fetch keeps the current list
	s = Reduce(s, Loaded{Tasks: []model.Task{}, Assignees: nil})
	assert.Empty(t, s.Tasks)
	assert.Len(t, s.Assignees, 1)
}

func TestReduce_TaskAddedAppendsAndClearsForm(t *testing.T) {
	s := State{Tasks: []model.Task{task("t1", "first")}}
	s = Reduce(s, FieldChanged{Field: FieldTitle, Value: "second"})
	s = Reduce(s, FieldChanged{Field: FieldDescription, Value: "details"})
	assert.Equal(t, "second", s.Form.Title)

	created := model.Task{ID: "t2", Title: "second"}
	s = Reduce(s, TaskAdded{Task: &created})

	require.Len(t, s.Tasks, 2)
	assert.Equal(t, "t2", s.Tasks[1].ID)
	assert.NotNil(t, s.Tasks[1].Assignees)
	assert.Empty(t, s.Form.Title)
	assert.Empty(t, s.Form.Description)
}

func TestReduce_NilResultsAreNoOps(t *testing.T) {
	s := State{
		Tasks:     []model.Task{task("t1", "first")},
		Assignees: []model.Assignee{{ID: "a1", Name: "Alice"}},
		Form:      Form{Title: "kept", AssigneeName: "kept too"},
	}

	for _, a := range []Action{
		TaskAdded{},
		AssigneeAdded{},
		TaskCompleted{},
		TasksRefetched{},
	} {
		got := Reduce(s, a)
		assert.Equal(t, s, got, "%T", a)
	}
}

func TestReduce_AssigneeAdded(t *testing.T) {
	s := Reduce(State{}, FieldChanged{Field: FieldAssigneeName, Value: "Bob"})
	s = Reduce(s, AssigneeAdded{Assignee: &model.Assignee{ID: "a2", Name: "Bob"}})
	require.Len(t, s.Assignees, 1)
	assert.Equal(t, "Bob", s.Assignees[0].Name)
	assert.Empty(t, s.Form.AssigneeName)
}

func TestReduce_TaskCompletedOnlyTouchesMatchingTask(t *testing.T) {
	alice := model.Assignee{ID: "a1", Name: "Alice"}
	t1 := task("t1", "one")
	t1.Assignees = []model.Assignee{alice}
	s := State{Tasks: []model.Task{t1, task("t2", "two")}}

	s = Reduce(s, TaskCompleted{Task: &model.Task{ID: "t1", Completed: true}})
	assert.True(t, s.Tasks[0].Completed)
	assert.Equal(t, []model.Assignee{alice}, s.Tasks[0].Assignees, "assignees survive completion")
	assert.False(t, s.Tasks[1].Completed)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	before := State{Tasks: []model.Task{task("t1", "one")}}
	_ = Reduce(before, TaskCompleted{Task: &model.Task{ID: "t1"}})
	assert.False(t, before.Tasks[0].Completed)

	base := make([]model.Task, 1, 4)
	base[0] = task("t1", "one")
	s := State{Tasks: base}
	a := Reduce(s, TaskAdded{Task: &model.Task{ID: "t2"}})
	b := Reduce(s, TaskAdded{Task: &model.Task{ID: "t3"}})
	assert.Equal(t, "t2", a.Tasks[1].ID)
	assert.Equal(t, "t3", b.Tasks[1].ID)
}

func TestReduce_TasksRefetched(t *testing.T) {
	s := State{Tasks: []model.Task{task("t1", "one")}}
	withAssignee := task("t1", "one")
	withAssignee.Assignees = []model.Assignee{{ID: "a1", Name: "Alice"}}

	s = Reduce(s, TasksRefetched{Tasks: []model.Task{withAssignee}})
	require.Len(t, s.Tasks[0].Assignees, 1)
}

func TestCanAssign(t *testing.T) {
	s := Reduce(State{}, FieldChanged{Field: FieldSelectedTask, Value: "t1"})
	assert.False(t, s.CanAssign())
	s = Reduce(s, FieldChanged{Field: FieldSelectedAssignee, Value: "a1"})
	assert.True(t, s.CanAssign())
}

func TestAssigneeNames(t *testing.T) {
	tk := task("t1", "one")
	assert.Equal(t, "None", AssigneeNames(tk))
	tk.Assignees = []model.Assignee{{Name: "Alice"}, {Name: "Bob"}}
	assert.Equal(t, "Alice, Bob", AssigneeNames(tk))
}
