// Package board is the client-side state of the todo board. All changes go
// through Reduce, a pure function from (State, Action) to the next State, so
// the web page and the terminal client apply RPC results the same way.
package board

import (
	"strings"

	"todoboard/internal/model"
)

type State struct {
	Tasks     []model.Task
	Assignees []model.Assignee
	Form      Form
}

// Form holds the transient input of the three forms.
type Form struct {
	Title              string
	Description        string
	Urgency            string
	AssigneeName       string
	SelectedTaskID     string
	SelectedAssigneeID string
}

type Field int

const (
	FieldTitle Field = iota
	FieldDescription
	FieldUrgency
	FieldAssigneeName
	FieldSelectedTask
	FieldSelectedAssignee
)

type Action interface {
	isAction()
}

// Loaded carries the initial fetch. A nil slice means that fetch failed and
// the current list is kept.
type Loaded struct {
	Tasks     []model.Task
	Assignees []model.Assignee
}

// TasksRefetched replaces the task list after an assignment. Nil is a no-op.
type TasksRefetched struct {
	Tasks []model.Task
}

// TaskAdded appends a created task and clears the task form. Nil is a no-op.
type TaskAdded struct {
	Task *model.Task
}

// AssigneeAdded appends a created assignee and clears the name field. Nil is a no-op.
type AssigneeAdded struct {
	Assignee *model.Assignee
}

// TaskCompleted marks the task with Task.ID completed. Nil is a no-op.
type TaskCompleted struct {
	Task *model.Task
}

type FieldChanged struct {
	Field Field
	Value string
}

func (Loaded) isAction()         {}
func (TasksRefetched) isAction() {}
func (TaskAdded) isAction()      {}
func (AssigneeAdded) isAction()  {}
func (TaskCompleted) isAction()  {}
func (FieldChanged) isAction()   {}

// Reduce returns the state after applying a. s is never modified.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Loaded:
		if a.Tasks != nil {
			s.Tasks = cloneTasks(a.Tasks)
		}
		if a.Assignees != nil {
			s.Assignees = append([]model.Assignee(nil), a.Assignees...)
		}

	case TasksRefetched:
		if a.Tasks != nil {
			s.Tasks = cloneTasks(a.Tasks)
		}

	case TaskAdded:
		if a.Task == nil {
			return s
		}
		t := *a.Task
		if t.Assignees == nil {
			t.Assignees = []model.Assignee{}
		}
		s.Tasks = append(cloneTasks(s.Tasks), t)
		s.Form.Title = ""
		s.Form.Description = ""
		s.Form.Urgency = ""

	case AssigneeAdded:
		if a.Assignee == nil {
			return s
		}
		s.Assignees = append(append([]model.Assignee(nil), s.Assignees...), *a.Assignee)
		s.Form.AssigneeName = ""

	case TaskCompleted:
		if a.Task == nil {
			return s
		}
		tasks := cloneTasks(s.Tasks)
		for i := range tasks {
			if tasks[i].ID == a.Task.ID {
				tasks[i].Completed = true
			}
		}
		s.Tasks = tasks

	case FieldChanged:
		s.Form = setField(s.Form, a.Field, a.Value)
	}
	return s
}

func setField(f Form, field Field, v string) Form {
	switch field {
	case FieldTitle:
		f.Title = v
	case FieldDescription:
		f.Description = v
	case FieldUrgency:
		f.Urgency = v
	case FieldAssigneeName:
		f.AssigneeName = v
	case FieldSelectedTask:
		f.SelectedTaskID = v
	case FieldSelectedAssignee:
		f.SelectedAssigneeID = v
	}
	return f
}

// cloneTasks copies the slice so callers can edit elements in place.
// Assignee slices are shared; Reduce never edits them.
func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}

// CanAssign reports whether both a task and an assignee are selected.
func (s State) CanAssign() bool {
	return s.Form.SelectedTaskID != "" && s.Form.SelectedAssigneeID != ""
}

// AssigneeNames joins the task's assignee names, or returns "None".
func AssigneeNames(t model.Task) string {
	if len(t.Assignees) == 0 {
		return "None"
	}
	names := make([]string, len(t.Assignees))
	for i, a := range t.Assignees {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
