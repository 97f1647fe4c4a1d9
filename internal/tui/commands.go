package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"todoboard/internal/model"
)

const callTimeout = 10 * time.Second

type tasksLoadedMsg struct {
	tasks []model.Task
	err   error
}

type assigneesLoadedMsg struct {
	assignees []model.Assignee
	err       error
}

type tasksRefetchedMsg struct {
	tasks []model.Task
	err   error
}

type taskAddedMsg struct {
	task *model.Task
	err  error
}

type assigneeAddedMsg struct {
	assignee *model.Assignee
	err      error
}

type assignedMsg struct {
	ok  bool
	err error
}

type taskCompletedMsg struct {
	task *model.Task
	err  error
}

func fetchTasks(a Actions) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		tasks, err := a.ListTasks(ctx)
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

func fetchAssignees(a Actions) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		assignees, err := a.ListAssignees(ctx)
		return assigneesLoadedMsg{assignees: assignees, err: err}
	}
}

func refetchTasks(a Actions) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		tasks, err := a.ListTasks(ctx)
		return tasksRefetchedMsg{tasks: tasks, err: err}
	}
}

func addTask(a Actions, title string, description *string, urgency string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		task, err := a.AddTask(ctx, title, description, urgency)
		return taskAddedMsg{task: task, err: err}
	}
}

func addAssignee(a Actions, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		assignee, err := a.AddAssignee(ctx, name)
		return assigneeAddedMsg{assignee: assignee, err: err}
	}
}

func assignTask(a Actions, taskID, assigneeID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		ok, err := a.AssignTask(ctx, taskID, assigneeID)
		return assignedMsg{ok: ok, err: err}
	}
}

func completeTask(a Actions, taskID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		task, err := a.CompleteTask(ctx, taskID)
		return taskCompletedMsg{task: task, err: err}
	}
}
