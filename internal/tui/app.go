// Package tui is a terminal front end for the board. It talks to the server
// over RPC and applies every result through board.Reduce, the same way the
// web page builds its state.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"todoboard/internal/board"
	"todoboard/internal/model"
)

// Actions is the RPC surface the terminal client calls.
type Actions interface {
	AddTask(ctx context.Context, title string, description *string, urgency string) (*model.Task, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	AddAssignee(ctx context.Context, name string) (*model.Assignee, error)
	ListAssignees(ctx context.Context) ([]model.Assignee, error)
	AssignTask(ctx context.Context, taskID, assigneeID string) (bool, error)
	CompleteTask(ctx context.Context, taskID string) (*model.Task, error)
}

type mode int

const (
	modeBrowse mode = iota
	modeAddTask
	modeAddAssignee
	modeAssign
)

// focus order inside the task form
const (
	focusTitle = iota
	focusDescription
	focusUrgency
	focusCount
)

var urgencies = []string{string(model.UrgencyLow), string(model.UrgencyNormal), string(model.UrgencyHigh)}

type Model struct {
	actions Actions
	logger  *zap.Logger

	state board.State
	mode  mode

	taskCursor     int
	assigneeCursor int

	focus       int
	title       textinput.Model
	description textinput.Model
	name        textinput.Model

	width  int
	height int
}

func New(actions Actions, logger *zap.Logger) Model {
	title := textinput.New()
	title.Placeholder = "Todo title"
	title.CharLimit = 200

	description := textinput.New()
	description.Placeholder = "Description (optional)"
	description.CharLimit = 500

	name := textinput.New()
	name.Placeholder = "New assignee name"
	name.CharLimit = 100

	return Model{
		actions:     actions,
		logger:      logger,
		title:       title,
		description: description,
		name:        name,
	}
}

// State returns the current board state.
func (m Model) State() board.State {
	return m.state
}

// Init fetches tasks and assignees concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchTasks(m.actions), fetchAssignees(m.actions))
}

func (m Model) dispatch(a board.Action) Model {
	m.state = board.Reduce(m.state, a)
	m.clampCursors()
	return m
}

func (m *Model) clampCursors() {
	if m.taskCursor >= len(m.state.Tasks) {
		m.taskCursor = max(len(m.state.Tasks)-1, 0)
	}
	if m.assigneeCursor >= len(m.state.Assignees) {
		m.assigneeCursor = max(len(m.state.Assignees)-1, 0)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	// 失败时保持当前状态，不提示
	case tasksLoadedMsg:
		if m.failed("list_tasks", msg.err) {
			return m, nil
		}
		return m.dispatch(board.Loaded{Tasks: msg.tasks}), nil

	case assigneesLoadedMsg:
		if m.failed("list_assignees", msg.err) {
			return m, nil
		}
		return m.dispatch(board.Loaded{Assignees: msg.assignees}), nil

	case tasksRefetchedMsg:
		if m.failed("list_tasks", msg.err) {
			return m, nil
		}
		return m.dispatch(board.TasksRefetched{Tasks: msg.tasks}), nil

	case taskAddedMsg:
		if m.failed("add_task", msg.err) {
			return m, nil
		}
		m = m.dispatch(board.TaskAdded{Task: msg.task})
		m.title.SetValue("")
		m.description.SetValue("")
		return m, nil

	case assigneeAddedMsg:
		if m.failed("add_assignee", msg.err) {
			return m, nil
		}
		m = m.dispatch(board.AssigneeAdded{Assignee: msg.assignee})
		m.name.SetValue("")
		return m, nil

	case assignedMsg:
		if m.failed("assign_task", msg.err) || !msg.ok {
			return m, nil
		}
		return m, refetchTasks(m.actions)

	case taskCompletedMsg:
		if m.failed("complete_task", msg.err) {
			return m, nil
		}
		return m.dispatch(board.TaskCompleted{Task: msg.task}), nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAddTask:
			return m.updateAddTask(msg)
		case modeAddAssignee:
			return m.updateAddAssignee(msg)
		case modeAssign:
			return m.updateAssign(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) failed(op string, err error) bool {
	if err == nil {
		return false
	}
	m.logger.Warn("Board action failed", zap.String("operation", op), zap.Error(err))
	return true
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.taskCursor > 0 {
			m.taskCursor--
		}
	case "down", "j":
		if m.taskCursor < len(m.state.Tasks)-1 {
			m.taskCursor++
		}
	case "r":
		return m, tea.Batch(fetchTasks(m.actions), fetchAssignees(m.actions))
	case "a":
		m.mode = modeAddTask
		m.focus = focusTitle
		if m.state.Form.Urgency == "" {
			m = m.dispatch(board.FieldChanged{Field: board.FieldUrgency, Value: string(model.UrgencyNormal)})
		}
		m.description.Blur()
		cmd := m.title.Focus()
		return m, cmd
	case "n":
		m.mode = modeAddAssignee
		cmd := m.name.Focus()
		return m, cmd
	case "s":
		task, ok := m.selectedTask()
		if !ok || len(m.state.Assignees) == 0 {
			return m, nil
		}
		m.mode = modeAssign
		m = m.dispatch(board.FieldChanged{Field: board.FieldSelectedTask, Value: task.ID})
		m = m.dispatch(board.FieldChanged{Field: board.FieldSelectedAssignee, Value: m.state.Assignees[m.assigneeCursor].ID})
	case "c":
		task, ok := m.selectedTask()
		if !ok || task.Completed {
			return m, nil
		}
		return m, completeTask(m.actions, task.ID)
	}
	return m, nil
}

func (m Model) updateAddTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.title.Blur()
		m.description.Blur()
		return m, nil
	case "tab", "shift+tab":
		if msg.String() == "tab" {
			m.focus = (m.focus + 1) % focusCount
		} else {
			m.focus = (m.focus + focusCount - 1) % focusCount
		}
		m.title.Blur()
		m.description.Blur()
		var cmd tea.Cmd
		switch m.focus {
		case focusTitle:
			cmd = m.title.Focus()
		case focusDescription:
			cmd = m.description.Focus()
		}
		return m, cmd
	case "enter":
		f := m.state.Form
		if strings.TrimSpace(f.Title) == "" {
			return m, nil
		}
		var description *string
		if f.Description != "" {
			d := f.Description
			description = &d
		}
		m.mode = modeBrowse
		m.title.Blur()
		m.description.Blur()
		return m, addTask(m.actions, f.Title, description, f.Urgency)
	}

	if m.focus == focusUrgency {
		switch msg.String() {
		case "left", "h":
			return m.dispatch(board.FieldChanged{Field: board.FieldUrgency, Value: cycleUrgency(m.state.Form.Urgency, -1)}), nil
		case "right", "l", " ":
			return m.dispatch(board.FieldChanged{Field: board.FieldUrgency, Value: cycleUrgency(m.state.Form.Urgency, 1)}), nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusTitle {
		m.title, cmd = m.title.Update(msg)
		m = m.dispatch(board.FieldChanged{Field: board.FieldTitle, Value: m.title.Value()})
	} else {
		m.description, cmd = m.description.Update(msg)
		m = m.dispatch(board.FieldChanged{Field: board.FieldDescription, Value: m.description.Value()})
	}
	return m, cmd
}

func (m Model) updateAddAssignee(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.name.Blur()
		return m, nil
	case "enter":
		name := m.state.Form.AssigneeName
		if strings.TrimSpace(name) == "" {
			return m, nil
		}
		m.mode = modeBrowse
		m.name.Blur()
		return m, addAssignee(m.actions, name)
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	m = m.dispatch(board.FieldChanged{Field: board.FieldAssigneeName, Value: m.name.Value()})
	return m, cmd
}

func (m Model) updateAssign(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		return m, nil
	case "up", "k":
		if m.assigneeCursor > 0 {
			m.assigneeCursor--
		}
	case "down", "j":
		if m.assigneeCursor < len(m.state.Assignees)-1 {
			m.assigneeCursor++
		}
	case "enter":
		if !m.state.CanAssign() {
			return m, nil
		}
		m.mode = modeBrowse
		return m, assignTask(m.actions, m.state.Form.SelectedTaskID, m.state.Form.SelectedAssigneeID)
	}
	if len(m.state.Assignees) > 0 {
		m = m.dispatch(board.FieldChanged{Field: board.FieldSelectedAssignee, Value: m.state.Assignees[m.assigneeCursor].ID})
	}
	return m, nil
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.taskCursor < 0 || m.taskCursor >= len(m.state.Tasks) {
		return model.Task{}, false
	}
	return m.state.Tasks[m.taskCursor], true
}

func cycleUrgency(current string, step int) string {
	idx := 1
	for i, u := range urgencies {
		if u == current {
			idx = i
		}
	}
	idx = (idx + step + len(urgencies)) % len(urgencies)
	return urgencies[idx]
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Todo List"))
	b.WriteString("\n\n")

	switch m.mode {
	case modeAddTask:
		b.WriteString(m.taskFormView())
		b.WriteString("\n\n")
	case modeAddAssignee:
		b.WriteString(formStyle.Render("New assignee\n" + m.name.View()))
		b.WriteString("\n\n")
	}

	b.WriteString(headerStyle.Render("Todos"))
	b.WriteString("\n")
	if len(m.state.Tasks) == 0 {
		b.WriteString(dimStyle.Render("  no todos yet"))
		b.WriteString("\n")
	}
	for i, t := range m.state.Tasks {
		b.WriteString(m.taskLine(i, t))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Assignees"))
	b.WriteString("\n")
	if len(m.state.Assignees) == 0 {
		b.WriteString(dimStyle.Render("  none"))
		b.WriteString("\n")
	}
	for i, a := range m.state.Assignees {
		line := "  " + a.Name
		if m.mode == modeAssign && i == m.assigneeCursor {
			line = selectedStyle.Render("> " + a.Name)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help()))
	return b.String()
}

func (m Model) taskLine(i int, t model.Task) string {
	title := t.Title
	if t.Completed {
		title = doneStyle.Render(title)
	}
	cursor := "  "
	if i == m.taskCursor {
		cursor = activeStyle.Render("> ")
	}
	line := fmt.Sprintf("%s%s %s", cursor, title, badge(string(t.Urgency)))
	if t.Description != nil {
		line += "\n    " + dimStyle.Render(*t.Description)
	}
	line += "\n    " + dimStyle.Render("Assignees: "+board.AssigneeNames(t))
	return line
}

func (m Model) taskFormView() string {
	label := func(f int, s string) string {
		if m.focus == f {
			return activeStyle.Render(s)
		}
		return s
	}
	urgency := m.state.Form.Urgency
	if urgency == "" {
		urgency = string(model.UrgencyNormal)
	}
	lines := []string{
		"New todo",
		label(focusTitle, "Title       ") + m.title.View(),
		label(focusDescription, "Description ") + m.description.View(),
		label(focusUrgency, "Urgency     ") + "< " + badge(urgency) + " >",
	}
	return formStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) help() string {
	switch m.mode {
	case modeAddTask:
		return "tab: next field • ←/→: urgency • enter: add • esc: cancel"
	case modeAddAssignee:
		return "enter: add • esc: cancel"
	case modeAssign:
		return "↑/↓: choose assignee • enter: assign • esc: cancel"
	default:
		return "↑/↓: move • a: add todo • n: new assignee • s: assign • c: complete • r: reload • q: quit"
	}
}
