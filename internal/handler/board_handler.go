package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoboard/internal/model"
	"todoboard/internal/service"
	"todoboard/pkg/logger"
)

// BoardActions is the data-access surface the handlers call.
type BoardActions interface {
	AddTask(ctx context.Context, title string, description *string, urgency string) (*model.Task, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	AddAssignee(ctx context.Context, name string) (*model.Assignee, error)
	ListAssignees(ctx context.Context) ([]model.Assignee, error)
	AssignTask(ctx context.Context, taskID, assigneeID string) (bool, error)
	CompleteTask(ctx context.Context, taskID string) (*model.Task, error)
}

// BoardHandler serves the JSON RPC endpoints. Every response body carries the
// operation's result, which is the sentinel (null, false or []) on failure,
// plus an "error" kind when something went wrong.
type BoardHandler struct {
	actions BoardActions
	logger  *zap.Logger
}

func NewBoardHandler(actions BoardActions, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{actions: actions, logger: logger}
}

type addTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Urgency     string  `json:"urgency"`
}

type addAssigneeRequest struct {
	Name string `json:"name"`
}

type assignRequest struct {
	TaskID     string `json:"task_id"`
	AssigneeID string `json:"assignee_id"`
}

// AddTask handles POST /api/tasks
func (h *BoardHandler) AddTask(c *gin.Context) {
	var req addTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "task", nil, err)
		return
	}
	task, err := h.actions.AddTask(c.Request.Context(), req.Title, req.Description, req.Urgency)
	respond(c, "task", task, err)
}

// ListTasks handles GET /api/tasks
func (h *BoardHandler) ListTasks(c *gin.Context) {
	tasks, err := h.actions.ListTasks(c.Request.Context())
	respond(c, "tasks", tasks, err)
}

// AddAssignee handles POST /api/assignees
func (h *BoardHandler) AddAssignee(c *gin.Context) {
	var req addAssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "assignee", nil, err)
		return
	}
	assignee, err := h.actions.AddAssignee(c.Request.Context(), req.Name)
	respond(c, "assignee", assignee, err)
}

// ListAssignees handles GET /api/assignees
func (h *BoardHandler) ListAssignees(c *gin.Context) {
	assignees, err := h.actions.ListAssignees(c.Request.Context())
	respond(c, "assignees", assignees, err)
}

// AssignTask handles POST /api/assignments
func (h *BoardHandler) AssignTask(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "ok", false, err)
		return
	}
	ok, err := h.actions.AssignTask(c.Request.Context(), req.TaskID, req.AssigneeID)
	respond(c, "ok", ok, err)
}

// CompleteTask handles POST /api/tasks/:id/complete
func (h *BoardHandler) CompleteTask(c *gin.Context) {
	task, err := h.actions.CompleteTask(c.Request.Context(), c.Param("id"))
	respond(c, "task", task, err)
}

func (h *BoardHandler) badRequest(c *gin.Context, key string, sentinel any, err error) {
	logger.WithTrace(c.Request.Context(), h.logger).Warn("Malformed RPC body",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, gin.H{key: sentinel, "error": "invalid"})
}

func respond(c *gin.Context, key string, result any, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{key: result})
		return
	}
	c.JSON(statusFor(err), gin.H{key: result, "error": service.Kind(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
