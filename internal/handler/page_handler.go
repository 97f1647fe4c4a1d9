package handler

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"todoboard/internal/board"
	"todoboard/internal/cache"
	"todoboard/internal/service"
	"todoboard/pkg/logger"
	"todoboard/pkg/metrics"
)

//go:embed templates/board.html
var templateFS embed.FS

var boardTemplate = template.Must(
	template.New("board.html").
		Funcs(template.FuncMap{
			"assigneeNames": board.AssigneeNames,
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
		}).
		ParseFS(templateFS, "templates/board.html"),
)

// PageHandler serves the board page and its form posts. Form posts always
// redirect back to the page; failures are only logged.
type PageHandler struct {
	actions BoardActions
	pages   cache.PageCache
	logger  *zap.Logger
}

func NewPageHandler(actions BoardActions, pages cache.PageCache, logger *zap.Logger) *PageHandler {
	return &PageHandler{actions: actions, pages: pages, logger: logger}
}

// Show handles GET /
func (h *PageHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithTrace(ctx, h.logger)

	body, ok, err := h.pages.Get(ctx, service.BoardPath)
	if err == nil && ok {
		metrics.IncrementPageCache("hit")
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
		return
	}
	metrics.IncrementPageCache("miss")

	// 先取代数再读数据：渲染期间的写入会让这次 Set 作废
	gen, genErr := h.pages.Generation(ctx, service.BoardPath)
	state, complete := h.load(ctx)
	var buf bytes.Buffer
	if err := boardTemplate.Execute(&buf, state); err != nil {
		log.Error("Failed to render board page", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}

	// 只缓存完整加载的页面
	if complete && genErr == nil {
		if err := h.pages.Set(ctx, service.BoardPath, gen, buf.Bytes()); err != nil {
			log.Warn("Failed to cache board page", zap.Error(err))
		}
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// load fetches tasks and assignees concurrently. complete is false when
// either fetch failed and the page shows a sentinel list.
func (h *PageHandler) load(ctx context.Context) (board.State, bool) {
	var (
		g                errgroup.Group
		loaded           board.Loaded
		taskErr, asgnErr error
	)
	g.Go(func() error {
		loaded.Tasks, taskErr = h.actions.ListTasks(ctx)
		return nil
	})
	g.Go(func() error {
		loaded.Assignees, asgnErr = h.actions.ListAssignees(ctx)
		return nil
	})
	_ = g.Wait()

	return board.Reduce(board.State{}, loaded), taskErr == nil && asgnErr == nil
}

// AddTask handles POST /tasks
func (h *PageHandler) AddTask(c *gin.Context) {
	var description *string
	if d, ok := c.GetPostForm("description"); ok {
		description = &d
	}
	_, _ = h.actions.AddTask(c.Request.Context(), c.PostForm("title"), description, c.PostForm("urgency"))
	h.redirect(c)
}

// AddAssignee handles POST /assignees
func (h *PageHandler) AddAssignee(c *gin.Context) {
	_, _ = h.actions.AddAssignee(c.Request.Context(), c.PostForm("name"))
	h.redirect(c)
}

// AssignTask handles POST /assignments
func (h *PageHandler) AssignTask(c *gin.Context) {
	taskID, assigneeID := c.PostForm("task_id"), c.PostForm("assignee_id")
	if taskID != "" && assigneeID != "" {
		_, _ = h.actions.AssignTask(c.Request.Context(), taskID, assigneeID)
	}
	h.redirect(c)
}

// CompleteTask handles POST /tasks/:id/complete
func (h *PageHandler) CompleteTask(c *gin.Context) {
	_, _ = h.actions.CompleteTask(c.Request.Context(), c.Param("id"))
	h.redirect(c)
}

func (h *PageHandler) redirect(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, service.BoardPath)
}
