package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todoboard/internal/cache"
	"todoboard/internal/handler"
	"todoboard/internal/model"
	"todoboard/internal/repository"
	"todoboard/internal/service"
	"todoboard/pkg/circuitbreaker"
	"todoboard/pkg/db"
	"todoboard/pkg/mq"
	"todoboard/pkg/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBroker struct{ connected bool }

func (b stubBroker) IsConnected() bool { return b.connected }

func newTestRouter(t *testing.T, broker BrokerStatus) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "board.db"), logger)
	require.NoError(t, err)
	store := repository.NewSQLiteStore(conn, logger)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(store.Close)

	pages := cache.NewMemoryCache(time.Minute)
	svc := service.NewBoardService(store, pages, nil, logger)
	return NewRouter(Deps{
		Board:  handler.NewBoardHandler(svc, logger),
		Page:   handler.NewPageHandler(svc, pages, logger),
		Store:  store,
		Broker: broker,
		Logger: logger,
	})
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]json.RawMessage
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealthAndReady(t *testing.T) {
	r := newTestRouter(t, nil)

	w, _ := doJSON(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(trace.HeaderName))

	w, body := doJSON(t, r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"ready"`, string(body["status"]))
}

func TestReadyReportsDisconnectedBroker(t *testing.T) {
	r := newTestRouter(t, stubBroker{connected: false})
	w, body := doJSON(t, r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `"mq_not_ready"`, string(body["status"]))
}

type failingSender struct{}

func (failingSender) Publish(context.Context, string, any) error {
	return errors.New("connection reset")
}

func TestReadyReportsOpenBrokerCircuit(t *testing.T) {
	guarded := mq.NewGuardedPublisher(failingSender{}, circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenFor:          time.Hour,
	}), zap.NewNop())
	r := newTestRouter(t, guarded)

	w, _ := doJSON(t, r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Error(t, guarded.Publish(context.Background(), mq.RoutingTaskCreated, nil))
	w, body := doJSON(t, r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `"mq_not_ready"`, string(body["status"]))
}

func TestTraceIDIsEchoed(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(trace.HeaderName, "abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Header().Get(trace.HeaderName))
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	doJSON(t, r, http.MethodGet, "/api/tasks", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "board_action_count")
}

func TestRPCFlow(t *testing.T) {
	r := newTestRouter(t, nil)

	w, body := doJSON(t, r, http.MethodPost, "/api/tasks", `{"title":"ship it","description":"v1","urgency":"high"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var task model.Task
	require.NoError(t, json.Unmarshal(body["task"], &task))
	assert.Equal(t, "ship it", task.Title)
	assert.Equal(t, model.UrgencyHigh, task.Urgency)

	w, body = doJSON(t, r, http.MethodPost, "/api/assignees", `{"name":"Alice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var alice model.Assignee
	require.NoError(t, json.Unmarshal(body["assignee"], &alice))

	w, body = doJSON(t, r, http.MethodPost, "/api/assignments",
		`{"task_id":"`+task.ID+`","assignee_id":"`+alice.ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `true`, string(body["ok"]))

	w, body = doJSON(t, r, http.MethodPost, "/api/tasks/"+task.ID+"/complete", "")
	require.Equal(t, http.StatusOK, w.Code)
	var done model.Task
	require.NoError(t, json.Unmarshal(body["task"], &done))
	assert.True(t, done.Completed)

	w, body = doJSON(t, r, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(body["tasks"], &tasks))
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)
	require.Len(t, tasks[0].Assignees, 1)
	assert.Equal(t, "Alice", tasks[0].Assignees[0].Name)

	w, body = doJSON(t, r, http.MethodGet, "/api/assignees", "")
	require.Equal(t, http.StatusOK, w.Code)
	var assignees []model.Assignee
	require.NoError(t, json.Unmarshal(body["assignees"], &assignees))
	assert.Len(t, assignees, 1)
}

func TestRPCErrorsCarrySentinels(t *testing.T) {
	r := newTestRouter(t, nil)

	w, body := doJSON(t, r, http.MethodPost, "/api/tasks", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `null`, string(body["task"]))
	assert.JSONEq(t, `"invalid"`, string(body["error"]))

	w, body = doJSON(t, r, http.MethodPost, "/api/assignees", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `null`, string(body["assignee"]))

	w, body = doJSON(t, r, http.MethodPost, "/api/assignments", `{"task_id":"x","assignee_id":"y"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `false`, string(body["ok"]))
	assert.JSONEq(t, `"not_found"`, string(body["error"]))

	w, body = doJSON(t, r, http.MethodPost, "/api/tasks/missing/complete", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `null`, string(body["task"]))
}

// brokenActions fails every call the way BoardService does on a dead store.
type brokenActions struct{}

var errBroken = fmt.Errorf("%w: connection refused", service.ErrStorage)

func (brokenActions) AddTask(context.Context, string, *string, string) (*model.Task, error) {
	return nil, errBroken
}
func (brokenActions) ListTasks(context.Context) ([]model.Task, error) {
	return []model.Task{}, errBroken
}
func (brokenActions) AddAssignee(context.Context, string) (*model.Assignee, error) {
	return nil, errBroken
}
func (brokenActions) ListAssignees(context.Context) ([]model.Assignee, error) {
	return []model.Assignee{}, errBroken
}
func (brokenActions) AssignTask(context.Context, string, string) (bool, error) {
	return false, errBroken
}
func (brokenActions) CompleteTask(context.Context, string) (*model.Task, error) {
	return nil, errBroken
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("down") }

func TestStorageFailureMapsTo500(t *testing.T) {
	logger := zap.NewNop()
	pages := cache.NewMemoryCache(time.Minute)
	r := NewRouter(Deps{
		Board:  handler.NewBoardHandler(brokenActions{}, logger),
		Page:   handler.NewPageHandler(brokenActions{}, pages, logger),
		Store:  downStore{},
		Logger: logger,
	})

	w, body := doJSON(t, r, http.MethodGet, "/api/tasks", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `[]`, string(body["tasks"]))
	assert.JSONEq(t, `"storage"`, string(body["error"]))

	w, _ = doJSON(t, r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// 页面仍然渲染，只是没有数据，且不缓存
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, cached, _ := pages.Get(context.Background(), service.BoardPath)
	assert.False(t, cached)
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getPage(r http.Handler) string {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Body.String()
}

func TestPageFormsRedirectAndRender(t *testing.T) {
	r := newTestRouter(t, nil)

	w := postForm(r, "/tasks", url.Values{"title": {"water plants"}, "description": {"balcony"}, "urgency": {"low"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = postForm(r, "/assignees", url.Values{"name": {"Bob"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	page := getPage(r)
	assert.Contains(t, page, "water plants")
	assert.Contains(t, page, "balcony")
	assert.Contains(t, page, "Bob")
	assert.Contains(t, page, "Assignees: None")
	assert.Contains(t, page, `class="badge badge-low"`)

	// 空标题被拒绝，页面不变
	w = postForm(r, "/tasks", url.Values{"title": {""}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, page, getPage(r))
}

func TestPageAssignAndComplete(t *testing.T) {
	r := newTestRouter(t, nil)

	_, body := doJSON(t, r, http.MethodPost, "/api/tasks", `{"title":"review"}`)
	var task model.Task
	require.NoError(t, json.Unmarshal(body["task"], &task))
	_, body = doJSON(t, r, http.MethodPost, "/api/assignees", `{"name":"Carol"}`)
	var carol model.Assignee
	require.NoError(t, json.Unmarshal(body["assignee"], &carol))

	w := postForm(r, "/assignments", url.Values{"task_id": {task.ID}, "assignee_id": {carol.ID}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, getPage(r), "Assignees: Carol")

	w = postForm(r, "/tasks/"+task.ID+"/complete", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotContains(t, getPage(r), "/tasks/"+task.ID+"/complete")
}
