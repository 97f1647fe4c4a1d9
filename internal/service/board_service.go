package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "todoboard/contracts/mq"
	"todoboard/internal/cache"
	"todoboard/internal/model"
	"todoboard/internal/repository"
	"todoboard/pkg/logger"
	"todoboard/pkg/metrics"
	"todoboard/pkg/mq"
	"todoboard/pkg/otel"
)

// BoardPath is the page re-rendered after every successful write.
const BoardPath = "/"

var (
	// ErrInvalid means a required field was empty or a value was out of range.
	// Nothing was written.
	ErrInvalid = errors.New("invalid input")
	// ErrNotFound means a referenced task or assignee does not exist.
	ErrNotFound = repository.ErrNotFound
	// ErrStorage covers every other store failure.
	ErrStorage = errors.New("storage operation failed")
)

// Kind names the error class of err for metrics and RPC responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "storage"
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// BoardService holds the six board operations. Each does one store round
// trip. On failure it logs and returns the operation's sentinel (nil, false
// or an empty list) together with an error classified as ErrInvalid,
// ErrNotFound or ErrStorage. Successful writes invalidate the cached board
// page and publish a change event; failures of either are only logged.
type BoardService struct {
	store  repository.Store
	pages  cache.PageCache
	events EventPublisher
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewBoardService(store repository.Store, pages cache.PageCache, events EventPublisher, logger *zap.Logger) *BoardService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &BoardService{
		store:  store,
		pages:  pages,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// AddTask creates a task. description may be nil; blank descriptions are
// stored as nil. An empty urgency means normal.
func (s *BoardService) AddTask(ctx context.Context, title string, description *string, urgency string) (*model.Task, error) {
	const op = "add_task"
	ctx, span := otel.ActionSpan(ctx, op)
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, s.fail(ctx, op, fmt.Errorf("%w: title is required", ErrInvalid))
	}
	u, err := model.ParseUrgency(urgency)
	if err != nil {
		return nil, s.fail(ctx, op, fmt.Errorf("%w: %v", ErrInvalid, err))
	}

	t := &model.Task{
		ID:          s.newID(),
		Title:       title,
		Description: normalizeDescription(description),
		Urgency:     u,
		Completed:   false,
		CreatedAt:   s.now(),
		Assignees:   []model.Assignee{},
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.succeed(ctx, op, mq.RoutingTaskCreated, mqcontracts.TaskCreatedPayload{
		TaskID:     t.ID,
		Title:      t.Title,
		Urgency:    string(t.Urgency),
		OccurredAt: t.CreatedAt,
	})
	return t, nil
}

// ListTasks returns every task with its assignees, oldest first.
func (s *BoardService) ListTasks(ctx context.Context) ([]model.Task, error) {
	const op = "list_tasks"
	ctx, span := otel.ActionSpan(ctx, op)
	defer span.End()

	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return []model.Task{}, s.fail(ctx, op, err)
	}
	metrics.IncrementAction(op, "ok")
	return tasks, nil
}

func (s *BoardService) AddAssignee(ctx context.Context, name string) (*model.Assignee, error) {
	const op = "add_assignee"
	ctx, span := otel.ActionSpan(ctx, op)
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, s.fail(ctx, op, fmt.Errorf("%w: name is required", ErrInvalid))
	}

	a := &model.Assignee{ID: s.newID(), Name: name, CreatedAt: s.now()}
	if err := s.store.CreateAssignee(ctx, a); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.succeed(ctx, op, mq.RoutingAssigneeCreated, mqcontracts.AssigneeCreatedPayload{
		AssigneeID: a.ID,
		Name:       a.Name,
		OccurredAt: a.CreatedAt,
	})
	return a, nil
}

func (s *BoardService) ListAssignees(ctx context.Context) ([]model.Assignee, error) {
	const op = "list_assignees"
	ctx, span := otel.ActionSpan(ctx, op)
	defer span.End()

	assignees, err := s.store.ListAssignees(ctx)
	if err != nil {
		return []model.Assignee{}, s.fail(ctx, op, err)
	}
	metrics.IncrementAction(op, "ok")
	return assignees, nil
}

// AssignTask links an assignee to a task. Existence of either id is left to
// the store's foreign keys, which surface as ErrNotFound. Assigning a pair
// twice returns true and keeps the original link.
func (s *BoardService) AssignTask(ctx context.Context, taskID, assigneeID string) (bool, error) {
	const op = "assign_task"
	ctx, span := otel.ActionSpan(ctx, op)
	defer span.End()

	taskID, assigneeID = strings.TrimSpace(taskID), strings.TrimSpace(assigneeID)
	if taskID == "" || assigneeID == "" {
		return false, s.fail(ctx, op, fmt.Errorf("%w: task_id and assignee_id are required", ErrInvalid))
	}

	a := &model.Assignment{TaskID: taskID, AssigneeID: assigneeID, CreatedAt: s.now()}
	if err := s.store.CreateAssignment(ctx, a); err != nil {
		return false, s.fail(ctx, op, err)
	}

	s.succeed(ctx, op, mq.RoutingTaskAssigned, mqcontracts.TaskAssignedPayload{
		TaskID:     taskID,
		AssigneeID: assigneeID,
		OccurredAt: a.CreatedAt,
	})
	return true, nil
}

// CompleteTask marks a task completed. There is no way back to open.
func (s *BoardService) CompleteTask(ctx context.Context, taskID string) (*model.Task, error) {
	const op = "complete_task"
	ctx, span := otel.ActionSpan(ctx, op)
	defer span.End()

	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, s.fail(ctx, op, fmt.Errorf("%w: task id is required", ErrInvalid))
	}

	t, err := s.store.CompleteTask(ctx, taskID)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.succeed(ctx, op, mq.RoutingTaskCompleted, mqcontracts.TaskCompletedPayload{
		TaskID:     t.ID,
		OccurredAt: s.now(),
	})
	return t, nil
}

// Ping reports whether the store is reachable.
func (s *BoardService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *BoardService) fail(ctx context.Context, op string, err error) error {
	if !errors.Is(err, ErrInvalid) && !errors.Is(err, ErrNotFound) {
		err = fmt.Errorf("%w: %v", ErrStorage, err)
	}
	kind := Kind(err)
	metrics.IncrementAction(op, kind)
	otel.RecordError(ctx, err)

	log := logger.WithTrace(ctx, s.logger)
	if kind == "invalid" {
		log.Warn("Board action rejected", zap.String("operation", op), zap.Error(err))
	} else {
		log.Error("Board action failed", zap.String("operation", op), zap.String("kind", kind), zap.Error(err))
	}
	return err
}

// succeed runs the side effects of a committed write.
func (s *BoardService) succeed(ctx context.Context, op, routingKey string, payload any) {
	metrics.IncrementAction(op, "ok")
	log := logger.WithTrace(ctx, s.logger)

	if err := s.pages.Invalidate(ctx, BoardPath); err != nil {
		log.Warn("Failed to invalidate board page", zap.String("operation", op), zap.Error(err))
	} else {
		metrics.IncrementPageCache("invalidate")
	}

	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		log.Warn("Failed to publish board event",
			zap.String("operation", op),
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
