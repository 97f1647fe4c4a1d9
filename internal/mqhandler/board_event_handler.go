package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "todoboard/contracts/mq"
	"todoboard/pkg/mq"
)

// BoardEventHandler decodes board change events and logs one line per event.
type BoardEventHandler struct {
	logger *zap.Logger
}

func NewBoardEventHandler(logger *zap.Logger) *BoardEventHandler {
	return &BoardEventHandler{logger: logger}
}

// Handle matches mq.MessageHandler. Unknown routing keys are logged raw and
// acked; undecodable payloads are returned as errors so the consumer nacks them.
func (h *BoardEventHandler) Handle(ctx context.Context, routingKey string, raw json.RawMessage) error {
	switch routingKey {
	case mq.RoutingTaskCreated:
		var p mqcontracts.TaskCreatedPayload
		if err := decode(raw, &p, routingKey); err != nil {
			return h.fail(routingKey, err)
		}
		h.logger.Info("Task created",
			zap.String("task_id", p.TaskID),
			zap.String("title", p.Title),
			zap.String("urgency", p.Urgency),
			zap.Time("occurred_at", p.OccurredAt),
		)

	case mq.RoutingAssigneeCreated:
		var p mqcontracts.AssigneeCreatedPayload
		if err := decode(raw, &p, routingKey); err != nil {
			return h.fail(routingKey, err)
		}
		h.logger.Info("Assignee created",
			zap.String("assignee_id", p.AssigneeID),
			zap.String("name", p.Name),
			zap.Time("occurred_at", p.OccurredAt),
		)

	case mq.RoutingTaskAssigned:
		var p mqcontracts.TaskAssignedPayload
		if err := decode(raw, &p, routingKey); err != nil {
			return h.fail(routingKey, err)
		}
		h.logger.Info("Task assigned",
			zap.String("task_id", p.TaskID),
			zap.String("assignee_id", p.AssigneeID),
			zap.Time("occurred_at", p.OccurredAt),
		)

	case mq.RoutingTaskCompleted:
		var p mqcontracts.TaskCompletedPayload
		if err := decode(raw, &p, routingKey); err != nil {
			return h.fail(routingKey, err)
		}
		h.logger.Info("Task completed",
			zap.String("task_id", p.TaskID),
			zap.Time("occurred_at", p.OccurredAt),
		)

	default:
		h.logger.Warn("Unknown board event", zap.String("routing_key", routingKey), zap.ByteString("payload", raw))
	}
	return nil
}

func (h *BoardEventHandler) fail(routingKey string, err error) error {
	h.logger.Error("Failed to unmarshal board event", zap.String("routing_key", routingKey), zap.Error(err))
	return err
}

func decode(raw json.RawMessage, v any, routingKey string) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", routingKey, err)
	}
	return nil
}
