package mqhandler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	mqcontracts "todoboard/contracts/mq"
	"todoboard/pkg/mq"
)

func newObserved() (*BoardEventHandler, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return NewBoardEventHandler(zap.New(core)), logs
}

func TestHandle_LogsKnownEvents(t *testing.T) {
	h, logs := newObserved()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		key     string
		payload any
		message string
	}{
		{mq.RoutingTaskCreated, mqcontracts.TaskCreatedPayload{TaskID: "t1", Title: "x", Urgency: "high", OccurredAt: at}, "Task created"},
		{mq.RoutingAssigneeCreated, mqcontracts.AssigneeCreatedPayload{AssigneeID: "a1", Name: "Alice", OccurredAt: at}, "Assignee created"},
		{mq.RoutingTaskAssigned, mqcontracts.TaskAssignedPayload{TaskID: "t1", AssigneeID: "a1", OccurredAt: at}, "Task assigned"},
		{mq.RoutingTaskCompleted, mqcontracts.TaskCompletedPayload{TaskID: "t1", OccurredAt: at}, "Task completed"},
	}
	for _, tc := range cases {
		raw, err := json.Marshal(tc.payload)
		require.NoError(t, err)
		require.NoError(t, h.Handle(ctx, tc.key, raw), tc.key)
	}

	entries := logs.All()
	require.Len(t, entries, len(cases))
	for i, tc := range cases {
		assert.Equal(t, tc.message, entries[i].Message)
	}
	assert.Equal(t, "Alice", entries[1].ContextMap()["name"])
}

func TestHandle_BadPayloadIsError(t *testing.T) {
	h, logs := newObserved()
	err := h.Handle(context.Background(), mq.RoutingTaskCreated, json.RawMessage(`{"task_id": 5`))
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Failed to unmarshal board event").Len())
}

func TestHandle_UnknownKeyIsAcked(t *testing.T) {
	h, logs := newObserved()
	err := h.Handle(context.Background(), "task.archived", json.RawMessage(`{}`))
	assert.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Unknown board event").Len())
}
