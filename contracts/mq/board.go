package mq

import "time"

// Payloads published on the board.events exchange after a successful write.

type TaskCreatedPayload struct {
	TaskID     string    `json:"task_id"`
	Title      string    `json:"title"`
	Urgency    string    `json:"urgency"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AssigneeCreatedPayload struct {
	AssigneeID string    `json:"assignee_id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}

type TaskAssignedPayload struct {
	TaskID     string    `json:"task_id"`
	AssigneeID string    `json:"assignee_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type TaskCompletedPayload struct {
	TaskID     string    `json:"task_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
