package model

import "time"

type Assignee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Assignment links one task and one assignee.
type Assignment struct {
	TaskID     string    `json:"task_id"`
	AssigneeID string    `json:"assignee_id"`
	CreatedAt  time.Time `json:"created_at"`
}
