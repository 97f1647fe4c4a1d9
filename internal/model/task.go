package model

import (
	"fmt"
	"strings"
	"time"
)

// Urgency is the priority label attached to a task.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency accepts low/normal/high in any case. Empty means normal.
func ParseUrgency(s string) (Urgency, error) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case "":
		return UrgencyNormal, nil
	case UrgencyLow, UrgencyNormal, UrgencyHigh:
		return u, nil
	default:
		return "", fmt.Errorf("unknown urgency %q", s)
	}
}

func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyNormal || u == UrgencyHigh
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Urgency     Urgency    `json:"urgency"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	Assignees   []Assignee `json:"assignees"`
}
