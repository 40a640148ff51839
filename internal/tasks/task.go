// Package tasks classifies, sorts and filters the task list shown on the
// dashboard. Every function is pure: callers pass the reference instant
// explicitly and inputs are never mutated.
package tasks

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

type Task struct {
	ID          int64
	Title       string
	Description string
	Due         time.Time
	Status      Status
	CreatedAt   time.Time
}

func (t Task) Done() bool {
	return t.Status == StatusCompleted
}
