package domain

import (
	"fmt"
	"time"
)

// Sprint is a time-boxed execution window scoped to a project.
type Sprint struct {
	ID                 string
	ProjectID          string
	Name               string
	StartDate          time.Time
	EndDate            time.Time
	ProgressPercentage float64
	Status             SprintStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Activate transitions a future sprint to active.
func (s *Sprint) Activate(now time.Time) error {
	if s.Status != SprintFuture {
		return fmt.Errorf("cannot activate sprint in status %q: %w", s.Status, ErrInvalidTransition)
	}
	s.Status = SprintActive
	s.UpdatedAt = now
	return nil
}

// Complete transitions an active sprint to completed.
func (s *Sprint) Complete(now time.Time) error {
	if s.Status != SprintActive {
		return fmt.Errorf("cannot complete sprint in status %q: %w", s.Status, ErrInvalidTransition)
	}
	s.Status = SprintCompleted
	s.UpdatedAt = now
	return nil
}

// SprintTask links a WbsNode (and optionally one of its subtasks) to a
// sprint. It is the execution record that feeds actuals back into the WBS.
type SprintTask struct {
	ID              string
	SprintID        string
	BacklogID       string
	SubtaskID       *string
	AssignedTo      string
	ScheduledFor    *time.Time
	ExecutedAt      *time.Time
	ActualStartTime *time.Time
	ActualEndTime   *time.Time
	Status          SprintTaskStatus
	QuantityDone    *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Start marks the task in progress. The first start time is kept.
func (t *SprintTask) Start(at time.Time) error {
	switch t.Status {
	case SprintTaskPending, SprintTaskBlocked, SprintTaskInProgress:
	default:
		return fmt.Errorf("cannot start task in status %q: %w", t.Status, ErrInvalidTransition)
	}
	t.Status = SprintTaskInProgress
	if t.ActualStartTime == nil {
		t.ActualStartTime = &at
	}
	t.UpdatedAt = at
	return nil
}

// Block marks the task blocked.
func (t *SprintTask) Block(now time.Time) error {
	if t.Status == SprintTaskDone {
		return fmt.Errorf("cannot block a finished task: %w", ErrInvalidTransition)
	}
	t.Status = SprintTaskBlocked
	t.UpdatedAt = now
	return nil
}

// Complete marks the task done at the given time. A task completed without
// having been started is treated as started at the same instant.
func (t *SprintTask) Complete(at time.Time, quantityDone *float64) error {
	if t.Status == SprintTaskDone {
		return fmt.Errorf("task already done: %w", ErrInvalidTransition)
	}
	if quantityDone != nil && *quantityDone < 0 {
		return NewValidationError(ErrInvalidInput, "reported quantity must be non-negative", t.ID)
	}
	t.Status = SprintTaskDone
	if t.ActualStartTime == nil {
		t.ActualStartTime = &at
	}
	t.ActualEndTime = &at
	executed := Day(at)
	t.ExecutedAt = &executed
	t.QuantityDone = quantityDone
	t.UpdatedAt = at
	return nil
}
