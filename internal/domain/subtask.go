package domain

import (
	"fmt"
	"strings"
	"time"
)

// Subtask is a leaf-level execution unit belonging to exactly one WbsNode.
type Subtask struct {
	ID           string
	BacklogID    string
	Name         string
	Weight       float64
	Quantity     float64
	QuantityDone float64
	Status       SubtaskStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Percent is quantity-based when the subtask is quantity-tracked and falls
// back to the 0/50/100 status mapping otherwise.
func (s *Subtask) Percent() float64 {
	if s.Quantity > 0 {
		return ClampPercent(s.QuantityDone / s.Quantity * 100)
	}
	switch s.Status {
	case SubtaskDone:
		return 100
	case SubtaskInProgress:
		return 50
	default:
		return 0
	}
}

// Validate checks field-level invariants.
func (s *Subtask) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError(ErrInvalidInput, "subtask name is required", s.ID)
	}
	if s.Weight < 0 {
		return NewValidationError(ErrInvalidInput, fmt.Sprintf("weight %.2f must be non-negative", s.Weight), s.ID)
	}
	if s.Quantity < 0 || s.QuantityDone < 0 {
		return NewValidationError(ErrInvalidInput, "quantities must be non-negative", s.ID)
	}
	if !ValidSubtaskStatuses[string(s.Status)] {
		return NewValidationError(ErrInvalidInput, fmt.Sprintf("invalid subtask status %q", s.Status), s.ID)
	}
	return nil
}

// ClampPercent bounds v to [0,100].
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
