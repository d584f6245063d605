package domain

import (
	"fmt"
	"strings"
	"time"
)

// WbsNode is one task or phase of a project's work breakdown structure.
type WbsNode struct {
	ID        string
	ProjectID string
	ParentID  *string // nil for root phases
	WbsCode   string
	Level     int
	SortOrder int
	Name      string

	// Schedule
	PlannedStart        *time.Time
	PlannedEnd          *time.Time
	PlannedDurationDays int
	ActualStart         *time.Time
	ActualEnd           *time.Time

	// Cost
	PlannedCost float64
	ActualCost  float64

	// Progress
	Weight          float64
	Quantity        float64
	QuantityDone    float64
	PercentComplete float64

	IsMilestone  bool
	IsInspection bool

	// ManualOverride lets a non-leaf node carry a manually set percent.
	ManualOverride bool
	// ManualDates marks a parent whose dates are authored instead of
	// derived from its children.
	ManualDates bool
	// DateLocked pins PlannedStart; propagation reports instead of moving it.
	DateLocked bool

	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDeleted reports whether the node has been soft-deleted.
func (n *WbsNode) IsDeleted() bool {
	return n.DeletedAt != nil
}

// IsRoot reports whether the node is a root phase.
func (n *WbsNode) IsRoot() bool {
	return n.ParentID == nil
}

// EffectiveDuration is the scheduled duration in days; milestones are zero.
func (n *WbsNode) EffectiveDuration() int {
	if n.IsMilestone {
		return 0
	}
	return n.PlannedDurationDays
}

// NormalizeSchedule keeps PlannedEnd consistent with PlannedStart and the
// effective duration. Milestones collapse to a single day.
func (n *WbsNode) NormalizeSchedule() {
	if n.IsMilestone {
		n.PlannedDurationDays = 0
	}
	if n.PlannedStart == nil {
		return
	}
	start := Day(*n.PlannedStart)
	end := AddDays(start, n.EffectiveDuration())
	n.PlannedStart = &start
	n.PlannedEnd = &end
}

// Validate checks the per-node invariants that do not need the tree.
func (n *WbsNode) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return NewValidationError(ErrInvalidInput, "node name is required", n.ID)
	}
	if n.Weight < 0 {
		return NewValidationError(ErrInvalidInput, fmt.Sprintf("weight %.2f must be non-negative", n.Weight), n.ID)
	}
	if n.PercentComplete < 0 || n.PercentComplete > 100 {
		return NewValidationError(ErrInvalidInput, fmt.Sprintf("percent complete %.2f outside [0,100]", n.PercentComplete), n.ID)
	}
	if n.PlannedDurationDays < 0 {
		return NewValidationError(ErrInvalidInput, "planned duration must be non-negative", n.ID)
	}
	if n.Quantity < 0 || n.QuantityDone < 0 {
		return NewValidationError(ErrInvalidInput, "quantities must be non-negative", n.ID)
	}
	if n.IsMilestone && n.PlannedStart != nil && n.PlannedEnd != nil && !n.PlannedStart.Equal(*n.PlannedEnd) {
		return NewValidationError(ErrInvalidInput, "milestone start and end must match", n.ID)
	}
	return nil
}

// ParentKey returns the parent id, or "" for roots.
func (n *WbsNode) ParentKey() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}
