package domain

import "time"

// Dependency is a typed precedence edge between two WBS nodes of a project.
// LagDays is signed; negative lag means overlap.
type Dependency struct {
	ProjectID     string
	PredecessorID string
	SuccessorID   string
	Type          DependencyType
	LagDays       int
	CreatedAt     time.Time
}
