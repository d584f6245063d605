package domain

import "time"

// ScheduleBaseline is an immutable snapshot of a project's WBS.
type ScheduleBaseline struct {
	ID             string
	ProjectID      string
	BaselineNumber int
	Description    string
	Status         BaselineStatus
	CreatedBy      string
	CreatedAt      time.Time
	SnapshotData   []BaselineRecord
}

// BaselineRecord is the flattened shape of one node inside a snapshot. The
// JSON field names are read by reporting consumers and must not change.
type BaselineRecord struct {
	ID              string     `json:"id"`
	ParentID        *string    `json:"parentId"`
	Code            string     `json:"code"`
	Level           int        `json:"level"`
	SortOrder       int        `json:"sortOrder"`
	Name            string     `json:"name"`
	Weight          float64    `json:"weight"`
	Quantity        float64    `json:"quantity"`
	QuantityDone    float64    `json:"quantityDone"`
	PercentComplete float64    `json:"percentComplete"`
	PlannedStart    *time.Time `json:"plannedStart"`
	PlannedEnd      *time.Time `json:"plannedEnd"`
	ActualStart     *time.Time `json:"actualStart"`
	ActualEnd       *time.Time `json:"actualEnd"`
	PlannedCost     float64    `json:"plannedCost"`
	ActualCost      float64    `json:"actualCost"`
	IsMilestone     bool       `json:"isMilestone"`
}
