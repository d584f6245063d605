package service

import (
	"context"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/importer"
	"github.com/alexanderramin/cronograma/internal/schedule"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// Resolve accepts a short ID (case-insensitive) or a full project id.
	Resolve(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

// NodeInput describes a node to add to the WBS. A zero SortOrder appends
// the node after its last live sibling. A nil Weight defaults to 1.
type NodeInput struct {
	ProjectID    string
	ParentID     *string
	Name         string
	SortOrder    int
	PlannedStart *time.Time
	DurationDays int
	Weight       *float64
	PlannedCost  float64
	Quantity     float64
	IsMilestone  bool
	IsInspection bool
	ManualDates  bool
	DateLocked   bool
}

// NodeUpdate carries manual edits; nil fields are left unchanged. Actual
// dates are absent: they are recorded only by sprint execution.
type NodeUpdate struct {
	Name           *string
	Weight         *float64
	DurationDays   *int
	PlannedStart   *time.Time
	PlannedCost    *float64
	ActualCost     *float64
	Quantity       *float64
	QuantityDone   *float64
	IsMilestone    *bool
	IsInspection   *bool
	ManualOverride *bool
	ManualDates    *bool
	DateLocked     *bool
}

// SubtaskInput describes a subtask of a leaf node. A nil Weight defaults to 1
// and an empty Status to pending.
type SubtaskInput struct {
	NodeID       string
	Name         string
	Weight       *float64
	Quantity     float64
	QuantityDone float64
	Status       domain.SubtaskStatus
}

// SubtaskUpdate carries subtask edits; nil fields are left unchanged.
type SubtaskUpdate struct {
	Name         *string
	Weight       *float64
	Quantity     *float64
	QuantityDone *float64
	Status       *domain.SubtaskStatus
}

// WBSService is the authoritative store of the project tree. Every mutation
// re-runs the progress roll-up in the same transaction.
type WBSService interface {
	CreateNode(ctx context.Context, in NodeInput) (*domain.WbsNode, error)
	GetNode(ctx context.Context, id string) (*domain.WbsNode, error)
	UpdateNode(ctx context.Context, id string, upd NodeUpdate) (*domain.WbsNode, error)
	MoveNode(ctx context.Context, id string, newParentID *string) (*domain.WbsNode, error)
	SetManualProgress(ctx context.Context, id string, percent float64) error
	// DeleteNode soft-deletes the node and its subtree and returns the
	// number of nodes removed.
	DeleteNode(ctx context.Context, id string) (int, error)
	Tree(ctx context.Context, projectID string) (*schedule.Tree, error)

	AddSubtask(ctx context.Context, in SubtaskInput) (*domain.Subtask, error)
	UpdateSubtask(ctx context.Context, id string, upd SubtaskUpdate) (*domain.Subtask, error)
	DeleteSubtask(ctx context.Context, id string) error
	ListSubtasks(ctx context.Context, nodeID string) ([]*domain.Subtask, error)
}

// DependencyInput describes one precedence edge. An empty Type means FS.
type DependencyInput struct {
	PredecessorID string
	SuccessorID   string
	Type          domain.DependencyType
	LagDays       int
}

type DependencyService interface {
	AddDependency(ctx context.Context, in DependencyInput) (*domain.Dependency, error)
	// AddDependencies inserts every edge or none of them.
	AddDependencies(ctx context.Context, projectID string, in []DependencyInput) ([]*domain.Dependency, error)
	RemoveDependency(ctx context.Context, predecessorID, successorID string) error
	ListDependencies(ctx context.Context, projectID string) ([]*domain.Dependency, error)
	TopologicalOrder(ctx context.Context, projectID string) (*schedule.Order, error)
}

// ScheduleReport is the outcome of a propagation run. Changed holds the
// nodes whose planned dates differ from the stored ones; they were written
// back when Applied is true.
type ScheduleReport struct {
	Result  *schedule.Result
	Changed []*domain.WbsNode
	Applied bool
}

type ScheduleService interface {
	Propagate(ctx context.Context, projectID string, apply bool) (*ScheduleReport, error)
}

// NodeProgress is the rolled-up percent of one node, rounded for display
// and storage.
type NodeProgress struct {
	ID      string
	Code    string
	Name    string
	Level   int
	Weight  float64
	Percent float64
}

// ProgressSummary lists every live node in tree order plus the weighted
// project overall.
type ProgressSummary struct {
	ProjectID string
	Nodes     []NodeProgress
	Overall   float64
}

type ProgressService interface {
	Recalculate(ctx context.Context, projectID string) (*ProgressSummary, error)
	Summary(ctx context.Context, projectID string) (*ProgressSummary, error)
}

type BaselineService interface {
	CreateBaseline(ctx context.Context, projectID, description, createdBy string) (*domain.ScheduleBaseline, error)
	Get(ctx context.Context, id string) (*domain.ScheduleBaseline, error)
	List(ctx context.Context, projectID string) ([]*domain.ScheduleBaseline, error)
	Active(ctx context.Context, projectID string) (*domain.ScheduleBaseline, error)
	Compare(ctx context.Context, baselineID string) (*schedule.Variance, error)
	PlannedCurve(ctx context.Context, baselineID string, stepDays int) ([]schedule.CurvePoint, error)
}

type SprintInput struct {
	ProjectID string
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// TaskAssignment places a node, or one of its subtasks, into a sprint.
type TaskAssignment struct {
	SprintID     string
	NodeID       string
	SubtaskID    *string
	AssignedTo   string
	ScheduledFor *time.Time
}

// SprintService records execution and feeds actuals back into the WBS.
type SprintService interface {
	CreateSprint(ctx context.Context, in SprintInput) (*domain.Sprint, error)
	GetSprint(ctx context.Context, id string) (*domain.Sprint, error)
	ListSprints(ctx context.Context, projectID string) ([]*domain.Sprint, error)
	ActivateSprint(ctx context.Context, id string) (*domain.Sprint, error)
	CompleteSprint(ctx context.Context, id string) (*domain.Sprint, error)

	AssignTask(ctx context.Context, in TaskAssignment) (*domain.SprintTask, error)
	ListTasks(ctx context.Context, sprintID string) ([]*domain.SprintTask, error)
	StartTask(ctx context.Context, id string, at time.Time) (*domain.SprintTask, error)
	BlockTask(ctx context.Context, id string) (*domain.SprintTask, error)
	CompleteTask(ctx context.Context, id string, at time.Time, quantityDone *float64) (*domain.SprintTask, error)
}

// ImportResult holds the outcome of a project import.
type ImportResult struct {
	Project         *domain.Project
	NodeCount       int
	SubtaskCount    int
	DependencyCount int
}

type ImportService interface {
	ImportProject(ctx context.Context, filePath string) (*ImportResult, error)
	ImportProjectFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
