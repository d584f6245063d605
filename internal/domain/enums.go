package domain

// DependencyType is the precedence relation between two WBS nodes.
type DependencyType string

const (
	FinishToStart  DependencyType = "FS"
	StartToStart   DependencyType = "SS"
	FinishToFinish DependencyType = "FF"
	StartToFinish  DependencyType = "SF"
)

// ValidDependencyTypes is the canonical set of accepted dependency type strings.
var ValidDependencyTypes = map[string]bool{
	"FS": true, "SS": true, "FF": true, "SF": true,
}

func (t DependencyType) Valid() bool {
	return ValidDependencyTypes[string(t)]
}

type SubtaskStatus string

const (
	SubtaskPending    SubtaskStatus = "pending"
	SubtaskInProgress SubtaskStatus = "in_progress"
	SubtaskDone       SubtaskStatus = "done"
)

// ValidSubtaskStatuses is the canonical set of accepted subtask status strings.
var ValidSubtaskStatuses = map[string]bool{
	"pending": true, "in_progress": true, "done": true,
}

type SprintStatus string

const (
	SprintFuture    SprintStatus = "future"
	SprintActive    SprintStatus = "active"
	SprintCompleted SprintStatus = "completed"
)

type SprintTaskStatus string

const (
	SprintTaskPending    SprintTaskStatus = "pending"
	SprintTaskInProgress SprintTaskStatus = "in_progress"
	SprintTaskBlocked    SprintTaskStatus = "blocked"
	SprintTaskDone       SprintTaskStatus = "done"
)

type BaselineStatus string

const (
	BaselineActive     BaselineStatus = "active"
	BaselineSuperseded BaselineStatus = "superseded"
)
