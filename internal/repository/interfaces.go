package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type WbsNodeRepo interface {
	Create(ctx context.Context, n *domain.WbsNode) error
	GetByID(ctx context.Context, id string) (*domain.WbsNode, error)
	// ListByProject returns nodes ordered by sort_order, wbs_code.
	ListByProject(ctx context.Context, projectID string, includeDeleted bool) ([]*domain.WbsNode, error)
	Update(ctx context.Context, n *domain.WbsNode) error
	UpdateSchedule(ctx context.Context, n *domain.WbsNode) error
	UpdateProgress(ctx context.Context, id string, percent float64, at time.Time) error
	SoftDelete(ctx context.Context, ids []string, at time.Time) error
}

type SubtaskRepo interface {
	Create(ctx context.Context, s *domain.Subtask) error
	GetByID(ctx context.Context, id string) (*domain.Subtask, error)
	ListByNode(ctx context.Context, nodeID string) ([]*domain.Subtask, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Subtask, error)
	Update(ctx context.Context, s *domain.Subtask) error
	Delete(ctx context.Context, id string) error
}

type DependencyRepo interface {
	Create(ctx context.Context, d *domain.Dependency) error
	Get(ctx context.Context, predecessorID, successorID string) (*domain.Dependency, error)
	Delete(ctx context.Context, predecessorID, successorID string) error
	ListByProject(ctx context.Context, projectID string) ([]*domain.Dependency, error)
	ListPredecessors(ctx context.Context, nodeID string) ([]*domain.Dependency, error)
	ListSuccessors(ctx context.Context, nodeID string) ([]*domain.Dependency, error)
}

type SprintRepo interface {
	Create(ctx context.Context, s *domain.Sprint) error
	GetByID(ctx context.Context, id string) (*domain.Sprint, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Sprint, error)
	Update(ctx context.Context, s *domain.Sprint) error
}

type SprintTaskRepo interface {
	Create(ctx context.Context, t *domain.SprintTask) error
	GetByID(ctx context.Context, id string) (*domain.SprintTask, error)
	ListBySprint(ctx context.Context, sprintID string) ([]*domain.SprintTask, error)
	Update(ctx context.Context, t *domain.SprintTask) error
	// CountByStatus returns the number of done tasks and the total for a sprint.
	CountByStatus(ctx context.Context, sprintID string) (done, total int, err error)
}

// BaselineRepo has no update path for snapshot data; only the status flag
// moves, and only from active to superseded.
type BaselineRepo interface {
	Create(ctx context.Context, b *domain.ScheduleBaseline) error
	GetByID(ctx context.Context, id string) (*domain.ScheduleBaseline, error)
	GetActive(ctx context.Context, projectID string) (*domain.ScheduleBaseline, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.ScheduleBaseline, error)
	MaxNumber(ctx context.Context, projectID string) (int, error)
	SupersedeActive(ctx context.Context, projectID string) error
}
