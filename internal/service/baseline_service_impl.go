package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/schedule"
	"github.com/google/uuid"
)

type baselineService struct {
	uow      db.UnitOfWork
	locks    *ProjectLocks
	observer UseCaseObserver
}

func NewBaselineService(uow db.UnitOfWork, locks *ProjectLocks, observers ...UseCaseObserver) BaselineService {
	return &baselineService{
		uow:      uow,
		locks:    locksOrNew(locks),
		observer: useCaseObserverOrNoop(observers),
	}
}

// CreateBaseline freezes the live WBS. Numbering, superseding the previous
// active baseline and the insert happen in one transaction.
func (s *baselineService) CreateBaseline(ctx context.Context, projectID, description, createdBy string) (b *domain.ScheduleBaseline, err error) {
	startedAt := now()
	fields := map[string]any{"project_id": projectID}
	defer func() { observe(ctx, s.observer, "create-baseline", startedAt, fields, err) }()

	defer s.locks.Lock(projectID)()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		nodes, err := repos.nodes.ListByProject(ctx, projectID, false)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return domain.NewValidationError(domain.ErrEmptyProject, "nothing to baseline", projectID)
		}
		last, err := repos.baselines.MaxNumber(ctx, projectID)
		if err != nil {
			return err
		}
		if err := repos.baselines.SupersedeActive(ctx, projectID); err != nil {
			return err
		}
		b = &domain.ScheduleBaseline{
			ID:             uuid.New().String(),
			ProjectID:      projectID,
			BaselineNumber: last + 1,
			Description:    strings.TrimSpace(description),
			Status:         domain.BaselineActive,
			CreatedBy:      strings.TrimSpace(createdBy),
			CreatedAt:      now(),
			SnapshotData:   schedule.Snapshot(nodes),
		}
		return repos.baselines.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	fields["baseline_number"] = b.BaselineNumber
	fields["records"] = len(b.SnapshotData)
	return b, nil
}

func (s *baselineService) Get(ctx context.Context, id string) (b *domain.ScheduleBaseline, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		b, err = reposFor(tx).baselines.GetByID(ctx, id)
		return err
	})
	return b, err
}

func (s *baselineService) List(ctx context.Context, projectID string) (list []*domain.ScheduleBaseline, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		list, err = reposFor(tx).baselines.ListByProject(ctx, projectID)
		return err
	})
	return list, err
}

func (s *baselineService) Active(ctx context.Context, projectID string) (b *domain.ScheduleBaseline, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		b, err = reposFor(tx).baselines.GetActive(ctx, projectID)
		return err
	})
	return b, err
}

// Compare diffs a baseline against the project's live WBS.
func (s *baselineService) Compare(ctx context.Context, baselineID string) (*schedule.Variance, error) {
	b, err := s.Get(ctx, baselineID)
	if err != nil {
		return nil, err
	}
	defer s.locks.RLock(b.ProjectID)()

	var v schedule.Variance
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		tree, err := reposFor(tx).loadTree(ctx, b.ProjectID)
		if err != nil {
			return err
		}
		v = schedule.Compare(b.SnapshotData, tree)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("comparing baseline %d: %w", b.BaselineNumber, err)
	}
	return &v, nil
}

func (s *baselineService) PlannedCurve(ctx context.Context, baselineID string, stepDays int) ([]schedule.CurvePoint, error) {
	b, err := s.Get(ctx, baselineID)
	if err != nil {
		return nil, err
	}
	return schedule.PlannedCurve(b.SnapshotData, stepDays), nil
}
