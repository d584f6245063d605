package service

import (
	"context"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/schedule"
)

type progressService struct {
	uow      db.UnitOfWork
	locks    *ProjectLocks
	settings Settings
}

func NewProgressService(uow db.UnitOfWork, locks *ProjectLocks, settings Settings) ProgressService {
	return &progressService{uow: uow, locks: locksOrNew(locks), settings: settings}
}

// Recalculate re-runs the roll-up and persists every moved percent.
func (s *progressService) Recalculate(ctx context.Context, projectID string) (sum *ProgressSummary, err error) {
	defer s.locks.Lock(projectID)()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		tree, progress, err := repos.recalculate(ctx, projectID, s.settings.NodeDecimals)
		if err != nil {
			return err
		}
		sum = buildSummary(projectID, tree, progress, s.settings)
		return nil
	})
	return sum, err
}

// Summary aggregates without writing.
func (s *progressService) Summary(ctx context.Context, projectID string) (sum *ProgressSummary, err error) {
	defer s.locks.RLock(projectID)()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		tree, err := repos.loadTree(ctx, projectID)
		if err != nil {
			return err
		}
		sum = buildSummary(projectID, tree, schedule.Aggregate(tree), s.settings)
		return nil
	})
	return sum, err
}
