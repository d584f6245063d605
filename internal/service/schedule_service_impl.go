package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/schedule"
)

type scheduleService struct {
	uow      db.UnitOfWork
	locks    *ProjectLocks
	observer UseCaseObserver
}

func NewScheduleService(uow db.UnitOfWork, locks *ProjectLocks, observers ...UseCaseObserver) ScheduleService {
	return &scheduleService{
		uow:      uow,
		locks:    locksOrNew(locks),
		observer: useCaseObserverOrNoop(observers),
	}
}

// Propagate loads the project once, runs the forward pass in memory and,
// when apply is set, writes every changed planned date in one transaction.
// Conflicts do not fail the call; they are reported on the result.
func (s *scheduleService) Propagate(ctx context.Context, projectID string, apply bool) (report *ScheduleReport, err error) {
	startedAt := now()
	fields := map[string]any{"project_id": projectID, "apply": apply}
	defer func() { observe(ctx, s.observer, "propagate", startedAt, fields, err) }()

	if apply {
		defer s.locks.Lock(projectID)()
	} else {
		defer s.locks.RLock(projectID)()
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		project, err := repos.projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		tree, err := repos.loadTree(ctx, projectID)
		if err != nil {
			return err
		}
		graph, err := repos.loadGraph(ctx, projectID, tree)
		if err != nil {
			return err
		}
		res, err := schedule.Propagate(tree, graph, project.StartDate)
		if err != nil {
			return err
		}
		report = &ScheduleReport{Result: res, Changed: res.Updates(tree)}
		if !apply {
			return nil
		}
		at := now()
		for _, n := range report.Changed {
			n.UpdatedAt = at
			if err := repos.nodes.UpdateSchedule(ctx, n); err != nil {
				return fmt.Errorf("writing dates of %s: %w", n.WbsCode, err)
			}
		}
		report.Applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["changed"] = len(report.Changed)
	fields["conflicts"] = len(report.Result.Conflicts)
	return report, nil
}
