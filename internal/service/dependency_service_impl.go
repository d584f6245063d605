package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/schedule"
)

type dependencyService struct {
	uow      db.UnitOfWork
	locks    *ProjectLocks
	observer UseCaseObserver
}

func NewDependencyService(uow db.UnitOfWork, locks *ProjectLocks, observers ...UseCaseObserver) DependencyService {
	return &dependencyService{
		uow:      uow,
		locks:    locksOrNew(locks),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *dependencyService) AddDependency(ctx context.Context, in DependencyInput) (dep *domain.Dependency, err error) {
	startedAt := now()
	fields := map[string]any{"predecessor": in.PredecessorID, "successor": in.SuccessorID, "type": string(in.Type)}
	defer func() { observe(ctx, s.observer, "add-dependency", startedAt, fields, err) }()

	if in.PredecessorID == in.SuccessorID {
		return nil, domain.NewValidationError(domain.ErrSelfDependency,
			"a node cannot depend on itself", in.PredecessorID)
	}
	projectID, err := projectOf(ctx, s.uow, nodeProject(in.PredecessorID))
	if isNotFound(err) {
		return nil, domain.NewValidationError(domain.ErrInvalidHierarchy, "predecessor not found", in.PredecessorID)
	}
	if err != nil {
		return nil, err
	}
	fields["project_id"] = projectID
	defer s.locks.Lock(projectID)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		deps, err := s.insertGuarded(ctx, reposFor(tx), projectID, []DependencyInput{in})
		if err != nil {
			return err
		}
		dep = deps[0]
		return nil
	})
	return dep, err
}

func (s *dependencyService) AddDependencies(ctx context.Context, projectID string, in []DependencyInput) (deps []*domain.Dependency, err error) {
	startedAt := now()
	fields := map[string]any{"project_id": projectID, "count": len(in)}
	defer func() { observe(ctx, s.observer, "add-dependencies", startedAt, fields, err) }()

	defer s.locks.Lock(projectID)()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		deps, err = s.insertGuarded(ctx, reposFor(tx), projectID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deps, nil
}

// insertGuarded validates each edge against the live tree and the graph as
// it grows, then writes them. The caller's transaction makes the batch
// all-or-nothing.
func (s *dependencyService) insertGuarded(ctx context.Context, repos txRepos, projectID string, in []DependencyInput) ([]*domain.Dependency, error) {
	project, err := repos.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tree, err := repos.loadTree(ctx, projectID)
	if err != nil {
		return nil, err
	}
	graph, err := repos.loadGraph(ctx, projectID, tree)
	if err != nil {
		return nil, err
	}

	at := now()
	out := make([]*domain.Dependency, 0, len(in))
	for _, e := range in {
		d := &domain.Dependency{
			ProjectID:     projectID,
			PredecessorID: e.PredecessorID,
			SuccessorID:   e.SuccessorID,
			Type:          domain.DependencyType(domain.CoalesceStr(string(e.Type), string(domain.FinishToStart))),
			LagDays:       e.LagDays,
			CreatedAt:     at,
		}
		if d.PredecessorID == d.SuccessorID {
			return nil, domain.NewValidationError(domain.ErrSelfDependency,
				"a node cannot depend on itself", d.PredecessorID)
		}
		for _, id := range []string{d.PredecessorID, d.SuccessorID} {
			if _, ok := tree.Node(id); !ok {
				return nil, domain.NewValidationError(domain.ErrInvalidHierarchy,
					"node is missing, deleted or in another project", id)
			}
		}
		if tree.Related(d.PredecessorID, d.SuccessorID) {
			return nil, domain.NewValidationError(domain.ErrInvalidHierarchy,
				"a summary cannot depend on its own content", d.PredecessorID, d.SuccessorID)
		}
		if err := graph.AddEdge(d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if _, err := schedule.Propagate(tree, graph, project.StartDate); err != nil {
		return nil, err
	}
	for _, d := range out {
		if err := repos.deps.Create(ctx, d); err != nil {
			return nil, fmt.Errorf("creating dependency %s->%s: %w", d.PredecessorID, d.SuccessorID, err)
		}
	}
	return out, nil
}

func (s *dependencyService) RemoveDependency(ctx context.Context, predecessorID, successorID string) error {
	projectID, err := projectOf(ctx, s.uow, func(ctx context.Context, r txRepos) (string, error) {
		d, err := r.deps.Get(ctx, predecessorID, successorID)
		if err != nil {
			return "", err
		}
		return d.ProjectID, nil
	})
	if err != nil {
		return err
	}
	defer s.locks.Lock(projectID)()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return reposFor(tx).deps.Delete(ctx, predecessorID, successorID)
	})
}

func (s *dependencyService) ListDependencies(ctx context.Context, projectID string) (deps []*domain.Dependency, err error) {
	defer s.locks.RLock(projectID)()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		deps, err = reposFor(tx).deps.ListByProject(ctx, projectID)
		return err
	})
	return deps, err
}

// TopologicalOrder snapshots the live graph and returns a lazy iterator over
// it. The iterator does not hold the project lock; it walks the snapshot.
func (s *dependencyService) TopologicalOrder(ctx context.Context, projectID string) (*schedule.Order, error) {
	defer s.locks.RLock(projectID)()
	var graph *schedule.Graph
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		tree, err := repos.loadTree(ctx, projectID)
		if err != nil {
			return err
		}
		graph, err = repos.loadGraph(ctx, projectID, tree)
		return err
	})
	if err != nil {
		return nil, err
	}
	return graph.Order(), nil
}
