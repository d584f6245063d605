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

type wbsService struct {
	uow      db.UnitOfWork
	locks    *ProjectLocks
	settings Settings
	observer UseCaseObserver
}

func NewWBSService(uow db.UnitOfWork, locks *ProjectLocks, settings Settings, observers ...UseCaseObserver) WBSService {
	return &wbsService{
		uow:      uow,
		locks:    locksOrNew(locks),
		settings: settings,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *wbsService) CreateNode(ctx context.Context, in NodeInput) (node *domain.WbsNode, err error) {
	startedAt := now()
	fields := map[string]any{"project_id": in.ProjectID, "name": in.Name}
	defer func() { observe(ctx, s.observer, "create-node", startedAt, fields, err) }()

	n := &domain.WbsNode{
		ID:                  uuid.New().String(),
		ProjectID:           in.ProjectID,
		ParentID:            in.ParentID,
		SortOrder:           in.SortOrder,
		Name:                strings.TrimSpace(in.Name),
		PlannedDurationDays: in.DurationDays,
		PlannedCost:         in.PlannedCost,
		Weight:              domain.Or(domain.DefaultWeight, in.Weight),
		Quantity:            in.Quantity,
		IsMilestone:         in.IsMilestone,
		IsInspection:        in.IsInspection,
		ManualDates:         in.ManualDates,
		DateLocked:          in.DateLocked,
		CreatedAt:           startedAt,
		UpdatedAt:           startedAt,
	}
	if in.PlannedStart != nil {
		n.PlannedStart = domain.DatePtr(*in.PlannedStart)
	}
	if in.SortOrder < 0 {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "sort order must be positive")
	}
	n.NormalizeSchedule()
	if err := n.Validate(); err != nil {
		return nil, err
	}

	defer s.locks.Lock(in.ProjectID)()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.projects.GetByID(ctx, in.ProjectID); err != nil {
			return err
		}
		tree, err := repos.loadTree(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if err := tree.Attach(n, s.settings.MaxDepth); err != nil {
			return err
		}
		if err := repos.nodes.Create(ctx, n); err != nil {
			return fmt.Errorf("creating node %q: %w", n.Name, err)
		}
		_, _, err = repos.recalculate(ctx, in.ProjectID, s.settings.NodeDecimals)
		return err
	})
	if err != nil {
		return nil, err
	}
	fields["wbs_code"] = n.WbsCode
	return n, nil
}

func (s *wbsService) GetNode(ctx context.Context, id string) (n *domain.WbsNode, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		n, err = reposFor(tx).nodes.GetByID(ctx, id)
		return err
	})
	return n, err
}

func (s *wbsService) UpdateNode(ctx context.Context, id string, upd NodeUpdate) (node *domain.WbsNode, err error) {
	projectID, err := projectOf(ctx, s.uow, nodeProject(id))
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock(projectID)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		n, err := repos.liveNode(ctx, id)
		if err != nil {
			return err
		}
		applyNodeUpdate(n, upd)
		n.NormalizeSchedule()
		if err := n.Validate(); err != nil {
			return err
		}
		n.UpdatedAt = now()
		if err := repos.nodes.Update(ctx, n); err != nil {
			return err
		}
		tree, _, err := repos.recalculate(ctx, projectID, s.settings.NodeDecimals)
		if err != nil {
			return err
		}
		node, _ = tree.Node(id)
		return nil
	})
	return node, err
}

func applyNodeUpdate(n *domain.WbsNode, upd NodeUpdate) {
	if upd.Name != nil {
		n.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.PlannedStart != nil {
		n.PlannedStart = domain.DatePtr(*upd.PlannedStart)
	}
	n.Weight = domain.Or(n.Weight, upd.Weight)
	n.PlannedDurationDays = domain.Or(n.PlannedDurationDays, upd.DurationDays)
	n.PlannedCost = domain.Or(n.PlannedCost, upd.PlannedCost)
	n.ActualCost = domain.Or(n.ActualCost, upd.ActualCost)
	n.Quantity = domain.Or(n.Quantity, upd.Quantity)
	n.QuantityDone = domain.Or(n.QuantityDone, upd.QuantityDone)
	n.IsMilestone = domain.Or(n.IsMilestone, upd.IsMilestone)
	n.IsInspection = domain.Or(n.IsInspection, upd.IsInspection)
	n.ManualOverride = domain.Or(n.ManualOverride, upd.ManualOverride)
	n.ManualDates = domain.Or(n.ManualDates, upd.ManualDates)
	n.DateLocked = domain.Or(n.DateLocked, upd.DateLocked)
}

func (s *wbsService) MoveNode(ctx context.Context, id string, newParentID *string) (node *domain.WbsNode, err error) {
	startedAt := now()
	fields := map[string]any{"node_id": id}
	defer func() { observe(ctx, s.observer, "move-node", startedAt, fields, err) }()

	projectID, err := projectOf(ctx, s.uow, nodeProject(id))
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock(projectID)()

	key := ""
	if newParentID != nil {
		key = *newParentID
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
		changed, err := tree.Move(id, key, s.settings.MaxDepth)
		if err != nil {
			return err
		}
		if err := checkSchedulable(tree, graph, project); err != nil {
			return err
		}
		at := now()
		for _, n := range changed {
			n.UpdatedAt = at
			if err := repos.nodes.Update(ctx, n); err != nil {
				return fmt.Errorf("relabelling node %s: %w", n.ID, err)
			}
		}
		fields["relabelled"] = len(changed)
		tree, _, err = repos.recalculate(ctx, projectID, s.settings.NodeDecimals)
		if err != nil {
			return err
		}
		node, _ = tree.Node(id)
		return nil
	})
	return node, err
}

// checkSchedulable rejects a tree/graph pair in which a dependency links a
// node with its own ancestor, or in which hierarchy and dependencies
// together form a cycle.
func checkSchedulable(tree *schedule.Tree, graph *schedule.Graph, project *domain.Project) error {
	for _, d := range graph.Edges() {
		if tree.Related(d.PredecessorID, d.SuccessorID) {
			return domain.NewValidationError(domain.ErrInvalidHierarchy,
				"dependency links a summary with its own content", d.PredecessorID, d.SuccessorID)
		}
	}
	_, err := schedule.Propagate(tree, graph, project.StartDate)
	return err
}

func (s *wbsService) SetManualProgress(ctx context.Context, id string, percent float64) error {
	if percent < 0 || percent > 100 {
		return domain.NewValidationError(domain.ErrInvalidInput,
			fmt.Sprintf("percent %.2f outside [0,100]", percent), id)
	}
	projectID, err := projectOf(ctx, s.uow, nodeProject(id))
	if err != nil {
		return err
	}
	defer s.locks.Lock(projectID)()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		n, err := repos.liveNode(ctx, id)
		if err != nil {
			return err
		}
		tree, err := repos.loadTree(ctx, projectID)
		if err != nil {
			return err
		}
		if !tree.IsLeaf(id) && !n.ManualOverride {
			return domain.NewValidationError(domain.ErrNotALeaf,
				"percent is derived from children or subtasks", id)
		}
		if err := repos.nodes.UpdateProgress(ctx, id, percent, now()); err != nil {
			return err
		}
		_, _, err = repos.recalculate(ctx, projectID, s.settings.NodeDecimals)
		return err
	})
}

func (s *wbsService) DeleteNode(ctx context.Context, id string) (count int, err error) {
	startedAt := now()
	fields := map[string]any{"node_id": id}
	defer func() { observe(ctx, s.observer, "delete-node", startedAt, fields, err) }()

	projectID, err := projectOf(ctx, s.uow, nodeProject(id))
	if err != nil {
		return 0, err
	}
	defer s.locks.Lock(projectID)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.liveNode(ctx, id); err != nil {
			return err
		}
		tree, err := repos.loadTree(ctx, projectID)
		if err != nil {
			return err
		}
		ids := append([]string{id}, tree.Descendants(id)...)
		if err := repos.nodes.SoftDelete(ctx, ids, now()); err != nil {
			return err
		}
		count = len(ids)
		_, _, err = repos.recalculate(ctx, projectID, s.settings.NodeDecimals)
		return err
	})
	fields["deleted"] = count
	return count, err
}

func (s *wbsService) Tree(ctx context.Context, projectID string) (tree *schedule.Tree, err error) {
	defer s.locks.RLock(projectID)()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		tree, err = repos.loadTree(ctx, projectID)
		return err
	})
	return tree, err
}

func subtaskProject(id string) func(context.Context, txRepos) (string, error) {
	return func(ctx context.Context, r txRepos) (string, error) {
		st, err := r.subtasks.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return nodeProject(st.BacklogID)(ctx, r)
	}
}

func (s *wbsService) AddSubtask(ctx context.Context, in SubtaskInput) (st *domain.Subtask, err error) {
	projectID, err := projectOf(ctx, s.uow, nodeProject(in.NodeID))
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock(projectID)()

	ts := now()
	st = &domain.Subtask{
		ID:           uuid.New().String(),
		BacklogID:    in.NodeID,
		Name:         strings.TrimSpace(in.Name),
		Weight:       domain.Or(domain.DefaultWeight, in.Weight),
		Quantity:     in.Quantity,
		QuantityDone: in.QuantityDone,
		Status:       domain.SubtaskStatus(domain.CoalesceStr(string(in.Status), string(domain.SubtaskPending))),
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.liveNode(ctx, in.NodeID); err != nil {
			return err
		}
		tree, err := repos.loadTree(ctx, projectID)
		if err != nil {
			return err
		}
		if tree.HasChildren(in.NodeID) {
			return domain.NewValidationError(domain.ErrNotALeaf, "subtasks belong to leaf nodes", in.NodeID)
		}
		if err := repos.subtasks.Create(ctx, st); err != nil {
			return err
		}
		_, _, err = repos.recalculate(ctx, projectID, s.settings.NodeDecimals)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *wbsService) UpdateSubtask(ctx context.Context, id string, upd SubtaskUpdate) (st *domain.Subtask, err error) {
	projectID, err := projectOf(ctx, s.uow, subtaskProject(id))
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock(projectID)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		st, err = repos.subtasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if upd.Name != nil {
			st.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Weight != nil {
			st.Weight = *upd.Weight
		}
		if upd.Quantity != nil {
			st.Quantity = *upd.Quantity
		}
		if upd.QuantityDone != nil {
			st.QuantityDone = *upd.QuantityDone
		}
		if upd.Status != nil {
			st.Status = *upd.Status
		}
		if err := st.Validate(); err != nil {
			return err
		}
		st.UpdatedAt = now()
		if err := repos.subtasks.Update(ctx, st); err != nil {
			return err
		}
		_, _, err = repos.recalculate(ctx, projectID, s.settings.NodeDecimals)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *wbsService) DeleteSubtask(ctx context.Context, id string) error {
	projectID, err := projectOf(ctx, s.uow, subtaskProject(id))
	if err != nil {
		return err
	}
	defer s.locks.Lock(projectID)()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if err := repos.subtasks.Delete(ctx, id); err != nil {
			return err
		}
		_, _, err := repos.recalculate(ctx, projectID, s.settings.NodeDecimals)
		return err
	})
}

func (s *wbsService) ListSubtasks(ctx context.Context, nodeID string) (list []*domain.Subtask, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		list, err = reposFor(tx).subtasks.ListByNode(ctx, nodeID)
		return err
	})
	return list, err
}
