package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/google/uuid"
)

type sprintService struct {
	uow      db.UnitOfWork
	locks    *ProjectLocks
	settings Settings
	observer UseCaseObserver
}

func NewSprintService(uow db.UnitOfWork, locks *ProjectLocks, settings Settings, observers ...UseCaseObserver) SprintService {
	return &sprintService{
		uow:      uow,
		locks:    locksOrNew(locks),
		settings: settings,
		observer: useCaseObserverOrNoop(observers),
	}
}

func sprintProject(id string) func(context.Context, txRepos) (string, error) {
	return func(ctx context.Context, r txRepos) (string, error) {
		sp, err := r.sprints.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return sp.ProjectID, nil
	}
}

func taskProject(id string) func(context.Context, txRepos) (string, error) {
	return func(ctx context.Context, r txRepos) (string, error) {
		t, err := r.tasks.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return sprintProject(t.SprintID)(ctx, r)
	}
}

func (s *sprintService) CreateSprint(ctx context.Context, in SprintInput) (*domain.Sprint, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "sprint name is required")
	}
	start, end := domain.Day(in.StartDate), domain.Day(in.EndDate)
	if end.Before(start) {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "sprint ends before it starts")
	}
	ts := now()
	sp := &domain.Sprint{
		ID:        uuid.New().String(),
		ProjectID: in.ProjectID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    domain.SprintFuture,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	defer s.locks.Lock(in.ProjectID)()
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.projects.GetByID(ctx, in.ProjectID); err != nil {
			return err
		}
		return repos.sprints.Create(ctx, sp)
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *sprintService) GetSprint(ctx context.Context, id string) (sp *domain.Sprint, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sp, err = reposFor(tx).sprints.GetByID(ctx, id)
		return err
	})
	return sp, err
}

func (s *sprintService) ListSprints(ctx context.Context, projectID string) (list []*domain.Sprint, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		list, err = reposFor(tx).sprints.ListByProject(ctx, projectID)
		return err
	})
	return list, err
}

func (s *sprintService) ActivateSprint(ctx context.Context, id string) (*domain.Sprint, error) {
	return s.transition(ctx, id, (*domain.Sprint).Activate)
}

func (s *sprintService) CompleteSprint(ctx context.Context, id string) (*domain.Sprint, error) {
	return s.transition(ctx, id, (*domain.Sprint).Complete)
}

func (s *sprintService) transition(ctx context.Context, id string, move func(*domain.Sprint, time.Time) error) (sp *domain.Sprint, err error) {
	projectID, err := projectOf(ctx, s.uow, sprintProject(id))
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock(projectID)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		sp, err = repos.sprints.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := move(sp, now()); err != nil {
			return err
		}
		return repos.sprints.Update(ctx, sp)
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *sprintService) AssignTask(ctx context.Context, in TaskAssignment) (task *domain.SprintTask, err error) {
	projectID, err := projectOf(ctx, s.uow, sprintProject(in.SprintID))
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock(projectID)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		sp, err := repos.sprints.GetByID(ctx, in.SprintID)
		if err != nil {
			return err
		}
		if sp.Status == domain.SprintCompleted {
			return domain.NewValidationError(domain.ErrInvalidTransition, "sprint is completed", sp.ID)
		}
		node, err := repos.liveNode(ctx, in.NodeID)
		if err != nil {
			return err
		}
		if node.ProjectID != sp.ProjectID {
			return domain.NewValidationError(domain.ErrInvalidHierarchy, "node belongs to another project", node.ID)
		}
		if in.SubtaskID != nil {
			st, err := repos.subtasks.GetByID(ctx, *in.SubtaskID)
			if err != nil {
				return err
			}
			if st.BacklogID != node.ID {
				return domain.NewValidationError(domain.ErrInvalidInput, "subtask belongs to another node", st.ID, node.ID)
			}
		} else {
			tree, err := repos.loadTree(ctx, projectID)
			if err != nil {
				return err
			}
			if !tree.IsLeaf(node.ID) {
				return domain.NewValidationError(domain.ErrNotALeaf,
					"assign a subtask or a leaf node", node.ID)
			}
		}

		ts := now()
		task = &domain.SprintTask{
			ID:         uuid.New().String(),
			SprintID:   sp.ID,
			BacklogID:  node.ID,
			SubtaskID:  in.SubtaskID,
			AssignedTo: strings.TrimSpace(in.AssignedTo),
			Status:     domain.SprintTaskPending,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		}
		if in.ScheduledFor != nil {
			task.ScheduledFor = domain.DatePtr(*in.ScheduledFor)
		}
		if err := repos.tasks.Create(ctx, task); err != nil {
			return err
		}
		return s.refreshSprintProgress(ctx, repos, sp)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *sprintService) ListTasks(ctx context.Context, sprintID string) (list []*domain.SprintTask, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		list, err = reposFor(tx).tasks.ListBySprint(ctx, sprintID)
		return err
	})
	return list, err
}

// StartTask marks the task in progress and records the node's actual start
// when it has none yet, or when this start is earlier.
func (s *sprintService) StartTask(ctx context.Context, id string, at time.Time) (task *domain.SprintTask, err error) {
	startedAt := now()
	fields := map[string]any{"task_id": id}
	defer func() { observe(ctx, s.observer, "start-task", startedAt, fields, err) }()

	return s.feedback(ctx, id, func(ctx context.Context, repos txRepos, t *domain.SprintTask, node *domain.WbsNode) error {
		if err := t.Start(at); err != nil {
			return err
		}
		if node != nil {
			markStarted(node, at)
		}
		if t.SubtaskID == nil {
			return nil
		}
		st, err := repos.subtasks.GetByID(ctx, *t.SubtaskID)
		if err != nil {
			return err
		}
		if st.Status == domain.SubtaskPending {
			st.Status = domain.SubtaskInProgress
			st.UpdatedAt = now()
			return repos.subtasks.Update(ctx, st)
		}
		return nil
	})
}

func (s *sprintService) BlockTask(ctx context.Context, id string) (*domain.SprintTask, error) {
	return s.feedback(ctx, id, func(_ context.Context, _ txRepos, t *domain.SprintTask, _ *domain.WbsNode) error {
		return t.Block(now())
	})
}

// CompleteTask records the execution and feeds it back: the subtask or leaf
// node advances, the node's actual start is filled, and once the node
// reaches 100% its actual end is set.
func (s *sprintService) CompleteTask(ctx context.Context, id string, at time.Time, quantityDone *float64) (task *domain.SprintTask, err error) {
	startedAt := now()
	fields := map[string]any{"task_id": id}
	defer func() { observe(ctx, s.observer, "complete-task", startedAt, fields, err) }()

	return s.feedback(ctx, id, func(ctx context.Context, repos txRepos, t *domain.SprintTask, node *domain.WbsNode) error {
		if err := t.Complete(at, quantityDone); err != nil {
			return err
		}
		if node == nil {
			return nil
		}
		markStarted(node, at)
		if t.SubtaskID == nil {
			completeNode(node, quantityDone)
			return nil
		}
		st, err := repos.subtasks.GetByID(ctx, *t.SubtaskID)
		if err != nil {
			return err
		}
		completeSubtask(st, quantityDone)
		st.UpdatedAt = now()
		return repos.subtasks.Update(ctx, st)
	})
}

// feedback runs one task transition with its WBS side effects in a single
// transaction, then refreshes sprint progress and the project roll-up.
// node is nil when the task's node has been deleted; the task still moves.
func (s *sprintService) feedback(ctx context.Context, id string,
	apply func(context.Context, txRepos, *domain.SprintTask, *domain.WbsNode) error,
) (task *domain.SprintTask, err error) {
	projectID, err := projectOf(ctx, s.uow, taskProject(id))
	if err != nil {
		return nil, err
	}
	defer s.locks.Lock(projectID)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		task, err = repos.tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		sp, err := repos.sprints.GetByID(ctx, task.SprintID)
		if err != nil {
			return err
		}
		if sp.Status == domain.SprintCompleted {
			return domain.NewValidationError(domain.ErrInvalidTransition, "sprint is completed", sp.ID)
		}
		node, err := repos.nodes.GetByID(ctx, task.BacklogID)
		if err != nil {
			return err
		}
		if node.IsDeleted() {
			node = nil
		}

		if err := apply(ctx, repos, task, node); err != nil {
			return err
		}
		if err := repos.tasks.Update(ctx, task); err != nil {
			return err
		}
		if node != nil {
			node.UpdatedAt = now()
			if err := repos.nodes.Update(ctx, node); err != nil {
				return err
			}
		}
		if err := s.refreshSprintProgress(ctx, repos, sp); err != nil {
			return err
		}

		tree, progress, err := repos.recalculate(ctx, projectID, s.settings.NodeDecimals)
		if err != nil {
			return err
		}
		if node == nil || task.Status != domain.SprintTaskDone {
			return nil
		}
		live, ok := tree.Node(node.ID)
		if ok && live.ActualEnd == nil && progress.Nodes[node.ID] >= 100 {
			live.ActualEnd = domain.DatePtr(*task.ActualEndTime)
			live.UpdatedAt = now()
			return repos.nodes.Update(ctx, live)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *sprintService) refreshSprintProgress(ctx context.Context, repos txRepos, sp *domain.Sprint) error {
	done, total, err := repos.tasks.CountByStatus(ctx, sp.ID)
	if err != nil {
		return err
	}
	pct := 0.0
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	if pct == sp.ProgressPercentage {
		return nil
	}
	sp.ProgressPercentage = pct
	sp.UpdatedAt = now()
	return repos.sprints.Update(ctx, sp)
}

// markStarted keeps the earliest recorded start.
func markStarted(n *domain.WbsNode, at time.Time) {
	d := domain.Day(at)
	if n.ActualStart == nil || d.Before(*n.ActualStart) {
		n.ActualStart = &d
	}
}

// completeNode applies a completion to a leaf without subtasks. A reported
// quantity accumulates against the node's quantity; otherwise the node is
// done.
func completeNode(n *domain.WbsNode, quantityDone *float64) {
	if quantityDone != nil && n.Quantity > 0 {
		n.QuantityDone += *quantityDone
		n.PercentComplete = domain.ClampPercent(n.QuantityDone / n.Quantity * 100)
		return
	}
	if n.Quantity > 0 {
		n.QuantityDone = n.Quantity
	}
	n.PercentComplete = 100
}

// completeSubtask mirrors completeNode for a subtask.
func completeSubtask(st *domain.Subtask, quantityDone *float64) {
	if quantityDone != nil && st.Quantity > 0 {
		st.QuantityDone += *quantityDone
		if st.QuantityDone >= st.Quantity {
			st.Status = domain.SubtaskDone
		} else {
			st.Status = domain.SubtaskInProgress
		}
		return
	}
	if st.Quantity > 0 {
		st.QuantityDone = st.Quantity
	}
	st.Status = domain.SubtaskDone
}
