package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cronograma/internal/config"
	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/repository"
	"github.com/alexanderramin/cronograma/internal/schedule"
)

// now is the service clock. Tests replace it to pin timestamps.
var now = func() time.Time { return time.Now().UTC() }

// Settings are the engine knobs the services read from configuration.
type Settings struct {
	MaxDepth        int
	NodeDecimals    int
	ProjectDecimals int
}

// SettingsFromConfig extracts the engine settings from cfg.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		MaxDepth:        cfg.MaxDepth,
		NodeDecimals:    cfg.NodeDecimals,
		ProjectDecimals: cfg.ProjectDecimals,
	}
}

// DefaultSettings mirrors config.DefaultConfig.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.DefaultConfig())
}

// txRepos bundles the repositories bound to one transaction.
type txRepos struct {
	projects  *repository.SQLiteProjectRepo
	nodes     *repository.SQLiteWbsNodeRepo
	subtasks  *repository.SQLiteSubtaskRepo
	deps      *repository.SQLiteDependencyRepo
	sprints   *repository.SQLiteSprintRepo
	tasks     *repository.SQLiteSprintTaskRepo
	baselines *repository.SQLiteBaselineRepo
}

func reposFor(tx db.DBTX) txRepos {
	return txRepos{
		projects:  repository.NewSQLiteProjectRepo(tx),
		nodes:     repository.NewSQLiteWbsNodeRepo(tx),
		subtasks:  repository.NewSQLiteSubtaskRepo(tx),
		deps:      repository.NewSQLiteDependencyRepo(tx),
		sprints:   repository.NewSQLiteSprintRepo(tx),
		tasks:     repository.NewSQLiteSprintTaskRepo(tx),
		baselines: repository.NewSQLiteBaselineRepo(tx),
	}
}

// loadTree reads the live WBS of a project with its subtasks.
func (r txRepos) loadTree(ctx context.Context, projectID string) (*schedule.Tree, error) {
	nodes, err := r.nodes.ListByProject(ctx, projectID, false)
	if err != nil {
		return nil, err
	}
	subtasks, err := r.subtasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return schedule.NewTree(nodes, subtasks), nil
}

// loadGraph reads the dependency set of a project restricted to the live
// nodes of tree. Every live node is a vertex even without edges.
func (r txRepos) loadGraph(ctx context.Context, projectID string, tree *schedule.Tree) (*schedule.Graph, error) {
	deps, err := r.deps.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	live := deps[:0:0]
	for _, d := range deps {
		if _, ok := tree.Node(d.PredecessorID); !ok {
			continue
		}
		if _, ok := tree.Node(d.SuccessorID); !ok {
			continue
		}
		live = append(live, d)
	}
	g := schedule.NewGraph(live)
	for _, id := range tree.PreOrder() {
		g.AddVertex(id)
	}
	return g, nil
}

// recalculate re-runs the roll-up for a project and persists every node
// percent that moved.
func (r txRepos) recalculate(ctx context.Context, projectID string, decimals int) (*schedule.Tree, schedule.Progress, error) {
	tree, err := r.loadTree(ctx, projectID)
	if err != nil {
		return nil, schedule.Progress{}, err
	}
	progress := schedule.Aggregate(tree)
	at := now()
	for _, u := range progress.Updates(tree, decimals) {
		if err := r.nodes.UpdateProgress(ctx, u.ID, u.PercentComplete, at); err != nil {
			return nil, schedule.Progress{}, err
		}
		u.UpdatedAt = at
		if n, ok := tree.Node(u.ID); ok {
			n.PercentComplete = u.PercentComplete
			n.UpdatedAt = at
		}
	}
	return tree, progress, nil
}

// liveNode returns the node or an error when it is missing or soft-deleted.
func (r txRepos) liveNode(ctx context.Context, id string) (*domain.WbsNode, error) {
	n, err := r.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.IsDeleted() {
		return nil, fmt.Errorf("wbs node %s is deleted: %w", id, repository.ErrNotFound)
	}
	return n, nil
}

// projectOf resolves the project owning a record before the project lock is
// taken. Ownership never changes, so the lookup is safe outside the lock.
func projectOf(ctx context.Context, uow db.UnitOfWork, lookup func(context.Context, txRepos) (string, error)) (string, error) {
	var projectID string
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		projectID, err = lookup(ctx, reposFor(tx))
		return err
	})
	return projectID, err
}

func nodeProject(id string) func(context.Context, txRepos) (string, error) {
	return func(ctx context.Context, r txRepos) (string, error) {
		n, err := r.nodes.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return n.ProjectID, nil
	}
}

// buildSummary rounds an aggregation for presentation and storage.
func buildSummary(projectID string, tree *schedule.Tree, p schedule.Progress, s Settings) *ProgressSummary {
	sum := &ProgressSummary{
		ProjectID: projectID,
		Overall:   schedule.Round(p.Overall, s.ProjectDecimals),
	}
	for _, id := range tree.PreOrder() {
		n, _ := tree.Node(id)
		sum.Nodes = append(sum.Nodes, NodeProgress{
			ID:      n.ID,
			Code:    n.WbsCode,
			Name:    n.Name,
			Level:   n.Level,
			Weight:  n.Weight,
			Percent: schedule.Round(p.Nodes[id], s.NodeDecimals),
		})
	}
	return sum
}

// observe reports a finished use case to the observer.
func observe(ctx context.Context, o UseCaseObserver, name string, startedAt time.Time, fields map[string]any, err error) {
	o.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}

// isNotFound reports whether err is a repository not-found.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
