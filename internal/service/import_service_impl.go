package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/importer"
	"github.com/alexanderramin/cronograma/internal/schedule"
)

type importService struct {
	uow      db.UnitOfWork
	locks    *ProjectLocks
	settings Settings
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, locks *ProjectLocks, settings Settings, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:      uow,
		locks:    locksOrNew(locks),
		settings: settings,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportProject(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportProjectFromSchema(ctx, schema)
}

// ImportProjectFromSchema creates a whole project from an import document in
// one transaction. Nodes get their codes from the WBS tree as they are
// attached; dependencies are written unchecked and the finished graph is
// then verified, so any failure leaves nothing behind.
func (s *importService) ImportProjectFromSchema(ctx context.Context, schema *importer.ImportSchema) (res *ImportResult, err error) {
	startedAt := now()
	fields := map[string]any{"short_id": schema.Project.ShortID}
	defer func() { observe(ctx, s.observer, "import-project", startedAt, fields, err) }()

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, formatValidationErrors(errs))
	}
	conv, err := importer.Convert(schema, now())
	if err != nil {
		return nil, err
	}
	fields["project_id"] = conv.Project.ID

	defer s.locks.Lock(conv.Project.ID)()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if err := repos.projects.Create(ctx, conv.Project); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}

		tree := schedule.NewTree(nil, nil)
		for _, n := range conv.Nodes {
			if err := tree.Attach(n, s.settings.MaxDepth); err != nil {
				return err
			}
			if err := n.Validate(); err != nil {
				return err
			}
			if err := repos.nodes.Create(ctx, n); err != nil {
				return fmt.Errorf("creating node %s: %w", n.WbsCode, err)
			}
		}
		for _, st := range conv.Subtasks {
			if err := repos.subtasks.Create(ctx, st); err != nil {
				return fmt.Errorf("creating subtask %q: %w", st.Name, err)
			}
		}
		for _, d := range conv.Dependencies {
			if err := repos.deps.Create(ctx, d); err != nil {
				return fmt.Errorf("creating dependency: %w", err)
			}
		}

		if err := s.verifyGraph(ctx, repos, conv.Project); err != nil {
			return err
		}
		_, _, err := repos.recalculate(ctx, conv.Project.ID, s.settings.NodeDecimals)
		return err
	})
	if err != nil {
		return nil, err
	}

	res = &ImportResult{
		Project:         conv.Project,
		NodeCount:       len(conv.Nodes),
		SubtaskCount:    len(conv.Subtasks),
		DependencyCount: len(conv.Dependencies),
	}
	fields["nodes"] = res.NodeCount
	fields["dependencies"] = res.DependencyCount
	return res, nil
}

// verifyGraph re-reads what was written and checks it the way the
// incremental path would have: acyclic, no edge inside one branch, and
// schedulable across the hierarchy.
func (s *importService) verifyGraph(ctx context.Context, repos txRepos, project *domain.Project) error {
	tree, err := repos.loadTree(ctx, project.ID)
	if err != nil {
		return err
	}
	graph, err := repos.loadGraph(ctx, project.ID, tree)
	if err != nil {
		return err
	}
	if _, err := graph.Order().All(); err != nil {
		return err
	}
	for _, d := range graph.Edges() {
		if tree.Related(d.PredecessorID, d.SuccessorID) {
			return domain.NewValidationError(domain.ErrInvalidHierarchy,
				"a summary cannot depend on its own content", d.PredecessorID, d.SuccessorID)
		}
	}
	_, err = schedule.Propagate(tree, graph, project.StartDate)
	return err
}

func formatValidationErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = "  - " + e.Error()
	}
	return fmt.Sprintf("%d validation error(s):\n%s", len(errs), strings.Join(msgs, "\n"))
}
