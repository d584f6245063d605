package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/testutil"
	"github.com/stretchr/testify/require"
)

var (
	day0    = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	fixedAt = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
)

// engine wires every service over one in-memory database and a shared lock
// registry, the way main does.
type engine struct {
	db        *sql.DB
	uow       db.UnitOfWork
	locks     *ProjectLocks
	projects  ProjectService
	wbs       WBSService
	deps      DependencyService
	schedule  ScheduleService
	progress  ProgressService
	baselines BaselineService
	sprints   SprintService
	imports   ImportService
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	database := testutil.NewTestDB(t)
	return newEngineWith(database, testutil.NewTestUoW(database))
}

func newEngineWith(database *sql.DB, uow db.UnitOfWork) *engine {
	locks := NewProjectLocks()
	settings := DefaultSettings()
	return &engine{
		db:        database,
		uow:       uow,
		locks:     locks,
		projects:  NewProjectService(uow, locks),
		wbs:       NewWBSService(uow, locks, settings),
		deps:      NewDependencyService(uow, locks),
		schedule:  NewScheduleService(uow, locks),
		progress:  NewProgressService(uow, locks, settings),
		baselines: NewBaselineService(uow, locks),
		sprints:   NewSprintService(uow, locks, settings),
		imports:   NewImportService(uow, locks, settings),
	}
}

// pinClock freezes the service clock for the duration of the test.
func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func (e *engine) project(t *testing.T, name string) *domain.Project {
	t.Helper()
	p := testutil.NewTestProject(name, testutil.WithStartDate(day0))
	require.NoError(t, e.projects.Create(context.Background(), p))
	return p
}

func (e *engine) node(t *testing.T, projectID string, parent *domain.WbsNode, name string, weight float64) *domain.WbsNode {
	t.Helper()
	in := NodeInput{ProjectID: projectID, Name: name, Weight: &weight}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	n, err := e.wbs.CreateNode(context.Background(), in)
	require.NoError(t, err)
	return n
}

func (e *engine) task(t *testing.T, projectID string, parent *domain.WbsNode, name string, days int) *domain.WbsNode {
	t.Helper()
	in := NodeInput{ProjectID: projectID, Name: name, DurationDays: days}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	n, err := e.wbs.CreateNode(context.Background(), in)
	require.NoError(t, err)
	return n
}

func (e *engine) percentOf(t *testing.T, id string) float64 {
	t.Helper()
	n, err := e.wbs.GetNode(context.Background(), id)
	require.NoError(t, err)
	return n.PercentComplete
}

func (e *engine) link(t *testing.T, pred, succ *domain.WbsNode, typ domain.DependencyType, lag int) {
	t.Helper()
	_, err := e.deps.AddDependency(context.Background(), DependencyInput{
		PredecessorID: pred.ID, SuccessorID: succ.ID, Type: typ, LagDays: lag,
	})
	require.NoError(t, err)
}

func fptr(f float64) *float64 { return &f }

func sptr(s string) *string { return &s }
