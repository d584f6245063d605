package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCascadeDelete_ProjectRemovesEverything verifies that deleting a project
// cascades to nodes, subtasks, dependencies, sprints and baselines.
func TestCascadeDelete_ProjectRemovesEverything(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(db)
	nodeRepo := NewSQLiteWbsNodeRepo(db)
	subRepo := NewSQLiteSubtaskRepo(db)
	depRepo := NewSQLiteDependencyRepo(db)
	sprintRepo := NewSQLiteSprintRepo(db)
	baseRepo := NewSQLiteBaselineRepo(db)

	proj := testutil.NewTestProject("Cascade")
	require.NoError(t, projRepo.Create(ctx, proj))

	a := testutil.NewTestNode(proj.ID, "A")
	b := testutil.NewTestNode(proj.ID, "B")
	require.NoError(t, nodeRepo.Create(ctx, a))
	require.NoError(t, nodeRepo.Create(ctx, b))
	sub := testutil.NewTestSubtask(a.ID, "Weld")
	require.NoError(t, subRepo.Create(ctx, sub))
	require.NoError(t, depRepo.Create(ctx, testutil.NewTestDependency(proj.ID, a.ID, b.ID, domain.FinishToStart, 0)))
	sprint := testutil.NewTestSprint(proj.ID, "S1", time.Now().UTC(), 14)
	require.NoError(t, sprintRepo.Create(ctx, sprint))
	require.NoError(t, baseRepo.Create(ctx, &domain.ScheduleBaseline{
		ID: "bl1", ProjectID: proj.ID, BaselineNumber: 1, Status: domain.BaselineActive, CreatedAt: time.Now(),
	}))

	require.NoError(t, projRepo.Delete(ctx, proj.ID))

	_, err := nodeRepo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = subRepo.GetByID(ctx, sub.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	deps, err := depRepo.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Empty(t, deps)
	_, err = sprintRepo.GetByID(ctx, sprint.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = baseRepo.GetByID(ctx, "bl1")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestCascade_SubtaskDeleteDetachesSprintTask verifies sprint tasks survive
// their subtask being removed.
func TestCascade_SubtaskDeleteDetachesSprintTask(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Detach")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))
	node := testutil.NewTestNode(proj.ID, "Task")
	require.NoError(t, NewSQLiteWbsNodeRepo(db).Create(ctx, node))
	sub := testutil.NewTestSubtask(node.ID, "Step")
	subRepo := NewSQLiteSubtaskRepo(db)
	require.NoError(t, subRepo.Create(ctx, sub))
	sprint := testutil.NewTestSprint(proj.ID, "S1", time.Now().UTC(), 7)
	require.NoError(t, NewSQLiteSprintRepo(db).Create(ctx, sprint))

	taskRepo := NewSQLiteSprintTaskRepo(db)
	task := testutil.NewTestSprintTask(sprint.ID, node.ID)
	task.SubtaskID = &sub.ID
	require.NoError(t, taskRepo.Create(ctx, task))

	require.NoError(t, subRepo.Delete(ctx, sub.ID))

	fetched, err := taskRepo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.SubtaskID)
}
