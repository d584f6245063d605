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

func nodeTestSetup(t *testing.T) (*SQLiteWbsNodeRepo, *domain.Project) {
	t.Helper()
	db := testutil.NewTestDB(t)
	proj := testutil.NewTestProject("WbsTest")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(context.Background(), proj))
	return NewSQLiteWbsNodeRepo(db), proj
}

func TestWbsNodeRepo_CreateAndGetByID(t *testing.T) {
	repo, proj := nodeTestSetup(t)
	ctx := context.Background()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	phase := testutil.NewTestNode(proj.ID, "Montagem", testutil.WithCode("3"), testutil.WithWeight(35))
	require.NoError(t, repo.Create(ctx, phase))
	task := testutil.NewTestNode(proj.ID, "Rotor",
		testutil.WithParent(phase),
		testutil.WithCode("3.1"),
		testutil.WithSchedule(start, 10),
		testutil.WithPercent(50),
		testutil.WithPlannedCost(1200.5),
		testutil.WithDateLocked(),
	)
	require.NoError(t, repo.Create(ctx, task))

	fetched, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.ParentID)
	assert.Equal(t, phase.ID, *fetched.ParentID)
	assert.Equal(t, 1, fetched.Level)
	assert.Equal(t, "3.1", fetched.WbsCode)
	assert.Equal(t, start, *fetched.PlannedStart)
	assert.Equal(t, start.AddDate(0, 0, 10), *fetched.PlannedEnd)
	assert.Equal(t, 10, fetched.PlannedDurationDays)
	assert.Equal(t, 50.0, fetched.PercentComplete)
	assert.Equal(t, 1200.5, fetched.PlannedCost)
	assert.True(t, fetched.DateLocked)
	assert.False(t, fetched.IsMilestone)
	assert.Nil(t, fetched.ActualStart)
	assert.Nil(t, fetched.DeletedAt)

	root, err := repo.GetByID(ctx, phase.ID)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, 35.0, root.Weight)
}

func TestWbsNodeRepo_GetByID_NotFound(t *testing.T) {
	repo, _ := nodeTestSetup(t)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWbsNodeRepo_ListByProject_OrderAndDeleted(t *testing.T) {
	repo, proj := nodeTestSetup(t)
	ctx := context.Background()

	b := testutil.NewTestNode(proj.ID, "B", testutil.WithCode("2"), testutil.WithSortOrder(2))
	a := testutil.NewTestNode(proj.ID, "A", testutil.WithCode("1"), testutil.WithSortOrder(1))
	a1 := testutil.NewTestNode(proj.ID, "A1", testutil.WithParent(a), testutil.WithCode("1.1"), testutil.WithSortOrder(1))
	for _, n := range []*domain.WbsNode{b, a, a1} {
		require.NoError(t, repo.Create(ctx, n))
	}

	list, err := repo.ListByProject(ctx, proj.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"1", "1.1", "2"}, []string{list[0].WbsCode, list[1].WbsCode, list[2].WbsCode})

	at := time.Now().UTC()
	require.NoError(t, repo.SoftDelete(ctx, []string{a.ID, a1.ID}, at))

	live, err := repo.ListByProject(ctx, proj.ID, false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, b.ID, live[0].ID)

	all, err := repo.ListByProject(ctx, proj.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	deleted, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
}

func TestWbsNodeRepo_SoftDeleteFreesCode(t *testing.T) {
	repo, proj := nodeTestSetup(t)
	ctx := context.Background()

	old := testutil.NewTestNode(proj.ID, "Old", testutil.WithCode("1"))
	require.NoError(t, repo.Create(ctx, old))
	dup := testutil.NewTestNode(proj.ID, "Dup", testutil.WithCode("1"))
	assert.Error(t, repo.Create(ctx, dup), "live codes are unique per project")

	require.NoError(t, repo.SoftDelete(ctx, []string{old.ID}, time.Now().UTC()))
	assert.NoError(t, repo.Create(ctx, dup))
}

func TestWbsNodeRepo_UpdateScheduleAndProgress(t *testing.T) {
	repo, proj := nodeTestSetup(t)
	ctx := context.Background()

	n := testutil.NewTestNode(proj.ID, "Task", testutil.WithSchedule(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 4))
	require.NoError(t, repo.Create(ctx, n))

	moved := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	n.PlannedStart = &moved
	n.NormalizeSchedule()
	require.NoError(t, repo.UpdateSchedule(ctx, n))
	require.NoError(t, repo.UpdateProgress(ctx, n.ID, 62.5, time.Now().UTC()))

	fetched, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, moved, *fetched.PlannedStart)
	assert.Equal(t, moved.AddDate(0, 0, 4), *fetched.PlannedEnd)
	assert.Equal(t, 62.5, fetched.PercentComplete)
}

func TestWbsNodeRepo_Update(t *testing.T) {
	repo, proj := nodeTestSetup(t)
	ctx := context.Background()

	n := testutil.NewTestNode(proj.ID, "Task")
	require.NoError(t, repo.Create(ctx, n))

	actual := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	n.Name = "Renamed"
	n.Weight = 7
	n.ManualOverride = true
	n.ActualStart = &actual
	n.ActualCost = 99
	require.NoError(t, repo.Update(ctx, n))

	fetched, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fetched.Name)
	assert.Equal(t, 7.0, fetched.Weight)
	assert.True(t, fetched.ManualOverride)
	assert.Equal(t, actual, *fetched.ActualStart)
	assert.Equal(t, 99.0, fetched.ActualCost)
}

func TestWbsNodeRepo_PercentOutOfRangeRejected(t *testing.T) {
	repo, proj := nodeTestSetup(t)
	n := testutil.NewTestNode(proj.ID, "Task", testutil.WithPercent(120))
	assert.Error(t, repo.Create(context.Background(), n))
}
