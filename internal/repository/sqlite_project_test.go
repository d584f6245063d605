package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/cronograma/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	proj := testutil.NewTestProject("Usina", testutil.WithStartDate(start))
	require.NoError(t, repo.Create(ctx, proj))

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj.ID, fetched.ID)
	assert.Equal(t, "Usina", fetched.Name)
	assert.Equal(t, start, fetched.StartDate)
}

func TestProjectRepo_GetByShortID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Obra", testutil.WithShortID("OBRA01"))
	require.NoError(t, repo.Create(ctx, proj))

	// Case-insensitive lookup.
	fetched, err := repo.GetByShortID(ctx, "obra01")
	require.NoError(t, err)
	assert.Equal(t, proj.ID, fetched.ID)
	assert.Equal(t, "OBRA01", fetched.ShortID)
}

func TestProjectRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "not found")
}

func TestProjectRepo_ListUpdateDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	p1 := testutil.NewTestProject("Alpha")
	p2 := testutil.NewTestProject("Beta")
	require.NoError(t, repo.Create(ctx, p1))
	require.NoError(t, repo.Create(ctx, p2))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	p1.Name = "Alpha Renamed"
	p1.StartDate = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(ctx, p1))
	fetched, err := repo.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha Renamed", fetched.Name)
	assert.Equal(t, "2026-01-05", fetched.StartDate.Format("2006-01-02"))

	require.NoError(t, repo.Delete(ctx, p2.ID))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProjectRepo_DuplicateShortIDRejected(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("One", testutil.WithShortID("DUP01"))))
	assert.Error(t, repo.Create(ctx, testutil.NewTestProject("Two", testutil.WithShortID("DUP01"))))
}
