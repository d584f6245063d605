package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/repository"
	"github.com/alexanderramin/cronograma/internal/schedule"
	"github.com/alexanderramin/cronograma/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scheduledProject builds phase > {A (3d), B (4d)} with A -> B and writes
// the propagated dates.
func scheduledProject(t *testing.T, e *engine, name string) (p *domain.Project, phase, a, b *domain.WbsNode) {
	t.Helper()
	p = e.project(t, name)
	phase = e.node(t, p.ID, nil, "Fase", 1)
	a = e.task(t, p.ID, phase, "A", 3)
	b = e.task(t, p.ID, phase, "B", 4)
	e.link(t, a, b, domain.FinishToStart, 0)
	_, err := e.schedule.Propagate(context.Background(), p.ID, true)
	require.NoError(t, err)
	return p, phase, a, b
}

func TestBaselineService_CreateTwiceKeepsContent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p, _, _, _ := scheduledProject(t, e, "Linha")

	pinClock(t, fixedAt)
	first, err := e.baselines.CreateBaseline(ctx, p.ID, "contratual", "ana")
	require.NoError(t, err)
	pinClock(t, fixedAt.Add(time.Hour))
	second, err := e.baselines.CreateBaseline(ctx, p.ID, "revisao", "ana")
	require.NoError(t, err)

	assert.Equal(t, 1, first.BaselineNumber)
	assert.Equal(t, 2, second.BaselineNumber)

	g1, err := e.baselines.Get(ctx, first.ID)
	require.NoError(t, err)
	g2, err := e.baselines.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.NotEqual(t, g1.CreatedAt, g2.CreatedAt)
	assert.Equal(t, g1.SnapshotData, g2.SnapshotData)
	require.Len(t, g1.SnapshotData, 3)
	assert.Equal(t, "1", g1.SnapshotData[0].Code)

	assert.Equal(t, domain.BaselineSuperseded, g1.Status)
	assert.Equal(t, domain.BaselineActive, g2.Status)

	active, err := e.baselines.Active(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	list, err := e.baselines.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBaselineService_EmptyProject(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Vazio")

	_, err := e.baselines.CreateBaseline(ctx, p.ID, "", "")
	assert.ErrorIs(t, err, domain.ErrEmptyProject)

	_, err = e.baselines.CreateBaseline(ctx, "missing", "", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.baselines.Active(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBaselineService_CompareAgainstLive(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p, _, a, b := scheduledProject(t, e, "Variancia")

	base, err := e.baselines.CreateBaseline(ctx, p.ID, "", "")
	require.NoError(t, err)

	later := day0.AddDate(0, 0, 2)
	_, err = e.wbs.UpdateNode(ctx, a.ID, NodeUpdate{PlannedStart: &later})
	require.NoError(t, err)
	_, err = e.wbs.DeleteNode(ctx, b.ID)
	require.NoError(t, err)
	e.task(t, p.ID, nil, "Nova", 1)

	v, err := e.baselines.Compare(ctx, base.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Changed)
	assert.Equal(t, 1, v.Removed)
	assert.Equal(t, 1, v.Added)

	var slipped schedule.NodeVariance
	for _, nv := range v.Nodes {
		if nv.ID == a.ID {
			slipped = nv
		}
	}
	require.NotNil(t, slipped.StartSlipDays)
	assert.Equal(t, 2, *slipped.StartSlipDays)
	assert.Equal(t, 2, *slipped.EndSlipDays)
	assert.Equal(t, schedule.VarianceChanged, slipped.Status)
}

func TestBaselineService_PlannedCurve(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p, _, _, _ := scheduledProject(t, e, "Curva")

	base, err := e.baselines.CreateBaseline(ctx, p.ID, "", "")
	require.NoError(t, err)

	curve, err := e.baselines.PlannedCurve(ctx, base.ID, 7)
	require.NoError(t, err)
	require.Len(t, curve, 2)
	assert.Equal(t, "2026-03-02", curve[0].Date.Format(domain.DateLayout))
	assert.Equal(t, 0.0, curve[0].Percent)
	assert.Equal(t, "2026-03-09", curve[1].Date.Format(domain.DateLayout))
	assert.InDelta(t, 100.0, curve[1].Percent, 1e-9)
}

func TestBaselineService_FailedInsertKeepsPreviousActive(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p, _, _, _ := scheduledProject(t, e, "Falha")

	first, err := e.baselines.CreateBaseline(ctx, p.ID, "contratual", "ana")
	require.NoError(t, err)

	// The supersede of #1 runs before the failing insert and must be undone.
	boom := errors.New("disk full")
	failing := newEngineWith(e.db, &testutil.FailOnNthExecUoW{
		DB: e.db, FailOn: 1, Match: "INSERT INTO schedule_baselines", Err: boom,
	})
	_, err = failing.baselines.CreateBaseline(ctx, p.ID, "revisao", "ana")
	require.ErrorIs(t, err, boom)

	active, err := e.baselines.Active(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
	assert.Equal(t, domain.BaselineActive, active.Status)

	list, err := e.baselines.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, countRows(t, e, "schedule_baselines"))
}
