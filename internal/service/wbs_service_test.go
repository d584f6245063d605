package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWBSService_CreateNodeDerivesCodes(t *testing.T) {
	e := newEngine(t)
	p := e.project(t, "Codigos")

	f1 := e.node(t, p.ID, nil, "Fase 1", 1)
	f2 := e.node(t, p.ID, nil, "Fase 2", 1)
	a := e.task(t, p.ID, f1, "A", 2)
	b := e.task(t, p.ID, f1, "B", 2)
	c := e.task(t, p.ID, b, "C", 1)

	assert.Equal(t, "1", f1.WbsCode)
	assert.Equal(t, "2", f2.WbsCode)
	assert.Equal(t, "1.1", a.WbsCode)
	assert.Equal(t, "1.2", b.WbsCode)
	assert.Equal(t, "1.2.1", c.WbsCode)
	assert.Equal(t, 2, c.Level)
	assert.Equal(t, 1.0, a.Weight, "weight defaults to 1")
}

func TestWBSService_CreateNodeRejections(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Rejeicoes")
	other := e.project(t, "Outro")
	foreign := e.node(t, other.ID, nil, "Estrangeiro", 1)

	_, err := e.wbs.CreateNode(ctx, NodeInput{ProjectID: p.ID, Name: "x", ParentID: &foreign.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)

	_, err = e.wbs.CreateNode(ctx, NodeInput{ProjectID: p.ID, Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.wbs.CreateNode(ctx, NodeInput{ProjectID: p.ID, Name: "neg", Weight: fptr(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	first, err := e.wbs.CreateNode(ctx, NodeInput{ProjectID: p.ID, Name: "first", SortOrder: 4})
	require.NoError(t, err)
	assert.Equal(t, "4", first.WbsCode)
	_, err = e.wbs.CreateNode(ctx, NodeInput{ProjectID: p.ID, Name: "clash", SortOrder: 4})
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
}

func TestWBSService_CreateNodeMaxDepth(t *testing.T) {
	e := newEngine(t)
	p := e.project(t, "Profundo")

	maxDepth := DefaultSettings().MaxDepth
	parent := e.node(t, p.ID, nil, "L0", 1)
	for i := 1; i <= maxDepth; i++ {
		parent = e.node(t, p.ID, parent, "deeper", 1)
	}
	assert.Equal(t, maxDepth, parent.Level, "the configured max depth itself is allowed")

	_, err := e.wbs.CreateNode(context.Background(), NodeInput{ProjectID: p.ID, Name: "too deep", ParentID: &parent.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
}

// Montagem Mecanica: phase weights [10,20,35,25,10] at [100,100,40,0,0].
func TestWBSService_MontagemMecanicaRollUp(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Montagem")

	phaseWeights := []float64{10, 20, 35, 25, 10}
	phases := make([]*domain.WbsNode, len(phaseWeights))
	for i, w := range phaseWeights {
		phases[i] = e.node(t, p.ID, nil, "Fase", w)
	}
	eng := e.task(t, p.ID, phases[0], "Projeto", 5)
	sup := e.task(t, p.ID, phases[1], "Compras", 5)
	e.task(t, p.ID, phases[3], "Comissionamento", 5)
	e.task(t, p.ID, phases[4], "Entrega", 0)

	montWeights := []float64{25, 30, 35, 10}
	mont := make([]*domain.WbsNode, len(montWeights))
	for i, w := range montWeights {
		mont[i] = e.node(t, p.ID, phases[2], "Montagem", w)
	}

	require.NoError(t, e.wbs.SetManualProgress(ctx, eng.ID, 100))
	require.NoError(t, e.wbs.SetManualProgress(ctx, sup.ID, 100))
	require.NoError(t, e.wbs.SetManualProgress(ctx, mont[0].ID, 100))
	require.NoError(t, e.wbs.SetManualProgress(ctx, mont[1].ID, 50))

	assert.Equal(t, 40.0, e.percentOf(t, phases[2].ID))
	assert.Equal(t, 100.0, e.percentOf(t, phases[0].ID))

	sum, err := e.progress.Summary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 44.0, sum.Overall)
	require.Len(t, sum.Nodes, 13)
	assert.Equal(t, "1", sum.Nodes[0].Code)
}

func TestWBSService_SetManualProgressOnParentIsNotALeaf(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Manual")
	phase := e.node(t, p.ID, nil, "Fase", 1)
	e.task(t, p.ID, phase, "Tarefa", 1)

	err := e.wbs.SetManualProgress(ctx, phase.ID, 50)
	assert.ErrorIs(t, err, domain.ErrNotALeaf)

	_, err = e.wbs.UpdateNode(ctx, phase.ID, NodeUpdate{ManualOverride: boolPtr(true)})
	require.NoError(t, err)
	require.NoError(t, e.wbs.SetManualProgress(ctx, phase.ID, 50))
	assert.Equal(t, 50.0, e.percentOf(t, phase.ID))

	assert.ErrorIs(t, e.wbs.SetManualProgress(ctx, phase.ID, 101), domain.ErrInvalidInput)
}

func TestWBSService_SubtasksDriveLeafPercent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Subtarefas")
	phase := e.node(t, p.ID, nil, "Fase", 1)
	leaf := e.task(t, p.ID, phase, "Pintura", 4)

	st1, err := e.wbs.AddSubtask(ctx, SubtaskInput{NodeID: leaf.ID, Name: "Demaos", Quantity: 4, QuantityDone: 1})
	require.NoError(t, err)
	_, err = e.wbs.AddSubtask(ctx, SubtaskInput{NodeID: leaf.ID, Name: "Limpeza", Status: domain.SubtaskInProgress})
	require.NoError(t, err)

	// (25 + 50) / 2
	assert.Equal(t, 38.0, e.percentOf(t, leaf.ID))
	assert.Equal(t, 38.0, e.percentOf(t, phase.ID))

	_, err = e.wbs.UpdateSubtask(ctx, st1.ID, SubtaskUpdate{QuantityDone: fptr(4)})
	require.NoError(t, err)
	assert.Equal(t, 75.0, e.percentOf(t, leaf.ID))

	list, err := e.wbs.ListSubtasks(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, e.wbs.DeleteSubtask(ctx, st1.ID))
	assert.Equal(t, 50.0, e.percentOf(t, leaf.ID))
}

func TestWBSService_AddSubtaskToParentIsNotALeaf(t *testing.T) {
	e := newEngine(t)
	p := e.project(t, "Folha")
	phase := e.node(t, p.ID, nil, "Fase", 1)
	e.task(t, p.ID, phase, "Tarefa", 1)

	_, err := e.wbs.AddSubtask(context.Background(), SubtaskInput{NodeID: phase.ID, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotALeaf)
}

func TestWBSService_MoveNodeRelabelsSubtree(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Mover")
	f1 := e.node(t, p.ID, nil, "F1", 1)
	f2 := e.node(t, p.ID, nil, "F2", 1)
	e.task(t, p.ID, f2, "existing", 1)
	a := e.node(t, p.ID, f1, "A", 1)
	a1 := e.task(t, p.ID, a, "A1", 1)

	moved, err := e.wbs.MoveNode(ctx, a.ID, &f2.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.2", moved.WbsCode)
	assert.Equal(t, 1, moved.Level)

	child, err := e.wbs.GetNode(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.2.1", child.WbsCode)
	assert.Equal(t, 2, child.Level)

	root, err := e.wbs.MoveNode(ctx, a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "3", root.WbsCode)
	assert.Equal(t, 0, root.Level)
}

func TestWBSService_MoveUnderOwnDescendantIsCycle(t *testing.T) {
	e := newEngine(t)
	p := e.project(t, "Ciclo")
	f1 := e.node(t, p.ID, nil, "F1", 1)
	a := e.node(t, p.ID, f1, "A", 1)

	_, err := e.wbs.MoveNode(context.Background(), f1.ID, &a.ID)
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestWBSService_DeleteNodeSoftDeletesSubtree(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Excluir")
	f1 := e.node(t, p.ID, nil, "F1", 1)
	done := e.task(t, p.ID, f1, "Feita", 1)
	branch := e.node(t, p.ID, f1, "Ramo", 1)
	e.task(t, p.ID, branch, "R1", 1)
	e.task(t, p.ID, branch, "R2", 1)
	require.NoError(t, e.wbs.SetManualProgress(ctx, done.ID, 100))
	assert.Equal(t, 50.0, e.percentOf(t, f1.ID))

	count, err := e.wbs.DeleteNode(ctx, branch.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	tree, err := e.wbs.Tree(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, 100.0, e.percentOf(t, f1.ID), "roll-up ignores deleted nodes")

	gone, err := e.wbs.GetNode(ctx, branch.ID)
	require.NoError(t, err)
	assert.True(t, gone.IsDeleted())

	_, err = e.wbs.DeleteNode(ctx, branch.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	next := e.node(t, p.ID, f1, "Novo", 1)
	assert.Equal(t, "1.2", next.WbsCode, "deleted siblings free their position")
}

func TestWBSService_UpdateNodeNormalizesSchedule(t *testing.T) {
	e := newEngine(t)
	p := e.project(t, "Atualizar")
	n := e.task(t, p.ID, nil, "T", 3)

	start := day0.AddDate(0, 0, 7)
	got, err := e.wbs.UpdateNode(context.Background(), n.ID, NodeUpdate{
		PlannedStart: &start,
		DurationDays: intPtr(4),
		Name:         sptr(" Renomeada "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renomeada", got.Name)
	require.NotNil(t, got.PlannedEnd)
	assert.Equal(t, "2026-03-13", got.PlannedEnd.Format(domain.DateLayout))
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
