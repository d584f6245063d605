package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *engine) activeSprint(t *testing.T, projectID string) *domain.Sprint {
	t.Helper()
	ctx := context.Background()
	sp, err := e.sprints.CreateSprint(ctx, SprintInput{
		ProjectID: projectID, Name: "Sprint 1", StartDate: day0, EndDate: day0.AddDate(0, 0, 13),
	})
	require.NoError(t, err)
	sp, err = e.sprints.ActivateSprint(ctx, sp.ID)
	require.NoError(t, err)
	return sp
}

func TestSprintService_Lifecycle(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Ciclo")

	_, err := e.sprints.CreateSprint(ctx, SprintInput{
		ProjectID: p.ID, Name: "Invertida", StartDate: day0, EndDate: day0.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sp, err := e.sprints.CreateSprint(ctx, SprintInput{
		ProjectID: p.ID, Name: " S1 ", StartDate: day0, EndDate: day0.AddDate(0, 0, 13),
	})
	require.NoError(t, err)
	assert.Equal(t, "S1", sp.Name)
	assert.Equal(t, domain.SprintFuture, sp.Status)

	_, err = e.sprints.CompleteSprint(ctx, sp.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	sp, err = e.sprints.ActivateSprint(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SprintActive, sp.Status)
	_, err = e.sprints.ActivateSprint(ctx, sp.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	sp, err = e.sprints.CompleteSprint(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SprintCompleted, sp.Status)

	list, err := e.sprints.ListSprints(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.SprintCompleted, list[0].Status)
}

func TestSprintService_TransitionWaitsForProjectLock(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Trava")
	sp, err := e.sprints.CreateSprint(ctx, SprintInput{
		ProjectID: p.ID, Name: "S1", StartDate: day0, EndDate: day0.AddDate(0, 0, 13),
	})
	require.NoError(t, err)

	unlock := e.locks.Lock(p.ID)
	done := make(chan error, 1)
	go func() {
		_, err := e.sprints.ActivateSprint(ctx, sp.ID)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("activation ran while another writer held the project")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("activation never acquired the project lock")
	}

	got, err := e.sprints.GetSprint(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SprintActive, got.Status)
}

func TestSprintService_AssignTaskRejections(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Atribuir")
	phase := e.node(t, p.ID, nil, "Fase", 1)
	withSubtasks := e.task(t, p.ID, phase, "Com subtarefas", 2)
	plain := e.task(t, p.ID, phase, "Simples", 2)
	st, err := e.wbs.AddSubtask(ctx, SubtaskInput{NodeID: withSubtasks.ID, Name: "s"})
	require.NoError(t, err)
	other := e.project(t, "Outro")
	foreign := e.task(t, other.ID, nil, "Estrangeira", 1)
	sp := e.activeSprint(t, p.ID)

	tests := []struct {
		name string
		in   TaskAssignment
		want error
	}{
		{"summary node", TaskAssignment{SprintID: sp.ID, NodeID: phase.ID}, domain.ErrNotALeaf},
		{"node with subtasks", TaskAssignment{SprintID: sp.ID, NodeID: withSubtasks.ID}, domain.ErrNotALeaf},
		{"subtask of another node", TaskAssignment{SprintID: sp.ID, NodeID: plain.ID, SubtaskID: &st.ID}, domain.ErrInvalidInput},
		{"node of another project", TaskAssignment{SprintID: sp.ID, NodeID: foreign.ID}, domain.ErrInvalidHierarchy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.sprints.AssignTask(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = e.sprints.CompleteSprint(ctx, sp.ID)
	require.NoError(t, err)
	_, err = e.sprints.AssignTask(ctx, TaskAssignment{SprintID: sp.ID, NodeID: plain.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSprintService_ExecutionFeedsBackIntoWBS(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Execucao")
	phase := e.node(t, p.ID, nil, "Fase", 1)
	plain := e.task(t, p.ID, phase, "Simples", 2)
	split := e.task(t, p.ID, phase, "Dividida", 2)
	counted, err := e.wbs.AddSubtask(ctx, SubtaskInput{NodeID: split.ID, Name: "Contada", Quantity: 10})
	require.NoError(t, err)
	flagged, err := e.wbs.AddSubtask(ctx, SubtaskInput{NodeID: split.ID, Name: "Marcada"})
	require.NoError(t, err)
	sp := e.activeSprint(t, p.ID)

	scheduled := day0.AddDate(0, 0, 8)
	tPlain, err := e.sprints.AssignTask(ctx, TaskAssignment{SprintID: sp.ID, NodeID: plain.ID, AssignedTo: "joao", ScheduledFor: &scheduled})
	require.NoError(t, err)
	tCounted, err := e.sprints.AssignTask(ctx, TaskAssignment{SprintID: sp.ID, NodeID: split.ID, SubtaskID: &counted.ID})
	require.NoError(t, err)
	tFlagged, err := e.sprints.AssignTask(ctx, TaskAssignment{SprintID: sp.ID, NodeID: split.ID, SubtaskID: &flagged.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.SprintTaskPending, tPlain.Status)

	at1 := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	at2 := time.Date(2026, 3, 11, 17, 0, 0, 0, time.UTC)
	at3 := time.Date(2026, 3, 12, 16, 0, 0, 0, time.UTC)

	started, err := e.sprints.StartTask(ctx, tCounted.ID, at1)
	require.NoError(t, err)
	assert.Equal(t, domain.SprintTaskInProgress, started.Status)
	subs, err := e.wbs.ListSubtasks(ctx, split.ID)
	require.NoError(t, err)
	for _, s := range subs {
		if s.ID == counted.ID {
			assert.Equal(t, domain.SubtaskInProgress, s.Status)
		}
	}
	node, err := e.wbs.GetNode(ctx, split.ID)
	require.NoError(t, err)
	require.NotNil(t, node.ActualStart)
	assert.Equal(t, "2026-03-09", node.ActualStart.Format(domain.DateLayout))

	done, err := e.sprints.CompleteTask(ctx, tCounted.ID, at2, fptr(4))
	require.NoError(t, err)
	assert.Equal(t, domain.SprintTaskDone, done.Status)
	require.NotNil(t, done.ExecutedAt)
	assert.Equal(t, "2026-03-11", done.ExecutedAt.Format(domain.DateLayout))
	assert.Equal(t, 20.0, e.percentOf(t, split.ID), "(40 + 0) / 2")

	sprint, err := e.sprints.GetSprint(ctx, sp.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100.0/3, sprint.ProgressPercentage, 1e-9)

	_, err = e.sprints.CompleteTask(ctx, tFlagged.ID, at2, nil)
	require.NoError(t, err)
	assert.Equal(t, 70.0, e.percentOf(t, split.ID))

	_, err = e.sprints.CompleteTask(ctx, tPlain.ID, at3, nil)
	require.NoError(t, err)
	finished, err := e.wbs.GetNode(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, finished.PercentComplete)
	require.NotNil(t, finished.ActualStart)
	require.NotNil(t, finished.ActualEnd)
	assert.Equal(t, "2026-03-12", finished.ActualEnd.Format(domain.DateLayout))

	node, err = e.wbs.GetNode(ctx, split.ID)
	require.NoError(t, err)
	assert.Nil(t, node.ActualEnd, "split node is only at 70%")
	assert.Equal(t, "2026-03-09", node.ActualStart.Format(domain.DateLayout), "earliest start is kept")

	assert.Equal(t, 85.0, e.percentOf(t, phase.ID))
	sprint, err = e.sprints.GetSprint(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sprint.ProgressPercentage)

	_, err = e.sprints.CompleteTask(ctx, tPlain.ID, at3, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	tasks, err := e.sprints.ListTasks(ctx, sp.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestSprintService_QuantityOnLeafNode(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Quantidade")
	leaf, err := e.wbs.CreateNode(ctx, NodeInput{ProjectID: p.ID, Name: "Estacas", Quantity: 20})
	require.NoError(t, err)
	sp := e.activeSprint(t, p.ID)
	at := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	first, err := e.sprints.AssignTask(ctx, TaskAssignment{SprintID: sp.ID, NodeID: leaf.ID})
	require.NoError(t, err)
	_, err = e.sprints.CompleteTask(ctx, first.ID, at, fptr(5))
	require.NoError(t, err)
	assert.Equal(t, 25.0, e.percentOf(t, leaf.ID))

	second, err := e.sprints.AssignTask(ctx, TaskAssignment{SprintID: sp.ID, NodeID: leaf.ID})
	require.NoError(t, err)
	_, err = e.sprints.CompleteTask(ctx, second.ID, at.AddDate(0, 0, 1), fptr(15))
	require.NoError(t, err)

	got, err := e.wbs.GetNode(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.PercentComplete)
	assert.Equal(t, 20.0, got.QuantityDone)
	require.NotNil(t, got.ActualEnd)
	assert.Equal(t, "2026-03-05", got.ActualEnd.Format(domain.DateLayout))

	_, err = e.sprints.CompleteTask(ctx, second.ID, at, fptr(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSprintService_BlockAndResume(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Bloqueio")
	leaf := e.task(t, p.ID, nil, "Solda", 3)
	sp := e.activeSprint(t, p.ID)

	task, err := e.sprints.AssignTask(ctx, TaskAssignment{SprintID: sp.ID, NodeID: leaf.ID})
	require.NoError(t, err)

	blocked, err := e.sprints.BlockTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SprintTaskBlocked, blocked.Status)

	resumed, err := e.sprints.StartTask(ctx, task.ID, time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, domain.SprintTaskInProgress, resumed.Status)
	assert.Equal(t, 0.0, e.percentOf(t, leaf.ID), "starting does not move a plain leaf")
}

func TestSprintService_CompleteTaskOnDeletedNode(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	p := e.project(t, "Removido")
	leaf := e.task(t, p.ID, nil, "Temporaria", 1)
	keep := e.task(t, p.ID, nil, "Fica", 1)
	sp := e.activeSprint(t, p.ID)

	task, err := e.sprints.AssignTask(ctx, TaskAssignment{SprintID: sp.ID, NodeID: leaf.ID})
	require.NoError(t, err)
	_, err = e.wbs.DeleteNode(ctx, leaf.ID)
	require.NoError(t, err)

	done, err := e.sprints.CompleteTask(ctx, task.ID, fixedAt, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SprintTaskDone, done.Status)
	assert.Equal(t, 0.0, e.percentOf(t, keep.ID))
}
