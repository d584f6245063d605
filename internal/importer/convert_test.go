package importer

import (
	"testing"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var convertNow = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

func TestConvert_MinimalProject(t *testing.T) {
	out, err := Convert(validMinimalSchema(), convertNow)
	require.NoError(t, err)

	assert.NotEmpty(t, out.Project.ID)
	assert.Equal(t, "OBRA01", out.Project.ShortID)
	assert.Equal(t, "Test Project", out.Project.Name)
	assert.Equal(t, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), out.Project.StartDate)
	assert.Equal(t, convertNow, out.Project.CreatedAt)

	require.Len(t, out.Nodes, 3)
	phase, t1, t2 := out.Nodes[0], out.Nodes[1], out.Nodes[2]
	assert.Nil(t, phase.ParentID)
	require.NotNil(t, t1.ParentID)
	assert.Equal(t, phase.ID, *t1.ParentID)
	assert.Equal(t, phase.ID, *t2.ParentID)
	for _, n := range out.Nodes {
		assert.Equal(t, out.Project.ID, n.ProjectID)
		assert.Equal(t, 1.0, n.Weight, "weight defaults to 1")
		assert.Empty(t, n.WbsCode, "codes are derived on insert")
	}
	assert.Equal(t, phase.ID, out.Refs["p1"])

	require.Len(t, out.Dependencies, 1)
	d := out.Dependencies[0]
	assert.Equal(t, t1.ID, d.PredecessorID)
	assert.Equal(t, t2.ID, d.SuccessorID)
	assert.Equal(t, domain.FinishToStart, d.Type)
	assert.Equal(t, out.Project.ID, d.ProjectID)
}

func TestConvert_ScheduleAndFlags(t *testing.T) {
	schema := validMinimalSchema()
	schema.Nodes[1].PlannedStart = ptrStr("2026-02-10")
	schema.Nodes[1].DateLocked = true
	schema.Nodes[2].Milestone = true
	schema.Nodes[2].PlannedStart = ptrStr("2026-02-20")
	schema.Dependencies[0].Type = "ss"
	schema.Dependencies[0].LagDays = -2

	out, err := Convert(schema, convertNow)
	require.NoError(t, err)

	t1, t2 := out.Nodes[1], out.Nodes[2]
	require.NotNil(t, t1.PlannedEnd)
	assert.Equal(t, "2026-02-15", t1.PlannedEnd.Format(domain.DateLayout))
	assert.True(t, t1.DateLocked)

	assert.True(t, t2.IsMilestone)
	assert.Equal(t, 0, t2.PlannedDurationDays)
	assert.Equal(t, *t2.PlannedStart, *t2.PlannedEnd)

	assert.Equal(t, domain.StartToStart, out.Dependencies[0].Type)
	assert.Equal(t, -2, out.Dependencies[0].LagDays)
}

func TestConvert_SubtasksAndQuantities(t *testing.T) {
	schema, err := LoadImportSchema("testdata/montagem.yaml")
	require.NoError(t, err)

	out, err := Convert(schema, convertNow)
	require.NoError(t, err)

	estr := nodeByRef(t, out, "mont-estr")
	assert.Equal(t, 50.0, estr.PercentComplete, "percent derived from quantities")
	assert.Equal(t, 30.0, estr.Weight)

	equip := nodeByRef(t, out, "mont-equip")
	require.Len(t, out.Subtasks, 2)
	for _, st := range out.Subtasks {
		assert.Equal(t, equip.ID, st.BacklogID)
		assert.Equal(t, domain.SubtaskPending, st.Status)
		assert.Equal(t, 2.0, st.Weight)
	}

	insp := nodeByRef(t, out, "mont-insp")
	assert.True(t, insp.IsInspection)
	assert.True(t, insp.IsMilestone)

	assert.Len(t, out.Dependencies, 7)
}

func TestConvert_UnknownRef(t *testing.T) {
	schema := validMinimalSchema()
	schema.Dependencies[0].SuccessorRef = "nope"

	_, err := Convert(schema, convertNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `successor_ref "nope" not found`)
}

func nodeByRef(t *testing.T, out *Converted, ref string) *domain.WbsNode {
	t.Helper()
	id, ok := out.Refs[ref]
	require.True(t, ok, "ref %q", ref)
	for _, n := range out.Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %q not converted", ref)
	return nil
}
