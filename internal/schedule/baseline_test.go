package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_OrderAndContent(t *testing.T) {
	gone := time.Now()
	nodes := []*domain.WbsNode{
		node("b", code("2"), order(2), startsOn(5), duration(3), plannedCost(1000)),
		node("a1", under("a"), code("1.1"), order(1), level(1)),
		node("a", code("1"), order(1), weight(10), percent(25)),
		node("x", code("3"), order(3), func(n *domain.WbsNode) { n.DeletedAt = &gone }),
	}
	nodes[0].NormalizeSchedule()

	records := Snapshot(nodes)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"1", "1.1", "2"}, []string{records[0].Code, records[1].Code, records[2].Code})
	assert.Equal(t, 10.0, records[0].Weight)
	assert.Equal(t, 25.0, records[0].PercentComplete)
	require.NotNil(t, records[1].ParentID)
	assert.Equal(t, "a", *records[1].ParentID)
	assert.Equal(t, day(8), *records[2].PlannedEnd)
	assert.Equal(t, 1000.0, records[2].PlannedCost)

	*nodes[0].PlannedStart = day(99)
	assert.Equal(t, day(5), *records[2].PlannedStart, "records do not alias live nodes")
}

func TestSnapshot_FlatSortIgnoresHierarchy(t *testing.T) {
	// Sort orders are per-sibling, so a child can land after an unrelated root.
	nodes := []*domain.WbsNode{
		node("a3", under("a"), code("1.3"), order(3), level(2)),
		node("b", code("2"), order(2)),
		node("a", code("1"), order(1)),
	}

	records := Snapshot(nodes)
	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.Code
	}
	assert.Equal(t, []string{"1", "2", "1.3"}, got)
}

func TestSnapshot_IsDeterministic(t *testing.T) {
	nodes := []*domain.WbsNode{
		node("a", code("1"), order(1), startsOn(0), duration(4)),
		node("b", code("2"), order(2)),
	}
	first, err := json.Marshal(Snapshot(nodes))
	require.NoError(t, err)
	second, err := json.Marshal(Snapshot(nodes))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
	assert.Contains(t, string(first), `"plannedStart":"2025-03-03T00:00:00Z"`)
	assert.Contains(t, string(first), `"parentId":null`)
}

func TestCompare(t *testing.T) {
	base := []*domain.WbsNode{
		node("a", code("1"), order(1), startsOn(0), duration(10), plannedCost(500)),
		node("b", code("2"), order(2), startsOn(10), duration(5)),
		node("gone", code("3"), order(3), plannedCost(200)),
	}
	for _, n := range base {
		n.NormalizeSchedule()
	}
	records := Snapshot(base)

	live := []*domain.WbsNode{
		node("a", code("1"), order(1), startsOn(0), duration(10), plannedCost(500)),
		node("b", code("2"), order(2), startsOn(13), duration(5), percent(40)),
		node("new", code("4"), order(4)),
	}
	for _, n := range live {
		n.NormalizeSchedule()
	}

	v := Compare(records, NewTree(live, nil))
	assert.Equal(t, 1, v.Added)
	assert.Equal(t, 1, v.Removed)
	assert.Equal(t, 1, v.Changed)
	require.Len(t, v.Nodes, 4)

	assert.Equal(t, VarianceUnchanged, v.Nodes[0].Status)
	assert.Equal(t, VarianceChanged, v.Nodes[1].Status)
	assert.Equal(t, 3, *v.Nodes[1].StartSlipDays)
	assert.Equal(t, 3, *v.Nodes[1].EndSlipDays)
	assert.Equal(t, 40.0, v.Nodes[1].ProgressDelta)
	assert.Equal(t, VarianceRemoved, v.Nodes[2].Status)
	assert.Equal(t, -200.0, v.Nodes[2].PlannedCostDelta)
	assert.Equal(t, VarianceAdded, v.Nodes[3].Status)
	assert.Equal(t, "new", v.Nodes[3].ID)
}

func TestPlannedCurve(t *testing.T) {
	nodes := []*domain.WbsNode{
		node("p1", code("1"), order(1), weight(1)),
		node("t1", under("p1"), code("1.1"), order(1), weight(1), startsOn(0), duration(10)),
		node("t2", under("p1"), code("1.2"), order(2), weight(3), startsOn(10), duration(10)),
		node("p2", code("2"), order(2), weight(1), startsOn(20), milestone()),
	}
	for _, n := range nodes {
		n.NormalizeSchedule()
	}

	curve := PlannedCurve(Snapshot(nodes), 5)
	require.Len(t, curve, 5)

	assert.Equal(t, day(0), curve[0].Date)
	assert.InDelta(t, 0, curve[0].Percent, 1e-9)
	assert.InDelta(t, 6.25, curve[1].Percent, 1e-9)
	assert.InDelta(t, 12.5, curve[2].Percent, 1e-9)
	assert.InDelta(t, 31.25, curve[3].Percent, 1e-9)
	assert.Equal(t, day(20), curve[4].Date)
	assert.InDelta(t, 100, curve[4].Percent, 1e-9)

	for i := 1; i < len(curve); i++ {
		assert.GreaterOrEqual(t, curve[i].Percent, curve[i-1].Percent)
	}
}

func TestPlannedCurve_NoDates(t *testing.T) {
	assert.Nil(t, PlannedCurve(Snapshot([]*domain.WbsNode{node("a", code("1"), order(1))}), 7))
}
