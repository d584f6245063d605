package schedule

import (
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
)

var day0 = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return domain.AddDays(day0, n) }

func dayPtr(n int) *time.Time {
	d := day(n)
	return &d
}

type nodeOpt func(*domain.WbsNode)

func under(parent string) nodeOpt {
	return func(n *domain.WbsNode) {
		p := parent
		n.ParentID = &p
	}
}

func weight(w float64) nodeOpt      { return func(n *domain.WbsNode) { n.Weight = w } }
func percent(p float64) nodeOpt     { return func(n *domain.WbsNode) { n.PercentComplete = p } }
func duration(d int) nodeOpt        { return func(n *domain.WbsNode) { n.PlannedDurationDays = d } }
func startsOn(d int) nodeOpt        { return func(n *domain.WbsNode) { n.PlannedStart = dayPtr(d) } }
func code(c string) nodeOpt         { return func(n *domain.WbsNode) { n.WbsCode = c } }
func order(o int) nodeOpt           { return func(n *domain.WbsNode) { n.SortOrder = o } }
func level(l int) nodeOpt           { return func(n *domain.WbsNode) { n.Level = l } }
func actualStart(d int) nodeOpt     { return func(n *domain.WbsNode) { n.ActualStart = dayPtr(d) } }
func plannedCost(c float64) nodeOpt { return func(n *domain.WbsNode) { n.PlannedCost = c } }

func locked() nodeOpt    { return func(n *domain.WbsNode) { n.DateLocked = true } }
func milestone() nodeOpt { return func(n *domain.WbsNode) { n.IsMilestone = true } }
func manualDates() nodeOpt {
	return func(n *domain.WbsNode) { n.ManualDates = true }
}

func node(id string, opts ...nodeOpt) *domain.WbsNode {
	n := &domain.WbsNode{ID: id, ProjectID: "p1", Name: id, Weight: 1}
	for _, o := range opts {
		o(n)
	}
	return n
}

func dep(pred, succ string, typ domain.DependencyType, lag int) *domain.Dependency {
	return &domain.Dependency{ProjectID: "p1", PredecessorID: pred, SuccessorID: succ, Type: typ, LagDays: lag}
}

func ids(nodes ...*domain.WbsNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
