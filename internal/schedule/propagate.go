package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
)

// Conflict constraint names.
const (
	ConstraintLockedStart = "locked_start"
	ConstraintActualStart = "actual_start"
	ConstraintActualEnd   = "actual_end"
)

// Conflict reports a computed date that lands after a date the engine may not
// move: a locked planned start or a recorded actual.
type Conflict struct {
	NodeID     string
	Constraint string
	Computed   time.Time
	Fixed      time.Time
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %s: computed %s after fixed %s", c.NodeID, c.Constraint,
		c.Computed.Format(domain.DateLayout), c.Fixed.Format(domain.DateLayout))
}

// Dates is the computed plan of one node.
type Dates struct {
	Start    time.Time
	End      time.Time
	Duration int
}

// Result holds the outcome of a forward pass. Dates are the computed values
// before any reconciliation with locked or actual dates.
type Result struct {
	Dates     map[string]Dates
	Order     []string
	Conflicts []Conflict
}

// Err returns a ScheduleConflict error naming every conflicting node, or nil.
func (r *Result) Err() error {
	if len(r.Conflicts) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, c := range r.Conflicts {
		if !seen[c.NodeID] {
			seen[c.NodeID] = true
			ids = append(ids, c.NodeID)
		}
	}
	return domain.NewValidationError(domain.ErrScheduleConflict,
		fmt.Sprintf("%d conflict(s)", len(r.Conflicts)), ids...)
}

// Conflicted reports whether id has a conflict on the given constraint.
func (r *Result) Conflicted(id, constraint string) bool {
	for _, c := range r.Conflicts {
		if c.NodeID == id && c.Constraint == constraint {
			return true
		}
	}
	return false
}

// Updates returns copies of the nodes whose planned dates differ from the
// computed ones. A node whose lock was overridden by a constraint keeps its
// stored dates and is left out.
func (r *Result) Updates(tree *Tree) []*domain.WbsNode {
	var out []*domain.WbsNode
	for _, id := range r.Order {
		n, ok := tree.Node(id)
		if !ok || r.Conflicted(id, ConstraintLockedStart) {
			continue
		}
		d := r.Dates[id]
		if sameDay(n.PlannedStart, d.Start) && sameDay(n.PlannedEnd, d.End) && n.PlannedDurationDays == d.Duration {
			continue
		}
		cp := *n
		start, end := d.Start, d.End
		cp.PlannedStart, cp.PlannedEnd, cp.PlannedDurationDays = &start, &end, d.Duration
		out = append(out, &cp)
	}
	return out
}

func sameDay(stored *time.Time, d time.Time) bool {
	return stored != nil && domain.Day(*stored).Equal(d)
}

// Propagate runs the forward pass over the live tree and the dependency
// graph. Every node contributes a start vertex and a finish vertex to an
// evaluation DAG:
//
//	start(n)  -> finish(n)
//	source(p) -> start(s)          for each dependency p->s
//	start(P)  -> start(c)          constraints on a summary bind its content
//	finish(c) -> finish(P)         derived parents roll up their children
//
// Dependencies whose endpoints are not live are ignored. A cycle in the
// evaluation DAG is reported as ErrCycleDetected.
func Propagate(tree *Tree, graph *Graph, projectStart time.Time) (*Result, error) {
	p := &propagation{
		tree:  tree,
		graph: graph,
		base:  domain.Day(projectStart),
		start: make(map[string]time.Time, tree.Len()),
		end:   make(map[string]time.Time, tree.Len()),
		floor: make(map[string]*time.Time, tree.Len()),
		res:   &Result{Dates: make(map[string]Dates, tree.Len())},
	}

	ids := tree.PreOrder()
	vertices := make([]string, 0, 2*len(ids))
	succ := make(map[string][]string, 2*len(ids))
	for _, id := range ids {
		s, f := startVertex(id), finishVertex(id)
		vertices = append(vertices, s, f)
		succ[s] = append(succ[s], f)
		for _, c := range tree.Children(id) {
			succ[s] = append(succ[s], startVertex(c))
			succ[finishVertex(c)] = append(succ[finishVertex(c)], f)
		}
		for _, d := range p.incoming(id) {
			src := p.sourceVertex(d)
			succ[src] = append(succ[src], s)
		}
	}

	order := NewOrder(vertices, succ)
	for {
		v, ok := order.Next()
		if !ok {
			break
		}
		if id, isStart := strings.CutPrefix(v, "s:"); isStart {
			p.evalStart(id)
		} else {
			p.evalFinish(strings.TrimPrefix(v, "f:"))
		}
	}
	if err := order.Err(); err != nil {
		return nil, domain.NewValidationError(domain.ErrCycleDetected,
			"schedule constraints are circular", nodeIDs(domain.OffendingIDs(err))...)
	}
	return p.res, nil
}

type propagation struct {
	tree  *Tree
	graph *Graph
	base  time.Time

	start map[string]time.Time
	end   map[string]time.Time
	// floor is the earliest start a node passes down to its children.
	floor map[string]*time.Time
	res   *Result
}

func startVertex(id string) string  { return "s:" + id }
func finishVertex(id string) string { return "f:" + id }

func nodeIDs(vertices []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range vertices {
		id := v[2:]
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// derived reports whether a node's dates come from its children.
func (p *propagation) derived(id string) bool {
	n, _ := p.tree.Node(id)
	return !n.ManualDates && p.tree.HasChildren(id)
}

func (p *propagation) locked(n *domain.WbsNode) bool {
	return n.DateLocked && n.PlannedStart != nil && !p.derived(n.ID)
}

func (p *propagation) incoming(id string) []*domain.Dependency {
	var out []*domain.Dependency
	for _, d := range p.graph.Incoming(id) {
		if _, ok := p.tree.Node(d.PredecessorID); ok {
			out = append(out, d)
		}
	}
	return out
}

// sourceVertex is the vertex at which a predecessor's constrained date is
// final. Derived parents only know either date once all children finished.
func (p *propagation) sourceVertex(d *domain.Dependency) string {
	if p.derived(d.PredecessorID) {
		return finishVertex(d.PredecessorID)
	}
	switch d.Type {
	case domain.StartToStart, domain.StartToFinish:
		return startVertex(d.PredecessorID)
	default:
		return finishVertex(d.PredecessorID)
	}
}

// requirement is the earliest start d imposes on its successor n.
func (p *propagation) requirement(d *domain.Dependency, n *domain.WbsNode) time.Time {
	pred := d.PredecessorID
	dur := n.EffectiveDuration()
	switch d.Type {
	case domain.StartToStart:
		return domain.AddDays(p.start[pred], d.LagDays)
	case domain.FinishToFinish:
		return domain.AddDays(p.end[pred], d.LagDays-dur)
	case domain.StartToFinish:
		return domain.AddDays(p.start[pred], d.LagDays-dur)
	default:
		return domain.AddDays(p.end[pred], d.LagDays)
	}
}

func (p *propagation) evalStart(id string) {
	n, _ := p.tree.Node(id)
	inherited := p.floor[n.ParentKey()]

	var own *time.Time
	for _, d := range p.incoming(id) {
		own = later(own, p.requirement(d, n))
	}
	p.floor[id] = own
	if inherited != nil {
		p.floor[id] = later(own, *inherited)
	}
	if p.derived(id) {
		return
	}

	var start time.Time
	switch {
	case own != nil:
		start = *own
	case n.PlannedStart != nil:
		start = domain.Day(*n.PlannedStart)
	default:
		start = p.base
	}
	if inherited != nil && inherited.After(start) {
		start = *inherited
	}

	if p.locked(n) {
		fixed := domain.Day(*n.PlannedStart)
		if start.After(fixed) {
			p.conflict(id, ConstraintLockedStart, start, fixed)
		} else {
			start = fixed
		}
	}
	p.start[id] = start
}

func (p *propagation) evalFinish(id string) {
	n, _ := p.tree.Node(id)
	if p.derived(id) {
		first := true
		for _, c := range p.tree.Children(id) {
			if first || p.start[c].Before(p.start[id]) {
				p.start[id] = p.start[c]
			}
			if first || p.end[c].After(p.end[id]) {
				p.end[id] = p.end[c]
			}
			first = false
		}
	} else {
		p.end[id] = domain.AddDays(p.start[id], n.EffectiveDuration())
	}

	start, end := p.start[id], p.end[id]
	if n.ActualStart != nil && start.After(domain.Day(*n.ActualStart)) {
		p.conflict(id, ConstraintActualStart, start, domain.Day(*n.ActualStart))
	}
	if n.ActualEnd != nil && end.After(domain.Day(*n.ActualEnd)) {
		p.conflict(id, ConstraintActualEnd, end, domain.Day(*n.ActualEnd))
	}
	p.res.Dates[id] = Dates{Start: start, End: end, Duration: domain.DaysBetween(start, end)}
	p.res.Order = append(p.res.Order, id)
}

func (p *propagation) conflict(id, constraint string, computed, fixed time.Time) {
	p.res.Conflicts = append(p.res.Conflicts, Conflict{
		NodeID: id, Constraint: constraint, Computed: computed, Fixed: fixed,
	})
}

func later(cur *time.Time, t time.Time) *time.Time {
	if cur == nil || t.After(*cur) {
		return &t
	}
	return cur
}
