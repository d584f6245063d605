package schedule

import (
	"sort"

	"github.com/alexanderramin/cronograma/internal/domain"
)

// Graph is the dependency DAG of one project, keyed by node id. Edges are
// typed and carry a signed lag. Vertices only exist as edge endpoints or
// when added with AddVertex.
type Graph struct {
	vertices map[string]bool
	out      map[string][]*domain.Dependency
	in       map[string][]*domain.Dependency
}

// NewGraph builds a graph from stored dependencies without any checks.
func NewGraph(deps []*domain.Dependency) *Graph {
	g := &Graph{
		vertices: make(map[string]bool),
		out:      make(map[string][]*domain.Dependency),
		in:       make(map[string][]*domain.Dependency),
	}
	for _, d := range deps {
		g.Insert(d)
	}
	return g
}

// AddVertex registers an isolated vertex.
func (g *Graph) AddVertex(id string) { g.vertices[id] = true }

// Has reports whether an edge pred->succ exists.
func (g *Graph) Has(pred, succ string) bool {
	for _, d := range g.out[pred] {
		if d.SuccessorID == succ {
			return true
		}
	}
	return false
}

// Insert adds an edge with no validation. Bulk loads use it and rely on
// Order to catch cycles afterwards.
func (g *Graph) Insert(d *domain.Dependency) {
	g.vertices[d.PredecessorID] = true
	g.vertices[d.SuccessorID] = true
	g.out[d.PredecessorID] = append(g.out[d.PredecessorID], d)
	g.in[d.SuccessorID] = append(g.in[d.SuccessorID], d)
}

// AddEdge inserts d after rejecting self-loops, duplicates and edges that
// would close a cycle. On failure the graph is unchanged.
func (g *Graph) AddEdge(d *domain.Dependency) error {
	if d.PredecessorID == d.SuccessorID {
		return domain.NewValidationError(domain.ErrSelfDependency, "a node cannot depend on itself", d.PredecessorID)
	}
	if !d.Type.Valid() {
		return domain.NewValidationError(domain.ErrInvalidInput, "unknown dependency type "+string(d.Type),
			d.PredecessorID, d.SuccessorID)
	}
	if g.Has(d.PredecessorID, d.SuccessorID) {
		return domain.NewValidationError(domain.ErrDuplicate, "dependency already exists", d.PredecessorID, d.SuccessorID)
	}
	if path := g.Path(d.SuccessorID, d.PredecessorID); path != nil {
		return domain.NewValidationError(domain.ErrCycleDetected, "dependency would close a cycle", path...)
	}
	g.Insert(d)
	return nil
}

// Remove deletes the edge pred->succ and reports whether it existed.
func (g *Graph) Remove(pred, succ string) bool {
	found := false
	g.out[pred] = filterEdges(g.out[pred], func(d *domain.Dependency) bool {
		if d.SuccessorID == succ {
			found = true
			return false
		}
		return true
	})
	g.in[succ] = filterEdges(g.in[succ], func(d *domain.Dependency) bool {
		return d.PredecessorID != pred
	})
	return found
}

// Incoming returns the edges whose successor is id.
func (g *Graph) Incoming(id string) []*domain.Dependency { return g.in[id] }

// Outgoing returns the edges whose predecessor is id.
func (g *Graph) Outgoing(id string) []*domain.Dependency { return g.out[id] }

// Edges returns every edge ordered by predecessor then successor.
func (g *Graph) Edges() []*domain.Dependency {
	var out []*domain.Dependency
	for _, edges := range g.out {
		out = append(out, edges...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PredecessorID != out[j].PredecessorID {
			return out[i].PredecessorID < out[j].PredecessorID
		}
		return out[i].SuccessorID < out[j].SuccessorID
	})
	return out
}

// Path returns a path from -> ... -> to along edge direction, or nil when
// to is not reachable. Iterative DFS so deep chains do not grow the stack.
func (g *Graph) Path(from, to string) []string {
	if from == to {
		return []string{from}
	}
	parent := map[string]string{from: ""}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range g.out[cur] {
			next := d.SuccessorID
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == to {
				var path []string
				for v := to; v != ""; v = parent[v] {
					path = append([]string{v}, path...)
				}
				return path
			}
			stack = append(stack, next)
		}
	}
	return nil
}

// Reachable reports whether to can be reached from from.
func (g *Graph) Reachable(from, to string) bool {
	return g.Path(from, to) != nil
}

// Order starts a topological traversal of the current graph.
func (g *Graph) Order() *Order {
	ids := make([]string, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	succ := make(map[string][]string, len(ids))
	for _, id := range ids {
		for _, d := range g.out[id] {
			succ[id] = append(succ[id], d.SuccessorID)
		}
	}
	return NewOrder(ids, succ)
}

func filterEdges(edges []*domain.Dependency, keep func(*domain.Dependency) bool) []*domain.Dependency {
	out := edges[:0:0]
	for _, d := range edges {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Order is a lazy topological iterator over a fixed vertex set (Kahn's
// algorithm). It is finite and cannot be restarted. When the queue drains
// while vertices remain, Next returns false and Err reports
// ErrCycleDetected with the vertices still carrying in-degree.
type Order struct {
	succ     map[string][]string
	indegree map[string]int
	queue    []string
	emitted  int
	total    int
	err      error
}

// NewOrder builds an Order. ids fixes the tie-break order among vertices
// that become ready together; succ lists the successors of each vertex.
// Successors not in ids are ignored.
func NewOrder(ids []string, succ map[string][]string) *Order {
	o := &Order{
		succ:     make(map[string][]string, len(ids)),
		indegree: make(map[string]int, len(ids)),
		total:    len(ids),
	}
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
		o.indegree[id] = 0
	}
	for _, id := range ids {
		for _, s := range succ[id] {
			if !known[s] {
				continue
			}
			o.succ[id] = append(o.succ[id], s)
			o.indegree[s]++
		}
	}
	for _, id := range ids {
		if o.indegree[id] == 0 {
			o.queue = append(o.queue, id)
		}
	}
	return o
}

// Next returns the next vertex in topological order.
func (o *Order) Next() (string, bool) {
	if len(o.queue) == 0 {
		if o.err == nil && o.emitted < o.total {
			o.err = domain.NewValidationError(domain.ErrCycleDetected, "dependency graph contains a cycle", o.remaining()...)
		}
		return "", false
	}
	id := o.queue[0]
	o.queue = o.queue[1:]
	o.emitted++
	for _, s := range o.succ[id] {
		o.indegree[s]--
		if o.indegree[s] == 0 {
			o.queue = append(o.queue, s)
		}
	}
	return id, true
}

// Err is non-nil once the traversal stopped on a cycle.
func (o *Order) Err() error { return o.err }

// All drains the iterator.
func (o *Order) All() ([]string, error) {
	var out []string
	for {
		id, ok := o.Next()
		if !ok {
			break
		}
		out = append(out, id)
	}
	return out, o.err
}

func (o *Order) remaining() []string {
	var ids []string
	for id, deg := range o.indegree {
		if deg > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
