package schedule

import (
	"math"

	"github.com/alexanderramin/cronograma/internal/domain"
)

// Progress is the outcome of one roll-up pass. Values are unrounded.
type Progress struct {
	Nodes   map[string]float64
	Overall float64
}

// Aggregate computes percent complete for every live node in a single
// post-order pass over the tree, then the weighted overall value across the
// root phases. A node with nothing to derive from reports its stored percent,
// which defaults to 0.
func Aggregate(tree *Tree) Progress {
	pct := make(map[string]float64, tree.Len())
	for _, id := range tree.PostOrder() {
		pct[id] = nodePercent(tree, id, pct)
	}
	return Progress{Nodes: pct, Overall: childAverage(tree, tree.Roots(), pct)}
}

func nodePercent(tree *Tree, id string, pct map[string]float64) float64 {
	n, _ := tree.Node(id)
	switch {
	case n.ManualOverride:
		return domain.ClampPercent(n.PercentComplete)
	case tree.HasChildren(id):
		return childAverage(tree, tree.Children(id), pct)
	case len(tree.Subtasks(id)) > 0:
		subs := tree.Subtasks(id)
		weights := make([]float64, len(subs))
		values := make([]float64, len(subs))
		for i, s := range subs {
			weights[i], values[i] = s.Weight, s.Percent()
		}
		return WeightedAverage(weights, values)
	default:
		return domain.ClampPercent(n.PercentComplete)
	}
}

func childAverage(tree *Tree, ids []string, pct map[string]float64) float64 {
	weights := make([]float64, len(ids))
	values := make([]float64, len(ids))
	for i, id := range ids {
		n, _ := tree.Node(id)
		weights[i], values[i] = n.Weight, pct[id]
	}
	return WeightedAverage(weights, values)
}

// WeightedAverage returns Σ(w/Σw × v). When every weight is zero the values
// are averaged with equal weight. An empty input yields 0.
func WeightedAverage(weights, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	var sum float64
	if total <= 0 {
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
	for i, v := range values {
		sum += weights[i] / total * v
	}
	return sum
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		decimals = 0
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// Updates returns copies of the nodes whose stored percent differs from the
// aggregated value rounded to decimals.
func (p Progress) Updates(tree *Tree, decimals int) []*domain.WbsNode {
	var out []*domain.WbsNode
	for _, id := range tree.PreOrder() {
		n, _ := tree.Node(id)
		v := Round(p.Nodes[id], decimals)
		if n.PercentComplete == v {
			continue
		}
		cp := *n
		cp.PercentComplete = v
		out = append(out, &cp)
	}
	return out
}
