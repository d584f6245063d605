package schedule

import (
	"sort"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
)

// Snapshot flattens the live nodes into baseline records ordered by
// SortOrder, then WbsCode.
func Snapshot(nodes []*domain.WbsNode) []domain.BaselineRecord {
	live := make([]*domain.WbsNode, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsDeleted() {
			live = append(live, n)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].SortOrder != live[j].SortOrder {
			return live[i].SortOrder < live[j].SortOrder
		}
		return live[i].WbsCode < live[j].WbsCode
	})
	out := make([]domain.BaselineRecord, len(live))
	for i, n := range live {
		out[i] = domain.BaselineRecord{
			ID:              n.ID,
			ParentID:        copyString(n.ParentID),
			Code:            n.WbsCode,
			Level:           n.Level,
			SortOrder:       n.SortOrder,
			Name:            n.Name,
			Weight:          n.Weight,
			Quantity:        n.Quantity,
			QuantityDone:    n.QuantityDone,
			PercentComplete: n.PercentComplete,
			PlannedStart:    copyTime(n.PlannedStart),
			PlannedEnd:      copyTime(n.PlannedEnd),
			ActualStart:     copyTime(n.ActualStart),
			ActualEnd:       copyTime(n.ActualEnd),
			PlannedCost:     n.PlannedCost,
			ActualCost:      n.ActualCost,
			IsMilestone:     n.IsMilestone,
		}
	}
	return out
}

// Variance status values.
const (
	VarianceUnchanged = "unchanged"
	VarianceChanged   = "changed"
	VarianceAdded     = "added"
	VarianceRemoved   = "removed"
)

// NodeVariance compares one node between a baseline and the live WBS.
// Slips are nil when either side has no planned date.
type NodeVariance struct {
	ID               string
	Code             string
	Name             string
	Status           string
	StartSlipDays    *int
	EndSlipDays      *int
	PlannedCostDelta float64
	ActualCost       float64
	ProgressDelta    float64
}

// Variance is the per-node diff of a baseline against the live WBS.
type Variance struct {
	Nodes   []NodeVariance
	Added   int
	Removed int
	Changed int
}

// Compare diffs baseline records against the live tree. Baseline nodes come
// first in snapshot order, followed by nodes added since the snapshot in
// tree order.
func Compare(records []domain.BaselineRecord, tree *Tree) Variance {
	var v Variance
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[r.ID] = true
		n, ok := tree.Node(r.ID)
		if !ok {
			v.Removed++
			v.Nodes = append(v.Nodes, NodeVariance{
				ID: r.ID, Code: r.Code, Name: r.Name, Status: VarianceRemoved,
				PlannedCostDelta: -r.PlannedCost,
			})
			continue
		}
		nv := NodeVariance{
			ID:               n.ID,
			Code:             n.WbsCode,
			Name:             n.Name,
			StartSlipDays:    slip(r.PlannedStart, n.PlannedStart),
			EndSlipDays:      slip(r.PlannedEnd, n.PlannedEnd),
			PlannedCostDelta: n.PlannedCost - r.PlannedCost,
			ActualCost:       n.ActualCost,
			ProgressDelta:    n.PercentComplete - r.PercentComplete,
			Status:           VarianceUnchanged,
		}
		if nonZero(nv.StartSlipDays) || nonZero(nv.EndSlipDays) || nv.PlannedCostDelta != 0 || nv.ProgressDelta != 0 {
			nv.Status = VarianceChanged
			v.Changed++
		}
		v.Nodes = append(v.Nodes, nv)
	}
	for _, id := range tree.PreOrder() {
		if seen[id] {
			continue
		}
		n, _ := tree.Node(id)
		v.Added++
		v.Nodes = append(v.Nodes, NodeVariance{
			ID: n.ID, Code: n.WbsCode, Name: n.Name, Status: VarianceAdded,
			PlannedCostDelta: n.PlannedCost, ActualCost: n.ActualCost,
			ProgressDelta: n.PercentComplete,
		})
	}
	return v
}

func slip(base, live *time.Time) *int {
	if base == nil || live == nil {
		return nil
	}
	d := domain.DaysBetween(*base, *live)
	return &d
}

func nonZero(p *int) bool { return p != nil && *p != 0 }

// CurvePoint is one sample of a planned S-curve.
type CurvePoint struct {
	Date    time.Time
	Percent float64
}

// PlannedCurve samples the cumulative planned percent of a snapshot every
// step days. Each leaf contributes its global weight (the product of the
// normalized weights on its path to the root) spread linearly over its
// planned window. The last sample always falls on the latest planned end.
func PlannedCurve(records []domain.BaselineRecord, step int) []CurvePoint {
	if step <= 0 {
		step = 7
	}
	weights := leafWeights(records)

	type window struct {
		start, end time.Time
		weight     float64
	}
	var windows []window
	var first, last time.Time
	for _, r := range records {
		w, isLeaf := weights[r.ID]
		if !isLeaf || r.PlannedStart == nil {
			continue
		}
		start := domain.Day(*r.PlannedStart)
		end := start
		if r.PlannedEnd != nil && r.PlannedEnd.After(start) {
			end = domain.Day(*r.PlannedEnd)
		}
		windows = append(windows, window{start, end, w})
		if first.IsZero() || start.Before(first) {
			first = start
		}
		if end.After(last) {
			last = end
		}
	}
	if len(windows) == 0 {
		return nil
	}

	at := func(t time.Time) float64 {
		var pct float64
		for _, w := range windows {
			switch {
			case !t.Before(w.end):
				pct += w.weight * 100
			case t.After(w.start):
				pct += w.weight * 100 * float64(domain.DaysBetween(w.start, t)) / float64(domain.DaysBetween(w.start, w.end))
			}
		}
		return pct
	}

	var out []CurvePoint
	for t := first; t.Before(last); t = domain.AddDays(t, step) {
		out = append(out, CurvePoint{Date: t, Percent: at(t)})
	}
	return append(out, CurvePoint{Date: last, Percent: at(last)})
}

// leafWeights maps each leaf record to its share of the project.
func leafWeights(records []domain.BaselineRecord) map[string]float64 {
	ids := make(map[string]bool, len(records))
	for _, r := range records {
		ids[r.ID] = true
	}
	children := make(map[string][]domain.BaselineRecord)
	for _, r := range records {
		key := ""
		if r.ParentID != nil && ids[*r.ParentID] {
			key = *r.ParentID
		}
		children[key] = append(children[key], r)
	}

	out := make(map[string]float64)
	var walk func(key string, share float64)
	walk = func(key string, share float64) {
		group := children[key]
		var total float64
		for _, r := range group {
			total += r.Weight
		}
		for _, r := range group {
			w := 1 / float64(len(group))
			if total > 0 {
				w = r.Weight / total
			}
			if len(children[r.ID]) == 0 {
				out[r.ID] = share * w
				continue
			}
			walk(r.ID, share*w)
		}
	}
	walk("", 1)
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
