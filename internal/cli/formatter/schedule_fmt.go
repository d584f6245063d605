package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/schedule"
	"github.com/alexanderramin/cronograma/internal/service"
)

// FormatSchedule renders the computed plan of every node in tree order,
// marking the nodes whose stored dates differ, then lists any conflicts.
func FormatSchedule(report *service.ScheduleReport, tree *schedule.Tree) string {
	changed := make(map[string]bool, len(report.Changed))
	for _, n := range report.Changed {
		changed[n.ID] = true
	}

	rows := make([][]string, 0, tree.Len())
	for _, id := range tree.PreOrder() {
		n, _ := tree.Node(id)
		d, ok := report.Result.Dates[id]
		if !ok {
			continue
		}
		mark := ""
		if changed[id] {
			mark = StyleYellow.Render("*")
		}
		rows = append(rows, []string{
			n.WbsCode,
			n.Name,
			d.Start.Format(domain.DateLayout),
			d.End.Format(domain.DateLayout),
			strconv.Itoa(d.Duration),
			mark,
		})
	}

	var b strings.Builder
	b.WriteString(RenderTable([]string{"CODE", "NAME", "START", "END", "DAYS", ""}, rows, 4))

	if len(report.Result.Conflicts) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("Conflicts"))
		b.WriteString("\n")
		for _, c := range report.Result.Conflicts {
			label := c.NodeID
			if n, ok := tree.Node(c.NodeID); ok {
				label = n.WbsCode + " " + n.Name
			}
			fmt.Fprintf(&b, "%s %s: computed %s, fixed %s\n",
				StyleRed.Render("!"), label, c.Computed.Format(domain.DateLayout), c.Fixed.Format(domain.DateLayout))
			b.WriteString("  " + Dim(constraintLabel(c.Constraint)) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case len(report.Changed) == 0:
		b.WriteString(Dim("Stored dates are up to date.") + "\n")
	case report.Applied:
		fmt.Fprintf(&b, "%d node(s) rescheduled.\n", len(report.Changed))
	default:
		fmt.Fprintf(&b, "%d node(s) would change. %s\n", len(report.Changed), Dim("Run with --apply to write them."))
	}
	return b.String()
}

func constraintLabel(c string) string {
	switch c {
	case schedule.ConstraintLockedStart:
		return "locked start kept"
	case schedule.ConstraintActualStart:
		return "recorded actual start kept"
	case schedule.ConstraintActualEnd:
		return "recorded actual end kept"
	default:
		return c
	}
}

// FormatDependencies renders the dependency list with node codes.
func FormatDependencies(deps []*domain.Dependency, tree *schedule.Tree) string {
	if len(deps) == 0 {
		return Dim("No dependencies.") + "\n"
	}
	rows := make([][]string, 0, len(deps))
	for _, d := range deps {
		rows = append(rows, []string{
			nodeLabel(tree, d.PredecessorID),
			nodeLabel(tree, d.SuccessorID),
			string(d.Type),
			signed(d.LagDays),
		})
	}
	return RenderTable([]string{"PREDECESSOR", "SUCCESSOR", "TYPE", "LAG"}, rows, 3)
}

// FormatOrder renders a topological order as a numbered list.
func FormatOrder(ids []string, tree *schedule.Tree) string {
	var b strings.Builder
	width := len(strconv.Itoa(len(ids)))
	for i, id := range ids {
		fmt.Fprintf(&b, "%*d. %s\n", width, i+1, nodeLabel(tree, id))
	}
	return b.String()
}

func nodeLabel(tree *schedule.Tree, id string) string {
	if n, ok := tree.Node(id); ok {
		return n.WbsCode + " " + n.Name
	}
	return Dim(shortID(id))
}

func signed(days int) string {
	if days > 0 {
		return "+" + strconv.Itoa(days)
	}
	return strconv.Itoa(days)
}

func dateRange(start, end *time.Time) string {
	if start == nil && end == nil {
		return Dim("--")
	}
	return dateOrDash(start) + " → " + dateOrDash(end)
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "--"
	}
	return t.Format(domain.DateLayout)
}
