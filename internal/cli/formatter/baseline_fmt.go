package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/schedule"
)

// FormatBaselineList renders the baselines of a project in number order.
func FormatBaselineList(baselines []*domain.ScheduleBaseline) string {
	if len(baselines) == 0 {
		return Dim("No baselines yet.") + "\n"
	}
	rows := make([][]string, 0, len(baselines))
	for _, bl := range baselines {
		status := Dim(string(bl.Status))
		if bl.Status == domain.BaselineActive {
			status = StyleGreen.Render(string(bl.Status))
		}
		rows = append(rows, []string{
			"#" + strconv.Itoa(bl.BaselineNumber),
			Dim(shortID(bl.ID)),
			status,
			strconv.Itoa(len(bl.SnapshotData)),
			bl.CreatedAt.Format("2006-01-02 15:04"),
			bl.Description,
		})
	}
	return RenderTable([]string{"NO", "ID", "STATUS", "NODES", "CREATED", "DESCRIPTION"}, rows, 3)
}

// FormatVariance renders a baseline comparison. Unchanged nodes are left out
// of the table.
func FormatVariance(v *schedule.Variance, num *Numbers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s changed, %s added, %s removed\n",
		StyleYellow.Render(strconv.Itoa(v.Changed)),
		StyleBlue.Render(strconv.Itoa(v.Added)),
		StyleRed.Render(strconv.Itoa(v.Removed)))

	rows := make([][]string, 0, len(v.Nodes))
	for _, nv := range v.Nodes {
		if nv.Status == schedule.VarianceUnchanged {
			continue
		}
		rows = append(rows, []string{
			nv.Code,
			nv.Name,
			VarianceStyle(nv.Status).Render(nv.Status),
			slipDays(nv.StartSlipDays),
			slipDays(nv.EndSlipDays),
			signedDecimal(num, nv.ProgressDelta, num.NodeDecimals),
			signedDecimal(num, nv.PlannedCostDelta, 2),
		})
	}
	if len(rows) == 0 {
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(RenderTable([]string{"CODE", "NAME", "STATUS", "START", "END", "PROGRESS", "COST"}, rows, 3, 4, 5, 6))
	return b.String()
}

// FormatCurve renders a planned S-curve as date, bar and cumulative percent.
func FormatCurve(points []schedule.CurvePoint, num *Numbers) string {
	if len(points) == 0 {
		return Dim("The baseline has no planned dates.") + "\n"
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.Date.Format(domain.DateLayout),
			RenderBar(p.Percent, 20),
			num.ProjectPercent(p.Percent),
		})
	}
	return RenderTable([]string{"DATE", "PLANNED", "%"}, rows, 2)
}

func slipDays(d *int) string {
	if d == nil {
		return "--"
	}
	s := signed(*d) + "d"
	switch {
	case *d > 0:
		return StyleRed.Render(s)
	case *d < 0:
		return StyleGreen.Render(s)
	default:
		return s
	}
}

func signedDecimal(num *Numbers, v float64, decimals int) string {
	s := num.Decimal(v, decimals)
	if v > 0 {
		return "+" + s
	}
	return s
}
