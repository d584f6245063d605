package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/service"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 10

// FormatWBS renders the project tree with a progress bar per node and the
// weighted overall below it.
func FormatWBS(title string, sum *service.ProgressSummary, num *Numbers) string {
	var b strings.Builder
	b.WriteString(Header(title))
	b.WriteString("\n\n")
	if len(sum.Nodes) == 0 {
		b.WriteString(Dim("No WBS nodes yet."))
		b.WriteString("\n")
		return b.String()
	}

	pcts := make([]string, len(sum.Nodes))
	pctWidth := 0
	for i, n := range sum.Nodes {
		pcts[i] = num.NodePercent(n.Percent)
		if w := lipgloss.Width(pcts[i]); w > pctWidth {
			pctWidth = w
		}
	}

	levels := levelsOf(sum.Nodes)
	items := make([]TreeItem, len(sum.Nodes))
	labelWidth := 0
	for i, n := range sum.Nodes {
		items[i] = TreeItem{
			Label: Dim(n.Code) + " " + n.Name,
			Level: n.Level,
			Badge: RenderBar(n.Percent, barWidth) + " " + padLeft(pcts[i], pctWidth),
		}
		if w := lipgloss.Width(treePrefix(levels, i) + n.Code + " " + n.Name); w > labelWidth {
			labelWidth = w
		}
	}
	b.WriteString(RenderTree(items))

	b.WriteString("\n")
	label := "Overall"
	b.WriteString(Bold(label))
	b.WriteString(strings.Repeat(" ", max(labelWidth-lipgloss.Width(label), 0)+colGap))
	b.WriteString(RenderBar(sum.Overall, barWidth) + " " + num.ProjectPercent(sum.Overall))
	b.WriteString("\n")
	return b.String()
}

// FormatNode renders the detail card of one node.
func FormatNode(n *domain.WbsNode, num *Numbers) string {
	var b strings.Builder
	b.WriteString(Header(n.WbsCode + " " + n.Name))
	b.WriteString("\n")
	row := func(k, v string) {
		fmt.Fprintf(&b, "%-10s %s\n", k, v)
	}
	row("ID", Dim(n.ID))
	row("Progress", RenderBar(n.PercentComplete, barWidth)+" "+num.NodePercent(n.PercentComplete))
	row("Weight", num.Decimal(n.Weight, 2))
	row("Planned", dateRange(n.PlannedStart, n.PlannedEnd))
	row("Duration", fmt.Sprintf("%dd", n.PlannedDurationDays))
	row("Actual", dateRange(n.ActualStart, n.ActualEnd))
	if n.Quantity > 0 {
		row("Quantity", num.Decimal(n.QuantityDone, 2)+" / "+num.Decimal(n.Quantity, 2))
	}
	if n.PlannedCost > 0 || n.ActualCost > 0 {
		row("Cost", num.Decimal(n.ActualCost, 2)+" / "+num.Decimal(n.PlannedCost, 2))
	}
	var flags []string
	if n.IsMilestone {
		flags = append(flags, "milestone")
	}
	if n.IsInspection {
		flags = append(flags, "inspection")
	}
	if n.DateLocked {
		flags = append(flags, "locked")
	}
	if n.ManualDates {
		flags = append(flags, "manual-dates")
	}
	if n.ManualOverride {
		flags = append(flags, "manual-progress")
	}
	if len(flags) > 0 {
		row("Flags", StylePurple.Render(strings.Join(flags, ", ")))
	}
	return b.String()
}

// FormatSubtasks renders the subtasks of one leaf.
func FormatSubtasks(subtasks []*domain.Subtask, num *Numbers) string {
	if len(subtasks) == 0 {
		return Dim("No subtasks.") + "\n"
	}
	rows := make([][]string, 0, len(subtasks))
	for _, s := range subtasks {
		qty := Dim("--")
		if s.Quantity > 0 {
			qty = num.Decimal(s.QuantityDone, 2) + " / " + num.Decimal(s.Quantity, 2)
		}
		rows = append(rows, []string{
			Dim(shortID(s.ID)),
			s.Name,
			num.Decimal(s.Weight, 2),
			string(s.Status),
			qty,
			num.NodePercent(s.Percent()),
		})
	}
	return RenderTable([]string{"ID", "NAME", "WEIGHT", "STATUS", "QTY", "%"}, rows, 2, 5)
}

func levelsOf(nodes []service.NodeProgress) []int {
	levels := make([]int, len(nodes))
	for i, n := range nodes {
		levels[i] = n.Level
	}
	return levels
}

func padLeft(s string, width int) string {
	if pad := width - lipgloss.Width(s); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
