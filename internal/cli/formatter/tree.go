package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a tree display, given in pre-order.
type TreeItem struct {
	Label string
	Level int
	Badge string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders pre-ordered items as an indented tree with box-drawing
// connectors. Root items carry no connector. Badges are aligned in one
// column after the widest line.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}
	levels := make([]int, len(items))
	for i, it := range items {
		levels[i] = it.Level
	}

	lines := make([]string, len(items))
	maxWidth := 0
	for i, it := range items {
		lines[i] = treePrefix(levels, i) + it.Label
		if w := lipgloss.Width(lines[i]); w > maxWidth {
			maxWidth = w
		}
	}

	var b strings.Builder
	for i, it := range items {
		b.WriteString(lines[i])
		if it.Badge != "" {
			b.WriteString(strings.Repeat(" ", maxWidth-lipgloss.Width(lines[i])+colGap))
			b.WriteString(it.Badge)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func treePrefix(levels []int, i int) string {
	lvl := levels[i]
	if lvl == 0 {
		return ""
	}
	var b strings.Builder
	for d := 1; d < lvl; d++ {
		if hasNextSibling(levels, ancestorAt(levels, i, d)) {
			b.WriteString(treePipe)
		} else {
			b.WriteString(treeBlank)
		}
	}
	if hasNextSibling(levels, i) {
		b.WriteString(treeBranch)
	} else {
		b.WriteString(treeCorner)
	}
	return StyleDim.Render(b.String())
}

// ancestorAt returns the index of item i's ancestor at the given level.
func ancestorAt(levels []int, i, level int) int {
	for j := i - 1; j >= 0; j-- {
		if levels[j] == level {
			return j
		}
	}
	return -1
}

func hasNextSibling(levels []int, i int) bool {
	if i < 0 {
		return false
	}
	for k := i + 1; k < len(levels); k++ {
		if levels[k] < levels[i] {
			return false
		}
		if levels[k] == levels[i] {
			return true
		}
	}
	return false
}
