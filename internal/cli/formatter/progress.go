package formatter

import "strings"

// RenderBar renders a bracketed bar like [████░░░░] for a 0-100 percent.
// The bar is green above 66%, yellow from 33% and red below.
func RenderBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if width < 2 {
		width = 2
	}

	filled := int(pct / 100 * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case pct < 33:
		style = StyleRed
	case pct < 66:
		style = StyleYellow
	}
	return "[" + style.Render(bar) + "]"
}
