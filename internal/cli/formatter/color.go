package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/schedule"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles. SetPlain swaps them for unstyled ones.
var (
	StyleGreen  lipgloss.Style
	StyleYellow lipgloss.Style
	StyleRed    lipgloss.Style
	StyleBlue   lipgloss.Style
	StylePurple lipgloss.Style
	StyleDim    lipgloss.Style
	StyleFg     lipgloss.Style
	StyleHeader lipgloss.Style
	StyleBold   lipgloss.Style
)

var (
	filledBlock = "█"
	emptyBlock  = "░"
)

func init() { SetPlain(false) }

// SetPlain turns styling off for output that is not going to a terminal.
// Bars fall back to ASCII glyphs.
func SetPlain(plain bool) {
	if plain {
		none := lipgloss.NewStyle()
		StyleGreen, StyleYellow, StyleRed, StyleBlue, StylePurple = none, none, none, none, none
		StyleDim, StyleFg, StyleHeader, StyleBold = none, none, none, none
		filledBlock, emptyBlock = "#", "."
		return
	}
	StyleGreen = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
	filledBlock, emptyBlock = "█", "░"
}

// Header renders a section header with an underline of the same width.
func Header(text string) string {
	line := strings.Repeat("─", lipgloss.Width(text))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(text), StyleDim.Render(line))
}

// Dim renders text in the muted color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

// SprintStatusPill returns a colored indicator for a sprint status.
func SprintStatusPill(status domain.SprintStatus) string {
	switch status {
	case domain.SprintActive:
		return StyleGreen.Render("● active")
	case domain.SprintFuture:
		return StyleBlue.Render("○ future")
	case domain.SprintCompleted:
		return StyleDim.Render("✔ completed")
	default:
		return StyleDim.Render(string(status))
	}
}

// TaskStatusPill returns a colored indicator for a sprint task status.
func TaskStatusPill(status domain.SprintTaskStatus) string {
	switch status {
	case domain.SprintTaskPending:
		return StyleBlue.Render("○ pending")
	case domain.SprintTaskInProgress:
		return StyleYellow.Render("▶ in progress")
	case domain.SprintTaskBlocked:
		return StyleRed.Render("■ blocked")
	case domain.SprintTaskDone:
		return StyleGreen.Render("✔ done")
	default:
		return StyleDim.Render(string(status))
	}
}

// VarianceStyle colors a variance status.
func VarianceStyle(status string) lipgloss.Style {
	switch status {
	case schedule.VarianceChanged:
		return StyleYellow
	case schedule.VarianceAdded:
		return StyleBlue
	case schedule.VarianceRemoved:
		return StyleRed
	default:
		return StyleDim
	}
}
