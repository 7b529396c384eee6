package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/comply/internal/domain"
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

var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// Header renders an upper-cased section title with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}

// OutcomeBadge renders a logged backend outcome.
func OutcomeBadge(o domain.Outcome) string {
	switch o {
	case domain.OutcomeAccepted:
		return StyleGreen.Render("✔ accepted")
	case domain.OutcomeFailed:
		return StyleRed.Render("✖ failed")
	default:
		return StyleDim.Render(string(o))
	}
}

// SubtreeMark renders the tri-state checkbox for a branch.
func SubtreeMark(state domain.SubtreeState) string {
	switch state {
	case domain.SubtreeAll:
		return StyleGreen.Render("[x]")
	case domain.SubtreePartial:
		return StyleYellow.Render("[-]")
	default:
		return StyleDim.Render("[ ]")
	}
}

// CheckMark renders the checkbox for a single item or instance.
func CheckMark(checked bool) string {
	if checked {
		return StyleGreen.Render("[x]")
	}
	return StyleDim.Render("[ ]")
}
