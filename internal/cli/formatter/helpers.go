package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		Padding(1, 2)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// RelativeDateFrom returns a short relative date ("In 3d", "2w ago") measured
// in whole calendar days from now.
func RelativeDateFrom(t time.Time, now time.Time) string {
	days := int(math.Round(startOfDay(t).Sub(startOfDay(now)).Hours() / 24))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 0 && days < 14:
		return fmt.Sprintf("In %dd", days)
	case days > 0 && days < 60:
		return fmt.Sprintf("In %dw", days/7)
	case days > 0:
		return fmt.Sprintf("In %dmo", days/30)
	case days > -14:
		return fmt.Sprintf("%dd ago", -days)
	case days > -60:
		return fmt.Sprintf("%dw ago", -days/7)
	default:
		return fmt.Sprintf("%dmo ago", -days/30)
	}
}

// DueStyled renders a due date with urgency coloring. Done instances are
// always dimmed.
func DueStyled(due time.Time, done bool, now time.Time) string {
	text := due.Format("2006-01-02") + " " + Dim("("+RelativeDateFrom(due, now)+")")
	if done {
		return Dim(due.Format("2006-01-02"))
	}
	days := int(math.Round(startOfDay(due).Sub(startOfDay(now)).Hours() / 24))
	switch {
	case days < 0:
		return StyleRed.Render(due.Format("2006-01-02")) + " " + StyleRed.Render("("+RelativeDateFrom(due, now)+")")
	case days <= 7:
		return StyleYellow.Render(due.Format("2006-01-02")) + " " + Dim("("+RelativeDateFrom(due, now)+")")
	default:
		return text
	}
}

// HumanTimestamp formats a log timestamp relative to now.
func HumanTimestamp(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006 15:04")
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("Jan 2, 2006 15:04")
	}
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Plural returns "1 obligation" / "3 obligations".
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
