package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a completion bar like [████░░░░]  45%.
// percent is on a 0-100 scale; the bar is green from 66, yellow from 33,
// red below.
func RenderProgress(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if width < 2 {
		width = 2
	}

	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case percent < 33:
		style = StyleRed
	case percent < 66:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), percent)
}
