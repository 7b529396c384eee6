package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a rendered tree.
type TreeItem struct {
	Title  string
	Level  int
	IsLast bool
	Mark   string // pre-rendered checkbox or bullet, may be empty
	Detail string // right-aligned badge text
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree renders items as an indented tree with box-drawing connectors
// and right-aligned detail badges.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	maxWidth := 0
	for i, item := range items {
		var prefix string
		if item.Level > 0 {
			prefix = strings.Repeat(treePipe, item.Level-1)
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}
		content := prefix
		if item.Mark != "" {
			content += item.Mark + " "
		}
		content += item.Title
		contents[i] = content
		if w := lipgloss.Width(content); w > maxWidth {
			maxWidth = w
		}
	}

	var b strings.Builder
	for i, item := range items {
		b.WriteString(contents[i])
		if item.Detail != "" {
			pad := maxWidth - lipgloss.Width(contents[i])
			b.WriteString(strings.Repeat(" ", pad) + "  " + StyleBlue.Render("[ "+item.Detail+" ]"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
