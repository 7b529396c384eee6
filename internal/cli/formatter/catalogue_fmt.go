package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/comply/internal/catalogue"
	"github.com/alexanderramin/comply/internal/domain"
)

// CatalogueMarks customises how a catalogue tree is drawn. Nil funcs mean
// "everything expanded" and "no checkboxes".
type CatalogueMarks struct {
	IsExpanded  func(nodeID string) bool
	BranchState func(nodeID string) domain.SubtreeState
	IsSelected  func(code string) bool
}

// FormatCatalogueHeader describes where a catalogue came from.
func FormatCatalogueHeader(variant domain.CatalogueVariant, fromCache bool, fetchedAt time.Time, items int, now time.Time) string {
	source := "live"
	if fromCache {
		source = "cached " + HumanTimestamp(fetchedAt, now)
	}
	return fmt.Sprintf("%s\n%s\n\n",
		Header("Obligation catalogue"),
		Dim(fmt.Sprintf("%s · %s · %s", variant, source, Plural(items, "obligation"))))
}

// FormatCatalogueTree renders the obligation tree. Branch lines show the
// node ID used by `assign --branch`; item lines show the obligation code.
func FormatCatalogueTree(cat *catalogue.Catalogue, marks CatalogueMarks) string {
	if cat == nil || len(cat.Roots) == 0 {
		return Dim("Catalogue is empty.") + "\n"
	}
	var lines []TreeItem
	for i, root := range cat.Roots {
		lines = appendNode(lines, root, 0, i == len(cat.Roots)-1, marks)
	}
	return RenderTree(lines)
}

func appendNode(lines []TreeItem, n *domain.ObligationNode, level int, last bool, marks CatalogueMarks) []TreeItem {
	expanded := marks.IsExpanded == nil || marks.IsExpanded(n.ID)
	arrow := "▸ "
	if expanded {
		arrow = "▾ "
	}
	line := TreeItem{
		Title:  Dim(arrow) + Bold(n.Heading) + " " + Dim(n.ID),
		Level:  level,
		IsLast: last,
		Detail: Plural(len(catalogue.SubtreeItems(n)), "item"),
	}
	if marks.BranchState != nil {
		line.Mark = SubtreeMark(marks.BranchState(n.ID))
	}
	lines = append(lines, line)
	if !expanded {
		return lines
	}

	children := len(n.Items) + len(n.SubBranches)
	for i, item := range n.Items {
		lines = append(lines, itemLine(item, level+1, i == children-1, marks))
	}
	for i, child := range n.SubBranches {
		lines = appendNode(lines, child, level+1, len(n.Items)+i == children-1, marks)
	}
	return lines
}

func itemLine(item domain.ObligationItem, level int, last bool, marks CatalogueMarks) TreeItem {
	line := TreeItem{
		Title:  StyleBlue.Render(item.Code) + " " + item.Name,
		Level:  level,
		IsLast: last,
		Detail: domain.StrOrEmpty(item.DueDate),
	}
	if marks.IsSelected != nil {
		line.Mark = CheckMark(marks.IsSelected(item.Code))
	}
	return line
}

// FormatSubmissionPreview lists what a confirmed submission will assign.
func FormatSubmissionPreview(userID string, orgID *string, items []domain.ObligationItem) string {
	var b strings.Builder
	b.WriteString(Header("Assignment preview") + "\n")
	target := "user " + Bold(userID)
	if orgID != nil {
		target += " · organisation " + Bold(*orgID)
	}
	b.WriteString(Dim("for ") + target + "\n\n")

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			StyleBlue.Render(item.Code),
			item.Name,
			domain.CoalesceStr(domain.StrOrEmpty(item.Category), "--"),
			domain.CoalesceStr(domain.StrOrEmpty(item.DueDate), "--"),
		})
	}
	b.WriteString(RenderTable([]string{"CODE", "OBLIGATION", "CATEGORY", "DUE"}, rows))
	b.WriteString("\n" + Bold(Plural(len(items), "obligation")) + Dim(" will be assigned.") + "\n")
	return b.String()
}
