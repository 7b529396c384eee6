package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/session"
	"github.com/alexanderramin/comply/internal/tracking"
)

const instanceBarWidth = 20

// FormatAssignmentHeader renders the title block for one assignment.
func FormatAssignmentHeader(a domain.Assignment) string {
	var b strings.Builder
	b.WriteString(Header(a.Compliance.Name) + "\n")
	meta := []string{StyleBlue.Render(a.Compliance.Code)}
	if a.Compliance.Category != nil {
		meta = append(meta, *a.Compliance.Category)
	}
	if a.Organisation != nil {
		meta = append(meta, domain.CoalesceStr(a.Organisation.Name, a.Organisation.ID))
	}
	b.WriteString(Dim(strings.Join(meta, " · ")) + "\n")
	if a.Compliance.Description != nil {
		b.WriteString(Dim(*a.Compliance.Description) + "\n")
	}
	return b.String()
}

// FormatInstanceRows renders instances with their effective status. A "*"
// marks instances with an unsaved edit. cursor < 0 draws no cursor.
func FormatInstanceRows(rows []session.InstanceRow, cursor int, now time.Time) string {
	if len(rows) == 0 {
		return Dim("No instances.") + "\n"
	}
	var b strings.Builder
	for i, r := range rows {
		pointer := "  "
		if i == cursor {
			pointer = StyleHeader.Render("❯ ")
		}
		edited := " "
		if r.Edited && r.Effective != r.Instance.IsDone {
			edited = StyleYellow.Render("*")
		}
		period := ""
		if r.Instance.YearMonth != nil {
			period = Dim(" " + *r.Instance.YearMonth)
		}
		fmt.Fprintf(&b, "%s%s%s %s%s  %s\n",
			pointer, CheckMark(r.Effective), edited,
			DueStyled(r.Instance.DueDate, r.Effective, now), period,
			Dim(r.Instance.ID))
	}
	return b.String()
}

// FormatCounts renders the progress line for a tracking session.
func FormatCounts(c tracking.Counts) string {
	pct := 0.0
	if c.Total > 0 {
		pct = float64(c.Done) / float64(c.Total) * 100
	}
	line := fmt.Sprintf("%s  %d/%d done", RenderProgress(pct, instanceBarWidth), c.Done, c.Total)
	if c.Edited > 0 {
		line += "  " + StyleYellow.Render(Plural(c.Edited, "unsaved change"))
	}
	return line + "\n"
}

// FormatAssignmentList renders a user's assignments as a table.
func FormatAssignmentList(assignments []domain.Assignment, now time.Time) string {
	if len(assignments) == 0 {
		return Dim("No assignments.") + "\n"
	}
	rows := make([][]string, 0, len(assignments))
	for _, a := range assignments {
		org := Dim("--")
		if a.Organisation != nil {
			org = domain.CoalesceStr(a.Organisation.Name, a.Organisation.ID)
		}
		pct := 0.0
		if len(a.Instances) > 0 {
			pct = float64(a.CompletedCount()) / float64(len(a.Instances)) * 100
		}
		rows = append(rows, []string{
			Dim(a.ID),
			StyleBlue.Render(a.Compliance.Code),
			a.Compliance.Name,
			org,
			RenderProgress(pct, 10),
		})
	}
	return RenderTable([]string{"ID", "CODE", "OBLIGATION", "ORGANISATION", "PROGRESS"}, rows)
}
