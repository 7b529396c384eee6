package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/comply/internal/report"
	"github.com/alexanderramin/comply/internal/service"
)

const reportBarWidth = 16

// FormatReport renders each user's assignments grouped by organisation.
func FormatReport(rep *service.Report, now time.Time) string {
	var b strings.Builder
	for i, u := range rep.Users {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Header("Compliance report · "+u.UserID) + "\n")
		if len(u.Groups) == 0 {
			b.WriteString(Dim("No assignments.") + "\n")
			continue
		}
		for _, g := range u.Groups {
			b.WriteString(formatGroup(g, now))
		}
		s := u.Summary
		fmt.Fprintf(&b, "\n%s  %s\n",
			RenderProgress(s.ProgressPercent(), reportBarWidth),
			Dim(fmt.Sprintf("%s · %s · %d/%d instances done",
				Plural(s.Groups, "organisation"), Plural(s.Assignments, "assignment"),
				s.CompletedInstances, s.TotalInstances)))
	}
	return b.String()
}

func formatGroup(g report.OrgGroup, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s  %s  %s\n",
		Bold(g.Name),
		RenderProgress(report.ProgressPercent(g), reportBarWidth),
		Dim(fmt.Sprintf("%d/%d", g.CompletedInstances, g.TotalInstances)))

	rows := make([][]string, 0, len(g.Assignments))
	for _, a := range g.Assignments {
		next := Dim("all done")
		if inst, ok := report.NextDue(a); ok {
			next = DueStyled(inst.DueDate, false, now)
		}
		overdue := Dim("0")
		if n := report.Overdue(a, now); n > 0 {
			overdue = StyleRed.Render(fmt.Sprintf("%d", n))
		}
		rows = append(rows, []string{
			StyleBlue.Render(a.Compliance.Code),
			a.Compliance.Name,
			fmt.Sprintf("%d/%d", a.CompletedCount(), len(a.Instances)),
			next,
			overdue,
		})
	}
	b.WriteString(RenderTable([]string{"CODE", "OBLIGATION", "DONE", "NEXT DUE", "OVERDUE"}, rows))
	return b.String()
}
