package formatter

import (
	"strings"
	"time"

	"github.com/alexanderramin/comply/internal/service"
)

// FormatHistory renders the merged local submission/save log.
func FormatHistory(entries []service.HistoryEntry, now time.Time) string {
	if len(entries) == 0 {
		return Dim("No local history yet.") + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		kind := StylePurple.Render(string(e.Kind))
		target := e.Target
		if target == "" {
			target = Dim("--")
		}
		outcome := OutcomeBadge(e.Outcome)
		if e.Reason != "" {
			outcome += " " + Dim(truncate(e.Reason, 40))
		}
		rows = append(rows, []string{
			HumanTimestamp(e.CreatedAt, now),
			kind,
			e.UserID,
			target,
			Plural(len(e.Refs), refNoun(e.Kind)),
			outcome,
		})
	}
	return RenderTable([]string{"WHEN", "KIND", "USER", "TARGET", "REFS", "OUTCOME"}, rows)
}

func refNoun(k service.HistoryKind) string {
	if k == service.HistorySave {
		return "instance"
	}
	return "code"
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
