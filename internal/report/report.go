// Package report derives read-only views over assignments: per-organisation
// groups with completion progress.
package report

import (
	"time"

	"github.com/alexanderramin/comply/internal/domain"
)

// OrgGroup buckets assignments that share an organisation.
type OrgGroup struct {
	Key                string // organisation ID, or domain.UnassignedGroupKey
	Name               string
	Assignments        []domain.Assignment
	TotalInstances     int
	CompletedInstances int
}

// Summary totals a set of groups.
type Summary struct {
	Groups             int
	Assignments        int
	TotalInstances     int
	CompletedInstances int
}

// GroupByOrganisation buckets assignments by organisation ID in order of
// first appearance. Assignments without an organisation share the
// "unassigned" bucket.
func GroupByOrganisation(assignments []domain.Assignment) []OrgGroup {
	var groups []OrgGroup
	index := make(map[string]int)
	for _, a := range assignments {
		key, name := domain.UnassignedGroupKey, "Unassigned"
		if a.Organisation != nil {
			key = a.Organisation.ID
			name = domain.CoalesceStr(a.Organisation.Name, a.Organisation.ID)
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, OrgGroup{Key: key, Name: name})
		}
		g := &groups[i]
		g.Assignments = append(g.Assignments, a)
		g.TotalInstances += len(a.Instances)
		g.CompletedInstances += a.CompletedCount()
	}
	return groups
}

// ProgressPercent returns completed/total as a percentage in [0, 100].
// A group with no instances reports 0.
func ProgressPercent(g OrgGroup) float64 {
	return percent(g.CompletedInstances, g.TotalInstances)
}

// Summarise totals groups.
func Summarise(groups []OrgGroup) Summary {
	s := Summary{Groups: len(groups)}
	for _, g := range groups {
		s.Assignments += len(g.Assignments)
		s.TotalInstances += g.TotalInstances
		s.CompletedInstances += g.CompletedInstances
	}
	return s
}

// ProgressPercent returns overall completion in [0, 100].
func (s Summary) ProgressPercent() float64 {
	return percent(s.CompletedInstances, s.TotalInstances)
}

// NextDue returns the earliest pending instance of an assignment. When
// every instance is done it returns false.
func NextDue(a domain.Assignment) (domain.Instance, bool) {
	var next domain.Instance
	found := false
	for _, inst := range a.Instances {
		if inst.IsDone {
			continue
		}
		if !found || inst.DueDate.Before(next.DueDate) {
			next = inst
			found = true
		}
	}
	return next, found
}

// Overdue counts pending instances due strictly before now's date.
func Overdue(a domain.Assignment, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n := 0
	for _, inst := range a.Instances {
		if !inst.IsDone && inst.DueDate.Before(today) {
			n++
		}
	}
	return n
}

func percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(done) / float64(total) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
