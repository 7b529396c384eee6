package session

import (
	"testing"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlyAssignment() domain.Assignment {
	base := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	return domain.Assignment{
		ID:         "a-1",
		Compliance: domain.ComplianceRef{Code: "G1", Name: "GSTR-1"},
		Instances: []domain.Instance{
			{ID: "id1", DueDate: base, IsDone: true},
			{ID: "id2", DueDate: base.AddDate(0, 1, 0)},
			{ID: "id3", DueDate: base.AddDate(0, 2, 0)},
		},
	}
}

func TestTrackingSession_NotLoadedIsInert(t *testing.T) {
	s := NewTrackingSession("u-1", "a-1")
	assert.False(t, s.Loaded())
	assert.False(t, s.Toggle("id1"))
	assert.Nil(t, s.DoneSet())
	assert.Nil(t, s.Rows())
	assert.Equal(t, tracking.Counts{}, s.Counts())
	assert.False(t, s.Dirty())
	s.Discard()
}

func TestTrackingSession_StaleLoadIgnored(t *testing.T) {
	s := NewTrackingSession("u-1", "a-1")
	old := s.BeginLoad()
	cur := s.BeginLoad()

	assert.False(t, s.ApplyAssignment(old, monthlyAssignment()))
	assert.False(t, s.Loaded())
	assert.True(t, s.ApplyAssignment(cur, monthlyAssignment()))
	assert.True(t, s.Loaded())
}

func TestTrackingSession_RowsReflectEdits(t *testing.T) {
	s := NewTrackingSession("u-1", "a-1")
	require.True(t, s.ApplyAssignment(s.BeginLoad(), monthlyAssignment()))

	s.Toggle("id2")
	s.Toggle("id3")
	s.Toggle("id3")

	rows := s.Rows()
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Effective)
	assert.False(t, rows[0].Edited)
	assert.True(t, rows[1].Effective)
	assert.True(t, rows[1].Edited)
	assert.False(t, rows[2].Effective)
	assert.True(t, rows[2].Edited, "toggled back still counts as a staged edit")

	assert.Equal(t, []string{"id1", "id2"}, s.DoneSet())
	assert.True(t, s.Dirty())
}

func TestTrackingSession_ReloadKeepsEdits(t *testing.T) {
	s := NewTrackingSession("u-1", "a-1")
	require.True(t, s.ApplyAssignment(s.BeginLoad(), monthlyAssignment()))
	s.Toggle("id3")

	fresh := monthlyAssignment()
	fresh.Instances[1].IsDone = true
	require.True(t, s.ApplyAssignment(s.BeginLoad(), fresh))

	assert.True(t, s.Dirty())
	assert.Equal(t, []string{"id1", "id2", "id3"}, s.DoneSet())
}

func TestTrackingSession_CommitSave(t *testing.T) {
	s := NewTrackingSession("u-1", "a-1")
	require.True(t, s.ApplyAssignment(s.BeginLoad(), monthlyAssignment()))
	s.Toggle("id2")

	fresh := monthlyAssignment()
	fresh.Instances[1].IsDone = true
	assert.True(t, s.CommitSave(s.BeginLoad(), fresh, []string{"id1", "id2"}))
	assert.False(t, s.Dirty())
	assert.Equal(t, []string{"id1", "id2"}, s.DoneSet())
}

func TestTrackingSession_CommitSaveStaleAppliesLocally(t *testing.T) {
	s := NewTrackingSession("u-1", "a-1")
	require.True(t, s.ApplyAssignment(s.BeginLoad(), monthlyAssignment()))
	s.Toggle("id2")

	gen := s.BeginLoad()
	s.BeginLoad() // a newer load overtakes the refetch

	assert.False(t, s.CommitSave(gen, monthlyAssignment(), []string{"id1", "id2"}))
	assert.False(t, s.Dirty())
	assert.True(t, s.Effective("id2"))
	a, ok := s.Assignment()
	require.True(t, ok)
	assert.Equal(t, 2, a.CompletedCount())
}

func TestTrackingSession_ApplySaved(t *testing.T) {
	s := NewTrackingSession("u-1", "a-1")
	require.True(t, s.ApplyAssignment(s.BeginLoad(), monthlyAssignment()))
	s.Toggle("id1")
	s.Toggle("id3")

	s.ApplySaved([]string{"id3"})
	assert.False(t, s.Dirty())
	assert.False(t, s.Effective("id1"))
	assert.True(t, s.Effective("id3"))

	a, ok := s.Assignment()
	require.True(t, ok)
	assert.Equal(t, 1, a.CompletedCount())
}
