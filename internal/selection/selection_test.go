package selection

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(code string) domain.ObligationItem {
	return domain.ObligationItem{Code: code, Name: "Obligation " + code}
}

func items(codes ...string) []domain.ObligationItem {
	out := make([]domain.ObligationItem, len(codes))
	for i, c := range codes {
		out[i] = item(c)
	}
	return out
}

func previewCodes(s *Selection) []string {
	var codes []string
	for _, it := range s.Items() {
		codes = append(codes, it.Code)
	}
	return codes
}

func TestToggle_AddsThenRemoves(t *testing.T) {
	s := New()
	s.Toggle(item("G1"))
	assert.True(t, s.Has("G1"))
	assert.Equal(t, 1, s.Len())

	s.Toggle(item("G1"))
	assert.False(t, s.Has("G1"))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Items())
}

func TestToggleSubtree_SelectsAllThenDeselectsAll(t *testing.T) {
	s := New()
	gst := items("G1", "G2")

	s.ToggleSubtree(gst)
	assert.Equal(t, []string{"G1", "G2"}, s.Codes())

	s.ToggleSubtree(gst)
	assert.Empty(t, s.Codes())
}

func TestToggleSubtree_PartialSelectionCompletesAndKeepsPreview(t *testing.T) {
	s := New()
	custom := domain.ObligationItem{Code: "G1", Name: "picked earlier"}
	s.Toggle(custom)

	s.ToggleSubtree(items("G1", "G2", "G3"))
	assert.Equal(t, []string{"G1", "G2", "G3"}, s.Codes())

	got, ok := s.Preview("G1")
	require.True(t, ok)
	assert.Equal(t, "picked earlier", got.Name, "existing preview entry is not overwritten")

	s.ToggleSubtree(items("G1", "G2", "G3"))
	assert.Empty(t, s.Codes())
}

func TestToggleSubtree_LeavesCodesOutsideSubtree(t *testing.T) {
	s := New()
	s.Toggle(item("T1"))
	s.ToggleSubtree(items("G1", "G2"))
	s.ToggleSubtree(items("G1", "G2"))
	assert.Equal(t, []string{"T1"}, s.Codes())
}

func TestToggleSubtree_EmptyIsNoop(t *testing.T) {
	s := New()
	s.Toggle(item("A"))
	s.ToggleSubtree(nil)
	assert.Equal(t, []string{"A"}, s.Codes())
}

func TestRemoveAndClear(t *testing.T) {
	s := New()
	s.ToggleSubtree(items("A", "B", "C"))

	s.Remove("B")
	s.Remove("missing")
	assert.Equal(t, []string{"A", "C"}, s.Codes())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Items())
}

func TestState(t *testing.T) {
	s := New()
	sub := items("A", "B")
	assert.Equal(t, domain.SubtreeNone, s.State(sub))
	assert.Equal(t, domain.SubtreeNone, s.State(nil))

	s.Toggle(item("A"))
	assert.Equal(t, domain.SubtreePartial, s.State(sub))

	s.Toggle(item("B"))
	assert.Equal(t, domain.SubtreeAll, s.State(sub))
}

func TestFingerprint_TracksCodeSetOnly(t *testing.T) {
	a := New()
	b := New()
	a.Toggle(item("X"))
	a.Toggle(item("Y"))
	b.Toggle(item("Y"))
	b.Toggle(domain.ObligationItem{Code: "X", Name: "different preview"})
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Remove("Y")
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

// TestSelection_Invariants_RandomOperations property-tests the selection
// engine: toggle is self-inverse, a completing subtree toggle selects the
// whole subtree, and codes always equal the preview keys.
func TestSelection_Invariants_RandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pool := make([]domain.ObligationItem, 12)
	for i := range pool {
		pool[i] = item(fmt.Sprintf("C%02d", i))
	}

	for trial := 0; trial < 200; trial++ {
		s := New()
		for step := 0; step < 30; step++ {
			switch rng.Intn(4) {
			case 0:
				it := pool[rng.Intn(len(pool))]
				before := s.Codes()
				s.Toggle(it)
				s.Toggle(it)
				assert.Equal(t, before, s.Codes(), "trial %d: toggle twice must restore state", trial)
				s.Toggle(it)
			case 1:
				start := rng.Intn(len(pool))
				end := start + rng.Intn(len(pool)-start) + 1
				sub := pool[start:end]
				wasAll := s.State(sub) == domain.SubtreeAll
				s.ToggleSubtree(sub)
				for _, it := range sub {
					assert.Equal(t, !wasAll, s.Has(it.Code), "trial %d: subtree toggle must be all-or-nothing", trial)
				}
			case 2:
				s.Remove(pool[rng.Intn(len(pool))].Code)
			case 3:
				if rng.Intn(10) == 0 {
					s.Clear()
				}
			}
			assert.Equal(t, s.Codes(), previewCodes(s), "trial %d: codes and preview keys diverged", trial)
			assert.Equal(t, s.Len(), len(s.Codes()))
		}
	}
}
