// Package selection holds the pure, I/O-free state behind obligation picking:
// the set of chosen codes with their preview entries, and which catalogue
// branches are expanded.
package selection

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/alexanderramin/comply/internal/domain"
)

// Selection is the set of chosen obligation codes plus a denormalized preview
// entry per code. Both views always hold the same keys, so the set is
// derived from the map rather than stored twice.
//
// The zero value is not usable; call New.
type Selection struct {
	items map[string]domain.ObligationItem
}

// New returns an empty Selection.
func New() *Selection {
	return &Selection{items: make(map[string]domain.ObligationItem)}
}

// Toggle adds the item when its code is absent and removes it otherwise.
func (s *Selection) Toggle(item domain.ObligationItem) {
	if _, ok := s.items[item.Code]; ok {
		delete(s.items, item.Code)
		return
	}
	s.items[item.Code] = item
}

// ToggleSubtree deselects every given item when all of them are already
// selected. Otherwise it completes the selection: missing items are added
// and items already present keep their existing preview entry.
func (s *Selection) ToggleSubtree(items []domain.ObligationItem) {
	if len(items) == 0 {
		return
	}
	if s.allSelected(items) {
		for _, item := range items {
			delete(s.items, item.Code)
		}
		return
	}
	for _, item := range items {
		if _, ok := s.items[item.Code]; !ok {
			s.items[item.Code] = item
		}
	}
}

// Remove drops code from the selection. Unknown codes are ignored.
func (s *Selection) Remove(code string) {
	delete(s.items, code)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	clear(s.items)
}

// Has reports whether code is selected.
func (s *Selection) Has(code string) bool {
	_, ok := s.items[code]
	return ok
}

// Len returns the number of selected codes.
func (s *Selection) Len() int {
	return len(s.items)
}

// Codes returns the selected codes in ascending order.
func (s *Selection) Codes() []string {
	codes := make([]string, 0, len(s.items))
	for code := range s.items {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Items returns the preview entries ordered by code.
func (s *Selection) Items() []domain.ObligationItem {
	out := make([]domain.ObligationItem, 0, len(s.items))
	for _, code := range s.Codes() {
		out = append(out, s.items[code])
	}
	return out
}

// Preview returns the stored preview entry for code.
func (s *Selection) Preview(code string) (domain.ObligationItem, bool) {
	item, ok := s.items[code]
	return item, ok
}

// State reports whether none, some or all of items are selected.
// An empty list reports none.
func (s *Selection) State(items []domain.ObligationItem) domain.SubtreeState {
	if len(items) == 0 {
		return domain.SubtreeNone
	}
	n := 0
	for _, item := range items {
		if s.Has(item.Code) {
			n++
		}
	}
	switch n {
	case 0:
		return domain.SubtreeNone
	case len(items):
		return domain.SubtreeAll
	default:
		return domain.SubtreePartial
	}
}

// Fingerprint is a stable digest of the selected code set.
func (s *Selection) Fingerprint() string {
	h := sha256.New()
	for _, code := range s.Codes() {
		h.Write([]byte(code))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Selection) allSelected(items []domain.ObligationItem) bool {
	for _, item := range items {
		if !s.Has(item.Code) {
			return false
		}
	}
	return true
}
