// Package session holds the explicit per-operator context objects the
// services act on. Each session owns its state; nothing is shared between
// sessions, so several can run side by side.
package session

import (
	"strings"
	"sync"

	"github.com/alexanderramin/comply/internal/catalogue"
	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/selection"
	"github.com/google/uuid"
)

// Ticket is the single-use authorisation issued by Stage and consumed by
// Claim. It pins the exact code set the operator was asked to confirm.
type Ticket struct {
	ID     string
	UserID string
	OrgID  *string
	Codes  []string

	fingerprint string
}

// Count returns the number of codes the ticket covers.
func (t Ticket) Count() int {
	return len(t.Codes)
}

// AssignSession is one operator's obligation-picking context for a single
// user/organisation target.
type AssignSession struct {
	mu sync.Mutex

	userID string
	orgID  *string

	cat        *catalogue.Catalogue
	variant    domain.CatalogueVariant
	generation uint64

	sel    *selection.Selection
	expand *selection.Expansion
	ticket *Ticket
}

// NewAssignSession starts a session targeting userID and, optionally, an
// organisation.
func NewAssignSession(userID string, orgID *string) *AssignSession {
	return &AssignSession{
		userID: strings.TrimSpace(userID),
		orgID:  orgID,
		sel:    selection.New(),
		expand: selection.NewExpansion(catalogue.IDSeparator),
	}
}

// Target returns the user and organisation the session assigns to.
func (s *AssignSession) Target() (string, *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.orgID
}

// Retarget switches to another user/organisation. The selection, the
// expansion state, any staged ticket and the loaded catalogue are dropped,
// and in-flight catalogue loads become stale.
func (s *AssignSession) Retarget(userID string, orgID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = strings.TrimSpace(userID)
	s.orgID = orgID
	s.generation++
	s.cat = nil
	s.variant = ""
	s.sel.Clear()
	s.expand.Reset()
	s.ticket = nil
}

// BeginLoad tags a catalogue fetch. Only the most recent tag may apply.
func (s *AssignSession) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// ApplyCatalogue installs a fetched catalogue if gen is still current and
// reports whether it did.
func (s *AssignSession) ApplyCatalogue(gen uint64, cat *catalogue.Catalogue, variant domain.CatalogueVariant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.cat = cat
	s.variant = variant
	return true
}

// Catalogue returns the loaded catalogue, or nil before the first load.
func (s *AssignSession) Catalogue() (*catalogue.Catalogue, domain.CatalogueVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cat, s.variant
}

// ToggleItem toggles a single obligation.
func (s *AssignSession) ToggleItem(item domain.ObligationItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Toggle(item)
}

// ToggleCode toggles the catalogue item with the given code. Codes that are
// not in the catalogue but are selected are removed; otherwise they are
// ignored and false is returned.
func (s *AssignSession) ToggleCode(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cat != nil {
		if item, ok := s.cat.Item(code); ok {
			s.sel.Toggle(item)
			return true
		}
	}
	if s.sel.Has(code) {
		s.sel.Remove(code)
		return true
	}
	return false
}

// ToggleBranch applies select-all/deselect-all to every item under a node.
func (s *AssignSession) ToggleBranch(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cat == nil {
		return false
	}
	items := s.cat.Items(nodeID)
	if items == nil {
		return false
	}
	s.sel.ToggleSubtree(items)
	return true
}

// Remove drops a code from the selection.
func (s *AssignSession) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Remove(code)
}

// ClearSelection empties the selection.
func (s *AssignSession) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
}

// IsSelected reports whether code is selected.
func (s *AssignSession) IsSelected(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Has(code)
}

// Selected returns the preview entries ordered by code.
func (s *AssignSession) Selected() []domain.ObligationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Items()
}

// SelectedCount returns the number of selected codes.
func (s *AssignSession) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Len()
}

// BranchState reports how much of a node's subtree is selected.
func (s *AssignSession) BranchState(nodeID string) domain.SubtreeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cat == nil {
		return domain.SubtreeNone
	}
	return s.sel.State(s.cat.Items(nodeID))
}

// ToggleExpand opens or closes a branch; closing cascades to descendants.
func (s *AssignSession) ToggleExpand(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expand.Toggle(nodeID)
}

// ExpandAll opens every branch of the loaded catalogue.
func (s *AssignSession) ExpandAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cat != nil {
		s.expand.ExpandAll(s.cat.NodeIDs())
	}
}

// IsExpanded reports whether a branch is open.
func (s *AssignSession) IsExpanded(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expand.IsExpanded(nodeID)
}

// Stage issues a ticket for the current selection, replacing any earlier
// one.
func (s *AssignSession) Stage() (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		return Ticket{}, domain.ErrMissingUser
	}
	if s.sel.Len() == 0 {
		s.ticket = nil
		return Ticket{}, domain.ErrEmptySelection
	}
	t := Ticket{
		ID:          uuid.New().String(),
		UserID:      s.userID,
		OrgID:       s.orgID,
		Codes:       s.sel.Codes(),
		fingerprint: s.sel.Fingerprint(),
	}
	s.ticket = &t
	return t, nil
}

// Claim consumes the staged ticket. It fails with domain.ErrNotPrepared when
// no ticket is staged, the ID does not match, or the selection changed
// since Stage.
func (s *AssignSession) Claim(ticketID string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ticket
	if t == nil || t.ID != ticketID {
		return Ticket{}, domain.ErrNotPrepared
	}
	s.ticket = nil
	if t.fingerprint != s.sel.Fingerprint() {
		return Ticket{}, domain.ErrNotPrepared
	}
	return *t, nil
}

// CompleteSubmission clears the selection after an accepted submission.
func (s *AssignSession) CompleteSubmission() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
}
