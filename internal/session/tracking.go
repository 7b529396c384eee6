package session

import (
	"strings"
	"sync"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/tracking"
)

// InstanceRow is an instance as the operator sees it.
type InstanceRow struct {
	Instance  domain.Instance
	Effective bool
	Edited    bool // a staged edit exists, even if it matches the persisted value
}

// TrackingSession is one operator's view of a single assignment's instances.
type TrackingSession struct {
	mu sync.Mutex

	userID       string
	assignmentID string
	generation   uint64
	tracker      *tracking.Tracker
}

// NewTrackingSession opens a detail session for one assignment of a user.
func NewTrackingSession(userID, assignmentID string) *TrackingSession {
	return &TrackingSession{
		userID:       strings.TrimSpace(userID),
		assignmentID: strings.TrimSpace(assignmentID),
	}
}

// Target returns the user and assignment the session tracks.
func (s *TrackingSession) Target() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.assignmentID
}

// BeginLoad tags an assignment fetch. Only the most recent tag may apply.
func (s *TrackingSession) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// ApplyAssignment installs freshly loaded instances if gen is current.
// Staged edits for instances that still exist are kept.
func (s *TrackingSession) ApplyAssignment(gen uint64, a domain.Assignment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	if s.tracker == nil {
		s.tracker = tracking.New(a)
	} else {
		s.tracker.Reconcile(a)
	}
	return true
}

// CommitSave settles an accepted save. When gen is still current the
// refetched assignment replaces the instances; otherwise doneIDs are
// applied locally. Staged edits are dropped either way. It reports whether
// the refetched copy was used.
func (s *TrackingSession) CommitSave(gen uint64, a domain.Assignment, doneIDs []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return false
	}
	if gen != s.generation {
		s.tracker.ApplyDone(doneIDs)
		return false
	}
	s.tracker.Reconcile(a)
	s.tracker.Discard()
	return true
}

// Loaded reports whether instances have been loaded.
func (s *TrackingSession) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker != nil
}

// Assignment returns the loaded assignment.
func (s *TrackingSession) Assignment() (domain.Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return domain.Assignment{}, false
	}
	return s.tracker.Assignment(), true
}

// Toggle stages a flip of an instance's effective status.
func (s *TrackingSession) Toggle(instanceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return false
	}
	return s.tracker.Toggle(instanceID)
}

// Effective returns the status shown for an instance.
func (s *TrackingSession) Effective(instanceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return false
	}
	return s.tracker.EffectiveByID(instanceID)
}

// Rows returns the instances in due-date order with their effective status.
func (s *TrackingSession) Rows() []InstanceRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return nil
	}
	instances := s.tracker.Instances()
	rows := make([]InstanceRow, 0, len(instances))
	for _, inst := range instances {
		_, edited := s.tracker.Edit(inst.ID)
		rows = append(rows, InstanceRow{
			Instance:  inst,
			Effective: s.tracker.Effective(inst),
			Edited:    edited,
		})
	}
	return rows
}

// DoneSet returns the effectively-done instance IDs.
func (s *TrackingSession) DoneSet() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return nil
	}
	return s.tracker.DoneSet()
}

// Counts summarises the effective state.
func (s *TrackingSession) Counts() tracking.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return tracking.Counts{}
	}
	return s.tracker.Counts()
}

// Dirty reports whether unsaved edits exist.
func (s *TrackingSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker != nil && s.tracker.Dirty()
}

// Discard drops unsaved edits, as when the operator leaves the detail view.
func (s *TrackingSession) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker != nil {
		s.tracker.Discard()
	}
}

// ApplySaved records an accepted save locally when no fresh copy of the
// assignment could be fetched.
func (s *TrackingSession) ApplySaved(doneIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker != nil {
		s.tracker.ApplyDone(doneIDs)
	}
}
