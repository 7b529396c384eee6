package service

import (
	"context"
	"time"

	"github.com/alexanderramin/comply/internal/catalogue"
	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/report"
	"github.com/alexanderramin/comply/internal/session"
	"github.com/alexanderramin/comply/internal/tracking"
)

// ComplianceGateway is the backend the services talk to. *api.Client
// implements it; tests use testutil.FakeGateway.
type ComplianceGateway interface {
	FetchCatalogue(ctx context.Context, variant domain.CatalogueVariant, orgID *string) ([]byte, error)
	Assign(ctx context.Context, userID string, orgID *string, codes []string) error
	ListAssignments(ctx context.Context, userID string) ([]domain.Assignment, error)
	MarkInstancesDone(ctx context.Context, instanceIDs []string) error
}

// LoadOptions controls where a catalogue comes from.
type LoadOptions struct {
	Variant domain.CatalogueVariant // empty lets the backend choose
	Offline bool                    // use the last cached snapshot only
}

// CatalogueResult describes the catalogue installed on a session.
type CatalogueResult struct {
	Catalogue *catalogue.Catalogue
	Variant   domain.CatalogueVariant
	FromCache bool
	FetchedAt time.Time
}

type CatalogueService interface {
	Load(ctx context.Context, s *session.AssignSession, opts LoadOptions) (*CatalogueResult, error)
}

// PreparedSubmission is what the operator is asked to confirm.
type PreparedSubmission struct {
	TicketID string
	UserID   string
	OrgID    *string
	Codes    []string
	Items    []domain.ObligationItem
}

// Count returns the number of obligations to be assigned.
func (p *PreparedSubmission) Count() int {
	return len(p.Codes)
}

type AssignmentService interface {
	Prepare(s *session.AssignSession) (*PreparedSubmission, error)
	Confirm(ctx context.Context, s *session.AssignSession, p *PreparedSubmission) error
}

// SaveResult describes an accepted save.
type SaveResult struct {
	InstanceIDs []string
	Refreshed   bool // false when the post-save refetch did not apply
	Counts      tracking.Counts
}

type TrackingService interface {
	ListAssignments(ctx context.Context, userID string) ([]domain.Assignment, error)
	Open(ctx context.Context, s *session.TrackingSession) error
	Save(ctx context.Context, s *session.TrackingSession) (*SaveResult, error)
	Discard(s *session.TrackingSession)
}

// UserReport is one user's assignments grouped by organisation.
type UserReport struct {
	UserID  string
	Groups  []report.OrgGroup
	Summary report.Summary
}

// Report covers one or more users.
type Report struct {
	Users       []UserReport
	GeneratedAt time.Time
}

type ReportService interface {
	Build(ctx context.Context, userIDs []string) (*Report, error)
}

// HistoryKind tells submission entries from save entries.
type HistoryKind string

const (
	HistorySubmission HistoryKind = "assign"
	HistorySave       HistoryKind = "save"
)

// HistoryEntry is one row of the merged local log.
type HistoryEntry struct {
	Kind      HistoryKind
	ID        string
	UserID    string
	Target    string // organisation for submissions, assignment for saves
	Refs      []string
	Outcome   domain.Outcome
	Reason    string
	CreatedAt time.Time
}

type HistoryService interface {
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
}
