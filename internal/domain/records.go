package domain

import "time"

// SubmissionRecord is a local log entry for one confirmed assignment request.
type SubmissionRecord struct {
	ID        string
	UserID    string
	OrgID     *string
	Codes     []string
	Outcome   Outcome
	Reason    string
	CreatedAt time.Time
}

// SaveRecord is a local log entry for one batch "mark done" call.
type SaveRecord struct {
	ID           string
	UserID       string
	AssignmentID string
	InstanceIDs  []string
	Outcome      Outcome
	Reason       string
	CreatedAt    time.Time
}

// CatalogueSnapshot is the last catalogue payload fetched for a scope, kept
// for offline browsing.
type CatalogueSnapshot struct {
	Scope     string
	Variant   CatalogueVariant
	OrgID     *string
	Payload   []byte
	ItemCount int
	FetchedAt time.Time
}
