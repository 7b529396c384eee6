package testutil

import (
	"fmt"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/google/uuid"
)

// Assignment options
type AssignmentOption func(*domain.Assignment)

func WithOrganisation(id, name string) AssignmentOption {
	return func(a *domain.Assignment) {
		a.Organisation = &domain.OrgRef{ID: id, Name: name}
	}
}

func WithCategory(category string) AssignmentOption {
	return func(a *domain.Assignment) {
		a.Compliance.Category = &category
	}
}

func WithInstances(instances ...domain.Instance) AssignmentOption {
	return func(a *domain.Assignment) {
		a.Instances = append(a.Instances, instances...)
	}
}

// WithMonthlyInstances adds n instances due on the same day of consecutive
// months starting at first; the first done of them are marked done.
// Instance IDs are "<assignment>-i<k>" with k from 1.
func WithMonthlyInstances(first time.Time, n, done int) AssignmentOption {
	return func(a *domain.Assignment) {
		for k := 0; k < n; k++ {
			due := first.AddDate(0, k, 0)
			ym := due.Format("2006-01")
			a.Instances = append(a.Instances, domain.Instance{
				ID:        fmt.Sprintf("%s-i%d", a.ID, k+1),
				DueDate:   due,
				YearMonth: &ym,
				IsDone:    k < done,
			})
		}
	}
}

func NewTestAssignment(id, code string, opts ...AssignmentOption) domain.Assignment {
	a := domain.Assignment{
		ID:         id,
		Compliance: domain.ComplianceRef{Code: code, Name: code + " filing"},
		Instances:  []domain.Instance{},
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Submission record options
type SubmissionOption func(*domain.SubmissionRecord)

func WithSubmissionOrg(orgID string) SubmissionOption {
	return func(r *domain.SubmissionRecord) {
		r.OrgID = &orgID
	}
}

func WithSubmissionFailure(reason string) SubmissionOption {
	return func(r *domain.SubmissionRecord) {
		r.Outcome = domain.OutcomeFailed
		r.Reason = reason
	}
}

func WithSubmittedAt(t time.Time) SubmissionOption {
	return func(r *domain.SubmissionRecord) {
		r.CreatedAt = t
	}
}

func NewTestSubmission(userID string, codes []string, opts ...SubmissionOption) *domain.SubmissionRecord {
	r := &domain.SubmissionRecord{
		ID:        uuid.New().String(),
		UserID:    userID,
		Codes:     codes,
		Outcome:   domain.OutcomeAccepted,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save record options
type SaveOption func(*domain.SaveRecord)

func WithSaveFailure(reason string) SaveOption {
	return func(r *domain.SaveRecord) {
		r.Outcome = domain.OutcomeFailed
		r.Reason = reason
	}
}

func WithSavedAt(t time.Time) SaveOption {
	return func(r *domain.SaveRecord) {
		r.CreatedAt = t
	}
}

func NewTestSaveRecord(userID, assignmentID string, instanceIDs []string, opts ...SaveOption) *domain.SaveRecord {
	r := &domain.SaveRecord{
		ID:           uuid.New().String(),
		UserID:       userID,
		AssignmentID: assignmentID,
		InstanceIDs:  instanceIDs,
		Outcome:      domain.OutcomeAccepted,
		CreatedAt:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BranchesCatalogueJSON is a small "branches" catalogue:
//
//	GST
//	  Returns: G1, G3B
//	  Annual: G9
//	TDS: T1
const BranchesCatalogueJSON = `{"branches":[
	{"heading":"GST","subBranches":[
		{"heading":"Returns","items":[
			{"code":"G1","name":"GSTR-1","category":"GST","dueDate":"11th of every month"},
			{"code":"G3B","name":"GSTR-3B","category":"GST","dueDate":"20th of every month"}
		]},
		{"heading":"Annual","items":[{"code":"G9","name":"GSTR-9","category":"GST"}]}
	]},
	{"heading":"TDS","items":[{"code":"T1","name":"Form 24Q","category":"TDS"}]}
]}`

// FlowCatalogueJSON is the same obligations in the "flow" shape, with one
// loose top-level item.
const FlowCatalogueJSON = `{"title":"Start here","flow":[
	{"code":"P1","name":"Professional tax"},
	{"title":"GST","branches":[
		{"title":"Returns","compliances":[{"code":"G1","name":"GSTR-1"},{"code":"G3B","name":"GSTR-3B"}]}
	]},
	{"title":"TDS","compliances":[{"code":"T1","name":"Form 24Q"}]}
]}`
