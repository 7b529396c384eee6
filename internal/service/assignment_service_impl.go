package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/comply/internal/db"
	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/repository"
	"github.com/alexanderramin/comply/internal/session"
	"github.com/google/uuid"
)

// historyRetention bounds each local log table.
const historyRetention = 500

type assignmentService struct {
	gateway  ComplianceGateway
	uow      db.UnitOfWork
	observer UseCaseObserver
}

// NewAssignmentService wires the two-step submission flow. A nil uow skips
// the local submission log.
func NewAssignmentService(gateway ComplianceGateway, uow db.UnitOfWork, observers ...UseCaseObserver) AssignmentService {
	return &assignmentService{
		gateway:  gateway,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *assignmentService) Prepare(sess *session.AssignSession) (*PreparedSubmission, error) {
	ticket, err := sess.Stage()
	if err != nil {
		return nil, err
	}
	return &PreparedSubmission{
		TicketID: ticket.ID,
		UserID:   ticket.UserID,
		OrgID:    ticket.OrgID,
		Codes:    ticket.Codes,
		Items:    sess.Selected(),
	}, nil
}

func (s *assignmentService) Confirm(ctx context.Context, sess *session.AssignSession, p *PreparedSubmission) (err error) {
	fields := map[string]any{}
	done := observe(ctx, s.observer, "confirm-assignment", fields)
	defer func() { done(err) }()

	if p == nil {
		return domain.ErrNotPrepared
	}
	ticket, err := sess.Claim(p.TicketID)
	if err != nil {
		return err
	}
	fields["user_id"] = ticket.UserID
	fields["codes"] = ticket.Count()

	callErr := s.gateway.Assign(ctx, ticket.UserID, ticket.OrgID, ticket.Codes)

	rec := &domain.SubmissionRecord{
		ID:        uuid.New().String(),
		UserID:    ticket.UserID,
		OrgID:     ticket.OrgID,
		Codes:     ticket.Codes,
		Outcome:   domain.OutcomeAccepted,
		CreatedAt: time.Now().UTC(),
	}
	if callErr != nil {
		rec.Outcome = domain.OutcomeFailed
		rec.Reason = callErr.Error()
	}
	if logErr := s.record(ctx, rec); logErr != nil {
		fields["log_error"] = logErr.Error()
	}

	if callErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, callErr)
	}
	sess.CompleteSubmission()
	return nil
}

func (s *assignmentService) record(ctx context.Context, rec *domain.SubmissionRecord) error {
	if s.uow == nil {
		return nil
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteSubmissionRepo(tx)
		if err := repo.Create(ctx, rec); err != nil {
			return err
		}
		_, err := repo.Prune(ctx, historyRetention)
		return err
	})
}
