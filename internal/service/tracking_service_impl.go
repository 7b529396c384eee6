package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/comply/internal/db"
	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/repository"
	"github.com/alexanderramin/comply/internal/session"
	"github.com/google/uuid"
)

type trackingService struct {
	gateway  ComplianceGateway
	uow      db.UnitOfWork
	observer UseCaseObserver
}

// NewTrackingService wires instance tracking. A nil uow skips the local
// save log.
func NewTrackingService(gateway ComplianceGateway, uow db.UnitOfWork, observers ...UseCaseObserver) TrackingService {
	return &trackingService{
		gateway:  gateway,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *trackingService) ListAssignments(ctx context.Context, userID string) (assignments []domain.Assignment, err error) {
	fields := map[string]any{"user_id": userID}
	done := observe(ctx, s.observer, "list-assignments", fields)
	defer func() { done(err) }()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrMissingUser
	}
	assignments, err = s.gateway.ListAssignments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	fields["assignments"] = len(assignments)
	return assignments, nil
}

func (s *trackingService) Open(ctx context.Context, sess *session.TrackingSession) (err error) {
	userID, assignmentID := sess.Target()
	done := observe(ctx, s.observer, "open-assignment", map[string]any{
		"user_id":       userID,
		"assignment_id": assignmentID,
	})
	defer func() { done(err) }()

	gen := sess.BeginLoad()
	a, err := s.fetchAssignment(ctx, userID, assignmentID)
	if err != nil {
		return err
	}
	if !sess.ApplyAssignment(gen, a) {
		return domain.ErrStaleResponse
	}
	return nil
}

func (s *trackingService) Save(ctx context.Context, sess *session.TrackingSession) (res *SaveResult, err error) {
	userID, assignmentID := sess.Target()
	fields := map[string]any{
		"user_id":       userID,
		"assignment_id": assignmentID,
	}
	done := observe(ctx, s.observer, "save-instances", fields)
	defer func() { done(err) }()

	ids := sess.DoneSet()
	fields["done"] = len(ids)
	if len(ids) == 0 {
		return nil, domain.ErrNoInstancesSelected
	}

	callErr := s.gateway.MarkInstancesDone(ctx, ids)

	rec := &domain.SaveRecord{
		ID:           uuid.New().String(),
		UserID:       userID,
		AssignmentID: assignmentID,
		InstanceIDs:  ids,
		Outcome:      domain.OutcomeAccepted,
		CreatedAt:    time.Now().UTC(),
	}
	if callErr != nil {
		rec.Outcome = domain.OutcomeFailed
		rec.Reason = callErr.Error()
	}
	if logErr := s.record(ctx, rec); logErr != nil {
		fields["log_error"] = logErr.Error()
	}
	if callErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSaveFailed, callErr)
	}

	res = &SaveResult{InstanceIDs: ids}
	gen := sess.BeginLoad()
	a, fetchErr := s.fetchAssignment(ctx, userID, assignmentID)
	if fetchErr != nil {
		sess.ApplySaved(ids)
		res.Counts = sess.Counts()
		if !errors.Is(fetchErr, domain.ErrFetchFailed) {
			fetchErr = fmt.Errorf("%w: %w", domain.ErrFetchFailed, fetchErr)
		}
		return res, fetchErr
	}
	res.Refreshed = sess.CommitSave(gen, a, ids)
	res.Counts = sess.Counts()
	fields["refreshed"] = res.Refreshed
	return res, nil
}

func (s *trackingService) Discard(sess *session.TrackingSession) {
	sess.Discard()
}

func (s *trackingService) fetchAssignment(ctx context.Context, userID, assignmentID string) (domain.Assignment, error) {
	if userID == "" {
		return domain.Assignment{}, domain.ErrMissingUser
	}
	list, err := s.gateway.ListAssignments(ctx, userID)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	for _, a := range list {
		if a.ID == assignmentID {
			return a, nil
		}
	}
	return domain.Assignment{}, fmt.Errorf("%w: %s", domain.ErrAssignmentNotFound, assignmentID)
}

func (s *trackingService) record(ctx context.Context, rec *domain.SaveRecord) error {
	if s.uow == nil {
		return nil
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteSaveLogRepo(tx)
		if err := repo.Create(ctx, rec); err != nil {
			return err
		}
		_, err := repo.Prune(ctx, historyRetention)
		return err
	})
}
