package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/repository"
)

type historyService struct {
	submissions repository.SubmissionRepo
	saves       repository.SaveLogRepo
}

func NewHistoryService(submissions repository.SubmissionRepo, saves repository.SaveLogRepo) HistoryService {
	return &historyService{submissions: submissions, saves: saves}
}

// Recent merges both local logs newest first.
func (s *historyService) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	subs, err := s.submissions.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading submissions: %w", err)
	}
	saves, err := s.saves.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading saves: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(subs)+len(saves))
	for _, r := range subs {
		entries = append(entries, HistoryEntry{
			Kind:      HistorySubmission,
			ID:        r.ID,
			UserID:    r.UserID,
			Target:    domain.StrOrEmpty(r.OrgID),
			Refs:      r.Codes,
			Outcome:   r.Outcome,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		})
	}
	for _, r := range saves {
		entries = append(entries, HistoryEntry{
			Kind:      HistorySave,
			ID:        r.ID,
			UserID:    r.UserID,
			Target:    r.AssignmentID,
			Refs:      r.InstanceIDs,
			Outcome:   r.Outcome,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
