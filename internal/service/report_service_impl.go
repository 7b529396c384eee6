package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/report"
	"golang.org/x/sync/errgroup"
)

// reportConcurrency caps parallel per-user fetches.
const reportConcurrency = 4

type reportService struct {
	gateway  ComplianceGateway
	observer UseCaseObserver
	now      func() time.Time
}

func NewReportService(gateway ComplianceGateway, observers ...UseCaseObserver) ReportService {
	return &reportService{
		gateway:  gateway,
		observer: useCaseObserverOrNoop(observers),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *reportService) Build(ctx context.Context, userIDs []string) (rep *Report, err error) {
	users := uniqueUsers(userIDs)
	done := observe(ctx, s.observer, "build-report", map[string]any{"users": len(users)})
	defer func() { done(err) }()

	if len(users) == 0 {
		return nil, domain.ErrMissingUser
	}

	results := make([][]domain.Assignment, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for i, userID := range users {
		i, userID := i, userID
		g.Go(func() error {
			list, err := s.gateway.ListAssignments(gctx, userID)
			if err != nil {
				return fmt.Errorf("%w: user %s: %v", domain.ErrFetchFailed, userID, err)
			}
			results[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep = &Report{GeneratedAt: s.now()}
	for i, userID := range users {
		groups := report.GroupByOrganisation(results[i])
		rep.Users = append(rep.Users, UserReport{
			UserID:  userID,
			Groups:  groups,
			Summary: report.Summarise(groups),
		})
	}
	return rep, nil
}

// uniqueUsers trims, drops blanks and de-duplicates, keeping first order.
func uniqueUsers(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
