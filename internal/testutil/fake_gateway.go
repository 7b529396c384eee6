package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/alexanderramin/comply/internal/domain"
)

// ErrInjected is a generic transport failure for tests.
var ErrInjected = errors.New("injected gateway failure")

// AssignCall records one Assign request.
type AssignCall struct {
	UserID string
	OrgID  *string
	Codes  []string
}

// FakeGateway is an in-memory compliance backend. Accepted assignments and
// saves mutate its state the way the real backend does, so a refetch after
// a save observes the new done-set.
type FakeGateway struct {
	mu sync.Mutex

	Catalogue   []byte
	assignments map[string][]domain.Assignment

	catalogueErrs []error
	assignErrs    []error
	listErrs      []error
	markErrs      []error

	// OnFetchCatalogue and OnListAssignments run mid-call, before the
	// response is returned. Tests use them to start a competing load.
	OnFetchCatalogue  func()
	OnListAssignments func()

	CatalogueCalls []domain.CatalogueVariant
	AssignCalls    []AssignCall
	ListCalls      []string
	MarkCalls      [][]string
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Catalogue:   []byte(BranchesCatalogueJSON),
		assignments: make(map[string][]domain.Assignment),
	}
}

// SetAssignments replaces a user's assignments.
func (g *FakeGateway) SetAssignments(userID string, assignments ...domain.Assignment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.assignments[userID] = cloneAssignments(assignments)
}

// Assignments returns a copy of a user's current assignments.
func (g *FakeGateway) Assignments(userID string) []domain.Assignment {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneAssignments(g.assignments[userID])
}

// FailCatalogue queues errors for successive FetchCatalogue calls; a nil
// entry lets that call succeed.
func (g *FakeGateway) FailCatalogue(errs ...error) { g.queue(&g.catalogueErrs, errs) }

func (g *FakeGateway) FailAssign(errs ...error) { g.queue(&g.assignErrs, errs) }

func (g *FakeGateway) FailList(errs ...error) { g.queue(&g.listErrs, errs) }

func (g *FakeGateway) FailMark(errs ...error) { g.queue(&g.markErrs, errs) }

func (g *FakeGateway) queue(dst *[]error, errs []error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	*dst = append(*dst, errs...)
}

func pop(q *[]error) error {
	if len(*q) == 0 {
		return nil
	}
	err := (*q)[0]
	*q = (*q)[1:]
	return err
}

func (g *FakeGateway) FetchCatalogue(ctx context.Context, variant domain.CatalogueVariant, orgID *string) ([]byte, error) {
	g.mu.Lock()
	g.CatalogueCalls = append(g.CatalogueCalls, variant)
	err := pop(&g.catalogueErrs)
	payload := slices.Clone(g.Catalogue)
	hook := g.OnFetchCatalogue
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return payload, ctx.Err()
}

func (g *FakeGateway) Assign(ctx context.Context, userID string, orgID *string, codes []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.AssignCalls = append(g.AssignCalls, AssignCall{UserID: userID, OrgID: orgID, Codes: slices.Clone(codes)})
	if err := pop(&g.assignErrs); err != nil {
		return err
	}
	var org *domain.OrgRef
	if orgID != nil {
		org = &domain.OrgRef{ID: *orgID, Name: *orgID}
	}
	for _, code := range codes {
		g.assignments[userID] = append(g.assignments[userID], domain.Assignment{
			ID:           userID + "-" + code,
			Organisation: org,
			Compliance:   domain.ComplianceRef{Code: code, Name: code},
			Instances:    []domain.Instance{},
		})
	}
	return ctx.Err()
}

func (g *FakeGateway) ListAssignments(ctx context.Context, userID string) ([]domain.Assignment, error) {
	g.mu.Lock()
	g.ListCalls = append(g.ListCalls, userID)
	err := pop(&g.listErrs)
	out := cloneAssignments(g.assignments[userID])
	hook := g.OnListAssignments
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

// MarkInstancesDone treats ids as the complete done-set of every assignment
// it touches.
func (g *FakeGateway) MarkInstancesDone(ctx context.Context, instanceIDs []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.MarkCalls = append(g.MarkCalls, slices.Clone(instanceIDs))
	if err := pop(&g.markErrs); err != nil {
		return err
	}
	done := make(map[string]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		done[id] = true
	}
	for _, list := range g.assignments {
		for ai := range list {
			touched := false
			for _, inst := range list[ai].Instances {
				if done[inst.ID] {
					touched = true
					break
				}
			}
			if !touched {
				continue
			}
			for ii := range list[ai].Instances {
				list[ai].Instances[ii].IsDone = done[list[ai].Instances[ii].ID]
			}
		}
	}
	return ctx.Err()
}

// Calls reports how many requests of each kind were made.
func (g *FakeGateway) Calls() (catalogue, assign, list, mark int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.CatalogueCalls), len(g.AssignCalls), len(g.ListCalls), len(g.MarkCalls)
}

func cloneAssignments(in []domain.Assignment) []domain.Assignment {
	if in == nil {
		return nil
	}
	out := make([]domain.Assignment, len(in))
	for i, a := range in {
		a.Instances = slices.Clone(a.Instances)
		out[i] = a
	}
	return out
}
