package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
)

type assignRequest struct {
	UserID          string   `json:"userId"`
	OrgID           *string  `json:"orgId,omitempty"`
	ComplianceCodes []string `json:"complianceCodes"`
}

type markDoneRequest struct {
	InstanceIDs []string `json:"instanceIds"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r successResponse) reason() string {
	if s := strings.TrimSpace(r.Error); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Message); s != "" {
		return s
	}
	return "success=false"
}

type assignmentsResponse struct {
	Items []wireAssignment `json:"items"`
}

type wireOrg struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireCompliance struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
}

type wireInstance struct {
	ID        string  `json:"id"`
	DueDate   string  `json:"dueDate"`
	YearMonth *string `json:"yearMonth"`
	IsDone    bool    `json:"isDone"`
}

type wireAssignment struct {
	ID           string         `json:"id"`
	Organisation *wireOrg       `json:"organisation"`
	Organization *wireOrg       `json:"organization"`
	Compliance   wireCompliance `json:"compliance"`
	Instances    []wireInstance `json:"instances"`
}

const dateOnly = "2006-01-02"

// parseDueDate accepts YYYY-MM-DD or RFC3339 timestamps.
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised due date %q", s)
}

func (w wireAssignment) toDomain() (domain.Assignment, error) {
	a := domain.Assignment{
		ID: w.ID,
		Compliance: domain.ComplianceRef{
			Code:        w.Compliance.Code,
			Name:        w.Compliance.Name,
			Category:    w.Compliance.Category,
			Description: w.Compliance.Description,
		},
	}
	org := w.Organisation
	if org == nil {
		org = w.Organization
	}
	if org != nil && strings.TrimSpace(org.ID) != "" {
		a.Organisation = &domain.OrgRef{ID: org.ID, Name: org.Name}
	}
	a.Instances = make([]domain.Instance, 0, len(w.Instances))
	for _, wi := range w.Instances {
		due, err := parseDueDate(wi.DueDate)
		if err != nil {
			return domain.Assignment{}, fmt.Errorf("assignment %s instance %s: %w", w.ID, wi.ID, err)
		}
		a.Instances = append(a.Instances, domain.Instance{
			ID:        wi.ID,
			DueDate:   due,
			YearMonth: wi.YearMonth,
			IsDone:    wi.IsDone,
		})
	}
	return a, nil
}
