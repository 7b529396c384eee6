package catalogue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/comply/internal/domain"
)

// ErrUnrecognisedShape indicates a catalogue response with neither a
// "branches" nor a "flow" member.
var ErrUnrecognisedShape = errors.New("catalogue response has neither branches nor flow")

// DefaultFlowHeading heads loose top-level items of a flow response.
const DefaultFlowHeading = "General"

// wireResponse is the body of GET catalogue-flow in either variant.
type wireResponse struct {
	Title    string      `json:"title"`
	Branches *[]wireNode `json:"branches"`
	Flow     *[]wireNode `json:"flow"`
}

// wireNode tolerates the field spellings seen across catalogue versions.
// In a flow response an entry with a code is a loose item.
type wireNode struct {
	Code        string     `json:"code"`
	Heading     string     `json:"heading"`
	Title       string     `json:"title"`
	Name        string     `json:"name"`
	Items       []wireNode `json:"items"`
	Compliances []wireNode `json:"compliances"`
	SubBranches []wireNode `json:"subBranches"`
	Branches    []wireNode `json:"branches"`
	Children    []wireNode `json:"children"`
	Category    *string    `json:"category"`
	DueDate     *string    `json:"dueDate"`
	Reminders   *string    `json:"reminders"`
}

// Decode normalizes either catalogue response shape into a Catalogue.
func Decode(data []byte) (*Catalogue, domain.CatalogueVariant, error) {
	var resp wireResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, "", fmt.Errorf("decoding catalogue: %w", err)
	}

	switch {
	case resp.Branches != nil:
		roots := make([]*domain.ObligationNode, 0, len(*resp.Branches))
		for _, w := range *resp.Branches {
			roots = append(roots, toNode(w))
		}
		return New(roots), domain.VariantBranches, nil

	case resp.Flow != nil:
		return New(flowRoots(resp.Title, *resp.Flow)), domain.VariantFlow, nil

	default:
		return nil, "", ErrUnrecognisedShape
	}
}

// flowRoots groups loose top-level items under one synthetic root, keeping
// it ahead of the grouped entries.
func flowRoots(title string, entries []wireNode) []*domain.ObligationNode {
	loose := &domain.ObligationNode{Heading: domain.CoalesceStr(strings.TrimSpace(title), DefaultFlowHeading)}
	var groups []*domain.ObligationNode
	for _, e := range entries {
		if strings.TrimSpace(e.Code) != "" {
			loose.Items = append(loose.Items, toItem(e))
			continue
		}
		groups = append(groups, toNode(e))
	}
	if len(loose.Items) == 0 {
		return groups
	}
	return append([]*domain.ObligationNode{loose}, groups...)
}

func toNode(w wireNode) *domain.ObligationNode {
	n := &domain.ObligationNode{
		Heading: strings.TrimSpace(domain.CoalesceStr(w.Heading, w.Title, w.Name)),
	}
	for _, group := range [][]wireNode{w.Items, w.Compliances} {
		for _, item := range group {
			if strings.TrimSpace(item.Code) == "" {
				// Item lists occasionally nest a sub-group; keep it as a branch.
				n.SubBranches = append(n.SubBranches, toNode(item))
				continue
			}
			n.Items = append(n.Items, toItem(item))
		}
	}
	for _, group := range [][]wireNode{w.SubBranches, w.Branches, w.Children} {
		for _, child := range group {
			n.SubBranches = append(n.SubBranches, toNode(child))
		}
	}
	return n
}

func toItem(w wireNode) domain.ObligationItem {
	return domain.ObligationItem{
		Code:      strings.TrimSpace(w.Code),
		Name:      strings.TrimSpace(domain.CoalesceStr(w.Name, w.Title, w.Heading, w.Code)),
		Category:  nonBlank(w.Category),
		DueDate:   nonBlank(w.DueDate),
		Reminders: nonBlank(w.Reminders),
	}
}

func nonBlank(p *string) *string {
	if p == nil {
		return nil
	}
	return domain.StrPtr(strings.TrimSpace(*p))
}
