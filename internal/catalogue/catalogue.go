// Package catalogue holds the normalized obligation tree and the lookups the
// selection engine needs (subtree items, labels, stable node IDs).
package catalogue

import (
	"strconv"
	"strings"

	"github.com/alexanderramin/comply/internal/domain"
)

const (
	// IDSeparator joins index segments of a node ID ("0/2/1").
	IDSeparator = "/"
	// LabelSeparator joins headings for display ("GST > Returns").
	LabelSeparator = " > "
)

// Catalogue is an immutable, indexed obligation tree.
type Catalogue struct {
	Roots []*domain.ObligationNode

	byID    map[string]*domain.ObligationNode
	parents map[string]string
	items   map[string]domain.ObligationItem
	order   []string // item codes in first-seen pre-order
}

// New prunes unselectable nodes, assigns index-path IDs and builds the
// lookup tables. New takes ownership of roots.
func New(roots []*domain.ObligationNode) *Catalogue {
	c := &Catalogue{
		byID:    make(map[string]*domain.ObligationNode),
		parents: make(map[string]string),
		items:   make(map[string]domain.ObligationItem),
	}
	c.Roots = prune(roots)
	for i, n := range c.Roots {
		c.index(n, strconv.Itoa(i), "")
	}
	return c
}

func prune(nodes []*domain.ObligationNode) []*domain.ObligationNode {
	kept := make([]*domain.ObligationNode, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		n.SubBranches = prune(n.SubBranches)
		if n.Selectable() {
			kept = append(kept, n)
		}
	}
	return kept
}

func (c *Catalogue) index(n *domain.ObligationNode, id, parentID string) {
	n.ID = id
	c.byID[id] = n
	if parentID != "" {
		c.parents[id] = parentID
	}
	for _, item := range n.Items {
		if _, seen := c.items[item.Code]; !seen {
			c.items[item.Code] = item
			c.order = append(c.order, item.Code)
		}
	}
	for i, child := range n.SubBranches {
		c.index(child, id+IDSeparator+strconv.Itoa(i), id)
	}
}

// Node returns the node with the given ID.
func (c *Catalogue) Node(id string) (*domain.ObligationNode, bool) {
	n, ok := c.byID[id]
	return n, ok
}

// Item returns the catalogue entry for code.
func (c *Catalogue) Item(code string) (domain.ObligationItem, bool) {
	item, ok := c.items[code]
	return item, ok
}

// ItemCount returns the number of distinct codes in the catalogue.
func (c *Catalogue) ItemCount() int {
	return len(c.order)
}

// AllItems returns every distinct item in pre-order.
func (c *Catalogue) AllItems() []domain.ObligationItem {
	out := make([]domain.ObligationItem, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.items[code])
	}
	return out
}

// Items returns every item under the node (its own and all descendants'),
// de-duplicated by code with the first occurrence kept.
func (c *Catalogue) Items(id string) []domain.ObligationItem {
	n, ok := c.byID[id]
	if !ok {
		return nil
	}
	return SubtreeItems(n)
}

// SubtreeItems collects a node's items depth-first, de-duplicated by code.
func SubtreeItems(n *domain.ObligationNode) []domain.ObligationItem {
	seen := make(map[string]bool)
	var out []domain.ObligationItem
	var walk func(*domain.ObligationNode)
	walk = func(node *domain.ObligationNode) {
		for _, item := range node.Items {
			if seen[item.Code] {
				continue
			}
			seen[item.Code] = true
			out = append(out, item)
		}
		for _, child := range node.SubBranches {
			walk(child)
		}
	}
	walk(n)
	return out
}

// Parent returns the parent ID of a node, or "" for roots.
func (c *Catalogue) Parent(id string) string {
	return c.parents[id]
}

// Label returns the heading chain for a node, e.g. "GST > Returns".
func (c *Catalogue) Label(id string) string {
	var parts []string
	for cur := id; cur != ""; cur = c.parents[cur] {
		n, ok := c.byID[cur]
		if !ok {
			break
		}
		parts = append(parts, n.Heading)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, LabelSeparator)
}

// Depth returns the number of ancestors of the node.
func Depth(id string) int {
	return strings.Count(id, IDSeparator)
}

// Walk visits nodes in pre-order. Returning false from fn skips the node's
// children.
func (c *Catalogue) Walk(fn func(n *domain.ObligationNode, depth int) bool) {
	var walk func(nodes []*domain.ObligationNode, depth int)
	walk = func(nodes []*domain.ObligationNode, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.SubBranches, depth+1)
			}
		}
	}
	walk(c.Roots, 0)
}

// NodeIDs returns every node ID in pre-order.
func (c *Catalogue) NodeIDs() []string {
	var ids []string
	c.Walk(func(n *domain.ObligationNode, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}
