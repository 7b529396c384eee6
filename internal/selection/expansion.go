package selection

import (
	"sort"
	"strings"
)

// Expansion tracks which branches are open. Keys are hierarchical: a key's
// descendants are exactly the keys that start with key+separator, so
// collapsing a branch also collapses everything below it.
type Expansion struct {
	sep      string
	expanded map[string]bool
}

// NewExpansion returns an empty Expansion for keys joined by sep.
func NewExpansion(sep string) *Expansion {
	return &Expansion{sep: sep, expanded: make(map[string]bool)}
}

// Toggle collapses key and its expanded descendants when key is open, and
// opens key otherwise. Ancestors are never opened implicitly.
func (e *Expansion) Toggle(key string) {
	if e.expanded[key] {
		e.Collapse(key)
		return
	}
	e.expanded[key] = true
}

// Collapse closes key and every expanded descendant.
func (e *Expansion) Collapse(key string) {
	delete(e.expanded, key)
	prefix := key + e.sep
	for k := range e.expanded {
		if strings.HasPrefix(k, prefix) {
			delete(e.expanded, k)
		}
	}
}

// IsExpanded reports whether key is open.
func (e *Expansion) IsExpanded(key string) bool {
	return e.expanded[key]
}

// ExpandAll opens every given key.
func (e *Expansion) ExpandAll(keys []string) {
	for _, k := range keys {
		e.expanded[k] = true
	}
}

// Expanded returns the open keys in ascending order.
func (e *Expansion) Expanded() []string {
	keys := make([]string, 0, len(e.expanded))
	for k := range e.expanded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset collapses everything.
func (e *Expansion) Reset() {
	clear(e.expanded)
}
