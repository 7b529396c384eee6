package domain

// ObligationItem is a single selectable compliance obligation. Code is unique
// across the whole catalogue and is the selection key.
type ObligationItem struct {
	Code      string
	Name      string
	Category  *string
	DueDate   *string // free text from the catalogue, e.g. "20th of every month"
	Reminders *string
}

// ObligationNode is a branch of the obligation catalogue.
type ObligationNode struct {
	// ID is assigned at load time from the node's index path ("0/2/1") and
	// stays unique even when sibling headings collide.
	ID          string
	Heading     string
	Items       []ObligationItem
	SubBranches []*ObligationNode
}

// Selectable reports whether the node carries anything an operator can pick.
func (n *ObligationNode) Selectable() bool {
	if n == nil {
		return false
	}
	if len(n.Items) > 0 {
		return true
	}
	for _, b := range n.SubBranches {
		if b.Selectable() {
			return true
		}
	}
	return false
}
