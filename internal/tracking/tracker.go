// Package tracking implements the per-assignment instance editor: persisted
// instances, locally staged done/pending edits, and the done-set a save
// submits.
package tracking

import (
	"sort"

	"github.com/alexanderramin/comply/internal/domain"
)

// Counts summarises effective status across an assignment's instances.
type Counts struct {
	Total   int
	Done    int
	Pending int
	Edited  int // staged edits that differ from the persisted value
}

// Tracker holds one assignment's instances and the unsaved edits against
// them. An instance's effective status is its staged edit when one exists,
// otherwise its persisted IsDone.
type Tracker struct {
	assignment domain.Assignment
	edits      map[string]bool
}

// New loads an assignment, sorting its instances by due date.
func New(a domain.Assignment) *Tracker {
	t := &Tracker{edits: make(map[string]bool)}
	t.load(a)
	return t
}

func (t *Tracker) load(a domain.Assignment) {
	instances := make([]domain.Instance, len(a.Instances))
	copy(instances, a.Instances)
	sort.SliceStable(instances, func(i, j int) bool {
		if !instances[i].DueDate.Equal(instances[j].DueDate) {
			return instances[i].DueDate.Before(instances[j].DueDate)
		}
		return instances[i].ID < instances[j].ID
	})
	a.Instances = instances
	t.assignment = a
}

// Assignment returns the loaded assignment with instances in display order.
func (t *Tracker) Assignment() domain.Assignment {
	return t.assignment
}

// Instances returns the persisted instances in display order.
func (t *Tracker) Instances() []domain.Instance {
	return t.assignment.Instances
}

// Toggle flips the effective status of an instance by staging an edit.
// It returns false for IDs that are not part of the assignment.
func (t *Tracker) Toggle(id string) bool {
	inst, ok := t.assignment.InstanceByID(id)
	if !ok {
		return false
	}
	current, edited := t.edits[id]
	if !edited {
		current = inst.IsDone
	}
	t.edits[id] = !current
	return true
}

// Effective returns the status shown to the operator for an instance.
func (t *Tracker) Effective(inst domain.Instance) bool {
	if v, ok := t.edits[inst.ID]; ok {
		return v
	}
	return inst.IsDone
}

// EffectiveByID is Effective keyed by ID; unknown IDs report false.
func (t *Tracker) EffectiveByID(id string) bool {
	inst, ok := t.assignment.InstanceByID(id)
	if !ok {
		return false
	}
	return t.Effective(inst)
}

// Edit returns the staged value for an instance, if any.
func (t *Tracker) Edit(id string) (bool, bool) {
	v, ok := t.edits[id]
	return v, ok
}

// DoneSet lists every instance whose effective status is done, in display
// order. This is the full set a save submits, not just the edited ones.
func (t *Tracker) DoneSet() []string {
	var ids []string
	for _, inst := range t.assignment.Instances {
		if t.Effective(inst) {
			ids = append(ids, inst.ID)
		}
	}
	return ids
}

// Dirty reports whether any edit is staged.
func (t *Tracker) Dirty() bool {
	return len(t.edits) > 0
}

// Changed lists the instances whose staged edit differs from the persisted
// status, in display order.
func (t *Tracker) Changed() []string {
	var ids []string
	for _, inst := range t.assignment.Instances {
		if v, ok := t.edits[inst.ID]; ok && v != inst.IsDone {
			ids = append(ids, inst.ID)
		}
	}
	return ids
}

// Counts summarises the effective state.
func (t *Tracker) Counts() Counts {
	c := Counts{Total: len(t.assignment.Instances)}
	for _, inst := range t.assignment.Instances {
		if t.Effective(inst) {
			c.Done++
		} else {
			c.Pending++
		}
		if v, ok := t.edits[inst.ID]; ok && v != inst.IsDone {
			c.Edited++
		}
	}
	return c
}

// Discard drops every staged edit.
func (t *Tracker) Discard() {
	clear(t.edits)
}

// Reconcile replaces the persisted instances with a freshly fetched copy of
// the assignment. Staged edits survive for instances that still exist.
func (t *Tracker) Reconcile(a domain.Assignment) {
	t.load(a)
	for id := range t.edits {
		if _, ok := t.assignment.InstanceByID(id); !ok {
			delete(t.edits, id)
		}
	}
}

// ApplyDone marks exactly the given instances done locally and drops the
// staged edits. Used when a save was accepted but the refetch failed.
func (t *Tracker) ApplyDone(ids []string) {
	done := make(map[string]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	for i := range t.assignment.Instances {
		t.assignment.Instances[i].IsDone = done[t.assignment.Instances[i].ID]
	}
	t.Discard()
}
