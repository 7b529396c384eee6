package domain

import "time"

// OrgRef identifies the client organisation an assignment belongs to.
type OrgRef struct {
	ID   string
	Name string
}

// ComplianceRef is the obligation an assignment was created from.
type ComplianceRef struct {
	Code        string
	Name        string
	Category    *string
	Description *string
}

// Instance is one dated occurrence of an assigned obligation.
type Instance struct {
	ID        string
	DueDate   time.Time
	YearMonth *string
	IsDone    bool
}

// Assignment binds an obligation to a user (and optionally an organisation).
// Assignments are created by the backend; this module only reads them.
type Assignment struct {
	ID           string
	Organisation *OrgRef
	Compliance   ComplianceRef
	Instances    []Instance
}

// CompletedCount returns the number of persisted done instances.
func (a *Assignment) CompletedCount() int {
	n := 0
	for _, inst := range a.Instances {
		if inst.IsDone {
			n++
		}
	}
	return n
}

// InstanceByID returns the instance with the given ID.
func (a *Assignment) InstanceByID(id string) (Instance, bool) {
	for _, inst := range a.Instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return Instance{}, false
}
