// invoice/status.go
package invoice

// Status is the invoice triage state.
type Status string

// Status constants used by the invoice state machine.
const (
	StatusNew       Status = "new"
	StatusUploaded  Status = "uploaded"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusRepair    Status = "repair"
	StatusCompleted Status = "completed"
	StatusRemoved   Status = "removed"
)

var transitions = map[Status]map[Status]struct{}{
	StatusNew: {
		StatusApproved: {},
		StatusRejected: {},
		StatusRepair:   {},
		StatusRemoved:  {},
	},
	StatusUploaded: {
		StatusApproved: {},
		StatusRejected: {},
		StatusRepair:   {},
		StatusRemoved:  {},
	},
	StatusApproved: {
		StatusCompleted: {},
		StatusRejected:  {},
		StatusRepair:    {},
		StatusRemoved:   {},
	},
	StatusRejected: {
		StatusRemoved: {},
	},
	StatusRepair: {
		StatusApproved: {},
		StatusRejected: {},
		StatusRemoved:  {},
	},
	StatusCompleted: {
		StatusRemoved: {},
	},
	StatusRemoved: {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition returns whether an invoice can move from the current
// status to the target status.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// ApprovedFor returns the only approved flag consistent with a status:
// approved=true is valid solely in the approved and completed states.
func ApprovedFor(s Status) bool {
	return s == StatusApproved || s == StatusCompleted
}

// Normalize corrects an inconsistent status/approved pair. The status
// wins; the flag is derived from it.
func Normalize(s Status, approved bool) (Status, bool) {
	if !s.Valid() {
		return s, approved
	}
	return s, ApprovedFor(s)
}
