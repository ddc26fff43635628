package models

// Status is the lifecycle state shared by accounts and credit cards.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusDisabled Status = "Disabled"
)

// allowed transitions: Pending->Approved, Pending->Disabled, Approved->Disabled
var statusTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusDisabled},
	StatusApproved: {StatusDisabled},
	StatusDisabled: {},
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is an allowed
// lifecycle transition.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
