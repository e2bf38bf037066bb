package workflow

// State represents a voucher lifecycle state
type State string

const (
	StateDraft              State = "draft"
	StateSubmitted          State = "submitted"
	StateSupervisorApproved State = "supervisor_approved"
	StateApproved           State = "approved"
	StateRejected           State = "rejected"

	// StateDeleted is never persisted; reaching it means the row is removed.
	StateDeleted State = "deleted"
)

var validStates = map[State]bool{
	StateDraft:              true,
	StateSubmitted:          true,
	StateSupervisorApproved: true,
	StateApproved:           true,
	StateRejected:           true,
	StateDeleted:            true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateDeleted:  true,
}

// IsTerminal returns true if no transition leaves the state.
// Rejected is not terminal because it can be reopened.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
