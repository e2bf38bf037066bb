package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerSubmit       Trigger = "submit"
	TriggerApproveFirst Trigger = "approve_first"
	TriggerApproveFinal Trigger = "approve_final"
	TriggerReject       Trigger = "reject"
	TriggerReopen       Trigger = "reopen"
	TriggerDelete       Trigger = "delete"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
