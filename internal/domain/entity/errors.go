package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a required field is missing or malformed
	ErrValidation = errors.New("validation failed")

	// ErrPositionNotSet is returned when a claimant without a position submits
	ErrPositionNotSet = fmt.Errorf("%w: claimant position is not set", ErrValidation)

	// ErrReasonRequired is returned when a rejection carries no reason
	ErrReasonRequired = fmt.Errorf("%w: rejection reason is required", ErrValidation)

	// ErrNotFound is returned when a voucher, trip or profile does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicatePeriod is returned when a voucher already exists for the claimant and month
	ErrDuplicatePeriod = errors.New("a voucher already exists for this period")

	// ErrNoTripsFound is returned when the claimant logged no trips in the month
	ErrNoTripsFound = errors.New("no trips found for this period")

	// ErrInvalidTransition is returned when the voucher status does not allow the action
	ErrInvalidTransition = errors.New("invalid voucher transition")

	// ErrUnauthorizedApprover is returned when the approver's position may not approve the claimant
	ErrUnauthorizedApprover = errors.New("approver is not authorized for this voucher")

	// ErrNotOwner is returned when a claimant-only action is attempted by someone else
	ErrNotOwner = errors.New("only the voucher owner may perform this action")

	// ErrConflict is returned when a conditional status update lost a race
	ErrConflict = errors.New("voucher was modified concurrently")
)

// TransitionError describes why an action is not legal in the voucher's current status
type TransitionError struct {
	Status VoucherStatus
	Action string
	Rule   string
}

// NewTransitionError builds a TransitionError using the default rule for the status
func NewTransitionError(status VoucherStatus, action string) *TransitionError {
	return &TransitionError{
		Status: status,
		Action: action,
		Rule:   status.BlockingRule(),
	}
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s voucher in status %s: %s", e.Action, e.Status, e.Rule)
}

// Is matches ErrInvalidTransition
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// BlockingRule returns the user-facing reason a status blocks most actions
func (s VoucherStatus) BlockingRule() string {
	switch s {
	case VoucherStatusDraft:
		return "voucher has not been submitted yet"
	case VoucherStatusSubmitted:
		return "voucher has already been submitted"
	case VoucherStatusSupervisorApproved:
		return "voucher has already been approved by a supervisor"
	case VoucherStatusApproved:
		return "voucher has already been approved"
	case VoucherStatusRejected:
		return "voucher has been rejected and must be reopened first"
	default:
		return "voucher status is unknown"
	}
}
