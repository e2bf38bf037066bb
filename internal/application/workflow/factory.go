package workflow

import (
	"context"

	"github.com/garyjia/travel-voucher/internal/domain/entity"
	domainwf "github.com/garyjia/travel-voucher/internal/domain/workflow"
)

// ruleError is a guard refusal carrying the user-facing rule
type ruleError string

func (e ruleError) Error() string {
	return string(e)
}

const (
	errRoutesToFinal     ruleError = "voucher routes directly to final approval"
	errAwaitingFirstStep ruleError = "voucher is awaiting first-level approval"
)

// BuildVoucherStateMachine creates the lifecycle state machine for a voucher.
// Guards close over the voucher's stamped routing metadata.
func BuildVoucherStateMachine(v *entity.Voucher) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	skips := func(ctx context.Context) error {
		if !v.SkipSupervisorApproval {
			return errAwaitingFirstStep
		}
		return nil
	}
	needsFirstStep := func(ctx context.Context) error {
		if v.SkipSupervisorApproval {
			return errRoutesToFinal
		}
		return nil
	}

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StateSubmitted).
		Permit(domainwf.TriggerDelete, domainwf.StateDeleted)

	builder.Configure(domainwf.StateSubmitted).
		PermitIf(domainwf.TriggerApproveFirst, domainwf.StateSupervisorApproved, needsFirstStep).
		PermitIf(domainwf.TriggerApproveFinal, domainwf.StateApproved, skips).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateSupervisorApproved).
		Permit(domainwf.TriggerApproveFinal, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateRejected).
		Permit(domainwf.TriggerReopen, domainwf.StateDraft)

	// approved is terminal

	return builder.Build(domainwf.State(v.Status))
}
