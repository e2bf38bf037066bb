package workflow

import (
	"context"

	"github.com/garyjia/travel-voucher/internal/domain/entity"
	domainwf "github.com/garyjia/travel-voucher/internal/domain/workflow"
)

// Role is the coarse system role of a caller, distinct from Position
type Role string

const (
	RoleEmployee     Role = "employee"
	RoleFleetManager Role = "fleet_manager"
)

// SubmitInput carries claimant form data collected at submission
type SubmitInput struct {
	// Signature is the employee's typed signature; generated when empty
	Signature string
}

// FinalApproverMeta describes the caller of a final approval
type FinalApproverMeta struct {
	Role        Role
	DisplayName string
}

// RejectInput describes a rejection request
type RejectInput struct {
	ActorID string
	Role    Role
	Reason  string
}

// VoucherLifecycle drives vouchers through submission, approval,
// rejection, reopening and deletion.
type VoucherLifecycle interface {
	Submit(ctx context.Context, voucherID int64, claimantID string, input SubmitInput) (*entity.Voucher, error)
	ApproveAsFirstApprover(ctx context.Context, voucherID int64, approverID string) (*entity.Voucher, error)
	ApproveAsFinalApprover(ctx context.Context, voucherID int64, approverID string, meta FinalApproverMeta) (*entity.Voucher, error)
	Reject(ctx context.Context, voucherID int64, input RejectInput) (*entity.Voucher, error)
	Reopen(ctx context.Context, voucherID int64, ownerID string) (*entity.Voucher, error)
	Delete(ctx context.Context, voucherID int64, ownerID string) error

	// AvailableActions lists the triggers the voucher's status and route allow
	AvailableActions(ctx context.Context, voucherID int64) ([]domainwf.Trigger, error)
}
