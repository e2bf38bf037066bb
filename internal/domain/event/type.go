package event

// Type identifies the type of domain event
type Type string

const (
	TypeVoucherCreated            Type = "voucher.created"
	TypeVoucherSubmitted          Type = "voucher.submitted"
	TypeVoucherSupervisorApproved Type = "voucher.supervisor_approved"
	TypeVoucherApproved           Type = "voucher.approved"
	TypeVoucherRejected           Type = "voucher.rejected"
	TypeVoucherReopened           Type = "voucher.reopened"
	TypeVoucherDeleted            Type = "voucher.deleted"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeVoucherCreated,
		TypeVoucherSubmitted,
		TypeVoucherSupervisorApproved,
		TypeVoucherApproved,
		TypeVoucherRejected,
		TypeVoucherReopened,
		TypeVoucherDeleted:
		return true
	default:
		return false
	}
}
