package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherStatus is the lifecycle status of a monthly voucher
type VoucherStatus string

const (
	VoucherStatusDraft              VoucherStatus = "draft"
	VoucherStatusSubmitted          VoucherStatus = "submitted"
	VoucherStatusSupervisorApproved VoucherStatus = "supervisor_approved"
	VoucherStatusApproved           VoucherStatus = "approved"
	VoucherStatusRejected           VoucherStatus = "rejected"
)

// String returns the string representation of the status
func (s VoucherStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a known voucher status
func (s VoucherStatus) IsValid() bool {
	switch s {
	case VoucherStatusDraft,
		VoucherStatusSubmitted,
		VoucherStatusSupervisorApproved,
		VoucherStatusApproved,
		VoucherStatusRejected:
		return true
	default:
		return false
	}
}

// Voucher aggregates one claimant's trips for a calendar month
type Voucher struct {
	ID         int64         `json:"id"`
	ClaimantID string        `json:"claimant_id"`
	Month      int           `json:"month"`
	Year       int           `json:"year"`
	Status     VoucherStatus `json:"status"`

	// Aggregates are frozen when the voucher is created
	TotalMiles    decimal.Decimal `json:"total_miles"`
	MileageRate   decimal.Decimal `json:"mileage_rate"`
	MileageAmount decimal.Decimal `json:"mileage_amount"`
	TotalLodging  decimal.Decimal `json:"total_lodging"`
	TotalMeals    decimal.Decimal `json:"total_meals"`
	TotalOther    decimal.Decimal `json:"total_other"`
	TotalAmount   decimal.Decimal `json:"total_amount"`

	// Routing metadata, stamped at submission
	SubmittedPosition      Position `json:"submitted_position,omitempty"`
	RequiredFirstApprover  string   `json:"required_first_approver,omitempty"`
	RequiredSecondApprover *string  `json:"required_second_approver,omitempty"`
	Tier                   int      `json:"tier,omitempty"`
	SkipSupervisorApproval bool     `json:"skip_supervisor_approval"`

	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	EmployeeSignature string     `json:"employee_signature,omitempty"`

	SupervisorID         string     `json:"supervisor_id,omitempty"`
	SupervisorApprovedAt *time.Time `json:"supervisor_approved_at,omitempty"`
	SupervisorSignature  string     `json:"supervisor_signature,omitempty"`

	FleetManagerID  string     `json:"fleet_manager_id,omitempty"`
	FleetApprovedAt *time.Time `json:"fleet_approved_at,omitempty"`
	FleetSignature  string     `json:"fleet_signature,omitempty"`

	RejectedBy      string     `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOwnedBy reports whether userID is the voucher's claimant
func (v *Voucher) IsOwnedBy(userID string) bool {
	return userID != "" && v.ClaimantID == userID
}

// PeriodStart returns the first day of the voucher month in UTC
func (v *Voucher) PeriodStart() time.Time {
	return time.Date(v.Year, time.Month(v.Month), 1, 0, 0, 0, 0, time.UTC)
}

// ComponentSum returns mileage amount plus all expense totals
func (v *Voucher) ComponentSum() decimal.Decimal {
	return v.MileageAmount.Add(v.TotalLodging).Add(v.TotalMeals).Add(v.TotalOther)
}

// ClearSubmission resets routing metadata, submission data and the
// approval trail. Aggregates are left untouched.
func (v *Voucher) ClearSubmission() {
	v.SubmittedPosition = ""
	v.RequiredFirstApprover = ""
	v.RequiredSecondApprover = nil
	v.Tier = 0
	v.SkipSupervisorApproval = false

	v.SubmittedAt = nil
	v.EmployeeSignature = ""

	v.SupervisorID = ""
	v.SupervisorApprovedAt = nil
	v.SupervisorSignature = ""

	v.FleetManagerID = ""
	v.FleetApprovedAt = nil
	v.FleetSignature = ""

	v.RejectedBy = ""
	v.RejectedAt = nil
	v.RejectionReason = ""
}

// Clone returns a deep copy of the voucher
func (v *Voucher) Clone() *Voucher {
	c := *v
	c.RequiredSecondApprover = cloneString(v.RequiredSecondApprover)
	c.SubmittedAt = cloneTime(v.SubmittedAt)
	c.SupervisorApprovedAt = cloneTime(v.SupervisorApprovedAt)
	c.FleetApprovedAt = cloneTime(v.FleetApprovedAt)
	c.RejectedAt = cloneTime(v.RejectedAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
