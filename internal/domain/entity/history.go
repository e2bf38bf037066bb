package entity

import "time"

// VoucherHistory is one entry in a voucher's transition audit trail
type VoucherHistory struct {
	ID             int64         `json:"id"`
	VoucherID      int64         `json:"voucher_id"`
	ActorID        string        `json:"actor_id"`
	Action         string        `json:"action"`
	PreviousStatus VoucherStatus `json:"previous_status"`
	NewStatus      VoucherStatus `json:"new_status"`
	Note           string        `json:"note,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
