package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile holds the per-user data the voucher workflow reads
type Profile struct {
	UserID              string              `json:"user_id"`
	DisplayName         string              `json:"display_name"`
	Position            Position            `json:"position"`
	PersonalMileageRate decimal.NullDecimal `json:"personal_mileage_rate"`
	LarkOpenID          string              `json:"lark_open_id,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}
