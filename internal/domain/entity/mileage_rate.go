package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MileageRate is an effective-dated reimbursement rate per mile.
// A nil EffectiveTo means the rate is open-ended.
type MileageRate struct {
	ID            int64           `json:"id"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Validate checks the rate value and the range bounds
func (r *MileageRate) Validate() error {
	if !r.Rate.IsPositive() {
		return fmt.Errorf("%w: mileage rate must be positive", ErrValidation)
	}
	if r.EffectiveFrom.IsZero() {
		return fmt.Errorf("%w: effective_from is required", ErrValidation)
	}
	if r.EffectiveTo != nil && r.EffectiveTo.Before(r.EffectiveFrom) {
		return fmt.Errorf("%w: effective_to precedes effective_from", ErrValidation)
	}
	return nil
}

// Covers reports whether date falls inside the rate's range, bounds inclusive
func (r *MileageRate) Covers(date time.Time) bool {
	if date.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || !date.After(*r.EffectiveTo)
}

// Overlaps reports whether two rate ranges share at least one day
func (r *MileageRate) Overlaps(other *MileageRate) bool {
	if r.EffectiveTo != nil && r.EffectiveTo.Before(other.EffectiveFrom) {
		return false
	}
	if other.EffectiveTo != nil && other.EffectiveTo.Before(r.EffectiveFrom) {
		return false
	}
	return true
}
