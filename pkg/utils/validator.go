package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	minVoucherYear = 2000
	maxVoucherYear = 2100
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// ValidatePeriod checks a voucher month and year
func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12: %d", month)
	}
	if year < minVoucherYear || year > maxVoucherYear {
		return fmt.Errorf("year must be between %d and %d: %d", minVoucherYear, maxVoucherYear, year)
	}
	return nil
}

// ValidateAmount rejects negative money or mileage values
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%s must not be negative: %s", field, amount.String())
	}
	return nil
}

// SanitizeString strips control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
