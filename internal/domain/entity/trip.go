package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripDateLayout is the storage and wire layout of trip dates
const TripDateLayout = "2006-01-02"

// Trip is a single logged journey with its expenses
type Trip struct {
	ID             int64           `json:"id"`
	ClaimantID     string          `json:"claimant_id"`
	TripDate       time.Time       `json:"trip_date"`
	Origin         string          `json:"origin"`
	Destination    string          `json:"destination"`
	AvoidTolls     bool            `json:"avoid_tolls"`
	Miles          decimal.Decimal `json:"miles"`
	MilesEstimated bool            `json:"miles_estimated"`
	Lodging        decimal.Decimal `json:"lodging"`
	Meals          decimal.Decimal `json:"meals"`
	Other          decimal.Decimal `json:"other"`
	Purpose        string          `json:"purpose,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
