package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/garyjia/travel-voucher/pkg/utils"
	"github.com/shopspring/decimal"
)

// TripInput is a trip as entered by the claimant
type TripInput struct {
	ClaimantID  string
	TripDate    time.Time
	Origin      string
	Destination string
	AvoidTolls  bool
	// Miles is resolved from the addresses when nil
	Miles   *decimal.Decimal
	Lodging decimal.Decimal
	Meals   decimal.Decimal
	Other   decimal.Decimal
	Purpose string
}

// TripService records and lists logged trips
type TripService interface {
	RecordTrip(ctx context.Context, input TripInput) (*entity.Trip, error)
	ListTrips(ctx context.Context, claimantID string, month, year int) ([]*entity.Trip, error)
}

type tripServiceImpl struct {
	trips   port.TripRepository
	mileage MileageService
	logger  Logger
}

// NewTripService creates a new TripService
func NewTripService(trips port.TripRepository, mileage MileageService, logger Logger) TripService {
	return &tripServiceImpl{
		trips:   trips,
		mileage: mileage,
		logger:  loggerOrNop(logger),
	}
}

// RecordTrip validates and stores a trip, resolving its miles when not supplied
func (s *tripServiceImpl) RecordTrip(ctx context.Context, input TripInput) (*entity.Trip, error) {
	trip := &entity.Trip{
		ClaimantID:  utils.SanitizeString(input.ClaimantID),
		TripDate:    input.TripDate.UTC().Truncate(24 * time.Hour),
		Origin:      utils.SanitizeString(input.Origin),
		Destination: utils.SanitizeString(input.Destination),
		AvoidTolls:  input.AvoidTolls,
		Lodging:     input.Lodging.Round(2),
		Meals:       input.Meals.Round(2),
		Other:       input.Other.Round(2),
		Purpose:     utils.SanitizeString(input.Purpose),
	}

	if err := validateTrip(trip); err != nil {
		return nil, err
	}

	if input.Miles != nil {
		if err := utils.ValidateAmount("miles", *input.Miles); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
		}
		trip.Miles = input.Miles.Round(1)
	} else {
		result := s.mileage.Resolve(ctx, trip.Origin, trip.Destination, trip.AvoidTolls)
		trip.Miles = result.Miles
		trip.MilesEstimated = result.UsedFallback
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		s.logger.Error("Failed to record trip", "error", err, "claimant_id", trip.ClaimantID)
		return nil, fmt.Errorf("create trip: %w", err)
	}

	s.logger.Info("Trip recorded",
		"trip_id", trip.ID,
		"claimant_id", trip.ClaimantID,
		"miles", trip.Miles.String(),
		"estimated", trip.MilesEstimated,
	)

	return trip, nil
}

// ListTrips returns the claimant's trips in a calendar month
func (s *tripServiceImpl) ListTrips(ctx context.Context, claimantID string, month, year int) ([]*entity.Trip, error) {
	if err := utils.ValidatePeriod(month, year); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	return s.trips.ListForClaimantAndPeriod(ctx, claimantID, month, year)
}

func validateTrip(trip *entity.Trip) error {
	switch {
	case trip.ClaimantID == "":
		return fmt.Errorf("%w: claimant id is required", entity.ErrValidation)
	case trip.TripDate.IsZero():
		return fmt.Errorf("%w: trip date is required", entity.ErrValidation)
	case trip.Origin == "" || trip.Destination == "":
		return fmt.Errorf("%w: origin and destination are required", entity.ErrValidation)
	}

	amounts := map[string]decimal.Decimal{
		"lodging": trip.Lodging,
		"meals":   trip.Meals,
		"other":   trip.Other,
	}
	for field, amount := range amounts {
		if err := utils.ValidateAmount(field, amount); err != nil {
			return fmt.Errorf("%w: %v", entity.ErrValidation, err)
		}
	}
	return nil
}
