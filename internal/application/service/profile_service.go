package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/garyjia/travel-voucher/pkg/utils"
	"github.com/shopspring/decimal"
)

// ProfileInput is the editable part of a user profile
type ProfileInput struct {
	UserID              string
	DisplayName         string
	Position            entity.Position
	PersonalMileageRate decimal.NullDecimal
	LarkOpenID          string
}

// ProfileService maintains the profiles approval routing reads
type ProfileService interface {
	SaveProfile(ctx context.Context, input ProfileInput) (*entity.Profile, error)
	// UpdateContact changes the display name and messaging id only, keeping
	// the assigned position and personal rate.
	UpdateContact(ctx context.Context, input ProfileInput) (*entity.Profile, error)
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
}

type profileServiceImpl struct {
	profiles port.ProfileRepository
	logger   Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(profiles port.ProfileRepository, logger Logger) ProfileService {
	return &profileServiceImpl{
		profiles: profiles,
		logger:   loggerOrNop(logger),
	}
}

// SaveProfile creates or replaces a profile. An empty position is allowed
// and blocks submission until one is assigned.
func (s *profileServiceImpl) SaveProfile(ctx context.Context, input ProfileInput) (*entity.Profile, error) {
	profile := &entity.Profile{
		UserID:              utils.SanitizeString(input.UserID),
		DisplayName:         utils.SanitizeString(input.DisplayName),
		Position:            input.Position,
		PersonalMileageRate: input.PersonalMileageRate,
		LarkOpenID:          utils.SanitizeString(input.LarkOpenID),
	}

	switch {
	case profile.UserID == "":
		return nil, fmt.Errorf("%w: user id is required", entity.ErrValidation)
	case profile.Position.IsSet() && !profile.Position.IsValid():
		return nil, fmt.Errorf("%w: unknown position %q", entity.ErrValidation, profile.Position)
	case profile.PersonalMileageRate.Valid && !profile.PersonalMileageRate.Decimal.IsPositive():
		return nil, fmt.Errorf("%w: personal mileage rate must be positive", entity.ErrValidation)
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		s.logger.Error("Failed to save profile", "error", err, "user_id", profile.UserID)
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.logger.Info("Profile saved", "user_id", profile.UserID, "position", profile.Position.String())
	return s.profiles.GetProfile(ctx, profile.UserID)
}

// UpdateContact changes the self-editable fields of a profile. A missing
// profile is created without a position.
func (s *profileServiceImpl) UpdateContact(ctx context.Context, input ProfileInput) (*entity.Profile, error) {
	userID := utils.SanitizeString(input.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", entity.ErrValidation)
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		profile = &entity.Profile{UserID: userID}
	case err != nil:
		return nil, err
	}

	return s.SaveProfile(ctx, ProfileInput{
		UserID:              userID,
		DisplayName:         input.DisplayName,
		Position:            profile.Position,
		PersonalMileageRate: profile.PersonalMileageRate,
		LarkOpenID:          input.LarkOpenID,
	})
}

// GetProfile returns the profile or entity.ErrNotFound
func (s *profileServiceImpl) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	return s.profiles.GetProfile(ctx, userID)
}
