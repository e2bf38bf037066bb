package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/garyjia/travel-voucher/internal/infrastructure/persistence/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProfileRepository implements port.ProfileRepository
type ProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert creates or replaces a profile
func (r *ProfileRepository) Upsert(ctx context.Context, p *entity.Profile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, position, personal_mileage_rate, lark_open_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			position = excluded.position,
			personal_mileage_rate = excluded.personal_mileage_rate,
			lark_open_id = excluded.lark_open_id,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		p.UserID, p.DisplayName, p.Position, p.PersonalMileageRate, p.LarkOpenID, now, now)
	if err != nil {
		r.logger.Error("Failed to upsert profile", zap.String("user_id", p.UserID), zap.Error(err))
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	p.UpdatedAt = now
	return nil
}

// GetProfile retrieves a profile by user ID
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	query := `
		SELECT user_id, display_name, position, personal_mileage_rate, lark_open_id, created_at, updated_at
		FROM profiles
		WHERE user_id = ?
	`

	var p entity.Profile
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.DisplayName,
		&p.Position,
		&p.PersonalMileageRate,
		&p.LarkOpenID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get profile", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// GetPosition returns the user's position, empty when unassigned
func (r *ProfileRepository) GetPosition(ctx context.Context, userID string) (entity.Position, error) {
	p, err := r.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.Position, nil
}

// GetPersonalMileageRate returns the user's personal rate, invalid when unset
func (r *ProfileRepository) GetPersonalMileageRate(ctx context.Context, userID string) (decimal.NullDecimal, error) {
	p, err := r.GetProfile(ctx, userID)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return p.PersonalMileageRate, nil
}

var _ port.ProfileRepository = (*ProfileRepository)(nil)
