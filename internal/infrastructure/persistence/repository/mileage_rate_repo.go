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
	"go.uber.org/zap"
)

// MileageRateRepository implements port.MileageRateRepository
type MileageRateRepository struct {
	db        *sql.DB
	txManager port.TransactionManager
	logger    *zap.Logger
}

// NewMileageRateRepository creates a new mileage rate repository
func NewMileageRateRepository(db *sql.DB, txManager port.TransactionManager, logger *zap.Logger) *MileageRateRepository {
	return &MileageRateRepository{
		db:        db,
		txManager: txManager,
		logger:    logger,
	}
}

// Create stores a rate after checking that no existing range overlaps it
func (r *MileageRateRepository) Create(ctx context.Context, rate *entity.MileageRate) error {
	if err := rate.Validate(); err != nil {
		return err
	}

	return r.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := r.List(ctx)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if rate.Overlaps(other) {
				return fmt.Errorf("%w: range overlaps rate %d starting %s",
					entity.ErrValidation, other.ID, formatDate(other.EffectiveFrom))
			}
		}

		var effectiveTo interface{}
		if rate.EffectiveTo != nil {
			effectiveTo = formatDate(*rate.EffectiveTo)
		}

		now := time.Now().UTC()
		result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
			`INSERT INTO mileage_rates (rate, effective_from, effective_to, created_at) VALUES (?, ?, ?, ?)`,
			rate.Rate, formatDate(rate.EffectiveFrom), effectiveTo, now)
		if err != nil {
			r.logger.Error("Failed to create mileage rate", zap.Error(err))
			return fmt.Errorf("failed to create mileage rate: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		rate.ID = id
		rate.CreatedAt = now
		return nil
	})
}

// List returns all rates ordered by start date
func (r *MileageRateRepository) List(ctx context.Context) ([]*entity.MileageRate, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx,
		`SELECT id, rate, effective_from, effective_to, created_at FROM mileage_rates ORDER BY effective_from ASC`)
	if err != nil {
		r.logger.Error("Failed to list mileage rates", zap.Error(err))
		return nil, fmt.Errorf("failed to list mileage rates: %w", err)
	}
	defer rows.Close()

	var rates []*entity.MileageRate
	for rows.Next() {
		rate, err := scanMileageRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mileage rate: %w", err)
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

// GetEffectiveRate returns the most recent rate whose range covers date
func (r *MileageRateRepository) GetEffectiveRate(ctx context.Context, date time.Time) (*entity.MileageRate, error) {
	day := formatDate(date)
	query := `
		SELECT id, rate, effective_from, effective_to, created_at
		FROM mileage_rates
		WHERE effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)
		ORDER BY effective_from DESC
		LIMIT 1
	`

	rate, err := scanMileageRate(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, day, day))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mileage rate for %s: %w", day, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get effective mileage rate", zap.String("date", day), zap.Error(err))
		return nil, fmt.Errorf("failed to get mileage rate: %w", err)
	}
	return rate, nil
}

func scanMileageRate(row rowScanner) (*entity.MileageRate, error) {
	var rate entity.MileageRate
	var from string
	var to sql.NullString

	if err := row.Scan(&rate.ID, &rate.Rate, &from, &to, &rate.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if rate.EffectiveFrom, err = parseDate(from); err != nil {
		return nil, err
	}
	if to.Valid {
		end, err := parseDate(to.String)
		if err != nil {
			return nil, err
		}
		rate.EffectiveTo = &end
	}
	return &rate, nil
}

var _ port.MileageRateRepository = (*MileageRateRepository)(nil)
