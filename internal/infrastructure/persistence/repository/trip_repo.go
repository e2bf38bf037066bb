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

const tripColumns = `
	t.id, t.claimant_id, t.trip_date, t.origin, t.destination, t.avoid_tolls,
	t.miles, t.miles_estimated, t.lodging, t.meals, t.other, t.purpose, t.created_at`

// TripRepository implements port.TripRepository
type TripRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB, logger *zap.Logger) *TripRepository {
	return &TripRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new trip and sets its ID
func (r *TripRepository) Create(ctx context.Context, trip *entity.Trip) error {
	query := `
		INSERT INTO trips (
			claimant_id, trip_date, origin, destination, avoid_tolls,
			miles, miles_estimated, lodging, meals, other, purpose, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		trip.ClaimantID,
		formatDate(trip.TripDate),
		trip.Origin,
		trip.Destination,
		trip.AvoidTolls,
		trip.Miles,
		trip.MilesEstimated,
		trip.Lodging,
		trip.Meals,
		trip.Other,
		trip.Purpose,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create trip", zap.String("claimant_id", trip.ClaimantID), zap.Error(err))
		return fmt.Errorf("failed to create trip: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	trip.ID = id
	trip.CreatedAt = now
	return nil
}

// GetByID retrieves a trip by ID
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*entity.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips t WHERE t.id = ?`

	trip, err := scanTrip(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %d: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get trip", zap.Int64("trip_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListForClaimantAndPeriod returns the claimant's trips dated within the month
func (r *TripRepository) ListForClaimantAndPeriod(ctx context.Context, claimantID string, month, year int) ([]*entity.Trip, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `SELECT ` + tripColumns + `
		FROM trips t
		WHERE t.claimant_id = ? AND t.trip_date >= ? AND t.trip_date < ?
		ORDER BY t.trip_date ASC, t.id ASC`

	trips, err := r.query(ctx, query, claimantID, formatDate(start), formatDate(end))
	if err != nil {
		r.logger.Error("Failed to list trips for period",
			zap.String("claimant_id", claimantID),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// ListByVoucherID returns the trips linked to a voucher
func (r *TripRepository) ListByVoucherID(ctx context.Context, voucherID int64) ([]*entity.Trip, error) {
	query := `SELECT ` + tripColumns + `
		FROM trips t
		JOIN voucher_trips vt ON vt.trip_id = t.id
		WHERE vt.voucher_id = ?
		ORDER BY t.trip_date ASC, t.id ASC`

	trips, err := r.query(ctx, query, voucherID)
	if err != nil {
		r.logger.Error("Failed to list trips for voucher", zap.Int64("voucher_id", voucherID), zap.Error(err))
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

func (r *TripRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Trip, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*entity.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func scanTrip(row rowScanner) (*entity.Trip, error) {
	var trip entity.Trip
	var tripDate string

	err := row.Scan(
		&trip.ID, &trip.ClaimantID, &tripDate, &trip.Origin, &trip.Destination, &trip.AvoidTolls,
		&trip.Miles, &trip.MilesEstimated, &trip.Lodging, &trip.Meals, &trip.Other, &trip.Purpose, &trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	trip.TripDate, err = parseDate(tripDate)
	if err != nil {
		return nil, fmt.Errorf("invalid trip_date %q: %w", tripDate, err)
	}
	return &trip, nil
}

var _ port.TripRepository = (*TripRepository)(nil)
