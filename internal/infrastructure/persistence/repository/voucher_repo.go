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

const voucherColumns = `
	id, claimant_id, month, year, status,
	total_miles, mileage_rate, mileage_amount, total_lodging, total_meals, total_other, total_amount,
	submitted_position, required_first_approver, required_second_approver, tier, skip_supervisor_approval,
	submitted_at, employee_signature,
	supervisor_id, supervisor_approved_at, supervisor_signature,
	fleet_manager_id, fleet_approved_at, fleet_signature,
	rejected_by, rejected_at, rejection_reason,
	created_at, updated_at`

// VoucherRepository implements port.VoucherStore
type VoucherRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *sql.DB, logger *zap.Logger) *VoucherRepository {
	return &VoucherRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a new voucher and sets its ID. A second voucher for the
// same claimant and month fails with entity.ErrDuplicatePeriod.
func (r *VoucherRepository) Insert(ctx context.Context, v *entity.Voucher) error {
	query := `
		INSERT INTO vouchers (
			claimant_id, month, year, status,
			total_miles, mileage_rate, mileage_amount, total_lodging, total_meals, total_other, total_amount,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		v.ClaimantID,
		v.Month,
		v.Year,
		v.Status,
		v.TotalMiles,
		v.MileageRate,
		v.MileageAmount,
		v.TotalLodging,
		v.TotalMeals,
		v.TotalOther,
		v.TotalAmount,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicatePeriod
		}
		r.logger.Error("Failed to insert voucher",
			zap.String("claimant_id", v.ClaimantID),
			zap.Error(err))
		return fmt.Errorf("failed to insert voucher: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	v.ID = id
	v.CreatedAt = now
	v.UpdatedAt = now
	return nil
}

// GetByID retrieves a voucher by ID
func (r *VoucherRepository) GetByID(ctx context.Context, id int64) (*entity.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = ?`

	v, err := scanVoucher(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("voucher %d: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get voucher", zap.Int64("voucher_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	return v, nil
}

// GetByPeriod retrieves the claimant's voucher for a month
func (r *VoucherRepository) GetByPeriod(ctx context.Context, claimantID string, month, year int) (*entity.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE claimant_id = ? AND month = ? AND year = ?`

	v, err := scanVoucher(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, claimantID, month, year))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("voucher for %s %02d/%d: %w", claimantID, month, year, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get voucher by period",
			zap.String("claimant_id", claimantID),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	return v, nil
}

// ConditionalUpdate writes status, routing metadata and approval trail only
// while the stored status equals expected. Aggregates are never rewritten.
func (r *VoucherRepository) ConditionalUpdate(ctx context.Context, v *entity.Voucher, expected entity.VoucherStatus) error {
	query := `
		UPDATE vouchers SET
			status = ?,
			submitted_position = ?, required_first_approver = ?, required_second_approver = ?,
			tier = ?, skip_supervisor_approval = ?,
			submitted_at = ?, employee_signature = ?,
			supervisor_id = ?, supervisor_approved_at = ?, supervisor_signature = ?,
			fleet_manager_id = ?, fleet_approved_at = ?, fleet_signature = ?,
			rejected_by = ?, rejected_at = ?, rejection_reason = ?,
			updated_at = ?
		WHERE id = ? AND status = ?
	`

	now := time.Now().UTC()
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		v.Status,
		v.SubmittedPosition, v.RequiredFirstApprover, v.RequiredSecondApprover,
		v.Tier, v.SkipSupervisorApproval,
		v.SubmittedAt, v.EmployeeSignature,
		v.SupervisorID, v.SupervisorApprovedAt, v.SupervisorSignature,
		v.FleetManagerID, v.FleetApprovedAt, v.FleetSignature,
		v.RejectedBy, v.RejectedAt, v.RejectionReason,
		now,
		v.ID, expected,
	)
	if err != nil {
		r.logger.Error("Failed to update voucher",
			zap.Int64("voucher_id", v.ID),
			zap.String("expected_status", expected.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update voucher: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("voucher %d is no longer %s: %w", v.ID, expected, entity.ErrConflict)
	}

	v.UpdatedAt = now
	return nil
}

// Delete removes a voucher while its stored status equals expected
func (r *VoucherRepository) Delete(ctx context.Context, id int64, expected entity.VoucherStatus) error {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM vouchers WHERE id = ? AND status = ?`, id, expected)
	if err != nil {
		r.logger.Error("Failed to delete voucher", zap.Int64("voucher_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete voucher: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("voucher %d is no longer %s: %w", id, expected, entity.ErrConflict)
	}
	return nil
}

// LinkTrips associates trips with a voucher
func (r *VoucherRepository) LinkTrips(ctx context.Context, voucherID int64, tripIDs []int64) error {
	exec := sqlite.ExecutorFor(ctx, r.db)
	for _, tripID := range tripIDs {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO voucher_trips (voucher_id, trip_id) VALUES (?, ?)`, voucherID, tripID)
		if err != nil {
			r.logger.Error("Failed to link trip",
				zap.Int64("voucher_id", voucherID),
				zap.Int64("trip_id", tripID),
				zap.Error(err))
			return fmt.Errorf("failed to link trip %d: %w", tripID, err)
		}
	}
	return nil
}

// UnlinkTrips removes every trip association of a voucher
func (r *VoucherRepository) UnlinkTrips(ctx context.Context, voucherID int64) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM voucher_trips WHERE voucher_id = ?`, voucherID)
	if err != nil {
		r.logger.Error("Failed to unlink trips", zap.Int64("voucher_id", voucherID), zap.Error(err))
		return fmt.Errorf("failed to unlink trips: %w", err)
	}
	return nil
}

func scanVoucher(row rowScanner) (*entity.Voucher, error) {
	var v entity.Voucher
	var secondApprover sql.NullString
	var submittedAt, supervisorAt, fleetAt, rejectedAt sql.NullTime

	err := row.Scan(
		&v.ID, &v.ClaimantID, &v.Month, &v.Year, &v.Status,
		&v.TotalMiles, &v.MileageRate, &v.MileageAmount, &v.TotalLodging, &v.TotalMeals, &v.TotalOther, &v.TotalAmount,
		&v.SubmittedPosition, &v.RequiredFirstApprover, &secondApprover, &v.Tier, &v.SkipSupervisorApproval,
		&submittedAt, &v.EmployeeSignature,
		&v.SupervisorID, &supervisorAt, &v.SupervisorSignature,
		&v.FleetManagerID, &fleetAt, &v.FleetSignature,
		&v.RejectedBy, &rejectedAt, &v.RejectionReason,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.RequiredSecondApprover = stringPtr(secondApprover)
	v.SubmittedAt = timePtr(submittedAt)
	v.SupervisorApprovedAt = timePtr(supervisorAt)
	v.FleetApprovedAt = timePtr(fleetAt)
	v.RejectedAt = timePtr(rejectedAt)
	return &v, nil
}

var _ port.VoucherStore = (*VoucherRepository)(nil)
