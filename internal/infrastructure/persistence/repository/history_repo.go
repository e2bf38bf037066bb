package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/garyjia/travel-voucher/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.VoucherHistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a transition record
func (r *HistoryRepository) Create(ctx context.Context, h *entity.VoucherHistory) error {
	query := `
		INSERT INTO voucher_history (
			voucher_id, actor_id, action, previous_status, new_status, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		h.VoucherID,
		h.ActorID,
		h.Action,
		h.PreviousStatus,
		h.NewStatus,
		h.Note,
		h.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Int64("voucher_id", h.VoucherID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	h.ID = id
	return nil
}

// ListByVoucherID returns a voucher's transitions oldest first
func (r *HistoryRepository) ListByVoucherID(ctx context.Context, voucherID int64) ([]*entity.VoucherHistory, error) {
	query := `
		SELECT id, voucher_id, actor_id, action, previous_status, new_status, note, created_at
		FROM voucher_history
		WHERE voucher_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, voucherID)
	if err != nil {
		r.logger.Error("Failed to list history", zap.Int64("voucher_id", voucherID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.VoucherHistory
	for rows.Next() {
		var h entity.VoucherHistory
		if err := rows.Scan(
			&h.ID,
			&h.VoucherID,
			&h.ActorID,
			&h.Action,
			&h.PreviousStatus,
			&h.NewStatus,
			&h.Note,
			&h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &h)
	}

	return records, rows.Err()
}

var _ port.VoucherHistoryRepository = (*HistoryRepository)(nil)
