package port

import (
	"context"
	"time"

	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TripReader provides read access to logged trips
type TripReader interface {
	ListForClaimantAndPeriod(ctx context.Context, claimantID string, month, year int) ([]*entity.Trip, error)
	ListByVoucherID(ctx context.Context, voucherID int64) ([]*entity.Trip, error)
}

// TripRepository defines data access for trips
type TripRepository interface {
	TripReader
	Create(ctx context.Context, trip *entity.Trip) error
	GetByID(ctx context.Context, id int64) (*entity.Trip, error)
}

// VoucherStore defines data access for vouchers.
// Lookups return entity.ErrNotFound when nothing matches.
type VoucherStore interface {
	Insert(ctx context.Context, voucher *entity.Voucher) error
	GetByID(ctx context.Context, id int64) (*entity.Voucher, error)
	GetByPeriod(ctx context.Context, claimantID string, month, year int) (*entity.Voucher, error)
	// ConditionalUpdate persists voucher only while the stored status still
	// equals expected, returning entity.ErrConflict otherwise.
	ConditionalUpdate(ctx context.Context, voucher *entity.Voucher, expected entity.VoucherStatus) error
	// Delete removes the voucher only while its stored status equals expected
	Delete(ctx context.Context, id int64, expected entity.VoucherStatus) error
	LinkTrips(ctx context.Context, voucherID int64, tripIDs []int64) error
	UnlinkTrips(ctx context.Context, voucherID int64) error
}

// ProfileReader provides the profile data the workflow depends on
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
	// GetPosition returns an empty Position when none is assigned
	GetPosition(ctx context.Context, userID string) (entity.Position, error)
	GetPersonalMileageRate(ctx context.Context, userID string) (decimal.NullDecimal, error)
}

// ProfileRepository defines data access for profiles
type ProfileRepository interface {
	ProfileReader
	Upsert(ctx context.Context, profile *entity.Profile) error
}

// MileageRateReader resolves the rate table entry covering a date
type MileageRateReader interface {
	GetEffectiveRate(ctx context.Context, date time.Time) (*entity.MileageRate, error)
}

// MileageRateRepository defines data access for the rate table
type MileageRateRepository interface {
	MileageRateReader
	// Create rejects rates whose range overlaps an existing one
	Create(ctx context.Context, rate *entity.MileageRate) error
	List(ctx context.Context) ([]*entity.MileageRate, error)
}

// VoucherHistoryRepository defines data access for the transition audit trail
type VoucherHistoryRepository interface {
	Create(ctx context.Context, history *entity.VoucherHistory) error
	ListByVoucherID(ctx context.Context, voucherID int64) ([]*entity.VoucherHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
