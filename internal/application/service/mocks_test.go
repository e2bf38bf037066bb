package service

import (
	"context"
	"time"

	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/shopspring/decimal"
)

type mockDistanceProvider struct {
	drivingDistanceFunc func(ctx context.Context, origin, destination string, avoidTolls bool) (*port.RouteInfo, error)
}

func (m *mockDistanceProvider) DrivingDistance(ctx context.Context, origin, destination string, avoidTolls bool) (*port.RouteInfo, error) {
	return m.drivingDistanceFunc(ctx, origin, destination, avoidTolls)
}

type mockTripRepo struct {
	createFunc          func(ctx context.Context, trip *entity.Trip) error
	listForPeriodFunc   func(ctx context.Context, claimantID string, month, year int) ([]*entity.Trip, error)
	listByVoucherIDFunc func(ctx context.Context, voucherID int64) ([]*entity.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip *entity.Trip) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, trip)
	}
	trip.ID = 1
	return nil
}

func (m *mockTripRepo) GetByID(ctx context.Context, id int64) (*entity.Trip, error) {
	return nil, entity.ErrNotFound
}

func (m *mockTripRepo) ListForClaimantAndPeriod(ctx context.Context, claimantID string, month, year int) ([]*entity.Trip, error) {
	if m.listForPeriodFunc != nil {
		return m.listForPeriodFunc(ctx, claimantID, month, year)
	}
	return nil, nil
}

func (m *mockTripRepo) ListByVoucherID(ctx context.Context, voucherID int64) ([]*entity.Trip, error) {
	if m.listByVoucherIDFunc != nil {
		return m.listByVoucherIDFunc(ctx, voucherID)
	}
	return nil, nil
}

type mockVoucherStore struct {
	insertFunc      func(ctx context.Context, v *entity.Voucher) error
	getByIDFunc     func(ctx context.Context, id int64) (*entity.Voucher, error)
	getByPeriodFunc func(ctx context.Context, claimantID string, month, year int) (*entity.Voucher, error)
	linkTripsFunc   func(ctx context.Context, voucherID int64, tripIDs []int64) error
}

func (m *mockVoucherStore) Insert(ctx context.Context, v *entity.Voucher) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, v)
	}
	v.ID = 1
	return nil
}

func (m *mockVoucherStore) GetByID(ctx context.Context, id int64) (*entity.Voucher, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, entity.ErrNotFound
}

func (m *mockVoucherStore) GetByPeriod(ctx context.Context, claimantID string, month, year int) (*entity.Voucher, error) {
	if m.getByPeriodFunc != nil {
		return m.getByPeriodFunc(ctx, claimantID, month, year)
	}
	return nil, entity.ErrNotFound
}

func (m *mockVoucherStore) ConditionalUpdate(ctx context.Context, v *entity.Voucher, expected entity.VoucherStatus) error {
	return nil
}

func (m *mockVoucherStore) Delete(ctx context.Context, id int64, expected entity.VoucherStatus) error {
	return nil
}

func (m *mockVoucherStore) LinkTrips(ctx context.Context, voucherID int64, tripIDs []int64) error {
	if m.linkTripsFunc != nil {
		return m.linkTripsFunc(ctx, voucherID, tripIDs)
	}
	return nil
}

func (m *mockVoucherStore) UnlinkTrips(ctx context.Context, voucherID int64) error {
	return nil
}

type mockProfiles struct {
	getProfileFunc   func(ctx context.Context, userID string) (*entity.Profile, error)
	personalRateFunc func(ctx context.Context, userID string) (decimal.NullDecimal, error)
	upsertFunc       func(ctx context.Context, profile *entity.Profile) error
}

func (m *mockProfiles) Upsert(ctx context.Context, profile *entity.Profile) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, profile)
	}
	return nil
}

func (m *mockProfiles) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	if m.getProfileFunc != nil {
		return m.getProfileFunc(ctx, userID)
	}
	return &entity.Profile{UserID: userID, Position: entity.PositionFirstLevelInspector}, nil
}

func (m *mockProfiles) GetPosition(ctx context.Context, userID string) (entity.Position, error) {
	p, err := m.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.Position, nil
}

func (m *mockProfiles) GetPersonalMileageRate(ctx context.Context, userID string) (decimal.NullDecimal, error) {
	if m.personalRateFunc != nil {
		return m.personalRateFunc(ctx, userID)
	}
	return decimal.NullDecimal{}, nil
}

type mockRates struct {
	effectiveFunc func(ctx context.Context, date time.Time) (*entity.MileageRate, error)
	createFunc    func(ctx context.Context, rate *entity.MileageRate) error
	listFunc      func(ctx context.Context) ([]*entity.MileageRate, error)
}

func (m *mockRates) GetEffectiveRate(ctx context.Context, date time.Time) (*entity.MileageRate, error) {
	if m.effectiveFunc != nil {
		return m.effectiveFunc(ctx, date)
	}
	return nil, entity.ErrNotFound
}

func (m *mockRates) Create(ctx context.Context, rate *entity.MileageRate) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rate)
	}
	rate.ID = 1
	return nil
}

func (m *mockRates) List(ctx context.Context) ([]*entity.MileageRate, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

type mockHistory struct {
	records []*entity.VoucherHistory
}

func (m *mockHistory) Create(ctx context.Context, record *entity.VoucherHistory) error {
	m.records = append(m.records, record)
	return nil
}

func (m *mockHistory) ListByVoucherID(ctx context.Context, voucherID int64) ([]*entity.VoucherHistory, error) {
	return m.records, nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockSender struct {
	sendFunc func(ctx context.Context, openID, content string) error
}

func (m *mockSender) SendText(ctx context.Context, openID, content string) error {
	return m.sendFunc(ctx, openID, content)
}

type mockExporter struct {
	exportFunc func(ctx context.Context, v *entity.Voucher, trips []*entity.Trip, history []*entity.VoucherHistory) ([]byte, error)
}

func (m *mockExporter) Export(ctx context.Context, v *entity.Voucher, trips []*entity.Trip, history []*entity.VoucherHistory) ([]byte, error) {
	return m.exportFunc(ctx, v, trips, history)
}

func (m *mockExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (m *mockExporter) FileExtension() string {
	return ".xlsx"
}
