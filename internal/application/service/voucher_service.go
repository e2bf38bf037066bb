package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/travel-voucher/internal/application/dispatcher"
	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/garyjia/travel-voucher/internal/domain/event"
	"github.com/garyjia/travel-voucher/pkg/utils"
	"github.com/shopspring/decimal"
)

// Rate sources recorded when a voucher is created
const (
	RateSourcePersonal = "personal"
	RateSourceSchedule = "schedule"
	RateSourceDefault  = "default"
)

// ExportedVoucher is a rendered voucher document
type ExportedVoucher struct {
	Filename    string
	ContentType string
	Data        []byte
}

// VoucherService aggregates trips into monthly vouchers and serves them back
type VoucherService interface {
	CreateVoucher(ctx context.Context, claimantID string, month, year int) (*entity.Voucher, error)
	GetVoucher(ctx context.Context, id int64) (*entity.Voucher, error)
	GetVoucherTrips(ctx context.Context, id int64) ([]*entity.Trip, error)
	GetHistory(ctx context.Context, id int64) ([]*entity.VoucherHistory, error)
	Export(ctx context.Context, id int64) (*ExportedVoucher, error)

	AddMileageRate(ctx context.Context, rate *entity.MileageRate) error
	ListMileageRates(ctx context.Context) ([]*entity.MileageRate, error)
}

// VoucherServiceDeps groups the collaborators of the voucher service
type VoucherServiceDeps struct {
	Vouchers    port.VoucherStore
	Trips       port.TripReader
	Profiles    port.ProfileReader
	Rates       port.MileageRateRepository
	History     port.VoucherHistoryRepository
	TxManager   port.TransactionManager
	Exporter    port.VoucherExporter
	Dispatcher  dispatcher.Dispatcher
	DefaultRate decimal.Decimal
	Logger      Logger
}

type voucherServiceImpl struct {
	vouchers    port.VoucherStore
	trips       port.TripReader
	profiles    port.ProfileReader
	rates       port.MileageRateRepository
	history     port.VoucherHistoryRepository
	txManager   port.TransactionManager
	exporter    port.VoucherExporter
	dispatcher  dispatcher.Dispatcher
	defaultRate decimal.Decimal
	logger      Logger
	now         func() time.Time
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(deps VoucherServiceDeps) VoucherService {
	return &voucherServiceImpl{
		vouchers:    deps.Vouchers,
		trips:       deps.Trips,
		profiles:    deps.Profiles,
		rates:       deps.Rates,
		history:     deps.History,
		txManager:   deps.TxManager,
		exporter:    deps.Exporter,
		dispatcher:  deps.Dispatcher,
		defaultRate: deps.DefaultRate,
		logger:      loggerOrNop(deps.Logger),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateVoucher builds a draft voucher from every trip the claimant logged in
// the month. Totals are frozen here and never recomputed.
func (s *voucherServiceImpl) CreateVoucher(ctx context.Context, claimantID string, month, year int) (*entity.Voucher, error) {
	claimantID = strings.TrimSpace(claimantID)
	if claimantID == "" {
		return nil, fmt.Errorf("%w: claimant id is required", entity.ErrValidation)
	}
	if err := utils.ValidatePeriod(month, year); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}

	if _, err := s.profiles.GetProfile(ctx, claimantID); err != nil {
		return nil, fmt.Errorf("get claimant profile: %w", err)
	}

	_, err := s.vouchers.GetByPeriod(ctx, claimantID, month, year)
	switch {
	case err == nil:
		return nil, entity.ErrDuplicatePeriod
	case !errors.Is(err, entity.ErrNotFound):
		return nil, fmt.Errorf("check existing voucher: %w", err)
	}

	trips, err := s.trips.ListForClaimantAndPeriod(ctx, claimantID, month, year)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	if len(trips) == 0 {
		return nil, entity.ErrNoTripsFound
	}

	voucher := &entity.Voucher{
		ClaimantID: claimantID,
		Month:      month,
		Year:       year,
		Status:     entity.VoucherStatusDraft,
	}

	tripIDs := make([]int64, 0, len(trips))
	for _, trip := range trips {
		tripIDs = append(tripIDs, trip.ID)
		voucher.TotalMiles = voucher.TotalMiles.Add(trip.Miles)
		voucher.TotalLodging = voucher.TotalLodging.Add(trip.Lodging)
		voucher.TotalMeals = voucher.TotalMeals.Add(trip.Meals)
		voucher.TotalOther = voucher.TotalOther.Add(trip.Other)
	}

	rate, source, err := s.resolveRate(ctx, claimantID, voucher.PeriodStart())
	if err != nil {
		return nil, err
	}

	voucher.TotalMiles = voucher.TotalMiles.Round(1)
	voucher.TotalLodging = voucher.TotalLodging.Round(2)
	voucher.TotalMeals = voucher.TotalMeals.Round(2)
	voucher.TotalOther = voucher.TotalOther.Round(2)
	voucher.MileageRate = rate
	voucher.MileageAmount = voucher.TotalMiles.Mul(rate).Round(2)
	voucher.TotalAmount = voucher.ComponentSum()

	now := s.now()
	voucher.CreatedAt = now
	voucher.UpdatedAt = now

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.vouchers.Insert(txCtx, voucher); err != nil {
			return err
		}
		if err := s.vouchers.LinkTrips(txCtx, voucher.ID, tripIDs); err != nil {
			return fmt.Errorf("link trips: %w", err)
		}
		return s.history.Create(txCtx, &entity.VoucherHistory{
			VoucherID: voucher.ID,
			ActorID:   claimantID,
			Action:    "create",
			NewStatus: entity.VoucherStatusDraft,
			Note:      fmt.Sprintf("trips=%d rate=%s source=%s", len(trips), rate.String(), source),
			CreatedAt: now,
		})
	})
	if err != nil {
		if !errors.Is(err, entity.ErrDuplicatePeriod) {
			s.logger.Error("Failed to create voucher", "error", err, "claimant_id", claimantID, "month", month, "year", year)
		}
		return nil, err
	}

	s.logger.Info("Voucher created",
		"voucher_id", voucher.ID,
		"claimant_id", claimantID,
		"month", month,
		"year", year,
		"trip_count", len(trips),
		"rate_source", source,
		"total_amount", voucher.TotalAmount.StringFixed(2),
	)

	if s.dispatcher != nil {
		evt := event.NewEvent(event.TypeVoucherCreated, voucher.ID, claimantID, claimantID, map[string]interface{}{
			"month":        month,
			"year":         year,
			"total_amount": voucher.TotalAmount.StringFixed(2),
		})
		s.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
	}

	return voucher, nil
}

// resolveRate picks the claimant's personal rate, then the schedule entry
// covering the period start, then the configured default.
func (s *voucherServiceImpl) resolveRate(ctx context.Context, claimantID string, periodStart time.Time) (decimal.Decimal, string, error) {
	personal, err := s.profiles.GetPersonalMileageRate(ctx, claimantID)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("get personal mileage rate: %w", err)
	}
	if personal.Valid && personal.Decimal.IsPositive() {
		return personal.Decimal, RateSourcePersonal, nil
	}

	scheduled, err := s.rates.GetEffectiveRate(ctx, periodStart)
	switch {
	case err == nil:
		return scheduled.Rate, RateSourceSchedule, nil
	case errors.Is(err, entity.ErrNotFound):
		return s.defaultRate, RateSourceDefault, nil
	default:
		return decimal.Zero, "", fmt.Errorf("get effective mileage rate: %w", err)
	}
}

// GetVoucher returns a voucher by ID
func (s *voucherServiceImpl) GetVoucher(ctx context.Context, id int64) (*entity.Voucher, error) {
	return s.vouchers.GetByID(ctx, id)
}

// GetVoucherTrips returns the trips linked to a voucher
func (s *voucherServiceImpl) GetVoucherTrips(ctx context.Context, id int64) ([]*entity.Trip, error) {
	if _, err := s.vouchers.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.trips.ListByVoucherID(ctx, id)
}

// GetHistory returns the voucher's transition trail, oldest first
func (s *voucherServiceImpl) GetHistory(ctx context.Context, id int64) ([]*entity.VoucherHistory, error) {
	return s.history.ListByVoucherID(ctx, id)
}

// Export renders the voucher, its trips and its trail as a document
func (s *voucherServiceImpl) Export(ctx context.Context, id int64) (*ExportedVoucher, error) {
	if s.exporter == nil {
		return nil, fmt.Errorf("voucher export is not configured")
	}

	voucher, err := s.vouchers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	trips, err := s.trips.ListByVoucherID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list voucher trips: %w", err)
	}
	history, err := s.history.ListByVoucherID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list voucher history: %w", err)
	}

	data, err := s.exporter.Export(ctx, voucher, trips, history)
	if err != nil {
		s.logger.Error("Failed to export voucher", "error", err, "voucher_id", id)
		return nil, fmt.Errorf("export voucher: %w", err)
	}

	return &ExportedVoucher{
		Filename:    fmt.Sprintf("voucher-%s-%04d-%02d%s", voucher.ClaimantID, voucher.Year, voucher.Month, s.exporter.FileExtension()),
		ContentType: s.exporter.ContentType(),
		Data:        data,
	}, nil
}

// AddMileageRate stores a new effective-dated rate
func (s *voucherServiceImpl) AddMileageRate(ctx context.Context, rate *entity.MileageRate) error {
	if err := rate.Validate(); err != nil {
		return err
	}
	if err := s.rates.Create(ctx, rate); err != nil {
		return err
	}
	s.logger.Info("Mileage rate added", "rate_id", rate.ID, "rate", rate.Rate.String())
	return nil
}

// ListMileageRates returns the rate schedule
func (s *voucherServiceImpl) ListMileageRates(ctx context.Context) ([]*entity.MileageRate, error) {
	return s.rates.List(ctx)
}
