package service

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/domain/mileage"
	"github.com/shopspring/decimal"
)

// DefaultLookupTimeout bounds a live distance lookup when none is configured
const DefaultLookupTimeout = 5 * time.Second

var errNoRoute = errors.New("provider returned no usable route")

// MileageResult is the outcome of resolving a trip's driving distance
type MileageResult struct {
	Miles        decimal.Decimal `json:"miles"`
	UsedFallback bool            `json:"used_fallback"`
	Route        *port.RouteInfo `json:"route,omitempty"`
}

// MileageService resolves driving distances between two addresses
type MileageService interface {
	// Resolve never fails: any live lookup problem falls back to the estimator
	Resolve(ctx context.Context, origin, destination string, avoidTolls bool) MileageResult
}

type mileageServiceImpl struct {
	provider port.DistanceProvider
	timeout  time.Duration
	logger   Logger
}

// NewMileageService creates a new MileageService. A nil provider means no
// credential is configured and every lookup uses the estimator.
func NewMileageService(provider port.DistanceProvider, timeout time.Duration, logger Logger) MileageService {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &mileageServiceImpl{
		provider: provider,
		timeout:  timeout,
		logger:   loggerOrNop(logger),
	}
}

// Resolve asks the live provider first and falls back to the deterministic estimate
func (s *mileageServiceImpl) Resolve(ctx context.Context, origin, destination string, avoidTolls bool) MileageResult {
	if s.provider == nil {
		return s.fallback(origin, destination, avoidTolls)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	route, err := s.provider.DrivingDistance(lookupCtx, origin, destination, avoidTolls)
	if err == nil && (route == nil || route.Meters < 0) {
		err = errNoRoute
	}
	if err != nil {
		s.logger.Error("Distance lookup failed, using estimate",
			"error", err,
			"origin", origin,
			"destination", destination,
			"avoid_tolls", avoidTolls,
		)
		return s.fallback(origin, destination, avoidTolls)
	}

	return MileageResult{
		Miles: mileage.MetersToMiles(route.Meters),
		Route: route,
	}
}

func (s *mileageServiceImpl) fallback(origin, destination string, avoidTolls bool) MileageResult {
	return MileageResult{
		Miles:        mileage.Estimate(origin, destination, avoidTolls),
		UsedFallback: true,
	}
}
