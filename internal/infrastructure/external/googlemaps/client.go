// Package googlemaps looks up live driving distances through the Google Maps
// Distance Matrix API.
package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/garyjia/travel-voucher/internal/application/port"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

// ErrNoRoute is returned when the API answers without a usable element
var ErrNoRoute = errors.New("no driving route found")

// Config holds Distance Matrix client configuration
type Config struct {
	APIKey string
	// BaseURL overrides the API host, used in tests
	BaseURL string
	Timeout time.Duration
}

// Client implements port.DistanceProvider
type Client struct {
	maps   *maps.Client
	logger *zap.Logger
}

// NewClient creates a new Distance Matrix client. An empty API key is an error;
// callers decide whether to run without a provider.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	opts := []maps.ClientOption{
		maps.WithAPIKey(cfg.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return &Client{
		maps:   client,
		logger: logger,
	}, nil
}

// DrivingDistance returns the driving distance for a single origin/destination pair
func (c *Client) DrivingDistance(ctx context.Context, origin, destination string, avoidTolls bool) (*port.RouteInfo, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsImperial,
	}
	if avoidTolls {
		req.Avoid = maps.AvoidTolls
	}

	resp, err := c.maps.DistanceMatrix(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("distance matrix request failed: %w", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 || resp.Rows[0].Elements[0] == nil {
		return nil, ErrNoRoute
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return nil, fmt.Errorf("%w: element status %s", ErrNoRoute, element.Status)
	}

	info := &port.RouteInfo{
		Meters:          element.Distance.Meters,
		DurationSeconds: int64(element.Duration / time.Second),
		Summary:         element.Distance.HumanReadable,
	}
	if len(resp.OriginAddresses) > 0 {
		info.OriginAddress = resp.OriginAddresses[0]
	}
	if len(resp.DestinationAddresses) > 0 {
		info.DestAddress = resp.DestinationAddresses[0]
	}

	c.logger.Debug("Distance resolved",
		zap.String("origin", info.OriginAddress),
		zap.String("destination", info.DestAddress),
		zap.Int("meters", info.Meters),
		zap.Bool("avoid_tolls", avoidTolls))

	return info, nil
}
