package port

import (
	"context"

	"github.com/garyjia/travel-voucher/internal/domain/entity"
)

// RouteInfo is the raw answer of a live distance lookup
type RouteInfo struct {
	Meters          int    `json:"meters"`
	DurationSeconds int64  `json:"duration_seconds"`
	OriginAddress   string `json:"origin_address,omitempty"`
	DestAddress     string `json:"destination_address,omitempty"`
	Summary         string `json:"summary,omitempty"`
}

// DistanceProvider looks up live driving distances
type DistanceProvider interface {
	DrivingDistance(ctx context.Context, origin, destination string, avoidTolls bool) (*RouteInfo, error)
}

// MessageSender delivers short notifications to a user
type MessageSender interface {
	SendText(ctx context.Context, openID string, content string) error
}

// VoucherExporter renders a voucher and its trips as a downloadable document
type VoucherExporter interface {
	Export(ctx context.Context, voucher *entity.Voucher, trips []*entity.Trip, history []*entity.VoucherHistory) ([]byte, error)
	ContentType() string
	FileExtension() string
}
