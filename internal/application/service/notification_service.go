package service

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-voucher/internal/application/dispatcher"
	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/domain/event"
)

// NotificationService tells claimants when their vouchers move
type NotificationService interface {
	// Register subscribes the service to voucher lifecycle events
	Register(d dispatcher.Dispatcher)
	HandleEvent(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	profiles port.ProfileReader
	sender   port.MessageSender
	logger   Logger
}

// NewNotificationService creates a new NotificationService. A nil sender
// turns notifications into log entries.
func NewNotificationService(profiles port.ProfileReader, sender port.MessageSender, logger Logger) NotificationService {
	return &notificationServiceImpl{
		profiles: profiles,
		sender:   sender,
		logger:   loggerOrNop(logger),
	}
}

var notifiedEvents = []event.Type{
	event.TypeVoucherSubmitted,
	event.TypeVoucherSupervisorApproved,
	event.TypeVoucherApproved,
	event.TypeVoucherRejected,
	event.TypeVoucherReopened,
}

// Register subscribes the service to voucher lifecycle events
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	for _, t := range notifiedEvents {
		d.SubscribeNamed(t, "claimant-notification", s.HandleEvent)
	}
}

// HandleEvent messages the voucher's claimant about the event
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	message := buildMessage(evt)
	if message == "" {
		return nil
	}

	if s.sender == nil {
		s.logger.Info("Notification not sent, messaging disabled",
			"event_type", evt.Type.String(),
			"voucher_id", evt.VoucherID,
			"claimant_id", evt.ClaimantID,
		)
		return nil
	}

	profile, err := s.profiles.GetProfile(ctx, evt.ClaimantID)
	if err != nil {
		s.logger.Error("Failed to get claimant profile", "error", err, "claimant_id", evt.ClaimantID)
		return fmt.Errorf("get profile: %w", err)
	}
	if profile.LarkOpenID == "" {
		s.logger.Info("Notification skipped, claimant has no messaging id",
			"voucher_id", evt.VoucherID,
			"claimant_id", evt.ClaimantID,
		)
		return nil
	}

	if err := s.sender.SendText(ctx, profile.LarkOpenID, message); err != nil {
		s.logger.Error("Failed to send notification",
			"error", err,
			"voucher_id", evt.VoucherID,
			"open_id", profile.LarkOpenID,
		)
		return fmt.Errorf("send message: %w", err)
	}

	s.logger.Info("Notification sent",
		"event_type", evt.Type.String(),
		"voucher_id", evt.VoucherID,
		"claimant_id", evt.ClaimantID,
	)
	return nil
}

func buildMessage(evt *event.Event) string {
	period := voucherPeriod(evt)

	switch evt.Type {
	case event.TypeVoucherSubmitted:
		msg := fmt.Sprintf("Your travel voucher %s has been submitted.", period)
		if approver := evt.GetPayloadString("first_approver"); approver != "" {
			msg += fmt.Sprintf(" Next approver: %s.", approver)
		}
		return msg
	case event.TypeVoucherSupervisorApproved:
		return fmt.Sprintf("Your travel voucher %s was approved by your supervisor and is awaiting final approval.", period)
	case event.TypeVoucherApproved:
		return fmt.Sprintf("Your travel voucher %s has been approved. Total: %s.", period, evt.GetPayloadString("total_amount"))
	case event.TypeVoucherRejected:
		return fmt.Sprintf("Your travel voucher %s was rejected.\nReason: %s", period, evt.GetPayloadString("reason"))
	case event.TypeVoucherReopened:
		return fmt.Sprintf("Your travel voucher %s is back in draft.", period)
	default:
		return ""
	}
}

func voucherPeriod(evt *event.Event) string {
	month := evt.GetPayloadInt("month")
	year := evt.GetPayloadInt("year")
	if month == 0 || year == 0 {
		return fmt.Sprintf("#%d", evt.VoucherID)
	}
	return fmt.Sprintf("#%d (%04d-%02d)", evt.VoucherID, year, month)
}
