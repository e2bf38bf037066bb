package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/travel-voucher/internal/application/dispatcher"
	"github.com/garyjia/travel-voucher/internal/application/port"
	"github.com/garyjia/travel-voucher/internal/domain/approval"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/garyjia/travel-voucher/internal/domain/event"
	domainwf "github.com/garyjia/travel-voucher/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// engineImpl is the concrete implementation of VoucherLifecycle
type engineImpl struct {
	vouchers   port.VoucherStore
	profiles   port.ProfileReader
	history    port.VoucherHistoryRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// EngineOption configures the lifecycle engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for post-commit notifications
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new voucher lifecycle engine
func NewEngine(
	vouchers port.VoucherStore,
	profiles port.ProfileReader,
	history port.VoucherHistoryRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) VoucherLifecycle {
	e := &engineImpl{
		vouchers:  vouchers,
		profiles:  profiles,
		history:   history,
		txManager: txManager,
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// step describes one lifecycle action
type step struct {
	trigger domainwf.Trigger
	actorID string
	event   event.Type

	// authorize runs after the status check and before any mutation
	authorize func(ctx context.Context, v *entity.Voucher) error
	// apply mutates a copy of the voucher for its new status
	apply func(v *entity.Voucher, now time.Time)
	// note is stored on the history record
	note func(v *entity.Voucher) string
}

// Submit stamps routing metadata from the claimant's position and moves a draft to submitted
func (e *engineImpl) Submit(ctx context.Context, voucherID int64, claimantID string, input SubmitInput) (*entity.Voucher, error) {
	var position entity.Position
	var route approval.Route
	var name string

	return e.run(ctx, voucherID, step{
		trigger: domainwf.TriggerSubmit,
		actorID: claimantID,
		event:   event.TypeVoucherSubmitted,
		authorize: func(ctx context.Context, v *entity.Voucher) error {
			if !v.IsOwnedBy(claimantID) {
				return entity.ErrNotOwner
			}
			pos, err := e.profiles.GetPosition(ctx, claimantID)
			if err != nil {
				return err
			}
			if !pos.IsSet() {
				return entity.ErrPositionNotSet
			}
			position = pos
			route = approval.RouteFor(position)

			if strings.TrimSpace(input.Signature) != "" {
				return nil
			}
			profile, err := e.profiles.GetProfile(ctx, claimantID)
			if err != nil {
				return err
			}
			name = displayName(profile.DisplayName, claimantID)
			return nil
		},
		apply: func(v *entity.Voucher, now time.Time) {
			v.SubmittedPosition = position
			v.RequiredFirstApprover = route.FirstApprover
			v.RequiredSecondApprover = nil
			if route.SecondApprover != nil {
				second := *route.SecondApprover
				v.RequiredSecondApprover = &second
			}
			v.Tier = route.Tier
			v.SkipSupervisorApproval = route.SkipSupervisorApproval
			v.SubmittedAt = &now
			v.EmployeeSignature = strings.TrimSpace(input.Signature)
			if v.EmployeeSignature == "" {
				v.EmployeeSignature = signature(name, now)
			}
		},
		note: func(v *entity.Voucher) string {
			return fmt.Sprintf("position=%s tier=%d", v.SubmittedPosition, v.Tier)
		},
	})
}

// ApproveAsFirstApprover records the supervisor approval after checking the
// approver's position against the route stamped at submission.
func (e *engineImpl) ApproveAsFirstApprover(ctx context.Context, voucherID int64, approverID string) (*entity.Voucher, error) {
	var name string

	return e.run(ctx, voucherID, step{
		trigger: domainwf.TriggerApproveFirst,
		actorID: approverID,
		event:   event.TypeVoucherSupervisorApproved,
		authorize: func(ctx context.Context, v *entity.Voucher) error {
			if v.IsOwnedBy(approverID) {
				return fmt.Errorf("%w: approvers cannot approve their own voucher", entity.ErrUnauthorizedApprover)
			}
			profile, err := e.approverProfile(ctx, approverID)
			if err != nil {
				return err
			}
			if !approval.Authorize(v.SubmittedPosition, profile.Position) {
				return fmt.Errorf("%w: position %q may not approve vouchers submitted by %q",
					entity.ErrUnauthorizedApprover, profile.Position, v.SubmittedPosition)
			}
			name = displayName(profile.DisplayName, approverID)
			return nil
		},
		apply: func(v *entity.Voucher, now time.Time) {
			v.SupervisorID = approverID
			v.SupervisorApprovedAt = &now
			v.SupervisorSignature = signature(name, now)
		},
	})
}

// ApproveAsFinalApprover records the fleet manager approval
func (e *engineImpl) ApproveAsFinalApprover(ctx context.Context, voucherID int64, approverID string, meta FinalApproverMeta) (*entity.Voucher, error) {
	return e.run(ctx, voucherID, step{
		trigger: domainwf.TriggerApproveFinal,
		actorID: approverID,
		event:   event.TypeVoucherApproved,
		authorize: func(ctx context.Context, v *entity.Voucher) error {
			if meta.Role != RoleFleetManager {
				return fmt.Errorf("%w: final approval requires the %s role", entity.ErrUnauthorizedApprover, RoleFleetManager)
			}
			if v.IsOwnedBy(approverID) {
				return fmt.Errorf("%w: approvers cannot approve their own voucher", entity.ErrUnauthorizedApprover)
			}
			return nil
		},
		apply: func(v *entity.Voucher, now time.Time) {
			v.FleetManagerID = approverID
			v.FleetApprovedAt = &now
			v.FleetSignature = signature(displayName(meta.DisplayName, approverID), now)
		},
	})
}

// Reject stores the reason and keeps the approval trail gathered so far.
// A fleet manager may reject at either step; otherwise the actor must be an
// authorized first approver and the voucher must still be awaiting that step.
func (e *engineImpl) Reject(ctx context.Context, voucherID int64, input RejectInput) (*entity.Voucher, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, entity.ErrReasonRequired
	}

	return e.run(ctx, voucherID, step{
		trigger: domainwf.TriggerReject,
		actorID: input.ActorID,
		event:   event.TypeVoucherRejected,
		authorize: func(ctx context.Context, v *entity.Voucher) error {
			if v.IsOwnedBy(input.ActorID) {
				return fmt.Errorf("%w: claimants cannot reject their own voucher", entity.ErrUnauthorizedApprover)
			}
			if input.Role == RoleFleetManager {
				return nil
			}
			if v.Status != entity.VoucherStatusSubmitted {
				return fmt.Errorf("%w: only the %s may reject at this step", entity.ErrUnauthorizedApprover, approval.FinalApproverLabel)
			}
			profile, err := e.approverProfile(ctx, input.ActorID)
			if err != nil {
				return err
			}
			if !approval.Authorize(v.SubmittedPosition, profile.Position) {
				return fmt.Errorf("%w: position %q may not reject vouchers submitted by %q",
					entity.ErrUnauthorizedApprover, profile.Position, v.SubmittedPosition)
			}
			return nil
		},
		apply: func(v *entity.Voucher, now time.Time) {
			v.RejectedBy = input.ActorID
			v.RejectedAt = &now
			v.RejectionReason = reason
		},
		note: func(v *entity.Voucher) string {
			return reason
		},
	})
}

// Reopen returns a rejected voucher to draft, clearing submission and trail
func (e *engineImpl) Reopen(ctx context.Context, voucherID int64, ownerID string) (*entity.Voucher, error) {
	return e.run(ctx, voucherID, step{
		trigger: domainwf.TriggerReopen,
		actorID: ownerID,
		event:   event.TypeVoucherReopened,
		authorize: func(ctx context.Context, v *entity.Voucher) error {
			if !v.IsOwnedBy(ownerID) {
				return entity.ErrNotOwner
			}
			return nil
		},
		apply: func(v *entity.Voucher, now time.Time) {
			v.ClearSubmission()
		},
	})
}

// Delete removes a draft voucher and its trip links
func (e *engineImpl) Delete(ctx context.Context, voucherID int64, ownerID string) error {
	_, err := e.run(ctx, voucherID, step{
		trigger: domainwf.TriggerDelete,
		actorID: ownerID,
		event:   event.TypeVoucherDeleted,
		authorize: func(ctx context.Context, v *entity.Voucher) error {
			if !v.IsOwnedBy(ownerID) {
				return entity.ErrNotOwner
			}
			return nil
		},
	})
	return err
}

// AvailableActions lists the triggers the voucher's status and route allow
func (e *engineImpl) AvailableActions(ctx context.Context, voucherID int64) ([]domainwf.Trigger, error) {
	v, err := e.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	return BuildVoucherStateMachine(v).AvailableTriggers(ctx), nil
}

// run loads the voucher, validates the transition, then persists it with a
// status-conditional update and a history record in one transaction.
func (e *engineImpl) run(ctx context.Context, voucherID int64, s step) (*entity.Voucher, error) {
	current, err := e.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}

	from := current.Status
	machine := BuildVoucherStateMachine(current)
	if err := machine.Fire(ctx, s.trigger); err != nil {
		return nil, transitionError(from, s.trigger, err)
	}

	if s.authorize != nil {
		if err := s.authorize(ctx, current); err != nil {
			e.logger.Info("Voucher transition refused",
				zap.Int64("voucher_id", voucherID),
				zap.String("trigger", s.trigger.String()),
				zap.String("actor_id", s.actorID),
				zap.Error(err))
			return nil, err
		}
	}

	to := machine.State()
	now := e.now()
	updated := current.Clone()
	if s.apply != nil {
		s.apply(updated, now)
	}
	if to != domainwf.StateDeleted {
		updated.Status = entity.VoucherStatus(to)
	}

	record := &entity.VoucherHistory{
		VoucherID:      voucherID,
		ActorID:        s.actorID,
		Action:         s.trigger.String(),
		PreviousStatus: from,
		NewStatus:      entity.VoucherStatus(to),
		CreatedAt:      now,
	}
	if s.note != nil {
		record.Note = s.note(updated)
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if to == domainwf.StateDeleted {
			if err := e.vouchers.UnlinkTrips(txCtx, voucherID); err != nil {
				return err
			}
			if err := e.vouchers.Delete(txCtx, voucherID, from); err != nil {
				return err
			}
		} else if err := e.vouchers.ConditionalUpdate(txCtx, updated, from); err != nil {
			return err
		}

		if err := e.history.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to create history record: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, entity.ErrConflict) {
			e.logger.Warn("Voucher changed during transition",
				zap.Int64("voucher_id", voucherID),
				zap.String("trigger", s.trigger.String()),
				zap.String("expected_status", from.String()))
		}
		return nil, err
	}

	e.logger.Info("Voucher transitioned",
		zap.Int64("voucher_id", voucherID),
		zap.String("trigger", s.trigger.String()),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("actor_id", s.actorID))

	e.publish(ctx, s.event, updated, s.actorID, record)
	return updated, nil
}

func (e *engineImpl) approverProfile(ctx context.Context, approverID string) (*entity.Profile, error) {
	profile, err := e.profiles.GetProfile(ctx, approverID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, fmt.Errorf("%w: approver %s has no profile", entity.ErrUnauthorizedApprover, approverID)
	}
	return profile, err
}

func (e *engineImpl) publish(ctx context.Context, eventType event.Type, v *entity.Voucher, actorID string, record *entity.VoucherHistory) {
	if e.dispatcher == nil {
		return
	}

	payload := map[string]interface{}{
		"month":        v.Month,
		"year":         v.Year,
		"status":       string(record.NewStatus),
		"total_amount": v.TotalAmount.StringFixed(2),
	}
	if eventType == event.TypeVoucherRejected {
		payload["reason"] = v.RejectionReason
	}
	if eventType == event.TypeVoucherSubmitted {
		payload["tier"] = v.Tier
		payload["first_approver"] = v.RequiredFirstApprover
	}

	// Handlers outlive the request.
	e.dispatcher.DispatchAsync(context.WithoutCancel(ctx), event.NewEvent(eventType, v.ID, v.ClaimantID, actorID, payload))
}

func transitionError(from entity.VoucherStatus, trigger domainwf.Trigger, err error) error {
	te := entity.NewTransitionError(from, actionVerb(trigger))
	var rule ruleError
	if errors.As(err, &rule) {
		te.Rule = string(rule)
	}
	return te
}

func actionVerb(trigger domainwf.Trigger) string {
	switch trigger {
	case domainwf.TriggerApproveFirst:
		return "approve"
	case domainwf.TriggerApproveFinal:
		return "give final approval to"
	default:
		return trigger.String()
	}
}

func displayName(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

// signature renders the approval stamp stored with each step
func signature(name string, at time.Time) string {
	return fmt.Sprintf("%s %s ref:%s", name, at.UTC().Format(time.RFC3339), uuid.NewString()[:8])
}
