package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/travel-voucher/internal/application/service"
	"github.com/garyjia/travel-voucher/internal/application/workflow"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	health   HealthFunc
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, health HealthFunc, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		health:   health,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// ProfileRequest is the body of PUT /api/profiles/:user_id
type ProfileRequest struct {
	DisplayName         string              `json:"display_name"`
	Position            string              `json:"position"`
	PersonalMileageRate decimal.NullDecimal `json:"personal_mileage_rate"`
	LarkOpenID          string              `json:"lark_open_id"`
}

// TripRequest is the body of POST /api/trips
type TripRequest struct {
	TripDate    string           `json:"trip_date" binding:"required"`
	Origin      string           `json:"origin" binding:"required"`
	Destination string           `json:"destination" binding:"required"`
	AvoidTolls  bool             `json:"avoid_tolls"`
	Miles       *decimal.Decimal `json:"miles"`
	Lodging     decimal.Decimal  `json:"lodging"`
	Meals       decimal.Decimal  `json:"meals"`
	Other       decimal.Decimal  `json:"other"`
	Purpose     string           `json:"purpose"`
}

// PeriodQuery selects a calendar month
type PeriodQuery struct {
	Month int `form:"month" json:"month" binding:"required"`
	Year  int `form:"year" json:"year" binding:"required"`
}

// ResolveMileageRequest is the body of POST /api/mileage/resolve
type ResolveMileageRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	AvoidTolls  bool   `json:"avoid_tolls"`
}

// MileageRateRequest is the body of POST /api/mileage-rates
type MileageRateRequest struct {
	Rate          decimal.Decimal `json:"rate"`
	EffectiveFrom string          `json:"effective_from" binding:"required"`
	EffectiveTo   string          `json:"effective_to"`
}

// SubmitRequest is the optional body of POST /api/vouchers/:id/submit
type SubmitRequest struct {
	Signature string `json:"signature"`
}

// FinalApprovalRequest is the optional body of POST /api/vouchers/:id/approve/final
type FinalApprovalRequest struct {
	DisplayName string `json:"display_name"`
}

// RejectRequest is the body of POST /api/vouchers/:id/reject
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ActionsResponse lists the actions a voucher currently allows
type ActionsResponse struct {
	VoucherID int64    `json:"voucher_id"`
	Actions   []string `json:"actions"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.health != nil {
		healthy, details := h.health()
		response.Components = details
		if !healthy {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{Success: status == http.StatusOK, Data: response})
}

// SaveProfile handles PUT /api/profiles/:user_id. Fleet managers assign
// positions and personal rates; users may edit their own contact fields.
func (h *Handlers) SaveProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	input := service.ProfileInput{
		UserID:              c.Param("user_id"),
		DisplayName:         req.DisplayName,
		Position:            entity.Position(req.Position),
		PersonalMileageRate: req.PersonalMileageRate,
		LarkOpenID:          req.LarkOpenID,
	}

	var profile *entity.Profile
	var err error
	if actingRole(c) == workflow.RoleFleetManager {
		profile, err = h.services.Profiles.SaveProfile(c.Request.Context(), input)
	} else {
		switch {
		case input.UserID != actingUser(c):
			forbidden(c, "only the owner or a fleet manager may edit a profile")
			return
		case req.Position != "" || req.PersonalMileageRate.Valid:
			forbidden(c, "position and personal mileage rate are assigned by a fleet manager")
			return
		}
		profile, err = h.services.Profiles.UpdateContact(c.Request.Context(), input)
	}
	if err != nil {
		h.fail(c, "Failed to save profile", err, "user_id", c.Param("user_id"))
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: profile})
}

// GetProfile handles GET /api/profiles/:user_id
func (h *Handlers) GetProfile(c *gin.Context) {
	profile, err := h.services.Profiles.GetProfile(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, "Failed to get profile", err, "user_id", c.Param("user_id"))
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: profile})
}

// RecordTrip handles POST /api/trips
func (h *Handlers) RecordTrip(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	tripDate, err := time.Parse(entity.TripDateLayout, req.TripDate)
	if err != nil {
		badRequest(c, "trip_date must be YYYY-MM-DD")
		return
	}

	trip, err := h.services.Trips.RecordTrip(c.Request.Context(), service.TripInput{
		ClaimantID:  actingUser(c),
		TripDate:    tripDate,
		Origin:      req.Origin,
		Destination: req.Destination,
		AvoidTolls:  req.AvoidTolls,
		Miles:       req.Miles,
		Lodging:     req.Lodging,
		Meals:       req.Meals,
		Other:       req.Other,
		Purpose:     req.Purpose,
	})
	if err != nil {
		h.fail(c, "Failed to record trip", err, "user_id", actingUser(c))
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: trip})
}

// ListTrips handles GET /api/trips?month=&year=
func (h *Handlers) ListTrips(c *gin.Context) {
	var q PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "month and year are required")
		return
	}

	trips, err := h.services.Trips.ListTrips(c.Request.Context(), actingUser(c), q.Month, q.Year)
	if err != nil {
		h.fail(c, "Failed to list trips", err, "user_id", actingUser(c))
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: trips})
}

// ResolveMileage handles POST /api/mileage/resolve
func (h *Handlers) ResolveMileage(c *gin.Context) {
	var req ResolveMileageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "origin and destination are required")
		return
	}

	result := h.services.Mileage.Resolve(c.Request.Context(), req.Origin, req.Destination, req.AvoidTolls)
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ListMileageRates handles GET /api/mileage-rates
func (h *Handlers) ListMileageRates(c *gin.Context) {
	rates, err := h.services.Vouchers.ListMileageRates(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list mileage rates", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rates})
}

// AddMileageRate handles POST /api/mileage-rates. Fleet managers only.
func (h *Handlers) AddMileageRate(c *gin.Context) {
	if actingRole(c) != workflow.RoleFleetManager {
		forbidden(c, "fleet manager role required")
		return
	}

	var req MileageRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	rate := &entity.MileageRate{Rate: req.Rate}
	from, err := time.Parse(entity.TripDateLayout, req.EffectiveFrom)
	if err != nil {
		badRequest(c, "effective_from must be YYYY-MM-DD")
		return
	}
	rate.EffectiveFrom = from
	if req.EffectiveTo != "" {
		to, err := time.Parse(entity.TripDateLayout, req.EffectiveTo)
		if err != nil {
			badRequest(c, "effective_to must be YYYY-MM-DD")
			return
		}
		rate.EffectiveTo = &to
	}

	if err := h.services.Vouchers.AddMileageRate(c.Request.Context(), rate); err != nil {
		h.fail(c, "Failed to add mileage rate", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: rate})
}

// CreateVoucher handles POST /api/vouchers
func (h *Handlers) CreateVoucher(c *gin.Context) {
	var req PeriodQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "month and year are required")
		return
	}

	voucher, err := h.services.Vouchers.CreateVoucher(c.Request.Context(), actingUser(c), req.Month, req.Year)
	if err != nil {
		h.fail(c, "Failed to create voucher", err, "user_id", actingUser(c), "month", req.Month, "year", req.Year)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: voucher})
}

// GetVoucher handles GET /api/vouchers/:id
func (h *Handlers) GetVoucher(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	voucher, err := h.services.Vouchers.GetVoucher(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get voucher", err, "voucher_id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: voucher})
}

// GetVoucherTrips handles GET /api/vouchers/:id/trips
func (h *Handlers) GetVoucherTrips(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	trips, err := h.services.Vouchers.GetVoucherTrips(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get voucher trips", err, "voucher_id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: trips})
}

// GetVoucherHistory handles GET /api/vouchers/:id/history
func (h *Handlers) GetVoucherHistory(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	history, err := h.services.Vouchers.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get voucher history", err, "voucher_id", id)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// GetVoucherActions handles GET /api/vouchers/:id/actions
func (h *Handlers) GetVoucherActions(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	triggers, err := h.services.Lifecycle.AvailableActions(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get voucher actions", err, "voucher_id", id)
		return
	}

	actions := make([]string, 0, len(triggers))
	for _, t := range triggers {
		actions = append(actions, t.String())
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: ActionsResponse{VoucherID: id, Actions: actions}})
}

// ExportVoucher handles GET /api/vouchers/:id/export
func (h *Handlers) ExportVoucher(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	doc, err := h.services.Vouchers.Export(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to export voucher", err, "voucher_id", id)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// SubmitVoucher handles POST /api/vouchers/:id/submit
func (h *Handlers) SubmitVoucher(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	var req SubmitRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	voucher, err := h.services.Lifecycle.Submit(c.Request.Context(), id, actingUser(c), workflow.SubmitInput{
		Signature: req.Signature,
	})
	h.transitionResult(c, "submit", id, voucher, err)
}

// ApproveFirst handles POST /api/vouchers/:id/approve/first
func (h *Handlers) ApproveFirst(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	voucher, err := h.services.Lifecycle.ApproveAsFirstApprover(c.Request.Context(), id, actingUser(c))
	h.transitionResult(c, "approve_first", id, voucher, err)
}

// ApproveFinal handles POST /api/vouchers/:id/approve/final
func (h *Handlers) ApproveFinal(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	var req FinalApprovalRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	voucher, err := h.services.Lifecycle.ApproveAsFinalApprover(c.Request.Context(), id, actingUser(c), workflow.FinalApproverMeta{
		Role:        actingRole(c),
		DisplayName: req.DisplayName,
	})
	h.transitionResult(c, "approve_final", id, voucher, err)
}

// RejectVoucher handles POST /api/vouchers/:id/reject
func (h *Handlers) RejectVoucher(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	var req RejectRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	voucher, err := h.services.Lifecycle.Reject(c.Request.Context(), id, workflow.RejectInput{
		ActorID: actingUser(c),
		Role:    actingRole(c),
		Reason:  req.Reason,
	})
	h.transitionResult(c, "reject", id, voucher, err)
}

// ReopenVoucher handles POST /api/vouchers/:id/reopen
func (h *Handlers) ReopenVoucher(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	voucher, err := h.services.Lifecycle.Reopen(c.Request.Context(), id, actingUser(c))
	h.transitionResult(c, "reopen", id, voucher, err)
}

// DeleteVoucher handles DELETE /api/vouchers/:id
func (h *Handlers) DeleteVoucher(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	if err := h.services.Lifecycle.Delete(c.Request.Context(), id, actingUser(c)); err != nil {
		h.fail(c, "Voucher action refused", err, "action", "delete", "voucher_id", id, "user_id", actingUser(c))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handlers) transitionResult(c *gin.Context, action string, id int64, voucher *entity.Voucher, err error) {
	if err != nil {
		h.fail(c, "Voucher action refused", err, "action", action, "voucher_id", id, "user_id", actingUser(c))
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: voucher})
}

func voucherID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid voucher ID")
		return 0, false
	}
	return id, true
}

// bindOptionalJSON binds a body when one was sent
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}
