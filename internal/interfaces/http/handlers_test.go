package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-voucher/internal/application/service"
	"github.com/garyjia/travel-voucher/internal/application/workflow"
	"github.com/garyjia/travel-voucher/internal/domain/entity"
	domainwf "github.com/garyjia/travel-voucher/internal/domain/workflow"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeProfiles struct {
	saveFunc    func(ctx context.Context, input service.ProfileInput) (*entity.Profile, error)
	contactFunc func(ctx context.Context, input service.ProfileInput) (*entity.Profile, error)
}

func (f *fakeProfiles) SaveProfile(ctx context.Context, input service.ProfileInput) (*entity.Profile, error) {
	if f.saveFunc != nil {
		return f.saveFunc(ctx, input)
	}
	return &entity.Profile{UserID: input.UserID, Position: input.Position}, nil
}

func (f *fakeProfiles) UpdateContact(ctx context.Context, input service.ProfileInput) (*entity.Profile, error) {
	if f.contactFunc != nil {
		return f.contactFunc(ctx, input)
	}
	return &entity.Profile{UserID: input.UserID, DisplayName: input.DisplayName, Position: entity.PositionFirstLevelInspector}, nil
}

func (f *fakeProfiles) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	return nil, entity.ErrNotFound
}

type fakeTrips struct {
	recordFunc func(ctx context.Context, input service.TripInput) (*entity.Trip, error)
}

func (f *fakeTrips) RecordTrip(ctx context.Context, input service.TripInput) (*entity.Trip, error) {
	return f.recordFunc(ctx, input)
}

func (f *fakeTrips) ListTrips(ctx context.Context, claimantID string, month, year int) ([]*entity.Trip, error) {
	return []*entity.Trip{{ID: 1, ClaimantID: claimantID}}, nil
}

type fakeMileage struct{}

func (fakeMileage) Resolve(ctx context.Context, origin, destination string, avoidTolls bool) service.MileageResult {
	return service.MileageResult{Miles: decimal.RequireFromString("42.0"), UsedFallback: true}
}

type fakeVouchers struct {
	createFunc  func(ctx context.Context, claimantID string, month, year int) (*entity.Voucher, error)
	exportFunc  func(ctx context.Context, id int64) (*service.ExportedVoucher, error)
	addRateFunc func(ctx context.Context, rate *entity.MileageRate) error
}

func (f *fakeVouchers) CreateVoucher(ctx context.Context, claimantID string, month, year int) (*entity.Voucher, error) {
	return f.createFunc(ctx, claimantID, month, year)
}

func (f *fakeVouchers) GetVoucher(ctx context.Context, id int64) (*entity.Voucher, error) {
	if id == 404 {
		return nil, fmt.Errorf("voucher %d: %w", id, entity.ErrNotFound)
	}
	return &entity.Voucher{ID: id, Status: entity.VoucherStatusDraft}, nil
}

func (f *fakeVouchers) GetVoucherTrips(ctx context.Context, id int64) ([]*entity.Trip, error) {
	return nil, nil
}

func (f *fakeVouchers) GetHistory(ctx context.Context, id int64) ([]*entity.VoucherHistory, error) {
	return []*entity.VoucherHistory{{VoucherID: id, Action: "create"}}, nil
}

func (f *fakeVouchers) Export(ctx context.Context, id int64) (*service.ExportedVoucher, error) {
	return f.exportFunc(ctx, id)
}

func (f *fakeVouchers) AddMileageRate(ctx context.Context, rate *entity.MileageRate) error {
	if f.addRateFunc != nil {
		return f.addRateFunc(ctx, rate)
	}
	return nil
}

func (f *fakeVouchers) ListMileageRates(ctx context.Context) ([]*entity.MileageRate, error) {
	return nil, nil
}

type fakeLifecycle struct {
	submitFunc  func(ctx context.Context, id int64, claimantID string, input workflow.SubmitInput) (*entity.Voucher, error)
	firstFunc   func(ctx context.Context, id int64, approverID string) (*entity.Voucher, error)
	finalFunc   func(ctx context.Context, id int64, approverID string, meta workflow.FinalApproverMeta) (*entity.Voucher, error)
	rejectFunc  func(ctx context.Context, id int64, input workflow.RejectInput) (*entity.Voucher, error)
	deleteFunc  func(ctx context.Context, id int64, ownerID string) error
	actionsFunc func(ctx context.Context, id int64) ([]domainwf.Trigger, error)
}

func (f *fakeLifecycle) Submit(ctx context.Context, id int64, claimantID string, input workflow.SubmitInput) (*entity.Voucher, error) {
	return f.submitFunc(ctx, id, claimantID, input)
}

func (f *fakeLifecycle) ApproveAsFirstApprover(ctx context.Context, id int64, approverID string) (*entity.Voucher, error) {
	return f.firstFunc(ctx, id, approverID)
}

func (f *fakeLifecycle) ApproveAsFinalApprover(ctx context.Context, id int64, approverID string, meta workflow.FinalApproverMeta) (*entity.Voucher, error) {
	return f.finalFunc(ctx, id, approverID, meta)
}

func (f *fakeLifecycle) Reject(ctx context.Context, id int64, input workflow.RejectInput) (*entity.Voucher, error) {
	return f.rejectFunc(ctx, id, input)
}

func (f *fakeLifecycle) Reopen(ctx context.Context, id int64, ownerID string) (*entity.Voucher, error) {
	return &entity.Voucher{ID: id, Status: entity.VoucherStatusDraft}, nil
}

func (f *fakeLifecycle) Delete(ctx context.Context, id int64, ownerID string) error {
	return f.deleteFunc(ctx, id, ownerID)
}

func (f *fakeLifecycle) AvailableActions(ctx context.Context, id int64) ([]domainwf.Trigger, error) {
	return f.actionsFunc(ctx, id)
}

type fixture struct {
	profiles  *fakeProfiles
	trips     *fakeTrips
	vouchers  *fakeVouchers
	lifecycle *fakeLifecycle
	healthy   bool
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	return &fixture{
		profiles:  &fakeProfiles{},
		trips:     &fakeTrips{},
		vouchers:  &fakeVouchers{},
		lifecycle: &fakeLifecycle{},
		healthy:   true,
	}
}

func (f *fixture) router() *gin.Engine {
	services := Services{
		Profiles:  f.profiles,
		Trips:     f.trips,
		Mileage:   fakeMileage{},
		Vouchers:  f.vouchers,
		Lifecycle: f.lifecycle,
	}
	health := func() (bool, interface{}) {
		return f.healthy, map[string]bool{"database": f.healthy}
	}
	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode
	return NewServer(cfg, services, health, nopLogger{}).Router()
}

func (f *fixture) do(method, path, user, role, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(headerUserID, user)
	}
	if role != "" {
		req.Header.Set(headerUserRole, role)
	}
	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/health", "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)

	f.healthy = false
	w = f.do(http.MethodGet, "/health", "", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPI_RequiresUserHeader(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/vouchers/1", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, decode(t, w).Error, headerUserID)
}

func TestRecordTrip(t *testing.T) {
	f := newFixture()
	f.trips.recordFunc = func(ctx context.Context, input service.TripInput) (*entity.Trip, error) {
		assert.Equal(t, "emp-1", input.ClaimantID)
		assert.Equal(t, 2024, input.TripDate.Year())
		assert.True(t, input.AvoidTolls)
		require.NotNil(t, input.Miles)
		assert.Equal(t, "12.5", input.Miles.String())
		return &entity.Trip{ID: 3, ClaimantID: input.ClaimantID, Miles: *input.Miles}, nil
	}

	w := f.do(http.MethodPost, "/api/trips", "emp-1", "",
		`{"trip_date":"2024-03-04","origin":"A","destination":"B","avoid_tolls":true,"miles":"12.5","meals":"10.00"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, "/api/trips", "emp-1", "",
		`{"trip_date":"03/04/2024","origin":"A","destination":"B"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/trips", "emp-1", "", `{"trip_date":"2024-03-04"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveMileage(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/mileage/resolve", "emp-1", "", `{"origin":"A","destination":"B"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"used_fallback":true`)
}

func TestCreateVoucher_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"created", nil, http.StatusCreated},
		{"validation", fmt.Errorf("%w: month out of range", entity.ErrValidation), http.StatusBadRequest},
		{"unknown claimant", entity.ErrNotFound, http.StatusNotFound},
		{"duplicate", entity.ErrDuplicatePeriod, http.StatusConflict},
		{"no trips", entity.ErrNoTripsFound, http.StatusUnprocessableEntity},
		{"driver failure", fmt.Errorf("insert voucher: disk I/O error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.vouchers.createFunc = func(ctx context.Context, claimantID string, month, year int) (*entity.Voucher, error) {
				assert.Equal(t, "emp-1", claimantID)
				assert.Equal(t, 3, month)
				if tt.err != nil {
					return nil, tt.err
				}
				return &entity.Voucher{ID: 1, ClaimantID: claimantID, Month: month, Year: year}, nil
			}

			w := f.do(http.MethodPost, "/api/vouchers", "emp-1", "", `{"month":3,"year":2024}`)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", decode(t, w).Error)
			}
		})
	}
}

func TestGetVoucher(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/vouchers/7", "emp-1", "", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/vouchers/404", "emp-1", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/vouchers/abc", "emp-1", "", "").Code)
}

func TestSubmitVoucher(t *testing.T) {
	f := newFixture()
	f.lifecycle.submitFunc = func(ctx context.Context, id int64, claimantID string, input workflow.SubmitInput) (*entity.Voucher, error) {
		if input.Signature == "" {
			return &entity.Voucher{ID: id, Status: entity.VoucherStatusSubmitted}, nil
		}
		return nil, entity.NewTransitionError(entity.VoucherStatusSubmitted, "submit")
	}

	w := f.do(http.MethodPost, "/api/vouchers/2/submit", "emp-1", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, "/api/vouchers/2/submit", "emp-1", "", `{"signature":"Ivy"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode(t, w).Error, "voucher has already been submitted")
}

func TestApprovals(t *testing.T) {
	f := newFixture()
	f.lifecycle.firstFunc = func(ctx context.Context, id int64, approverID string) (*entity.Voucher, error) {
		return nil, fmt.Errorf("%w: position first-level-inspector", entity.ErrUnauthorizedApprover)
	}
	f.lifecycle.finalFunc = func(ctx context.Context, id int64, approverID string, meta workflow.FinalApproverMeta) (*entity.Voucher, error) {
		assert.Equal(t, workflow.RoleFleetManager, meta.Role)
		assert.Equal(t, "Fran", meta.DisplayName)
		return &entity.Voucher{ID: id, Status: entity.VoucherStatusApproved}, nil
	}

	w := f.do(http.MethodPost, "/api/vouchers/2/approve/first", "insp-1", "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPost, "/api/vouchers/2/approve/final", "fleet-1", "Fleet_Manager", `{"display_name":"Fran"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRejectVoucher(t *testing.T) {
	f := newFixture()
	f.lifecycle.rejectFunc = func(ctx context.Context, id int64, input workflow.RejectInput) (*entity.Voucher, error) {
		if strings.TrimSpace(input.Reason) == "" {
			return nil, entity.ErrReasonRequired
		}
		assert.Equal(t, workflow.RoleEmployee, input.Role)
		return &entity.Voucher{ID: id, Status: entity.VoucherStatusRejected, RejectionReason: input.Reason}, nil
	}

	w := f.do(http.MethodPost, "/api/vouchers/2/reject", "sup-1", "", `{"reason":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/vouchers/2/reject", "sup-1", "", `{"reason":"missing receipts"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteVoucher(t *testing.T) {
	f := newFixture()
	f.lifecycle.deleteFunc = func(ctx context.Context, id int64, ownerID string) error {
		if ownerID != "emp-1" {
			return entity.ErrNotOwner
		}
		return nil
	}

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/vouchers/2", "emp-1", "", "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, "/api/vouchers/2", "emp-2", "", "").Code)
}

func TestGetVoucherActions(t *testing.T) {
	f := newFixture()
	f.lifecycle.actionsFunc = func(ctx context.Context, id int64) ([]domainwf.Trigger, error) {
		return []domainwf.Trigger{domainwf.TriggerApproveFinal, domainwf.TriggerReject}, nil
	}

	w := f.do(http.MethodGet, "/api/vouchers/2/actions", "emp-1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actions":["approve_final","reject"]`)
}

func TestExportVoucher(t *testing.T) {
	f := newFixture()
	f.vouchers.exportFunc = func(ctx context.Context, id int64) (*service.ExportedVoucher, error) {
		return &service.ExportedVoucher{
			Filename:    "voucher-emp-1-2024-03.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        []byte("PK"),
		}, nil
	}

	w := f.do(http.MethodGet, "/api/vouchers/2/export", "emp-1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PK", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "voucher-emp-1-2024-03.xlsx")
}

func TestAddMileageRate(t *testing.T) {
	f := newFixture()
	f.vouchers.addRateFunc = func(ctx context.Context, rate *entity.MileageRate) error {
		assert.Equal(t, "0.67", rate.Rate.String())
		require.NotNil(t, rate.EffectiveTo)
		return nil
	}
	body := `{"rate":"0.67","effective_from":"2024-01-01","effective_to":"2024-12-31"}`

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/mileage-rates", "emp-1", "", body).Code)
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/mileage-rates", "fleet-1", "fleet_manager", body).Code)
}

func TestSaveProfile_FleetManagerAssignsPosition(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPut, "/api/profiles/emp-1", "fleet-1", "fleet_manager", `{"display_name":"Ivy","position":"district-manager"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"position":"district-manager"`)
}

func TestSaveProfile_Authorization(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		user   string
		body   string
		status int
	}{
		{"self promotion", "/api/profiles/emp-1", "emp-1", `{"position":"division-manager"}`, http.StatusForbidden},
		{"own personal rate", "/api/profiles/emp-1", "emp-1", `{"personal_mileage_rate":"5.00"}`, http.StatusForbidden},
		{"clear someone else's position", "/api/profiles/emp-2", "emp-1", `{"display_name":"Victim"}`, http.StatusForbidden},
		{"edit someone else's position", "/api/profiles/emp-2", "emp-1", `{"position":"first-level-inspector"}`, http.StatusForbidden},
		{"own contact fields", "/api/profiles/emp-1", "emp-1", `{"display_name":"Ivy","lark_open_id":"ou_ivy"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			var saved, contact bool
			f.profiles.saveFunc = func(ctx context.Context, input service.ProfileInput) (*entity.Profile, error) {
				saved = true
				return &entity.Profile{UserID: input.UserID, Position: input.Position}, nil
			}
			f.profiles.contactFunc = func(ctx context.Context, input service.ProfileInput) (*entity.Profile, error) {
				contact = true
				assert.Equal(t, tt.user, input.UserID)
				return &entity.Profile{UserID: input.UserID, Position: entity.PositionFirstLevelInspector}, nil
			}

			w := f.do(http.MethodPut, tt.path, tt.user, "", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, saved, "assignment path is fleet manager only")
			assert.Equal(t, tt.status == http.StatusOK, contact)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"position":"first-level-inspector"`)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entity.NewTransitionError(entity.VoucherStatusApproved, "reject"), http.StatusConflict},
		{entity.ErrPositionNotSet, http.StatusBadRequest},
		{entity.ErrNotOwner, http.StatusForbidden},
		{entity.ErrUnauthorizedApprover, http.StatusForbidden},
		{entity.ErrNotFound, http.StatusNotFound},
		{entity.ErrConflict, http.StatusConflict},
		{entity.ErrDuplicatePeriod, http.StatusConflict},
		{entity.ErrNoTripsFound, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		got, _ := statusFor(fmt.Errorf("wrapped: %w", tt.err))
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}
