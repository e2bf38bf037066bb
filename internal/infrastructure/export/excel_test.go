package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func sampleVoucher() *entity.Voucher {
	submitted := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	fleet := "Fleet Manager"
	return &entity.Voucher{
		ID:                     12,
		ClaimantID:             "u-1",
		Month:                  2,
		Year:                   2024,
		Status:                 entity.VoucherStatusSubmitted,
		TotalMiles:             decimal.RequireFromString("30.8"),
		MileageRate:            decimal.RequireFromString("0.655"),
		MileageAmount:          decimal.RequireFromString("20.17"),
		TotalLodging:           decimal.RequireFromString("100"),
		TotalMeals:             decimal.RequireFromString("35.5"),
		TotalOther:             decimal.RequireFromString("5"),
		TotalAmount:            decimal.RequireFromString("160.67"),
		SubmittedPosition:      entity.PositionFirstLevelInspector,
		RequiredFirstApprover:  "Second Level Inspector or Supervisor",
		RequiredSecondApprover: &fleet,
		Tier:                   1,
		SubmittedAt:            &submitted,
		EmployeeSignature:      "Casey C.",
	}
}

func summaryValues(t *testing.T, f *excelize.File) map[string]string {
	t.Helper()
	rows, err := f.GetRows(sheetVoucher, excelize.Options{RawCellValue: true})
	require.NoError(t, err)

	values := make(map[string]string)
	for _, row := range rows {
		if len(row) >= 2 {
			values[row[0]] = row[1]
		}
	}
	return values
}

func TestExcelExporter_Export(t *testing.T) {
	exporter := NewExcelExporter("County Roads Dept", zap.NewNop())
	trips := []*entity.Trip{
		{TripDate: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), Origin: "Depot", Destination: "Site 7", Miles: decimal.RequireFromString("10.5"), Lodging: decimal.RequireFromString("100")},
		{TripDate: time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), Origin: "Site 7", Destination: "Depot", AvoidTolls: true, Miles: decimal.RequireFromString("20.3"), MilesEstimated: true},
	}
	history := []*entity.VoucherHistory{
		{ActorID: "u-1", Action: "create", NewStatus: entity.VoucherStatusDraft, CreatedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		{ActorID: "u-1", Action: "submit", PreviousStatus: entity.VoucherStatusDraft, NewStatus: entity.VoucherStatusSubmitted, CreatedAt: time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)},
	}

	data, err := exporter.Export(context.Background(), sampleVoucher(), trips, history)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetVoucher, sheetTrips, sheetHistory}, f.GetSheetList())

	title, err := f.GetCellValue(sheetVoucher, "A1")
	require.NoError(t, err)
	assert.Equal(t, "County Roads Dept Travel Voucher", title)

	values := summaryValues(t, f)
	assert.Equal(t, "12", values["Voucher ID"])
	assert.Equal(t, "2024-02", values["Period"])
	assert.Equal(t, "submitted", values["Status"])
	assert.Equal(t, "Fleet Manager", values["Second approver"])
	assert.Equal(t, "160.67", values["Total"])
	assert.Equal(t, "2024-03-02 09:30", values["Submitted at"])
	assert.NotContains(t, values, "Rejection reason")

	tripRows, err := f.GetRows(sheetTrips, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, tripRows, 3)
	assert.Equal(t, "Date", tripRows[0][0])
	assert.Equal(t, []string{"2024-02-09", "Site 7", "Depot", "yes", "20.3", "yes"}, tripRows[2][:6])

	historyRows, err := f.GetRows(sheetHistory)
	require.NoError(t, err)
	require.Len(t, historyRows, 3)
	assert.Equal(t, "submit", historyRows[2][2])
	assert.Equal(t, "draft", historyRows[2][3])
}

func TestExcelExporter_RejectedVoucher(t *testing.T) {
	v := sampleVoucher()
	rejectedAt := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	v.Status = entity.VoucherStatusRejected
	v.RejectedBy = "u-boss"
	v.RejectedAt = &rejectedAt
	v.RejectionReason = "duplicate trip"

	data, err := NewExcelExporter("", zap.NewNop()).Export(context.Background(), v, nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	values := summaryValues(t, f)
	assert.Equal(t, "duplicate trip", values["Rejection reason"])
	assert.Equal(t, "u-boss", values["Rejected by"])

	title, _ := f.GetCellValue(sheetVoucher, "A1")
	assert.Equal(t, "Travel Voucher", title)
}

func TestExcelExporter_Metadata(t *testing.T) {
	e := NewExcelExporter("", zap.NewNop())
	assert.Equal(t, ".xlsx", e.FileExtension())
	assert.Contains(t, e.ContentType(), "spreadsheetml")
}

func TestWriteHeader_EmptyHeader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	st, err := newStyles(f)
	require.NoError(t, err)

	assert.Error(t, writeHeader(f, st, "Sheet1", nil))
}

func TestWriteTrips_ColumnStyles(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(sheetTrips)
	require.NoError(t, err)
	st, err := newStyles(f)
	require.NoError(t, err)

	trips := []*entity.Trip{
		{TripDate: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), Miles: decimal.RequireFromString("10.5"), Meals: decimal.RequireFromString("12")},
		{TripDate: time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), Miles: decimal.RequireFromString("4"), Other: decimal.RequireFromString("3.5")},
	}
	require.NoError(t, writeTrips(f, st, trips))

	for cell, want := range map[string]int{"E3": st.miles, "G2": st.money, "I3": st.money, "A1": st.bold} {
		got, err := f.GetCellStyle(sheetTrips, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
}
