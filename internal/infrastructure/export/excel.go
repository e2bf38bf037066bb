// Package export renders vouchers as downloadable spreadsheets.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/travel-voucher/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	sheetVoucher = "Voucher"
	sheetTrips   = "Trips"
	sheetHistory = "History"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timestampLayout = "2006-01-02 15:04"
)

var (
	tripHeader    = []interface{}{"Date", "Origin", "Destination", "Avoid tolls", "Miles", "Estimated", "Lodging", "Meals", "Other", "Purpose"}
	historyHeader = []interface{}{"When", "Actor", "Action", "From", "To", "Note"}
)

// ExcelExporter writes a voucher workbook with summary, trip and history sheets
type ExcelExporter struct {
	organization string
	logger       *zap.Logger
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(organization string, logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{
		organization: organization,
		logger:       logger,
	}
}

// ContentType returns the MIME type of the workbook
func (e *ExcelExporter) ContentType() string {
	return xlsxContentType
}

// FileExtension returns the workbook file extension
func (e *ExcelExporter) FileExtension() string {
	return ".xlsx"
}

// Export renders the workbook and returns its bytes
func (e *ExcelExporter) Export(ctx context.Context, voucher *entity.Voucher, trips []*entity.Trip, history []*entity.VoucherHistory) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetVoucher); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{sheetTrips, sheetHistory} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := e.writeSummary(f, styles, voucher); err != nil {
		return nil, err
	}
	if err := writeTrips(f, styles, trips); err != nil {
		return nil, err
	}
	if err := writeHistory(f, styles, history); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Voucher exported",
		zap.Int64("voucher_id", voucher.ID),
		zap.Int("trip_count", len(trips)),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

type styles struct {
	bold  int
	money int
	miles int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error

	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	moneyFormat := "0.00"
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	milesFormat := "0.0"
	if s.miles, err = f.NewStyle(&excelize.Style{CustomNumFmt: &milesFormat}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	return s, nil
}

// summaryRow is one label/value line on the summary sheet. Style 0 keeps the default.
type summaryRow struct {
	label string
	value interface{}
	style int
}

func (e *ExcelExporter) writeSummary(f *excelize.File, st styles, v *entity.Voucher) error {
	title := "Travel Voucher"
	if e.organization != "" {
		title = e.organization + " " + title
	}
	if err := f.SetCellValue(sheetVoucher, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetVoucher, "A1", "A1", st.bold); err != nil {
		return err
	}

	secondApprover := ""
	if v.RequiredSecondApprover != nil {
		secondApprover = *v.RequiredSecondApprover
	}

	rows := []summaryRow{
		{label: "Voucher ID", value: v.ID},
		{label: "Claimant", value: v.ClaimantID},
		{label: "Period", value: fmt.Sprintf("%04d-%02d", v.Year, v.Month)},
		{label: "Status", value: v.Status.String()},
		{label: "Position", value: v.SubmittedPosition.String()},
		{label: "Tier", value: v.Tier},
		{label: "First approver", value: v.RequiredFirstApprover},
		{label: "Second approver", value: secondApprover},
		{},
		{label: "Total miles", value: v.TotalMiles.InexactFloat64(), style: st.miles},
		{label: "Mileage rate", value: v.MileageRate.InexactFloat64()},
		{label: "Mileage amount", value: v.MileageAmount.InexactFloat64(), style: st.money},
		{label: "Lodging", value: v.TotalLodging.InexactFloat64(), style: st.money},
		{label: "Meals", value: v.TotalMeals.InexactFloat64(), style: st.money},
		{label: "Other", value: v.TotalOther.InexactFloat64(), style: st.money},
		{label: "Total", value: v.TotalAmount.InexactFloat64(), style: st.money},
		{},
		{label: "Submitted at", value: formatTime(v.SubmittedAt)},
		{label: "Employee signature", value: v.EmployeeSignature},
		{label: "Supervisor", value: v.SupervisorID},
		{label: "Supervisor approved at", value: formatTime(v.SupervisorApprovedAt)},
		{label: "Supervisor signature", value: v.SupervisorSignature},
		{label: "Fleet manager", value: v.FleetManagerID},
		{label: "Fleet approved at", value: formatTime(v.FleetApprovedAt)},
		{label: "Fleet signature", value: v.FleetSignature},
	}
	if v.Status == entity.VoucherStatusRejected {
		rows = append(rows,
			summaryRow{label: "Rejected by", value: v.RejectedBy},
			summaryRow{label: "Rejected at", value: formatTime(v.RejectedAt)},
			summaryRow{label: "Rejection reason", value: v.RejectionReason},
		)
	}

	for i, row := range rows {
		if row.label == "" {
			continue
		}
		r := i + 3
		labelCell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		valueCell, err := excelize.CoordinatesToCellName(2, r)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetVoucher, labelCell, row.label); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetVoucher, labelCell, labelCell, st.bold); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetVoucher, valueCell, row.value); err != nil {
			return err
		}
		if row.style != 0 {
			if err := f.SetCellStyle(sheetVoucher, valueCell, valueCell, row.style); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheetVoucher, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(sheetVoucher, "B", "B", 48)
}

func writeTrips(f *excelize.File, st styles, trips []*entity.Trip) error {
	if err := writeHeader(f, st, sheetTrips, tripHeader); err != nil {
		return err
	}

	for i, trip := range trips {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			trip.TripDate.Format(entity.TripDateLayout),
			trip.Origin,
			trip.Destination,
			yesNo(trip.AvoidTolls),
			trip.Miles.InexactFloat64(),
			yesNo(trip.MilesEstimated),
			trip.Lodging.InexactFloat64(),
			trip.Meals.InexactFloat64(),
			trip.Other.InexactFloat64(),
			trip.Purpose,
		}
		if err := f.SetSheetRow(sheetTrips, cell, &row); err != nil {
			return fmt.Errorf("failed to write trip row: %w", err)
		}
	}

	if len(trips) > 0 {
		last := len(trips) + 1
		milesEnd, err := excelize.CoordinatesToCellName(5, last)
		if err != nil {
			return err
		}
		moneyEnd, err := excelize.CoordinatesToCellName(9, last)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetTrips, "E2", milesEnd, st.miles); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetTrips, "G2", moneyEnd, st.money); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheetTrips, "B", "C", 36)
}

func writeHistory(f *excelize.File, st styles, history []*entity.VoucherHistory) error {
	if err := writeHeader(f, st, sheetHistory, historyHeader); err != nil {
		return err
	}

	for i, h := range history {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			h.CreatedAt.UTC().Format(timestampLayout),
			h.ActorID,
			h.Action,
			h.PreviousStatus.String(),
			h.NewStatus.String(),
			h.Note,
		}
		if err := f.SetSheetRow(sheetHistory, cell, &row); err != nil {
			return fmt.Errorf("failed to write history row: %w", err)
		}
	}
	return nil
}

func writeHeader(f *excelize.File, st styles, sheet string, header []interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	end, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", end, st.bold)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
