package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// CasesSheet holds one row per case
	CasesSheet = "Cases"
	// HistorySheet holds one row per recorded event
	HistorySheet = "History"

	timeLayout = "2006-01-02 15:04:05"
)

var (
	caseHeader    = []interface{}{"Case ID", "Case Number", "Template", "Status", "Stage ID", "Role ID", "Assigned To", "Author", "Modified By", "Created", "Updated"}
	historyHeader = []interface{}{"Case ID", "Case Number", "Event", "From", "To", "Recorded"}
)

// XLSXWriter renders case histories as an Excel workbook
type XLSXWriter struct {
	logger *zap.Logger
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(logger *zap.Logger) *XLSXWriter {
	return &XLSXWriter{logger: logger}
}

// WriteCases writes a Cases sheet and a History sheet to w
func (x *XLSXWriter) WriteCases(ctx context.Context, w io.Writer, cases []port.CaseHistory) error {
	f := excelize.NewFile()
	defer f.Close()

	// excelize starts every workbook with Sheet1
	if err := f.SetSheetName("Sheet1", CasesSheet); err != nil {
		return fmt.Errorf("failed to name cases sheet: %w", err)
	}
	if _, err := f.NewSheet(HistorySheet); err != nil {
		return fmt.Errorf("failed to create history sheet: %w", err)
	}

	if err := x.writeRow(f, CasesSheet, 1, caseHeader); err != nil {
		return err
	}
	if err := x.writeRow(f, HistorySheet, 1, historyHeader); err != nil {
		return err
	}

	caseRow, historyRow := 2, 2
	for _, ch := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}

		c := ch.Case
		row := []interface{}{
			c.ID, c.CaseNumber, ch.TemplateTitle, c.Status, c.CurrentStageID, c.CurrentRoleID,
			c.AssignedUserID, c.AuthorUsername, c.ModifiedBy, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
		}
		if err := x.writeRow(f, CasesSheet, caseRow, row); err != nil {
			return err
		}
		caseRow++

		for _, evt := range ch.Events {
			row := []interface{}{c.ID, c.CaseNumber, string(evt.Type), evt.OldValue, evt.NewValue, formatTime(evt.CreatedAt)}
			if err := x.writeRow(f, HistorySheet, historyRow, row); err != nil {
				return err
			}
			historyRow++
		}
	}

	for _, sheet := range []string{CasesSheet, HistorySheet} {
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			x.logger.Warn("Failed to freeze header row", zap.String("sheet", sheet), zap.Error(err))
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	x.logger.Info("Case workbook written",
		zap.Int("cases", caseRow-2),
		zap.Int("events", historyRow-2))
	return nil
}

func (x *XLSXWriter) writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

var _ port.ReportWriter = (*XLSXWriter)(nil)
