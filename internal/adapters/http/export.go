package httpadapter

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

// buildSessionWorkbook writes the session's append-only history into an
// XLSX workbook with one Tags sheet and one Plans sheet, in record order.
func buildSessionWorkbook(tags []domain.TagRecord, plans []domain.PlanRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", "Tags"); err != nil {
		return nil, fmt.Errorf("rename tags sheet: %w", err)
	}
	if err := setRow(f, "Tags", 1, "session_id", "tag", "recorded_at"); err != nil {
		return nil, err
	}
	for i, record := range tags {
		if err := setRow(f, "Tags", i+2, record.SessionID, record.Tag, record.RecordedAt.Format(time.RFC3339)); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet("Plans"); err != nil {
		return nil, fmt.Errorf("create plans sheet: %w", err)
	}
	if err := setRow(f, "Plans", 1, "session_id", "status", "plan_text", "recorded_at"); err != nil {
		return nil, err
	}
	for i, record := range plans {
		if err := setRow(f, "Plans", i+2, record.SessionID, string(record.Status), record.PlanText, record.RecordedAt.Format(time.RFC3339)); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
