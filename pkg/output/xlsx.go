package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sdejongh/dupescout/pkg/models"
)

// Sheet names in the exported workbook
const (
	SheetDuplicates = "Duplicates"
	SheetZeroByte   = "Zero-byte files"
)

// XLSXExporter renders the report as an Excel workbook with one sheet
// for duplicate groups and one for zero-byte files
type XLSXExporter struct{}

// NewXLSXExporter creates a new spreadsheet exporter
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Export writes the report as an xlsx workbook. An empty report still
// produces a valid workbook with headers.
func (e *XLSXExporter) Export(w io.Writer, report *models.ScanReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDuplicates); err != nil {
		return fmt.Errorf("failed to create duplicates sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetZeroByte); err != nil {
		return fmt.Errorf("failed to create zero-byte sheet: %w", err)
	}

	if err := e.writeDuplicates(f, report); err != nil {
		return err
	}
	if err := e.writeZeroByte(f, report); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeDuplicates fills the duplicates sheet, one row per member path
func (e *XLSXExporter) writeDuplicates(f *excelize.File, report *models.ScanReport) error {
	headers := []interface{}{"Group", "Path", "Size", "Hash"}
	if err := setRow(f, SheetDuplicates, 1, headers); err != nil {
		return err
	}

	row := 2
	for i, group := range report.Groups {
		for _, path := range group.Paths {
			values := []interface{}{i + 1, path, group.Size, group.Hash}
			if err := setRow(f, SheetDuplicates, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

// writeZeroByte fills the zero-byte sheet
func (e *XLSXExporter) writeZeroByte(f *excelize.File, report *models.ScanReport) error {
	if err := setRow(f, SheetZeroByte, 1, []interface{}{"Path"}); err != nil {
		return err
	}
	for i, rec := range report.ZeroByte {
		if err := setRow(f, SheetZeroByte, i+2, []interface{}{rec.Path}); err != nil {
			return err
		}
	}
	return nil
}

// setRow writes values into consecutive cells of one row
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// Name returns the exporter name
func (e *XLSXExporter) Name() string {
	return "xlsx"
}
