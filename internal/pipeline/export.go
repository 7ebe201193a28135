package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"ibovrank/internal"
	"ibovrank/internal/util"
)

// Export writes the CSV first, then the workbook. A failed workbook leaves
// the CSV on disk.
func Export(rows []internal.ConstituentRow, csvPath, xlsxPath string) error {
	if err := ExportRowsToCSV(rows, csvPath); err != nil {
		return err
	}
	return ExportRowsToXLSX(rows, xlsxPath)
}

func ExportRowsToCSV(rows []internal.ConstituentRow, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("%w: %w", internal.ErrFilesystem, err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", internal.ErrFilesystem, outputPath, err)
	}

	w := csv.NewWriter(f)
	w.Comma = ';'
	_ = w.Write(internal.ExportColumns)
	for _, row := range rows {
		_ = w.Write([]string{
			strconv.Itoa(row.Rank),
			row.Code,
			row.Asset,
			row.Type,
			row.TheoreticalQuantity,
			util.FormatFloat(row.ParticipationPercent),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write %s: %w", internal.ErrFilesystem, outputPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", internal.ErrFilesystem, outputPath, err)
	}
	return nil
}

func ExportRowsToXLSX(rows []internal.ConstituentRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range internal.ExportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.Rank)
		set(2, row.Code)
		set(3, row.Asset)
		set(4, row.Type)
		set(5, row.TheoreticalQuantity)
		set(6, row.ParticipationPercent)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("%w: %w", internal.ErrFilesystem, err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("%w: save %s: %w", internal.ErrFilesystem, outputPath, err)
	}
	return nil
}
