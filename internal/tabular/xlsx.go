package tabular

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"mcp-nutrition-plan/internal/models"
)

// DataSheet is the sheet plan rows are written to. Rows start below the
// header on row 2, column 1.
const DataSheet = "data"

// WriteXLSX writes the plan into a copy of the template workbook. Without a
// template a new workbook is created with a header row. Null outputs are
// written as empty cells so no template value shows through.
func WriteXLSX(path, templatePath string, lines []models.IngredientLine) error {
	f, err := openWorkbook(templatePath)
	if err != nil {
		return err
	}
	defer f.Close()

	for r, l := range lines {
		for c, v := range values(l) {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(DataSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func openWorkbook(templatePath string) (*excelize.File, error) {
	if templatePath != "" {
		f, err := excelize.OpenFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open template %s: %w", templatePath, err)
		}
		idx, err := f.GetSheetIndex(DataSheet)
		if err != nil || idx < 0 {
			f.Close()
			return nil, fmt.Errorf("template %s has no %q sheet", templatePath, DataSheet)
		}
		return f, nil
	}

	f := excelize.NewFile()
	idx, err := f.NewSheet(DataSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	header := make([]interface{}, len(OutputColumns))
	for i, col := range OutputColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(DataSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return f, nil
}

// WriteFile replaces any previous output at path with the plan, as XLSX when
// the path ends in .xlsx and as CSV otherwise.
func WriteFile(path, templatePath string, lines []models.IngredientLine) error {
	if err := os.Remove(path); err == nil {
		log.Printf("Removed previous output %s", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove previous output: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return WriteXLSX(path, templatePath, lines)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, lines); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
