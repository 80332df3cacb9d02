package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fjglira/bugzero/internal/domain"
)

// ExcelLoader reads test cases from .xlsx workbooks.
type ExcelLoader struct {
	sheet string
}

// NewExcelLoader creates an ExcelLoader reading the named sheet, or the
// first sheet when sheet is empty.
func NewExcelLoader(sheet string) *ExcelLoader {
	return &ExcelLoader{sheet: sheet}
}

// SupportedExtensions returns the file extensions this loader handles.
func (l *ExcelLoader) SupportedExtensions() []string {
	return []string{".xlsx", ".xlsm"}
}

// Load reads the test case at path.
func (l *ExcelLoader) Load(path string) (*domain.TestCase, error) {
	if err := checkExists(path, "test case"); err != nil {
		return nil, err
	}
	rows, err := readSheet(path, l.sheet)
	if err != nil {
		return nil, err
	}
	steps, err := stepsFromRows(path, rows)
	if err != nil {
		return nil, err
	}
	return &domain.TestCase{Name: caseName(path), Source: path, Steps: steps}, nil
}

// readSheet returns every row of the sheet, or of the first sheet when
// sheet is empty.
func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, domain.NewError("source", path, 0, "failed to open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, domain.NewError("source", path, 0, "workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, domain.NewError("source", path, 0, fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	return rows, nil
}

// saveExcel writes steps to a new workbook with a Step/Command/Locator/Value header.
func saveExcel(path string, tc *domain.TestCase) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if tc.Name != "" {
		if err := f.SetSheetName(sheet, sheetName(tc.Name)); err == nil {
			sheet = sheetName(tc.Name)
		}
	}

	header := make([]any, len(stepHeader))
	for i, h := range stepHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return domain.NewError("source", path, 0, "failed to write header row", err)
	}
	for i, s := range renumber(tc.Steps) {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{s.Number, s.Command, s.Locator, s.Value}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return domain.NewError("source", path, s.Number, "failed to write step row", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return domain.NewError("source", path, 0, "failed to save workbook", err)
	}
	return nil
}

// sheetName trims name to the 31 characters Excel allows and drops the
// characters it forbids.
func sheetName(name string) string {
	var out []rune
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	if len(out) == 0 {
		return "Sheet1"
	}
	return string(out)
}
