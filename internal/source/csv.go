package source

import (
	"encoding/csv"
	"os"

	"github.com/fjglira/bugzero/internal/domain"
)

// CSVLoader reads test cases from comma separated files with a header row.
type CSVLoader struct{}

// NewCSVLoader creates a new CSVLoader.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

// SupportedExtensions returns the file extensions this loader handles.
func (l *CSVLoader) SupportedExtensions() []string {
	return []string{".csv"}
}

// Load reads the test case at path.
func (l *CSVLoader) Load(path string) (*domain.TestCase, error) {
	if err := checkExists(path, "test case"); err != nil {
		return nil, err
	}
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	steps, err := stepsFromRows(path, rows)
	if err != nil {
		return nil, err
	}
	return &domain.TestCase{Name: caseName(path), Source: path, Steps: steps}, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewError("source", path, 0, "failed to open file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, domain.NewError("source", path, 0, "failed to parse CSV", err)
	}
	return rows, nil
}
