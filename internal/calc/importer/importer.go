package importer

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"Inertia/internal/calc/opening"

	"github.com/xuri/excelize/v2"
)

// RowError reports a spreadsheet row that could not be read. Row is
// 1-based, as shown in a spreadsheet program.
type RowError struct {
	Row int    `json:"row"`
	Msg string `json:"error"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Msg)
}

// Row maps a parsed input back to its spreadsheet row.
type Row struct {
	Row   int
	Input opening.Input
}

// Read parses the first sheet of an XLSX workbook. Expected columns are
// length_mm, opening_diameter_mm, section, r; the first row is a header.
// Blank rows are skipped.
func Read(r io.Reader) ([]Row, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("empty sheet")
	}

	var (
		out []Row
		bad []RowError
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		in, err := parseRow(row)
		if err != nil {
			bad = append(bad, RowError{Row: i + 1, Msg: err.Error()})
			continue
		}
		out = append(out, Row{Row: i + 1, Input: in})
	}
	return out, bad, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseRow(row []string) (opening.Input, error) {
	if len(row) < 4 {
		return opening.Input{}, fmt.Errorf("expected 4 columns, got %d", len(row))
	}
	length, err := toFloat(row[0])
	if err != nil {
		return opening.Input{}, fmt.Errorf("length: %w", err)
	}
	diameter, err := toFloat(row[1])
	if err != nil {
		return opening.Input{}, fmt.Errorf("opening diameter: %w", err)
	}
	name := strings.ToUpper(strings.TrimSpace(row[2]))
	if name == "" {
		return opening.Input{}, fmt.Errorf("section is empty")
	}
	r, err := toFloat(row[3])
	if err != nil {
		return opening.Input{}, fmt.Errorf("r: %w", err)
	}
	return opening.Input{
		LengthMM:          length,
		OpeningDiameterMM: diameter,
		Section:           name,
		R:                 r,
	}, nil
}

func toFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}
