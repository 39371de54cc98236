package report

import (
	"fmt"
	"io"
	"strings"

	"Inertia/internal/repo"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// Headers is the fixed column order of every export.
var Headers = []string{"Alpha α", "L/dg", "q", "R", "λ"}

// asciiHeaders is used where the output font has no Greek glyphs.
var asciiHeaders = []string{"Alpha", "L/dg", "q", "R", "Lambda"}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatPDF, FormatXLSX, FormatHTML:
		return f, nil
	case "excel":
		return FormatXLSX, nil
	case "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/html; charset=utf-8"
	}
}

// Row returns the five display values of rec in column order.
func Row(rec repo.Record) []float64 {
	return []float64{rec.Alpha, rec.X, rec.Q, rec.R, rec.Lambda}
}

// Cells formats rec the way the result table shows it: three decimals,
// four for lambda.
func Cells(rec repo.Record) []string {
	return []string{
		fmt.Sprintf("%.3f", rec.Alpha),
		fmt.Sprintf("%.3f", rec.X),
		fmt.Sprintf("%.3f", rec.Q),
		fmt.Sprintf("%.3f", rec.R),
		fmt.Sprintf("%.4f", rec.Lambda),
	}
}

// Write serializes recs, in order, to w.
func Write(format Format, w io.Writer, recs []repo.Record) error {
	switch format {
	case FormatPDF:
		return WritePDF(w, recs)
	case FormatXLSX:
		return WriteXLSX(w, recs)
	case FormatHTML:
		return WriteHTML(w, recs)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
