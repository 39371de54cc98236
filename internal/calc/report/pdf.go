package report

import (
	"fmt"
	"io"
	"time"

	"Inertia/internal/repo"

	"github.com/phpdave11/gofpdf"
)

const pdfColWidth = 34.0

func WritePDF(w io.Writer, recs []repo.Record) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Modified Moment of Inertia")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", time.Now().Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Results: %d", len(recs)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for _, h := range asciiHeaders {
		pdf.CellFormat(pdfColWidth, 9, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for _, rec := range recs {
		for _, c := range Cells(rec) {
			pdf.CellFormat(pdfColWidth, 7, c, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
