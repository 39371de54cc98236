package report

import (
	"io"

	"Inertia/internal/repo"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

func WriteXLSX(w io.Writer, recs []repo.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#f4cccc"}, Pattern: 1},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	three, four := "0.000", "0.0000"
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	value, err := f.NewStyle(&excelize.Style{Alignment: center, CustomNumFmt: &three})
	if err != nil {
		return err
	}
	lambda, err := f.NewStyle(&excelize.Style{Alignment: center, CustomNumFmt: &four})
	if err != nil {
		return err
	}

	for col, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "E1", header); err != nil {
		return err
	}

	for i, rec := range recs {
		row := i + 2
		for col, v := range Row(rec) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}
	if n := len(recs); n > 0 {
		last := n + 1
		from, _ := excelize.CoordinatesToCellName(1, 2)
		to, _ := excelize.CoordinatesToCellName(4, last)
		if err := f.SetCellStyle(sheetName, from, to, value); err != nil {
			return err
		}
		from, _ = excelize.CoordinatesToCellName(5, 2)
		to, _ = excelize.CoordinatesToCellName(5, last)
		if err := f.SetCellStyle(sheetName, from, to, lambda); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetName, "A", "E", 15); err != nil {
		return err
	}

	return f.Write(w)
}
