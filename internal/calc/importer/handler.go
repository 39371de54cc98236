package importer

import (
	"encoding/json"
	"net/http"
	"strconv"

	"Inertia/internal/calc/batch"
	"Inertia/internal/calc/opening"
)

const MaxUploadSize = 10 << 20 // 10MB

type Handler struct {
	Calc batch.Calculator
}

type ImportResult struct {
	batch.BatchResult
	// Rows maps each outcome index to its spreadsheet row.
	Rows      []int      `json:"rows"`
	RowErrors []RowError `json:"row_errors"`
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		http.Error(w, "File too big", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, rowErrs, err := Read(file)
	if err != nil {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}

	dryRun, _ := strconv.ParseBool(r.FormValue("dry_run"))
	out := ImportResult{RowErrors: rowErrs, Rows: make([]int, 0, len(rows))}
	if out.RowErrors == nil {
		out.RowErrors = []RowError{}
	}
	if len(rows) > 0 {
		inputs := make([]opening.Input, 0, len(rows))
		for _, row := range rows {
			inputs = append(inputs, row.Input)
			out.Rows = append(out.Rows, row.Row)
		}
		res, err := batch.RunChunked(r.Context(), h.Calc, inputs, dryRun)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out.BatchResult = res
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
