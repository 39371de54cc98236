package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"Inertia/internal/calc/batch"
	"Inertia/internal/calc/opening"
	"Inertia/internal/model"
	"Inertia/internal/repo"
	"Inertia/internal/section"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

var sheet = [][]any{
	{"length_mm", "opening_diameter_mm", "section", "r"},
	{1800, 240, "IPE240", 1.5},
	{"abc", 240, "IPE240", 1.5},
	{"", "", "", ""},
	{3600, "240", " ipe240 ", "1,5"},
	{1800, 240},
}

func TestRead(t *testing.T) {
	rows, bad, err := Read(bytes.NewReader(workbook(t, sheet)))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, opening.Input{LengthMM: 1800, OpeningDiameterMM: 240, Section: "IPE240", R: 1.5}, rows[0].Input)
	assert.Equal(t, 5, rows[1].Row)
	assert.Equal(t, opening.Input{LengthMM: 3600, OpeningDiameterMM: 240, Section: "IPE240", R: 1.5}, rows[1].Input)

	require.Len(t, bad, 2)
	assert.Equal(t, 3, bad[0].Row)
	assert.Contains(t, bad[0].Error(), "length")
	assert.Equal(t, 6, bad[1].Row)
}

func TestRead_NonFinite(t *testing.T) {
	rows, bad, err := Read(bytes.NewReader(workbook(t, [][]any{
		{"length_mm", "opening_diameter_mm", "section", "r"},
		{"NaN", 240, "IPE240", 1.5},
		{1800, "Inf", "IPE240", 1.5},
		{"+Inf", 240, "IPE240", 1.5},
		{1800, 240, "IPE240", "nan"},
		{1800, 240, "IPE240", 1.5},
	})))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, 6, rows[0].Row)
	require.Len(t, bad, 4)
	for i, e := range bad {
		assert.Equal(t, i+2, e.Row)
		assert.Contains(t, e.Msg, "not a finite number")
	}
}

func TestRead_Invalid(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)

	_, _, err = Read(bytes.NewReader(workbook(t, [][]any{{"header"}})))
	assert.Error(t, err)
}

func TestHandler_Import(t *testing.T) {
	r := repo.NewMemoryResultRepository()
	calc := &opening.Calculator{
		Catalog:   section.MustDefault(),
		Predictor: model.PredictorFunc(func(context.Context, []float64) (float64, error) { return 1, nil }),
		Repo:      r,
	}
	h := &Handler{Calc: calc}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "beams.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(workbook(t, sheet))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/calc/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.Import(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var res ImportResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Recorded)
	assert.Equal(t, []int{2, 5}, res.Rows)
	assert.Len(t, res.RowErrors, 2)

	logged, _ := r.List(context.Background())
	assert.Len(t, logged, 2)
}

func TestHandler_ImportMoreThanOneBatch(t *testing.T) {
	r := repo.NewMemoryResultRepository()
	calc := &opening.Calculator{
		Catalog:   section.MustDefault(),
		Predictor: model.PredictorFunc(func(context.Context, []float64) (float64, error) { return 1, nil }),
		Repo:      r,
	}
	h := &Handler{Calc: calc}

	n := batch.MaxItems + 7
	big := [][]any{{"length_mm", "opening_diameter_mm", "section", "r"}}
	for i := 0; i < n; i++ {
		big = append(big, []any{1800, 240, "IPE240", 1.5})
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "beams.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(workbook(t, big))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/calc/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.Import(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var res ImportResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, n, res.Recorded)
	require.Len(t, res.Outcomes, n)
	assert.Equal(t, n-1, res.Outcomes[n-1].Index)
	assert.Equal(t, n+1, res.Rows[n-1])

	logged, _ := r.List(context.Background())
	assert.Len(t, logged, n)
}

func TestHandler_ImportNoFile(t *testing.T) {
	h := &Handler{}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/calc/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.Import(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
