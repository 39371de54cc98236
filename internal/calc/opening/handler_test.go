package opening

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Inertia/internal/model"
	"Inertia/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/calc", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestHandler_Calc(t *testing.T) {
	c, _, _ := newCalculator(sumPredictor)
	h := &Handler{Service: c}

	rr := post(h.Calc, `{"length_mm":1800,"opening_diameter_mm":240,"section":"IPE240","r":1.5}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var rec repo.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, 1.55, rec.Q)
	assert.Equal(t, 0.5499, rec.Lambda)
}

func TestHandler_CalcErrors(t *testing.T) {
	cases := []struct {
		name string
		pred model.Predictor
		body string
		code int
		kind string
	}{
		{"bad json", sumPredictor, `{`, http.StatusBadRequest, ""},
		{"missing section", sumPredictor, `{"length_mm":1,"opening_diameter_mm":1,"r":1.5}`, http.StatusBadRequest, ""},
		{"out of range", sumPredictor, `{"length_mm":1800,"opening_diameter_mm":100,"section":"IPE240","r":1.5}`, http.StatusUnprocessableEntity, outcomeOutOfRange},
		{"unknown section", sumPredictor, `{"length_mm":1800,"opening_diameter_mm":240,"section":"IPE999","r":1.5}`, http.StatusBadRequest, outcomeUnknownSection},
		{"bad ratio", sumPredictor, `{"length_mm":1800,"opening_diameter_mm":240,"section":"IPE240","r":1.45}`, http.StatusBadRequest, outcomeBadRatio},
		{"NaN length", sumPredictor, `{"length_mm":"NaN","opening_diameter_mm":240,"section":"IPE240","r":1.5}`, http.StatusBadRequest, ""},
		{"zero opening", sumPredictor, `{"length_mm":1800,"opening_diameter_mm":0,"section":"IPE240","r":1.5}`, http.StatusBadRequest, outcomeDivByZero},
		{"no model", model.Unavailable{}, `{"length_mm":1800,"opening_diameter_mm":240,"section":"IPE240","r":1.5}`, http.StatusServiceUnavailable, outcomePrediction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, r, _ := newCalculator(tc.pred)
			h := &Handler{Service: c}

			rr := post(h.Calc, tc.body)
			assert.Equal(t, tc.code, rr.Code)
			if tc.kind != "" {
				var resp errorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tc.kind, resp.Kind)
			}
			logged, _ := r.List(t.Context())
			assert.Empty(t, logged)
		})
	}
}

func TestHandler_OutOfRangeCarriesQ(t *testing.T) {
	c, _, _ := newCalculator(sumPredictor)
	h := &Handler{Service: c}

	rr := post(h.Calc, `{"length_mm":1800,"opening_diameter_mm":180,"section":"IPE240","r":1.5}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Q)
	assert.InDelta(t, 2.0, *resp.Q, 1e-12)
	assert.True(t, strings.HasPrefix(resp.Error, "Warning!"))
}

func TestHandler_ResultsAndClear(t *testing.T) {
	c, _, _ := newCalculator(sumPredictor)
	h := &Handler{Service: c}

	rr := httptest.NewRecorder()
	h.Results(rr, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	post(h.Calc, `{"length_mm":1800,"opening_diameter_mm":240,"section":"IPE240","r":1.5}`)
	post(h.Calc, `{"length_mm":3600,"opening_diameter_mm":240,"section":"IPE240","r":1.5}`)

	rr = httptest.NewRecorder()
	h.Results(rr, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	var recs []repo.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, 5.0, recs[0].X)
	assert.Equal(t, 10.0, recs[1].X)

	rr = httptest.NewRecorder()
	h.Clear(rr, httptest.NewRequest(http.MethodDelete, "/api/results", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	logged, _ := c.Results(t.Context())
	assert.Empty(t, logged)
}

func TestHandler_Sections(t *testing.T) {
	c, _, _ := newCalculator(sumPredictor)
	h := &Handler{Service: c}

	rr := httptest.NewRecorder()
	h.Sections(rr, httptest.NewRequest(http.MethodGet, "/api/sections", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp sectionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Sections, 19)
	assert.Equal(t, [2]float64{QMin, QMax}, resp.QRange)
	assert.Equal(t, []float64{1.3, 1.4, 1.5, 1.6}, resp.Ratios)
	for _, s := range resp.Sections {
		if s.Name == "IPE240" {
			assert.Equal(t, 0.5499, s.Lambda)
			assert.Equal(t, 240.0, s.H)
		}
	}
}

func TestWriteJSON_UnencodableIsServerError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, repo.Record{X: math.NaN()})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Header().Get("Content-Type"), "application/json")
}

func TestHandler_ResultsWithNonFiniteRecord(t *testing.T) {
	c, r, _ := newCalculator(sumPredictor)
	h := &Handler{Service: c}
	_, err := r.Append(t.Context(), repo.Record{Section: "IPE240", X: math.Inf(1)})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.Results(rr, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
