package opening

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"Inertia/internal/model"
	"Inertia/internal/repo"
	"Inertia/internal/section"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

var validate = validator.New()

type Handler struct {
	Service *Calculator
}

type errorResponse struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind"`
	Q     *float64 `json:"q,omitempty"`
}

type sectionInfo struct {
	section.Section
	Lambda float64 `json:"lambda"`
}

type sectionsResponse struct {
	Sections []sectionInfo `json:"sections"`
	Ratios   []float64     `json:"ratios"`
	QRange   [2]float64    `json:"q_range"`
}

// writeJSON encodes before writing the status so an unencodable value
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.WithError(err).Error("encode response")
		http.Error(w, "Encoding error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// WriteError renders a pipeline or oracle error. Out-of-range q is a
// warning the user fixes by changing inputs, so it gets its own status.
func WriteError(w http.ResponseWriter, err error) {
	var oor *OutOfRangeError
	switch {
	case errors.As(err, &oor):
		q := oor.Q
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "Warning! " + oor.Error(), Kind: outcomeOutOfRange, Q: &q})
	case errors.Is(err, ErrUnknownSection), errors.Is(err, ErrRatioNotAllowed), errors.Is(err, ErrDivisionByZero), errors.Is(err, ErrNotFinite):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: outcome(err)})
	case errors.Is(err, model.ErrModelUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "model unavailable", Kind: outcomePrediction})
	case errors.Is(err, ErrPrediction):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "prediction error", Kind: outcomePrediction})
	default:
		log.Printf("calculation error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: outcomeStorage})
	}
}

// DecodeInput reads and validates one Input from the request body.
func DecodeInput(r *http.Request) (Input, error) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return Input{}, err
	}
	if err := validate.Struct(input); err != nil {
		return Input{}, err
	}
	return input, nil
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeInput(r)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	rec, err := h.Service.Calculate(r.Context(), input)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) Sections(w http.ResponseWriter, r *http.Request) {
	cat := h.Service.Catalog
	resp := sectionsResponse{Ratios: cat.Ratios(), QRange: [2]float64{QMin, QMax}}
	for _, s := range cat.Sections() {
		resp.Sections = append(resp.Sections, sectionInfo{Section: s, Lambda: cat.Lambda(s.Name)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Service.Results(r.Context())
	if err != nil {
		log.Printf("list results: %v", err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []repo.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Clear(r.Context()); err != nil {
		log.Printf("clear results: %v", err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
