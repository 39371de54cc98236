package recommend

import (
	"encoding/json"
	"net/http"

	"Inertia/internal/calc/opening"
	"Inertia/internal/section"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Handler struct {
	Catalog *section.Catalog
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) Opening(w http.ResponseWriter, r *http.Request) {
	var input OpeningInput
	if !decode(w, r, &input) {
		return
	}
	res, err := Opening(h.Catalog, input)
	if err != nil {
		opening.WriteError(w, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) Sections(w http.ResponseWriter, r *http.Request) {
	var input SectionsInput
	if !decode(w, r, &input) {
		return
	}
	res, err := Sections(h.Catalog, input)
	if err != nil {
		opening.WriteError(w, err)
		return
	}
	if len(res) == 0 {
		http.Error(w, ErrNoCandidates.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, res)
}
