package report

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"Inertia/internal/repo"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Source supplies the ordered result log.
type Source interface {
	Results(ctx context.Context) ([]repo.Record, error)
}

type Handler struct {
	Source Source
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recs, err := h.Source.Results(r.Context())
	if err != nil {
		log.Printf("export: list results: %v", err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}

	// buffer so a failed export still gets a proper error status
	var buf bytes.Buffer
	if err := Write(format, &buf, recs); err != nil {
		log.Printf("export %s: %v", format, err)
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}

	name := fmt.Sprintf("results-%s.%s", time.Now().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(buf.Bytes())
}
