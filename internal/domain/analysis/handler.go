package analysis

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vet-lab-report/internal/domain/patients"
)

func RegisterRoutes(r chi.Router, patientsSvc *patients.Service) {
	r.Post("/api/prompt", previewPromptHandler(patientsSvc))
}

type promptRequest struct {
	Patient  patients.Record `json:"patient"`
	FileText string          `json:"file_text"`
}

type promptResponse struct {
	Prompt string `json:"prompt"`
	Bytes  int    `json:"bytes"`
}

// previewPromptHandler godoc
// @Summary Vista previa del prompt
// @Description Devuelve el prompt exacto que se enviaría al LLM, sin llamarlo.
// @Tags analysis
// @Accept json
// @Produce json
// @Param body body promptRequest true "Ficha y texto del archivo"
// @Success 200 {object} promptResponse
// @Failure 400 {string} string "invalid input"
// @Router /api/prompt [post]
func previewPromptHandler(patientsSvc *patients.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req promptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rec, err := patientsSvc.Normalize(r.Context(), req.Patient)
		if err != nil {
			if errors.Is(err, patients.ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		p := BuildPrompt(rec, req.FileText)
		writeJSON(w, http.StatusOK, promptResponse{Prompt: p, Bytes: len(p)})
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
