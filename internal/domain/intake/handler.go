package intake

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-lab-report/internal/domain/labfiles"
	"vet-lab-report/internal/domain/patients"
)

// MaxMultipartMemory es lo que ParseMultipartForm guarda en RAM; el resto va
// a disco. No es un límite de tamaño.
const MaxMultipartMemory = 32 << 20

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/sessions", func(sr chi.Router) {
		sr.Post("/", startSessionHandler(svc))
		sr.Get("/{sessionID}", getSessionHandler(svc))
		sr.Put("/{sessionID}/patient", updatePatientHandler(svc))
		sr.Post("/{sessionID}/upload", uploadHandler(svc))
		sr.Post("/{sessionID}/analyze", analyzeHandler(svc))
		sr.Get("/{sessionID}/report.html", reportHandler(svc))
	})
}

type sessionResponse struct {
	ID      string          `json:"id"`
	Patient patients.Record `json:"patient"`

	FileName    string `json:"file_name"`
	FileBytes   int    `json:"file_bytes"`
	UploadError string `json:"upload_error,omitempty"`

	Result        string `json:"result"`
	Fallback      bool   `json:"fallback"`
	Model         string `json:"model,omitempty"`
	AnalysisError string `json:"analysis_error,omitempty"`
	InFlight      bool   `json:"in_flight"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error   string           `json:"error"`
	Session *sessionResponse `json:"session,omitempty"`
}

// startSessionHandler godoc
// @Summary Iniciar sesión de consulta
// @Description Crea una sesión con la ficha por defecto (perro, primera raza, fecha de hoy).
// @Tags sessions
// @Produce json
// @Success 201 {object} sessionResponse
// @Router /api/sessions [post]
func startSessionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Start(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, toSessionResponse(s))
	}
}

// getSessionHandler godoc
// @Summary Estado de la sesión
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} sessionResponse
// @Failure 404 {string} string "session not found"
// @Router /api/sessions/{sessionID} [get]
func getSessionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeServiceError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(s))
	}
}

// updatePatientHandler godoc
// @Summary Actualizar ficha del paciente
// @Description Reemplaza la ficha. Cambiar de especie vuelve a la primera raza si la enviada no pertenece a la nueva lista.
// @Tags sessions
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param body body patients.Record true "Ficha"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {string} string "session not found"
// @Router /api/sessions/{sessionID}/patient [put]
func updatePatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec patients.Record
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rec); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		s, err := svc.UpdatePatient(r.Context(), chi.URLParam(r, "sessionID"), rec)
		if err != nil {
			writeServiceError(w, err, &s)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(s))
	}
}

// uploadHandler godoc
// @Summary Subir planilla de resultados
// @Description Acepta .xlsx / .xls en el campo multipart "file". Cada hoja se convierte a CSV con encabezado "--- hoja ---".
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param file formData file true "Planilla"
// @Success 200 {object} sessionResponse
// @Failure 422 {object} errorResponse "archivo rechazado; la sesión queda sin contenido"
// @Failure 404 {string} string "session not found"
// @Router /api/sessions/{sessionID}/upload [post]
func uploadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")

		name, body, closeFn, err := FormFile(r, "file")
		if err != nil {
			http.Error(w, "multipart field \"file\" required", http.StatusBadRequest)
			return
		}
		defer closeFn()

		s, err := svc.Upload(r.Context(), id, name, body)
		if err != nil {
			writeServiceError(w, err, &s)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(s))
	}
}

// analyzeHandler godoc
// @Summary Analizar
// @Description Construye el prompt con la ficha y el archivo, hace una sola llamada al LLM y guarda el HTML. Si el proveedor falla, result trae el HTML de error y fallback=true.
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} errorResponse "ficha inválida"
// @Failure 404 {string} string "session not found"
// @Failure 409 {object} errorResponse "reemplazado por un análisis más nuevo"
// @Router /api/sessions/{sessionID}/analyze [post]
func analyzeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Analyze(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeServiceError(w, err, &s)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(s))
	}
}

// reportHandler godoc
// @Summary Descargar reporte HTML
// @Tags sessions
// @Produce html
// @Param sessionID path string true "Session ID"
// @Success 200 {string} string "ai_vet_report.html"
// @Failure 404 {string} string "no report"
// @Router /api/sessions/{sessionID}/report.html [get]
func reportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeServiceError(w, err, nil)
			return
		}
		ServeReport(w, s)
	}
}

// ServeReport escribe el resultado crudo como descarga ai_vet_report.html.
func ServeReport(w http.ResponseWriter, s Session) {
	if !s.HasResult() {
		http.Error(w, "no report", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ReportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, s.Result)
}

// FormFile abre el archivo multipart del campo dado. El nombre devuelto es
// solo el base name que mandó el navegador.
func FormFile(r *http.Request, field string) (string, io.Reader, func(), error) {
	if err := r.ParseMultipartForm(MaxMultipartMemory); err != nil {
		return "", nil, nil, err
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return "", nil, nil, err
	}
	name := hdr.Filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name, f, func() { _ = f.Close() }, nil
}

func writeServiceError(w http.ResponseWriter, err error, s *Session) {
	var body *sessionResponse
	if s != nil && s.ID != "" {
		sr := toSessionResponse(*s)
		body = &sr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "session id required", http.StatusBadRequest)
	case errors.Is(err, labfiles.ErrUnsupportedExtension),
		errors.Is(err, labfiles.ErrCorruptFile),
		errors.Is(err, labfiles.ErrReadFailed):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: labfiles.UserMessage(err), Session: body})
	case errors.Is(err, patients.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Session: body})
	case errors.Is(err, ErrSuperseded):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrCanceled):
		// 499 de nginx: el cliente ya no está escuchando, pero queda en logs.
		writeJSON(w, 499, errorResponse{Error: MsgAnalysisCanceled, Session: body})
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toSessionResponse(s Session) sessionResponse {
	return sessionResponse{
		ID:            s.ID,
		Patient:       s.Patient,
		FileName:      s.FileName,
		FileBytes:     len(s.FileText),
		UploadError:   s.UploadError,
		Result:        s.Result,
		Fallback:      s.Fallback,
		Model:         s.Model,
		AnalysisError: s.AnalysisError,
		InFlight:      s.InFlight,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
