// Package web sirve la pantalla de consulta: formulario de la ficha, subida
// de la planilla, botón de análisis y el reporte renderizado.
package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-lab-report/internal/domain/intake"
	"vet-lab-report/internal/domain/patients"
	"vet-lab-report/internal/middleware"
	"vet-lab-report/internal/platform/logger"
)

//go:embed templates/index.html
var templatesFS embed.FS

const DefaultHospital = "금호동물병원"

type Options struct {
	Hospital   string
	SessionTTL time.Duration
	Logger     logger.Logger
}

type Handler struct {
	intake   *intake.Service
	patients *patients.Service
	tmpl     *template.Template
	hospital string
	ttl      time.Duration
	log      logger.Logger
	now      func() time.Time
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Hospital string
	Year     int

	Session         intake.Session
	Patient         patients.Record
	SpeciesOptions  []option
	BreedOptions    []option
	SexOptions      []option
	ShowCustomBreed bool
	CustomBreed     string
	FormError       string

	// Result es HTML del modelo (o fallback); se inyecta sin escapar.
	Result         template.HTML
	ReportFileName string
	ImageFileName  string
}

func New(intakeSvc *intake.Service, patientsSvc *patients.Service, opts Options) (*Handler, error) {
	if intakeSvc == nil || patientsSvc == nil {
		return nil, errors.New("web: services cannot be nil")
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	hospital := opts.Hospital
	if hospital == "" {
		hospital = DefaultHospital
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Handler{
		intake:   intakeSvc,
		patients: patientsSvc,
		tmpl:     tmpl,
		hospital: hospital,
		ttl:      opts.SessionTTL,
		log:      log,
		now:      time.Now,
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.index)
	r.Post("/patient", h.savePatient)
	r.Post("/upload", h.upload)
	r.Post("/analyze", h.analyze)
	r.Get("/report.html", h.report)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, s, "")
}

func (h *Handler) savePatient(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if !h.applyForm(w, r, s, r.PostForm) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// upload recibe el archivo junto con los campos de la ficha (comparten form);
// la ficha se guarda antes de ingerir para no perder lo tipeado.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	name, body, closeFn, fileErr := intake.FormFile(r, "file")
	if fileErr == nil {
		defer closeFn()
	}

	if r.MultipartForm != nil && len(r.MultipartForm.Value) > 0 {
		if !h.applyForm(w, r, s, url.Values(r.MultipartForm.Value)) {
			return
		}
	}

	if fileErr != nil {
		// input vacío: nada que procesar
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// Los errores de ingesta quedan en la sesión (UploadError).
	if _, err := h.intake.Upload(r.Context(), s.ID, name, body); err != nil && errors.Is(err, intake.ErrNotFound) {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// analyze guarda primero la ficha del form (el botón comparte el form del
// paciente) y después corre el análisis.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if len(r.PostForm) > 0 && !h.applyForm(w, r, s, r.PostForm) {
		return
	}

	_, err = h.intake.Analyze(r.Context(), s.ID)
	switch {
	case err == nil,
		errors.Is(err, intake.ErrSuperseded),
		errors.Is(err, intake.ErrCanceled),
		errors.Is(err, patients.ErrInvalidInput):
		// el estado (resultado o AnalysisError) ya está en la sesión
		http.Redirect(w, r, "/#result", http.StatusSeeOther)
	default:
		h.fail(w, r, err)
	}
}

// applyForm guarda la ficha enviada. Si no valida, responde 400 con la
// página mostrando lo que mandó el usuario y devuelve false.
func (h *Handler) applyForm(w http.ResponseWriter, r *http.Request, s intake.Session, form url.Values) bool {
	_, err := h.intake.UpdatePatient(r.Context(), s.ID, patients.FromForm(form, s.Patient))
	if err == nil {
		return true
	}
	if errors.Is(err, patients.ErrInvalidInput) {
		h.render(w, r, http.StatusBadRequest, withSubmitted(s, form), err.Error())
		return false
	}
	h.fail(w, r, err)
	return false
}

// withSubmitted pone en la sesión a mostrar los valores del form rechazado.
// Especie inválida vuelve a la guardada porque de ella sale la lista de razas.
func withSubmitted(s intake.Session, form url.Values) intake.Session {
	p := patients.FromForm(form, s.Patient)
	if sp, err := patients.ParseSpecies(string(p.Species)); err == nil {
		p.Species = sp
	} else {
		p.Species = s.Patient.Species
	}
	if sx, err := patients.ParseSex(string(p.Sex)); err == nil {
		p.Sex = sx
	}
	s.Patient = p
	return s
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	intake.ServeReport(w, s)
}

// session devuelve la sesión de la cookie o crea una nueva (cookie vencida,
// purgada o primer ingreso).
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (intake.Session, error) {
	if id, ok := middleware.GetSessionID(r.Context()); ok {
		s, err := h.intake.Get(r.Context(), id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, intake.ErrNotFound) {
			return intake.Session{}, err
		}
	}

	s, err := h.intake.Start(r.Context())
	if err != nil {
		return intake.Session{}, err
	}
	middleware.SetSessionCookie(w, s.ID, h.ttl)
	return s, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, s intake.Session, formError string) {
	data, err := h.pageData(r, s, formError)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.FromContext(r.Context(), h.log).Error("render page", map[string]any{"error": err})
	}
}

func (h *Handler) pageData(r *http.Request, s intake.Session, formError string) (pageData, error) {
	p := s.Patient

	breeds, err := h.patients.Breeds(r.Context(), p.Species)
	if err != nil {
		return pageData{}, err
	}

	data := pageData{
		Hospital:        h.hospital,
		Year:            h.now().Year(),
		Session:         s,
		Patient:         p,
		ShowCustomBreed: p.Breed == patients.CustomBreed,
		CustomBreed:     patients.CustomBreed,
		FormError:       formError,
		Result:          template.HTML(s.Result),
		ReportFileName:  intake.ReportFileName,
		ImageFileName:   intake.ImageFileName,
	}

	for _, sp := range []patients.Species{patients.SpeciesDog, patients.SpeciesCat} {
		data.SpeciesOptions = append(data.SpeciesOptions, option{Value: string(sp), Label: sp.Label(), Selected: sp == p.Species})
	}
	for _, b := range breeds {
		data.BreedOptions = append(data.BreedOptions, option{Value: b, Label: b, Selected: b == p.Breed})
	}
	data.SexOptions = []option{
		{Value: "", Label: "선택", Selected: p.Sex == patients.SexUnset},
		{Value: string(patients.SexMale), Label: patients.SexMale.Label(), Selected: p.Sex == patients.SexMale},
		{Value: string(patients.SexFemale), Label: patients.SexFemale.Label(), Selected: p.Sex == patients.SexFemale},
	}
	return data, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context(), h.log).Error("web handler failed", map[string]any{
		"path":  r.URL.Path,
		"error": err,
	})
	http.Error(w, "internal error", http.StatusInternalServerError)
}
