// Package intake es el controlador de la pantalla: mantiene una sesión por
// navegador y coordina ficha, ingesta del archivo y análisis.
package intake

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"vet-lab-report/internal/domain/analysis"
	"vet-lab-report/internal/domain/labfiles"
	"vet-lab-report/internal/domain/patients"
	"vet-lab-report/internal/platform/logger"
	"vet-lab-report/internal/platform/metrics"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("session not found")

	// ErrSuperseded: llegó otro Analyze para la misma sesión antes de que
	// este terminara; su resultado se descarta.
	ErrSuperseded = errors.New("analysis superseded by a newer request")

	ErrCanceled = errors.New("analysis canceled")
)

// MsgAnalysisCanceled va a AnalysisError cuando se corta el request.
const MsgAnalysisCanceled = "분석 요청이 취소되었습니다. 다시 시도해주세요."

// Analyzer es lo que intake necesita de analysis.
type Analyzer interface {
	Analyze(ctx context.Context, r patients.Record, fileText string) analysis.Result
}

// IngestFunc convierte el archivo subido en texto. labfiles.Ingest en producción.
type IngestFunc func(ctx context.Context, fileName string, r io.Reader) (string, error)

type Options struct {
	Ingest  IngestFunc
	Logger  logger.Logger
	Metrics *metrics.Metrics

	// TTL de inactividad; <= 0 desactiva PurgeExpired.
	TTL time.Duration
}

type flight struct {
	token  uint64
	cancel context.CancelFunc
}

type Service struct {
	repo     Repository
	patients *patients.Service
	analyzer Analyzer
	ingest   IngestFunc
	log      logger.Logger
	metrics  *metrics.Metrics
	ttl      time.Duration
	now      func() time.Time

	// mu protege los read-modify-write sobre repo y los mapas de abajo.
	// Nunca se mantiene durante la ingesta ni la llamada al LLM.
	mu      sync.Mutex
	uploads map[string]*sync.Mutex
	flights map[string]flight
	seq     atomic.Uint64
}

func NewService(repo Repository, patientsSvc *patients.Service, analyzer Analyzer, opts Options) *Service {
	ingest := opts.Ingest
	if ingest == nil {
		ingest = labfiles.Ingest
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if patientsSvc == nil {
		patientsSvc = patients.NewService(nil)
	}

	return &Service{
		repo:     repo,
		patients: patientsSvc,
		analyzer: analyzer,
		ingest:   ingest,
		log:      log,
		metrics:  opts.Metrics,
		ttl:      opts.TTL,
		now:      time.Now,
		uploads:  make(map[string]*sync.Mutex),
		flights:  make(map[string]flight),
	}
}

// Start crea una sesión con la ficha por defecto.
func (s *Service) Start(ctx context.Context) (Session, error) {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		Patient:   patients.DefaultRecord(now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return Session{}, err
	}
	s.reportSessions(ctx)
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	if strings.TrimSpace(id) == "" {
		return Session{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

// UpdatePatient reemplaza la ficha. Si falla la validación la sesión queda
// como estaba y se devuelve el error de patients.
func (s *Service) UpdatePatient(ctx context.Context, id string, next patients.Record) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}

	rec, err := s.patients.Update(ctx, sess.Patient, next)
	if err != nil {
		return sess, err
	}

	sess.Patient = rec
	sess.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Upload ingiere el archivo. Las subidas de una misma sesión se serializan:
// la segunda espera a que termine la primera y su resultado gana.
// En error de ingesta devuelve la sesión actualizada (UploadError seteado)
// junto con el error.
func (s *Service) Upload(ctx context.Context, id, fileName string, r io.Reader) (Session, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return Session{}, err
	}

	lock := s.uploadLock(id)
	lock.Lock()
	defer lock.Unlock()

	text, ingestErr := s.ingest(ctx, fileName, r)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}

	if ingestErr != nil {
		sess.FileName = ""
		sess.FileText = ""
		sess.UploadError = labfiles.UserMessage(ingestErr)
	} else {
		sess.FileName = fileName
		sess.FileText = text
		sess.UploadError = ""
	}
	sess.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, sess); err != nil {
		return Session{}, err
	}

	s.metrics.ObserveUpload(uploadOutcome(ingestErr))
	logger.FromContext(ctx, s.log).Info("spreadsheet uploaded", map[string]any{
		"session_id": id,
		"file_name":  fileName,
		"text_bytes": len(sess.FileText),
		"error":      ingestErr,
	})

	return sess, ingestErr
}

// Analyze corre el análisis de la sesión. Cada llamada toma un token
// creciente y cancela la anterior en curso; al volver, si el token ya no es
// el último, el resultado se descarta con ErrSuperseded.
func (s *Service) Analyze(ctx context.Context, id string) (Session, error) {
	log := logger.FromContext(ctx, s.log)

	s.mu.Lock()
	sess, err := s.Get(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return Session{}, err
	}

	sess.Result = ""
	sess.Fallback = false
	sess.Model = ""
	sess.AnalysisError = ""

	if err := s.patients.Validate(ctx, sess.Patient); err != nil {
		sess.AnalysisError = err.Error()
		sess.InFlight = false
		sess.UpdatedAt = s.now()
		updateErr := s.repo.Update(ctx, sess)
		s.mu.Unlock()
		if updateErr != nil {
			return Session{}, updateErr
		}
		return sess, err
	}

	token := s.seq.Add(1)
	if prev, ok := s.flights[id]; ok {
		prev.cancel()
		log.Info("analysis superseded", map[string]any{"session_id": id, "token": prev.token})
	}
	actx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.flights[id] = flight{token: token, cancel: cancel}

	sess.InFlight = true
	sess.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, sess); err != nil {
		delete(s.flights, id)
		s.mu.Unlock()
		return Session{}, err
	}
	patient, fileText := sess.Patient, sess.FileText
	s.mu.Unlock()

	res := s.analyzer.Analyze(actx, patient, fileText)

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.flights[id]; !ok || f.token != token {
		s.metrics.ObserveAnalysis("superseded")
		return Session{}, ErrSuperseded
	}
	delete(s.flights, id)

	sess, err = s.repo.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	sess.InFlight = false
	sess.UpdatedAt = s.now()

	var outErr error
	if ctxErr := actx.Err(); ctxErr != nil {
		// El cliente se fue o se canceló el request: canal del controlador.
		sess.AnalysisError = MsgAnalysisCanceled
		outErr = ErrCanceled
	} else {
		sess.Result = res.HTML
		sess.Fallback = res.Fallback
		sess.Model = res.Model
	}

	if err := s.repo.Update(ctx, sess); err != nil {
		return Session{}, err
	}

	log.Info("analysis stored", map[string]any{
		"session_id":  id,
		"token":       token,
		"fallback":    res.Fallback,
		"duration_ms": res.Duration.Milliseconds(),
	})
	return sess, outErr
}

// PurgeExpired borra sesiones inactivas más viejas que el TTL. Las que
// tienen un análisis en curso se conservan.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.ttl)
	purged := 0
	for _, sess := range items {
		if sess.InFlight || sess.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.repo.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return purged, err
		}
		delete(s.uploads, sess.ID)
		purged++
	}

	s.metrics.SetSessions(len(items) - purged)
	if purged > 0 {
		s.log.Info("expired sessions purged", map[string]any{"count": purged})
	}
	return purged, nil
}

func (s *Service) uploadLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.uploads[id]
	if !ok {
		l = &sync.Mutex{}
		s.uploads[id] = l
	}
	return l
}

func (s *Service) reportSessions(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return
	}
	s.metrics.SetSessions(len(items))
}

func uploadOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, labfiles.ErrUnsupportedExtension):
		return "unsupported_extension"
	case errors.Is(err, labfiles.ErrCorruptFile):
		return "corrupt"
	case errors.Is(err, labfiles.ErrReadFailed):
		return "read_failed"
	default:
		return "error"
	}
}
