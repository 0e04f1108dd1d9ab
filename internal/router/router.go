package router

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	mem "vet-lab-report/internal/adapters/storage/memory"
	pg "vet-lab-report/internal/adapters/storage/postgres"
	"vet-lab-report/internal/domain/analysis"
	"vet-lab-report/internal/domain/intake"
	"vet-lab-report/internal/domain/patients"
	"vet-lab-report/internal/llm"
	"vet-lab-report/internal/middleware"
	"vet-lab-report/internal/platform/logger"
	"vet-lab-report/internal/platform/metrics"
	"vet-lab-report/internal/web"

	_ "vet-lab-report/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	// Provider es obligatorio: gemini/ollama/openai o un fake en tests.
	Provider llm.Provider
	Model    string

	// Opcional: si viene, el catálogo de razas sale de Postgres. Si no, in-memory.
	DB *sql.DB

	Logger     logger.Logger
	Metrics    *metrics.Metrics
	SessionTTL time.Duration
	Hospital   string

	// Opcional: para tests que quieren inspeccionar/ purgar sesiones.
	Sessions intake.Repository
}

// App agrupa el handler y los servicios que main necesita (janitor de sesiones).
type App struct {
	Handler http.Handler
	Intake  *intake.Service
}

func NewRouter(opts Options) (*App, error) {
	if opts.Provider == nil {
		return nil, errors.New("router: llm provider required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.SessionContext)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		catalog  patients.BreedCatalog
		sessions intake.Repository
	)

	if opts.DB != nil {
		catalog = pg.NewBreedsRepo(opts.DB)
	} else {
		catalog = mem.NewBreedCatalog()
	}
	sessions = opts.Sessions
	if sessions == nil {
		sessions = mem.NewSessionRepo()
	}

	// Services por módulo
	patientsSvc := patients.NewService(catalog)
	analyzer, err := analysis.NewAnalyzer(opts.Provider, analysis.Options{
		Model:   opts.Model,
		Logger:  log,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}
	intakeSvc := intake.NewService(sessions, patientsSvc, analyzer, intake.Options{
		Logger:  log,
		Metrics: m,
		TTL:     opts.SessionTTL,
	})
	webHandler, err := web.New(intakeSvc, patientsSvc, web.Options{
		Hospital:   opts.Hospital,
		SessionTTL: opts.SessionTTL,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	// Rutas por módulo
	patients.RegisterRoutes(r, patientsSvc)
	analysis.RegisterRoutes(r, patientsSvc)
	intake.RegisterRoutes(r, intakeSvc)
	webHandler.RegisterRoutes(r)

	return &App{Handler: r, Intake: intakeSvc}, nil
}
