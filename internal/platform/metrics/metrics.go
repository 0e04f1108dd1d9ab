package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los collectors del servicio. Cada instancia tiene su propio
// registry para que los tests no choquen con el global.
type Metrics struct {
	reg *prometheus.Registry

	uploads     *prometheus.CounterVec
	analyses    *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	sessions    prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		reg: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetreport",
			Name:      "uploads_total",
			Help:      "Spreadsheet uploads by outcome.",
		}, []string{"outcome"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetreport",
			Name:      "analyses_total",
			Help:      "Analysis requests by outcome.",
		}, []string{"outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vetreport",
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of the single generate call per analysis.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"provider"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vetreport",
			Name:      "sessions_active",
			Help:      "Intake sessions currently held in memory.",
		}),
	}
	reg.MustRegister(m.uploads, m.analyses, m.llmDuration, m.sessions)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Todos los métodos toleran receptor nil (servicios sin métricas en tests).

func (m *Metrics) ObserveUpload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLLM(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
