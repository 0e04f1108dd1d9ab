// Package analysis arma el prompt a partir de la ficha y el texto del
// archivo, hace la llamada única al proveedor LLM y limpia la respuesta.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vet-lab-report/internal/domain/patients"
	"vet-lab-report/internal/llm"
	"vet-lab-report/internal/platform/logger"
	"vet-lab-report/internal/platform/metrics"
)

// Result es lo que ve la capa de presentación. Fallback=true indica que HTML
// lo fabricó el cliente (error del proveedor), no el modelo.
type Result struct {
	HTML     string        `json:"html"`
	Fallback bool          `json:"fallback"`
	Model    string        `json:"model,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

type Analyzer struct {
	provider llm.Provider
	model    string
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Options struct {
	// Model pisa el default del proveedor. Vacío = default.
	Model   string
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

func NewAnalyzer(provider llm.Provider, opts Options) (*Analyzer, error) {
	if provider == nil {
		return nil, errors.New("analysis: provider cannot be nil")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{
		provider: provider,
		model:    opts.Model,
		log:      log,
		metrics:  opts.Metrics,
		now:      time.Now,
	}, nil
}

func (a *Analyzer) Provider() string { return a.provider.Name() }

// Analyze nunca devuelve error: cualquier falla del proveedor (red, API,
// respuesta vacía, panic) termina como FallbackHTML con Fallback=true.
// Un ctx cancelado también cae acá; el llamador decide si descarta el resultado.
func (a *Analyzer) Analyze(ctx context.Context, r patients.Record, fileText string) (res Result) {
	log := logger.FromContext(ctx, a.log)
	prompt := BuildPrompt(r, fileText)
	start := a.now()

	defer func() {
		res.Duration = a.now().Sub(start)
		a.metrics.ObserveLLM(a.provider.Name(), res.Duration)

		outcome := "ok"
		if res.Fallback {
			outcome = "fallback"
		}
		a.metrics.ObserveAnalysis(outcome)
	}()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("llm provider panicked", map[string]any{
				"provider": a.provider.Name(),
				"panic":    fmt.Sprint(rec),
			})
			res = Result{HTML: FallbackHTML(nil), Fallback: true}
		}
	}()

	resp, err := a.provider.Generate(ctx, llm.Request{Model: a.model, Prompt: prompt})
	var out string
	if err == nil {
		if resp != nil {
			out = StripFences(resp.Text)
		}
		if out == "" {
			err = llm.ErrEmptyResponse
		}
	}
	if err != nil {
		log.Error("analysis failed", map[string]any{
			"provider":     a.provider.Name(),
			"prompt_bytes": len(prompt),
			"error":        err,
		})
		return Result{HTML: FallbackHTML(err), Fallback: true}
	}

	log.Info("analysis completed", map[string]any{
		"provider":   a.provider.Name(),
		"model":      resp.Model,
		"html_bytes": len(out),
	})
	return Result{HTML: out, Model: resp.Model}
}
