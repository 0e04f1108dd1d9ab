// Package llm define el puerto hacia el servicio de generación de texto.
//
// Cada análisis hace exactamente una llamada Generate: sin streaming, sin
// reintentos y sin timeout propio (manda el ctx del request).
package llm

import (
	"context"
	"errors"
	"strings"

	"vet-lab-report/internal/platform/logger"
)

// Provider genera una respuesta de texto completa para un prompt.
// Las implementaciones deben ser seguras para uso concurrente.
type Provider interface {
	// Name identifica al proveedor en logs y métricas ("gemini", "ollama"...).
	Name() string

	Generate(ctx context.Context, req Request) (*Response, error)
}

type Request struct {
	// Model vacío = modelo por defecto del proveedor.
	Model  string
	Prompt string
}

type Response struct {
	Text  string
	Model string
}

var (
	ErrEmptyPrompt      = errors.New("llm: empty prompt")
	ErrEmptyResponse    = errors.New("llm: empty response")
	ErrUnknownProvider  = errors.New("llm: unknown provider")
	ErrProviderFailed   = errors.New("llm: provider request failed")
	ErrProviderNotReady = errors.New("llm: provider not configured")
)

// ProviderError envuelve la falla del proveedor. Error() devuelve el
// mensaje original sin prefijos; errors.Is(err, ErrProviderFailed) es true.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string { return e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProviderFailed }

// PlaceholderAPIKey se usa cuando falta la credencial: el servicio arranca
// igual y la primera llamada falla con el error real del proveedor.
const PlaceholderAPIKey = "FAKE_API_KEY"

// ResolveAPIKey devuelve key o el placeholder, avisando por log.
func ResolveAPIKey(key, envName string, log logger.Logger) string {
	if strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key)
	}
	if log != nil {
		log.Warn("api key not set, using placeholder; analysis requests will fail", map[string]any{
			"env": envName,
		})
	}
	return PlaceholderAPIKey
}
