// Package registry construye el llm.Provider configurado. Vive aparte de
// internal/llm para evitar ciclos (los proveedores importan llm).
package registry

import (
	"context"
	"fmt"

	"vet-lab-report/internal/config"
	"vet-lab-report/internal/llm"
	"vet-lab-report/internal/llm/gemini"
	"vet-lab-report/internal/llm/ollama"
	"vet-lab-report/internal/llm/openai"
	"vet-lab-report/internal/platform/logger"
)

// Supported lista los valores válidos de llm.provider.
var Supported = []string{"gemini", "ollama", "openai"}

func New(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (llm.Provider, error) {
	if log == nil {
		log = logger.Nop()
	}

	switch cfg.Provider {
	case "gemini", "":
		p, err := gemini.New(ctx, gemini.Config{
			APIKey:  llm.ResolveAPIKey(cfg.Gemini.APIKey, "GEMINI_API_KEY", log),
			Model:   cfg.Model,
			BaseURL: cfg.Gemini.BaseURL,
		}, log)
		if err != nil {
			return nil, err
		}
		log.Info("llm provider ready", map[string]any{"provider": p.Name(), "model": p.Model()})
		return p, nil

	case "ollama":
		p, err := ollama.New(ollama.Config{
			Host:  cfg.Ollama.Host,
			Model: cfg.Model,
		}, log)
		if err != nil {
			return nil, err
		}
		log.Info("llm provider ready", map[string]any{"provider": p.Name(), "model": p.Model(), "host": cfg.Ollama.Host})
		return p, nil

	case "openai":
		p, err := openai.New(openai.Config{
			APIKey:  llm.ResolveAPIKey(cfg.OpenAI.APIKey, "OPENAI_API_KEY", log),
			Model:   cfg.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		}, log)
		if err != nil {
			return nil, err
		}
		log.Info("llm provider ready", map[string]any{"provider": p.Name(), "model": p.Model(), "base_url": cfg.OpenAI.BaseURL})
		return p, nil

	default:
		return nil, fmt.Errorf("%w: %s (supported: %v)", llm.ErrUnknownProvider, cfg.Provider, Supported)
	}
}
