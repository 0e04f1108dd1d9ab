// Package ollama implementa llm.Provider contra un servidor Ollama local.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"vet-lab-report/internal/llm"
	"vet-lab-report/internal/platform/logger"
)

const DefaultModel = "llama3.2"

type Config struct {
	// Host, p.ej. http://localhost:11434. Vacío = OLLAMA_HOST / default del cliente.
	Host       string
	Model      string
	HTTPClient *http.Client
}

type Provider struct {
	client *api.Client
	model  string
	log    logger.Logger
}

func New(cfg Config, log logger.Logger) (*Provider, error) {
	if log == nil {
		return nil, errors.New("ollama: logger cannot be nil")
	}

	var client *api.Client
	if strings.TrimSpace(cfg.Host) != "" {
		u, err := url.Parse(cfg.Host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("ollama: invalid host %q", cfg.Host)
		}
		hc := cfg.HTTPClient
		if hc == nil {
			hc = http.DefaultClient
		}
		client = api.NewClient(u, hc)
	} else {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", llm.ErrProviderNotReady, err)
		}
		client = c
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &Provider{client: client, model: model, log: log}, nil
}

func (p *Provider) Name() string { return "ollama" }

// Model es el modelo por defecto de este proveedor.
func (p *Provider) Model() string { return p.model }

func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, llm.ErrEmptyPrompt
	}
	model := p.model
	if strings.TrimSpace(req.Model) != "" {
		model = req.Model
	}

	stream := false
	var out api.GenerateResponse
	err := p.client.Generate(ctx, &api.GenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		Stream: &stream,
	}, func(r api.GenerateResponse) error {
		out = r
		return nil
	})
	if err != nil {
		return nil, &llm.ProviderError{Provider: "ollama", Err: err}
	}

	p.log.Debug("ollama generate completed", map[string]any{
		"model":         out.Model,
		"prompt_tokens": out.PromptEvalCount,
		"eval_tokens":   out.EvalCount,
	})

	if strings.TrimSpace(out.Response) == "" {
		return nil, llm.ErrEmptyResponse
	}
	if out.Model != "" {
		model = out.Model
	}
	return &llm.Response{Text: out.Response, Model: model}, nil
}
