// Package gemini implementa llm.Provider sobre google.golang.org/genai.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"vet-lab-report/internal/llm"
	"vet-lab-report/internal/platform/logger"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey string
	Model  string

	// BaseURL opcional (proxy / tests). Vacío = endpoint público.
	BaseURL    string
	HTTPClient *http.Client
}

type Provider struct {
	client *genai.Client
	model  string
	log    logger.Logger
}

func New(ctx context.Context, cfg Config, log logger.Logger) (*Provider, error) {
	if log == nil {
		return nil, errors.New("gemini: logger cannot be nil")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key", llm.ErrProviderNotReady)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &Provider{client: client, model: model, log: log}, nil
}

func (p *Provider) Name() string { return "gemini" }

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

	p.log.Debug("gemini generate", map[string]any{"model": model, "prompt_bytes": len(req.Prompt)})

	res, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), nil)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "gemini", Err: err}
	}

	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.Response{Text: text, Model: model}, nil
}
