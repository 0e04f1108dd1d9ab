// Package openai implementa llm.Provider para endpoints compatibles con
// /chat/completions (OpenAI, vLLM, LM Studio...) sobre platform/httpclient.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"vet-lab-report/internal/llm"
	"vet-lab-report/internal/platform/httpclient"
	"vet-lab-report/internal/platform/logger"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	Transport http.RoundTripper
}

type Provider struct {
	http  *httpclient.Client
	model string
	log   logger.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func New(cfg Config, log logger.Logger) (*Provider, error) {
	if log == nil {
		return nil, errors.New("openai: logger cannot be nil")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}

	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   base,
		Transport: cfg.Transport,
		Headers: map[string]string{
			"Authorization": "Bearer " + strings.TrimSpace(cfg.APIKey),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Provider{http: hc, model: model, log: log}, nil
}

func (p *Provider) Name() string { return "openai" }

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

	var out chatResponse
	err := p.http.DoJSON(ctx, http.MethodPost, "/chat/completions", nil, chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
	}, &out)
	if err != nil {
		return nil, &llm.ProviderError{Provider: "openai", Err: err}
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, llm.ErrEmptyResponse
	}
	if out.Model != "" {
		model = out.Model
	}

	p.log.Debug("openai chat completed", map[string]any{"model": model})
	return &llm.Response{Text: out.Choices[0].Message.Content, Model: model}, nil
}
