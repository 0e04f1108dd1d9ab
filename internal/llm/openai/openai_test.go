package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-lab-report/internal/llm"
	"vet-lab-report/internal/platform/logger"
)

func TestGenerate_ChatCompletion(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var in chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "local-model", in.Model)
		require.Len(t, in.Messages, 1)
		assert.Equal(t, "user", in.Messages[0].Role)
		assert.False(t, in.Stream)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "local-model",
			"choices": []any{
				map[string]any{"message": map[string]string{"role": "assistant", "content": "<!DOCTYPE html>"}},
			},
		})
	}))
	defer ts.Close()

	p, err := New(Config{APIKey: "sk-test", BaseURL: ts.URL + "/v1", Model: "local-model"}, logger.Nop())
	require.NoError(t, err)

	res, err := p.Generate(context.Background(), llm.Request{Prompt: "분석"})
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html>", res.Text)
	assert.Equal(t, "local-model", res.Model)
}

func TestGenerate_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	p, err := New(Config{APIKey: "k", BaseURL: ts.URL}, logger.Nop())
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), llm.Request{Prompt: "x"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestGenerate_HTTPErrorIsProviderFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	p, err := New(Config{APIKey: llm.PlaceholderAPIKey, BaseURL: ts.URL}, logger.Nop())
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), llm.Request{Prompt: "x"})
	require.ErrorIs(t, err, llm.ErrProviderFailed)
	assert.Contains(t, err.Error(), "401")
}
