package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/config"
)

func TestNormalizeAzureEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		endpoint   string
		deployment string
		want       AzureEndpoint
		wantErr    bool
	}{
		{
			name:       "resource root",
			endpoint:   "https://acme.openai.azure.com/",
			deployment: "gpt-4o",
			want:       AzureEndpoint{BaseURL: "https://acme.openai.azure.com", Deployment: "gpt-4o", APIVersion: "2025-04-01-preview"},
		},
		{
			name:       "openai suffix",
			endpoint:   "https://acme.openai.azure.com/openai",
			deployment: "gpt-4o",
			want:       AzureEndpoint{BaseURL: "https://acme.openai.azure.com", Deployment: "gpt-4o", APIVersion: "2025-04-01-preview"},
		},
		{
			name:     "full chat completions url",
			endpoint: "https://acme.openai.azure.com/openai/deployments/o4-mini/chat/completions?api-version=2024-12-01-preview",
			want:     AzureEndpoint{BaseURL: "https://acme.openai.azure.com", Deployment: "o4-mini", APIVersion: "2024-12-01-preview"},
		},
		{
			name:       "deployment in url wins",
			endpoint:   "https://acme.openai.azure.com/openai/deployments/o4-mini",
			deployment: "gpt-4o",
			want:       AzureEndpoint{BaseURL: "https://acme.openai.azure.com", Deployment: "o4-mini", APIVersion: "2025-04-01-preview"},
		},
		{name: "no deployment", endpoint: "https://acme.openai.azure.com", wantErr: true},
		{name: "not a url", endpoint: "acme", deployment: "gpt-4o", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAzureEndpoint(tt.endpoint, tt.deployment, "2025-04-01-preview")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newAzureTestInvoker(t *testing.T, url string, timeout time.Duration) ModelInvoker {
	t.Helper()
	invoker, err := NewAzureOpenAIInvoker(config.AzureOpenAIConfig{
		Endpoint:   url,
		APIKey:     "test-key",
		Deployment: "gpt-test",
		APIVersion: "2024-10-21",
		Timeout:    timeout,
	}, zap.NewNop())
	require.NoError(t, err)
	return invoker
}

func chatResponse(content, finishReason string) string {
	return fmt.Sprintf(`{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-test",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": %q}],
  "usage": {"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160}
}`, content, finishReason)
}

func TestAzureOpenAIInvoker_Complete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt-test/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-10-21", r.URL.Query().Get("api-version"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse(`  {"ok": true}  `, "stop"))
	}))
	defer server.Close()

	invoker := newAzureTestInvoker(t, server.URL, 5*time.Second)
	assert.Equal(t, "azure-openai/gpt-test", invoker.ModelIdentifier())

	text, err := invoker.Complete(context.Background(), CompletionRequest{
		SystemPrompt:    "system",
		UserPrompt:      "user",
		JSONMode:        true,
		MaxOutputTokens: 1234,
		Purpose:         "analysis",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, text)

	assert.EqualValues(t, 1234, body["max_completion_tokens"])
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestAzureOpenAIInvoker_FinishReasons(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		finish   string
		wantKind apperrors.Kind
		wantText string
	}{
		{name: "length without content", finish: "length", wantKind: apperrors.KindUpstreamTruncated},
		{name: "length with content", content: `{"partial": true`, finish: "length", wantText: `{"partial": true`},
		{name: "content filter", content: "", finish: "content_filter", wantKind: apperrors.KindUpstreamContentFiltered},
		{name: "stop without content", finish: "stop", wantKind: apperrors.KindUpstreamEmptyOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, chatResponse(tt.content, tt.finish))
			}))
			defer server.Close()

			text, err := newAzureTestInvoker(t, server.URL, 5*time.Second).
				Complete(context.Background(), CompletionRequest{UserPrompt: "u", MaxOutputTokens: 100})
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestAzureOpenAIInvoker_HTTPErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind apperrors.Kind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: apperrors.KindUpstreamRateOrAuth},
		{name: "rate limited", status: http.StatusTooManyRequests, wantKind: apperrors.KindUpstreamRateOrAuth},
		{name: "deployment missing", status: http.StatusNotFound, wantKind: apperrors.KindUpstreamConfig},
		{name: "server error", status: http.StatusInternalServerError, wantKind: apperrors.KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"error": {"message": "request failed", "type": "error", "code": "%d"}}`, tt.status)
			}))
			defer server.Close()

			_, err := newAzureTestInvoker(t, server.URL, 5*time.Second).
				Complete(context.Background(), CompletionRequest{UserPrompt: "u"})
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
		})
	}
}

func TestAzureOpenAIInvoker_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	_, err := newAzureTestInvoker(t, server.URL, 50*time.Millisecond).
		Complete(context.Background(), CompletionRequest{UserPrompt: "u"})
	assert.Equal(t, apperrors.KindUpstreamTimeout, apperrors.KindOf(err))
}

func TestAzureOpenAIInvoker_CallerCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := newAzureTestInvoker(t, server.URL, 5*time.Second).
		Complete(ctx, CompletionRequest{UserPrompt: "u"})
	assert.Equal(t, apperrors.KindCanceled, apperrors.KindOf(err))
}

func TestUnavailableInvoker(t *testing.T) {
	invoker := NewUnavailableInvoker("AZURE_OPENAI_API_KEY is not set")
	_, err := invoker.Complete(context.Background(), CompletionRequest{})
	assert.Equal(t, apperrors.KindUpstreamConfig, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "AZURE_OPENAI_API_KEY")
	assert.Equal(t, "unavailable", invoker.ModelIdentifier())
}

func TestNewModelInvoker_FallsBackWhenUnconfigured(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{Provider: "azure"}}
	invoker := NewModelInvoker(cfg, zap.NewNop())
	assert.Equal(t, "unavailable", invoker.ModelIdentifier())

	cfg.LLM.Provider = "gemini"
	invoker = NewModelInvoker(cfg, zap.NewNop())
	assert.Equal(t, "unavailable", invoker.ModelIdentifier())
}
