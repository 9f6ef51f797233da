package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/config"
)

func newGeminiTestService(t *testing.T, url string, timeout time.Duration) GeminiService {
	t.Helper()
	svc, err := NewGeminiService(config.GeminiConfig{
		APIKey:     "test-key",
		Model:      "gemini-test",
		EmbedModel: "embed-test",
		Timeout:    timeout,
		BaseURL:    url,
	}, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func geminiResponse(text, finishReason string) string {
	content := ""
	if text != "" {
		content = fmt.Sprintf(`"content": {"role": "model", "parts": [{"text": %q}]},`, text)
	}
	return fmt.Sprintf(`{
  "candidates": [{%s "finishReason": %q}],
  "usageMetadata": {"promptTokenCount": 120, "candidatesTokenCount": 40}
}`, content, finishReason)
}

func TestGeminiService_Complete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, geminiResponse(`  {"ok": true}  `, "STOP"))
	}))
	defer server.Close()

	svc := newGeminiTestService(t, server.URL, 5*time.Second)
	assert.Equal(t, "gemini/gemini-test", svc.ModelIdentifier())

	text, err := svc.Complete(context.Background(), CompletionRequest{
		SystemPrompt:    "system",
		UserPrompt:      "user",
		JSONMode:        true,
		MaxOutputTokens: 1234,
		Purpose:         "analysis",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, text)

	genConfig, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1234, genConfig["maxOutputTokens"])
	assert.Equal(t, "application/json", genConfig["responseMimeType"])
}

func TestGeminiService_FinishReasons(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		finish   string
		wantKind apperrors.Kind
		wantText string
	}{
		{name: "max tokens without content", finish: "MAX_TOKENS", wantKind: apperrors.KindUpstreamTruncated},
		{name: "max tokens with content", content: `{"partial": true`, finish: "MAX_TOKENS", wantText: `{"partial": true`},
		{name: "safety", finish: "SAFETY", wantKind: apperrors.KindUpstreamContentFiltered},
		{name: "stop without content", finish: "STOP", wantKind: apperrors.KindUpstreamEmptyOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, geminiResponse(tt.content, tt.finish))
			}))
			defer server.Close()

			text, err := newGeminiTestService(t, server.URL, 5*time.Second).
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

func TestGeminiService_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`)
	}))
	defer server.Close()

	_, err := newGeminiTestService(t, server.URL, 5*time.Second).
		Complete(context.Background(), CompletionRequest{UserPrompt: "u"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindUpstreamRateOrAuth, appErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, appErr.StatusCode)
}

func TestGeminiService_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	_, err := newGeminiTestService(t, server.URL, 50*time.Millisecond).
		Complete(context.Background(), CompletionRequest{UserPrompt: "u"})
	assert.Equal(t, apperrors.KindUpstreamTimeout, apperrors.KindOf(err))
}

func TestGeminiService_CallerCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := newGeminiTestService(t, server.URL, 5*time.Second).
		Complete(ctx, CompletionRequest{UserPrompt: "u"})
	assert.Equal(t, apperrors.KindCanceled, apperrors.KindOf(err))
}
