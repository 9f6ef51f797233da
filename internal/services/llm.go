package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/config"
)

// CompletionRequest is a single-shot chat completion.
type CompletionRequest struct {
	SystemPrompt    string
	UserPrompt      string
	JSONMode        bool
	MaxOutputTokens int
	// Purpose labels the call in logs, e.g. "analysis" or "summary".
	Purpose string
}

// ModelInvoker sends one request to a hosted model and returns the assistant text.
// Implementations never retry; a failed call is returned to the caller classified.
type ModelInvoker interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	ModelIdentifier() string
}

// NewModelInvoker selects the configured provider. A provider that fails validation
// is replaced by an invoker that reports the configuration problem on every call,
// so the rest of the service keeps running.
func NewModelInvoker(cfg *config.Config, logger *zap.Logger) ModelInvoker {
	provider := strings.ToLower(cfg.LLM.Provider)

	switch provider {
	case "gemini":
		if err := cfg.Gemini.Validate(); err != nil {
			logger.Warn("Gemini is not configured; analysis is unavailable", zap.Error(err))
			return NewUnavailableInvoker(err.Error())
		}
		svc, err := NewGeminiService(cfg.Gemini, logger)
		if err != nil {
			logger.Warn("Failed to create Gemini client; analysis is unavailable", zap.Error(err))
			return NewUnavailableInvoker(err.Error())
		}
		return svc
	default:
		if err := cfg.Azure.Validate(); err != nil {
			logger.Warn("Azure OpenAI is not configured; analysis is unavailable", zap.Error(err))
			return NewUnavailableInvoker(err.Error())
		}
		invoker, err := NewAzureOpenAIInvoker(cfg.Azure, logger)
		if err != nil {
			logger.Warn("Failed to create Azure OpenAI client; analysis is unavailable", zap.Error(err))
			return NewUnavailableInvoker(err.Error())
		}
		return invoker
	}
}

type unavailableInvoker struct {
	reason string
}

// NewUnavailableInvoker returns an invoker that fails every call with UpstreamConfigError.
func NewUnavailableInvoker(reason string) ModelInvoker {
	return &unavailableInvoker{reason: reason}
}

func (u *unavailableInvoker) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return "", apperrors.New(apperrors.KindUpstreamConfig, "model is not configured: "+u.reason)
}

func (u *unavailableInvoker) ModelIdentifier() string {
	return "unavailable"
}
