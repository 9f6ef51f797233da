package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/logging"
)

// maxEmbeddingInput keeps embedding requests under the model's token limit.
const maxEmbeddingInput = 40000

const defaultModelTimeout = 120 * time.Second

// Embedder turns text into a vector for transcript search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// GeminiService is both an analysis model and the transcript embedder.
type GeminiService interface {
	ModelInvoker
	Embedder
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewGeminiService(cfg config.GeminiConfig, logger *zap.Logger) (GeminiService, error) {
	ctx := context.Background()

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  cfg.Model,
		embedModel: cfg.EmbedModel,
		timeout:    cfg.Timeout,
		logger:     logger.Named("gemini"),
	}, nil
}

func (g *geminiService) ModelIdentifier() string {
	return "gemini/" + g.modelName
}

// GenerateEmbedding implements Embedder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if len(text) > maxEmbeddingInput {
		text = text[:maxEmbeddingInput]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, apperrors.ClassifyUpstream(err, 0)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, apperrors.New(apperrors.KindUpstreamEmptyOutput, "empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// Complete implements ModelInvoker.
func (g *geminiService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.JSONMode {
		genConfig.ResponseMIMEType = "application/json"
	}

	g.logger.Info("Calling model",
		zap.String("purpose", req.Purpose),
		zap.String("model", g.modelName),
		zap.Int("system_prompt_length", len(req.SystemPrompt)),
		zap.Int("user_prompt_length", len(req.UserPrompt)),
	)

	timeout := g.timeout
	if timeout <= 0 {
		timeout = defaultModelTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(callCtx, g.modelName, genai.Text(req.UserPrompt), genConfig)
	elapsed := time.Since(start)
	if err != nil {
		classified := callContextError(ctx, callCtx, timeout, err)
		if classified == nil {
			var apiErr genai.APIError
			if errors.As(err, &apiErr) {
				classified = apperrors.ClassifyUpstream(err, apiErr.Code)
			} else {
				classified = apperrors.ClassifyUpstream(err, 0)
			}
		}
		g.logger.Error("Model call failed",
			zap.String("purpose", req.Purpose),
			zap.Duration("elapsed", elapsed),
			zap.String("kind", string(classified.Kind)),
			zap.Int("status_code", classified.StatusCode),
			zap.String("error", logging.SanitizeError(err)),
		)
		return "", classified
	}

	if resp == nil {
		return "", apperrors.New(apperrors.KindUpstreamEmptyOutput, "model returned no response")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", apperrors.Newf(apperrors.KindUpstreamContentFiltered,
			"prompt was blocked by the provider (%s)", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", apperrors.New(apperrors.KindUpstreamEmptyOutput, "model returned no candidates")
	}

	finishReason := string(resp.Candidates[0].FinishReason)
	content := strings.TrimSpace(resp.Text())

	fields := []zap.Field{
		zap.String("purpose", req.Purpose),
		zap.Duration("elapsed", elapsed),
		zap.String("finish_reason", finishReason),
		zap.Int("content_length", len(content)),
		zap.String("preview", logging.Preview(content, responsePreviewLength)),
	}
	if resp.UsageMetadata != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}
	g.logger.Info("Model call completed", fields...)

	return classifyFinish(finishReason, content, req.MaxOutputTokens, g.logger)
}
