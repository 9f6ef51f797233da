package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/logging"
)

const (
	deploymentsPathMarker = "/openai/deployments/"
	responsePreviewLength = 300
)

type azureOpenAIInvoker struct {
	client     *openai.Client
	deployment string
	timeout    time.Duration
	logger     *zap.Logger
}

// AzureEndpoint is an Azure OpenAI endpoint split into the parts the SDK needs.
type AzureEndpoint struct {
	BaseURL    string
	Deployment string
	APIVersion string
}

// NormalizeAzureEndpoint accepts a resource root, a deployment URL or a full
// chat-completions URL. A deployment or api-version embedded in the URL wins over
// the configured values.
func NormalizeAzureEndpoint(endpoint, deployment, apiVersion string) (AzureEndpoint, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return AzureEndpoint{}, fmt.Errorf("invalid AZURE_OPENAI_ENDPOINT %q", endpoint)
	}

	result := AzureEndpoint{Deployment: deployment, APIVersion: apiVersion}
	if v := u.Query().Get("api-version"); v != "" {
		result.APIVersion = v
	}

	path := strings.TrimRight(u.Path, "/")
	if idx := strings.Index(path, deploymentsPathMarker); idx >= 0 {
		rest := path[idx+len(deploymentsPathMarker):]
		if name, _, _ := strings.Cut(rest, "/"); name != "" {
			result.Deployment = name
		}
		path = path[:idx]
	} else {
		path = strings.TrimSuffix(path, "/chat/completions")
		path = strings.TrimSuffix(path, "/openai")
	}

	result.BaseURL = fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, path)
	if result.Deployment == "" {
		return AzureEndpoint{}, errors.New("AZURE_OPENAI_DEPLOYMENT is not set and the endpoint does not name a deployment")
	}
	return result, nil
}

// NewAzureOpenAIInvoker builds a chat-completions invoker for one Azure deployment.
func NewAzureOpenAIInvoker(cfg config.AzureOpenAIConfig, logger *zap.Logger) (ModelInvoker, error) {
	endpoint, err := NormalizeAzureEndpoint(cfg.Endpoint, cfg.Deployment, cfg.APIVersion)
	if err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultAzureConfig(cfg.APIKey, endpoint.BaseURL)
	clientConfig.APIVersion = endpoint.APIVersion
	clientConfig.AzureModelMapperFunc = func(model string) string {
		return endpoint.Deployment
	}

	logger.Info("Azure OpenAI invoker configured",
		zap.String("base_url", endpoint.BaseURL),
		zap.String("deployment", endpoint.Deployment),
		zap.String("api_version", endpoint.APIVersion),
		zap.Duration("timeout", cfg.Timeout),
	)

	return &azureOpenAIInvoker{
		client:     openai.NewClientWithConfig(clientConfig),
		deployment: endpoint.Deployment,
		timeout:    cfg.Timeout,
		logger:     logger.Named("azure-openai"),
	}, nil
}

func (a *azureOpenAIInvoker) ModelIdentifier() string {
	return "azure-openai/" + a.deployment
}

func (a *azureOpenAIInvoker) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	request := openai.ChatCompletionRequest{
		Model: a.deployment,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxCompletionTokens: req.MaxOutputTokens,
	}
	if req.JSONMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	a.logger.Info("Calling model",
		zap.String("purpose", req.Purpose),
		zap.String("deployment", a.deployment),
		zap.Int("system_prompt_length", len(req.SystemPrompt)),
		zap.Int("user_prompt_length", len(req.UserPrompt)),
		zap.Int("max_completion_tokens", req.MaxOutputTokens),
	)

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(callCtx, request)
	elapsed := time.Since(start)
	if err != nil {
		classified := a.classifyCallError(ctx, callCtx, err)
		a.logger.Error("Model call failed",
			zap.String("purpose", req.Purpose),
			zap.Duration("elapsed", elapsed),
			zap.String("kind", string(classified.Kind)),
			zap.Int("status_code", classified.StatusCode),
			zap.String("error", logging.SanitizeError(err)),
		)
		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.KindUpstreamEmptyOutput, "model returned no choices")
	}

	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)

	a.logger.Info("Model call completed",
		zap.String("purpose", req.Purpose),
		zap.Duration("elapsed", elapsed),
		zap.String("finish_reason", string(choice.FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("content_length", len(content)),
		zap.String("preview", logging.Preview(content, responsePreviewLength)),
	)

	return classifyFinish(string(choice.FinishReason), content, req.MaxOutputTokens, a.logger)
}

func (a *azureOpenAIInvoker) classifyCallError(parent, callCtx context.Context, err error) *apperrors.Error {
	if ctxErr := callContextError(parent, callCtx, a.timeout, err); ctxErr != nil {
		return ctxErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.ClassifyUpstream(err, apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.ClassifyUpstream(err, reqErr.HTTPStatusCode)
	}
	return apperrors.ClassifyUpstream(err, 0)
}

// callContextError reports a failed model call as canceled when the caller gave up
// and as a timeout when only the per-call deadline fired. It returns nil otherwise.
func callContextError(parent, callCtx context.Context, timeout time.Duration, err error) *apperrors.Error {
	if errors.Is(parent.Err(), context.Canceled) {
		return apperrors.Wrap(apperrors.KindCanceled, "analysis canceled by caller", err)
	}
	if parent.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.KindUpstreamTimeout,
			fmt.Sprintf("model did not respond within %s", timeout), err)
	}
	return nil
}

// classifyFinish turns a finish reason and the returned text into either the text or
// an upstream error. A length stop that still produced text is passed on; the
// validator decides whether it parses.
func classifyFinish(finishReason, content string, maxTokens int, logger *zap.Logger) (string, error) {
	switch finishReason {
	case "length", "MAX_TOKENS":
		if content == "" {
			return "", apperrors.Newf(apperrors.KindUpstreamTruncated,
				"model hit the output limit (%d tokens) before producing any content", maxTokens)
		}
		logger.Warn("Model output reached the token limit; response may be truncated",
			zap.Int("max_output_tokens", maxTokens))
	case "content_filter", "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST", "SPII":
		return "", apperrors.Newf(apperrors.KindUpstreamContentFiltered,
			"model response was blocked by the provider content filter (%s)", finishReason)
	case "stop", "STOP":
		if content == "" {
			return "", apperrors.New(apperrors.KindUpstreamEmptyOutput,
				"model finished without content; check that the deployment supports JSON responses and the prompt is not too long")
		}
	}

	if content == "" {
		return "", apperrors.Newf(apperrors.KindUpstreamEmptyOutput, "model returned empty content (finish reason %q)", finishReason)
	}
	return content, nil
}
