package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
)

// ValidatedAnalysis is a model response that passed the shape checks.
type ValidatedAnalysis struct {
	// Analysis is the object the model returned, without executive_summary.
	Analysis         json.RawMessage
	RiskScore        float64
	ExecutiveSummary string
	// SummaryFetched is true when the summary came from the supplementary call.
	SummaryFetched bool
}

type ResponseValidator interface {
	Validate(ctx context.Context, raw string) (*ValidatedAnalysis, error)
}

type responseValidator struct {
	invoker          ModelInvoker
	prompts          *PromptBuilder
	summaryMaxTokens int
	logger           *zap.Logger
}

func NewResponseValidator(invoker ModelInvoker, prompts *PromptBuilder, summaryMaxTokens int, logger *zap.Logger) ResponseValidator {
	return &responseValidator{
		invoker:          invoker,
		prompts:          prompts,
		summaryMaxTokens: summaryMaxTokens,
		logger:           logger.Named("validator"),
	}
}

// decisionRisk is the only part of the analysis whose shape is enforced. Every
// other field is stored as the model wrote it.
type decisionRisk struct {
	Score *float64 `json:"score"`
}

func (v *responseValidator) Validate(ctx context.Context, raw string) (*ValidatedAnalysis, error) {
	jsonStr, ok := extractJSON(raw)
	if !ok {
		return nil, apperrors.Malformed("model response does not contain a JSON object", raw, nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		return nil, apperrors.Malformed("model response is not valid JSON", raw, err)
	}
	if errRaw, ok := fields["error"]; ok && string(errRaw) != "null" {
		return nil, apperrors.Newf(apperrors.KindUpstream, "model returned an error payload: %s", previewRaw(errRaw))
	}

	var risk decisionRisk
	riskRaw, ok := fields["decision_architecture_risk"]
	if !ok || json.Unmarshal(riskRaw, &risk) != nil || risk.Score == nil {
		return nil, apperrors.Malformed("decision_architecture_risk.score is missing or not numeric", raw, nil)
	}

	// a summary that is not a string is treated as missing
	var summary string
	if summaryRaw, ok := fields["executive_summary"]; ok {
		_ = json.Unmarshal(summaryRaw, &summary)
		delete(fields, "executive_summary")
	}

	analysis, err := json.Marshal(fields)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to encode analysis", err)
	}

	result := &ValidatedAnalysis{
		Analysis:         analysis,
		RiskScore:        *risk.Score,
		ExecutiveSummary: strings.TrimSpace(summary),
	}
	if result.ExecutiveSummary != "" {
		return result, nil
	}

	v.logger.Info("Analysis has no executive summary; requesting it separately")
	fetched, err := v.fetchSummary(ctx, analysis)
	if err != nil {
		if apperrors.Is(err, apperrors.KindCanceled) {
			return nil, err
		}
		return nil, apperrors.Malformed("executive summary could not be generated", raw, err)
	}
	result.ExecutiveSummary = fetched
	result.SummaryFetched = true
	return result, nil
}

func (v *responseValidator) fetchSummary(ctx context.Context, analysis json.RawMessage) (string, error) {
	var indented bytes.Buffer
	if err := json.Indent(&indented, analysis, "", "  "); err != nil {
		return "", err
	}

	text, err := v.invoker.Complete(ctx, CompletionRequest{
		SystemPrompt:    v.prompts.SystemPrompt(),
		UserPrompt:      v.prompts.BuildSummaryPrompt(indented.String()),
		MaxOutputTokens: v.summaryMaxTokens,
		Purpose:         "summary",
	})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("summary call returned empty text")
	}
	return text, nil
}

// extractJSON returns the first balanced JSON object in text. Markdown fences and
// surrounding prose are ignored; braces inside strings do not count.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	// Unbalanced, usually a truncated response. Let the decoder report it.
	return text[start:], true
}

func previewRaw(raw json.RawMessage) string {
	s := string(raw)
	if len(s) > apperrors.MaxPreviewLength {
		return s[:apperrors.MaxPreviewLength]
	}
	return s
}
