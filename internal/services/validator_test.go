package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
)

func newTestValidator(invoker ModelInvoker) ResponseValidator {
	return NewResponseValidator(invoker, NewPromptBuilder(), 2000, zap.NewNop())
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "code fence", input: "```json\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`, ok: true},
		{name: "prose around", input: `Here you go: {"a":1} hope it helps {"b":2}`, want: `{"a":1}`, ok: true},
		{name: "braces in strings", input: `{"a":"}{","b":"\"}"}`, want: `{"a":"}{","b":"\"}"}`, ok: true},
		{name: "no object", input: "I cannot help with that.", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResponseValidator_FencedResponse(t *testing.T) {
	invoker := &fakeInvoker{}
	raw := "```json\n" + analysisJSON("The team is strong.") + "\n```"

	result, err := newTestValidator(invoker).Validate(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, 41.0, result.RiskScore)
	assert.Equal(t, "The team is strong.", result.ExecutiveSummary)
	assert.False(t, result.SummaryFetched)
	assert.Zero(t, invoker.callCount())
}

func TestResponseValidator_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "no json", raw: "Sorry, the request was too long."},
		{name: "truncated", raw: `{"team_strength_index": 72, "decision_architecture_risk": {"score": 4`},
		{name: "missing score", raw: `{"executive_summary": "ok", "decision_architecture_risk": {"centralization_level": "low"}}`},
		{name: "null score", raw: `{"executive_summary": "ok", "decision_architecture_risk": {"score": null}}`},
		{name: "string score", raw: `{"executive_summary": "ok", "decision_architecture_risk": {"score": "high"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := &fakeInvoker{}
			_, err := newTestValidator(invoker).Validate(context.Background(), tt.raw)
			require.Error(t, err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.KindMalformedOutput, appErr.Kind)
			assert.NotEmpty(t, appErr.Preview)
			assert.LessOrEqual(t, len(appErr.Preview), apperrors.MaxPreviewLength)
			assert.Zero(t, invoker.callCount())
		})
	}
}

func TestResponseValidator_KeepsUnenforcedFieldsAsReturned(t *testing.T) {
	invoker := &fakeInvoker{}
	raw := `{
  "executive_summary": "Solid pair.",
  "team_strength_index": "about 70",
  "decision_architecture_risk": {"score": 12.5, "issues": "none worth noting"},
  "red_flags": [{"severity": "low", "description": "Part-time CTO", "evidence": "Interview with Bob"}],
  "board_notes": {"custom": true}
}`

	result, err := newTestValidator(invoker).Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 12.5, result.RiskScore)
	assert.Equal(t, "Solid pair.", result.ExecutiveSummary)
	assert.Zero(t, invoker.callCount())

	var stored map[string]any
	require.NoError(t, json.Unmarshal(result.Analysis, &stored))
	assert.NotContains(t, stored, "executive_summary")
	assert.Equal(t, "about 70", stored["team_strength_index"])
	assert.Equal(t, map[string]any{"custom": true}, stored["board_notes"])
	flags, ok := stored["red_flags"].([]any)
	require.True(t, ok)
	require.Len(t, flags, 1)
	assert.Equal(t, "Interview with Bob", flags[0].(map[string]any)["evidence"])
}

func TestResponseValidator_ErrorPayload(t *testing.T) {
	_, err := newTestValidator(&fakeInvoker{}).Validate(context.Background(), `{"error": "context length exceeded"}`)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))
}

func TestResponseValidator_SummaryFallback(t *testing.T) {
	invoker := &fakeInvoker{responses: []string{"  Acme's founders complement each other.  "}}

	result, err := newTestValidator(invoker).Validate(context.Background(), analysisJSON(""))
	require.NoError(t, err)

	assert.Equal(t, "Acme's founders complement each other.", result.ExecutiveSummary)
	assert.True(t, result.SummaryFetched)
	require.Equal(t, 1, invoker.callCount())

	req := invoker.calls[0]
	assert.Equal(t, "summary", req.Purpose)
	assert.False(t, req.JSONMode)
	assert.Equal(t, 2000, req.MaxOutputTokens)
	assert.Contains(t, req.UserPrompt, `"decision_architecture_risk"`)
	assert.Contains(t, req.UserPrompt, "Only Alice knows the infra")
}

func TestResponseValidator_SummaryFallbackFailure(t *testing.T) {
	tests := []struct {
		name     string
		invoker  *fakeInvoker
		wantKind apperrors.Kind
	}{
		{
			name:     "upstream error",
			invoker:  &fakeInvoker{errs: []error{apperrors.New(apperrors.KindUpstreamTimeout, "slow")}},
			wantKind: apperrors.KindMalformedOutput,
		},
		{
			name:     "empty text",
			invoker:  &fakeInvoker{responses: []string{"   "}},
			wantKind: apperrors.KindMalformedOutput,
		},
		{
			name:     "canceled",
			invoker:  &fakeInvoker{errs: []error{apperrors.Wrap(apperrors.KindCanceled, "canceled", context.Canceled)}},
			wantKind: apperrors.KindCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestValidator(tt.invoker).Validate(context.Background(), analysisJSON(""))
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			assert.Equal(t, 1, tt.invoker.callCount())
		})
	}
}

func TestResponseValidator_SummaryFallbackKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	invoker := &fakeInvoker{errs: []error{cause}}

	_, err := newTestValidator(invoker).Validate(context.Background(), analysisJSON(""))
	assert.ErrorIs(t, err, cause)
}
