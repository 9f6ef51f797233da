package services

import (
	"context"
	"fmt"
	"sync"
)

// fakeInvoker replays canned completions in call order and records every request.
type fakeInvoker struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []CompletionRequest
	onCall    func(n int)
}

func (f *fakeInvoker) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	n := len(f.calls) - 1
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall(n)
	}
	if n < len(f.errs) && f.errs[n] != nil {
		return "", f.errs[n]
	}
	if n < len(f.responses) {
		return f.responses[n], nil
	}
	return "", fmt.Errorf("unexpected call %d", n+1)
}

func (f *fakeInvoker) ModelIdentifier() string {
	return "fake/model"
}

func (f *fakeInvoker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// analysisJSON is a complete model response. An empty summary omits the field.
func analysisJSON(summary string) string {
	summaryField := ""
	if summary != "" {
		summaryField = fmt.Sprintf(`"executive_summary": %q,`, summary)
	}
	return `{
  "team_strength_index": 72,
  "functional_gap_analysis": {"gaps": ["No dedicated sales lead"], "severity": "medium"},
  "decision_architecture_risk": {"score": 41, "centralization_level": "medium", "issues": ["CEO overrides product calls"]},
  "commitment_asymmetry_score": 18,
  "leadership_centralization_risk": {"score": 55, "concerns": ["Hiring decisions sit with one founder"]},
  "conflict_productivity_assessment": {"score": 63, "patterns": ["Disagreements resolved within a week"]},
  "red_flags": [{"severity": "medium", "description": "Vesting not documented", "evidence": ["Interview with Bob"]}],
  "investment_implications": {"overall_risk": "medium", "recommendation": "proceed_with_conditions", "rationale": "Strong technical pair"},
  "suggested_interventions": ["Write down decision rights"],
  "contradictions_detected": [],
  "ownership_overlaps": [],
  ` + summaryField + `
  "fragile_dependencies": [{"description": "Only Alice knows the infra", "impact": "high"}]
}`
}
