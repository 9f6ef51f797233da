package services

import (
	"fmt"
	"strconv"
	"strings"

	"alfredoptarigan/team-diagnostic/internal/models"
)

// TranscriptExcerptLength is the number of characters of each transcript included in
// the analysis prompt.
const TranscriptExcerptLength = 1000

const analysisSystemPrompt = `You are an expert venture capital analyst specializing in founding team assessment.
Analyze the provided data about a startup's founding team and generate a comprehensive diagnostic report.

Focus on:
1. Team alignment and cohesion
2. Commitment levels and asymmetry
3. Decision-making architecture and centralization risks
4. Functional gaps in the team
5. Conflict patterns and productivity
6. Red flags that could impact investment
7. Contradictions between founders' responses
8. Ownership and equity concerns
9. Fragile dependencies (single points of failure)

Be objective, data-driven, and specific. Provide actionable insights.`

// analysisSchemaTemplate describes the report document. Only
// decision_architecture_risk.score is enforced when the response is validated.
const analysisSchemaTemplate = `Generate a JSON response with this exact structure. You MUST return valid JSON only - no text outside the JSON object:
{
  "team_strength_index": <number 0-100>,
  "functional_gap_analysis": {
    "gaps": [<array of gap descriptions>],
    "severity": "<low|medium|high>"
  },
  "decision_architecture_risk": {
    "score": <number 0-100>,
    "centralization_level": "<high|medium|low>",
    "issues": [<array of issues>]
  },
  "commitment_asymmetry_score": <number 0-100>,
  "leadership_centralization_risk": {
    "score": <number 0-100>,
    "concerns": [<array of concerns>]
  },
  "conflict_productivity_assessment": {
    "score": <number 0-100>,
    "patterns": [<array of patterns>]
  },
  "red_flags": [
    {
      "severity": "<critical|high|medium|low>",
      "description": "<description>",
      "evidence": [<array of evidence points>]
    }
  ],
  "investment_implications": {
    "overall_risk": "<low|medium|high|critical>",
    "recommendation": "<proceed|proceed_with_conditions|reconsider|decline>",
    "rationale": "<detailed rationale>"
  },
  "suggested_interventions": [<array of intervention suggestions>],
  "contradictions_detected": [
    {
      "founders_involved": [<array of founder names>],
      "issue": "<description>",
      "evidence": "<evidence>"
    }
  ],
  "ownership_overlaps": [
    {
      "description": "<description>",
      "risk_level": "<low|medium|high>"
    }
  ],
  "fragile_dependencies": [
    {
      "description": "<description>",
      "impact": "<impact description>"
    }
  ],
  "executive_summary": "<2-3 paragraph executive summary synthesizing key findings>"
}

Return ONLY the JSON object. Do not include any text before or after the JSON.`

const summaryInstruction = `Based on the analysis above, provide a concise 2-3 paragraph executive summary highlighting:
1. Overall team strength assessment
2. Key risks and concerns
3. Investment recommendation and rationale`

const (
	noSurveyResponses      = "(No survey responses available)"
	noInterviewTranscripts = "(No interview transcripts available)"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// SystemPrompt returns the fixed analyst instruction shared by both model calls.
func (pb *PromptBuilder) SystemPrompt() string {
	return analysisSystemPrompt
}

// BuildAnalysisPrompt renders the bundle as labeled plain text followed by the output
// schema. It is deterministic for a given bundle.
func (pb *PromptBuilder) BuildAnalysisPrompt(bundle *AnalysisBundle) (string, string) {
	var b strings.Builder

	b.WriteString("Analyze this founding team:\n\n")

	s := bundle.Startup
	b.WriteString("STARTUP:\n")
	fmt.Fprintf(&b, "- Company: %s\n", s.CompanyName)
	fmt.Fprintf(&b, "- Industry: %s\n", stringOrNA(s.Industry))
	fmt.Fprintf(&b, "- Stage: %s\n", stringOrNA(s.Stage))
	raise := "N/A"
	if s.RaiseAmount != nil && *s.RaiseAmount != 0 {
		raise = "$" + formatNumber(*s.RaiseAmount)
	}
	fmt.Fprintf(&b, "- Raise Amount: %s\n\n", raise)

	b.WriteString("FOUNDERS:\n")
	founderBlocks := make([]string, 0, len(bundle.Founders))
	for _, f := range bundle.Founders {
		founderBlocks = append(founderBlocks, formatFounder(f))
	}
	b.WriteString(strings.Join(founderBlocks, "\n"))
	b.WriteString("\n\n")

	b.WriteString("SURVEY RESPONSES:\n")
	if len(bundle.Responses) == 0 {
		b.WriteString(noSurveyResponses)
	} else {
		lines := make([]string, 0, len(bundle.Responses))
		for _, r := range bundle.Responses {
			lines = append(lines, fmt.Sprintf("- %s | %s | \"%s\": %d/10", r.FounderName, r.Dimension, r.QuestionText, r.ResponseValue))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	b.WriteString("\n\n")

	b.WriteString("INTERVIEW TRANSCRIPTS:\n")
	if len(bundle.Transcripts) == 0 {
		b.WriteString(noInterviewTranscripts)
	} else {
		parts := make([]string, 0, len(bundle.Transcripts))
		for _, t := range bundle.Transcripts {
			parts = append(parts, fmt.Sprintf("\n%s:\n%s...", t.FounderName, excerpt(t.RawText, TranscriptExcerptLength)))
		}
		b.WriteString(strings.Join(parts, "\n\n---\n\n"))
	}
	b.WriteString("\n\n")

	b.WriteString(analysisSchemaTemplate)

	return analysisSystemPrompt, b.String()
}

// BuildSummaryPrompt asks for the narrative summary of an analysis that came back
// without one. The analysis JSON is embedded so the model has something to summarize.
func (pb *PromptBuilder) BuildSummaryPrompt(analysisJSON string) string {
	return fmt.Sprintf("ANALYSIS:\n%s\n\n%s", analysisJSON, summaryInstruction)
}

func formatFounder(f models.Founder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n- %s (%s)", f.FullName, stringOrNA(f.Role))
	fmt.Fprintf(&b, "\n  - Email: %s", f.Email)

	equity := "N/A"
	if f.EquityPercentage != nil && *f.EquityPercentage != 0 {
		equity = formatNumber(*f.EquityPercentage)
	}
	fmt.Fprintf(&b, "\n  - Equity: %s%%", equity)
	fmt.Fprintf(&b, "\n  - Full-time: %s", yesNo(f.FullTimeStatus))
	fmt.Fprintf(&b, "\n  - CEO: %s", yesNo(f.IsCEO))

	years := "N/A"
	if f.YearsKnownCofounders != nil && *f.YearsKnownCofounders != 0 {
		years = strconv.Itoa(*f.YearsKnownCofounders)
	}
	fmt.Fprintf(&b, "\n  - Years known co-founders: %s", years)
	fmt.Fprintf(&b, "\n  - Prior startup experience: %s", yesNo(f.PriorStartupExperience))
	fmt.Fprintf(&b, "\n  - Previously worked together: %s", yesNo(f.PreviouslyWorkedTogether))
	return b.String()
}

func stringOrNA(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "N/A"
	}
	return *s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// excerpt returns at most n characters (runes) of s.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
