package interview

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Intake is the plain extracted text a session starts from. Extraction itself
// (PDF parsing, uploads, speech transcription) happens outside the core.
type Intake struct {
	Resume         string
	JobDescription string
	// Candidate is an optional display name used in logs and the report.
	Candidate string
}

// ResumeAnalysis maps job description requirements onto resume evidence:
// requirements backed by a resume quote land in Matches, unproven ones in Gaps.
type ResumeAnalysis struct {
	Matches map[string]string `json:"matches" mapstructure:"matches"`
	Gaps    []string          `json:"gaps" mapstructure:"gaps"`
}

// Verdicts the evaluator chooses between.
const (
	RecommendStrongly         = "Strongly Recommend for Next Round"
	RecommendWithReservations = "Recommend with Reservations"
	RecommendNo               = "Do Not Recommend"
)

// DimensionScore grades one competency dimension from 1 (poor) to 5
// (excellent) with a supporting rationale.
type DimensionScore struct {
	Score     int    `json:"score" mapstructure:"score"`
	Rationale string `json:"rationale" mapstructure:"rationale"`
}

// EvaluationReport is the final structured artifact of a session. A degraded
// report records where the session failed instead of a full evaluation.
type EvaluationReport struct {
	Candidate      string                    `json:"candidate,omitempty" mapstructure:"-"`
	Summary        string                    `json:"summary" mapstructure:"summary"`
	Dimensions     map[string]DimensionScore `json:"dimensions" mapstructure:"dimensions"`
	Recommendation string                    `json:"recommendation" mapstructure:"recommendation"`
	Degraded       bool                      `json:"degraded,omitempty" mapstructure:"-"`
	FailurePoint   string                    `json:"failure_point,omitempty" mapstructure:"-"`
}

// ParseResumeAnalysis decodes the analyzer's JSON output. The "analysis" root
// wrapper is optional and singular key spellings are accepted.
func ParseResumeAnalysis(raw string) (*ResumeAnalysis, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse resume analysis: %w", err)
	}

	if wrapped, ok := data["analysis"].(map[string]any); ok {
		data = wrapped
	}
	aliasKey(data, "match", "matches")
	aliasKey(data, "gap", "gaps")

	var analysis ResumeAnalysis
	if err := decodeLoose(data, &analysis); err != nil {
		return nil, fmt.Errorf("decode resume analysis: %w", err)
	}

	if len(analysis.Matches) == 0 && len(analysis.Gaps) == 0 {
		return nil, errors.New("resume analysis carries neither matches nor gaps")
	}

	return &analysis, nil
}

// maxQuestions caps runaway generator output; the prompt asks for 5 to 8.
const maxQuestions = 12

// ParseQuestions decodes the generator's output: a JSON array of question
// strings, optionally wrapped in an object under "questions".
func ParseQuestions(raw string) ([]string, error) {
	cleaned := extractJSON(raw)

	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		var data map[string]any
		if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
			return nil, fmt.Errorf("parse question list: %w", err)
		}
		wrapped, ok := data["questions"].([]any)
		if !ok {
			return nil, errors.New("question list JSON carries no questions array")
		}
		items = wrapped
	}

	questions := make([]string, 0, len(items))
	for _, item := range items {
		text, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("question %d is not a string", len(questions)+1)
		}
		if text = strings.TrimSpace(text); text != "" {
			questions = append(questions, text)
		}
	}

	if len(questions) == 0 {
		return nil, errors.New("question list is empty")
	}
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}

	return questions, nil
}

// ParseEvaluationReport decodes the evaluator's JSON output. Scores are
// clamped into the 1..5 range.
func ParseEvaluationReport(raw string) (*EvaluationReport, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse evaluation report: %w", err)
	}

	var report EvaluationReport
	if err := decodeLoose(data, &report); err != nil {
		return nil, fmt.Errorf("decode evaluation report: %w", err)
	}

	if strings.TrimSpace(report.Summary) == "" && len(report.Dimensions) == 0 {
		return nil, errors.New("evaluation report carries neither summary nor dimensions")
	}

	for name, dimension := range report.Dimensions {
		if dimension.Score < 1 {
			dimension.Score = 1
		}
		if dimension.Score > 5 {
			dimension.Score = 5
		}
		report.Dimensions[name] = dimension
	}

	return &report, nil
}

// decodeLoose decodes with weak typing so string-typed numbers, which models
// occasionally emit, still land in integer fields.
func decodeLoose(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// aliasKey copies a value under its canonical key when only the alternate
// spelling is present.
func aliasKey(data map[string]any, from, to string) {
	if _, exists := data[to]; exists {
		return
	}
	if value, ok := data[from]; ok {
		data[to] = value
	}
}

// extractJSON strips the markdown code fences models like to wrap JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
