// Package report renders and exports evaluation reports.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hireloop/interview-agent/internal/interview"
)

// Markdown renders the report in its canonical layout: overall summary,
// per-dimension scores with rationale, final recommendation.
func Markdown(r *interview.EvaluationReport) string {
	var b strings.Builder

	b.WriteString("# Candidate Evaluation Report\n\n")

	if r.Candidate != "" {
		fmt.Fprintf(&b, "Candidate: %s\n\n", r.Candidate)
	}

	if r.Degraded {
		point := r.FailurePoint
		if point == "" {
			point = "unknown"
		}
		fmt.Fprintf(&b, "> Note: this report is degraded. The session failed at the %s stage.\n\n", point)
	}

	b.WriteString("## Overall Summary\n\n")
	summary := strings.TrimSpace(r.Summary)
	if summary == "" {
		summary = "No summary available."
	}
	b.WriteString(summary)
	b.WriteString("\n\n")

	b.WriteString("## Detailed Evaluation\n\n")
	if len(r.Dimensions) == 0 {
		b.WriteString("No dimensions were evaluated.\n\n")
	}
	for _, name := range sortedDimensions(r.Dimensions) {
		dimension := r.Dimensions[name]
		fmt.Fprintf(&b, "### %s\n\n", name)
		fmt.Fprintf(&b, "- Score: %d/5\n", dimension.Score)
		if rationale := strings.TrimSpace(dimension.Rationale); rationale != "" {
			fmt.Fprintf(&b, "- Justification: %s\n", rationale)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Final Recommendation\n\n")
	recommendation := strings.TrimSpace(r.Recommendation)
	if recommendation == "" {
		recommendation = "No recommendation available."
	}
	b.WriteString(recommendation)
	b.WriteString("\n")

	return b.String()
}

// WriteFile exports the report as indented JSON.
func WriteFile(r *interview.EvaluationReport, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// DumpToTmpFile exports the report as JSON into a temp file and returns its
// name.
func DumpToTmpFile(r *interview.EvaluationReport) (string, error) {
	file, err := os.CreateTemp("", "evaluation_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// TranscriptToTmpFile exports the transcript as JSON into a temp file and
// returns its name.
func TranscriptToTmpFile(msgs []interview.Message) (string, error) {
	file, err := os.CreateTemp("", "transcript_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(msgs); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// WriteTranscript exports the transcript as indented JSON.
func WriteTranscript(msgs []interview.Message, path string) error {
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	return nil
}

func sortedDimensions(dimensions map[string]interview.DimensionScore) []string {
	names := make([]string, 0, len(dimensions))
	for name := range dimensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
