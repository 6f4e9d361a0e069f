package interview

import (
	"strings"
	"testing"
)

func TestRoleDefinitions(t *testing.T) {
	roles := Definitions(nil, 0)

	if len(roles) != 4 {
		t.Fatalf("expected 4 roles, got %d", len(roles))
	}

	temperatures := map[RoleID]float32{
		RoleResumeAnalyzer:    0.2,
		RoleQuestionGenerator: 0.7,
		RoleInterviewer:       0.5,
		RoleEvaluator:         0.4,
	}
	for id, want := range temperatures {
		role := roles[id]
		if role.Temperature != want {
			t.Fatalf("expected %s temperature %v, got %v", id, want, role.Temperature)
		}
		if role.MaxTokens != defaultMaxTokens {
			t.Fatalf("expected %s max tokens %d, got %d", id, defaultMaxTokens, role.MaxTokens)
		}
		if strings.TrimSpace(role.System) == "" {
			t.Fatalf("expected %s to carry a system prompt", id)
		}
	}

	if roles[RoleInterviewer].Contract != ContractFreeText {
		t.Fatalf("expected the interviewer to speak free text")
	}
	if roles[RoleEvaluator].Contract != ContractReport {
		t.Fatalf("expected the evaluator to produce a report")
	}
}

func TestRoleDefinitionsApplyOverrides(t *testing.T) {
	roles := Definitions(map[RoleID]float32{
		RoleInterviewer: 0.9,
		RoleEvaluator:   -1, // invalid, keeps the default
	}, 2048)

	if got := roles[RoleInterviewer].Temperature; got != 0.9 {
		t.Fatalf("expected the interviewer override to apply, got %v", got)
	}
	if got := roles[RoleEvaluator].Temperature; got != 0.4 {
		t.Fatalf("expected an invalid override to keep the default, got %v", got)
	}
	if got := roles[RoleResumeAnalyzer].MaxTokens; got != 2048 {
		t.Fatalf("expected the token budget override to apply, got %d", got)
	}
}

func TestRoleSpeakers(t *testing.T) {
	speakers := map[RoleID]Speaker{
		RoleResumeAnalyzer:    SpeakerResumeAnalyzer,
		RoleQuestionGenerator: SpeakerQuestionGenerator,
		RoleInterviewer:       SpeakerInterviewer,
		RoleEvaluator:         SpeakerEvaluator,
	}

	for id, want := range speakers {
		if got := id.Speaker(); got != want {
			t.Fatalf("expected %s to speak as %q, got %q", id, want, got)
		}
	}
}
