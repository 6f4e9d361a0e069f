package interview

import (
	"fmt"
	"strings"
)

// ClosingSentinel is the canonical termination signal: an interviewer message
// carrying this word as a standalone token closes the interview loop.
const ClosingSentinel = "TERMINATE"

// DefaultMaxInterviewerTurns bounds the interview loop when no limit is
// configured.
const DefaultMaxInterviewerTurns = 10

// TurnKind says what the controller must do for a selected turn.
type TurnKind int

const (
	// TurnRole invokes an AI role.
	TurnRole TurnKind = iota
	// TurnCandidate awaits the candidate's next utterance.
	TurnCandidate
	// TurnFinished ends the session.
	TurnFinished
)

func (k TurnKind) String() string {
	switch k {
	case TurnRole:
		return "role"
	case TurnCandidate:
		return "candidate"
	case TurnFinished:
		return "finished"
	default:
		return fmt.Sprintf("turn(%d)", int(k))
	}
}

// Turn is one selector decision: the phase the conversation must be in and
// who acts. Role is meaningful only for TurnRole.
type Turn struct {
	Kind  TurnKind
	Role  RoleID
	Phase Phase
}

// Selector decides which participant acts next. It holds no mutable state:
// decisions depend only on the conversation passed in, so re-invoking it on
// an unmodified conversation yields the same turn.
type Selector struct {
	MaxInterviewerTurns int
}

func (s *Selector) maxInterviewerTurns() int {
	if s.MaxInterviewerTurns <= 0 {
		return DefaultMaxInterviewerTurns
	}
	return s.MaxInterviewerTurns
}

// Next picks the next turn for the conversation.
func (s *Selector) Next(conv *Conversation) (Turn, error) {
	switch conv.Phase() {
	case PhaseSetup:
		intake := conv.Intake()
		if strings.TrimSpace(intake.Resume) == "" {
			return Turn{}, fmt.Errorf("%w: resume text is empty", ErrMissingInput)
		}
		if strings.TrimSpace(intake.JobDescription) == "" {
			return Turn{}, fmt.Errorf("%w: job description text is empty", ErrMissingInput)
		}
		return Turn{Kind: TurnRole, Role: RoleResumeAnalyzer, Phase: PhaseResumeAnalysis}, nil

	case PhaseResumeAnalysis:
		if conv.Analysis() == nil {
			return Turn{Kind: TurnRole, Role: RoleResumeAnalyzer, Phase: PhaseResumeAnalysis}, nil
		}
		return Turn{Kind: TurnRole, Role: RoleQuestionGenerator, Phase: PhaseQuestionGeneration}, nil

	case PhaseQuestionGeneration:
		if conv.Questions() == nil {
			return Turn{Kind: TurnRole, Role: RoleQuestionGenerator, Phase: PhaseQuestionGeneration}, nil
		}
		return Turn{Kind: TurnRole, Role: RoleInterviewer, Phase: PhaseInterviewLoop}, nil

	case PhaseInterviewLoop:
		return s.nextInterviewTurn(conv), nil

	case PhaseEvaluation:
		if conv.Report() == nil {
			return Turn{Kind: TurnRole, Role: RoleEvaluator, Phase: PhaseEvaluation}, nil
		}
		return Turn{Kind: TurnFinished, Phase: PhaseTerminal}, nil

	case PhaseTerminal, PhaseAborted:
		return Turn{Kind: TurnFinished, Phase: conv.Phase()}, nil

	default:
		return Turn{}, fmt.Errorf("%w: unknown phase %s", ErrInvalidTransition, conv.Phase())
	}
}

// nextInterviewTurn alternates Interviewer and Candidate until the
// interviewer signals completion or its turn allowance runs out.
func (s *Selector) nextInterviewTurn(conv *Conversation) Turn {
	last, ok := conv.Last()
	if !ok || (last.Speaker != SpeakerInterviewer && last.Speaker != SpeakerCandidate) {
		return Turn{Kind: TurnRole, Role: RoleInterviewer, Phase: PhaseInterviewLoop}
	}

	ceilingReached := conv.Turns(SpeakerInterviewer) >= s.maxInterviewerTurns()

	if last.Speaker == SpeakerInterviewer {
		if hasClosingSentinel(last.Content) || ceilingReached {
			return Turn{Kind: TurnRole, Role: RoleEvaluator, Phase: PhaseEvaluation}
		}
		return Turn{Kind: TurnCandidate, Phase: PhaseInterviewLoop}
	}

	if ceilingReached {
		return Turn{Kind: TurnRole, Role: RoleEvaluator, Phase: PhaseEvaluation}
	}
	return Turn{Kind: TurnRole, Role: RoleInterviewer, Phase: PhaseInterviewLoop}
}

// hasClosingSentinel reports whether content carries the sentinel as its own
// token rather than as part of a longer word.
func hasClosingSentinel(content string) bool {
	for _, token := range strings.Fields(content) {
		if strings.Trim(token, ".,;:!?\"'`*()[]{}") == ClosingSentinel {
			return true
		}
	}
	return false
}
