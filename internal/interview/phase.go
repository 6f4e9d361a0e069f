package interview

import (
	"encoding/json"
	"fmt"
)

// Phase is a stage of the interview lifecycle. Phases advance monotonically:
// no phase is revisited once left, except InterviewLoop which repeats until
// its exit condition fires.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseResumeAnalysis
	PhaseQuestionGeneration
	PhaseInterviewLoop
	PhaseEvaluation
	PhaseTerminal
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseResumeAnalysis:
		return "resume-analysis"
	case PhaseQuestionGeneration:
		return "question-generation"
	case PhaseInterviewLoop:
		return "interview-loop"
	case PhaseEvaluation:
		return "evaluation"
	case PhaseTerminal:
		return "terminal"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalJSON renders the phase name so exported transcripts stay readable.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Done reports whether the phase admits no further turns.
func (p Phase) Done() bool {
	return p == PhaseTerminal || p == PhaseAborted
}

// canTransition enforces the phase lattice: one step forward at a time, a
// self-loop only for InterviewLoop, and an abort from any live phase.
func canTransition(from, to Phase) bool {
	if from.Done() {
		return false
	}
	if to == PhaseAborted {
		return true
	}
	if to == from {
		return from == PhaseInterviewLoop
	}
	return to == from+1
}
