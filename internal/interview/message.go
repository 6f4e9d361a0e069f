package interview

import "time"

// Speaker identifies who produced a message: one of the AI roles or the
// human candidate.
type Speaker string

const (
	SpeakerResumeAnalyzer    Speaker = "Resume Analyzer"
	SpeakerQuestionGenerator Speaker = "Question Generator"
	SpeakerInterviewer       Speaker = "Interviewer"
	SpeakerEvaluator         Speaker = "Evaluator"
	SpeakerCandidate         Speaker = "Candidate"
)

// Message is a single transcript entry. Sequence numbers are assigned by the
// conversation, monotonic from 1. Messages are never modified once appended.
type Message struct {
	Seq     int       `json:"seq"`
	Speaker Speaker   `json:"speaker"`
	Phase   Phase     `json:"phase"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}
