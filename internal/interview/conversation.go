package interview

import (
	"fmt"
	"time"
)

// Conversation is the shared state of a session: the append-only transcript,
// the current phase and the per-phase artifacts. The session controller is
// its only writer; roles receive read access and return data the controller
// appends.
type Conversation struct {
	intake    Intake
	phase     Phase
	messages  []Message
	analysis  *ResumeAnalysis
	questions []string
	report    *EvaluationReport
}

// NewConversation opens a conversation at the Setup phase.
func NewConversation(intake Intake) *Conversation {
	return &Conversation{intake: intake, phase: PhaseSetup}
}

// Append adds a message to the end of the transcript and returns it with its
// assigned sequence number. Prior messages are never reordered or removed.
func (c *Conversation) Append(speaker Speaker, content string) Message {
	msg := Message{
		Seq:     len(c.messages) + 1,
		Speaker: speaker,
		Phase:   c.phase,
		Content: content,
		At:      time.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}

// SetPhase advances the conversation phase, enforcing the monotonic lattice.
func (c *Conversation) SetPhase(next Phase) error {
	if !canTransition(c.phase, next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, c.phase, next)
	}
	c.phase = next
	return nil
}

// History returns a copy of all messages with sequence numbers greater than
// since, in append order. Pass 0 for the full transcript.
func (c *Conversation) History(since int) []Message {
	if since < 0 {
		since = 0
	}
	if since >= len(c.messages) {
		return nil
	}

	history := make([]Message, len(c.messages)-since)
	copy(history, c.messages[since:])
	return history
}

// Last returns the newest message, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Turns counts how many messages the speaker has produced.
func (c *Conversation) Turns(speaker Speaker) int {
	count := 0
	for _, msg := range c.messages {
		if msg.Speaker == speaker {
			count++
		}
	}
	return count
}

func (c *Conversation) Phase() Phase   { return c.phase }
func (c *Conversation) Len() int       { return len(c.messages) }
func (c *Conversation) Intake() Intake { return c.intake }

// AttachAnalysis stores the resume analysis artifact, once, during the
// resume analysis phase.
func (c *Conversation) AttachAnalysis(analysis *ResumeAnalysis) error {
	if c.phase != PhaseResumeAnalysis {
		return fmt.Errorf("%w: analysis attached in phase %s", ErrInvalidTransition, c.phase)
	}
	if c.analysis != nil {
		return fmt.Errorf("%w: analysis already attached", ErrInvalidTransition)
	}
	c.analysis = analysis
	return nil
}

// AttachQuestions stores the generated question list, once, during the
// question generation phase.
func (c *Conversation) AttachQuestions(questions []string) error {
	if c.phase != PhaseQuestionGeneration {
		return fmt.Errorf("%w: questions attached in phase %s", ErrInvalidTransition, c.phase)
	}
	if c.questions != nil {
		return fmt.Errorf("%w: questions already attached", ErrInvalidTransition)
	}
	c.questions = append([]string(nil), questions...)
	return nil
}

// AttachReport stores the final report, once. Degraded reports may also be
// attached while aborting, so both Evaluation and Aborted qualify.
func (c *Conversation) AttachReport(report *EvaluationReport) error {
	if c.phase != PhaseEvaluation && c.phase != PhaseAborted {
		return fmt.Errorf("%w: report attached in phase %s", ErrInvalidTransition, c.phase)
	}
	if c.report != nil {
		return fmt.Errorf("%w: report already attached", ErrInvalidTransition)
	}
	c.report = report
	return nil
}

// Analysis returns the resume analysis artifact, or nil before it exists.
func (c *Conversation) Analysis() *ResumeAnalysis { return c.analysis }

// Questions returns a copy of the generated question list, or nil before it
// exists.
func (c *Conversation) Questions() []string {
	if c.questions == nil {
		return nil
	}
	return append([]string(nil), c.questions...)
}

// Report returns the final report, or nil before evaluation completes.
func (c *Conversation) Report() *EvaluationReport { return c.report }
