package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hireloop/interview-agent/internal/ai"
	"github.com/hireloop/interview-agent/internal/candidate"
)

const (
	analysisReply  = `{"analysis": {"matches": {"Go": "five years of Go services"}, "gaps": ["Kubernetes"]}}`
	questionsReply = `["Walk me through a Go service you built.", "How would you close your Kubernetes gap?", "Describe a production incident you handled.", "Tell me about a time you disagreed with a teammate.", "Tell me about a project you are proud of."]`
	reportReply    = `{"summary": "Strong Go fundamentals with a Kubernetes gap.", "dimensions": {"Technical Depth": {"score": 4, "rationale": "Concrete service war stories [3]."}}, "recommendation": "Recommend with Reservations"}`
)

type sourceFunc func(ctx context.Context) (string, error)

func (f sourceFunc) NextUtterance(ctx context.Context) (string, error) { return f(ctx) }

type recordingSink struct {
	messages []Message
	reports  []*EvaluationReport
}

func (s *recordingSink) OnMessage(msg Message) { s.messages = append(s.messages, msg) }

func (s *recordingSink) OnReport(report *EvaluationReport) { s.reports = append(s.reports, report) }

func newTestSession(t *testing.T, engine ai.Generator, source CandidateSource, cfg Config) (*Session, *recordingSink) {
	t.Helper()

	sink := &recordingSink{}
	return NewSession(testIntake(), engine, source, sink, cfg, zap.NewNop()), sink
}

func TestSessionRunsFullInterview(t *testing.T) {
	engine := &scriptedEngine{replies: []engineReply{
		{text: analysisReply},
		{text: questionsReply},
		{text: "Hi Jordan, I am Alex. Walk me through a Go service you built."},
		{text: "How did you test its failure paths?"},
		{text: "Thank you for your time today, Jordan. We will be in touch. TERMINATE"},
		{text: reportReply},
	}}
	answers := candidate.NewScript([]string{
		"I built a payments API around idempotency keys.",
		"With fault injection in integration tests.",
	})

	session, sink := newTestSession(t, engine, answers, Config{})
	report, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report == nil || report.Degraded {
		t.Fatalf("expected a full report, got %+v", report)
	}
	if report.Recommendation != RecommendWithReservations {
		t.Fatalf("unexpected recommendation: %q", report.Recommendation)
	}
	if report.Candidate != "Jordan Lee" {
		t.Fatalf("expected the candidate name on the report, got %q", report.Candidate)
	}

	conv := session.Conversation()
	if conv.Phase() != PhaseTerminal {
		t.Fatalf("expected the session to end terminal, got %s", conv.Phase())
	}
	if got := conv.Turns(SpeakerInterviewer); got != 3 {
		t.Fatalf("expected 3 interviewer turns, got %d", got)
	}
	if got := conv.Turns(SpeakerCandidate); got != 2 {
		t.Fatalf("expected 2 candidate turns, got %d", got)
	}
	if conv.Len() != 8 {
		t.Fatalf("expected 8 messages, got %d", conv.Len())
	}
	if engine.calls() != 6 {
		t.Fatalf("expected 6 engine calls, got %d", engine.calls())
	}

	if len(sink.messages) != conv.Len() {
		t.Fatalf("expected the sink to see every message, got %d of %d", len(sink.messages), conv.Len())
	}
	for i, msg := range sink.messages {
		if msg.Seq != i+1 {
			t.Fatalf("messages arrived out of order: seq %d at index %d", msg.Seq, i)
		}
	}

	phases := []Phase{
		PhaseResumeAnalysis,
		PhaseQuestionGeneration,
		PhaseInterviewLoop,
		PhaseInterviewLoop,
		PhaseInterviewLoop,
		PhaseInterviewLoop,
		PhaseInterviewLoop,
		PhaseEvaluation,
	}
	for i, want := range phases {
		if sink.messages[i].Phase != want {
			t.Fatalf("expected message %d in phase %s, got %s", i+1, want, sink.messages[i].Phase)
		}
	}

	if len(sink.reports) != 1 || sink.reports[0] != report {
		t.Fatalf("expected the sink to receive the final report once")
	}

	if conv.Analysis() == nil || len(conv.Questions()) != 5 {
		t.Fatalf("expected the preparation artifacts to be attached")
	}
}

func TestSessionStopsAtInterviewerTurnCeiling(t *testing.T) {
	replies := []engineReply{{text: analysisReply}, {text: questionsReply}}
	for i := 0; i < 10; i++ {
		replies = append(replies, engineReply{text: fmt.Sprintf("Question %d: tell me more?", i+1)})
	}
	replies = append(replies, engineReply{text: reportReply})
	engine := &scriptedEngine{replies: replies}

	answers := make([]string, 9)
	for i := range answers {
		answers[i] = fmt.Sprintf("Answer %d.", i+1)
	}

	session, _ := newTestSession(t, engine, candidate.NewScript(answers), Config{})
	report, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conv := session.Conversation()
	if got := conv.Turns(SpeakerInterviewer); got != 10 {
		t.Fatalf("expected the interviewer to stop at 10 turns, got %d", got)
	}
	if got := conv.Turns(SpeakerCandidate); got != 9 {
		t.Fatalf("expected 9 candidate turns, got %d", got)
	}
	if engine.calls() != 13 {
		t.Fatalf("expected 13 engine calls, got %d", engine.calls())
	}
	if conv.Phase() != PhaseTerminal || report.Degraded {
		t.Fatalf("expected a clean terminal session, got phase %s, report %+v", conv.Phase(), report)
	}
}

func TestSessionForcesEvaluationAtGlobalTurnCeiling(t *testing.T) {
	engine := &scriptedEngine{replies: []engineReply{
		{text: analysisReply},
		{text: questionsReply},
		{text: "First question?"},
		{text: "Second question?"},
		{text: reportReply},
	}}
	answers := candidate.NewScript([]string{"First answer.", "Second answer."})

	session, _ := newTestSession(t, engine, answers, Config{MaxTotalTurns: 6, MaxInterviewerTurns: 50})
	report, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conv := session.Conversation()
	if got := conv.Turns(SpeakerInterviewer); got != 2 {
		t.Fatalf("expected the global ceiling to cut the loop at 2 interviewer turns, got %d", got)
	}
	if conv.Phase() != PhaseTerminal {
		t.Fatalf("expected a terminal session, got %s", conv.Phase())
	}
	if report == nil || report.Degraded {
		t.Fatalf("expected a full report from the forced evaluation, got %+v", report)
	}
	if engine.calls() != 5 {
		t.Fatalf("expected 5 engine calls, got %d", engine.calls())
	}
}

func TestSessionRejectsIncompleteIntake(t *testing.T) {
	cases := []struct {
		name   string
		intake Intake
	}{
		{name: "missing resume", intake: Intake{JobDescription: "Go developer."}},
		{name: "missing job description", intake: Intake{Resume: "Go resume."}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &scriptedEngine{}
			sink := &recordingSink{}
			session := NewSession(tc.intake, engine, candidate.NewScript(nil), sink, Config{}, zap.NewNop())

			report, err := session.Run(context.Background())
			if !errors.Is(err, ErrMissingInput) {
				t.Fatalf("expected a missing input error, got %v", err)
			}
			if report != nil {
				t.Fatalf("expected no report, got %+v", report)
			}

			conv := session.Conversation()
			if conv.Len() != 0 {
				t.Fatalf("expected no messages, got %d", conv.Len())
			}
			if conv.Phase() != PhaseSetup {
				t.Fatalf("expected the session to stay in setup, got %s", conv.Phase())
			}
			if engine.calls() != 0 {
				t.Fatalf("expected no engine calls, got %d", engine.calls())
			}
			if len(sink.reports) != 0 {
				t.Fatalf("expected no report in the sink, got %d", len(sink.reports))
			}
		})
	}
}

func TestSessionAbortsWhenCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &scriptedEngine{}
	session, sink := newTestSession(t, engine, candidate.NewScript(nil), Config{})

	report, err := session.Run(ctx)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected an aborted error, got %v", err)
	}

	if session.Conversation().Phase() != PhaseAborted {
		t.Fatalf("expected the aborted phase, got %s", session.Conversation().Phase())
	}
	if report == nil || !report.Degraded {
		t.Fatalf("expected a degraded report, got %+v", report)
	}
	if report.FailurePoint != "setup" {
		t.Fatalf("expected the failure point to be setup, got %q", report.FailurePoint)
	}
	if engine.calls() != 0 {
		t.Fatalf("expected no engine calls, got %d", engine.calls())
	}
	if len(sink.reports) != 1 {
		t.Fatalf("expected the degraded report in the sink, got %d reports", len(sink.reports))
	}
}

func TestSessionChecksCancellationBetweenTurns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	engine := &scriptedEngine{replies: []engineReply{
		{text: analysisReply},
		{text: questionsReply},
		{text: "Walk me through a Go service you built."},
	}}
	source := sourceFunc(func(context.Context) (string, error) {
		// Simulates an interrupt arriving while the candidate answers. The
		// answer still lands; the session must notice before the next turn.
		cancel()
		return "I built a payments API.", nil
	})

	session, _ := newTestSession(t, engine, source, Config{})
	report, err := session.Run(ctx)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected an aborted error, got %v", err)
	}

	conv := session.Conversation()
	if conv.Phase() != PhaseAborted {
		t.Fatalf("expected the aborted phase, got %s", conv.Phase())
	}
	if conv.Len() != 4 {
		t.Fatalf("expected the transcript to keep all 4 messages, got %d", conv.Len())
	}
	if report == nil || !report.Degraded || report.FailurePoint != "interview-loop" {
		t.Fatalf("expected a degraded report failed in the loop, got %+v", report)
	}
	if engine.calls() != 3 {
		t.Fatalf("expected 3 engine calls, got %d", engine.calls())
	}
}

func TestSessionAbortsWhenCandidateSourceFails(t *testing.T) {
	engine := &scriptedEngine{replies: []engineReply{
		{text: analysisReply},
		{text: questionsReply},
		{text: "Walk me through a Go service you built."},
	}}
	source := sourceFunc(func(context.Context) (string, error) {
		return "", errors.New("stdin closed")
	})

	session, _ := newTestSession(t, engine, source, Config{})
	report, err := session.Run(context.Background())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected an aborted error, got %v", err)
	}
	if !strings.Contains(err.Error(), "stdin closed") {
		t.Fatalf("expected the source failure to be preserved, got %v", err)
	}

	conv := session.Conversation()
	if conv.Phase() != PhaseAborted {
		t.Fatalf("expected the aborted phase, got %s", conv.Phase())
	}
	if conv.Len() != 3 {
		t.Fatalf("expected the transcript up to the failure, got %d messages", conv.Len())
	}
	if report == nil || !report.Degraded {
		t.Fatalf("expected a degraded report, got %+v", report)
	}
}

func TestSessionDegradesWhenEvaluatorFails(t *testing.T) {
	engine := &scriptedEngine{replies: []engineReply{
		{text: analysisReply},
		{text: questionsReply},
		{text: "Thank you, that is everything I need today. TERMINATE"},
		{err: fmt.Errorf("%w: backend down", ai.ErrUnavailable)},
	}}

	session, sink := newTestSession(t, engine, candidate.NewScript(nil), Config{EngineRetries: 1})
	report, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("expected a degraded completion without an error, got %v", err)
	}

	if report == nil || !report.Degraded {
		t.Fatalf("expected a degraded report, got %+v", report)
	}
	if report.FailurePoint != "evaluation" {
		t.Fatalf("expected the failure point to be evaluation, got %q", report.FailurePoint)
	}
	if !strings.Contains(report.Summary, "no full evaluation was produced") {
		t.Fatalf("expected the summary to explain the degradation, got %q", report.Summary)
	}
	if len(report.Dimensions) != 0 {
		t.Fatalf("expected no dimensions on a degraded report, got %+v", report.Dimensions)
	}
	if report.Candidate != "Jordan Lee" {
		t.Fatalf("expected the candidate name on the degraded report, got %q", report.Candidate)
	}

	if session.Conversation().Phase() != PhaseTerminal {
		t.Fatalf("expected the session to still finish, got %s", session.Conversation().Phase())
	}
	if engine.calls() != 4 {
		t.Fatalf("expected 4 engine calls, got %d", engine.calls())
	}
	if len(sink.reports) != 1 {
		t.Fatalf("expected one report in the sink, got %d", len(sink.reports))
	}
}

func TestSessionEvaluatesPartialTranscriptWhenInterviewerFails(t *testing.T) {
	engine := &scriptedEngine{replies: []engineReply{
		{text: analysisReply},
		{text: questionsReply},
		{text: "Walk me through a Go service you built."},
		{err: errors.New("engine exploded")},
		{text: reportReply},
	}}
	answers := candidate.NewScript([]string{"I built a payments API."})

	session, _ := newTestSession(t, engine, answers, Config{EngineRetries: 1})
	report, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("expected a degraded completion without an error, got %v", err)
	}

	if report == nil || !report.Degraded {
		t.Fatalf("expected the report to be marked degraded, got %+v", report)
	}
	if report.FailurePoint != "interview-loop" {
		t.Fatalf("expected the failure point to be the loop, got %q", report.FailurePoint)
	}
	// The evaluator still ran on the partial transcript.
	if report.Summary != "Strong Go fundamentals with a Kubernetes gap." {
		t.Fatalf("expected the evaluator summary, got %q", report.Summary)
	}

	conv := session.Conversation()
	if conv.Phase() != PhaseTerminal {
		t.Fatalf("expected a terminal session, got %s", conv.Phase())
	}
	if got := conv.Turns(SpeakerInterviewer); got != 1 {
		t.Fatalf("expected a single interviewer turn before the failure, got %d", got)
	}
	if engine.calls() != 5 {
		t.Fatalf("expected 5 engine calls, got %d", engine.calls())
	}
}

func TestSessionAsksForClarificationOnEmptyAnswer(t *testing.T) {
	engine := &scriptedEngine{replies: []engineReply{
		{text: analysisReply},
		{text: questionsReply},
		{text: "Walk me through a Go service you built."},
		{text: "I did not catch that. Could you repeat your answer?"},
		{text: "Thank you, that covers everything. TERMINATE"},
		{text: reportReply},
	}}
	answers := candidate.NewScript([]string{"   ", "I built a payments API."})

	session, sink := newTestSession(t, engine, answers, Config{})
	report, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Degraded {
		t.Fatalf("a clarification must not degrade the session")
	}

	conv := session.Conversation()
	if got := conv.Turns(SpeakerInterviewer); got != 3 {
		t.Fatalf("expected 3 interviewer turns including the clarification, got %d", got)
	}
	if got := conv.Turns(SpeakerCandidate); got != 1 {
		t.Fatalf("expected the empty answer to be dropped, got %d candidate turns", got)
	}

	if sink.messages[3].Speaker != SpeakerInterviewer {
		t.Fatalf("expected the clarification to come from the interviewer, got %q", sink.messages[3].Speaker)
	}

	clarifyPrompt := engine.request(t, 3).User
	if !strings.Contains(clarifyPrompt, "repeat or rephrase") {
		t.Fatalf("expected the clarification directive in the prompt, got %q", clarifyPrompt)
	}
}

func TestSessionAbortsWhenAnalyzerBreaksItsContract(t *testing.T) {
	engine := &scriptedEngine{replies: []engineReply{
		{text: "I would rather describe the resume in prose."},
		{text: "Again, no JSON from me."},
	}}

	session, sink := newTestSession(t, engine, candidate.NewScript(nil), Config{EngineRetries: 1})
	report, err := session.Run(context.Background())
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected a schema violation, got %v", err)
	}

	if engine.calls() != 2 {
		t.Fatalf("expected exactly 2 engine calls, got %d", engine.calls())
	}

	conv := session.Conversation()
	if conv.Phase() != PhaseAborted {
		t.Fatalf("expected the aborted phase, got %s", conv.Phase())
	}
	if conv.Len() != 0 {
		t.Fatalf("expected no transcript messages, got %d", conv.Len())
	}
	if report == nil || !report.Degraded || report.FailurePoint != "resume-analysis" {
		t.Fatalf("expected a degraded report failed at resume analysis, got %+v", report)
	}
	if len(sink.reports) != 1 {
		t.Fatalf("expected the degraded report in the sink, got %d reports", len(sink.reports))
	}
}
