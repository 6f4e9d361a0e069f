package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hireloop/interview-agent/internal/ai"
	"github.com/hireloop/interview-agent/internal/logger"
)

// CandidateSource supplies the candidate's next utterance. Implementations
// own the input modality (typed, scripted, transcribed); the core only
// awaits text.
type CandidateSource interface {
	NextUtterance(ctx context.Context) (string, error)
}

// Sink receives incremental session output for display or export.
type Sink interface {
	OnMessage(Message)
	OnReport(*EvaluationReport)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) OnMessage(Message) {}

func (NopSink) OnReport(*EvaluationReport) {}

// Session drives the interview: selector decision, role invocation or
// candidate turn, state update, until a terminal phase. It is the only
// writer of the conversation; turns run strictly one at a time.
type Session struct {
	conv      *Conversation
	selector  *Selector
	invoker   *Invoker
	candidate CandidateSource
	sink      Sink
	cfg       Config
	logger    *zap.Logger

	// first per-turn fatality that degraded the session, if any
	failure      error
	failurePhase Phase
}

func NewSession(intake Intake, engine ai.Generator, candidate CandidateSource, sink Sink, cfg Config, log *zap.Logger) *Session {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	if sink == nil {
		sink = NopSink{}
	}

	return &Session{
		conv:      NewConversation(intake),
		selector:  &Selector{MaxInterviewerTurns: cfg.MaxInterviewerTurns},
		invoker:   NewInvoker(engine, cfg, log),
		candidate: candidate,
		sink:      sink,
		cfg:       cfg,
		logger:    log,
	}
}

// Conversation exposes the session state for rendering and export.
func (s *Session) Conversation() *Conversation { return s.conv }

// Run executes the session until a terminal phase and returns the evaluation
// report. Degraded completion returns a report and no error; aborts return
// both the partial report and the cause.
func (s *Session) Run(ctx context.Context) (*EvaluationReport, error) {
	for !s.conv.Phase().Done() {
		if err := ctx.Err(); err != nil {
			return s.abort(fmt.Errorf("%w: %v", ErrAborted, err))
		}

		if s.conv.Phase() == PhaseInterviewLoop && s.conv.Len() >= s.cfg.MaxTotalTurns {
			s.logger.Warn("global turn ceiling reached, forcing evaluation",
				zap.Int("turns", s.conv.Len()),
				zap.Int("ceiling", s.cfg.MaxTotalTurns),
			)
			if err := s.conv.SetPhase(PhaseEvaluation); err != nil {
				return nil, err
			}
			continue
		}

		turn, err := s.selector.Next(s.conv)
		if err != nil {
			// Missing input and selector bugs both mean the session cannot
			// proceed at all; nothing has been appended for this turn.
			return nil, err
		}

		if turn.Phase != s.conv.Phase() {
			if err := s.conv.SetPhase(turn.Phase); err != nil {
				return nil, err
			}
			s.logger.Info("phase entered", zap.String(logger.FieldPhase, turn.Phase.String()))
		}

		if turn.Kind == TurnFinished {
			continue
		}

		if err := s.executeTurn(ctx, turn); err != nil {
			report, resumed, ferr := s.recoverTurn(err)
			if !resumed {
				return report, ferr
			}
		}
	}

	return s.finalize(), nil
}

// executeTurn performs one selected turn.
func (s *Session) executeTurn(ctx context.Context, turn Turn) error {
	switch turn.Kind {
	case TurnRole:
		return s.roleTurn(ctx, turn.Role)
	case TurnCandidate:
		return s.candidateTurn(ctx)
	default:
		return fmt.Errorf("%w: unexpected turn kind %s", ErrInvalidTransition, turn.Kind)
	}
}

// recoverTurn applies the phase-based degrade policy after a turn failed for
// good. It reports whether the loop may continue.
func (s *Session) recoverTurn(cause error) (*EvaluationReport, bool, error) {
	phase := s.conv.Phase()
	s.logger.Error("turn failed",
		zap.String(logger.FieldPhase, phase.String()),
		zap.Error(cause),
	)

	if errors.Is(cause, ErrAborted) {
		report, err := s.abort(cause)
		return report, false, err
	}

	switch phase {
	case PhaseInterviewLoop:
		// Evaluate whatever transcript exists instead of losing the session.
		s.noteFailure(phase, cause)
		if err := s.conv.SetPhase(PhaseEvaluation); err != nil {
			report, aerr := s.abort(cause)
			return report, false, aerr
		}
		return nil, true, nil

	case PhaseEvaluation:
		// The evaluator itself failed: synthesize a degraded report and let
		// the selector walk the session to its normal terminal phase.
		s.noteFailure(phase, cause)
		report := s.degradedReport(cause)
		if err := s.conv.AttachReport(report); err != nil {
			report, aerr := s.abort(cause)
			return report, false, aerr
		}
		return nil, true, nil

	default:
		report, err := s.abort(cause)
		return report, false, err
	}
}

// roleTurn invokes a role, appends its message and attaches its artifact.
func (s *Session) roleTurn(ctx context.Context, id RoleID) error {
	outcome, err := s.invoker.Invoke(ctx, id, s.conv)
	if err != nil {
		return err
	}

	s.emit(s.conv.Append(id.Speaker(), outcome.Content))

	switch {
	case outcome.Analysis != nil:
		return s.conv.AttachAnalysis(outcome.Analysis)
	case outcome.Questions != nil:
		return s.conv.AttachQuestions(outcome.Questions)
	case outcome.Report != nil:
		report := outcome.Report
		report.Candidate = s.conv.Intake().Candidate
		return s.conv.AttachReport(report)
	default:
		return nil
	}
}

// candidateTurn awaits the candidate. Empty input recovers through an
// interviewer clarification; a failed source aborts the session.
func (s *Session) candidateTurn(ctx context.Context) error {
	utterance, err := s.candidate.NextUtterance(ctx)
	if err != nil {
		return fmt.Errorf("%w: candidate input: %v", ErrAborted, err)
	}

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		s.logger.Info("candidate reply was empty, asking for clarification")
		outcome, err := s.invoker.Clarify(ctx, s.conv)
		if err != nil {
			return err
		}
		s.emit(s.conv.Append(SpeakerInterviewer, outcome.Content))
		return nil
	}

	s.emit(s.conv.Append(SpeakerCandidate, utterance))
	return nil
}

func (s *Session) emit(msg Message) {
	s.logger.Debug("message appended",
		zap.Int("seq", msg.Seq),
		zap.String("speaker", string(msg.Speaker)),
		zap.String(logger.FieldPhase, msg.Phase.String()),
	)
	s.sink.OnMessage(msg)
}

func (s *Session) noteFailure(phase Phase, err error) {
	if s.failure == nil {
		s.failure = err
		s.failurePhase = phase
	}
}

// abort marks the session aborted, attaches a partial degraded report and
// returns the cause to the caller.
func (s *Session) abort(cause error) (*EvaluationReport, error) {
	s.noteFailure(s.conv.Phase(), cause)

	if err := s.conv.SetPhase(PhaseAborted); err != nil {
		s.logger.Error("could not mark the session aborted", zap.Error(err))
	}

	report := s.conv.Report()
	if report == nil {
		report = s.degradedReport(cause)
		if err := s.conv.AttachReport(report); err != nil {
			s.logger.Error("could not attach the degraded report", zap.Error(err))
		}
	}

	s.sink.OnReport(report)
	s.logger.Error("session aborted",
		zap.String(logger.FieldPhase, s.failurePhase.String()),
		zap.Error(cause),
	)

	return report, cause
}

// finalize runs once the loop reaches a terminal phase normally.
func (s *Session) finalize() *EvaluationReport {
	report := s.conv.Report()
	if report == nil {
		report = s.degradedReport(errors.New("session ended without an evaluation"))
	} else if s.failure != nil && !report.Degraded {
		report.Degraded = true
		report.FailurePoint = s.failurePhase.String()
	}

	s.sink.OnReport(report)
	s.logger.Info("session finished",
		zap.String(logger.FieldPhase, s.conv.Phase().String()),
		zap.Int("messages", s.conv.Len()),
		zap.Bool("degraded", report.Degraded),
	)

	return report
}

// degradedReport synthesizes the partial report recorded when a session
// cannot produce a full evaluation.
func (s *Session) degradedReport(cause error) *EvaluationReport {
	failurePoint := s.conv.Phase().String()
	if s.failure != nil {
		failurePoint = s.failurePhase.String()
	}

	return &EvaluationReport{
		Candidate:    s.conv.Intake().Candidate,
		Summary:      fmt.Sprintf("The interview ended early and no full evaluation was produced: %v.", cause),
		Dimensions:   map[string]DimensionScore{},
		Degraded:     true,
		FailurePoint: failurePoint,
	}
}
