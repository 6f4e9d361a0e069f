package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hireloop/interview-agent/internal/ai"
	"github.com/hireloop/interview-agent/internal/logger"
	"github.com/hireloop/interview-agent/internal/utils"
)

// waitFor is swapped in tests to observe backoff without sleeping.
var waitFor = utils.WaitFor

// Outcome is what a role turn produced: the raw message content plus the
// parsed artifact for structured contracts.
type Outcome struct {
	Content   string
	Analysis  *ResumeAnalysis
	Questions []string
	Report    *EvaluationReport
}

// Invoker executes role turns: it builds the bounded context window for the
// role, calls the reasoning engine with retries, and parses structured output
// per the role's contract.
type Invoker struct {
	engine ai.Generator
	roles  map[RoleID]Role
	cfg    Config
	logger *zap.Logger
}

func NewInvoker(engine ai.Generator, cfg Config, log *zap.Logger) *Invoker {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	return &Invoker{
		engine: engine,
		roles:  Definitions(cfg.Temperatures, cfg.MaxTokens),
		cfg:    cfg,
		logger: log,
	}
}

// Invoke runs one turn of the given role against the conversation.
func (inv *Invoker) Invoke(ctx context.Context, id RoleID, conv *Conversation) (*Outcome, error) {
	role, ok := inv.roles[id]
	if !ok {
		return nil, fmt.Errorf("%w: no definition for role %s", ErrInvalidTransition, id)
	}

	prompt, err := inv.contextWindow(role, conv)
	if err != nil {
		return nil, err
	}

	return inv.complete(ctx, role, prompt)
}

// Clarify runs an extra interviewer turn asking the candidate to repeat or
// rephrase. It is the recovery path for empty candidate input.
func (inv *Invoker) Clarify(ctx context.Context, conv *Conversation) (*Outcome, error) {
	role := inv.roles[RoleInterviewer]

	prompt, err := inv.contextWindow(role, conv)
	if err != nil {
		return nil, err
	}
	prompt += "\n\nThe candidate's last reply arrived empty or unintelligible. Politely ask them to repeat or rephrase their answer."

	return inv.complete(ctx, role, prompt)
}

// complete generates the role's output and parses it. A parse failure earns
// exactly one more attempt with a stricter prompt before it surfaces as a
// schema violation.
func (inv *Invoker) complete(ctx context.Context, role Role, prompt string) (*Outcome, error) {
	raw, err := inv.generate(ctx, role, prompt)
	if err != nil {
		return nil, err
	}

	outcome, parseErr := parseOutcome(role.Contract, raw)
	if parseErr == nil {
		return outcome, nil
	}

	inv.logger.Warn("role output failed its contract, retrying with a stricter prompt",
		zap.String(logger.FieldRole, role.ID.String()),
		zap.Error(parseErr),
	)

	raw, err = inv.generate(ctx, role, prompt+stricterSuffix(role.Contract))
	if err != nil {
		return nil, err
	}

	outcome, parseErr = parseOutcome(role.Contract, raw)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %s output unparseable after retry: %v", ErrSchemaViolation, role.ID, parseErr)
	}

	return outcome, nil
}

// generate calls the reasoning engine, retrying retryable failures with
// exponential backoff. Authentication errors surface immediately.
func (inv *Invoker) generate(ctx context.Context, role Role, prompt string) (string, error) {
	req := ai.Request{
		System: role.System,
		User:   prompt,
		Sampling: ai.SamplingConfig{
			Temperature: role.Temperature,
			MaxTokens:   role.MaxTokens,
		},
	}

	log := inv.logger.With(
		zap.String(logger.FieldRole, role.ID.String()),
		zap.String(logger.FieldModel, inv.engine.Model()),
	)

	var lastErr error
	for attempt := 1; attempt <= inv.cfg.EngineRetries; attempt++ {
		if attempt > 1 {
			backoff := inv.cfg.RetryBackoff << (attempt - 2)
			log.Debug("waiting before engine retry",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			if err := waitFor(ctx, backoff); err != nil {
				return "", err
			}
		}

		log.Debug("engine request",
			zap.Int("attempt", attempt),
			zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
			zap.String("prompt_preview", logger.TruncateForLog(prompt, inv.cfg.MaxLogLength)),
		)

		callCtx, cancel := context.WithTimeout(ctx, inv.cfg.EngineTimeout)
		raw, err := inv.engine.Generate(callCtx, req)
		cancel()
		if err == nil {
			log.Debug("engine response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(raw)),
				zap.String("response_preview", logger.TruncateForLog(raw, inv.cfg.MaxLogLength)),
			)
			return raw, nil
		}

		if errors.Is(err, ai.ErrAuth) || ctx.Err() != nil || !ai.Retryable(err) {
			return "", err
		}

		lastErr = err
		log.Warn("engine call failed", zap.Int("attempt", attempt), zap.Error(err))
	}

	return "", fmt.Errorf("engine retries exhausted after %d attempts: %w", inv.cfg.EngineRetries, lastErr)
}

// contextWindow builds the bounded prompt a role sees: artifacts it needs
// plus, for conversational roles, the trailing slice of the transcript.
func (inv *Invoker) contextWindow(role Role, conv *Conversation) (string, error) {
	intake := conv.Intake()

	switch role.ID {
	case RoleResumeAnalyzer:
		if strings.TrimSpace(intake.Resume) == "" || strings.TrimSpace(intake.JobDescription) == "" {
			return "", fmt.Errorf("%w: resume and job description are required", ErrMissingInput)
		}
		return fmt.Sprintf("Job Description:\n%s\n\nResume:\n%s", intake.JobDescription, intake.Resume), nil

	case RoleQuestionGenerator:
		analysis := conv.Analysis()
		if analysis == nil {
			return "", fmt.Errorf("%w: resume analysis artifact is required", ErrMissingInput)
		}
		analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal analysis artifact: %w", err)
		}
		return fmt.Sprintf("Job Description:\n%s\n\nResume Analysis:\n%s", intake.JobDescription, analysisJSON), nil

	case RoleInterviewer:
		var b strings.Builder
		b.WriteString("Questions to cover:\n")
		for i, question := range conv.Questions() {
			fmt.Fprintf(&b, "%d. %s\n", i+1, question)
		}
		b.WriteString("\nConversation so far:\n")
		b.WriteString(flattenTranscript(inv.interviewWindow(conv), false))
		b.WriteString("\nInterviewer:")
		return b.String(), nil

	case RoleEvaluator:
		var b strings.Builder
		if analysis := conv.Analysis(); analysis != nil {
			if analysisJSON, err := json.MarshalIndent(analysis, "", "  "); err == nil {
				b.WriteString("Resume Analysis:\n")
				b.Write(analysisJSON)
				b.WriteString("\n\n")
			}
		}
		if questions := conv.Questions(); len(questions) > 0 {
			b.WriteString("Planned Questions:\n")
			for i, question := range questions {
				fmt.Fprintf(&b, "%d. %s\n", i+1, question)
			}
			b.WriteString("\n")
		}
		b.WriteString("Interview Transcript:\n")
		b.WriteString(flattenTranscript(inv.interviewWindow(conv), true))
		return b.String(), nil

	default:
		return "", fmt.Errorf("%w: no context window for role %s", ErrInvalidTransition, role.ID)
	}
}

// interviewWindow returns the trailing interview-loop messages, bounded to
// the configured context window. Earlier phases pass their artifacts
// explicitly, so their raw messages stay out of conversational prompts.
func (inv *Invoker) interviewWindow(conv *Conversation) []Message {
	all := conv.History(0)
	msgs := make([]Message, 0, len(all))
	for _, msg := range all {
		if msg.Phase == PhaseInterviewLoop {
			msgs = append(msgs, msg)
		}
	}

	if n := inv.cfg.ContextWindow; n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs
}

// flattenTranscript renders messages as "Speaker: content" lines, optionally
// prefixed with the sequence number so rationales can cite them.
func flattenTranscript(msgs []Message, withSeq bool) string {
	var b strings.Builder
	for _, msg := range msgs {
		if withSeq {
			fmt.Fprintf(&b, "[%d] %s: %s\n", msg.Seq, msg.Speaker, msg.Content)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", msg.Speaker, msg.Content)
		}
	}
	return b.String()
}

// parseOutcome validates role output against its contract.
func parseOutcome(contract Contract, raw string) (*Outcome, error) {
	switch contract {
	case ContractAnalysis:
		analysis, err := ParseResumeAnalysis(raw)
		if err != nil {
			return nil, err
		}
		return &Outcome{Content: raw, Analysis: analysis}, nil

	case ContractQuestions:
		questions, err := ParseQuestions(raw)
		if err != nil {
			return nil, err
		}
		return &Outcome{Content: raw, Questions: questions}, nil

	case ContractReport:
		report, err := ParseEvaluationReport(raw)
		if err != nil {
			return nil, err
		}
		return &Outcome{Content: raw, Report: report}, nil

	default:
		content := strings.TrimSpace(raw)
		if content == "" {
			return nil, errors.New("empty message")
		}
		return &Outcome{Content: content}, nil
	}
}

// stricterSuffix reminds the role of its contract on the retry attempt.
func stricterSuffix(contract Contract) string {
	switch contract {
	case ContractAnalysis:
		return "\n\nYour previous reply was not valid. Respond with ONLY the analysis JSON object described in your instructions. No prose, no code fences."
	case ContractQuestions:
		return "\n\nYour previous reply was not valid. Respond with ONLY a JSON array of question strings. No prose, no code fences."
	case ContractReport:
		return "\n\nYour previous reply was not valid. Respond with ONLY the report JSON object described in your instructions. No prose, no code fences."
	default:
		return "\n\nYour previous reply arrived empty. Respond with the next interviewer message as plain text."
	}
}
