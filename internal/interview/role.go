package interview

import (
	_ "embed"
	"fmt"
)

// RoleID enumerates the AI participants. The set is closed and dispatch
// happens by switch, never by matching names at runtime.
type RoleID int

const (
	RoleResumeAnalyzer RoleID = iota
	RoleQuestionGenerator
	RoleInterviewer
	RoleEvaluator
)

func (id RoleID) String() string {
	switch id {
	case RoleResumeAnalyzer:
		return "resume-analyzer"
	case RoleQuestionGenerator:
		return "question-generator"
	case RoleInterviewer:
		return "interviewer"
	case RoleEvaluator:
		return "evaluator"
	default:
		return fmt.Sprintf("role(%d)", int(id))
	}
}

// Speaker returns the transcript speaker identity for the role.
func (id RoleID) Speaker() Speaker {
	switch id {
	case RoleResumeAnalyzer:
		return SpeakerResumeAnalyzer
	case RoleQuestionGenerator:
		return SpeakerQuestionGenerator
	case RoleInterviewer:
		return SpeakerInterviewer
	case RoleEvaluator:
		return SpeakerEvaluator
	default:
		return Speaker(id.String())
	}
}

// Contract describes the output shape a role must produce.
type Contract int

const (
	// ContractAnalysis expects the resume analysis JSON object.
	ContractAnalysis Contract = iota
	// ContractQuestions expects a JSON array of question strings.
	ContractQuestions
	// ContractFreeText expects a plain conversational message.
	ContractFreeText
	// ContractReport expects the evaluation report JSON object.
	ContractReport
)

//go:embed prompts/resume_analyzer.md
var resumeAnalyzerPrompt string

//go:embed prompts/question_generator.md
var questionGeneratorPrompt string

//go:embed prompts/interviewer.md
var interviewerPrompt string

//go:embed prompts/evaluator.md
var evaluatorPrompt string

// Role is the immutable behavioral descriptor of one AI participant: its
// system prompt, sampling settings and output contract.
type Role struct {
	ID          RoleID
	Name        string
	Phase       Phase
	System      string
	Temperature float32
	MaxTokens   int32
	Contract    Contract
}

// Sampling temperatures tuned per role: analytical roles run cold, the
// conversational interviewer warmer.
const (
	defaultAnalyzerTemperature    float32 = 0.2
	defaultGeneratorTemperature   float32 = 0.7
	defaultInterviewerTemperature float32 = 0.5
	defaultEvaluatorTemperature   float32 = 0.4
)

const defaultMaxTokens int32 = 8192

// Definitions builds the role table. Temperatures may be overridden per role
// through configuration; zero or negative overrides keep the defaults.
func Definitions(temperatures map[RoleID]float32, maxTokens int32) map[RoleID]Role {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	roles := map[RoleID]Role{
		RoleResumeAnalyzer: {
			ID:          RoleResumeAnalyzer,
			Name:        string(SpeakerResumeAnalyzer),
			Phase:       PhaseResumeAnalysis,
			System:      resumeAnalyzerPrompt,
			Temperature: defaultAnalyzerTemperature,
			MaxTokens:   maxTokens,
			Contract:    ContractAnalysis,
		},
		RoleQuestionGenerator: {
			ID:          RoleQuestionGenerator,
			Name:        string(SpeakerQuestionGenerator),
			Phase:       PhaseQuestionGeneration,
			System:      questionGeneratorPrompt,
			Temperature: defaultGeneratorTemperature,
			MaxTokens:   maxTokens,
			Contract:    ContractQuestions,
		},
		RoleInterviewer: {
			ID:          RoleInterviewer,
			Name:        string(SpeakerInterviewer),
			Phase:       PhaseInterviewLoop,
			System:      interviewerPrompt,
			Temperature: defaultInterviewerTemperature,
			MaxTokens:   maxTokens,
			Contract:    ContractFreeText,
		},
		RoleEvaluator: {
			ID:          RoleEvaluator,
			Name:        string(SpeakerEvaluator),
			Phase:       PhaseEvaluation,
			System:      evaluatorPrompt,
			Temperature: defaultEvaluatorTemperature,
			MaxTokens:   maxTokens,
			Contract:    ContractReport,
		},
	}

	for id, temperature := range temperatures {
		role, ok := roles[id]
		if !ok || temperature <= 0 {
			continue
		}
		role.Temperature = temperature
		roles[id] = role
	}

	return roles
}
