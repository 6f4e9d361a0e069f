package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hireloop/interview-agent/internal/ai"
	"github.com/hireloop/interview-agent/internal/ai/gemini"
	"github.com/hireloop/interview-agent/internal/ai/openai"
	"github.com/hireloop/interview-agent/internal/candidate"
	"github.com/hireloop/interview-agent/internal/intake"
	"github.com/hireloop/interview-agent/internal/interview"
	"github.com/hireloop/interview-agent/internal/logger"
	"github.com/hireloop/interview-agent/internal/report"
	"github.com/hireloop/interview-agent/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var confirm = promptui.Select{
	Label: "Start the interview?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Conduct an interview session",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before starting the interview")
	runCmd.Flags().StringP("answers-file", "a", "", "file with scripted candidate answers, one per line")
	runCmd.Flags().StringP("report-file", "r", "", "write the evaluation report JSON to this file")
	runCmd.Flags().String("transcript-file", "", "write the transcript JSON to this file")

	viper.BindPFlag("answers-file", runCmd.Flags().Lookup("answers-file"))
	viper.BindPFlag("report.file", runCmd.Flags().Lookup("report-file"))
	viper.BindPFlag("report.transcript-file", runCmd.Flags().Lookup("transcript-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the interview-agent", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	resume, jd, err := loadIntake(config.Intake)
	if err != nil {
		logger.Fatal("loading intake documents",
			zap.Error(err),
			zap.String("hint", "set intake.resume-file and intake.jd-file in the configuration file"),
		)
	}

	engine, err := newEngine(ctx, config.Engine, logger)
	if err != nil {
		logger.Fatal("building the reasoning engine", zap.Error(err))
	}

	source, err := newCandidateSource(config)
	if err != nil {
		logger.Fatal("opening candidate input", zap.Error(err))
	}

	if cmd.Flag("auto-approve").Value.String() == "false" {
		_, action, err := confirm.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action == PromptNo {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	sessionIntake := interview.Intake{
		Resume:         resume,
		JobDescription: jd,
	}
	if config.Intake != nil {
		sessionIntake.Candidate = strings.TrimSpace(config.Intake.Candidate)
	}

	session := interview.NewSession(sessionIntake, engine, source, consoleSink{}, sessionConfig(config, logger), logger)

	result, runErr := session.Run(ctx)
	if runErr != nil {
		switch {
		case errors.Is(runErr, interview.ErrMissingInput), errors.Is(runErr, ai.ErrAuth):
			logger.Error("session failed on a configuration problem",
				zap.Error(runErr),
				zap.String("hint", "check the intake documents and the engine api key"),
			)
		case errors.Is(runErr, ai.ErrTimeout), errors.Is(runErr, ai.ErrRateLimit), errors.Is(runErr, ai.ErrUnavailable):
			logger.Error("session failed on a transient engine problem, try again later", zap.Error(runErr))
		default:
			logger.Error("session failed", zap.Error(runErr))
		}
	}

	if result != nil {
		fmt.Println()
		fmt.Println(report.Markdown(result))

		if path := viper.GetString("report.file"); path != "" {
			if err := report.WriteFile(result, path); err != nil {
				logger.Error("writing the report file", zap.Error(err))
			} else {
				logger.Info("report written", zap.String("filename", path))
			}
		}
	}

	if path := viper.GetString("report.transcript-file"); path != "" {
		if err := report.WriteTranscript(session.Conversation().History(0), path); err != nil {
			logger.Error("writing the transcript file", zap.Error(err))
		} else {
			logger.Info("transcript written", zap.String("filename", path))
		}
	}

	if runErr != nil {
		// Keep what the session produced before it failed.
		if history := session.Conversation().History(0); len(history) > 0 {
			if filename, err := report.TranscriptToTmpFile(history); err != nil {
				logger.Error("dumping the transcript", zap.Error(err))
			} else {
				logger.Info("partial transcript preserved", zap.String("filename", filename))
			}
		}
		if result != nil && viper.GetString("report.file") == "" {
			if filename, err := report.DumpToTmpFile(result); err != nil {
				logger.Error("dumping the report", zap.Error(err))
			} else {
				logger.Info("partial report preserved", zap.String("filename", filename))
			}
		}
		os.Exit(1)
	}
}

// consoleSink prints the interview dialogue for the person at the terminal.
// Backend role output stays in debug logs.
type consoleSink struct{}

func (consoleSink) OnMessage(msg interview.Message) {
	switch msg.Speaker {
	case interview.SpeakerInterviewer, interview.SpeakerCandidate:
		fmt.Printf("\n%s: %s\n", msg.Speaker, msg.Content)
	}
}

func (consoleSink) OnReport(*interview.EvaluationReport) {}

func loadIntake(cfg *IntakeConfig) (string, string, error) {
	if cfg == nil {
		return "", "", errors.New("intake configuration is required")
	}

	resume, err := intake.Load(intake.Document{
		Name:  "resume",
		Value: cfg.Resume,
		File:  cfg.ResumeFile,
	})
	if err != nil {
		return "", "", err
	}

	jd, err := intake.Load(intake.Document{
		Name:  "job description",
		Value: cfg.JD,
		File:  cfg.JDFile,
	})
	if err != nil {
		return "", "", err
	}

	return resume, jd, nil
}

func newEngine(ctx context.Context, cfg *EngineConfig, log *zap.Logger) (ai.Generator, error) {
	if cfg == nil {
		cfg = &EngineConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", "gemini":
		gcfg := cfg.Gemini
		if gcfg == nil {
			gcfg = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: gcfg.APIKey,
			File:  gcfg.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set engine.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		client, err := gemini.NewClient(ctx, apiKey, gcfg.Model)
		if err != nil {
			return nil, err
		}

		logger.WithCommonFields(log, "gemini", client.Model()).Info("reasoning engine ready")
		return client, nil

	case "openai":
		ocfg := cfg.OpenAI
		if ocfg == nil {
			ocfg = &OpenAIConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: ocfg.APIKey,
			File:  ocfg.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set engine.openai.api-key-file or OPENAI_API_KEY_FILE)", err)
		}

		client, err := openai.NewClient(apiKey, ocfg.Model)
		if err != nil {
			return nil, err
		}

		logger.WithCommonFields(log, "openai", client.Model()).Info("reasoning engine ready")
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported engine provider: %s", cfg.Provider)
	}
}

func newCandidateSource(config *Config) (candidate.Source, error) {
	answersFile := strings.TrimSpace(viper.GetString("answers-file"))
	if answersFile != "" {
		data, err := os.ReadFile(answersFile)
		if err != nil {
			return nil, fmt.Errorf("reading answers file: %w", err)
		}
		return candidate.NewReader(strings.NewReader(string(data))), nil
	}

	label := "Your answer"
	if config != nil && config.Intake != nil && strings.TrimSpace(config.Intake.Candidate) != "" {
		label = strings.TrimSpace(config.Intake.Candidate)
	}
	return candidate.NewPrompt(label), nil
}

func sessionConfig(config *Config, log *zap.Logger) interview.Config {
	cfg := interview.Config{}
	if config == nil {
		return cfg
	}

	if config.Interview != nil {
		cfg.MaxInterviewerTurns = config.Interview.MaxInterviewerTurns
		cfg.MaxTotalTurns = config.Interview.MaxTotalTurns
		cfg.ContextWindow = config.Interview.ContextWindow
		cfg.MaxTokens = config.Interview.MaxTokens
		cfg.Temperatures = roleTemperatures(config.Interview.Temperatures, log)
	}

	if config.Engine != nil {
		cfg.EngineRetries = config.Engine.Retries
		cfg.EngineTimeout = config.Engine.Timeout
		cfg.RetryBackoff = config.Engine.RetryBackoff
		if config.Engine.Gemini != nil {
			cfg.MaxLogLength = config.Engine.Gemini.MaxLogLength
		}
	}

	return cfg
}

func roleTemperatures(temperatures map[string]float32, log *zap.Logger) map[interview.RoleID]float32 {
	if len(temperatures) == 0 {
		return nil
	}

	byRole := make(map[interview.RoleID]float32, len(temperatures))
	for name, temperature := range temperatures {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "resume-analyzer":
			byRole[interview.RoleResumeAnalyzer] = temperature
		case "question-generator":
			byRole[interview.RoleQuestionGenerator] = temperature
		case "interviewer":
			byRole[interview.RoleInterviewer] = temperature
		case "evaluator":
			byRole[interview.RoleEvaluator] = temperature
		default:
			log.Warn("unknown role in interview.temperatures", zap.String("role", name))
		}
	}

	return byRole
}
