package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "interview-agent"
)

type Config struct {
	Intake      *IntakeConfig    `mapstructure:"intake"`
	Interview   *InterviewConfig `mapstructure:"interview"`
	Engine      *EngineConfig    `mapstructure:"engine"`
	Report      *ReportConfig    `mapstructure:"report"`
	AnswersFile string           `mapstructure:"answers-file"`
}

type IntakeConfig struct {
	// Resume and JD accept inline text; the file variants win when set.
	Resume     string `mapstructure:"resume"`
	ResumeFile string `mapstructure:"resume-file"`
	JD         string `mapstructure:"jd"`
	JDFile     string `mapstructure:"jd-file"`
	// Candidate is an optional display name for logs and the report.
	Candidate string `mapstructure:"candidate"`
}

type InterviewConfig struct {
	MaxInterviewerTurns int                `mapstructure:"max-interviewer-turns"`
	MaxTotalTurns       int                `mapstructure:"max-total-turns"`
	ContextWindow       int                `mapstructure:"context-window"`
	Temperatures        map[string]float32 `mapstructure:"temperatures"`
	MaxTokens           int32              `mapstructure:"max-tokens"`
}

type EngineConfig struct {
	Provider     string        `mapstructure:"provider"`
	Retries      int           `mapstructure:"retries"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryBackoff time.Duration `mapstructure:"retry-backoff"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	OpenAI       *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type ReportConfig struct {
	File           string `mapstructure:"file"`
	TranscriptFile string `mapstructure:"transcript-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-agent conducts automated technical screening interviews",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("engine.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("engine.openai.api-key-file", "OPENAI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding OPENAI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-agent.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
