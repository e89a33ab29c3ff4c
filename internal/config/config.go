// Package config reads run settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"agentescape/internal/llm"
)

var ErrMissingCredentials = errors.New("missing model credentials")

const (
	DefaultAzureAPIVersion = "2024-08-01-preview"
	DefaultOpenAIModel     = "gpt-4o"
	DefaultAnthropicModel  = "claude-sonnet-4-20250514"
	DefaultMaxNudges       = 3
	DefaultMaxTurns        = 100
	DefaultTurnTimeout     = 90 * time.Second
	DefaultMaxTokens       = 1024
	DefaultRunLog          = "./runs.db"
)

type Config struct {
	Model llm.Options

	MaxNudges   int
	MaxTurns    int
	TurnTimeout time.Duration

	// RunLogPath is the SQLite file turns are recorded in; empty disables it.
	RunLogPath string
	Debug      bool
	TUI        bool
}

// Load reads the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads settings through getenv. Missing credentials for the
// selected provider are reported as ErrMissingCredentials.
func LoadFrom(getenv func(string) string) (*Config, error) {
	provider := strings.ToLower(strings.TrimSpace(getenv("LLM_PROVIDER")))
	if provider == "" {
		provider = llm.ProviderOpenAI
		if getenv("AZURE_OPENAI_ENDPOINT") != "" {
			provider = llm.ProviderAzure
		}
	}

	opts := llm.Options{Provider: provider, MaxTokens: DefaultMaxTokens}
	switch provider {
	case llm.ProviderAzure:
		opts.Endpoint = getenv("AZURE_OPENAI_ENDPOINT")
		opts.APIKey = getenv("AZURE_OPENAI_API_KEY")
		opts.APIVersion = orDefault(getenv("AZURE_OPENAI_API_VERSION"), DefaultAzureAPIVersion)
		opts.Model = orDefault(getenv("MODEL"), DefaultOpenAIModel)
		if opts.Endpoint == "" || opts.APIKey == "" {
			return nil, fmt.Errorf("%w: please set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY", ErrMissingCredentials)
		}
	case llm.ProviderOpenAI:
		opts.APIKey = getenv("OPENAI_API_KEY")
		opts.Endpoint = getenv("OPENAI_BASE_URL")
		opts.Model = orDefault(getenv("MODEL"), DefaultOpenAIModel)
		if opts.APIKey == "" {
			return nil, fmt.Errorf("%w: please set OPENAI_API_KEY", ErrMissingCredentials)
		}
	case llm.ProviderAnthropic:
		opts.APIKey = getenv("ANTHROPIC_API_KEY")
		opts.Model = orDefault(getenv("MODEL"), DefaultAnthropicModel)
		if opts.APIKey == "" {
			return nil, fmt.Errorf("%w: please set ANTHROPIC_API_KEY", ErrMissingCredentials)
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (want openai, azure or anthropic)", provider)
	}

	cfg := &Config{
		Model:       opts,
		MaxNudges:   DefaultMaxNudges,
		MaxTurns:    DefaultMaxTurns,
		TurnTimeout: DefaultTurnTimeout,
		RunLogPath:  orDefault(getenv("RUN_LOG_DB"), DefaultRunLog),
		Debug:       flag(getenv("DEBUG")),
		TUI:         flag(getenv("TUI")),
	}
	if strings.EqualFold(cfg.RunLogPath, "off") {
		cfg.RunLogPath = ""
	}

	var err error
	if cfg.MaxNudges, err = positiveInt(getenv, "MAX_NUDGES", DefaultMaxNudges); err != nil {
		return nil, err
	}
	if cfg.MaxTurns, err = positiveInt(getenv, "MAX_TURNS", DefaultMaxTurns); err != nil {
		return nil, err
	}
	if cfg.Model.MaxTokens, err = positiveInt(getenv, "MAX_TOKENS", DefaultMaxTokens); err != nil {
		return nil, err
	}
	if v := getenv("TURN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid TURN_TIMEOUT %q: want a positive duration such as 90s", v)
		}
		cfg.TurnTimeout = d
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func flag(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func positiveInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive integer", key, v)
	}
	return n, nil
}
