// Package config loads process configuration from .env files, an optional
// YAML file and the environment, in increasing order of precedence.
//
// Credentials are checked up front by the Require methods so a missing key
// fails with an actionable *core.ConfigurationError before any request.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/logging"
)

// Model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Search backends.
const (
	SearchTavily = "tavily"
	SearchBrave  = "brave"
)

// Config is the process configuration.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`

	AnthropicAPIKey string `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key" mapstructure:"openai_api_key"`
	TavilyAPIKey    string `yaml:"tavily_api_key" mapstructure:"tavily_api_key"`
	BraveAPIKey     string `yaml:"brave_api_key" mapstructure:"brave_api_key"`
	SearchBackend   string `yaml:"search_backend" mapstructure:"search_backend"`

	LogLevel  string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`

	MaxConcurrency int           `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	AgentTimeout   time.Duration `yaml:"agent_timeout" mapstructure:"agent_timeout"`
	ToolTimeout    time.Duration `yaml:"tool_timeout" mapstructure:"tool_timeout"`
	StepTimeout    time.Duration `yaml:"step_timeout" mapstructure:"step_timeout"`

	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr"`
}

// envVars maps config keys to the environment variables overriding them.
var envVars = map[string]string{
	"provider":          "AGENTNET_PROVIDER",
	"model":             "AGENTNET_MODEL",
	"anthropic_api_key": "ANTHROPIC_API_KEY",
	"openai_api_key":    "OPENAI_API_KEY",
	"tavily_api_key":    "TAVILY_API_KEY",
	"brave_api_key":     "BRAVE_API_KEY",
	"search_backend":    "AGENTNET_SEARCH_BACKEND",
	"log_level":         "AGENTNET_LOG_LEVEL",
	"log_format":        "AGENTNET_LOG_FORMAT",
	"max_concurrency":   "AGENTNET_MAX_CONCURRENCY",
	"agent_timeout":     "AGENTNET_AGENT_TIMEOUT",
	"tool_timeout":      "AGENTNET_TOOL_TIMEOUT",
	"step_timeout":      "AGENTNET_STEP_TIMEOUT",
	"metrics_addr":      "AGENTNET_METRICS_ADDR",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:       ProviderAnthropic,
		SearchBackend:  SearchTavily,
		LogLevel:       "info",
		LogFormat:      "text",
		MaxConcurrency: 4,
		AgentTimeout:   2 * time.Minute,
		ToolTimeout:    30 * time.Second,
		StepTimeout:    3 * time.Minute,
	}
}

// Options controls where Load looks.
type Options struct {
	// EnvFiles are read in order; missing files are skipped. Earlier files
	// win, and the process environment wins over all of them.
	EnvFiles []string
	// File is an optional YAML file. It must exist when set.
	File string
	// LookupEnv reads the process environment.
	LookupEnv func(key string) (string, bool)
}

// Load builds the configuration.
func Load(optFns ...func(o *Options)) (*Config, error) {
	opts := Options{
		EnvFiles:  []string{".env.development", ".env"},
		LookupEnv: os.LookupEnv,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, &core.ConfigurationError{Component: "config", Message: "read " + opts.File, Cause: err}
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, &core.ConfigurationError{Component: "config", Message: "parse " + opts.File, Cause: err}
		}
	}

	dotenv := map[string]string{}
	for _, f := range opts.EnvFiles {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &core.ConfigurationError{Component: "config", Message: "read " + f, Cause: err}
		}
		for k, v := range vals {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	overrides := map[string]any{}
	for key, name := range envVars {
		if v, ok := opts.LookupEnv(name); ok {
			overrides[key] = v
		} else if v, ok := dotenv[name]; ok {
			overrides[key] = v
		}
	}

	if err := decode(overrides, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func decode(overrides map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(overrides); err != nil {
		return &core.ConfigurationError{Component: "config", Message: "environment override", Cause: err}
	}
	return nil
}

// Validate checks values that do not depend on which command runs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return core.NewConfigurationError("config", "unknown provider %q; use %s or %s", c.Provider, ProviderAnthropic, ProviderOpenAI)
	}

	switch c.SearchBackend {
	case SearchTavily, SearchBrave:
	default:
		return core.NewConfigurationError("config", "unknown search backend %q; use %s or %s", c.SearchBackend, SearchTavily, SearchBrave)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &core.ConfigurationError{Component: "config", Message: "log_level", Cause: err}
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return core.NewConfigurationError("config", "log_format must be json or text, got %q", c.LogFormat)
	}

	if c.MaxConcurrency < 0 {
		return core.NewConfigurationError("config", "max_concurrency must not be negative")
	}

	return nil
}

// RequireModel checks the credential of the selected provider.
func (c *Config) RequireModel() error {
	switch c.Provider {
	case ProviderOpenAI:
		return requireCredential("OPENAI_API_KEY", c.OpenAIAPIKey, "the OpenAI provider")
	default:
		return requireCredential("ANTHROPIC_API_KEY", c.AnthropicAPIKey, "the Anthropic provider")
	}
}

// RequireSearch checks the credential of the selected search backend.
func (c *Config) RequireSearch() error {
	switch c.SearchBackend {
	case SearchBrave:
		return requireCredential("BRAVE_API_KEY", c.BraveAPIKey, "brave-search")
	default:
		return requireCredential("TAVILY_API_KEY", c.TavilyAPIKey, "tavily-search")
	}
}

func requireCredential(env, value, user string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return core.NewConfigurationError("config",
		"%s is not set; %s needs it. Export it or add it to .env.development", env, user)
}

// Logger builds the process logger writing to w.
func (c *Config) Logger(w io.Writer) logging.Logger {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = logging.LogLevelInfo
	}
	return logging.New(logging.Config{Level: level, Format: c.LogFormat, Output: w})
}

// String renders the configuration with credentials masked.
func (c Config) String() string {
	return fmt.Sprintf("provider=%s model=%s search=%s anthropic_key=%s openai_key=%s tavily_key=%s brave_key=%s",
		c.Provider, c.Model, c.SearchBackend,
		mask(c.AnthropicAPIKey), mask(c.OpenAIAPIKey), mask(c.TavilyAPIKey), mask(c.BraveAPIKey))
}

func mask(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "****"
}
