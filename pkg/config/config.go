// Package config loads the service configuration from defaults, an optional
// TOML file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/papercomputeco/hybridchat/pkg/completion"
	"github.com/papercomputeco/hybridchat/pkg/search"
)

// Environment variable names.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvOpenAIBaseURL   = "OPENAI_BASE_URL"
	EnvOpenAIModel     = "OPENAI_MODEL"
	EnvGoogleAPIKey    = "GOOGLE_API_KEY"
	EnvGoogleCSEID     = "GOOGLE_CSE_ID"
	EnvGoogleSearchURL = "GOOGLE_SEARCH_URL"
	EnvPort            = "PORT"
	EnvHistoryWindow   = "HISTORY_WINDOW"
	EnvProviderTimeout = "PROVIDER_TIMEOUT"
	EnvLogFile         = "LOG_FILE"
	EnvDebug           = "DEBUG"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	OpenAI OpenAIConfig `toml:"openai"`
	Google GoogleConfig `toml:"google"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Port to listen on
	Port string `toml:"port"`

	// HistoryWindow caps how many prior turns are put in each prompt (0 = all)
	HistoryWindow int `toml:"history_window"`

	// ProviderTimeout bounds each outbound provider call
	ProviderTimeout Duration `toml:"provider_timeout"`
}

// OpenAIConfig configures the completion provider.
type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// GoogleConfig configures the search provider.
type GoogleConfig struct {
	APIKey  string `toml:"api_key"`
	CSEID   string `toml:"cse_id"`
	BaseURL string `toml:"base_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"`
}

// Duration is a time.Duration that decodes from TOML strings like "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8000",
			ProviderTimeout: Duration{2 * time.Minute},
		},
		OpenAI: OpenAIConfig{
			BaseURL: completion.DefaultBaseURL,
			Model:   completion.DefaultModel,
		},
		Google: GoogleConfig{
			BaseURL: search.DefaultBaseURL,
		},
	}
}

// Load builds a Config. path names an optional TOML file; envFile names an
// optional dotenv file whose values never override the real environment.
// Neither file is required to exist when its default location is used.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.OpenAI.APIKey, EnvOpenAIAPIKey)
	setString(&c.OpenAI.BaseURL, EnvOpenAIBaseURL)
	setString(&c.OpenAI.Model, EnvOpenAIModel)
	setString(&c.Google.APIKey, EnvGoogleAPIKey)
	setString(&c.Google.CSEID, EnvGoogleCSEID)
	setString(&c.Google.BaseURL, EnvGoogleSearchURL)
	setString(&c.Server.Port, EnvPort)
	setString(&c.Log.File, EnvLogFile)

	if v := os.Getenv(EnvHistoryWindow); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", EnvHistoryWindow, err)
		}
		c.Server.HistoryWindow = n
	}

	if v := os.Getenv(EnvProviderTimeout); v != "" {
		if err := c.Server.ProviderTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s must be a duration: %w", EnvProviderTimeout, err)
		}
	}

	if v := os.Getenv(EnvDebug); v != "" {
		c.Log.Debug = v == "1" || strings.EqualFold(v, "true")
	}

	return nil
}

// Validate reports every missing mandatory setting in a single error.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		missing = append(missing, EnvOpenAIAPIKey)
	}
	if strings.TrimSpace(c.Google.APIKey) == "" {
		missing = append(missing, EnvGoogleAPIKey)
	}
	if strings.TrimSpace(c.Google.CSEID) == "" {
		missing = append(missing, EnvGoogleCSEID)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ListenAddr returns the address the HTTP server binds to.
func (c Config) ListenAddr() string {
	return ":" + c.Server.Port
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
