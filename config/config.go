package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gazetteer  GazetteerConfig  `yaml:"gazetteer"`
	Audio      AudioConfig      `yaml:"audio"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" validate:"required"`
	RateLimit int    `yaml:"rate_limit" validate:"gt=0"`
}

type ClassifierConfig struct {
	Provider string        `yaml:"provider" validate:"oneof=anthropic gemini none"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type GazetteerConfig struct {
	CountriesFile string `yaml:"countries_file"`
	StatesFile    string `yaml:"states_file"`
	PostgresDSN   string `yaml:"postgres_dsn"`
}

type AudioConfig struct {
	Source           string `yaml:"source" validate:"oneof=http file microphone none"`
	HTTPAddr         string `yaml:"http_addr" validate:"required_if=Source http"`
	FileDir          string `yaml:"file_dir" validate:"required_if=Source file"`
	SampleRate       int    `yaml:"sample_rate" validate:"gt=0"`
	SilenceThreshold int16  `yaml:"silence_threshold" validate:"gte=0"`
	MaxSeconds       int    `yaml:"max_seconds" validate:"gt=0"`
	AuthToken        string `yaml:"auth_token"`
	RateLimit        int    `yaml:"rate_limit" validate:"gt=0"`
}

type PushoverConfig struct {
	Token   string `yaml:"token" validate:"required_if=Enabled true"`
	UserKey string `yaml:"user_key" validate:"required_if=Enabled true"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Load reads the YAML file at path. Variables from a .env file in the
// working directory are exported first so ${VAR} references resolve.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment references in data, then decodes, defaults
// and validates it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Classifier.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return errors.New("invalid config: classifier.provider is anthropic but anthropic.api_key is empty")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return errors.New("invalid config: classifier.provider is gemini but gemini.api_key is empty")
		}
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 60
	}
	if c.Classifier.Provider == "" {
		switch {
		case c.Anthropic.APIKey != "":
			c.Classifier.Provider = "anthropic"
		case c.Gemini.APIKey != "":
			c.Classifier.Provider = "gemini"
		default:
			c.Classifier.Provider = "none"
		}
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = 3 * time.Second
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "none"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.SilenceThreshold == 0 {
		c.Audio.SilenceThreshold = 500
	}
	if c.Audio.MaxSeconds == 0 {
		c.Audio.MaxSeconds = 10
	}
	if c.Audio.RateLimit == 0 {
		c.Audio.RateLimit = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
