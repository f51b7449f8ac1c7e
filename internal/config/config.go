package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeMock       = "mock"
	ModeTranscribe = "transcribe"
)

type Config struct {
	Mode          string              `yaml:"mode"`
	Server        ServerConfig        `yaml:"server"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Photos        PhotosConfig        `yaml:"photos"`
	Mock          MockConfig          `yaml:"mock"`
	Paths         PathsConfig         `yaml:"paths"`
	Logging       LoggingConfig       `yaml:"logging"`
	Performance   PerformanceConfig   `yaml:"performance"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// TranscriptionConfig never carries the API key itself, only the name of
// the environment variable it may be read from at startup.
type TranscriptionConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
	Language     string `yaml:"language"`
	ExtractAudio bool   `yaml:"extract_audio"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
}

type PhotosConfig struct {
	BaseURL      string `yaml:"base_url"`
	AccessKeyEnv string `yaml:"access_key_env"`
	FallbackTerm string `yaml:"fallback_term"`
}

type MockConfig struct {
	StageDelaysMS []int `yaml:"stage_delays_ms"`
}

type PathsConfig struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Temp    string `yaml:"temp"`
	History string `yaml:"history"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Load reads and validates the YAML configuration at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Mode == "" {
		c.Mode = ModeMock
	}
	if c.Mode != ModeMock && c.Mode != ModeTranscribe {
		return fmt.Errorf("mode must be one of mock|transcribe, got %q", c.Mode)
	}

	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "openai"
	}
	switch c.Transcription.Provider {
	case "openai":
		if c.Transcription.Model == "" {
			c.Transcription.Model = "whisper-1"
		}
		if c.Transcription.BaseURL == "" {
			c.Transcription.BaseURL = "https://api.openai.com/v1"
		}
		if c.Transcription.APIKeyEnv == "" {
			c.Transcription.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "gemini":
		if c.Transcription.Model == "" {
			c.Transcription.Model = "gemini-2.5-flash"
		}
		if c.Transcription.APIKeyEnv == "" {
			c.Transcription.APIKeyEnv = "GEMINI_API_KEY"
		}
	default:
		return fmt.Errorf("transcription.provider must be one of openai|gemini, got %q", c.Transcription.Provider)
	}
	if c.Transcription.ExtractAudio && c.Transcription.FFmpegPath == "" {
		c.Transcription.FFmpegPath = "ffmpeg"
	}

	if c.Photos.BaseURL == "" {
		c.Photos.BaseURL = "https://api.unsplash.com"
	}
	if c.Photos.AccessKeyEnv == "" {
		c.Photos.AccessKeyEnv = "UNSPLASH_ACCESS_KEY"
	}
	if c.Photos.FallbackTerm == "" {
		c.Photos.FallbackTerm = "technology"
	}

	if c.Mock.StageDelaysMS == nil {
		c.Mock.StageDelaysMS = []int{800, 1500, 1200, 800}
	}
	if len(c.Mock.StageDelaysMS) != 4 {
		return fmt.Errorf("mock.stage_delays_ms must have 4 entries, got %d", len(c.Mock.StageDelaysMS))
	}
	for _, d := range c.Mock.StageDelaysMS {
		if d < 0 {
			return fmt.Errorf("mock.stage_delays_ms must not be negative")
		}
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "data/output"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Performance.MaxConcurrent <= 0 {
		c.Performance.MaxConcurrent = 4
	}

	return nil
}

// StageDelays returns the mock stage delays as durations
func (c *Config) StageDelays() []time.Duration {
	delays := make([]time.Duration, len(c.Mock.StageDelaysMS))
	for i, ms := range c.Mock.StageDelaysMS {
		delays[i] = time.Duration(ms) * time.Millisecond
	}
	return delays
}
