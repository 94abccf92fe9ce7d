// Package config loads and watches the curhatin configuration file.
//
// The config lives at ~/.curhatin/config.json5 (JSON5: comments and trailing
// commas allowed). Secrets can be supplied or overridden via environment
// variables so they never need to be written to disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/titanous/json5"
)

// Defaults.
const (
	DefaultAddr          = "127.0.0.1:8787"
	DefaultChatModel     = "gemini-2.5-flash"
	DefaultTTSModel      = "gemini-2.5-flash-preview-tts"
	DefaultLanguage      = "id-ID"
	DefaultHistoryTurns  = 2
	DefaultSynthAttempts = 3
	DefaultSynthBaseMs   = 2000
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Gemini  GeminiConfig  `json:"gemini"`
	Audio   AudioConfig   `json:"audio"`
	Voice   VoiceConfig   `json:"voice"`
	Journal JournalConfig `json:"journal"`
	Synth   SynthConfig   `json:"synth"`

	// HistoryTurns bounds the conversation context sent with each
	// generation request.
	HistoryTurns int `json:"historyTurns"`
}

// ServerConfig configures the HTTP/WebSocket surface.
type ServerConfig struct {
	Addr           string `json:"addr"`
	AuthToken      string `json:"authToken"`      // empty = no auth
	RateLimitRPM   int    `json:"rateLimitRpm"`   // 0 = disabled
	RateLimitBurst int    `json:"rateLimitBurst"` // default 5
}

// GeminiConfig configures the generation/synthesis provider.
type GeminiConfig struct {
	APIKey    string `json:"apiKey"`
	APIBase   string `json:"apiBase"` // override for testing
	ChatModel string `json:"chatModel"`
	TTSModel  string `json:"ttsModel"`
	TimeoutMs int    `json:"timeoutMs"` // per-request timeout, default 30000
}

// AudioConfig configures local audio devices.
type AudioConfig struct {
	InputDevice  string `json:"inputDevice"`  // empty = system default
	OutputDevice string `json:"outputDevice"` // empty = system default
	VADMode      int    `json:"vadMode"`      // webrtcvad aggressiveness 0-3
}

// VoiceConfig configures the assistant voice and language.
type VoiceConfig struct {
	Gender   string `json:"gender"`   // "female" or "male"
	Language string `json:"language"` // BCP-47, e.g. "id-ID"
}

// JournalConfig configures the mood journal.
type JournalConfig struct {
	DataDir string `json:"dataDir"` // default ~/.curhatin/data
}

// SynthConfig controls the synthesis retry policy.
type SynthConfig struct {
	MaxAttempts int `json:"maxAttempts"` // default 3
	BaseDelayMs int `json:"baseDelayMs"` // default 2000, doubles per attempt
}

// DefaultPath returns the default config file path (~/.curhatin/config.json5).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json5"
	}
	return filepath.Join(home, ".curhatin", "config.json5")
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			Addr:           DefaultAddr,
			RateLimitBurst: 5,
		},
		Gemini: GeminiConfig{
			ChatModel: DefaultChatModel,
			TTSModel:  DefaultTTSModel,
			TimeoutMs: 30000,
		},
		Audio: AudioConfig{
			VADMode: 2,
		},
		Voice: VoiceConfig{
			Gender:   "female",
			Language: DefaultLanguage,
		},
		Journal: JournalConfig{
			DataDir: filepath.Join(home, ".curhatin", "data"),
		},
		Synth: SynthConfig{
			MaxAttempts: DefaultSynthAttempts,
			BaseDelayMs: DefaultSynthBaseMs,
		},
		HistoryTurns: DefaultHistoryTurns,
	}
}

// Load reads the config file at path, applies defaults and env overrides.
// A missing file is not an error: defaults + env are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("CURHATIN_AUTH_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}
	if v := os.Getenv("CURHATIN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// applyDefaults re-fills zero values after a partial file overwrote them.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Gemini.ChatModel == "" {
		c.Gemini.ChatModel = DefaultChatModel
	}
	if c.Gemini.TTSModel == "" {
		c.Gemini.TTSModel = DefaultTTSModel
	}
	if c.Gemini.TimeoutMs <= 0 {
		c.Gemini.TimeoutMs = 30000
	}
	if c.Voice.Gender == "" {
		c.Voice.Gender = "female"
	}
	if c.Voice.Language == "" {
		c.Voice.Language = DefaultLanguage
	}
	if c.Synth.MaxAttempts <= 0 {
		c.Synth.MaxAttempts = DefaultSynthAttempts
	}
	if c.Synth.BaseDelayMs <= 0 {
		c.Synth.BaseDelayMs = DefaultSynthBaseMs
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = DefaultHistoryTurns
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Voice.Gender != "female" && c.Voice.Gender != "male" {
		return fmt.Errorf("config: voice.gender must be \"female\" or \"male\", got %q", c.Voice.Gender)
	}
	if c.Audio.VADMode < 0 || c.Audio.VADMode > 3 {
		return fmt.Errorf("config: audio.vadMode must be 0-3, got %d", c.Audio.VADMode)
	}
	if c.Synth.MaxAttempts > 10 {
		return fmt.Errorf("config: synth.maxAttempts too large (%d)", c.Synth.MaxAttempts)
	}
	return nil
}

// SynthBaseDelay returns the base backoff delay as a Duration.
func (c *Config) SynthBaseDelay() time.Duration {
	return time.Duration(c.Synth.BaseDelayMs) * time.Millisecond
}
