// Package config provides the configuration schema and loader for the
// pronunciation-assessment server.
package config

import "time"

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Model    ModelConfig       `yaml:"model"`
	Detector DetectorConfig    `yaml:"detector"`
	Phrases  []InventoryConfig `yaml:"phrases"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ModelConfig describes the acoustic model collaborator.
type ModelConfig struct {
	// Provider selects the model backend. "mock" runs the scripted
	// development backend; anything else must be registered by the caller
	// embedding this server.
	Provider string `yaml:"provider"`

	// TokensPath is the path to the model's tokens file (symbol ↔ id
	// mapping, one symbol per line).
	TokensPath string `yaml:"tokens_path"`

	// SampleRate is the audio sample rate the model front end expects.
	// Defaults to 16000.
	SampleRate int `yaml:"sample_rate"`
}

// DetectorConfig carries the per-session detection defaults. Zero values
// select the detect package's built-in defaults.
type DetectorConfig struct {
	// MatchThreshold is the similarity in [0, 1] at which the target counts
	// as matched.
	MatchThreshold float64 `yaml:"match_threshold"`

	// MinChunksBeforeCheck is the number of audio fragments that must
	// accumulate before the first decode attempt.
	MinChunksBeforeCheck int `yaml:"min_chunks_before_check"`

	// SilenceRMSThreshold is the normalised RMS energy below which audio
	// counts as silent.
	SilenceRMSThreshold float64 `yaml:"silence_rms_threshold"`

	// SilenceDuration is how long energy must stay below the threshold
	// before the silence event fires.
	SilenceDuration time.Duration `yaml:"silence_duration"`

	// BlankTrailFrames is the trailing-blank run length that signals end of
	// speech.
	BlankTrailFrames int `yaml:"blank_trail_frames"`

	// BlankConfidence is the per-frame blank probability above which a
	// trailing frame counts toward the blank trail.
	BlankConfidence float64 `yaml:"blank_confidence"`

	// MinConfidence is the decoder's baseline confidence threshold for
	// single-frame runs.
	MinConfidence float64 `yaml:"min_confidence"`
}

// InventoryConfig points at one language's phrase inventory file.
type InventoryConfig struct {
	// Language is the BCP-47 tag of the inventory (e.g., "de", "en-GB").
	Language string `yaml:"language"`

	// Path is the YAML inventory file location.
	Path string `yaml:"path"`
}
