package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Model.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("model.sample_rate %d is negative", cfg.Model.SampleRate))
	}

	d := cfg.Detector
	if d.MatchThreshold < 0 || d.MatchThreshold > 1 {
		errs = append(errs, fmt.Errorf("detector.match_threshold %.2f is out of range [0, 1]", d.MatchThreshold))
	}
	if d.BlankConfidence < 0 || d.BlankConfidence > 1 {
		errs = append(errs, fmt.Errorf("detector.blank_confidence %.2f is out of range [0, 1]", d.BlankConfidence))
	}
	if d.MinConfidence < 0 || d.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("detector.min_confidence %.2f is out of range [0, 1]", d.MinConfidence))
	}
	if d.MinChunksBeforeCheck < 0 {
		errs = append(errs, fmt.Errorf("detector.min_chunks_before_check %d is negative", d.MinChunksBeforeCheck))
	}
	if d.SilenceDuration < 0 {
		errs = append(errs, fmt.Errorf("detector.silence_duration %s is negative", d.SilenceDuration))
	}
	if d.BlankTrailFrames < 0 {
		errs = append(errs, fmt.Errorf("detector.blank_trail_frames %d is negative", d.BlankTrailFrames))
	}

	langsSeen := make(map[string]int, len(cfg.Phrases))
	for i, inv := range cfg.Phrases {
		prefix := fmt.Sprintf("phrases[%d]", i)
		if inv.Language == "" {
			errs = append(errs, fmt.Errorf("%s.language is required", prefix))
		} else if prev, dup := langsSeen[inv.Language]; dup {
			errs = append(errs, fmt.Errorf("%s.language %q is a duplicate of phrases[%d]", prefix, inv.Language, prev))
		} else {
			langsSeen[inv.Language] = i
		}
		if inv.Path == "" {
			errs = append(errs, fmt.Errorf("%s.path is required", prefix))
		}
	}

	return errors.Join(errs...)
}
