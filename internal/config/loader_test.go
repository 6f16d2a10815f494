package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/soundslike/pronounce/internal/config"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: debug
model:
  provider: mock
  tokens_path: testdata/tokens.txt
  sample_rate: 16000
detector:
  match_threshold: 0.85
  min_chunks_before_check: 4
  silence_rms_threshold: 0.02
  silence_duration: 3s
  blank_trail_frames: 25
  blank_confidence: 0.7
  min_confidence: 0.45
phrases:
  - language: de
    path: phrases-de.yaml
  - language: en
    path: phrases-en.yaml
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Detector.MatchThreshold != 0.85 {
		t.Errorf("MatchThreshold = %f, want 0.85", cfg.Detector.MatchThreshold)
	}
	if cfg.Detector.SilenceDuration != 3*time.Second {
		t.Errorf("SilenceDuration = %s, want 3s", cfg.Detector.SilenceDuration)
	}
	if len(cfg.Phrases) != 2 {
		t.Fatalf("Phrases = %d entries, want 2", len(cfg.Phrases))
	}
	if cfg.Phrases[1].Language != "en" {
		t.Errorf("Phrases[1].Language = %q, want en", cfg.Phrases[1].Language)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("server:\n  listen_adr: \":8080\"\n"))
	if err == nil {
		t.Error("LoadFromReader: err=nil for misspelled key, want error")
	}
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Server.LogLevel = "verbose"
	cfg.Detector.MatchThreshold = 1.5
	cfg.Detector.MinChunksBeforeCheck = -1
	cfg.Phrases = []config.InventoryConfig{
		{Language: "de", Path: "a.yaml"},
		{Language: "de", Path: "b.yaml"},
		{Language: "", Path: ""},
	}

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("Validate: err=nil, want joined validation errors")
	}
	msg := err.Error()
	for _, want := range []string{
		"log_level",
		"match_threshold",
		"min_chunks_before_check",
		"duplicate",
		"language is required",
		"path is required",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Validate error %q does not mention %q", msg, want)
		}
	}
}

func TestValidate_ZeroConfigIsValid(t *testing.T) {
	t.Parallel()

	// Zero values select runtime defaults everywhere; an empty config must
	// pass validation.
	if err := config.Validate(&config.Config{}); err != nil {
		t.Errorf("Validate(zero config) = %v, want nil", err)
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", l)
		}
	}
	if config.LogLevel("verbose").IsValid() {
		t.Error(`IsValid("verbose") = true, want false`)
	}
}
