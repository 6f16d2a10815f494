// Command pronounced is the streaming pronunciation-assessment server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soundslike/pronounce/internal/config"
	"github.com/soundslike/pronounce/internal/decoder"
	"github.com/soundslike/pronounce/internal/detect"
	"github.com/soundslike/pronounce/internal/observe"
	"github.com/soundslike/pronounce/internal/phoneme"
	"github.com/soundslike/pronounce/internal/phrase"
	"github.com/soundslike/pronounce/internal/server"
	"github.com/soundslike/pronounce/pkg/provider/acoustic"
	acousticmock "github.com/soundslike/pronounce/pkg/provider/acoustic/mock"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "pronounced: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "pronounced: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("pronounced starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Metrics provider ──────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(context.Background(), observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise metrics provider", "err", err)
		return 1
	}

	// ── Vocabulary and decoder ────────────────────────────────────────────────
	vocab, err := phoneme.LoadVocabularyFile(cfg.Model.TokensPath)
	if err != nil {
		slog.Error("failed to load token vocabulary", "path", cfg.Model.TokensPath, "err", err)
		return 1
	}
	slog.Info("token vocabulary loaded", "path", cfg.Model.TokensPath, "symbols", vocab.Size())

	dec := decoder.New(vocab, phoneme.DefaultClassTable())

	// ── Acoustic model backend ────────────────────────────────────────────────
	model, extractor, err := buildModel(cfg.Model, vocab)
	if err != nil {
		slog.Error("failed to build acoustic model", "provider", cfg.Model.Provider, "err", err)
		return 1
	}
	slog.Info("acoustic model ready", "provider", cfg.Model.Provider)

	// ── Phrase inventories ────────────────────────────────────────────────────
	inventories := make(map[string]*phrase.Inventory, len(cfg.Phrases))
	for _, ic := range cfg.Phrases {
		inv, err := phrase.LoadInventoryFile(ic.Path, ic.Language)
		if err != nil {
			slog.Error("failed to load phrase inventory", "language", ic.Language, "path", ic.Path, "err", err)
			return 1
		}
		inventories[ic.Language] = inv
		slog.Info("phrase inventory loaded", "language", ic.Language, "phrases", inv.Len())
	}

	// ── Server ────────────────────────────────────────────────────────────────
	srv, err := server.New(server.Config{
		Extractor:   extractor,
		Model:       model,
		Decoder:     dec,
		Inventories: inventories,
		Detector:    detectorConfig(cfg.Detector),
	})
	if err != nil {
		slog.Error("failed to build server", "err", err)
		return 1
	}

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	metricsCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownMetrics(metricsCtx); err != nil {
		slog.Warn("metrics provider shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// buildModel constructs the acoustic model backend named in the config.
// Only the scripted mock backend ships in-tree; real backends are registered
// by the caller embedding this server.
func buildModel(cfg config.ModelConfig, vocab *phoneme.Vocabulary) (acoustic.Model, acoustic.FeatureExtractor, error) {
	switch cfg.Provider {
	case "", "mock":
		model := &acousticmock.Model{
			Logits: acousticmock.ConstLogits(1, vocab.Size(), phoneme.BlankID, 0.95),
		}
		return model, &acousticmock.Extractor{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// detectorConfig maps the YAML detector section onto the detect package's
// config. Zero values fall through to the package defaults.
func detectorConfig(d config.DetectorConfig) detect.Config {
	return detect.Config{
		MatchThreshold:       d.MatchThreshold,
		MinChunksBeforeCheck: d.MinChunksBeforeCheck,
		SilenceRMSThreshold:  d.SilenceRMSThreshold,
		SilenceDuration:      d.SilenceDuration,
		BlankTrailFrames:     d.BlankTrailFrames,
		BlankConfidence:      d.BlankConfidence,
		MinConfidence:        d.MinConfidence,
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
