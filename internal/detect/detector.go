// Package detect orchestrates the decoder and scorer across a stream of
// incoming audio fragments and raises match, silence, and end-of-speech
// events while the speaker is still talking.
//
// A [Detector] accumulates binary audio fragments. Once enough have
// arrived it periodically re-decodes the entire accumulated buffer —
// accumulated audio cannot be decoded incrementally — scores the result
// against the target transcription, and evaluates three independent
// triggers: target match, sustained silence, and a confidently blank frame
// trail. A busy guard keeps at most one processing attempt in flight;
// fragments that arrive while an attempt runs are never discarded, they
// simply wait for the next attempt. An attempt that fails (typically the
// model rejecting not-yet-decodable audio) is retried with more data — the
// fix for incomplete audio is always "wait for more fragments", never
// "drop what we have".
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soundslike/pronounce/internal/decoder"
	"github.com/soundslike/pronounce/internal/observe"
	"github.com/soundslike/pronounce/internal/score"
	"github.com/soundslike/pronounce/pkg/audio"
	"github.com/soundslike/pronounce/pkg/provider/acoustic"
)

// Configuration defaults. See [Config].
const (
	DefaultMatchThreshold       = 0.8
	DefaultMinChunksBeforeCheck = 3
	DefaultSilenceRMSThreshold  = 0.01
	DefaultSilenceDuration      = 2 * time.Second
	DefaultBlankTrailFrames     = 20
	DefaultBlankConfidence      = 0.6
)

// minNewFragments is the number of fragments that must arrive after a
// successful attempt before the buffer is reprocessed. Reprocessing after a
// single fragment would repeatedly decode near-identical, still-incomplete
// audio.
const minNewFragments = 2

// finalizePollInterval is the cadence of the cooperative wait in [Detector.Finalize].
const finalizePollInterval = 5 * time.Millisecond

// ErrMissingDependency is returned by [New] when a required collaborator is
// absent.
var ErrMissingDependency = errors.New("detect: missing dependency")

// Config is the immutable per-session configuration of a [Detector].
// Zero-valued fields select the package defaults.
type Config struct {
	// TargetIPA is the transcription the speaker is trying to produce.
	// Required.
	TargetIPA string

	// Language is the BCP-47 tag passed through to the scorer.
	Language string

	// MatchThreshold is the similarity in [0, 1] at which the target counts
	// as matched. Default 0.8.
	MatchThreshold float64

	// MinChunksBeforeCheck is the number of fragments that must accumulate
	// before the first decode attempt. Default 3.
	MinChunksBeforeCheck int

	// SilenceRMSThreshold is the normalised RMS energy below which audio
	// counts as silent. Default 0.01.
	SilenceRMSThreshold float64

	// SilenceDuration is how long energy must stay below the threshold
	// before the silence event fires. Default 2s.
	SilenceDuration time.Duration

	// BlankTrailFrames is the trailing-blank run length that signals end of
	// speech. Default 20.
	BlankTrailFrames int

	// BlankConfidence is the per-frame blank probability above which a
	// trailing frame counts toward the blank trail. Default 0.6.
	BlankConfidence float64

	// MinConfidence is the decoder's baseline confidence threshold.
	// Default [decoder.DefaultMinConfidence].
	MinConfidence float64
}

func (c Config) withDefaults() Config {
	if c.MatchThreshold == 0 {
		c.MatchThreshold = DefaultMatchThreshold
	}
	if c.MinChunksBeforeCheck == 0 {
		c.MinChunksBeforeCheck = DefaultMinChunksBeforeCheck
	}
	if c.SilenceRMSThreshold == 0 {
		c.SilenceRMSThreshold = DefaultSilenceRMSThreshold
	}
	if c.SilenceDuration == 0 {
		c.SilenceDuration = DefaultSilenceDuration
	}
	if c.BlankTrailFrames == 0 {
		c.BlankTrailFrames = DefaultBlankTrailFrames
	}
	if c.BlankConfidence == 0 {
		c.BlankConfidence = DefaultBlankConfidence
	}
	return c
}

// Deps bundles the collaborators a [Detector] needs.
type Deps struct {
	// Extractor converts accumulated PCM into model features. Required.
	Extractor acoustic.FeatureExtractor

	// Model is the shared acoustic inference backend. Required.
	Model acoustic.Model

	// Decoder turns model output into phoneme sequences. Required.
	Decoder *decoder.Decoder

	// Sink receives detector events. Required.
	Sink EventSink

	// Metrics records processing instrumentation. When nil,
	// [observe.DefaultMetrics] is used.
	Metrics *observe.Metrics

	// Now is the clock used for silence timing. When nil, [time.Now] is
	// used. Tests inject a fake clock here.
	Now func() time.Time
}

// Detector is the streaming state machine for one detection session. It is
// created when recording starts and reset or discarded when recording ends.
//
// AddChunk, Finalize, LastPhonemes, LastSimilarity, and Reset are safe for
// concurrent use, with one documented exception: Reset must not be called
// while a processing attempt is unresolved.
type Detector struct {
	cfg  Config
	deps Deps

	mu         sync.Mutex
	fragments  [][]byte
	processing bool

	// lastProcessed is the number of fragments folded into the last
	// successful attempt; lastAttempted the number seen by the last attempt
	// of any outcome (it scopes the silence window to fresh audio).
	lastProcessed int
	lastAttempted int

	lastPhonemes   string
	lastSimilarity float64

	matched      bool
	silenceFired bool
	blankFired   bool
	seenPhonemes bool
	silenceSince time.Time // zero when the last audio was loud
}

// New creates a Detector for one detection session. The target
// transcription must tokenise to a non-empty phoneme sequence; this is
// validated eagerly because no amount of audio can fix an empty target.
func New(deps Deps, cfg Config) (*Detector, error) {
	switch {
	case deps.Extractor == nil:
		return nil, fmt.Errorf("%w: feature extractor", ErrMissingDependency)
	case deps.Model == nil:
		return nil, fmt.Errorf("%w: acoustic model", ErrMissingDependency)
	case deps.Decoder == nil:
		return nil, fmt.Errorf("%w: decoder", ErrMissingDependency)
	case deps.Sink == nil:
		return nil, fmt.Errorf("%w: event sink", ErrMissingDependency)
	}
	if deps.Metrics == nil {
		deps.Metrics = observe.DefaultMetrics()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	cfg = cfg.withDefaults()
	// Validate the target by scoring it against itself once.
	if _, err := score.Score(cfg.TargetIPA, cfg.TargetIPA, cfg.Language); err != nil {
		return nil, err
	}

	return &Detector{cfg: cfg, deps: deps}, nil
}

// AddChunk appends a binary audio fragment to the internal buffer and, when
// enough audio has accumulated, triggers an asynchronous processing
// attempt. Zero-length fragments are ignored.
//
// AddChunk never blocks on processing: the fragment is queued and the call
// returns immediately.
func (d *Detector) AddChunk(fragment []byte) {
	if len(fragment) == 0 {
		return
	}
	buf := make([]byte, len(fragment))
	copy(buf, fragment)

	d.mu.Lock()
	d.fragments = append(d.fragments, buf)
	trigger := len(d.fragments) >= d.cfg.MinChunksBeforeCheck &&
		!d.matched &&
		!d.processing
	d.mu.Unlock()

	if trigger {
		go d.processAccumulated(context.Background(), false)
	}
}

// LastPhonemes returns the phoneme string of the most recent successful
// processing attempt, or "" before the first one.
func (d *Detector) LastPhonemes() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastPhonemes
}

// LastSimilarity returns the similarity of the most recent successful
// processing attempt, or 0 before the first one.
func (d *Detector) LastSimilarity() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSimilarity
}

// Matched reports whether the target-match event has fired.
func (d *Detector) Matched() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.matched
}

// Finalize waits for any in-flight processing attempt to complete, forces
// one final attempt over fragments not yet folded into a successful decode,
// and waits for that attempt too. After Finalize returns, LastPhonemes and
// LastSimilarity reflect all audio received so far.
//
// Finalize is idempotent; calling it twice is safe.
func (d *Detector) Finalize(ctx context.Context) error {
	if err := d.waitIdle(ctx); err != nil {
		return err
	}

	d.mu.Lock()
	pending := len(d.fragments) > d.lastProcessed
	d.mu.Unlock()

	if pending {
		d.processAccumulated(ctx, true)
		if err := d.waitIdle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// waitIdle polls cooperatively until no processing attempt is in flight.
func (d *Detector) waitIdle(ctx context.Context) error {
	for {
		d.mu.Lock()
		busy := d.processing
		d.mu.Unlock()
		if !busy {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("detect: finalize: %w", ctx.Err())
		case <-time.After(finalizePollInterval):
		}
	}
}

// Reset clears all accumulated audio and result state, returning the
// detector to its pre-AddChunk condition for reuse in a new session. It
// does not interrupt a running processing attempt; callers must not invoke
// Reset concurrently with one.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fragments = nil
	d.lastProcessed = 0
	d.lastAttempted = 0
	d.lastPhonemes = ""
	d.lastSimilarity = 0
	d.matched = false
	d.silenceFired = false
	d.blankFired = false
	d.seenPhonemes = false
	d.silenceSince = time.Time{}
	d.processing = false
}

// processAccumulated runs one processing attempt over the entire
// accumulated buffer. The busy guard admits at most one attempt at a time;
// a second caller returns immediately and the fragments it would have
// covered stay queued. Unless force is set, at least [minNewFragments]
// fragments must have arrived since the last successful attempt.
func (d *Detector) processAccumulated(ctx context.Context, force bool) {
	d.mu.Lock()
	if d.processing || d.matched {
		d.mu.Unlock()
		return
	}
	count := len(d.fragments)
	if !force && count-d.lastProcessed < minNewFragments {
		d.mu.Unlock()
		return
	}
	d.processing = true
	prevAttempted := d.lastAttempted
	d.lastAttempted = count
	pcm := concat(d.fragments[:count])
	freshPCM := concat(d.fragments[prevAttempted:count])
	d.mu.Unlock()

	outcome := d.runAttempt(ctx, pcm, freshPCM, count)

	d.deps.Metrics.RecordProcessingAttempt(ctx, outcome)
}

// runAttempt performs the decode → score → trigger evaluation for one
// attempt and returns the outcome label for metrics. It owns clearing the
// busy flag.
func (d *Detector) runAttempt(ctx context.Context, pcm, freshPCM []byte, count int) string {
	fail := func(stage string, err error) string {
		slog.Warn("processing attempt failed; fragments retained for retry",
			"stage", stage,
			"fragments", count,
			"err", err,
		)
		d.mu.Lock()
		d.processing = false
		d.mu.Unlock()
		return "error"
	}

	features, frameCount, err := d.deps.Extractor.Extract(pcm)
	if err != nil {
		return fail("extract", err)
	}

	inferStart := d.deps.Now()
	logits, err := d.deps.Model.Infer(ctx, features, frameCount)
	if err != nil {
		return fail("infer", err)
	}
	d.deps.Metrics.InferDuration.Record(ctx, d.deps.Now().Sub(inferStart).Seconds())

	decodeStart := d.deps.Now()
	phonemes := d.deps.Decoder.Decode(logits, decoder.Options{MinConfidence: d.cfg.MinConfidence})
	d.deps.Metrics.DecodeDuration.Record(ctx, d.deps.Now().Sub(decodeStart).Seconds())

	scoreStart := d.deps.Now()
	result, err := score.Score(d.cfg.TargetIPA, phonemes, d.cfg.Language)
	if err != nil {
		return fail("score", err)
	}
	d.deps.Metrics.ScoreDuration.Record(ctx, d.deps.Now().Sub(scoreStart).Seconds())

	trailing := decoder.TrailingBlankFrames(logits, d.cfg.BlankConfidence)
	now := d.deps.Now()

	// Commit results and decide which events fire, all under one lock; the
	// sink is invoked afterwards so slow subscribers never stall AddChunk.
	d.mu.Lock()
	d.lastProcessed = count
	d.lastPhonemes = phonemes
	d.lastSimilarity = result.Similarity
	if phonemes != "" {
		d.seenPhonemes = true
	}

	fireMatch := false
	if result.Similarity >= d.cfg.MatchThreshold && !d.matched {
		d.matched = true
		fireMatch = true
	}

	// A forced attempt may cover no fresh audio at all; absent audio is
	// neither silent nor loud, so the window stays as it was.
	fireSilence := false
	if len(freshPCM) > 0 {
		if audio.RMS(freshPCM) < d.cfg.SilenceRMSThreshold {
			if d.silenceSince.IsZero() {
				d.silenceSince = now
			} else if now.Sub(d.silenceSince) >= d.cfg.SilenceDuration && !d.silenceFired {
				d.silenceFired = true
				fireSilence = true
			}
		} else {
			d.silenceSince = time.Time{}
		}
	}

	fireBlankTrail := false
	if d.seenPhonemes && trailing >= d.cfg.BlankTrailFrames && !d.blankFired {
		d.blankFired = true
		fireBlankTrail = true
	}

	d.processing = false
	d.mu.Unlock()

	sink := d.deps.Sink
	sink.OnPhonemeUpdate(phonemes, result.Similarity)
	d.deps.Metrics.RecordDetectorEvent(ctx, "phoneme_update")
	if fireSilence {
		sink.OnSilenceDetected()
		d.deps.Metrics.RecordDetectorEvent(ctx, "silence")
	}
	if fireMatch {
		sink.OnTargetMatched(phonemes, result.Similarity)
		d.deps.Metrics.RecordDetectorEvent(ctx, "matched")
	}
	if fireBlankTrail {
		sink.OnBlankTrailDetected()
		d.deps.Metrics.RecordDetectorEvent(ctx, "blank_trail")
	}
	return "ok"
}

func concat(fragments [][]byte) []byte {
	total := 0
	for _, f := range fragments {
		total += len(f)
	}
	buf := make([]byte, 0, total)
	for _, f := range fragments {
		buf = append(buf, f...)
	}
	return buf
}
