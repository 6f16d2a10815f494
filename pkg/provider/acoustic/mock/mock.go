// Package mock provides scripted [acoustic.Model] and
// [acoustic.FeatureExtractor] implementations for tests and local runs
// without a real inference backend.
package mock

import (
	"context"
	"math"
	"sync"

	"github.com/soundslike/pronounce/pkg/audio"
	"github.com/soundslike/pronounce/pkg/provider/acoustic"
)

// Compile-time interface checks.
var (
	_ acoustic.Model            = (*Model)(nil)
	_ acoustic.FeatureExtractor = (*Extractor)(nil)
)

// Model is a scripted acoustic model. Configure exactly one of Logits or
// InferFn; Err (when non-nil) takes priority and makes every call fail.
// All fields must be set before first use; afterwards the Model is safe for
// concurrent use.
type Model struct {
	// Logits is returned verbatim on every Infer call.
	Logits acoustic.FrameLogits

	// InferFn, when set, computes the result per call. It receives the call
	// sequence number (starting at 1) alongside the inputs.
	InferFn func(call int, features [][]float32, frameCount int) (acoustic.FrameLogits, error)

	// Err, when non-nil, is returned by every Infer call.
	Err error

	mu    sync.Mutex
	calls int
}

// Infer implements [acoustic.Model].
func (m *Model) Infer(ctx context.Context, features [][]float32, frameCount int) (acoustic.FrameLogits, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.InferFn != nil {
		return m.InferFn(call, features, frameCount)
	}
	return m.Logits, nil
}

// Calls returns how many times Infer has been invoked.
func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Extractor is a minimal feature front end: it slices PCM into fixed-size
// windows and emits a single log-energy coefficient per window. Good enough
// to exercise the streaming pipeline; useless for real recognition.
type Extractor struct {
	// SamplesPerFrame is the window size in samples. Defaults to 160
	// (10 ms at 16 kHz) when zero.
	SamplesPerFrame int
}

// Extract implements [acoustic.FeatureExtractor].
func (e *Extractor) Extract(pcm []byte) ([][]float32, int, error) {
	window := e.SamplesPerFrame
	if window <= 0 {
		window = 160
	}
	samples := audio.PCMToFloat32(pcm)
	frameCount := len(samples) / window

	features := make([][]float32, frameCount)
	for i := range frameCount {
		var sum float64
		for _, s := range samples[i*window : (i+1)*window] {
			sum += float64(s) * float64(s)
		}
		energy := math.Log(sum/float64(window) + 1e-10)
		features[i] = []float32{float32(energy)}
	}
	return features, frameCount, nil
}

// ConstLogits builds a logits matrix of frameCount frames where every frame
// assigns log(hi) to the symbol at id and log(lo) spread across the rest.
// Handy for scripting decode scenarios frame by frame: pass one id per
// frame via [ScriptLogits] instead when frames differ.
func ConstLogits(frameCount, vocabSize, id int, hi float64) acoustic.FrameLogits {
	ids := make([]int, frameCount)
	for i := range ids {
		ids[i] = id
	}
	return ScriptLogits(vocabSize, ids, hi)
}

// ScriptLogits builds a logits matrix with one frame per entry of ids: the
// named symbol receives probability hi and the remaining mass is split
// evenly over the rest of the vocabulary. Scores are emitted in log space,
// matching real model output.
func ScriptLogits(vocabSize int, ids []int, hi float64) acoustic.FrameLogits {
	lo := (1 - hi) / float64(vocabSize-1)
	logits := make(acoustic.FrameLogits, len(ids))
	for t, id := range ids {
		row := make([]float32, vocabSize)
		for s := range row {
			p := lo
			if s == id {
				p = hi
			}
			row[s] = float32(math.Log(p))
		}
		logits[t] = row
	}
	return logits
}
