// Package acoustic defines the boundary to the acoustic inference model and
// its feature front end.
//
// The model is a black box: it maps fixed-width feature frames to per-frame,
// per-symbol scores. How the model is loaded, cached, integrity-checked, or
// hardware-accelerated is a separate concern and no business of this module —
// callers construct a [Model] and inject it wherever decoding is needed.
// A loaded model is shared read-only across concurrently active detection
// sessions, so implementations must be safe for concurrent use.
package acoustic

import "context"

// FrameLogits is the model output: one row per time frame, one log-space
// score per vocabulary symbol. Produced once per decode attempt and treated
// as immutable afterwards.
type FrameLogits [][]float32

// Frames returns the number of time frames in the matrix.
func (l FrameLogits) Frames() int {
	return len(l)
}

// VocabSize returns the per-frame score vector width, or 0 for an empty
// matrix.
func (l FrameLogits) VocabSize() int {
	if len(l) == 0 {
		return 0
	}
	return len(l[0])
}

// Model is the abstraction over the acoustic inference backend.
//
// Implementations must be safe for concurrent use; multiple detection
// sessions may share one Model.
type Model interface {
	// Infer runs the model over the given feature frames and returns the
	// per-frame log-probability matrix. frameCount is the number of valid
	// rows in features.
	//
	// Infer must respect ctx cancellation: model backends may offload work
	// to another execution context (GPU queue, worker thread), and callers
	// await the result.
	Infer(ctx context.Context, features [][]float32, frameCount int) (FrameLogits, error)
}

// FeatureExtractor converts raw audio into the feature frames the model
// expects. Treated as a pure function of the audio; implementations own any
// resampling or normalisation the model requires.
//
// Implementations must be safe for concurrent use.
type FeatureExtractor interface {
	// Extract converts little-endian 16-bit mono PCM into feature frames and
	// reports the number of frames produced. Short input may yield zero
	// frames without error.
	Extract(pcm []byte) (features [][]float32, frameCount int, err error)
}
