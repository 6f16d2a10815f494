package detect

// EventSink receives detector notifications. Implementations are called
// from the detector's processing goroutine — never concurrently with
// themselves — and must not call back into the detector synchronously.
//
// OnTargetMatched, OnSilenceDetected, and OnBlankTrailDetected fire at most
// once per detection session; OnPhonemeUpdate fires after every successful
// processing attempt.
type EventSink interface {
	// OnPhonemeUpdate reports the latest decoded phoneme string and its
	// similarity against the target.
	OnPhonemeUpdate(phonemes string, similarity float64)

	// OnTargetMatched fires once when similarity first reaches the match
	// threshold.
	OnTargetMatched(phonemes string, similarity float64)

	// OnSilenceDetected fires once when audio energy has stayed below the
	// silence threshold for the configured duration.
	OnSilenceDetected()

	// OnBlankTrailDetected fires once when, after phonemes have been seen,
	// the trailing frames of the decode are confidently blank — the
	// end-of-speech signal.
	OnBlankTrailDetected()
}

// SinkFuncs adapts plain functions to [EventSink]. Nil fields are no-ops,
// so callers subscribe only to the events they care about.
type SinkFuncs struct {
	PhonemeUpdate func(phonemes string, similarity float64)
	TargetMatched func(phonemes string, similarity float64)
	Silence       func()
	BlankTrail    func()
}

var _ EventSink = SinkFuncs{}

func (s SinkFuncs) OnPhonemeUpdate(phonemes string, similarity float64) {
	if s.PhonemeUpdate != nil {
		s.PhonemeUpdate(phonemes, similarity)
	}
}

func (s SinkFuncs) OnTargetMatched(phonemes string, similarity float64) {
	if s.TargetMatched != nil {
		s.TargetMatched(phonemes, similarity)
	}
}

func (s SinkFuncs) OnSilenceDetected() {
	if s.Silence != nil {
		s.Silence()
	}
}

func (s SinkFuncs) OnBlankTrailDetected() {
	if s.BlankTrail != nil {
		s.BlankTrail()
	}
}
