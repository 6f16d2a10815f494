package decoder_test

import (
	"math"
	"testing"

	"github.com/soundslike/pronounce/internal/decoder"
	"github.com/soundslike/pronounce/internal/phoneme"
	"github.com/soundslike/pronounce/pkg/provider/acoustic"
	"github.com/soundslike/pronounce/pkg/provider/acoustic/mock"
)

// testVocab indices: 0 <blk>, 1 a, 2 t, 3 e, 4 ɛ, 5 ʃ, 6 ▁.
func testVocab() *phoneme.Vocabulary {
	return phoneme.NewVocabulary([]string{"<blk>", "a", "t", "e", "ɛ", "ʃ", "▁"})
}

func testDecoder() *decoder.Decoder {
	return decoder.New(testVocab(), phoneme.DefaultClassTable())
}

// logitsRow builds one frame assigning the given probabilities and spreading
// the remaining mass evenly over unnamed symbols.
func logitsRow(vocabSize int, probs map[int]float64) []float32 {
	total := 0.0
	for _, p := range probs {
		total += p
	}
	rest := (1 - total) / float64(vocabSize-len(probs))
	row := make([]float32, vocabSize)
	for id := range row {
		p := rest
		if v, named := probs[id]; named {
			p = v
		}
		row[id] = float32(math.Log(p))
	}
	return row
}

func TestDecode_CollapsesRunsAndRemovesBlanks(t *testing.T) {
	t.Parallel()

	d := testDecoder()
	// a a a <blk> a a → one "a": the blank separates runs of the same
	// phoneme, and after blank removal the runs merge back together.
	logits := mock.ScriptLogits(7, []int{1, 1, 1, 0, 1, 1}, 0.9)

	if got := d.Decode(logits, decoder.Options{}); got != "a" {
		t.Errorf("Decode = %q, want %q", got, "a")
	}

	detail := d.DecodeDetailed(logits, decoder.Options{})
	if len(detail) != 1 {
		t.Fatalf("DecodeDetailed: %d runs, want 1", len(detail))
	}
	if detail[0].Duration != 5 {
		t.Errorf("Duration = %d, want 5", detail[0].Duration)
	}
	if len(detail[0].Confidences) != detail[0].Duration {
		t.Errorf("len(Confidences) = %d, want Duration %d", len(detail[0].Confidences), detail[0].Duration)
	}
}

func TestDecode_EmptyAndAllBlankInput(t *testing.T) {
	t.Parallel()

	d := testDecoder()

	if got := d.Decode(nil, decoder.Options{}); got != "" {
		t.Errorf("Decode(nil) = %q, want empty", got)
	}
	allBlank := mock.ScriptLogits(7, []int{0, 0, 0, 0}, 0.9)
	if got := d.Decode(allBlank, decoder.Options{}); got != "" {
		t.Errorf("Decode(all blank) = %q, want empty", got)
	}
}

func TestDecode_WordBoundaryRemoved(t *testing.T) {
	t.Parallel()

	d := testDecoder()
	logits := mock.ScriptLogits(7, []int{1, 1, 6, 2, 2}, 0.9)
	if got := d.Decode(logits, decoder.Options{}); got != "at" {
		t.Errorf("Decode = %q, want %q", got, "at")
	}
}

func TestDecode_ClassMassBeatsRawArgmax(t *testing.T) {
	t.Parallel()

	d := testDecoder()
	// t has the single highest probability, but e+ɛ as a class carry more
	// mass; the class wins the frame represented by its strongest member.
	row := logitsRow(7, map[int]float64{
		2: 0.42, // t
		3: 0.25, // e
		4: 0.30, // ɛ
	})
	logits := acoustic.FrameLogits{row, row}

	if got := d.Decode(logits, decoder.Options{}); got != "ɛ" {
		t.Errorf("Decode = %q, want %q", got, "ɛ")
	}
}

func TestDecode_SingleFrameConfidenceFilter(t *testing.T) {
	t.Parallel()

	d := testDecoder()

	// A lone frame of "t" at 0.45 falls below the default 0.5 threshold.
	weak := acoustic.FrameLogits{logitsRow(7, map[int]float64{2: 0.45})}
	if got := d.Decode(weak, decoder.Options{}); got != "" {
		t.Errorf("Decode(single weak t) = %q, want empty", got)
	}

	// The same confidence keeps a fricative: ʃ is filtered against
	// 0.5 × 0.70 = 0.35.
	fric := acoustic.FrameLogits{logitsRow(7, map[int]float64{5: 0.45})}
	if got := d.Decode(fric, decoder.Options{}); got != "ʃ" {
		t.Errorf("Decode(single ʃ) = %q, want %q", got, "ʃ")
	}

	// Duration 2 always survives, regardless of confidence.
	long := acoustic.FrameLogits{
		logitsRow(7, map[int]float64{2: 0.45}),
		logitsRow(7, map[int]float64{2: 0.45}),
	}
	if got := d.Decode(long, decoder.Options{}); got != "t" {
		t.Errorf("Decode(double t) = %q, want %q", got, "t")
	}
}

func TestDecode_FricativeSurvivesNearBaseline(t *testing.T) {
	t.Parallel()

	d := testDecoder()

	// 0.355 is 0.71 × the default 0.5 baseline: above the lowered fricative
	// threshold but well below the full one. The fricative keeps the frame,
	// a plosive at the same confidence loses it.
	fric := acoustic.FrameLogits{logitsRow(7, map[int]float64{5: 0.355})}
	if got := d.Decode(fric, decoder.Options{}); got != "ʃ" {
		t.Errorf("Decode(ʃ at 0.355) = %q, want %q", got, "ʃ")
	}

	stop := acoustic.FrameLogits{logitsRow(7, map[int]float64{2: 0.355})}
	if got := d.Decode(stop, decoder.Options{}); got != "" {
		t.Errorf("Decode(t at 0.355) = %q, want empty", got)
	}
}

func TestDecode_FilterRejoinsSplitRuns(t *testing.T) {
	t.Parallel()

	d := testDecoder()
	// a a [weak t] a a: dropping the weak separator must not leave two "a"
	// runs in the output.
	logits := acoustic.FrameLogits{
		logitsRow(7, map[int]float64{1: 0.9}),
		logitsRow(7, map[int]float64{1: 0.9}),
		logitsRow(7, map[int]float64{2: 0.45}),
		logitsRow(7, map[int]float64{1: 0.9}),
		logitsRow(7, map[int]float64{1: 0.9}),
	}

	detail := d.DecodeDetailed(logits, decoder.Options{})
	if len(detail) != 1 || detail[0].Symbol != "a" {
		t.Fatalf("DecodeDetailed = %+v, want single merged run of a", detail)
	}
	if detail[0].Duration != 4 {
		t.Errorf("Duration = %d, want 4", detail[0].Duration)
	}
}

func TestDecode_MinConfidenceOption(t *testing.T) {
	t.Parallel()

	d := testDecoder()
	logits := acoustic.FrameLogits{logitsRow(7, map[int]float64{2: 0.45})}

	// Lowering the baseline admits the run the default rejects.
	if got := d.Decode(logits, decoder.Options{MinConfidence: 0.3}); got != "t" {
		t.Errorf("Decode(MinConfidence 0.3) = %q, want %q", got, "t")
	}
}

func TestDecode_DeterministicOnSharedDecoder(t *testing.T) {
	t.Parallel()

	// A Decoder is shared across sessions; repeated decodes of the same
	// logits must not disturb each other.
	d := testDecoder()
	logits := mock.ScriptLogits(7, []int{1, 1, 0, 2, 2, 5, 5}, 0.9)

	first := d.Decode(logits, decoder.Options{})
	for range 3 {
		if got := d.Decode(logits, decoder.Options{}); got != first {
			t.Fatalf("repeat Decode = %q, want %q", got, first)
		}
	}
}

func TestTrailingBlankFrames(t *testing.T) {
	t.Parallel()

	logits := mock.ScriptLogits(7, []int{1, 1, 0, 0, 0}, 0.9)
	if got := decoder.TrailingBlankFrames(logits, 0.6); got != 3 {
		t.Errorf("TrailingBlankFrames = %d, want 3", got)
	}

	// A confident phoneme at the very end means no trail at all.
	logits = mock.ScriptLogits(7, []int{0, 0, 1}, 0.9)
	if got := decoder.TrailingBlankFrames(logits, 0.6); got != 0 {
		t.Errorf("TrailingBlankFrames = %d, want 0", got)
	}

	if got := decoder.TrailingBlankFrames(nil, 0.6); got != 0 {
		t.Errorf("TrailingBlankFrames(nil) = %d, want 0", got)
	}
}
