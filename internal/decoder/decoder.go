// Package decoder turns per-frame acoustic probability vectors into a
// compact phoneme sequence with confidence and duration metadata.
//
// The decode is a greedy CTC collapse with one refinement: acoustically
// similar symbols are grouped into phoneme classes ([phoneme.ClassTable])
// and compete with their summed probability mass, because the model splits
// mass across near-duplicate symbols. Per frame:
//
//  1. Scores are exponentiated from log space to probabilities.
//  2. Each class sums its members' probabilities; the class is represented
//     by its single most probable member but weighed by the class sum.
//  3. The best-weighted option across classes and unassigned symbols wins
//     the frame (greedy, no beam search).
//
// Post-processing collapses consecutive identical selections into runs,
// removes special tokens, drops single-frame runs below a per-class
// confidence threshold, and re-collapses runs that the filter has made
// adjacent.
package decoder

import (
	"math"
	"strings"

	"github.com/soundslike/pronounce/internal/phoneme"
	"github.com/soundslike/pronounce/pkg/provider/acoustic"
)

// DefaultMinConfidence is the baseline confidence threshold applied to
// single-frame runs when [Options.MinConfidence] is zero.
const DefaultMinConfidence = 0.5

// Options tunes a decode call. The zero value selects all defaults.
type Options struct {
	// MinConfidence is the baseline confidence threshold for single-frame
	// runs. The effective threshold per run is scaled by the symbol's class
	// factor ([phoneme.ThresholdFactor]). Defaults to 0.5.
	MinConfidence float64
}

// Token is one frame's winning symbol. Confidence is the probability weight
// the selection won with — the summed class mass for class members, the raw
// symbol probability otherwise.
type Token struct {
	ID         int
	Symbol     string
	Confidence float64
}

// Phoneme is a run of consecutive identical Tokens: the unit filtered by
// confidence thresholds and the unit exposed to callers. Duration always
// equals len(Confidences).
type Phoneme struct {
	Symbol      string
	Duration    int
	Confidences []float64
}

// AvgConfidence returns the mean frame confidence over the run.
func (p Phoneme) AvgConfidence() float64 {
	if len(p.Confidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range p.Confidences {
		sum += c
	}
	return sum / float64(len(p.Confidences))
}

// Decoder performs greedy class-aware CTC decoding against one vocabulary.
// It precomputes the class membership of every token id at construction and
// is immutable afterwards; safe for concurrent use.
type Decoder struct {
	vocab *phoneme.Vocabulary

	classes []decodeClass
	// classIndex maps token id → index into classes, -1 for unassigned ids.
	classIndex []int
}

type decodeClass struct {
	name      string
	memberIDs []int
}

// New builds a Decoder over vocab using the given merge classes. Class
// members missing from the vocabulary are skipped; classes with fewer than
// two present members dissolve into unassigned symbols.
func New(vocab *phoneme.Vocabulary, classes *phoneme.ClassTable) *Decoder {
	d := &Decoder{
		vocab:      vocab,
		classIndex: make([]int, vocab.Size()),
	}
	for i := range d.classIndex {
		d.classIndex[i] = -1
	}
	for _, c := range classes.Classes() {
		var ids []int
		for _, m := range c.Members {
			if id, ok := vocab.ID(m); ok {
				ids = append(ids, id)
			}
		}
		if len(ids) < 2 {
			continue
		}
		idx := len(d.classes)
		d.classes = append(d.classes, decodeClass{name: c.Name, memberIDs: ids})
		for _, id := range ids {
			d.classIndex[id] = idx
		}
	}
	return d
}

// Decode runs the full decode over logits and returns the concatenated
// phoneme string. A zero-frame matrix yields "".
func (d *Decoder) Decode(logits acoustic.FrameLogits, opts Options) string {
	phonemes := d.DecodeDetailed(logits, opts)
	var b strings.Builder
	for _, p := range phonemes {
		b.WriteString(p.Symbol)
	}
	return b.String()
}

// DecodeDetailed runs the full decode over logits and returns the surviving
// phoneme runs with duration and confidence metadata. A zero-frame matrix
// yields an empty slice.
//
// A mismatch between the logits width and the vocabulary size is a caller
// contract violation and is not defensively handled.
func (d *Decoder) DecodeDetailed(logits acoustic.FrameLogits, opts Options) []Phoneme {
	minConfidence := opts.MinConfidence
	if minConfidence == 0 {
		minConfidence = DefaultMinConfidence
	}

	tokens := d.selectTokens(logits)
	runs := collapse(tokens)
	runs = dropSpecial(runs)
	runs = filterShortRuns(runs, minConfidence)
	runs = recollapse(runs)
	return runs
}

// selectTokens performs the per-frame greedy selection.
func (d *Decoder) selectTokens(logits acoustic.FrameLogits) []Token {
	tokens := make([]Token, 0, len(logits))
	probs := make([]float64, d.vocab.Size())
	classSum := make([]float64, len(d.classes))
	classBest := make([]int, len(d.classes))

	for _, row := range logits {
		for i := range classSum {
			classSum[i] = 0
			classBest[i] = -1
		}

		best := Token{ID: -1}
		for id := range probs {
			probs[id] = math.Exp(float64(row[id]))

			ci := d.classIndex[id]
			if ci < 0 {
				if probs[id] > best.Confidence || best.ID == -1 {
					symbol, _ := d.vocab.Symbol(id)
					best = Token{ID: id, Symbol: symbol, Confidence: probs[id]}
				}
				continue
			}
			classSum[ci] += probs[id]
			if classBest[ci] == -1 || probs[id] > probs[classBest[ci]] {
				classBest[ci] = id
			}
		}

		// Classes compete with their summed mass but are represented by
		// their strongest member.
		for ci, sum := range classSum {
			if classBest[ci] >= 0 && sum > best.Confidence {
				symbol, _ := d.vocab.Symbol(classBest[ci])
				best = Token{ID: classBest[ci], Symbol: symbol, Confidence: sum}
			}
		}

		tokens = append(tokens, best)
	}
	return tokens
}

// collapse run-length groups consecutive identical symbols (the standard
// CTC collapse), averaging nothing yet — confidences are carried per frame.
func collapse(tokens []Token) []Phoneme {
	var runs []Phoneme
	for _, tok := range tokens {
		if n := len(runs); n > 0 && runs[n-1].Symbol == tok.Symbol {
			runs[n-1].Duration++
			runs[n-1].Confidences = append(runs[n-1].Confidences, tok.Confidence)
			continue
		}
		runs = append(runs, Phoneme{
			Symbol:      tok.Symbol,
			Duration:    1,
			Confidences: []float64{tok.Confidence},
		})
	}
	return runs
}

// dropSpecial removes blank, word-boundary, and other non-phonemic runs.
func dropSpecial(runs []Phoneme) []Phoneme {
	kept := runs[:0]
	for _, r := range runs {
		if phoneme.IsSpecial(r.Symbol) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// filterShortRuns drops runs of duration exactly 1 whose confidence falls
// below the class-scaled threshold. Longer runs always survive: duration is
// itself evidence the phoneme is real.
func filterShortRuns(runs []Phoneme, minConfidence float64) []Phoneme {
	kept := runs[:0]
	for _, r := range runs {
		if r.Duration == 1 {
			threshold := minConfidence * phoneme.ThresholdFactor(r.Symbol)
			if r.AvgConfidence() < threshold {
				continue
			}
		}
		kept = append(kept, r)
	}
	return kept
}

// recollapse merges adjacent runs that share a symbol. Filtering may remove
// a low-confidence run that was the only separator between two runs of the
// same phoneme; without this pass the output would duplicate the phoneme.
func recollapse(runs []Phoneme) []Phoneme {
	var merged []Phoneme
	for _, r := range runs {
		if n := len(merged); n > 0 && merged[n-1].Symbol == r.Symbol {
			merged[n-1].Duration += r.Duration
			merged[n-1].Confidences = append(merged[n-1].Confidences, r.Confidences...)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// TrailingBlankFrames counts frames from the end of logits backward whose
// blank-token probability exceeds confidence. Used for end-of-speech
// detection: a long confident blank tail after phonemes have been seen
// means the speaker has finished.
func TrailingBlankFrames(logits acoustic.FrameLogits, confidence float64) int {
	count := 0
	for t := len(logits) - 1; t >= 0; t-- {
		if math.Exp(float64(logits[t][phoneme.BlankID])) <= confidence {
			break
		}
		count++
	}
	return count
}
