// Package score compares two phoneme sequences and produces a normalised
// similarity plus an explainable alignment.
//
// Plain edit distance over raw symbols would treat "o" vs "ɔ" (a
// near-identical vowel) the same as "o" vs "t" (a totally different sound).
// The scorer instead weighs substitutions by articulatory feature distance
// ([phoneme.Distance]) and aligns the sequences with dynamic programming, so
// the similarity reflects how the utterance sounds rather than how it
// spells.
package score

import (
	"errors"
	"fmt"

	"github.com/antzucaro/matchr"

	"github.com/soundslike/pronounce/internal/phoneme"
)

// ErrEmptyTarget is returned when the target transcription normalises to an
// empty phoneme sequence. This is a configuration error: retrying cannot
// produce a target to score against.
var ErrEmptyTarget = errors.New("score: empty target phoneme sequence")

// ErrNoTargets is returned by [ScoreBest] when no target transcriptions are
// supplied.
var ErrNoTargets = errors.New("score: no target transcriptions")

// matchEpsilon is the pairwise distance below which an aligned pair counts
// as a match in the comparison trace.
const matchEpsilon = 0.1

// Costs of unmatched phonemes in the alignment. Substitution costs the
// feature distance of the pair, bounded by the same 1.0.
const (
	insertionCost = 1.0
	deletionCost  = 1.0
)

// Comparison is one entry of the alignment trace: an aligned pair, an
// insertion (empty Target), or a deletion (empty Actual).
type Comparison struct {
	// Target is the expected symbol, or "" when the speaker inserted a
	// phoneme with no counterpart.
	Target string `json:"target"`

	// Actual is the spoken symbol, or "" when the speaker dropped the
	// target phoneme.
	Actual string `json:"actual"`

	// Distance is the pairwise cost charged for this entry.
	Distance float64 `json:"distance"`

	// Match is true when Distance is below the match epsilon.
	Match bool `json:"match"`
}

// Result is the outcome of one scoring call. It is immutable once returned.
type Result struct {
	// Similarity is the normalised score in [0, 1]; 1.0 means phonetically
	// identical sequences.
	Similarity float64 `json:"similarity"`

	// Target and Actual are the tokenised phoneme sequences that were
	// aligned.
	Target []string `json:"target_phonemes"`
	Actual []string `json:"actual_phonemes"`

	// Comparisons is the minimum-cost monotonic alignment between Target
	// and Actual, one entry per aligned pair, insertion, or deletion.
	Comparisons []Comparison `json:"phoneme_comparison"`
}

// Score compares a target IPA transcription against the actually spoken
// phonemes and returns the similarity with its alignment. lang is a BCP-47
// style language tag selecting language-specific symbol equivalences (e.g.
// the rhotic realisations of "r").
//
// An empty actual sequence degrades to pure deletion cost (similarity 0
// against a non-empty target); an empty target is rejected with
// [ErrEmptyTarget].
func Score(targetIPA, actualIPA, lang string) (*Result, error) {
	target := tokenize(targetIPA, lang)
	if len(target) == 0 {
		return nil, fmt.Errorf("%w (input %q)", ErrEmptyTarget, targetIPA)
	}
	actual := tokenize(actualIPA, lang)
	return align(target, actual), nil
}

// ScoreBest scores actualIPA against every acceptable target transcription
// and returns the result with the highest similarity. Ties keep the first
// target in source order.
func ScoreBest(targets []string, actualIPA, lang string) (*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	var best *Result
	var firstErr error
	for _, t := range targets {
		r, err := Score(t, actualIPA, lang)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if best == nil || r.Similarity > best.Similarity {
			best = r
		}
	}
	if best == nil {
		return nil, firstErr
	}
	return best, nil
}

// tokenize normalises and tokenises ipa, then applies the language's symbol
// equivalence mapping.
func tokenize(ipa, lang string) []string {
	tokens := phoneme.NormalizeAndTokenize(ipa)
	mapping := rhoticEquivalence(lang)
	if mapping == nil {
		return tokens
	}
	for i, t := range tokens {
		if repl, ok := mapping[t]; ok {
			tokens[i] = repl
		}
	}
	return tokens
}

// rhoticEquivalence maps interchangeable realisations of /r/ onto one
// canonical symbol per language, so a learner is not penalised for a rhotic
// variant their target language treats as the same phoneme.
func rhoticEquivalence(lang string) map[string]string {
	switch baseLang(lang) {
	case "de":
		return map[string]string{"r": "ʁ", "ɾ": "ʁ"}
	case "en":
		return map[string]string{"r": "ɹ", "ɾ": "ɹ"}
	case "fr":
		return map[string]string{"r": "ʁ"}
	case "es", "it":
		return map[string]string{"ɹ": "r"}
	}
	return nil
}

// baseLang reduces a BCP-47 tag to its primary subtag ("de-DE" → "de").
func baseLang(lang string) string {
	for i := range len(lang) {
		if lang[i] == '-' || lang[i] == '_' {
			return lang[:i]
		}
	}
	return lang
}

// align runs the dynamic-programming sequence alignment and converts the
// total cost into a similarity. See [alignSequences] for the DP itself.
func align(target, actual []string) *Result {
	cost, trace := alignSequences(target, actual)

	// Saturating normalisation: identical sequences cost 0 and score 1.0;
	// a sequence aligned against nothing accumulates one full unit per
	// phoneme and scores 0. Monotonically non-increasing in cost.
	maxLen := max(len(target), len(actual))
	similarity := 0.0
	if maxLen == 0 {
		// Both empty: documented edge case, treated as a perfect match.
		similarity = 1.0
	} else {
		similarity = 1.0 - cost/float64(maxLen)
		similarity = min(max(similarity, 0.0), 1.0)
	}

	// When neither side contains a single known symbol the feature distance
	// is uninformative (every substitution saturates at 1.0). Fall back to
	// plain string similarity so two identical-but-unknown renditions still
	// compare sensibly.
	if similarity == 0 && len(target) > 0 && len(actual) > 0 &&
		!anyKnown(target) && !anyKnown(actual) {
		similarity = matchr.JaroWinkler(join(target), join(actual), false)
	}

	return &Result{
		Similarity:  similarity,
		Target:      target,
		Actual:      actual,
		Comparisons: trace,
	}
}

func anyKnown(tokens []string) bool {
	for _, t := range tokens {
		if phoneme.KnownSymbol(t) {
			return true
		}
	}
	return false
}

func join(tokens []string) string {
	s := ""
	for _, t := range tokens {
		s += t
	}
	return s
}
