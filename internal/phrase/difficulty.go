package phrase

import "github.com/soundslike/pronounce/internal/phoneme"

// Difficulty rates a transcription on an open-ended scale starting at 1:
// longer phrases and phonemes that are cross-linguistically rare score
// higher. The rating feeds phrase selection and progress pacing; it has no
// effect on scoring itself.
func Difficulty(ipa string) float64 {
	tokens := phoneme.NormalizeAndTokenize(ipa)
	if len(tokens) == 0 {
		return 1
	}

	d := 1.0 + float64(len(tokens))/4.0
	for _, t := range tokens {
		if bonus, marked := markedPhonemes[t]; marked {
			d += bonus
		} else if !phoneme.KnownSymbol(t) {
			// Outside the inventory entirely: treat as maximally exotic.
			d += 0.5
		}
	}
	return d
}

// markedPhonemes carries per-phoneme difficulty bonuses for sounds that
// learners commonly struggle with. Derived from typological frequency:
// dental fricatives, front rounded vowels, and uvulars are rare across
// languages and disproportionately hard for non-native speakers.
var markedPhonemes = map[string]float64{
	"θ": 0.5, "ð": 0.5,
	"ø": 0.4, "øː": 0.4, "œ": 0.4, "œː": 0.4,
	"y": 0.4, "yː": 0.4, "ʏ": 0.4,
	"ʁ": 0.3, "χ": 0.3, "q": 0.3,
	"ç": 0.25, "x": 0.25, "ɣ": 0.25,
	"ŋ": 0.2, "ɲ": 0.2, "ʎ": 0.2,
	"ts": 0.15, "pf": 0.25, "dz": 0.15,
	"ɥ": 0.3, "ʔ": 0.2,
}
