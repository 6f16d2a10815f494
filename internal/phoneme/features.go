package phoneme

// The articulatory feature inventory assigns every known phoneme a fixed-
// length vector of ternary feature values (+1 present, -1 absent, 0
// unspecified), following the PanPhon feature system. Substitution cost
// between two phonemes is the normalised L1 distance between their vectors,
// which makes "o" vs "ɔ" cheap and "o" vs "t" expensive — the property that
// turns a string-similarity score into a pronunciation score.

import "strings"

// FeatureCount is the length of every feature vector.
const FeatureCount = 17

// Feature vector indices.
const (
	featSyllabic = iota
	featSonorant
	featConsonantal
	featContinuant
	featDelayedRelease
	featNasal
	featLateral
	featVoice
	featLabial
	featCoronal
	featDorsal
	featHigh
	featLow
	featBack
	featRound
	featTense
	featLong
)

// FeatureVec is one phoneme's articulatory feature vector.
type FeatureVec [FeatureCount]int8

// maxFeatureDistance is the largest possible L1 distance between two
// vectors: every feature flipping between +1 and -1.
const maxFeatureDistance = 2 * FeatureCount

// vowel builds a vowel feature vector. high/low/back/round/tense follow the
// conventional height/backness/rounding/tenseness decomposition.
func vowel(high, low, back, round, tense int8) FeatureVec {
	v := FeatureVec{}
	v[featSyllabic] = 1
	v[featSonorant] = 1
	v[featConsonantal] = -1
	v[featContinuant] = 1
	v[featDelayedRelease] = -1
	v[featNasal] = -1
	v[featLateral] = -1
	v[featVoice] = 1
	v[featLabial] = -1
	v[featCoronal] = -1
	v[featDorsal] = 1
	v[featHigh] = high
	v[featLow] = low
	v[featBack] = back
	v[featRound] = round
	v[featTense] = tense
	v[featLong] = -1
	return v
}

// consonant builds a consonant feature vector from its major class features
// and place marks.
func consonant(son, cont, delrel, nas, lat, voi, lab, cor, dors int8) FeatureVec {
	v := FeatureVec{}
	v[featSyllabic] = -1
	v[featSonorant] = son
	v[featConsonantal] = 1
	v[featContinuant] = cont
	v[featDelayedRelease] = delrel
	v[featNasal] = nas
	v[featLateral] = lat
	v[featVoice] = voi
	v[featLabial] = lab
	v[featCoronal] = cor
	v[featDorsal] = dors
	v[featRound] = -1
	v[featLong] = -1
	return v
}

// glide builds a semivowel feature vector ([-syllabic, -consonantal]).
func glide(lab, cor, dors, high, back, round int8) FeatureVec {
	v := FeatureVec{}
	v[featSyllabic] = -1
	v[featSonorant] = 1
	v[featConsonantal] = -1
	v[featContinuant] = 1
	v[featDelayedRelease] = -1
	v[featNasal] = -1
	v[featLateral] = -1
	v[featVoice] = 1
	v[featLabial] = lab
	v[featCoronal] = cor
	v[featDorsal] = dors
	v[featHigh] = high
	v[featBack] = back
	v[featRound] = round
	v[featTense] = 1
	v[featLong] = -1
	return v
}

// featureTable maps base (short) phoneme symbols to their feature vectors.
// Length-marked variants ("oː") resolve to the base vector with the long
// feature set; see [Features].
var featureTable = map[string]FeatureVec{
	// Close and near-close vowels.
	"i": vowel(1, -1, -1, -1, 1),
	"y": vowel(1, -1, -1, 1, 1),
	"ɪ": vowel(1, -1, -1, -1, -1),
	"ʏ": vowel(1, -1, -1, 1, -1),
	"ɨ": vowel(1, -1, 0, -1, 1),
	"u": vowel(1, -1, 1, 1, 1),
	"ʊ": vowel(1, -1, 1, 1, -1),

	// Mid vowels. Tenseness separates the close-mid/open-mid pairs that the
	// decoder merges into probability classes.
	"e": vowel(-1, -1, -1, -1, 1),
	"ɛ": vowel(-1, -1, -1, -1, -1),
	"ø": vowel(-1, -1, -1, 1, 1),
	"œ": vowel(-1, -1, -1, 1, -1),
	"o": vowel(-1, -1, 1, 1, 1),
	"ɔ": vowel(-1, -1, 1, 1, -1),
	"ə": vowel(-1, -1, 0, -1, -1),
	"ɜ": vowel(-1, -1, 0, -1, -1),
	"ʌ": vowel(-1, -1, 1, -1, -1),

	// Open vowels.
	"æ": vowel(-1, 1, -1, -1, -1),
	"a": vowel(-1, 1, -1, -1, 1),
	"ɐ": vowel(-1, 1, 0, -1, -1),
	"ɑ": vowel(-1, 1, 1, -1, 1),
	"ɒ": vowel(-1, 1, 1, 1, -1),

	// Plosives.
	"p": consonant(-1, -1, -1, -1, -1, -1, 1, -1, -1),
	"b": consonant(-1, -1, -1, -1, -1, 1, 1, -1, -1),
	"t": consonant(-1, -1, -1, -1, -1, -1, -1, 1, -1),
	"d": consonant(-1, -1, -1, -1, -1, 1, -1, 1, -1),
	"k": consonant(-1, -1, -1, -1, -1, -1, -1, -1, 1),
	"ɡ": consonant(-1, -1, -1, -1, -1, 1, -1, -1, 1),
	"g": consonant(-1, -1, -1, -1, -1, 1, -1, -1, 1),
	"q": consonant(-1, -1, -1, -1, -1, -1, -1, -1, 1),
	"ʔ": consonant(-1, -1, -1, -1, -1, -1, -1, -1, -1),

	// Nasals.
	"m": consonant(1, -1, -1, 1, -1, 1, 1, -1, -1),
	"n": consonant(1, -1, -1, 1, -1, 1, -1, 1, -1),
	"ɲ": consonant(1, -1, -1, 1, -1, 1, -1, 1, 1),
	"ŋ": consonant(1, -1, -1, 1, -1, 1, -1, -1, 1),

	// Fricatives.
	"f": consonant(-1, 1, 1, -1, -1, -1, 1, -1, -1),
	"v": consonant(-1, 1, 1, -1, -1, 1, 1, -1, -1),
	"θ": consonant(-1, 1, 1, -1, -1, -1, -1, 1, -1),
	"ð": consonant(-1, 1, 1, -1, -1, 1, -1, 1, -1),
	"s": consonant(-1, 1, 1, -1, -1, -1, -1, 1, -1),
	"z": consonant(-1, 1, 1, -1, -1, 1, -1, 1, -1),
	"ʃ": consonant(-1, 1, 1, -1, -1, -1, -1, 1, 1),
	"ʒ": consonant(-1, 1, 1, -1, -1, 1, -1, 1, 1),
	"ç": consonant(-1, 1, 1, -1, -1, -1, -1, -1, 1),
	"x": consonant(-1, 1, 1, -1, -1, -1, -1, -1, 1),
	"ɣ": consonant(-1, 1, 1, -1, -1, 1, -1, -1, 1),
	"χ": consonant(-1, 1, 1, -1, -1, -1, -1, -1, 1),
	"β": consonant(-1, 1, 1, -1, -1, 1, 1, -1, -1),
	"h": consonant(-1, 1, 1, -1, -1, -1, -1, -1, -1),

	// Affricates ([-continuant, +delayed release]).
	"ts": consonant(-1, -1, 1, -1, -1, -1, -1, 1, -1),
	"dz": consonant(-1, -1, 1, -1, -1, 1, -1, 1, -1),
	"tʃ": consonant(-1, -1, 1, -1, -1, -1, -1, 1, 1),
	"dʒ": consonant(-1, -1, 1, -1, -1, 1, -1, 1, 1),
	"pf": consonant(-1, -1, 1, -1, -1, -1, 1, -1, -1),

	// Liquids and rhotics.
	"l": consonant(1, 1, -1, -1, 1, 1, -1, 1, -1),
	"ʎ": consonant(1, 1, -1, -1, 1, 1, -1, 1, 1),
	"r": consonant(1, 1, -1, -1, -1, 1, -1, 1, -1),
	"ɾ": consonant(1, -1, -1, -1, -1, 1, -1, 1, -1),
	"ʁ": consonant(-1, 1, 1, -1, -1, 1, -1, -1, 1),

	// Approximants and glides.
	"ɹ": consonant(1, 1, -1, -1, -1, 1, -1, 1, -1),
	"ʋ": consonant(1, 1, -1, -1, -1, 1, 1, -1, -1),
	"j": glide(-1, -1, 1, 1, -1, -1),
	"w": glide(1, -1, 1, 1, 1, 1),
	"ɥ": glide(1, -1, 1, 1, -1, 1),
}

// Features returns the articulatory feature vector for symbol. A trailing
// length mark resolves to the base phoneme's vector with the long feature
// set. ok is false for symbols outside the inventory.
func Features(symbol string) (vec FeatureVec, ok bool) {
	if v, found := featureTable[symbol]; found {
		return v, true
	}
	if base, long := trimLengthMark(symbol); long {
		if v, found := featureTable[base]; found {
			v[featLong] = 1
			return v, true
		}
	}
	return FeatureVec{}, false
}

// KnownSymbol reports whether symbol (or its length-stripped base) is in the
// feature inventory.
func KnownSymbol(symbol string) bool {
	_, ok := Features(symbol)
	return ok
}

// Distance returns the substitution cost between two phoneme symbols in
// [0, 1]: the L1 distance between their feature vectors, normalised by the
// maximum possible distance. Identical symbols cost 0 even when unknown;
// any pair involving an unknown symbol costs the maximum 1.
func Distance(a, b string) float64 {
	if a == b {
		return 0
	}
	va, okA := Features(a)
	vb, okB := Features(b)
	if !okA || !okB {
		return 1
	}
	sum := 0
	for i := range va {
		d := int(va[i]) - int(vb[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return float64(sum) / float64(maxFeatureDistance)
}

// trimLengthMark splits a trailing IPA length mark (ː or the ASCII colon
// fallback) from symbol.
func trimLengthMark(symbol string) (base string, long bool) {
	for _, mark := range []string{"ː", ":"} {
		if rest, found := strings.CutSuffix(symbol, mark); found && rest != "" {
			return rest, true
		}
	}
	return symbol, false
}
