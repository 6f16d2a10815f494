package phoneme

import (
	"strings"
	"unicode"
)

// strippedRunes are IPA annotations that do not change base phoneme
// identity: stress marks, syllable breaks, and the linking tie.
var strippedRunes = map[rune]struct{}{
	'ˈ': {}, // primary stress
	'ˌ': {}, // secondary stress
	'.': {}, // syllable break
	'‿': {}, // linking
	'|': {}, // minor group break
	'‖': {}, // major group break
	' ':  {},
	'\t': {},
}

// Normalize prepares an IPA transcription for comparison: enclosing slashes
// or brackets, stress marks, syllable breaks, whitespace, and combining
// diacritics are removed so that only base segmental symbols (plus length
// marks) remain.
func Normalize(ipa string) string {
	ipa = strings.TrimSpace(ipa)
	ipa = strings.Trim(ipa, "/[]")

	var b strings.Builder
	b.Grow(len(ipa))
	for _, r := range ipa {
		if _, strip := strippedRunes[r]; strip {
			continue
		}
		// Combining diacritics (nasalisation, devoicing, tie bars, …) modify
		// a base phoneme without changing its identity for scoring.
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokenize splits a normalised IPA string into phoneme symbols using
// longest-match against the feature inventory: multi-character symbols
// (affricates, length-marked vowels) are preferred over their single-rune
// prefixes. Runes that match nothing in the inventory become single-rune
// tokens so that one unknown symbol degrades scoring locally instead of
// derailing the rest of the sequence.
func Tokenize(ipa string) []string {
	runes := []rune(ipa)
	var tokens []string
	for i := 0; i < len(runes); {
		matched := 0
		// Longest symbol in the inventory is 3 runes ("tʃː" and friends).
		for n := 3; n >= 1; n-- {
			if i+n > len(runes) {
				continue
			}
			if KnownSymbol(string(runes[i : i+n])) {
				matched = n
				break
			}
		}
		if matched == 0 {
			matched = 1
		}
		tokens = append(tokens, string(runes[i:i+matched]))
		i += matched
	}
	return tokens
}

// NormalizeAndTokenize is the composition of [Normalize] and [Tokenize].
func NormalizeAndTokenize(ipa string) []string {
	return Tokenize(Normalize(ipa))
}
