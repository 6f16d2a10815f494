// Package phoneme holds the shared phonetic data model: the model vocabulary
// (token id ↔ IPA symbol mapping), phoneme class tables used during decoding,
// the articulatory feature inventory used for distance scoring, and IPA
// normalization and tokenization helpers.
//
// Everything in this package is read-only after construction and safe for
// concurrent use.
package phoneme

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Special tokens emitted by the acoustic model's vocabulary. The blank token
// always occupies id 0; the remaining special symbols are matched by name.
const (
	// BlankSymbol is the CTC blank label.
	BlankSymbol = "<blk>"

	// BoundarySymbol marks a word boundary between phonemes.
	BoundarySymbol = "▁"

	// SOSEOSSymbol is the combined start/end-of-sequence marker.
	SOSEOSSymbol = "<sos/eos>"

	// UnknownSymbol is emitted for out-of-vocabulary sounds.
	UnknownSymbol = "<unk>"

	// PadSymbol pads batched sequences to equal length.
	PadSymbol = "<pad>"
)

// BlankID is the token id of the CTC blank label.
const BlankID = 0

// IsSpecial reports whether symbol is a non-phonemic vocabulary entry
// (blank, word boundary, sequence marker, unknown, or padding).
func IsSpecial(symbol string) bool {
	switch symbol {
	case BlankSymbol, BoundarySymbol, SOSEOSSymbol, UnknownSymbol, PadSymbol:
		return true
	}
	return false
}

// Vocabulary is a bijective mapping between integer token ids and phoneme
// symbol strings, loaded once per session from the model's tokens file.
type Vocabulary struct {
	symbols []string
	ids     map[string]int
}

// LoadVocabulary parses a tokens file from r. Each line holds a symbol
// optionally followed by its integer id ("symbol id"); when the id column is
// absent, ids are assigned in line order starting at 0.
//
// Returns an error for unparseable id columns, duplicate ids, or an empty
// file.
func LoadVocabulary(r io.Reader) (*Vocabulary, error) {
	byID := make(map[int]string)
	maxID := -1

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		symbol := parts[0]
		id := len(byID)
		if len(parts) > 1 {
			var err error
			id, err = strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("phoneme: invalid token id %q for symbol %q: %w", parts[1], symbol, err)
			}
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("phoneme: duplicate token id %d for symbol %q", id, symbol)
		}
		byID[id] = symbol
		if id > maxID {
			maxID = id
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("phoneme: read tokens: %w", err)
	}
	if len(byID) == 0 {
		return nil, fmt.Errorf("phoneme: tokens file contains no symbols")
	}

	v := &Vocabulary{
		symbols: make([]string, maxID+1),
		ids:     make(map[string]int, len(byID)),
	}
	for id, symbol := range byID {
		v.symbols[id] = symbol
		v.ids[symbol] = id
	}
	return v, nil
}

// LoadVocabularyFile opens path and parses it with [LoadVocabulary].
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phoneme: open tokens file %q: %w", path, err)
	}
	defer f.Close()
	return LoadVocabulary(f)
}

// NewVocabulary builds a Vocabulary directly from an ordered symbol list,
// assigning ids by position. Intended for tests and embedded defaults.
func NewVocabulary(symbols []string) *Vocabulary {
	v := &Vocabulary{
		symbols: make([]string, len(symbols)),
		ids:     make(map[string]int, len(symbols)),
	}
	copy(v.symbols, symbols)
	for id, s := range symbols {
		v.ids[s] = id
	}
	return v
}

// Symbol returns the symbol for id. ok is false when id is out of range or
// unassigned.
func (v *Vocabulary) Symbol(id int) (symbol string, ok bool) {
	if id < 0 || id >= len(v.symbols) || v.symbols[id] == "" {
		return "", false
	}
	return v.symbols[id], true
}

// ID returns the token id for symbol. ok is false for unknown symbols.
func (v *Vocabulary) ID(symbol string) (id int, ok bool) {
	id, ok = v.ids[symbol]
	return id, ok
}

// Size returns the number of token id slots, i.e. the expected vocabSize
// dimension of the model's logits matrix.
func (v *Vocabulary) Size() int {
	return len(v.symbols)
}
