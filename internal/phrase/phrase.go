// Package phrase loads and queries the practice-phrase inventory: the
// phrases a learner can practise, each with one or more acceptable IPA
// transcriptions and a difficulty rating.
//
// Inventories are YAML files, one per language ("phrases-de.yaml" and
// friends), carrying entries of the form:
//
//	- phrase: "die Rose"
//	  ipa: "diːʁoːzə"
//	  ipas: ["diːʁoːzə", "diːʁɔzə"]   # optional alternates
//	  difficulty: 2.5                  # optional, computed when absent
//
// When a phrase lists multiple transcriptions, all of them are acceptable
// targets and scoring picks the best one.
package phrase

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antzucaro/matchr"
	"gopkg.in/yaml.v3"
)

// fuzzyLookupThreshold is the minimum Jaro-Winkler similarity for
// [Inventory.FuzzyLookup] to accept a phrase as a match.
const fuzzyLookupThreshold = 0.85

// Entry is one practice phrase with its acceptable pronunciations.
type Entry struct {
	// Phrase is the orthographic text shown to the learner.
	Phrase string `yaml:"phrase"`

	// IPA is the primary transcription.
	IPA string `yaml:"ipa"`

	// IPAs lists alternate acceptable transcriptions. May be empty.
	IPAs []string `yaml:"ipas"`

	// Difficulty rates the phrase for scheduling purposes. When the file
	// leaves it zero, it is computed from the transcription at load time.
	Difficulty float64 `yaml:"difficulty"`
}

// Targets returns all acceptable transcriptions for the entry, primary
// first, deduplicated in source order.
func (e *Entry) Targets() []string {
	targets := make([]string, 0, 1+len(e.IPAs))
	seen := make(map[string]struct{}, 1+len(e.IPAs))
	for _, t := range append([]string{e.IPA}, e.IPAs...) {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		targets = append(targets, t)
	}
	return targets
}

// Inventory is the loaded phrase list for one language. Read-only after
// construction; safe for concurrent use.
type Inventory struct {
	lang     string
	entries  []Entry
	byPhrase map[string]int // lower-cased phrase → index
}

// LoadInventory decodes a phrase inventory from r for the given language
// tag. Entries without a phrase or without any transcription are rejected;
// missing difficulties are computed via [Difficulty].
func LoadInventory(r io.Reader, lang string) (*Inventory, error) {
	var entries []Entry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("phrase: decode inventory: %w", err)
	}

	inv := &Inventory{
		lang:     lang,
		entries:  entries,
		byPhrase: make(map[string]int, len(entries)),
	}
	for i := range inv.entries {
		e := &inv.entries[i]
		if e.Phrase == "" {
			return nil, fmt.Errorf("phrase: entry %d has no phrase text", i)
		}
		if len(e.Targets()) == 0 {
			return nil, fmt.Errorf("phrase: entry %q has no transcription", e.Phrase)
		}
		if e.Difficulty == 0 {
			e.Difficulty = Difficulty(e.IPA)
		}
		inv.byPhrase[strings.ToLower(e.Phrase)] = i
	}
	return inv, nil
}

// LoadInventoryFile opens path and parses it with [LoadInventory].
func LoadInventoryFile(path, lang string) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phrase: open inventory %q: %w", path, err)
	}
	defer f.Close()
	return LoadInventory(f, lang)
}

// Language returns the inventory's language tag.
func (inv *Inventory) Language() string {
	return inv.lang
}

// Len returns the number of entries.
func (inv *Inventory) Len() int {
	return len(inv.entries)
}

// Entries returns the inventory's entries in file order.
func (inv *Inventory) Entries() []Entry {
	return inv.entries
}

// Lookup finds the entry whose phrase text equals text, case-insensitively.
func (inv *Inventory) Lookup(text string) (*Entry, bool) {
	i, ok := inv.byPhrase[strings.ToLower(strings.TrimSpace(text))]
	if !ok {
		return nil, false
	}
	return &inv.entries[i], true
}

// FuzzyLookup finds the entry whose phrase text is most similar to text by
// Jaro-Winkler similarity, accepting it only above the fuzzy threshold.
// Useful when the phrase key travelled through a lossy channel (UI input,
// URL fragments).
func (inv *Inventory) FuzzyLookup(text string) (entry *Entry, similarity float64, ok bool) {
	if exact, found := inv.Lookup(text); found {
		return exact, 1.0, true
	}
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil, 0, false
	}

	bestIdx := -1
	bestScore := 0.0
	for i := range inv.entries {
		s := matchr.JaroWinkler(needle, strings.ToLower(inv.entries[i].Phrase), false)
		if s > bestScore {
			bestScore = s
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestScore < fuzzyLookupThreshold {
		return nil, 0, false
	}
	return &inv.entries[bestIdx], bestScore, true
}
