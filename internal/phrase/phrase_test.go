package phrase_test

import (
	"strings"
	"testing"

	"github.com/soundslike/pronounce/internal/phrase"
)

const inventoryYAML = `
- phrase: "die Rose"
  ipa: "diːʁoːzə"
  ipas: ["diːʁoːzə", "diːʁɔzə"]
- phrase: "der Mond"
  ipa: "deːɐmoːnt"
  difficulty: 4.5
- phrase: "Zeitung"
  ipa: "tsaɪtʊŋ"
`

func loadTestInventory(t *testing.T) *phrase.Inventory {
	t.Helper()
	inv, err := phrase.LoadInventory(strings.NewReader(inventoryYAML), "de")
	if err != nil {
		t.Fatalf("LoadInventory: %v", err)
	}
	return inv
}

func TestLoadInventory(t *testing.T) {
	t.Parallel()

	inv := loadTestInventory(t)
	if inv.Language() != "de" {
		t.Errorf("Language() = %q, want %q", inv.Language(), "de")
	}
	if inv.Len() != 3 {
		t.Errorf("Len() = %d, want 3", inv.Len())
	}
}

func TestLoadInventory_ComputesMissingDifficulty(t *testing.T) {
	t.Parallel()

	inv := loadTestInventory(t)

	rose, ok := inv.Lookup("die Rose")
	if !ok {
		t.Fatal("Lookup(die Rose): not found")
	}
	if rose.Difficulty <= 1 {
		t.Errorf("Difficulty = %f, want > 1 (computed)", rose.Difficulty)
	}

	mond, ok := inv.Lookup("der Mond")
	if !ok {
		t.Fatal("Lookup(der Mond): not found")
	}
	if mond.Difficulty != 4.5 {
		t.Errorf("Difficulty = %f, want the explicit 4.5", mond.Difficulty)
	}
}

func TestLoadInventory_RejectsIncompleteEntries(t *testing.T) {
	t.Parallel()

	_, err := phrase.LoadInventory(strings.NewReader(`[{ipa: "moːnt"}]`), "de")
	if err == nil {
		t.Error("LoadInventory: err=nil for entry without phrase, want error")
	}

	_, err = phrase.LoadInventory(strings.NewReader(`[{phrase: "der Mond"}]`), "de")
	if err == nil {
		t.Error("LoadInventory: err=nil for entry without transcription, want error")
	}
}

func TestLoadInventory_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := phrase.LoadInventory(strings.NewReader(`[{phrase: "x", ipa: "a", audio: "x.wav"}]`), "de")
	if err == nil {
		t.Error("LoadInventory: err=nil for unknown field, want error")
	}
}

func TestEntry_TargetsDeduplicated(t *testing.T) {
	t.Parallel()

	inv := loadTestInventory(t)
	rose, _ := inv.Lookup("die Rose")

	targets := rose.Targets()
	want := []string{"diːʁoːzə", "diːʁɔzə"}
	if len(targets) != len(want) {
		t.Fatalf("Targets() = %v, want %v", targets, want)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Errorf("Targets()[%d] = %q, want %q", i, targets[i], want[i])
		}
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	t.Parallel()

	inv := loadTestInventory(t)
	if _, ok := inv.Lookup("DIE ROSE"); !ok {
		t.Error("Lookup(DIE ROSE): not found, want case-insensitive hit")
	}
	if _, ok := inv.Lookup("die Nelke"); ok {
		t.Error("Lookup(die Nelke): found, want miss")
	}
}

func TestFuzzyLookup(t *testing.T) {
	t.Parallel()

	inv := loadTestInventory(t)

	entry, sim, ok := inv.FuzzyLookup("die Rse")
	if !ok {
		t.Fatal("FuzzyLookup(die Rse): not found, want fuzzy hit")
	}
	if entry.Phrase != "die Rose" {
		t.Errorf("FuzzyLookup matched %q, want %q", entry.Phrase, "die Rose")
	}
	if sim < 0.85 || sim > 1 {
		t.Errorf("similarity = %f, want within [0.85, 1]", sim)
	}

	if _, _, ok := inv.FuzzyLookup("completely unrelated"); ok {
		t.Error("FuzzyLookup(completely unrelated): ok=true, want miss")
	}
	if _, _, ok := inv.FuzzyLookup("  "); ok {
		t.Error("FuzzyLookup(blank): ok=true, want miss")
	}
}

func TestDifficulty(t *testing.T) {
	t.Parallel()

	if got := phrase.Difficulty(""); got != 1 {
		t.Errorf("Difficulty(empty) = %f, want 1", got)
	}

	short := phrase.Difficulty("moːnt")
	long := phrase.Difficulty("moːntəsdiːʁoːzə")
	if short >= long {
		t.Errorf("Difficulty(short) = %f, Difficulty(long) = %f; want short < long", short, long)
	}

	// The dental fricative carries a markedness bonus over a plain plosive.
	plain := phrase.Difficulty("tɪn")
	marked := phrase.Difficulty("θɪn")
	if plain >= marked {
		t.Errorf("Difficulty(tɪn) = %f, Difficulty(θɪn) = %f; want plain < marked", plain, marked)
	}
}
