package phoneme_test

import (
	"strings"
	"testing"

	"github.com/soundslike/pronounce/internal/phoneme"
)

func TestLoadVocabulary_SymbolIDColumns(t *testing.T) {
	t.Parallel()

	tokens := "<blk> 0\na 1\nt 2\noː 3\n▁ 4\n"
	v, err := phoneme.LoadVocabulary(strings.NewReader(tokens))
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}

	if got := v.Size(); got != 5 {
		t.Errorf("Size() = %d, want 5", got)
	}
	if s, ok := v.Symbol(phoneme.BlankID); !ok || s != phoneme.BlankSymbol {
		t.Errorf("Symbol(0) = %q, %v, want %q, true", s, ok, phoneme.BlankSymbol)
	}
	if id, ok := v.ID("oː"); !ok || id != 3 {
		t.Errorf("ID(oː) = %d, %v, want 3, true", id, ok)
	}
	if _, ok := v.ID("x"); ok {
		t.Error("ID(x): ok=true for symbol not in file")
	}
}

func TestLoadVocabulary_IDsAssignedByLineOrder(t *testing.T) {
	t.Parallel()

	v, err := phoneme.LoadVocabulary(strings.NewReader("<blk>\na\nb\n"))
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}
	if id, _ := v.ID("b"); id != 2 {
		t.Errorf("ID(b) = %d, want 2", id)
	}
}

func TestLoadVocabulary_DuplicateID(t *testing.T) {
	t.Parallel()

	_, err := phoneme.LoadVocabulary(strings.NewReader("a 1\nb 1\n"))
	if err == nil {
		t.Fatal("LoadVocabulary: err=nil for duplicate id, want error")
	}
}

func TestLoadVocabulary_EmptyFile(t *testing.T) {
	t.Parallel()

	_, err := phoneme.LoadVocabulary(strings.NewReader("\n\n"))
	if err == nil {
		t.Fatal("LoadVocabulary: err=nil for empty file, want error")
	}
}

func TestIsSpecial(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		phoneme.BlankSymbol, phoneme.BoundarySymbol, phoneme.SOSEOSSymbol,
		phoneme.UnknownSymbol, phoneme.PadSymbol,
	} {
		if !phoneme.IsSpecial(s) {
			t.Errorf("IsSpecial(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"a", "oː", "tʃ", ""} {
		if phoneme.IsSpecial(s) {
			t.Errorf("IsSpecial(%q) = true, want false", s)
		}
	}
}
