package phoneme

// Class is a fixed group of acoustically similar phoneme symbols whose
// per-frame probabilities are summed before symbol selection. Models split
// probability mass across near-duplicate symbols (most visibly the close-mid
// vs open-mid vowel pairs), so comparing summed class mass instead of raw
// per-symbol mass stabilises the greedy decode.
type Class struct {
	// Name is a short identifier used in logs and configuration.
	Name string

	// Members lists the IPA symbols belonging to this class. Members absent
	// from the session vocabulary are ignored at decode time.
	Members []string
}

// ClassTable resolves symbols to their merge class. It is static
// configuration data: built once, never mutated at runtime.
type ClassTable struct {
	classes  []Class
	bySymbol map[string]int // symbol → index into classes
}

// NewClassTable builds a lookup table over the given classes. A symbol
// appearing in multiple classes is assigned to the first one listed.
func NewClassTable(classes []Class) *ClassTable {
	t := &ClassTable{
		classes:  classes,
		bySymbol: make(map[string]int),
	}
	for i, c := range classes {
		for _, m := range c.Members {
			if _, taken := t.bySymbol[m]; !taken {
				t.bySymbol[m] = i
			}
		}
	}
	return t
}

// DefaultClasses returns the built-in merge classes: the close-mid/open-mid
// vowel pairs (plain and length-marked) whose members are routinely confused
// by the acoustic model.
func DefaultClasses() []Class {
	return []Class{
		{Name: "e-vowels", Members: []string{"e", "ɛ", "eː", "ɛː"}},
		{Name: "o-vowels", Members: []string{"o", "ɔ", "oː", "ɔː"}},
		{Name: "oe-vowels", Members: []string{"ø", "œ", "øː", "œː"}},
	}
}

// DefaultClassTable returns a ClassTable over [DefaultClasses].
func DefaultClassTable() *ClassTable {
	return NewClassTable(DefaultClasses())
}

// ClassOf returns the merge class containing symbol, or ok=false when the
// symbol is unassigned and competes with its own probability alone.
func (t *ClassTable) ClassOf(symbol string) (class Class, ok bool) {
	i, ok := t.bySymbol[symbol]
	if !ok {
		return Class{}, false
	}
	return t.classes[i], true
}

// Classes returns the table's class list in construction order.
func (t *ClassTable) Classes() []Class {
	return t.classes
}

// Confidence threshold factor applied to single-frame runs of low-energy
// symbols during decode filtering. Weak approximants and fricatives carry
// less acoustic energy than other phonemes, so a full-strength threshold
// over-filters them; both categories share the lowered one.
const lowEnergyFactor = 0.70

// weakSymbols are approximants and other low-energy sonorants.
var weakSymbols = map[string]struct{}{
	"j": {}, "w": {}, "l": {}, "ɹ": {}, "ʋ": {}, "ɥ": {}, "ɰ": {}, "ʎ": {},
}

// fricativeSymbols are the fricative consonants of the inventory.
var fricativeSymbols = map[string]struct{}{
	"f": {}, "v": {}, "θ": {}, "ð": {}, "s": {}, "z": {}, "ʃ": {}, "ʒ": {},
	"ç": {}, "x": {}, "ɣ": {}, "h": {}, "ʁ": {}, "β": {}, "ʂ": {}, "ʐ": {},
}

// ThresholdFactor returns the multiplier applied to the configured minimum
// confidence when filtering a duration-1 run of symbol: 0.70 for weak
// approximants and fricatives, 1.0 for everything else.
func ThresholdFactor(symbol string) float64 {
	if _, ok := weakSymbols[symbol]; ok {
		return lowEnergyFactor
	}
	if _, ok := fricativeSymbols[symbol]; ok {
		return lowEnergyFactor
	}
	return 1.0
}
