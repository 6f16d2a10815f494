package score

import "github.com/soundslike/pronounce/internal/phoneme"

// alignOp is one traceback step of the alignment table.
type alignOp uint8

const (
	opSubstitute alignOp = iota
	opInsert             // actual phoneme with no target counterpart
	opDelete             // target phoneme the speaker dropped
)

// alignSequences computes the minimum-cost monotonic alignment between the
// target and actual phoneme sequences with a full dynamic-programming table
// plus traceback. Substitution cost is the articulatory feature distance of
// the pair; insertions and deletions cost one unit each.
//
// The table is O(len(target)·len(actual)) in space. Sequences here are a
// handful of phonemes per phrase, so the full table (needed for the
// traceback anyway) is the simple and right choice over a rolling row.
func alignSequences(target, actual []string) (totalCost float64, trace []Comparison) {
	lt, la := len(target), len(actual)

	cost := make([][]float64, lt+1)
	op := make([][]alignOp, lt+1)
	for i := range cost {
		cost[i] = make([]float64, la+1)
		op[i] = make([]alignOp, la+1)
	}
	for i := 1; i <= lt; i++ {
		cost[i][0] = float64(i) * deletionCost
		op[i][0] = opDelete
	}
	for j := 1; j <= la; j++ {
		cost[0][j] = float64(j) * insertionCost
		op[0][j] = opInsert
	}

	for i := 1; i <= lt; i++ {
		for j := 1; j <= la; j++ {
			sub := cost[i-1][j-1] + phoneme.Distance(target[i-1], actual[j-1])
			del := cost[i-1][j] + deletionCost
			ins := cost[i][j-1] + insertionCost

			best, bestOp := sub, opSubstitute
			if del < best {
				best, bestOp = del, opDelete
			}
			if ins < best {
				best, bestOp = ins, opInsert
			}
			cost[i][j] = best
			op[i][j] = bestOp
		}
	}

	// Traceback from the bottom-right corner, emitting the alignment in
	// reverse, then flip it.
	var rev []Comparison
	for i, j := lt, la; i > 0 || j > 0; {
		switch {
		case i > 0 && j > 0 && op[i][j] == opSubstitute:
			d := phoneme.Distance(target[i-1], actual[j-1])
			rev = append(rev, Comparison{
				Target:   target[i-1],
				Actual:   actual[j-1],
				Distance: d,
				Match:    d < matchEpsilon,
			})
			i--
			j--
		case j > 0 && (i == 0 || op[i][j] == opInsert):
			rev = append(rev, Comparison{
				Actual:   actual[j-1],
				Distance: insertionCost,
			})
			j--
		default:
			rev = append(rev, Comparison{
				Target:   target[i-1],
				Distance: deletionCost,
			})
			i--
		}
	}

	trace = make([]Comparison, len(rev))
	for i, c := range rev {
		trace[len(rev)-1-i] = c
	}
	return cost[lt][la], trace
}
