package federated

import (
	"sort"

	"github.com/tracebase/findex/internal/domain/federated/result"
	"github.com/tracebase/findex/internal/domain/federated/sortmode"
)

// Diversity pass tuning. Only the head of the merged list is rearranged;
// users scanning the top of a mixed-type result set should not see one
// type crowd out the rest.
const (
	diversityWindow = 10
	maxTypeRun      = 4
)

// sortResults orders the merged provider output. The input slice is not
// modified. Ordering is fully deterministic: every comparator ends in the
// (type, record_id) tie-break, so equal-score equal-time hits always land
// in the same order.
func sortResults(results []result.Result, mode sortmode.Mode, multiType bool) []result.Result {
	out := append([]result.Result(nil), results...)

	switch mode {
	case sortmode.MostRecent:
		sort.SliceStable(out, func(i, j int) bool { return recencyLess(out[i], out[j]) })
		if multiType {
			out = diversify(out)
		}
	default:
		sort.SliceStable(out, func(i, j int) bool { return bestMatchLess(out[i], out[j]) })
	}
	return out
}

func bestMatchLess(a, b result.Result) bool {
	if a.ScoreBucket() != b.ScoreBucket() {
		return a.ScoreBucket() < b.ScoreBucket()
	}
	return recencyLess(a, b)
}

func recencyLess(a, b result.Result) bool {
	if !a.UpdatedAt().Equal(b.UpdatedAt()) {
		return a.UpdatedAt().After(b.UpdatedAt())
	}
	if a.Type() != b.Type() {
		return a.Type() < b.Type()
	}
	return a.RecordID() < b.RecordID()
}

// diversify rearranges the head of a recency-sorted list so no entity
// type occupies more than maxTypeRun consecutive slots. Within the head
// window each slot takes the most recent candidate whose type keeps the
// run legal; when every remaining candidate would break the run the most
// recent one is taken anyway. The tail past the window keeps strict
// recency order.
func diversify(sorted []result.Result) []result.Result {
	window := diversityWindow
	if len(sorted) < window {
		window = len(sorted)
	}

	remaining := append([]result.Result(nil), sorted...)
	out := make([]result.Result, 0, len(sorted))

	lastType := ""
	run := 0
	for len(out) < window {
		pick := 0
		for i, r := range remaining {
			if r.Type() != lastType || run < maxTypeRun {
				pick = i
				break
			}
		}
		r := remaining[pick]
		remaining = append(remaining[:pick], remaining[pick+1:]...)
		if r.Type() == lastType {
			run++
		} else {
			lastType = r.Type()
			run = 1
		}
		out = append(out, r)
	}
	return append(out, remaining...)
}
