// internal/checkout/solver.go
//
// Checkout suggestion engine.
// Responsibilities:
//   - Hold the 62-entry scoring pool (S/D/T 1–20, outer bull, bull), built once.
//   - Find the best finishing sequence of at most three darts for a remaining score.
//
// Ordering:
//   - Darts are ranked by points (descending), then by base (descending), so
//     S20 ranks before D10 and S18 before D9 before T6.
//   - Fewer darts always win. Among sequences of the same length, the one whose
//     first dart ranks higher wins, then the second, then the third.
//
// The solver has no state beyond the read-only pool; it is safe to call on
// every dart entry.

package checkout

import (
	"sort"
	"strings"

	"github.com/robalobadob/darts/apps/go-server/internal/dart"
)

const (
	// MaxCheckout is T20 + T20 + Bull.
	MaxCheckout = 170
	// MaxDarts is the number of darts in one visit.
	MaxDarts = 3
)

var (
	pool = buildPool()
	rank = buildRank(pool)
)

// buildPool lists every scoring dart in rank order.
func buildPool() []dart.Dart {
	out := make([]dart.Dart, 0, 62)
	for base := 1; base <= 20; base++ {
		for _, m := range []dart.Multiplier{dart.Single, dart.Double, dart.Triple} {
			out = append(out, dart.Dart{Base: base, Multiplier: m})
		}
	}
	out = append(out,
		dart.Dart{Base: dart.BullBase, Multiplier: dart.Single},
		dart.Dart{Base: dart.BullBase, Multiplier: dart.Double},
	)
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].Points(), out[j].Points()
		if pi != pj {
			return pi > pj
		}
		return out[i].Base > out[j].Base
	})
	return out
}

func buildRank(p []dart.Dart) map[dart.Dart]int {
	m := make(map[dart.Dart]int, len(p))
	for i, d := range p {
		m[d] = i
	}
	return m
}

// Pool returns a copy of the scoring pool in rank order.
func Pool() []dart.Dart {
	out := make([]dart.Dart, len(pool))
	copy(out, pool)
	return out
}

// Suggestion is an ordered finishing sequence of one to three darts.
type Suggestion []dart.Dart

// Total sums the points of the suggestion.
func (s Suggestion) Total() int { return dart.Sum(s) }

// Codes returns the short code of each dart, e.g. ["T20", "T20", "Bull"].
func (s Suggestion) Codes() []string {
	out := make([]string, len(s))
	for i, d := range s {
		out[i] = d.Code()
	}
	return out
}

func (s Suggestion) String() string { return strings.Join(s.Codes(), " ") }

// BestCheckout returns the preferred finish for remaining, or false when no
// sequence of at most three darts reaches exactly zero. With doubleOut the
// last dart must be a double (bull included).
func BestCheckout(remaining int, doubleOut bool) (Suggestion, bool) {
	if remaining <= 1 || remaining > MaxCheckout {
		return nil, false
	}
	finishes := func(d dart.Dart) bool { return !doubleOut || d.IsDouble() }

	// One dart: the pool is in rank order, so the first hit is the best.
	for _, d := range pool {
		if d.Points() == remaining && finishes(d) {
			return Suggestion{d}, true
		}
	}

	var best Suggestion
	consider := func(cand ...dart.Dart) {
		if best == nil || outranks(cand, best) {
			best = append(Suggestion(nil), cand...)
		}
	}

	for _, a := range pool {
		for _, z := range pool {
			if a.Points()+z.Points() == remaining && finishes(z) {
				consider(a, z)
			}
		}
	}
	if best != nil {
		return best, true
	}

	for _, a := range pool {
		for _, b := range pool {
			rest := remaining - a.Points() - b.Points()
			if rest <= 0 {
				continue
			}
			for _, z := range pool {
				if z.Points() == rest && finishes(z) {
					consider(a, b, z)
				}
			}
		}
	}
	if best != nil {
		return best, true
	}
	return nil, false
}

// outranks compares two sequences of equal length dart by dart.
func outranks(a, b []dart.Dart) bool {
	for i := range a {
		ra, rb := rank[a[i]], rank[b[i]]
		if ra != rb {
			return ra < rb
		}
	}
	return false
}
