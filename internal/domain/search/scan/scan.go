// Package scan is the backend-independent core of a bounded, ordered read:
// predicate, comparator and keyset seek shared by every Source.
package scan

import (
	"slices"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/filter"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
)

// Scan describes one ordered, bounded read.
type Scan struct {
	Filter filter.Expression
	Order  order.Key
	// After resumes strictly after this position.
	After *order.Position
	// Limit bounds the window; zero means unbounded.
	Limit int
}

// Matches reports whether s passes the filter.
func (sc *Scan) Matches(s *showroom.Showroom) bool {
	return sc.Filter.Eval(s.Strings)
}

// Less orders two records by the scan key then id.
func (sc *Scan) Less(a, b *showroom.Showroom) bool {
	return sc.Order.Compare(a.Position(sc.Order), b.Position(sc.Order)) < 0
}

// Sort orders items in place by the scan key then id.
func (sc *Scan) Sort(items []showroom.Showroom) {
	slices.SortStableFunc(items, func(a, b showroom.Showroom) int {
		return sc.Order.Compare(a.Position(sc.Order), b.Position(sc.Order))
	})
}

// Window returns the first Limit matching items after the cursor, in order.
// The input is not modified. Applying Window to its own output is a no-op.
func (sc *Scan) Window(items []showroom.Showroom) []showroom.Showroom {
	out := make([]showroom.Showroom, 0, min(len(items), max(sc.Limit, 0)))
	for i := range items {
		if !sc.Matches(&items[i]) {
			continue
		}
		if sc.After != nil && !sc.Order.After(items[i].Position(sc.Order), *sc.After) {
			continue
		}
		out = append(out, items[i])
	}
	sc.Sort(out)
	if sc.Limit > 0 && len(out) > sc.Limit {
		out = out[:sc.Limit]
	}
	return out
}

// WithLimit returns a copy bounded to n items.
func (sc Scan) WithLimit(n int) *Scan {
	sc.Limit = n
	return &sc
}

// And returns a copy with extra must conditions.
func (sc Scan) And(conds ...filter.Condition) *Scan {
	sc.Filter = sc.Filter.And(conds...)
	return &sc
}

// Merge combines sub-scan results: deduplicated by id, ordered by key, bounded by limit.
func Merge(key order.Key, limit int, parts ...[]showroom.Showroom) []showroom.Showroom {
	seen := make(map[string]struct{})
	var merged []showroom.Showroom
	for _, part := range parts {
		for _, s := range part {
			if _, ok := seen[s.ID]; ok {
				continue
			}
			seen[s.ID] = struct{}{}
			merged = append(merged, s)
		}
	}
	sc := Scan{Order: key}
	sc.Sort(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
