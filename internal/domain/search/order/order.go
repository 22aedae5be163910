// Package order defines sort keys, comparable sort values and keyset positions.
package order

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the native type carried by a Value.
type Kind string

const (
	// KindString is a lexicographically ordered string.
	KindString Kind = "s"
	// KindNumber is a float64.
	KindNumber Kind = "n"
	// KindTime is an instant with millisecond precision.
	KindTime Kind = "t"
)

// Value is a sort-key value of one Kind.
type Value struct {
	kind Kind
	str  string
	num  float64
	at   time.Time
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Time creates a time value truncated to milliseconds.
func Time(t time.Time) Value {
	return Value{kind: KindTime, at: t.UTC().Truncate(time.Millisecond)}
}

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload.
func (v Value) Str() string { return v.str }

// Num returns the numeric payload.
func (v Value) Num() float64 { return v.num }

// At returns the time payload.
func (v Value) At() time.Time { return v.at }

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.num)
	case KindTime:
		return v.at.Format(time.RFC3339Nano)
	default:
		return v.str
	}
}

// kindRank orders mixed kinds: numbers < times < strings.
func kindRank(k Kind) int {
	switch k {
	case KindNumber:
		return 0
	case KindTime:
		return 1
	default:
		return 2
	}
}

// Compare is a total order over values of any kind.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		return cmp.Compare(kindRank(a.kind), kindRank(b.kind))
	}
	switch a.kind {
	case KindNumber:
		return cmp.Compare(a.num, b.num)
	case KindTime:
		return a.at.Compare(b.at)
	default:
		return strings.Compare(a.str, b.str)
	}
}

// Direction is a sort direction.
type Direction string

const (
	// Asc sorts ascending.
	Asc Direction = "asc"
	// Desc sorts descending.
	Desc Direction = "desc"
)

// ParseDirection converts a string into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Asc, Desc:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// Sortable record paths.
const (
	FieldUpdatedAt = "updatedAt"
	FieldName      = "nameNormalized"
	FieldGeohash   = "geo.geohash"
)

// Key is the primary sort field and direction. Ties always break by id ascending.
type Key struct {
	Field     string
	Direction Direction
}

// Default is the listing order when no name or geo filter is active.
var Default = Key{Field: FieldUpdatedAt, Direction: Desc}

// ByName orders name-prefix searches.
var ByName = Key{Field: FieldName, Direction: Asc}

// ByGeohash orders geohash bucket scans.
var ByGeohash = Key{Field: FieldGeohash, Direction: Asc}

// Kind returns the value kind stored under the key's field.
func (k Key) Kind() Kind {
	if k.Field == FieldUpdatedAt {
		return KindTime
	}
	return KindString
}

// Descending reports whether the key sorts descending.
func (k Key) Descending() bool { return k.Direction == Desc }

func (k Key) String() string { return k.Field + " " + string(k.Direction) }

// Position is the (sort value, id) pair of a record under a Key.
type Position struct {
	Value Value
	ID    string
}

// Compare orders two positions under k with id ascending as the tiebreak.
func (k Key) Compare(a, b Position) int {
	c := Compare(a.Value, b.Value)
	if k.Descending() {
		c = -c
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// After reports whether p sorts strictly after the cursor position.
func (k Key) After(p, cursor Position) bool {
	return k.Compare(p, cursor) > 0
}
