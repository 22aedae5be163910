package filter

import (
	"fmt"
	"slices"
	"strings"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Expression is a structured filter with must/should/must_not boolean semantics.
// Keys are logical record paths; stores translate them with Rekey.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// And returns a copy of e with extra must conditions. e is not modified.
func (e Expression) And(conds ...Condition) Expression {
	return Expression{
		must:    append(slices.Clip(e.must), conds...),
		should:  e.should,
		mustNot: e.mustNot,
	}
}

// Rekey returns a copy of e with every key passed through fn.
func (e Expression) Rekey(fn func(string) string) Expression {
	re := func(in []Condition) []Condition {
		if in == nil {
			return nil
		}
		out := make([]Condition, len(in))
		for i, c := range in {
			c.key = fn(c.key)
			out[i] = c
		}
		return out
	}
	return Expression{must: re(e.must), should: re(e.should), mustNot: re(e.mustNot)}
}

// Eval applies the expression to a record whose values are returned by get.
func (e Expression) Eval(get func(key string) []string) bool {
	for _, c := range e.must {
		if !c.Eval(get(c.key)) {
			return false
		}
	}
	if len(e.should) > 0 {
		ok := false
		for _, c := range e.should {
			if c.Eval(get(c.key)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, c := range e.mustNot {
		if c.Eval(get(c.key)) {
			return false
		}
	}
	return true
}

// Prefixes returns the must conditions that are prefix matches.
func (e Expression) Prefixes() []Condition {
	var out []Condition
	for _, c := range e.must {
		if c.IsPrefix() {
			out = append(out, c)
		}
	}
	return out
}

// Kind discriminates condition types.
type Kind int

const (
	// KindMatch is an exact tag match.
	KindMatch Kind = iota
	// KindMatchAny matches when any of several tags is present.
	KindMatchAny
	// KindPrefix is a string prefix match.
	KindPrefix
)

// Condition is a single filter clause over a multi-valued field.
type Condition struct {
	key    string
	kind   Kind
	values []string
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, kind: KindMatch, values: []string{match}}, nil
}

// NewMatchAny creates a condition satisfied by any of the given tags.
func NewMatchAny(key string, values ...string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("empty value for key %q", key)
		}
	}
	return Condition{key: key, kind: KindMatchAny, values: slices.Clone(values)}, nil
}

// NewPrefix creates a string prefix condition.
func NewPrefix(key, prefix string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if prefix == "" {
		return Condition{}, fmt.Errorf("prefix is required for key %q", key)
	}
	return Condition{key: key, kind: KindPrefix, values: []string{prefix}}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Kind returns the condition kind.
func (c Condition) Kind() Kind { return c.kind }

// Match returns the exact match value, or the prefix for prefix conditions.
func (c Condition) Match() string {
	if len(c.values) == 0 {
		return ""
	}
	return c.values[0]
}

// Values returns every accepted value.
func (c Condition) Values() []string { return c.values }

// IsMatch reports whether this is an exact match condition.
func (c Condition) IsMatch() bool { return c.kind == KindMatch }

// IsMatchAny reports whether this is a match-any condition.
func (c Condition) IsMatchAny() bool { return c.kind == KindMatchAny }

// IsPrefix reports whether this is a prefix condition.
func (c Condition) IsPrefix() bool { return c.kind == KindPrefix }

// Eval reports whether any of the field values satisfies the condition.
func (c Condition) Eval(fieldValues []string) bool {
	for _, fv := range fieldValues {
		switch c.kind {
		case KindMatch, KindMatchAny:
			if slices.Contains(c.values, fv) {
				return true
			}
		case KindPrefix:
			if strings.HasPrefix(fv, c.values[0]) {
				return true
			}
		}
	}
	return false
}
