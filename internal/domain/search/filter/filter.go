package filter

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 16

// MaxPrefixLength caps prefix (autocomplete) input.
const MaxPrefixLength = 256

// Expression is a structured filter with must/should/must_not boolean semantics.
// It is applied by the store as a pre-filter on the candidate set.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates group sizes and creates an Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	for _, g := range []struct {
		name  string
		conds []Condition
	}{{"must", must}, {"should", should}, {"must_not", mustNot}} {
		if len(g.conds) > MaxConditionsPerGroup {
			return Expression{}, fmt.Errorf("too many %s conditions (max %d)", g.name, MaxConditionsPerGroup)
		}
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// All builds an expression where every condition must hold.
func All(conds ...Condition) (Expression, error) {
	return NewExpression(conds, nil, nil)
}

// And returns a copy of e with extra must conditions appended.
func (e Expression) And(conds ...Condition) (Expression, error) {
	must := make([]Condition, 0, len(e.must)+len(conds))
	must = append(must, e.must...)
	must = append(must, conds...)
	return NewExpression(must, e.should, e.mustNot)
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

// Kind discriminates condition variants.
type Kind int

const (
	// KindMatch is an exact tag match.
	KindMatch Kind = iota + 1
	// KindRange is a numeric range.
	KindRange
	// KindMissing matches documents where the field is absent.
	KindMissing
	// KindPrefix matches text fields whose terms start with the given words.
	KindPrefix
)

// Condition is a single filter clause.
type Condition struct {
	kind      Kind
	key       string
	value     string
	rangeExpr *Range
}

var errKeyRequired = errors.New("filter key is required")

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, errKeyRequired
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{kind: KindMatch, key: key, value: match}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, errKeyRequired
	}
	return Condition{kind: KindRange, key: key, rangeExpr: &r}, nil
}

// NewMissing creates a condition matching documents that lack the field entirely.
// A field holding an empty string is present and does not match.
func NewMissing(key string) (Condition, error) {
	if key == "" {
		return Condition{}, errKeyRequired
	}
	return Condition{kind: KindMissing, key: key}, nil
}

// NewPrefix creates a text prefix condition: every word of prefix must appear,
// the last one as a prefix.
func NewPrefix(key, prefix string) (Condition, error) {
	if key == "" {
		return Condition{}, errKeyRequired
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return Condition{}, fmt.Errorf("prefix is required for key %q", key)
	}
	if len(prefix) > MaxPrefixLength {
		return Condition{}, fmt.Errorf("prefix too long (max %d chars)", MaxPrefixLength)
	}
	if !strings.ContainsFunc(prefix, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
		return Condition{}, errors.New("prefix must contain a letter or digit")
	}
	return Condition{kind: KindPrefix, key: key, value: prefix}, nil
}

// Kind returns the condition variant.
func (c Condition) Kind() Kind { return c.kind }

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string {
	if c.kind != KindMatch {
		return ""
	}
	return c.value
}

// Prefix returns the prefix text.
func (c Condition) Prefix() string {
	if c.kind != KindPrefix {
		return ""
	}
	return c.value
}

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.kind == KindMatch }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.kind == KindRange }

// IsMissing reports whether this is a field-absence condition.
func (c Condition) IsMissing() bool { return c.kind == KindMissing }

// IsPrefix reports whether this is a prefix condition.
func (c Condition) IsPrefix() bool { return c.kind == KindPrefix }

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range. At least one boundary is
// required; gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	switch {
	case gt == nil && gte == nil && lt == nil && lte == nil:
		return Range{}, errors.New("at least one range boundary is required")
	case gt != nil && gte != nil:
		return Range{}, errors.New("cannot specify both gt and gte")
	case lt != nil && lte != nil:
		return Range{}, errors.New("cannot specify both lt and lte")
	}
	lower, upper := cmp.Or(gt, gte), cmp.Or(lt, lte)
	if lower != nil && upper != nil && *lower > *upper {
		return Range{}, fmt.Errorf("lower bound %g is above upper bound %g", *lower, *upper)
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Contains reports whether v falls within the range.
func (r Range) Contains(v float64) bool {
	switch {
	case r.gt != nil && v <= *r.gt:
		return false
	case r.gte != nil && v < *r.gte:
		return false
	case r.lt != nil && v >= *r.lt:
		return false
	case r.lte != nil && v > *r.lte:
		return false
	}
	return true
}
