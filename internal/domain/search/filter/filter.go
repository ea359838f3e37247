package filter

import (
	"fmt"
	"strings"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// MaxValuesPerCondition bounds the value set of an any-of or text condition.
const MaxValuesPerCondition = 64

// Expression is a structured filter with must/should/must_not boolean semantics.
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

// Kind is the shape of a condition.
type Kind int

// Condition kinds.
const (
	KindMatch Kind = iota + 1
	KindAnyOf
	KindRange
	KindText
)

// Condition is a single filter clause on one (or, for text, several) fields.
type Condition struct {
	kind      Kind
	keys      []string
	values    []string
	rangeExpr *Range
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{kind: KindMatch, keys: []string{key}, values: []string{match}}, nil
}

// NewAnyOf creates a tag condition satisfied by any of the values.
func NewAnyOf(key string, values []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	vals, err := cleanValues(key, values)
	if err != nil {
		return Condition{}, err
	}
	if len(vals) == 1 {
		return Condition{kind: KindMatch, keys: []string{key}, values: vals}, nil
	}
	return Condition{kind: KindAnyOf, keys: []string{key}, values: vals}, nil
}

// NewText creates a full-text condition: every term must occur in at least
// one of the keyed fields.
func NewText(keys []string, terms []string) (Condition, error) {
	if len(keys) == 0 {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	for _, k := range keys {
		if k == "" {
			return Condition{}, fmt.Errorf("filter key is required")
		}
	}
	vals, err := cleanValues(strings.Join(keys, "|"), terms)
	if err != nil {
		return Condition{}, err
	}
	return Condition{kind: KindText, keys: keys, values: vals}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{kind: KindRange, keys: []string{key}, rangeExpr: &r}, nil
}

func cleanValues(key string, values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one value is required for key %q", key)
	}
	if len(out) > MaxValuesPerCondition {
		return nil, fmt.Errorf("too many values for key %q (max %d)", key, MaxValuesPerCondition)
	}
	return out, nil
}

// Kind returns the condition shape.
func (c Condition) Kind() Kind { return c.kind }

// Key returns the (first) field name.
func (c Condition) Key() string {
	if len(c.keys) == 0 {
		return ""
	}
	return c.keys[0]
}

// Keys returns all field names; only text conditions have more than one.
func (c Condition) Keys() []string { return c.keys }

// Match returns the exact match value.
func (c Condition) Match() string {
	if c.kind != KindMatch {
		return ""
	}
	return c.values[0]
}

// Values returns the value set of match, any-of and text conditions.
func (c Condition) Values() []string { return c.values }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a single-value match condition.
func (c Condition) IsMatch() bool { return c.kind == KindMatch }

// IsAnyOf reports whether this is a multi-value tag condition.
func (c Condition) IsAnyOf() bool { return c.kind == KindAnyOf }

// IsText reports whether this is a full-text condition.
func (c Condition) IsText() bool { return c.kind == KindText }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.kind == KindRange }

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	lo, hi := gt, lt
	if lo == nil {
		lo = gte
	}
	if hi == nil {
		hi = lte
	}
	if lo != nil && hi != nil && *lo > *hi {
		return Range{}, fmt.Errorf("lower bound %v is greater than upper bound %v", *lo, *hi)
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
