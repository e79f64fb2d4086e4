package ast

import (
	"errors"
	"fmt"
)

var (
	errPresenceTakesNoValue = errors.New("operator pr takes no comparison value")
	errUnknownOperator      = errors.New("unknown comparison operator")
)

// ComparisonExpression compares a path against a literal. The value is absent
// exactly when the operator is pr.
type ComparisonExpression struct {
	path     ComparablePath
	operator Operator
	value    Value
	hasValue bool
}

// NewPresence creates a "<path> pr" comparison.
func NewPresence(path ComparablePath) *ComparisonExpression {
	return &ComparisonExpression{path: path, operator: OpPresent}
}

// NewComparison creates a "<path> <op> <value>" comparison. Use NewPresence for pr.
func NewComparison(path ComparablePath, op Operator, value Value) (*ComparisonExpression, error) {
	if op == OpPresent {
		return nil, errPresenceTakesNoValue
	}
	if _, ok := operators[string(op)]; !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownOperator, string(op))
	}
	return &ComparisonExpression{path: path, operator: op, value: value, hasValue: true}, nil
}

func (*ComparisonExpression) filterNode() {}
func (*ComparisonExpression) factorNode() {}

// Path returns the left operand.
func (c *ComparisonExpression) Path() ComparablePath { return c.path }

// Operator returns the comparison operator.
func (c *ComparisonExpression) Operator() Operator { return c.operator }

// Value returns the compared literal; ok is false for pr.
func (c *ComparisonExpression) Value() (value Value, ok bool) {
	return c.value, c.hasValue
}

func (c *ComparisonExpression) String() string {
	if !c.hasValue {
		return c.path.String() + " " + string(c.operator)
	}
	return c.path.String() + " " + string(c.operator) + " " + c.value.String()
}

func (c *ComparisonExpression) Dump() map[string]interface{} {
	return map[string]interface{}{KindComparisonExpression: c.String()}
}

// Conjunction is "<left> and <right>".
type Conjunction struct {
	left  Filter
	right Filter
}

// NewConjunction creates a conjunction node.
func NewConjunction(left, right Filter) *Conjunction {
	return &Conjunction{left: left, right: right}
}

func (*Conjunction) filterNode() {}

// Left returns the left operand.
func (c *Conjunction) Left() Filter { return c.left }

// Right returns the right operand.
func (c *Conjunction) Right() Filter { return c.right }

// String parenthesizes operands only where re-parsing would otherwise regroup them.
func (c *Conjunction) String() string {
	left := c.left.String()
	if _, ok := c.left.(*Disjunction); ok {
		left = "(" + left + ")"
	}
	return left + " and " + groupBinary(c.right)
}

func (c *Conjunction) Dump() map[string]interface{} {
	return map[string]interface{}{KindConjunction: []interface{}{c.left.Dump(), c.right.Dump()}}
}

// Disjunction is "<left> or <right>".
type Disjunction struct {
	left  Filter
	right Filter
}

// NewDisjunction creates a disjunction node.
func NewDisjunction(left, right Filter) *Disjunction {
	return &Disjunction{left: left, right: right}
}

func (*Disjunction) filterNode() {}

// Left returns the left operand.
func (d *Disjunction) Left() Filter { return d.left }

// Right returns the right operand.
func (d *Disjunction) Right() Filter { return d.right }

func (d *Disjunction) String() string {
	right := d.right.String()
	if _, ok := d.right.(*Disjunction); ok {
		right = "(" + right + ")"
	}
	return d.left.String() + " or " + right
}

func (d *Disjunction) Dump() map[string]interface{} {
	return map[string]interface{}{KindDisjunction: []interface{}{d.left.Dump(), d.right.Dump()}}
}

// Negation is "not (<inner>)".
type Negation struct {
	inner Filter
}

// NewNegation creates a negation node.
func NewNegation(inner Filter) *Negation {
	return &Negation{inner: inner}
}

func (*Negation) filterNode() {}

// Inner returns the negated filter.
func (n *Negation) Inner() Filter { return n.inner }

func (n *Negation) String() string {
	return "not (" + n.inner.String() + ")"
}

// Dump maps the kind name directly to the inner filter's dump.
func (n *Negation) Dump() map[string]interface{} {
	return map[string]interface{}{KindNegation: n.inner.Dump()}
}

func groupBinary(f Filter) string {
	switch f.(type) {
	case *Conjunction, *Disjunction:
		return "(" + f.String() + ")"
	}
	return f.String()
}
