// Package ast defines the immutable syntax tree produced by the SCIM filter parser.
//
// Filter, Factor and ComparablePath are closed unions: the marker methods are
// unexported, so the variants listed on each interface are the only implementations.
// Nodes are built once through the New* constructors and never mutated.
package ast

// Dump keys naming each node kind.
const (
	KindComparisonExpression = "ComparisonExpression"
	KindValuePath            = "ValuePath"
	KindAttributePath        = "AttributePath"
	KindConjunction          = "Conjunction"
	KindDisjunction          = "Disjunction"
	KindNegation             = "Negation"
)

// Node is implemented by every tree element.
type Node interface {
	// String renders the node in its canonical one-line form.
	String() string
	// Dump renders the node as a mapping keyed by its kind name.
	Dump() map[string]interface{}
}

// Filter is a parsed filter: *Conjunction, *Disjunction, *Negation or a Factor.
type Filter interface {
	Node
	filterNode()
}

// Factor is an atomic filter term: *ComparisonExpression or *ValuePath.
type Factor interface {
	Filter
	factorNode()
}

// ComparablePath is the left operand of a comparison: *AttributePath or *ValuePath.
type ComparablePath interface {
	Node
	comparablePath()
}

// Operator is a comparison operator.
type Operator string

const (
	OpEqual              Operator = "eq"
	OpNotEqual           Operator = "ne"
	OpContains           Operator = "co"
	OpStartsWith         Operator = "sw"
	OpEndsWith           Operator = "ew"
	OpGreaterThan        Operator = "gt"
	OpGreaterThanOrEqual Operator = "ge"
	OpLessThan           Operator = "lt"
	OpLessThanOrEqual    Operator = "le"
	OpPresent            Operator = "pr"
)

var operators = map[string]Operator{
	"eq": OpEqual,
	"ne": OpNotEqual,
	"co": OpContains,
	"sw": OpStartsWith,
	"ew": OpEndsWith,
	"gt": OpGreaterThan,
	"ge": OpGreaterThanOrEqual,
	"lt": OpLessThan,
	"le": OpLessThanOrEqual,
	"pr": OpPresent,
}

// ParseOperator maps an operator keyword to its Operator. Matching is case-sensitive.
func ParseOperator(s string) (Operator, bool) {
	op, ok := operators[s]
	return op, ok
}

// IsOrdering reports whether the operator compares by order (gt, ge, lt, le).
func (o Operator) IsOrdering() bool {
	switch o {
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		return true
	}
	return false
}

// IsSubstring reports whether the operator matches substrings (co, sw, ew).
func (o Operator) IsSubstring() bool {
	return o == OpContains || o == OpStartsWith || o == OpEndsWith
}
