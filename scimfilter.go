// Package scimfilter parses SCIM filter expressions and PATCH path expressions
// into an immutable syntax tree.
//
// The simplest entry point is Parse:
//
//	filter, err := scimfilter.Parse(`emails[type eq "work"] and userName sw "J"`,
//	    scimfilter.ModeFilter, scimfilter.V2)
//	if err != nil {
//	    var syntaxErr *scimfilter.SyntaxError
//	    if errors.As(err, &syntaxErr) {
//	        log.Printf("bad filter at column %d: %s", syntaxErr.Column, syntaxErr.Message)
//	    }
//	    return err
//	}
//	fmt.Println(filter) // emails[type eq work] and userName sw J
//
// NewParser returns a reusable Parser that adds caching, nesting limits,
// structured logging and OpenTelemetry instrumentation. Scope translates a
// parsed filter into a GORM query condition.
package scimfilter

import (
	"github.com/nlstn/go-scimfilter/internal/ast"
	"github.com/nlstn/go-scimfilter/internal/parser"
)

// Filter is a parsed filter: *Conjunction, *Disjunction, *Negation, *ValuePath
// or *ComparisonExpression.
type Filter = ast.Filter

// Factor is an atomic filter term: *ComparisonExpression or *ValuePath.
type Factor = ast.Factor

// ComparablePath is the left operand of a comparison: *AttributePath or *ValuePath.
type ComparablePath = ast.ComparablePath

// AttributePath re-exports the attribute reference type ([uri:]name[.sub]).
type AttributePath = ast.AttributePath

// ValuePath re-exports the attr[filter] node type.
type ValuePath = ast.ValuePath

// ComparisonExpression re-exports the comparison node type.
type ComparisonExpression = ast.ComparisonExpression

// Conjunction re-exports the "and" node type.
type Conjunction = ast.Conjunction

// Disjunction re-exports the "or" node type.
type Disjunction = ast.Disjunction

// Negation re-exports the "not (...)" node type.
type Negation = ast.Negation

// Value re-exports the typed comparison literal.
type Value = ast.Value

// ValueKind re-exports the literal variant enumeration.
type ValueKind = ast.ValueKind

// Operator re-exports the comparison operator type.
type Operator = ast.Operator

// Mode selects between standalone filters and PATCH path expressions.
type Mode = parser.Mode

// Version selects the grammar dialect.
type Version = parser.Version

// Parse modes.
const (
	ModeFilter = parser.ModeFilter
	ModePath   = parser.ModePath
)

// Grammar versions.
const (
	V1 = parser.V1
	V2 = parser.V2
)

// Comparison operators.
const (
	OpEqual              = ast.OpEqual
	OpNotEqual           = ast.OpNotEqual
	OpContains           = ast.OpContains
	OpStartsWith         = ast.OpStartsWith
	OpEndsWith           = ast.OpEndsWith
	OpGreaterThan        = ast.OpGreaterThan
	OpGreaterThanOrEqual = ast.OpGreaterThanOrEqual
	OpLessThan           = ast.OpLessThan
	OpLessThanOrEqual    = ast.OpLessThanOrEqual
	OpPresent            = ast.OpPresent
)

// Literal kinds.
const (
	ValueNull     = ast.ValueNull
	ValueBool     = ast.ValueBool
	ValueNumber   = ast.ValueNumber
	ValueDateTime = ast.ValueDateTime
	ValueString   = ast.ValueString
)

// Parse parses text under mode and version. It is safe for concurrent use.
// Every failure is a *SyntaxError matching ErrInvalidFilter.
func Parse(text string, mode Mode, version Version) (Filter, error) {
	return parser.Parse(text, mode, version)
}

// ParseMode parses "filter" or "path". An empty string selects ModeFilter.
func ParseMode(s string) (Mode, error) {
	return parser.ParseMode(s)
}

// ParseVersion parses "1", "v1", "2" or "v2". An empty string selects V2.
func ParseVersion(s string) (Version, error) {
	return parser.ParseVersion(s)
}

// Walk visits filter and its descendants in pre-order. Returning false from fn
// skips the children of the node just visited.
func Walk(filter Filter, fn func(Filter) bool) {
	ast.Walk(filter, fn)
}

// Attributes returns every attribute path referenced by filter in source order.
func Attributes(filter Filter) []*AttributePath {
	return ast.Attributes(filter)
}
