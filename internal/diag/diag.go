// Package diag builds the position-tracked syntax errors shared by the lexer and parser.
package diag

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter is matched by every SyntaxError through errors.Is.
var ErrInvalidFilter = errors.New("scimfilter: invalid filter")

// Expectations used in "Expected X, got Y" messages. The wording is part of the
// public contract and must stay byte-stable.
const (
	ExpectSP                 = "SP"
	ExpectComparisonOperator = "comparision operator"
	ExpectComparisonValue    = "comparison value"
	ExpectEndOfInput         = "end of input"
	ExpectAttributeName      = "attribute name"
	ExpectOpenParen          = "'('"
	ExpectCloseParen         = "')'"
	ExpectCloseBracket       = "']'"
)

// SyntaxError describes the first lexical or grammar violation found in a filter.
// Column is a character (rune) offset from the start of the input.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

// Error renders the error in the "[Syntax Error] line L, col C: Error: M" form.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("[Syntax Error] line %d, col %d: Error: %s", e.Line, e.Column, e.Message)
}

// Is reports whether target is ErrInvalidFilter.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrInvalidFilter
}

// New creates a SyntaxError with a free-form message.
func New(line, column int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Line:    line,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	}
}

// Unexpected reports that expected was required but the token text got was found.
func Unexpected(line, column int, expected, got string) *SyntaxError {
	return New(line, column, "Expected %s, got '%s'", expected, got)
}

// UnexpectedEnd reports that expected was required but the input ended.
func UnexpectedEnd(line, column int, expected string) *SyntaxError {
	return New(line, column, "Expected %s, got end of string.", expected)
}

// UnexpectedCharacter reports a rune the lexer cannot start a token with.
func UnexpectedCharacter(line, column int, ch rune) *SyntaxError {
	return New(line, column, "Unexpected character '%c'", ch)
}

// UnterminatedString reports a quoted string without its closing quote.
func UnterminatedString(line, column int) *SyntaxError {
	return New(line, column, "Unterminated string")
}

// InvalidEscape reports an unsupported backslash escape inside a quoted string.
func InvalidEscape(line, column int, ch rune) *SyntaxError {
	return New(line, column, "Invalid escape sequence '\\%c'", ch)
}

// DepthExceeded reports that grouping, negation or value-path nesting exceeded max.
func DepthExceeded(line, column, max int) *SyntaxError {
	return New(line, column, "Maximum nesting depth of %d exceeded", max)
}
