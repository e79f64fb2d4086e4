package diag

import (
	"errors"
	"fmt"
	"testing"
)

func TestSyntaxErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      *SyntaxError
		expected string
	}{
		{"unexpected", Unexpected(0, 5, ExpectComparisonOperator, "a"), "[Syntax Error] line 0, col 5: Error: Expected comparision operator, got 'a'"},
		{"unexpected end", UnexpectedEnd(0, 9, ExpectSP), "[Syntax Error] line 0, col 9: Error: Expected SP, got end of string."},
		{"close bracket", UnexpectedEnd(0, 15, ExpectCloseBracket), "[Syntax Error] line 0, col 15: Error: Expected ']', got end of string."},
		{"character", UnexpectedCharacter(0, 17, '#'), "[Syntax Error] line 0, col 17: Error: Unexpected character '#'"},
		{"unterminated", UnterminatedString(0, 5), "[Syntax Error] line 0, col 5: Error: Unterminated string"},
		{"escape", InvalidEscape(0, 3, 'q'), `[Syntax Error] line 0, col 3: Error: Invalid escape sequence '\q'`},
		{"depth", DepthExceeded(0, 2, 2), "[Syntax Error] line 0, col 2: Error: Maximum nesting depth of 2 exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSyntaxErrorIs(t *testing.T) {
	var err error = fmt.Errorf("parse filter: %w", UnterminatedString(0, 1))

	if !errors.Is(err, ErrInvalidFilter) {
		t.Error("expected wrapped SyntaxError to match ErrInvalidFilter")
	}
	if errors.Is(err, errors.New("scimfilter: invalid filter")) {
		t.Error("expected only the sentinel itself to match")
	}

	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatal("expected errors.As to find the SyntaxError")
	}
	if syntaxErr.Column != 1 || syntaxErr.Line != 0 {
		t.Errorf("position = %d:%d, want 0:1", syntaxErr.Line, syntaxErr.Column)
	}
}
