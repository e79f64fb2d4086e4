package lexer

import (
	"errors"
	"testing"

	"github.com/nlstn/go-scimfilter/internal/diag"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:  "Simple comparison",
			input: `userName eq "bjensen"`,
			expected: []TokenType{
				TokenWord, TokenSpace, TokenWord, TokenSpace, TokenString, TokenEOF,
			},
		},
		{
			name:     "Presence",
			input:    "title pr",
			expected: []TokenType{TokenWord, TokenSpace, TokenWord, TokenEOF},
		},
		{
			name:  "Sub-attribute",
			input: "name.familyName",
			expected: []TokenType{
				TokenWord, TokenDot, TokenWord, TokenEOF,
			},
		},
		{
			name:  "Value path",
			input: `emails[type eq "work"]`,
			expected: []TokenType{
				TokenWord, TokenLBracket, TokenWord, TokenSpace, TokenWord, TokenSpace, TokenString, TokenRBracket, TokenEOF,
			},
		},
		{
			name:  "Negation with grouping",
			input: "not (a pr)",
			expected: []TokenType{
				TokenWord, TokenSpace, TokenLParen, TokenWord, TokenSpace, TokenWord, TokenRParen, TokenEOF,
			},
		},
		{
			name:  "Schema URI",
			input: "urn:ietf:params:scim:schemas:core:2.0:User:userName",
			expected: []TokenType{
				TokenWord, TokenColon, TokenWord, TokenColon, TokenWord, TokenColon, TokenWord, TokenColon,
				TokenWord, TokenColon, TokenWord, TokenColon, TokenNumber, TokenColon, TokenWord, TokenColon,
				TokenWord, TokenEOF,
			},
		},
		{
			name:  "Literals",
			input: "true false null -12.5",
			expected: []TokenType{
				TokenBoolean, TokenSpace, TokenBoolean, TokenSpace, TokenNull, TokenSpace, TokenNumber, TokenEOF,
			},
		},
		{
			name:  "Keywords are case-sensitive",
			input: "True NULL",
			expected: []TokenType{
				TokenWord, TokenSpace, TokenWord, TokenEOF,
			},
		},
		{
			name:  "Every space is a token",
			input: "a  b",
			expected: []TokenType{
				TokenWord, TokenSpace, TokenSpace, TokenWord, TokenEOF,
			},
		},
		{
			name:     "Empty input",
			input:    "",
			expected: []TokenType{TokenEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := New(tt.input).All()
			if err != nil {
				t.Fatalf("Tokenization failed: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d: %v", len(tt.expected), len(tokens), tokens)
			}

			for i, expectedType := range tt.expected {
				if tokens[i].Type != expectedType {
					t.Errorf("Token %d: expected type %v, got %v", i, expectedType, tokens[i].Type)
				}
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	tokens, err := New(`emails[type eq "wörk"] or x pr`).All()
	if err != nil {
		t.Fatalf("Tokenization failed: %v", err)
	}

	expected := []struct {
		text string
		pos  int
	}{
		{"emails", 0}, {"[", 6}, {"type", 7}, {" ", 11}, {"eq", 12}, {" ", 14},
		{`"wörk"`, 15}, {"]", 21}, {" ", 22}, {"or", 23}, {" ", 25}, {"x", 26},
		{" ", 27}, {"pr", 28}, {"", 30},
	}

	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, exp := range expected {
		if tokens[i].Text != exp.text || tokens[i].Pos != exp.pos {
			t.Errorf("Token %d: expected %q at %d, got %q at %d", i, exp.text, exp.pos, tokens[i].Text, tokens[i].Pos)
		}
		if tokens[i].Line != 0 {
			t.Errorf("Token %d: expected line 0, got %d", i, tokens[i].Line)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"bjensen"`, "bjensen"},
		{`"O'Malley"`, "O'Malley"},
		{`"O\'Malley"`, "O'Malley"},
		{`'single'`, "single"},
		{`"say \"hi\""`, `say "hi"`},
		{`"back\\slash"`, `back\slash`},
		{`"tab\tnew\nline"`, "tab\tnew\nline"},
		{`"\u00e9t\u00E9"`, "été"},
		{`"\uD83D\uDE00"`, "\U0001F600"},
		{`"a\uD83D\uDE00b"`, "a\U0001F600b"},
		{`"été"`, "été"},
		{`""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			token, next, err := New(tt.input).Next(0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Type != TokenString {
				t.Fatalf("expected TokenString, got %v", token.Type)
			}
			if token.Value != tt.expected {
				t.Errorf("expected value %q, got %q", tt.expected, token.Value)
			}
			if token.Text != tt.input {
				t.Errorf("expected raw text %q, got %q", tt.input, token.Text)
			}
			if next != len([]rune(tt.input)) {
				t.Errorf("expected cursor %d, got %d", len([]rune(tt.input)), next)
			}
		})
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"42", "42"},
		{"-7", "-7"},
		{"3.14", "3.14"},
		{"1e10", "1e10"},
		{"2.5E-3", "2.5E-3"},
		{"2.0:User", "2.0"},
		{"1.x", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			token, _, err := New(tt.input).Next(0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Type != TokenNumber || token.Value != tt.expected {
				t.Errorf("expected number %q, got %v %q", tt.expected, token.Type, token.Value)
			}
		})
	}
}

func TestLexerCursorIsPure(t *testing.T) {
	l := New("a b")

	first, next, err := l.Next(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, againNext, err := l.Next(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != again || next != againNext {
		t.Errorf("expected identical results for the same cursor, got %v/%d and %v/%d", first, next, again, againNext)
	}

	eof, eofNext, err := l.Next(l.Len())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eof.Type != TokenEOF || eofNext != l.Len() || eof.Pos != 3 {
		t.Errorf("expected EOF at 3, got %v at %d", eof.Type, eof.Pos)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Unrecognized character",
			input:    "a eq #",
			expected: "[Syntax Error] line 0, col 5: Error: Unexpected character '#'",
		},
		{
			name:     "Unterminated string",
			input:    `a eq "abc`,
			expected: "[Syntax Error] line 0, col 5: Error: Unterminated string",
		},
		{
			name:     "Trailing backslash",
			input:    `a eq "abc\`,
			expected: "[Syntax Error] line 0, col 5: Error: Unterminated string",
		},
		{
			name:     "Invalid escape",
			input:    `a eq "a\qb"`,
			expected: `[Syntax Error] line 0, col 7: Error: Invalid escape sequence '\q'`,
		},
		{
			name:     "Invalid unicode escape",
			input:    `a eq "\uZZZZ"`,
			expected: `[Syntax Error] line 0, col 6: Error: Invalid escape sequence '\u'`,
		},
		{
			name:     "Lone high surrogate",
			input:    `a eq "\uD800"`,
			expected: `[Syntax Error] line 0, col 6: Error: Invalid escape sequence '\u'`,
		},
		{
			name:     "High surrogate followed by text",
			input:    `a eq "\uD83Dx"`,
			expected: `[Syntax Error] line 0, col 6: Error: Invalid escape sequence '\u'`,
		},
		{
			name:     "High surrogate followed by non-surrogate escape",
			input:    `a eq "\uD83D\u0041"`,
			expected: `[Syntax Error] line 0, col 6: Error: Invalid escape sequence '\u'`,
		},
		{
			name:     "Reversed surrogate pair",
			input:    `a eq "x\uDE00\uD83D"`,
			expected: `[Syntax Error] line 0, col 7: Error: Invalid escape sequence '\u'`,
		},
		{
			name:     "Lone minus",
			input:    "a eq -",
			expected: "[Syntax Error] line 0, col 5: Error: Unexpected character '-'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.input).All()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, err.Error())
			}
			if !errors.Is(err, diag.ErrInvalidFilter) {
				t.Errorf("expected error to match ErrInvalidFilter")
			}
		})
	}
}
