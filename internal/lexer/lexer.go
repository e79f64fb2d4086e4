package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/nlstn/go-scimfilter/internal/diag"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenDot
	TokenColon
	TokenSpace
	TokenWord
	TokenString
	TokenNumber
	TokenBoolean
	TokenNull
)

var tokenTypeNames = [...]string{
	TokenEOF:      "EOF",
	TokenLParen:   "LParen",
	TokenRParen:   "RParen",
	TokenLBracket: "LBracket",
	TokenRBracket: "RBracket",
	TokenDot:      "Dot",
	TokenColon:    "Colon",
	TokenSpace:    "Space",
	TokenWord:     "Word",
	TokenString:   "String",
	TokenNumber:   "Number",
	TokenBoolean:  "Boolean",
	TokenNull:     "Null",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "TokenType(" + strconv.Itoa(int(t)) + ")"
}

// Token represents a single token in the filter expression.
// Value holds the unescaped content of string literals and equals Text otherwise.
type Token struct {
	Type  TokenType
	Value string
	Text  string
	Pos   int
	Line  int
}

// Lexer tokenizes SCIM filter expressions. It keeps no position of its own:
// callers thread the cursor returned by Next into the following call.
type Lexer struct {
	input []rune
}

// New creates a lexer over input. Offsets are counted in runes.
func New(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

// Len returns the input length in runes.
func (l *Lexer) Len() int {
	return len(l.input)
}

// Next returns the token starting at cursor and the cursor just past it.
// At the end of input it keeps returning a TokenEOF token.
func (l *Lexer) Next(cursor int) (Token, int, error) {
	if cursor >= len(l.input) {
		return Token{Type: TokenEOF, Pos: len(l.input)}, len(l.input), nil
	}

	ch := l.input[cursor]

	if tokenType, ok := punctuation[ch]; ok {
		text := string(ch)
		return Token{Type: tokenType, Value: text, Text: text, Pos: cursor}, cursor + 1, nil
	}

	switch {
	case ch == '"' || ch == '\'':
		return l.readString(cursor)
	case isDigit(ch) || (ch == '-' && cursor+1 < len(l.input) && isDigit(l.input[cursor+1])):
		return l.readNumber(cursor)
	case isWordStart(ch):
		return l.readWord(cursor)
	}

	return Token{}, cursor, diag.UnexpectedCharacter(0, cursor, ch)
}

// All returns every token of the input, ending with TokenEOF.
func (l *Lexer) All() ([]Token, error) {
	var tokens []Token
	cursor := 0
	for {
		token, next, err := l.Next(cursor)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
		if token.Type == TokenEOF {
			return tokens, nil
		}
		cursor = next
	}
}

var punctuation = map[rune]TokenType{
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLBracket,
	']': TokenRBracket,
	'.': TokenDot,
	':': TokenColon,
	' ': TokenSpace,
}

var simpleEscapes = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'\\': '\\',
	'/':  '/',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
}

// readString reads a quoted string starting at the opening quote
func (l *Lexer) readString(start int) (Token, int, error) {
	quote := l.input[start]
	var value strings.Builder

	i := start + 1
	for i < len(l.input) {
		ch := l.input[i]
		switch {
		case ch == quote:
			i++
			return Token{
				Type:  TokenString,
				Value: value.String(),
				Text:  string(l.input[start:i]),
				Pos:   start,
			}, i, nil
		case ch == '\\':
			if i+1 >= len(l.input) {
				return Token{}, start, diag.UnterminatedString(0, start)
			}
			escaped := l.input[i+1]
			if r, ok := simpleEscapes[escaped]; ok {
				value.WriteRune(r)
				i += 2
				continue
			}
			if escaped != 'u' {
				return Token{}, start, diag.InvalidEscape(0, i, escaped)
			}
			r, next, ok := l.readUnicodeEscape(i)
			if !ok {
				return Token{}, start, diag.InvalidEscape(0, i, escaped)
			}
			value.WriteRune(r)
			i = next
		default:
			value.WriteRune(ch)
			i++
		}
	}

	return Token{}, start, diag.UnterminatedString(0, start)
}

// readUnicodeEscape decodes the \uXXXX escape at i. A high surrogate must be
// followed by a \uXXXX low surrogate; unpaired surrogates are rejected.
func (l *Lexer) readUnicodeEscape(i int) (rune, int, bool) {
	high, ok := l.hexQuad(i)
	if !ok {
		return 0, i, false
	}
	if !utf16.IsSurrogate(high) {
		return high, i + 6, true
	}
	if high >= 0xDC00 {
		return 0, i, false
	}

	low, ok := l.hexQuad(i + 6)
	if !ok {
		return 0, i, false
	}
	r := utf16.DecodeRune(high, low)
	if r == unicode.ReplacementChar {
		return 0, i, false
	}
	return r, i + 12, true
}

// hexQuad parses the four hex digits of a \uXXXX escape starting at i.
func (l *Lexer) hexQuad(i int) (rune, bool) {
	if i+6 > len(l.input) || l.input[i] != '\\' || l.input[i+1] != 'u' {
		return 0, false
	}
	code, err := strconv.ParseUint(string(l.input[i+2:i+6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(code), true
}

// readNumber reads an optionally signed integer, decimal or exponent number
func (l *Lexer) readNumber(start int) (Token, int, error) {
	i := start
	if l.input[i] == '-' {
		i++
	}
	i = l.skipDigits(i)

	if i+1 < len(l.input) && l.input[i] == '.' && isDigit(l.input[i+1]) {
		i = l.skipDigits(i + 1)
	}

	if i < len(l.input) && (l.input[i] == 'e' || l.input[i] == 'E') {
		j := i + 1
		if j < len(l.input) && (l.input[j] == '+' || l.input[j] == '-') {
			j++
		}
		if j < len(l.input) && isDigit(l.input[j]) {
			i = l.skipDigits(j)
		}
	}

	text := string(l.input[start:i])
	return Token{Type: TokenNumber, Value: text, Text: text, Pos: start}, i, nil
}

// readWord reads an identifier, operator or keyword
func (l *Lexer) readWord(start int) (Token, int, error) {
	i := start + 1
	for i < len(l.input) && isWordPart(l.input[i]) {
		i++
	}

	text := string(l.input[start:i])
	tokenType := TokenWord
	switch text {
	case "true", "false":
		tokenType = TokenBoolean
	case "null":
		tokenType = TokenNull
	}
	return Token{Type: tokenType, Value: text, Text: text, Pos: start}, i, nil
}

func (l *Lexer) skipDigits(i int) int {
	for i < len(l.input) && isDigit(l.input[i]) {
		i++
	}
	return i
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isWordStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_' || ch == '$'
}

func isWordPart(ch rune) bool {
	return isWordStart(ch) || unicode.IsDigit(ch) || ch == '-'
}
