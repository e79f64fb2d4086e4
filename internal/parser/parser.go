// Package parser implements the recursive-descent SCIM filter parser.
//
// The grammar requires exactly one space between lexical elements, which keeps it
// LL(1) apart from two-token peeks after a space ("and"/"or" or an operator).
package parser

import (
	"strings"

	"github.com/nlstn/go-scimfilter/internal/ast"
	"github.com/nlstn/go-scimfilter/internal/diag"
	"github.com/nlstn/go-scimfilter/internal/lexer"
	"github.com/shopspring/decimal"
)

// Parser holds the state of a single parse. It is not reused across inputs.
type Parser struct {
	lex    *lexer.Lexer
	cfg    Config
	cursor int

	tok     lexer.Token
	prev    lexer.Token
	hasPrev bool
	primed  bool

	inValuePath bool
	depth       int
}

// Parse parses filter text under the given mode and grammar version.
func Parse(input string, mode Mode, version Version) (ast.Filter, error) {
	return ParseWithConfig(input, Config{Mode: mode, Version: version})
}

// ParseWithConfig parses filter text under cfg.
func ParseWithConfig(input string, cfg Config) (ast.Filter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &Parser{lex: lexer.New(input), cfg: cfg}
	return p.Parse()
}

// Parse parses the whole input and verifies nothing follows the filter.
func (p *Parser) Parse() (ast.Filter, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	filter, err := p.parseFilter()
	if err != nil {
		return nil, err
	}

	if p.tok.Type != lexer.TokenEOF {
		return nil, p.unexpected(diag.ExpectEndOfInput)
	}

	return filter, nil
}

// advance moves to the next token
func (p *Parser) advance() error {
	tok, next, err := p.lex.Next(p.cursor)
	if err != nil {
		return err
	}
	if p.primed {
		p.prev = p.tok
		p.hasPrev = true
	}
	p.primed = true
	p.tok = tok
	p.cursor = next
	return nil
}

// peek returns the token after the current one without consuming anything
func (p *Parser) peek() (lexer.Token, error) {
	tok, _, err := p.lex.Next(p.cursor)
	return tok, err
}

// expect checks that the current token has the given type and advances
func (p *Parser) expect(tokenType lexer.TokenType, expected string) error {
	if p.tok.Type != tokenType {
		return p.unexpected(expected)
	}
	return p.advance()
}

// unexpected reports the current token as not matching expected. At the end of
// input the error points at the last consumed token.
func (p *Parser) unexpected(expected string) error {
	if p.tok.Type == lexer.TokenEOF {
		column := p.tok.Pos
		if p.hasPrev {
			column = p.prev.Pos
		}
		return diag.UnexpectedEnd(p.tok.Line, column, expected)
	}
	return diag.Unexpected(p.tok.Line, p.tok.Pos, expected, p.tok.Text)
}

func unexpectedToken(tok lexer.Token, expected string) error {
	return diag.Unexpected(tok.Line, tok.Pos, expected, tok.Text)
}

// enter tracks one more level of nesting
func (p *Parser) enter() error {
	p.depth++
	if p.cfg.MaxDepth > 0 && p.depth > p.cfg.MaxDepth {
		return diag.DepthExceeded(p.tok.Line, p.tok.Pos, p.cfg.MaxDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// atSpaceThen reports whether the current token is a space followed by a word
// accepted by match.
func (p *Parser) atSpaceThen(match func(word string) bool) (bool, error) {
	if p.tok.Type != lexer.TokenSpace {
		return false, nil
	}
	next, err := p.peek()
	if err != nil {
		return false, err
	}
	return next.Type == lexer.TokenWord && match(next.Value), nil
}

func keyword(kw string) func(string) bool {
	return func(word string) bool { return word == kw }
}

func isOperator(word string) bool {
	_, ok := ast.ParseOperator(word)
	return ok
}

// parseFilter handles "or" chains (lowest precedence)
func (p *Parser) parseFilter() (ast.Filter, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		ok, err := p.atSpaceThen(keyword("or"))
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}

		right, err := p.parseLogicalOperand(p.parseTerm)
		if err != nil {
			return nil, err
		}
		left = ast.NewDisjunction(left, right)
	}
}

// parseTerm handles "and" chains
func (p *Parser) parseTerm() (ast.Filter, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for {
		ok, err := p.atSpaceThen(keyword("and"))
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}

		right, err := p.parseLogicalOperand(p.parseFactor)
		if err != nil {
			return nil, err
		}
		left = ast.NewConjunction(left, right)
	}
}

// parseLogicalOperand consumes "SP keyword SP" and parses the right operand
func (p *Parser) parseLogicalOperand(operand func() (ast.Filter, error)) (ast.Filter, error) {
	// space and keyword were already verified by atSpaceThen
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.TokenSpace, diag.ExpectSP); err != nil {
		return nil, err
	}
	return operand()
}

// parseFactor handles groups, negations, value paths and comparisons
func (p *Parser) parseFactor() (ast.Filter, error) {
	switch {
	case p.tok.Type == lexer.TokenLParen:
		return p.parseGroup()
	case p.tok.Type == lexer.TokenWord && p.tok.Value == "not":
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.Type == lexer.TokenLParen || next.Type == lexer.TokenSpace {
			return p.parseNegation()
		}
	}
	return p.parseAttributeExpression()
}

// parseGroup parses "(" filter ")"; the parentheses produce no node
func (p *Parser) parseGroup() (ast.Filter, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if err := p.advance(); err != nil {
		return nil, err
	}
	filter, err := p.parseFilter()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.TokenRParen, diag.ExpectCloseParen); err != nil {
		return nil, err
	}
	return filter, nil
}

// parseNegation parses "not" [SP] "(" filter ")"
func (p *Parser) parseNegation() (ast.Filter, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.TokenSpace {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(lexer.TokenLParen, diag.ExpectOpenParen); err != nil {
		return nil, err
	}
	inner, err := p.parseFilter()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.TokenRParen, diag.ExpectCloseParen); err != nil {
		return nil, err
	}
	return ast.NewNegation(inner), nil
}

// parseAttributeExpression parses a value path or a comparison
func (p *Parser) parseAttributeExpression() (ast.Filter, error) {
	path, err := p.parseAttributePath()
	if err != nil {
		return nil, err
	}

	if p.tok.Type != lexer.TokenLBracket || p.cfg.Version != V2 || p.inValuePath {
		return p.parseComparison(path)
	}

	valuePath, err := p.parseValuePath(path)
	if err != nil {
		return nil, err
	}
	if p.cfg.Mode != ModePath {
		return valuePath, nil
	}

	if p.tok.Type == lexer.TokenDot {
		if valuePath, err = p.parseSubAttribute(valuePath); err != nil {
			return nil, err
		}
	}

	isComparison, err := p.atSpaceThen(isOperator)
	if err != nil {
		return nil, err
	}
	if !isComparison {
		return valuePath, nil
	}
	return p.parseComparison(valuePath)
}

// parseComparison parses SP "pr" or SP compareOp SP compareValue after path
func (p *Parser) parseComparison(path ast.ComparablePath) (ast.Filter, error) {
	if err := p.expect(lexer.TokenSpace, diag.ExpectSP); err != nil {
		return nil, err
	}

	if p.tok.Type != lexer.TokenWord {
		return nil, p.unexpected(diag.ExpectComparisonOperator)
	}
	op, ok := ast.ParseOperator(p.tok.Value)
	if !ok {
		return nil, p.unexpected(diag.ExpectComparisonOperator)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if op == ast.OpPresent {
		return ast.NewPresence(path), nil
	}

	if err := p.expect(lexer.TokenSpace, diag.ExpectSP); err != nil {
		return nil, err
	}
	value, err := p.parseCompareValue()
	if err != nil {
		return nil, err
	}
	comparison, err := ast.NewComparison(path, op, value)
	if err != nil {
		return nil, err
	}
	return comparison, nil
}

// parseCompareValue parses null, true, false, a number or a quoted string
func (p *Parser) parseCompareValue() (ast.Value, error) {
	var value ast.Value

	switch p.tok.Type {
	case lexer.TokenNull:
		value = ast.NullValue()
	case lexer.TokenBoolean:
		value = ast.BoolValue(p.tok.Value == "true")
	case lexer.TokenNumber:
		d, err := decimal.NewFromString(p.tok.Value)
		if err != nil {
			return ast.Value{}, diag.New(p.tok.Line, p.tok.Pos, "Invalid number '%s'", p.tok.Text)
		}
		value = ast.NumberValue(d)
	case lexer.TokenString:
		value = ast.QuotedValue(p.tok.Value)
	default:
		return ast.Value{}, p.unexpected(diag.ExpectComparisonValue)
	}

	return value, p.advance()
}

// parseValuePath parses "[" filter "]" after path. Value paths do not nest.
func (p *Parser) parseValuePath(path *ast.AttributePath) (*ast.ValuePath, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if err := p.advance(); err != nil {
		return nil, err
	}

	outer := p.inValuePath
	p.inValuePath = true
	filter, err := p.parseFilter()
	p.inValuePath = outer
	if err != nil {
		return nil, err
	}

	if err := p.expect(lexer.TokenRBracket, diag.ExpectCloseBracket); err != nil {
		return nil, err
	}
	return ast.NewValuePath(path, filter, nil), nil
}

// parseSubAttribute parses the "." subAttr suffix of a value path
func (p *Parser) parseSubAttribute(valuePath *ast.ValuePath) (*ast.ValuePath, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Type != lexer.TokenWord {
		return nil, p.unexpected(diag.ExpectAttributeName)
	}
	sub := ast.NewAttributePath("", p.tok.Value, "")
	if err := p.advance(); err != nil {
		return nil, err
	}
	return ast.NewValuePath(valuePath.AttributePath(), valuePath.Filter(), sub), nil
}

// parseAttributePath parses [uri ":"] name ["." subName]
func (p *Parser) parseAttributePath() (*ast.AttributePath, error) {
	if p.tok.Type != lexer.TokenWord {
		return nil, p.unexpected(diag.ExpectAttributeName)
	}

	if p.cfg.Version == V2 {
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.Type == lexer.TokenColon {
			return p.parseQualifiedAttributePath()
		}
	}

	name := p.tok.Value
	if err := p.advance(); err != nil {
		return nil, err
	}

	var sub string
	if p.tok.Type == lexer.TokenDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type != lexer.TokenWord {
			return nil, p.unexpected(diag.ExpectAttributeName)
		}
		sub = p.tok.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return ast.NewAttributePath("", name, sub), nil
}

// parseQualifiedAttributePath parses a schema URI prefixed path. URIs contain
// dots and numbers ("core:2.0:User"), so the whole run is read first and split
// at its last colon.
func (p *Parser) parseQualifiedAttributePath() (*ast.AttributePath, error) {
	var segments []lexer.Token
	lastColon := -1
	for isURIToken(p.tok.Type) {
		if p.tok.Type == lexer.TokenColon {
			lastColon = len(segments)
		}
		segments = append(segments, p.tok)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	var uri strings.Builder
	for _, segment := range segments[:lastColon] {
		uri.WriteString(segment.Text)
	}

	tail := segments[lastColon+1:]
	if len(tail) == 0 {
		return nil, p.unexpected(diag.ExpectAttributeName)
	}
	if tail[0].Type != lexer.TokenWord {
		return nil, unexpectedToken(tail[0], diag.ExpectAttributeName)
	}
	if len(tail) == 1 {
		return ast.NewAttributePath(uri.String(), tail[0].Value, ""), nil
	}

	if tail[1].Type != lexer.TokenDot {
		return nil, unexpectedToken(tail[1], diag.ExpectSP)
	}
	if len(tail) == 2 {
		return nil, p.unexpected(diag.ExpectAttributeName)
	}
	if tail[2].Type != lexer.TokenWord {
		return nil, unexpectedToken(tail[2], diag.ExpectAttributeName)
	}
	if len(tail) > 3 {
		return nil, unexpectedToken(tail[3], diag.ExpectSP)
	}
	return ast.NewAttributePath(uri.String(), tail[0].Value, tail[2].Value), nil
}

func isURIToken(tokenType lexer.TokenType) bool {
	switch tokenType {
	case lexer.TokenWord, lexer.TokenNumber, lexer.TokenDot, lexer.TokenColon,
		lexer.TokenBoolean, lexer.TokenNull:
		return true
	}
	return false
}
