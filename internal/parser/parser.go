package parser

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/gclql/internal/ast"
)

// Parse parses a GCLQL query into a syntax tree.
//
// The query is NFC-normalized first so that visually identical input
// produces identical trees and parameters. Returns a *SyntaxError for
// malformed or empty input.
func Parse(query string) (ast.Node, error) {
	input := norm.NFC.String(query)

	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, newSyntaxError(0, "empty query")
	}

	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, newSyntaxError(tok.pos, "unexpected %s", tok.describe())
	}
	return node, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

// peekAt looks ahead n tokens, clamping at the trailing EOF.
func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

// parseExpr folds OR operands left-associatively. A single operand is
// returned unwrapped.
func (p *parser) parseExpr() (ast.Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = ast.Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (ast.Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = ast.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (ast.Node, error) {
	if p.peek().kind != tokNot {
		return p.parseItem()
	}
	p.advance()
	inner, err := p.parseItem()
	if err != nil {
		return nil, err
	}
	return ast.Not{Inner: inner}, nil
}

func (p *parser) parseItem() (ast.Node, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokLParen:
		p.advance()
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.peek(); closing.kind != tokRParen {
			return nil, newSyntaxError(closing.pos, "expected ')', found %s", closing.describe())
		}
		p.advance()
		return node, nil

	case tok.kind == tokIdent && (p.peekAt(1).kind == tokDot || p.peekAt(1).kind == tokOp):
		return p.parseComparison()

	case tok.isValue():
		p.advance()
		return searchFromToken(tok), nil

	default:
		return nil, newSyntaxError(tok.pos, "unexpected %s", tok.describe())
	}
}

func (p *parser) parseComparison() (ast.Node, error) {
	parts := []string{p.advance().text}
	for p.peek().kind == tokDot {
		p.advance()
		tok := p.peek()
		if tok.kind != tokIdent {
			return nil, newSyntaxError(tok.pos, "expected identifier after '.', found %s", tok.describe())
		}
		parts = append(parts, p.advance().text)
	}

	opTok := p.peek()
	if opTok.kind != tokOp {
		return nil, newSyntaxError(opTok.pos, "expected operator after field %q, found %s",
			strings.Join(parts, "."), opTok.describe())
	}
	p.advance()
	op, _ := ast.LookupOperator(opTok.text)

	cmp := ast.Comparison{Field: ast.NewField(parts...), Op: op}
	if p.peek().isValue() {
		cmp.Value = valueFromToken(p.advance())
	}
	return cmp, nil
}

// valueFromToken converts a value token into a typed literal. Numbers
// with a fraction or exponent are floats; integers that overflow int64
// fall back to float.
func valueFromToken(tok token) ast.Value {
	switch tok.kind {
	case tokQuoted:
		return ast.String{Text: tok.text, Quoted: true}
	case tokUUID:
		return ast.UUID(tok.text)
	case tokNumber:
		if !strings.ContainsAny(tok.text, ".eE") {
			if i, err := strconv.ParseInt(tok.text, 10, 64); err == nil {
				return ast.Int(i)
			}
		}
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			// Lexer guarantees a well-formed literal; keep the text.
			return ast.String{Text: tok.text}
		}
		return ast.Float(f)
	case tokStar:
		return ast.Wildcard{}
	default:
		return ast.String{Text: tok.text}
	}
}

// searchFromToken builds a bare search term. Numbers keep their source
// spelling.
func searchFromToken(tok token) ast.GlobalSearch {
	return ast.GlobalSearch{Text: tok.text, Quoted: tok.kind == tokQuoted}
}
