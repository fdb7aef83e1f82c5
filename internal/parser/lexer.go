package parser

import (
	"fmt"
	"regexp"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokDot
	tokAnd
	tokOr
	tokNot
	tokOp
	tokIdent
	tokUUID
	tokNumber
	tokQuoted
	tokStar
)

var tokenNames = map[tokenKind]string{
	tokEOF:    "end of query",
	tokLParen: "'('",
	tokRParen: "')'",
	tokDot:    "'.'",
	tokAnd:    "AND",
	tokOr:     "OR",
	tokNot:    "NOT",
	tokOp:     "operator",
	tokIdent:  "identifier",
	tokUUID:   "uuid",
	tokNumber: "number",
	tokQuoted: "quoted string",
	tokStar:   "'*'",
}

func (k tokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// token is a lexeme. For tokQuoted, text excludes the quote characters.
type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF, tokLParen, tokRParen, tokDot, tokStar, tokAnd, tokOr, tokNot:
		return t.kind.String()
	default:
		return fmt.Sprintf("%s %q", t.kind, t.text)
	}
}

// isValue reports whether the token can stand as a comparison value or
// a bare search term.
func (t token) isValue() bool {
	switch t.kind {
	case tokQuoted, tokUUID, tokNumber, tokIdent, tokStar:
		return true
	}
	return false
}

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// twoCharOps must be tried before single-character operators.
var twoCharOps = []string{"!=", "!:", "!~", ">=", "<=", "=~"}

const oneCharOps = "=><:#"

var keywords = map[string]tokenKind{
	"AND": tokAnd,
	"OR":  tokOr,
	"NOT": tokNot,
}

type lexer struct {
	input string
	pos   int
}

// tokenize splits input into tokens, ending with a tokEOF token.
func tokenize(input string) ([]token, error) {
	lx := &lexer{input: input}
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpace()
	start := lx.pos
	if start >= len(lx.input) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := lx.input[start]
	switch c {
	case '(':
		lx.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		lx.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case '.':
		if start+1 < len(lx.input) && isDigit(lx.input[start+1]) {
			return lx.number()
		}
		lx.pos++
		return token{kind: tokDot, text: ".", pos: start}, nil
	case '*':
		lx.pos++
		return token{kind: tokStar, text: "*", pos: start}, nil
	case '"', '\'':
		return lx.quoted(c)
	}

	for _, op := range twoCharOps {
		if len(lx.input)-start >= 2 && lx.input[start:start+2] == op {
			lx.pos += 2
			return token{kind: tokOp, text: op, pos: start}, nil
		}
	}
	for i := 0; i < len(oneCharOps); i++ {
		if c == oneCharOps[i] {
			lx.pos++
			return token{kind: tokOp, text: string(c), pos: start}, nil
		}
	}

	if tok, ok := lx.uuid(); ok {
		return tok, nil
	}
	if isDigit(c) || c == '+' || c == '-' {
		return lx.number()
	}
	if isIdentStart(c) {
		return lx.ident(), nil
	}

	return token{}, newSyntaxError(start, "unexpected character %q", rune(c))
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.input) {
		switch lx.input[lx.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			lx.pos++
		default:
			return
		}
	}
}

func (lx *lexer) quoted(q byte) (token, error) {
	start := lx.pos
	for i := start + 1; i < len(lx.input); i++ {
		if lx.input[i] == q {
			lx.pos = i + 1
			return token{kind: tokQuoted, text: lx.input[start+1 : i], pos: start}, nil
		}
	}
	return token{}, newSyntaxError(start, "unterminated quoted string")
}

// uuid matches a UUID literal that is not the prefix of a longer
// identifier.
func (lx *lexer) uuid() (token, bool) {
	start := lx.pos
	m := uuidPattern.FindString(lx.input[start:])
	if m == "" {
		return token{}, false
	}
	end := start + len(m)
	if end < len(lx.input) && isIdentChar(lx.input[end]) {
		return token{}, false
	}
	lx.pos = end
	return token{kind: tokUUID, text: m, pos: start}, true
}

// number scans [+-]? (digits ["." digits?] | "." digits) ([eE] [+-]? digits)?
func (lx *lexer) number() (token, error) {
	start := lx.pos
	i := start
	if lx.input[i] == '+' || lx.input[i] == '-' {
		i++
	}
	digits := 0
	for i < len(lx.input) && isDigit(lx.input[i]) {
		i++
		digits++
	}
	if i < len(lx.input) && lx.input[i] == '.' {
		i++
		for i < len(lx.input) && isDigit(lx.input[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return token{}, newSyntaxError(start, "expected number after %q", lx.input[start:i])
	}
	if i < len(lx.input) && (lx.input[i] == 'e' || lx.input[i] == 'E') {
		j := i + 1
		if j < len(lx.input) && (lx.input[j] == '+' || lx.input[j] == '-') {
			j++
		}
		if j < len(lx.input) && isDigit(lx.input[j]) {
			for j < len(lx.input) && isDigit(lx.input[j]) {
				j++
			}
			i = j
		}
	}
	lx.pos = i
	return token{kind: tokNumber, text: lx.input[start:i], pos: start}, nil
}

func (lx *lexer) ident() token {
	start := lx.pos
	i := start + 1
	for i < len(lx.input) && isIdentChar(lx.input[i]) {
		i++
	}
	lx.pos = i
	text := lx.input[start:i]
	if kind, ok := keywords[text]; ok {
		return token{kind: kind, text: text, pos: start}
	}
	return token{kind: tokIdent, text: text, pos: start}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-'
}
