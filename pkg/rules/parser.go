package rules

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenEq       // ==
	tokenOr       // ||
	tokenQuestion // ?
	tokenColon    // :
	tokenLParen   // (
	tokenRParen   // )
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case r == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case r == '?':
			tokens = append(tokens, token{tokenQuestion, "?", i})
			i++
		case r == ':':
			tokens = append(tokens, token{tokenColon, ":", i})
			i++
		case r == '=':
			if i+1 >= len(runes) || runes[i+1] != '=' {
				return nil, fmt.Errorf("unexpected %q at position %d (did you mean ==?)", r, i)
			}
			tokens = append(tokens, token{tokenEq, "==", i})
			i += 2
		case r == '|':
			if i+1 >= len(runes) || runes[i+1] != '|' {
				return nil, fmt.Errorf("unexpected %q at position %d (did you mean ||?)", r, i)
			}
			tokens = append(tokens, token{tokenOr, "||", i})
			i += 2
		case r == '\'' || r == '"':
			quote := r
			start := i
			i++
			var sb strings.Builder
			for i < len(runes) && runes[i] != quote {
				sb.WriteRune(runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated string starting at position %d", start)
			}
			i++ // closing quote
			tokens = append(tokens, token{tokenString, sb.String(), start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{tokenIdent, string(runes[start:i]), start})
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", r, i)
		}
	}

	tokens = append(tokens, token{tokenEOF, "", len(runes)})
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
	fields []string
	seen   map[string]bool
}

func compile(input string) (*Program, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty expression")
	}

	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, seen: make(map[string]bool)}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", p.peek().text, p.peek().pos)
	}

	return &Program{root: root, fields: p.fields}, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("expected %s at position %d, got %q", what, t.pos, t.text)
	}
	return t, nil
}

// expr := or ("?" expr ":" expr)?
func (p *parser) parseExpr() (node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.peek().kind != tokenQuestion {
		return cond, nil
	}
	p.next()

	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenColon, "':'"); err != nil {
		return nil, err
	}
	other, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return condNode{cond: cond, then: then, other: other}, nil
}

// or := eq ("||" eq)*
func (p *parser) parseOr() (node, error) {
	first, err := p.parseEq()
	if err != nil {
		return nil, err
	}

	operands := []node{first}
	for p.peek().kind == tokenOr {
		p.next()
		operand, err := p.parseEq()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}

	if len(operands) == 1 {
		return first, nil
	}
	return orNode{operands: operands}, nil
}

// eq := primary ("==" primary)?
func (p *parser) parseEq() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if p.peek().kind != tokenEq {
		return left, nil
	}
	p.next()

	right, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return eqNode{left: left, right: right}, nil
}

// primary := IDENT | STRING | "(" expr ")"
func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokenIdent:
		if !p.seen[t.text] {
			p.seen[t.text] = true
			p.fields = append(p.fields, t.text)
		}
		return fieldNode{name: t.text}, nil
	case tokenString:
		return literalNode{value: t.text}, nil
	case tokenLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("expected a field, string or '(' at position %d, got %q", t.pos, t.text)
	}
}
