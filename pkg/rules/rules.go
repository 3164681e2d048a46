// Package rules evaluates derived-field expressions over a single row's
// field values. The language is deliberately restricted to four operations -
// presence test, equality test, logical or, and a ternary conditional - so
// that every expression terminates, is side-effect free, and re-evaluates
// identically for the same row.
//
// Grammar:
//
//	expr    := or ("?" expr ":" expr)?
//	or      := eq ("||" eq)*
//	eq      := primary ("==" primary)?
//	primary := IDENT | STRING | "(" expr ")"
//
// A bare field name is a presence test in boolean position (non-empty is
// true) and the field's value in value position. "||" returns the first
// non-empty operand, so it doubles as a coalesce. "==" yields "true" or "".
package rules

import (
	"fmt"
	"sync"
)

// Program is a compiled expression
type Program struct {
	root   node
	fields []string
}

// Evaluate runs the program against a row's field values. Missing fields
// evaluate to the empty string.
func (p *Program) Evaluate(values map[string]string) string {
	return p.root.eval(values)
}

// EvaluateBool runs the program and reports truthiness (non-empty result)
func (p *Program) EvaluateBool(values map[string]string) bool {
	return p.root.eval(values) != ""
}

// Fields returns the field names the expression references, in first-use
// order. Used at registry load time to reject expressions over unknown
// fields.
func (p *Program) Fields() []string {
	return p.fields
}

// Evaluator compiles and caches expressions
type Evaluator struct {
	cache map[string]*Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new expression evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*Program)}
}

// Compile parses an expression, caching the result
func (e *Evaluator) Compile(expression string) (*Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	prog, err := compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expression, err)
	}

	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()

	return prog, nil
}

// Evaluate compiles (or fetches) an expression and runs it against a row
func (e *Evaluator) Evaluate(expression string, values map[string]string) (string, error) {
	prog, err := e.Compile(expression)
	if err != nil {
		return "", err
	}
	return prog.Evaluate(values), nil
}

// Validate checks that an expression parses
func (e *Evaluator) Validate(expression string) error {
	_, err := e.Compile(expression)
	return err
}

// AST

type node interface {
	eval(values map[string]string) string
}

type fieldNode struct{ name string }

func (n fieldNode) eval(values map[string]string) string { return values[n.name] }

type literalNode struct{ value string }

func (n literalNode) eval(map[string]string) string { return n.value }

type eqNode struct{ left, right node }

func (n eqNode) eval(values map[string]string) string {
	if n.left.eval(values) == n.right.eval(values) {
		return "true"
	}
	return ""
}

type orNode struct{ operands []node }

func (n orNode) eval(values map[string]string) string {
	for _, op := range n.operands {
		if v := op.eval(values); v != "" {
			return v
		}
	}
	return ""
}

type condNode struct{ cond, then, other node }

func (n condNode) eval(values map[string]string) string {
	if n.cond.eval(values) != "" {
		return n.then.eval(values)
	}
	return n.other.eval(values)
}
