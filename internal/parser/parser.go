// Package parser turns a token stream into Mamba's AST. It is a recursive-
// descent parser with an explicit backtracking primitive (attempt), a flat
// family of parse methods over a rewindable stream position, and precedence
// climbing for infix expressions.
package parser

import (
	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/token"
)

type associativity int

const (
	leftAssoc associativity = iota
	rightAssoc
)

type operatorInfo struct {
	precedence    int
	associativity associativity
}

var infixOperators = map[string]operatorInfo{
	"||": {10, leftAssoc},
	"&&": {20, leftAssoc},
	"^":  {30, leftAssoc},
	"==": {40, leftAssoc},
	"!=": {40, leftAssoc},
	"<":  {50, leftAssoc},
	"<=": {50, leftAssoc},
	">":  {50, leftAssoc},
	">=": {50, leftAssoc},
	"+":  {60, leftAssoc},
	"-":  {60, leftAssoc},
	"*":  {70, leftAssoc},
	"/":  {70, leftAssoc},
	"%":  {70, leftAssoc},
	"**": {80, rightAssoc},
	".":  {90, leftAssoc},
}

var prefixOperators = map[string]bool{"+": true, "-": true}
var postfixOperators = map[string]bool{"!": true}

// Parser consumes a fixed token stream and produces a *ast.Module, or a set
// of diagnostics if it cannot. It never panics on malformed input; parse
// failures are communicated through parseError (used internally by attempt
// to drive backtracking) and surfaced to the caller as diagnostics.
type Parser struct {
	stream   []token.Token
	position int

	Errors []*diagnostics.DiagnosticError
}

// New creates a Parser over a complete token stream (including the
// trailing EOF token lexer.All produces).
func New(stream []token.Token) *Parser {
	return &Parser{stream: stream}
}

// parseError is raised internally to unwind an attempt(); Parse recovers the
// outermost one as a diagnostic.
type parseError struct {
	err *diagnostics.DiagnosticError
}

func (e parseError) Error() string { return e.err.Error() }

func (p *Parser) fail(code diagnostics.ErrorCode, rng token.Range, args ...interface{}) {
	panic(parseError{err: diagnostics.New(diagnostics.PhaseParser, code, rng, args...)})
}

func (p *Parser) peek() token.Token {
	if p.position >= len(p.stream) {
		return p.stream[len(p.stream)-1]
	}
	return p.stream[p.position]
}

func (p *Parser) consume(kinds ...token.Kind) *token.Token {
	if p.position >= len(p.stream) {
		return nil
	}
	t := p.stream[p.position]
	if len(kinds) > 0 {
		matched := false
		for _, k := range kinds {
			if t.Kind == k {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
	}
	p.position++
	return &t
}

func (p *Parser) consumeNewlines() {
	for p.position < len(p.stream) && p.stream[p.position].Kind == token.NEWLINE {
		p.position++
	}
}

func (p *Parser) expectUnexpected(expected string) {
	p.fail(diagnostics.ErrP001, p.peek().Range, p.peek().String(), expected)
}

func (p *Parser) expectIdentifier() *token.Token {
	tok := p.consume(token.IDENTIFIER)
	if tok == nil {
		p.fail(diagnostics.ErrP002, p.peek().Range, p.peek().String())
	}
	return tok
}

// attempt runs fn, rewinding the stream position and swallowing any
// parseError it panics with, returning ok=false on failure. It is the only
// backtracking primitive the parser uses.
func (p *Parser) attempt(fn func()) (ok bool) {
	backtrack := p.position
	defer func() {
		if r := recover(); r != nil {
			if _, isParseErr := r.(parseError); isParseErr {
				p.position = backtrack
				ok = false
				return
			}
			panic(r)
		}
	}()
	fn()
	return true
}

// Parse runs the parser to completion. It never panics outward: an
// unrecovered parseError at the top level is captured into p.Errors and nil
// is returned for the module.
func (p *Parser) Parse() (module *ast.Module, errs []*diagnostics.DiagnosticError) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(parseError); ok {
				p.Errors = append(p.Errors, pe.err)
				module = nil
				errs = p.Errors
				return
			}
			panic(r)
		}
	}()

	var decls []ast.Declaration
	for {
		p.consumeNewlines()
		if p.peek().Kind == token.EOF {
			break
		}
		decls = append(decls, p.parseDeclaration())
	}

	var rng token.Range
	if len(decls) > 0 {
		rng = token.Range{Start: decls[0].Range().Start, End: decls[len(decls)-1].Range().End}
	}
	mod := &ast.Module{Declarations: decls}
	mod.Rng = rng
	return mod, p.Errors
}
