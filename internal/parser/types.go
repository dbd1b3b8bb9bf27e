package parser

import (
	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/token"
)

// parseAnnotation parses a full type-signature expression: a union of one or
// more arrow chains, e.g. `A -> B | {x: Int}`.
func (p *Parser) parseAnnotation() ast.TypeExpr {
	first := p.parseArrowAnnotation()

	p.consumeNewlinesIfFollowedBy(token.PIPE)
	if p.peek().Kind != token.PIPE {
		return first
	}

	members := []ast.TypeExpr{first}
	for p.peek().Kind == token.PIPE {
		p.consume()
		p.consumeNewlines()
		members = append(members, p.parseArrowAnnotation())
		p.consumeNewlinesIfFollowedBy(token.PIPE)
	}
	u := &ast.UnionType{Members: members}
	u.Rng = token.Range{Start: members[0].Range().Start, End: members[len(members)-1].Range().End}
	return u
}

// consumeNewlinesIfFollowedBy skips newlines only when a token of kind k
// follows them, so a trailing `|`/`->` on the next line continues the
// annotation while an unrelated following declaration does not get
// swallowed.
func (p *Parser) consumeNewlinesIfFollowedBy(k token.Kind) {
	backtrack := p.position
	p.consumeNewlines()
	if p.peek().Kind != k {
		p.position = backtrack
	}
}

// parseArrowAnnotation parses a right-associative chain of `->`, e.g.
// `A -> B -> C` as `A -> (B -> C)`.
func (p *Parser) parseArrowAnnotation() ast.TypeExpr {
	domain := p.parsePrimaryAnnotation()

	p.consumeNewlinesIfFollowedBy(token.ARROW)
	if p.peek().Kind != token.ARROW {
		return domain
	}
	p.consume()
	p.consumeNewlines()
	codomain := p.parseArrowAnnotation()

	ft := &ast.FunctionType{Domain: domain, Codomain: codomain}
	ft.Rng = token.Range{Start: domain.Range().Start, End: codomain.Range().End}
	return ft
}

func (p *Parser) parsePrimaryAnnotation() ast.TypeExpr {
	if p.peek().Kind == token.LPAREN {
		p.consume()
		p.consumeNewlines()
		enclosed := p.parseAnnotation()
		p.consumeNewlines()
		if p.consume(token.RPAREN) == nil {
			p.fail(diagnostics.ErrP004, p.peek().Range)
		}
		return enclosed
	}

	if p.peek().Kind == token.UNDERSCORE {
		tok := p.consume()
		n := &ast.Nothing{}
		n.Rng = tok.Range
		return n
	}

	if p.peek().Kind == token.IDENTIFIER {
		return p.parseIdentifierTypeExpr()
	}

	return p.parseObjectType()
}

// parseIdentifierTypeExpr parses an identifier in type-signature position,
// including its optional specializer arguments: `List[Int]`, `Pair[A=Int]`.
func (p *Parser) parseIdentifierTypeExpr() *ast.Identifier {
	tok := p.expectIdentifier()
	id := &ast.Identifier{Name: tok.Lexeme}
	id.Rng = tok.Range

	backtrack := p.position
	p.consumeNewlines()
	if p.consume(token.LBRACKET) == nil {
		p.position = backtrack
		return id
	}

	specializers := map[string]ast.TypeExpr{}
	p.consumeNewlines()
	index := 0
	for p.peek().Kind != token.RBRACKET {
		key, value := p.parseSpecializerArg(index)
		specializers[key] = value
		index++
		p.consumeNewlines()
		if p.consume(token.COMMA) == nil {
			break
		}
		p.consumeNewlines()
	}
	end := p.consume(token.RBRACKET)
	if end == nil {
		p.expectUnexpected("]")
	}
	id.Specializers = specializers
	id.Rng = token.Range{Start: tok.Range.Start, End: end.Range.End}
	return id
}

// parseSpecializerArg parses one entry of a specializer list: either
// `Name = Annotation` or a bare `Annotation`, which sugars to the `_0` key
// (valid only when it is the list's sole, 0-indexed entry — enforced later,
// during signature inference, not here).
func (p *Parser) parseSpecializerArg(index int) (string, ast.TypeExpr) {
	backtrack := p.position
	var name string
	matched := p.attempt(func() {
		nameTok := p.expectIdentifier()
		p.consumeNewlines()
		if p.consume(token.ASSIGN) == nil {
			p.fail(diagnostics.ErrP001, p.peek().Range, p.peek().String(), "=")
		}
		name = nameTok.Lexeme
	})
	if matched {
		p.consumeNewlines()
		return name, p.parseAnnotation()
	}
	p.position = backtrack
	if index == 0 {
		return "_0", p.parseAnnotation()
	}
	return p.expectIdentifier().Lexeme, p.parseAnnotation()
}

func (p *Parser) parseObjectType() *ast.ObjectType {
	start := p.consume(token.LBRACE)
	if start == nil {
		p.expectUnexpected("{")
	}
	var props []*ast.ObjectTypeProperty
	p.consumeNewlines()
	for p.peek().Kind != token.RBRACE {
		props = append(props, p.parseObjectProperty())
		p.consumeNewlines()
		if p.consume(token.COMMA) == nil {
			break
		}
		p.consumeNewlines()
	}
	end := p.consume(token.RBRACE)
	if end == nil {
		p.expectUnexpected("}")
	}
	ot := &ast.ObjectType{Properties: props}
	ot.Rng = token.Range{Start: start.Range.Start, End: end.Range.End}
	return ot
}

func (p *Parser) parseObjectProperty() *ast.ObjectTypeProperty {
	nameTok := p.expectIdentifier()

	backtrack := p.position
	p.consumeNewlines()
	var body ast.TypeExpr
	end := nameTok.Range.End
	if p.consume(token.COLON) != nil {
		p.consumeNewlines()
		body = p.parseAnnotation()
		end = body.Range().End
	} else {
		p.position = backtrack
	}

	prop := &ast.ObjectTypeProperty{Name: nameTok.Lexeme, Body: body}
	prop.Rng = token.Range{Start: nameTok.Range.Start, End: end}
	return prop
}
