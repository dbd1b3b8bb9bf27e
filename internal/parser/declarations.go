package parser

import (
	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/token"
)

func (p *Parser) parseDeclaration() ast.Declaration {
	switch p.peek().Kind {
	case token.KW_FUNC:
		return p.parseFunctionDeclaration()
	case token.KW_TYPE:
		return p.parseTypeDeclaration()
	default:
		p.fail(diagnostics.ErrP003, p.peek().Range, p.peek().String())
		return nil
	}
}

// parsePlaceholders parses the optional `[ A, B, ... ]` placeholder list
// following a declaration's name. Absent entirely, it returns nil.
func (p *Parser) parsePlaceholders() []string {
	backtrack := p.position
	p.consumeNewlines()
	if p.consume(token.LBRACKET) == nil {
		p.position = backtrack
		return nil
	}
	var names []string
	p.consumeNewlines()
	for p.peek().Kind != token.RBRACKET {
		names = append(names, p.expectIdentifier().Lexeme)
		p.consumeNewlines()
		if p.consume(token.COMMA) == nil {
			break
		}
		p.consumeNewlines()
	}
	if p.consume(token.RBRACKET) == nil {
		p.expectUnexpected("]")
	}
	return names
}

func (p *Parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	start := p.consume(token.KW_FUNC)
	if start == nil {
		p.expectUnexpected("func")
	}
	name := p.expectIdentifier()
	placeholders := p.parsePlaceholders()

	p.consumeNewlines()
	domain := p.parseDomainOrCodomain()

	p.consumeNewlines()
	if p.consume(token.ARROW) == nil {
		p.expectUnexpected("->")
	}

	p.consumeNewlines()
	codomain := p.parseDomainOrCodomain()

	p.consumeNewlines()
	if p.consume(token.ASSIGN) == nil {
		p.expectUnexpected("=")
	}

	body := p.parseExpression()

	decl := &ast.FunctionDeclaration{
		Name:         name.Lexeme,
		Placeholders: placeholders,
		Domain:       domain,
		Codomain:     codomain,
		Body:         body,
	}
	decl.Rng = token.Range{Start: start.Range.Start, End: body.Range().End}
	return decl
}

func (p *Parser) parseTypeDeclaration() *ast.TypeDeclaration {
	start := p.consume(token.KW_TYPE)
	if start == nil {
		p.expectUnexpected("type")
	}
	name := p.expectIdentifier()
	placeholders := p.parsePlaceholders()

	p.consumeNewlines()
	if p.consume(token.ASSIGN) == nil {
		p.expectUnexpected("=")
	}

	p.consumeNewlines()
	body := p.parseAnnotation()

	decl := &ast.TypeDeclaration{
		Name:         name.Lexeme,
		Placeholders: placeholders,
		Body:         body,
	}
	decl.Rng = token.Range{Start: start.Range.Start, End: body.Range().End}
	return decl
}

// parseDomainOrCodomain handles the `_`, bare-property-sugar (`name: Type`),
// and primary annotation forms shared by function declarations and
// closures' domain and codomain positions. A bare name without a colon is a
// type reference. The primary annotation stops before a top-level `->` or
// `|`, so a declaration's own `->` is left for the caller; arrow and union
// types in this position are written in parentheses. The type of a bare
// property is a full annotation, so it takes a following `->` into itself.
func (p *Parser) parseDomainOrCodomain() ast.TypeExpr {
	if p.peek().Kind == token.UNDERSCORE {
		tok := p.consume()
		n := &ast.Nothing{}
		n.Rng = tok.Range
		return n
	}

	backtrack := p.position
	var prop *ast.ObjectTypeProperty
	p.attempt(func() { prop = p.parseObjectProperty() })
	if prop != nil && prop.Body != nil {
		ot := &ast.ObjectType{Properties: []*ast.ObjectTypeProperty{prop}}
		ot.Rng = prop.Range()
		return ot
	}
	p.position = backtrack
	return p.parsePrimaryAnnotation()
}
