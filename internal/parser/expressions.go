package parser

import (
	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/token"
)

// parseExpression parses a full expression: an optional closure, otherwise
// an atom, followed by as many infix operators as precedence climbing
// allows.
func (p *Parser) parseExpression() ast.Expression {
	var left ast.Expression
	if !p.attempt(func() { left = p.parseClosureExpression() }) {
		left = p.parseAtom()
	}
	return p.parseInfix(left, 0)
}

// parseInfix folds every infix operator of precedence >= minPrecedence onto
// left, climbing into the right operand whenever a tighter-binding (or
// right-associative same-precedence) operator follows it.
func (p *Parser) parseInfix(left ast.Expression, minPrecedence int) ast.Expression {
	for {
		backtrack := p.position
		p.consumeNewlines()
		opTok := p.consumeInfixOperator()
		if opTok == nil {
			p.position = backtrack
			return left
		}
		info := infixOperators[opTok.Lexeme]
		if info.precedence < minPrecedence {
			p.position = backtrack
			return left
		}

		var right ast.Expression
		if opTok.Lexeme == "." {
			right = p.parseFieldName()
		} else {
			right = p.parseAtom()
		}

		for {
			lookahead := p.position
			p.consumeNewlines()
			nextTok := p.consumeInfixOperator()
			p.position = lookahead
			if nextTok == nil {
				break
			}
			next := infixOperators[nextTok.Lexeme]
			if next.precedence > info.precedence {
				right = p.parseInfix(right, info.precedence+1)
			} else if next.precedence == info.precedence && next.associativity == rightAssoc {
				right = p.parseInfix(right, info.precedence)
			} else {
				break
			}
		}

		infix := &ast.InfixExpression{Operator: identifierFromToken(*opTok), Left: left, Right: right}
		infix.Rng = token.Range{Start: left.Range().Start, End: right.Range().End}
		left = infix
	}
}

// consumeInfixOperator consumes the next token if it is a known infix
// operator, folding in the single-character tokens the lexer assigns their
// own Kind (PLUS, DOT) so `.` field access and `+` participate in the same
// machinery as multi-character operators lexed as OPERATOR. The caller is
// responsible for rewinding on a nil return.
func (p *Parser) consumeInfixOperator() *token.Token {
	tok := p.consume(token.OPERATOR)
	if tok == nil {
		switch p.peek().Kind {
		case token.PLUS, token.DOT:
			tok = p.consume()
		}
	}
	if tok == nil {
		return nil
	}
	if _, known := infixOperators[tok.Lexeme]; !known {
		return nil
	}
	return tok
}

func identifierFromToken(tok token.Token) *ast.Identifier {
	id := &ast.Identifier{Name: tok.Lexeme}
	id.Rng = tok.Range
	return id
}

func (p *Parser) parseAtom() ast.Expression {
	start := p.peek()

	var atom ast.Expression
	switch start.Kind {
	case token.LPAREN:
		p.consume()
		p.consumeNewlines()
		enclosed := p.parseExpression()
		p.consumeNewlines()
		if p.consume(token.RPAREN) == nil {
			p.fail(diagnostics.ErrP004, p.peek().Range)
		}
		atom = enclosed

	case token.BOOLEAN, token.INTEGER, token.FLOAT, token.STRING:
		atom = p.parseScalarLiteral()

	case token.IDENTIFIER:
		atom = p.parseIdentifierExpr()

	case token.DOLLAR:
		tok := p.consume()
		ref := &ast.ArgRef{}
		ref.Rng = tok.Range
		atom = ref

	case token.LBRACKET:
		atom = p.parseListLiteral()

	case token.LBRACE:
		atom = p.parseObjectLiteral()

	case token.KW_IF:
		atom = p.parseIfExpression()

	case token.KW_MATCH:
		atom = p.parseMatchExpression()

	case token.OPERATOR, token.PLUS:
		if prefixOperators[start.Lexeme] {
			atom = p.parsePrefixExpression()
		} else {
			p.expectUnexpected("expression")
		}

	default:
		p.expectUnexpected("expression")
	}

	return p.parseSuffix(atom)
}

// parseSuffix parses the application/postfix tail that can follow any atom:
// a direct object-literal call, a no-argument call (`f _`), or a postfix
// operator (`xs!`).
func (p *Parser) parseSuffix(atom ast.Expression) ast.Expression {
	for {
		backtrack := p.position
		p.consumeNewlines()

		if p.peek().Kind == token.LBRACE {
			var argument ast.Expression
			if p.attempt(func() { argument = p.parseObjectLiteral() }) {
				call := &ast.CallExpression{Callee: atom, Argument: argument}
				call.Rng = token.Range{Start: atom.Range().Start, End: argument.Range().End}
				atom = call
				continue
			}
		}

		if p.peek().Kind == token.UNDERSCORE {
			tok := p.consume()
			nothing := &ast.Nothing{}
			nothing.Rng = tok.Range
			call := &ast.CallExpression{Callee: atom, Argument: nothing}
			call.Rng = token.Range{Start: atom.Range().Start, End: tok.Range.End}
			atom = call
			continue
		}

		if p.peek().Kind == token.OPERATOR && postfixOperators[p.peek().Lexeme] {
			opTok := p.consume()
			post := &ast.PostfixExpression{Operator: identifierFromToken(*opTok), Operand: atom}
			post.Rng = token.Range{Start: atom.Range().Start, End: opTok.Range.End}
			atom = post
			continue
		}
		if p.peek().Kind == token.BANG {
			opTok := p.consume()
			post := &ast.PostfixExpression{Operator: identifierFromToken(*opTok), Operand: atom}
			post.Rng = token.Range{Start: atom.Range().Start, End: opTok.Range.End}
			atom = post
			continue
		}

		p.position = backtrack
		break
	}
	return atom
}

func (p *Parser) parsePrefixExpression() *ast.PrefixExpression {
	opTok := p.consume()
	if opTok == nil || !prefixOperators[opTok.Lexeme] {
		p.expectUnexpected("prefix operator")
	}
	operand := p.parseAtom()
	pre := &ast.PrefixExpression{Operator: identifierFromToken(*opTok), Operand: operand}
	pre.Rng = token.Range{Start: opTok.Range.Start, End: operand.Range().End}
	return pre
}

func (p *Parser) parseClosureExpression() *ast.ClosureExpression {
	start := p.peek()

	var domain ast.TypeExpr
	if start.Kind == token.UNDERSCORE {
		tok := p.consume()
		n := &ast.Nothing{}
		n.Rng = tok.Range
		domain = n
	} else {
		domain = p.parseDomainOrCodomain()
	}

	var codomain ast.TypeExpr
	p.consumeNewlines()
	if p.consume(token.ARROW) != nil {
		p.consumeNewlines()
		codomain = p.parseDomainOrCodomain()
	}

	p.consumeNewlines()
	if p.consume(token.FATARROW) == nil {
		p.fail(diagnostics.ErrP001, p.peek().Range, p.peek().String(), "=>")
	}

	body := p.parseExpression()
	closure := &ast.ClosureExpression{Domain: domain, Codomain: codomain, Body: body}
	closure.Rng = token.Range{Start: start.Range.Start, End: body.Range().End}
	return closure
}

func (p *Parser) parseIdentifierExpr() *ast.Identifier {
	return p.parseIdentifierTypeExpr()
}

func (p *Parser) parseScalarLiteral() *ast.ScalarLiteral {
	tok := p.consume()
	lit := &ast.ScalarLiteral{Value: tok.Literal}
	lit.Rng = tok.Range
	switch tok.Kind {
	case token.BOOLEAN:
		lit.Kind = ast.BoolLiteral
	case token.INTEGER:
		lit.Kind = ast.IntLiteral
	case token.FLOAT:
		lit.Kind = ast.FloatLiteral
	case token.STRING:
		lit.Kind = ast.StringLiteral
	}
	return lit
}

func (p *Parser) parseListLiteral() *ast.ListLiteral {
	start := p.consume(token.LBRACKET)
	var items []ast.Expression
	p.consumeNewlines()
	for p.peek().Kind != token.RBRACKET {
		items = append(items, p.parseExpression())
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
	list := &ast.ListLiteral{Items: items}
	list.Rng = token.Range{Start: start.Range.Start, End: end.Range.End}
	return list
}

func (p *Parser) parseObjectLiteral() *ast.ObjectLiteral {
	start := p.consume(token.LBRACE)
	if start == nil {
		p.expectUnexpected("{")
	}
	var props []*ast.ObjectLiteralProperty
	p.consumeNewlines()
	for p.peek().Kind != token.RBRACE {
		props = append(props, p.parseObjectLiteralItem())
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
	obj := &ast.ObjectLiteral{Properties: props}
	obj.Rng = token.Range{Start: start.Range.Start, End: end.Range.End}
	return obj
}

// parseFieldName parses the right-hand operand of the dot operator: a bare
// field name, read as a string literal rather than resolved as an
// identifier, since `.` is field-access sugar and its right side never
// refers to a binding in scope.
func (p *Parser) parseFieldName() ast.Expression {
	tok := p.expectIdentifier()
	lit := &ast.ScalarLiteral{Kind: ast.StringLiteral, Value: tok.Lexeme}
	lit.Rng = tok.Range
	return lit
}

func (p *Parser) parseObjectLiteralItem() *ast.ObjectLiteralProperty {
	nameTok := p.expectIdentifier()
	key := &ast.ScalarLiteral{Kind: ast.StringLiteral, Value: nameTok.Lexeme}
	key.Rng = nameTok.Range

	p.consumeNewlines()
	if p.consume(token.ASSIGN) == nil {
		p.expectUnexpected("=")
	}
	value := p.parseExpression()

	prop := &ast.ObjectLiteralProperty{Key: key, Value: value}
	prop.Rng = token.Range{Start: nameTok.Range.Start, End: value.Range().End}
	return prop
}

func (p *Parser) parseIfExpression() *ast.IfExpression {
	start := p.consume(token.KW_IF)
	cond := p.parseExpression()
	p.consumeNewlines()
	if p.consume(token.KW_THEN) == nil {
		p.expectUnexpected("then")
	}
	thenExpr := p.parseExpression()
	p.consumeNewlines()
	if p.consume(token.KW_ELSE) == nil {
		p.expectUnexpected("else")
	}
	elseExpr := p.parseExpression()

	ifExpr := &ast.IfExpression{Condition: cond, Then: thenExpr, Else: elseExpr}
	ifExpr.Rng = token.Range{Start: start.Range.Start, End: elseExpr.Range().End}
	return ifExpr
}

func (p *Parser) parseMatchExpression() *ast.MatchExpression {
	start := p.consume(token.KW_MATCH)
	subject := p.parseExpression()

	p.consumeNewlines()
	if p.consume(token.LBRACE) == nil {
		p.expectUnexpected("{")
	}

	var cases []ast.MatchCase
	p.consumeNewlines()
	for p.peek().Kind != token.RBRACE {
		cases = append(cases, p.parseMatchCase())
		p.consumeNewlines()
		if p.consume(token.COMMA) == nil {
			p.consumeNewlines()
			continue
		}
		p.consumeNewlines()
	}
	end := p.consume(token.RBRACE)
	if end == nil {
		p.expectUnexpected("}")
	}

	match := &ast.MatchExpression{Subject: subject, Cases: cases}
	match.Rng = token.Range{Start: start.Range.Start, End: end.Range.End}
	return match
}

func (p *Parser) parseMatchCase() ast.MatchCase {
	if p.peek().Kind == token.KW_ELSE {
		start := p.consume()
		p.consumeNewlines()
		if p.consume(token.FATARROW) == nil {
			p.expectUnexpected("=>")
		}
		body := p.parseExpression()
		elseCase := &ast.ElseCase{Body: body}
		elseCase.Rng = token.Range{Start: start.Range.Start, End: body.Range().End}
		return elseCase
	}

	start := p.consume(token.KW_WHEN)
	if start == nil {
		p.expectUnexpected("when")
	}
	pattern := p.parseBindingPattern()
	p.consumeNewlines()
	if p.consume(token.FATARROW) == nil {
		p.expectUnexpected("=>")
	}
	body := p.parseExpression()

	whenCase := &ast.WhenCase{Pattern: pattern, Body: body}
	whenCase.Rng = token.Range{Start: start.Range.Start, End: body.Range().End}
	return whenCase
}

// parseBindingPattern parses `name` or `name: Annotation`, the pattern a
// `when` case binds its matched value to.
func (p *Parser) parseBindingPattern() *ast.Binding {
	nameTok := p.expectIdentifier()

	var annotation ast.TypeExpr
	end := nameTok.Range.End
	backtrack := p.position
	p.consumeNewlines()
	if p.consume(token.COLON) != nil {
		p.consumeNewlines()
		annotation = p.parseAnnotation()
		end = annotation.Range().End
	} else {
		p.position = backtrack
	}

	binding := &ast.Binding{Name: nameTok.Lexeme, Annotation: annotation}
	binding.Rng = token.Range{Start: nameTok.Range.Start, End: end}
	return binding
}
