package analyzer

import (
	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/symbols"
)

// ScopeBinder walks a module whose scopes have already been built and binds
// every identifier and argument reference to the scope that declares it.
// It deliberately does not pick a symbol out of an overload set — that
// choice is deferred to the constraint solver.
type ScopeBinder struct {
	scopes []*symbols.Scope
	Errors []*diagnostics.DiagnosticError
}

// NewScopeBinder creates a ScopeBinder.
func NewScopeBinder() *ScopeBinder {
	return &ScopeBinder{}
}

func (b *ScopeBinder) top() *symbols.Scope { return b.scopes[len(b.scopes)-1] }

func (b *ScopeBinder) push(s *symbols.Scope) { b.scopes = append(b.scopes, s) }

func (b *ScopeBinder) pop() { b.scopes = b.scopes[:len(b.scopes)-1] }

// Bind runs the pass over module.
func (b *ScopeBinder) Bind(module *ast.Module) {
	module.Accept(b)
}

func (b *ScopeBinder) VisitModule(n *ast.Module) {
	b.push(n.InnerScope)
	for _, decl := range n.Declarations {
		decl.Accept(b)
	}
	b.pop()
}

func (b *ScopeBinder) VisitFunctionDeclaration(n *ast.FunctionDeclaration) {
	if n.InnerScope == nil {
		return
	}
	b.push(n.InnerScope)
	if n.Domain != nil {
		n.Domain.Accept(b)
	}
	if n.Codomain != nil {
		n.Codomain.Accept(b)
	}
	if n.Body != nil {
		n.Body.Accept(b)
	}
	b.pop()
}

func (b *ScopeBinder) VisitTypeDeclaration(n *ast.TypeDeclaration) {
	if n.InnerScope == nil {
		return
	}
	b.push(n.InnerScope)
	if n.Body != nil {
		n.Body.Accept(b)
	}
	b.pop()
}

func (b *ScopeBinder) VisitFunctionType(n *ast.FunctionType) {
	if n.Domain != nil {
		n.Domain.Accept(b)
	}
	if n.Codomain != nil {
		n.Codomain.Accept(b)
	}
}

func (b *ScopeBinder) VisitObjectType(n *ast.ObjectType) {
	for _, p := range n.Properties {
		p.Accept(b)
	}
}

func (b *ScopeBinder) VisitObjectTypeProperty(n *ast.ObjectTypeProperty) {
	if n.Body != nil {
		n.Body.Accept(b)
	}
}

func (b *ScopeBinder) VisitUnionType(n *ast.UnionType) {
	for _, m := range n.Members {
		m.Accept(b)
	}
}

func (b *ScopeBinder) VisitClosureExpression(n *ast.ClosureExpression) {
	b.push(n.InnerScope)
	if n.Domain != nil {
		n.Domain.Accept(b)
	}
	if n.Codomain != nil {
		n.Codomain.Accept(b)
	}
	if n.Body != nil {
		n.Body.Accept(b)
	}
	b.pop()
}

func (b *ScopeBinder) VisitCallExpression(n *ast.CallExpression) {
	n.Callee.Accept(b)
	n.Argument.Accept(b)
}

func (b *ScopeBinder) VisitInfixExpression(n *ast.InfixExpression) {
	n.Operator.Accept(b)
	n.Left.Accept(b)
	n.Right.Accept(b)
}

func (b *ScopeBinder) VisitPrefixExpression(n *ast.PrefixExpression) {
	n.Operator.Accept(b)
	n.Operand.Accept(b)
}

func (b *ScopeBinder) VisitPostfixExpression(n *ast.PostfixExpression) {
	n.Operator.Accept(b)
	n.Operand.Accept(b)
}

func (b *ScopeBinder) VisitIfExpression(n *ast.IfExpression) {
	n.Condition.Accept(b)
	b.push(n.InnerScope)
	n.Then.Accept(b)
	n.Else.Accept(b)
	b.pop()
}

func (b *ScopeBinder) VisitMatchExpression(n *ast.MatchExpression) {
	n.Subject.Accept(b)
	for _, c := range n.Cases {
		c.Accept(b)
	}
}

func (b *ScopeBinder) VisitWhenCase(n *ast.WhenCase) {
	b.push(n.InnerScope)
	n.Pattern.Accept(b)
	n.Body.Accept(b)
	b.pop()
}

func (b *ScopeBinder) VisitElseCase(n *ast.ElseCase) {
	n.Body.Accept(b)
}

func (b *ScopeBinder) VisitBinding(n *ast.Binding) {
	if n.Annotation != nil {
		n.Annotation.Accept(b)
	}
}

func (b *ScopeBinder) VisitIdentifier(n *ast.Identifier) {
	scope := b.top().FindScopeOf(n.Name)
	if scope == nil {
		b.Errors = append(b.Errors, diagnostics.New(diagnostics.PhaseScopeBinder, diagnostics.ErrS002, n.Range(), n.Name))
		return
	}
	n.Scope = scope
	for _, s := range n.Specializers {
		s.Accept(b)
	}
}

func (b *ScopeBinder) VisitScalarLiteral(n *ast.ScalarLiteral) {}

func (b *ScopeBinder) VisitListLiteral(n *ast.ListLiteral) {
	for _, item := range n.Items {
		item.Accept(b)
	}
}

func (b *ScopeBinder) VisitObjectLiteral(n *ast.ObjectLiteral) {
	for _, p := range n.Properties {
		p.Accept(b)
	}
}

func (b *ScopeBinder) VisitObjectLiteralProperty(n *ast.ObjectLiteralProperty) {
	n.Key.Accept(b)
	n.Value.Accept(b)
}

func (b *ScopeBinder) VisitNothing(n *ast.Nothing) {}

func (b *ScopeBinder) VisitArgRef(n *ast.ArgRef) {
	scope := b.top().FindScopeOf("$")
	if scope == nil {
		b.Errors = append(b.Errors, diagnostics.New(diagnostics.PhaseScopeBinder, diagnostics.ErrS002, n.Range(), "$"))
		return
	}
	n.Symbol = scope.Local("$")[0]
}
