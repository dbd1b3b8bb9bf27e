// Package analyzer implements the four semantic passes: scope building,
// scope binding, constraint inference, and constraint solving.
package analyzer

import (
	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/symbols"
	"github.com/mamba-lang/mamba/internal/types"
)

// ScopeBuilder walks a module and builds its tree of lexical scopes,
// installing the symbol every declaration introduces along the way. It
// does not resolve identifier references; that is ScopeBinder's job.
type ScopeBuilder struct {
	scopes []*symbols.Scope
	vars   *types.VarSource
	Errors []*diagnostics.DiagnosticError
}

// NewScopeBuilder creates a ScopeBuilder rooted at the process-wide builtin
// scope. vars mints the fresh type variables type declarations need; it
// must be the same VarSource the constraint inferer and solver use for this
// compilation, so ids stay unique across the whole run.
func NewScopeBuilder(vars *types.VarSource) *ScopeBuilder {
	return &ScopeBuilder{scopes: []*symbols.Scope{symbols.Builtin()}, vars: vars}
}

func (b *ScopeBuilder) top() *symbols.Scope { return b.scopes[len(b.scopes)-1] }

func (b *ScopeBuilder) push(s *symbols.Scope) { b.scopes = append(b.scopes, s) }

func (b *ScopeBuilder) pop() { b.scopes = b.scopes[:len(b.scopes)-1] }

// Build runs the pass over module, populating InnerScope on every scope-
// owning node.
func (b *ScopeBuilder) Build(module *ast.Module) {
	module.Accept(b)
}

func (b *ScopeBuilder) VisitModule(n *ast.Module) {
	n.InnerScope = symbols.NewScope(b.top())
	b.push(n.InnerScope)
	for _, decl := range n.Declarations {
		decl.Accept(b)
	}
	b.pop()
}

func (b *ScopeBuilder) VisitFunctionDeclaration(n *ast.FunctionDeclaration) {
	existing := b.top().Local(n.Name)
	if len(existing) > 0 && !existing[0].Overloadable {
		b.Errors = append(b.Errors, diagnostics.New(diagnostics.PhaseScopeBuilder, diagnostics.ErrS001, n.Range(), n.Name))
		return
	}
	sym := &symbols.Symbol{Name: n.Name, Type: b.vars.Fresh(), Overloadable: true}
	b.top().Insert(sym)
	n.Symbol = sym

	n.InnerScope = symbols.NewScope(b.top())
	b.push(n.InnerScope)

	seen := map[string]bool{}
	for _, placeholder := range n.Placeholders {
		if seen[placeholder] {
			b.Errors = append(b.Errors, diagnostics.New(diagnostics.PhaseScopeBuilder, diagnostics.ErrS003, n.Range(), placeholder))
			continue
		}
		seen[placeholder] = true
		n.InnerScope.Insert(&symbols.Symbol{Name: placeholder, Type: types.TypePlaceholder{Name: placeholder}})
	}

	// Each property of an object-type domain becomes a parameter symbol, so
	// the body can name it directly instead of going through `$`.
	if domainObj, ok := n.Domain.(*ast.ObjectType); ok {
		for _, prop := range domainObj.Properties {
			if len(n.InnerScope.Local(prop.Name)) > 0 {
				b.Errors = append(b.Errors, diagnostics.New(diagnostics.PhaseScopeBuilder, diagnostics.ErrS001, prop.Range(), prop.Name))
				continue
			}
			param := &symbols.Symbol{Name: prop.Name, Type: b.vars.Fresh()}
			n.InnerScope.Insert(param)
			prop.Symbol = param
		}
	}

	// The implicit argument reference is inserted after placeholders and
	// parameters, so a placeholder lookup inside the signature never sees `$`.
	n.InnerScope.Insert(&symbols.Symbol{Name: "$", Type: b.vars.Fresh()})

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

func (b *ScopeBuilder) VisitTypeDeclaration(n *ast.TypeDeclaration) {
	existing := b.top().Local(n.Name)
	if len(existing) > 0 {
		b.Errors = append(b.Errors, diagnostics.New(diagnostics.PhaseScopeBuilder, diagnostics.ErrS001, n.Range(), n.Name))
		return
	}
	sym := &symbols.Symbol{Name: n.Name, Type: aliasOf(b.vars.Fresh())}
	b.top().Insert(sym)
	n.Symbol = sym

	n.InnerScope = symbols.NewScope(b.top())
	b.push(n.InnerScope)

	seen := map[string]bool{}
	for _, placeholder := range n.Placeholders {
		if seen[placeholder] {
			b.Errors = append(b.Errors, diagnostics.New(diagnostics.PhaseScopeBuilder, diagnostics.ErrS003, n.Range(), placeholder))
			continue
		}
		seen[placeholder] = true
		n.InnerScope.Insert(&symbols.Symbol{Name: placeholder, Type: types.TypePlaceholder{Name: placeholder}})
	}

	if n.Body != nil {
		n.Body.Accept(b)
	}
	b.pop()
}

// The following node kinds introduce no declaration symbols. They recurse
// into their children; closures, if-branches and when-cases get a nested
// scope of their own on the way down, a closure's scope holds its own `$`,
// and a binding inserts its name into the current scope.

func (b *ScopeBuilder) VisitFunctionType(n *ast.FunctionType) {
	if n.Domain != nil {
		n.Domain.Accept(b)
	}
	if n.Codomain != nil {
		n.Codomain.Accept(b)
	}
}

func (b *ScopeBuilder) VisitObjectType(n *ast.ObjectType) {
	for _, p := range n.Properties {
		p.Accept(b)
	}
}

func (b *ScopeBuilder) VisitObjectTypeProperty(n *ast.ObjectTypeProperty) {
	if n.Body != nil {
		n.Body.Accept(b)
	}
}

func (b *ScopeBuilder) VisitUnionType(n *ast.UnionType) {
	for _, m := range n.Members {
		m.Accept(b)
	}
}

func (b *ScopeBuilder) VisitClosureExpression(n *ast.ClosureExpression) {
	n.InnerScope = symbols.NewScope(b.top())
	b.push(n.InnerScope)
	n.InnerScope.Insert(&symbols.Symbol{Name: "$", Type: b.vars.Fresh()})
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

func (b *ScopeBuilder) VisitCallExpression(n *ast.CallExpression) {
	n.Callee.Accept(b)
	n.Argument.Accept(b)
}

func (b *ScopeBuilder) VisitInfixExpression(n *ast.InfixExpression) {
	n.Operator.Accept(b)
	n.Left.Accept(b)
	n.Right.Accept(b)
}

func (b *ScopeBuilder) VisitPrefixExpression(n *ast.PrefixExpression) {
	n.Operator.Accept(b)
	n.Operand.Accept(b)
}

func (b *ScopeBuilder) VisitPostfixExpression(n *ast.PostfixExpression) {
	n.Operator.Accept(b)
	n.Operand.Accept(b)
}

func (b *ScopeBuilder) VisitIfExpression(n *ast.IfExpression) {
	n.Condition.Accept(b)
	n.InnerScope = symbols.NewScope(b.top())
	b.push(n.InnerScope)
	n.Then.Accept(b)
	n.Else.Accept(b)
	b.pop()
}

func (b *ScopeBuilder) VisitMatchExpression(n *ast.MatchExpression) {
	n.Subject.Accept(b)
	for _, c := range n.Cases {
		c.Accept(b)
	}
}

func (b *ScopeBuilder) VisitWhenCase(n *ast.WhenCase) {
	n.InnerScope = symbols.NewScope(b.top())
	b.push(n.InnerScope)
	n.Pattern.Accept(b)
	n.Body.Accept(b)
	b.pop()
}

func (b *ScopeBuilder) VisitElseCase(n *ast.ElseCase) {
	n.Body.Accept(b)
}

func (b *ScopeBuilder) VisitBinding(n *ast.Binding) {
	if n.Annotation != nil {
		n.Annotation.Accept(b)
	}
	b.top().Insert(&symbols.Symbol{Name: n.Name, Type: b.vars.Fresh()})
}

func (b *ScopeBuilder) VisitIdentifier(n *ast.Identifier) {
	for _, s := range n.Specializers {
		s.Accept(b)
	}
}

func (b *ScopeBuilder) VisitScalarLiteral(n *ast.ScalarLiteral) {}

func (b *ScopeBuilder) VisitListLiteral(n *ast.ListLiteral) {
	for _, item := range n.Items {
		item.Accept(b)
	}
}

func (b *ScopeBuilder) VisitObjectLiteral(n *ast.ObjectLiteral) {
	for _, p := range n.Properties {
		p.Accept(b)
	}
}

func (b *ScopeBuilder) VisitObjectLiteralProperty(n *ast.ObjectLiteralProperty) {
	n.Key.Accept(b)
	n.Value.Accept(b)
}

func (b *ScopeBuilder) VisitNothing(n *ast.Nothing) {}
func (b *ScopeBuilder) VisitArgRef(n *ast.ArgRef)   {}

// aliasOf wraps t as a type-alias-flavored types.Type usable in a Symbol's
// Type field; see symbols.Unwrap for the inverse.
func aliasOf(t types.Type) types.Type {
	return symbols.NewAliasType(t)
}
