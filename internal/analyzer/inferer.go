package analyzer

import (
	"fmt"

	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/constraint"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/symbols"
	"github.com/mamba-lang/mamba/internal/types"
)

// ConstraintInferer walks a scope-bound module and emits the constraints
// that the solver must satisfy for the program to type-check. Every node
// visited ends up with a (possibly still-unknown) Type.
type ConstraintInferer struct {
	vars        *types.VarSource
	signature   *signatureInferer
	Constraints []constraint.Constraint
	Errors      []*diagnostics.DiagnosticError
}

// NewConstraintInferer creates a ConstraintInferer. vars must be the same
// VarSource the ScopeBuilder used, so fresh variables never collide.
func NewConstraintInferer(vars *types.VarSource) *ConstraintInferer {
	inf := &ConstraintInferer{vars: vars}
	inf.signature = &signatureInferer{vars: vars, constraints: &inf.Constraints}
	return inf
}

// Infer runs the pass over module.
func (inf *ConstraintInferer) Infer(module *ast.Module) {
	module.Accept(inf)
	inf.Errors = append(inf.Errors, inf.signature.Errors...)
}

func (inf *ConstraintInferer) VisitModule(n *ast.Module) {
	for _, decl := range n.Declarations {
		decl.Accept(inf)
	}
}

func (inf *ConstraintInferer) VisitTypeDeclaration(n *ast.TypeDeclaration) {
	if n.Symbol == nil {
		return
	}
	alias, ok := symbols.Unwrap(n.Symbol.Type)
	if !ok {
		return
	}
	before := len(inf.signature.Errors)
	n.Body.Accept(inf.signature)
	bodyTy := inf.signature.typeOf(n.Body)
	if len(inf.signature.Errors) > before || bodyTy == nil {
		return
	}
	if len(n.Placeholders) > 0 {
		bodyTy = withPlaceholders(bodyTy, n.Placeholders)
	}
	inf.Constraints = append(inf.Constraints, constraint.NewEquals(alias, bodyTy, n.Range()))
}

func (inf *ConstraintInferer) VisitFunctionDeclaration(n *ast.FunctionDeclaration) {
	if n.Symbol == nil {
		return
	}
	before := len(inf.signature.Errors)
	n.Domain.Accept(inf.signature)
	n.Codomain.Accept(inf.signature)

	domainTy := inf.signature.typeOf(n.Domain)
	codomainTy := inf.signature.typeOf(n.Codomain)
	if len(inf.signature.Errors) > before || domainTy == nil || codomainTy == nil {
		return
	}
	fnTy := types.FunctionType{Domain: domainTy, Codomain: codomainTy, Placeholders: n.Placeholders}

	inf.Constraints = append(inf.Constraints, constraint.NewEquals(n.Symbol.Type, fnTy, n.Range()))

	argRefSymbol := n.InnerScope.Local("$")[0]
	inf.Constraints = append(inf.Constraints, constraint.NewEquals(argRefSymbol.Type, domainTy, n.Range()))

	// Tie each parameter symbol the scope builder installed for an
	// object-type domain to the corresponding property's type.
	if domainObj, ok := n.Domain.(*ast.ObjectType); ok {
		if objTy, ok := domainTy.(types.ObjectType); ok {
			for _, prop := range domainObj.Properties {
				if prop.Symbol == nil {
					continue
				}
				if propTy, ok := objTy.Properties[prop.Name]; ok {
					inf.Constraints = append(inf.Constraints, constraint.NewEquals(prop.Symbol.Type, propTy, prop.Range()))
				}
			}
		}
	}

	n.Body.Accept(inf)
	inf.Constraints = append(inf.Constraints, constraint.NewConforms(typeOf(n.Body), codomainTy, n.Body.Range()))
}

// withPlaceholders stamps a declaration's placeholder names onto the type
// its body produced, so a later specialization knows which slots the type
// declares. Union members are stamped individually.
func withPlaceholders(t types.Type, names []string) types.Type {
	switch ty := t.(type) {
	case types.ObjectType:
		ty.Placeholders = names
		return ty
	case types.FunctionType:
		ty.Placeholders = names
		return ty
	case types.UnionType:
		members := make([]types.Type, len(ty.Members))
		for i, m := range ty.Members {
			members[i] = withPlaceholders(m, names)
		}
		return types.UnionType{Members: members}
	default:
		return t
	}
}

func (inf *ConstraintInferer) VisitInfixExpression(n *ast.InfixExpression) {
	n.Operator.Accept(inf)
	n.Left.Accept(inf)
	n.Right.Accept(inf)

	n.Type = inf.vars.Fresh()

	if n.Operator.Scope != nil {
		for _, sym := range n.Operator.Scope.Local(n.Operator.Name) {
			if sym == symbols.DotSymbol {
				// Field access: `{ right: T }` (T the node's own type) must
				// conform to the left operand's type. The right operand of
				// `.` is always a scalar literal naming the field.
				lit, ok := n.Right.(*ast.ScalarLiteral)
				if !ok {
					break
				}
				objTy := types.NewObjectType([]string{toFieldName(lit)}, map[string]types.Type{toFieldName(lit): n.Type}, nil)
				inf.Constraints = append(inf.Constraints, constraint.NewConforms(objTy, typeOf(n.Left), n.Range()))
				return
			}
		}
	}

	fnTy := types.FunctionType{
		Domain:   types.NewObjectType([]string{"lhs", "rhs"}, map[string]types.Type{"lhs": typeOf(n.Left), "rhs": typeOf(n.Right)}, nil),
		Codomain: n.Type,
	}
	inf.Constraints = append(inf.Constraints, constraint.NewSpecializes(typeOf(n.Operator), fnTy, nil, n.Range()))
}

func (inf *ConstraintInferer) VisitCallExpression(n *ast.CallExpression) {
	n.Callee.Accept(inf)
	n.Argument.Accept(inf)
	n.Type = inf.vars.Fresh()

	argTy := inf.vars.Fresh()
	retTy := inf.vars.Fresh()
	fnTy := types.FunctionType{Domain: argTy, Codomain: retTy}

	inf.Constraints = append(inf.Constraints, constraint.NewEquals(typeOf(n.Callee), fnTy, n.Range()))
	inf.Constraints = append(inf.Constraints, constraint.NewConforms(typeOf(n.Argument), argTy, n.Range()))
	inf.Constraints = append(inf.Constraints, constraint.NewEquals(n.Type, retTy, n.Range()))
}

func (inf *ConstraintInferer) VisitIdentifier(n *ast.Identifier) {
	if n.Scope == nil {
		// Unbound: the binder already reported it. Give the node a fresh,
		// unconstrained variable so the rest of the declaration still
		// infers instead of carrying a nil type into the solver.
		n.Type = inf.vars.Fresh()
		return
	}
	syms := n.Scope.Local(n.Name)
	if len(syms) == 0 {
		n.Type = inf.vars.Fresh()
		return
	}

	n.Type = inf.vars.Fresh()

	args := map[string]types.Type{}
	for _, key := range sortedSpecializerKeys(n.Specializers) {
		child := n.Specializers[key]
		child.Accept(inf.signature)
		childTy := inf.signature.typeOf(child)
		if childTy == nil {
			return
		}
		args[key] = childTy
	}

	choices := make([]constraint.Constraint, 0, len(syms))
	for _, sym := range syms {
		choices = append(choices, constraint.NewSpecializes(n.Type, sym.Type, args, n.Range()))
	}
	if len(choices) == 1 {
		inf.Constraints = append(inf.Constraints, choices[0])
	} else {
		inf.Constraints = append(inf.Constraints, constraint.NewDisjunction(choices, n.Range()))
	}
}

func (inf *ConstraintInferer) VisitArgRef(n *ast.ArgRef) {
	if n.Symbol != nil {
		n.Type = n.Symbol.Type
	}
}

func (inf *ConstraintInferer) VisitScalarLiteral(n *ast.ScalarLiteral) {
	switch n.Kind {
	case ast.BoolLiteral:
		n.Type = types.Bool
	case ast.IntLiteral:
		n.Type = types.Int
	case ast.FloatLiteral:
		n.Type = types.Float
	case ast.StringLiteral:
		n.Type = types.String
	}
}

func (inf *ConstraintInferer) VisitObjectLiteral(n *ast.ObjectLiteral) {
	names := make([]string, 0, len(n.Properties))
	props := map[string]types.Type{}
	for _, p := range n.Properties {
		p.Key.Accept(inf)
		p.Value.Accept(inf)
		name := toFieldName(p.Key)
		names = append(names, name)
		props[name] = typeOf(p.Value)
	}
	n.Type = types.NewObjectType(names, props, nil)
}

func (inf *ConstraintInferer) VisitObjectLiteralProperty(n *ast.ObjectLiteralProperty) {
	n.Key.Accept(inf)
	n.Value.Accept(inf)
}

// The remaining node kinds have no dedicated inference rule yet: each gets
// a fresh type variable, and its children are visited only so nested
// identifiers and calls still get typed, without any constraint relating
// the node to them.

func (inf *ConstraintInferer) VisitClosureExpression(n *ast.ClosureExpression) {
	if n.Domain != nil {
		n.Domain.Accept(inf.signature)
	}
	if n.Codomain != nil {
		n.Codomain.Accept(inf.signature)
	}
	if n.Body != nil {
		n.Body.Accept(inf)
	}
	n.Type = inf.vars.Fresh()
}

func (inf *ConstraintInferer) VisitIfExpression(n *ast.IfExpression) {
	n.Condition.Accept(inf)
	n.Then.Accept(inf)
	n.Else.Accept(inf)
	n.Type = inf.vars.Fresh()
}

func (inf *ConstraintInferer) VisitMatchExpression(n *ast.MatchExpression) {
	n.Subject.Accept(inf)
	for _, c := range n.Cases {
		c.Accept(inf)
	}
	n.Type = inf.vars.Fresh()
}

func (inf *ConstraintInferer) VisitWhenCase(n *ast.WhenCase) {
	n.Pattern.Accept(inf)
	n.Body.Accept(inf)
}

func (inf *ConstraintInferer) VisitElseCase(n *ast.ElseCase) {
	n.Body.Accept(inf)
}

func (inf *ConstraintInferer) VisitPrefixExpression(n *ast.PrefixExpression) {
	n.Operator.Accept(inf)
	n.Operand.Accept(inf)
	n.Type = inf.vars.Fresh()
}

func (inf *ConstraintInferer) VisitPostfixExpression(n *ast.PostfixExpression) {
	n.Operator.Accept(inf)
	n.Operand.Accept(inf)
	n.Type = inf.vars.Fresh()
}

func (inf *ConstraintInferer) VisitListLiteral(n *ast.ListLiteral) {
	for _, item := range n.Items {
		item.Accept(inf)
	}
	n.Type = inf.vars.Fresh()
}

func (inf *ConstraintInferer) VisitBinding(n *ast.Binding) {
	if n.Annotation != nil {
		n.Annotation.Accept(inf.signature)
	}
	n.Type = inf.vars.Fresh()
}

func (inf *ConstraintInferer) VisitNothing(n *ast.Nothing) {
	n.Type = types.Nothing
}

func (inf *ConstraintInferer) VisitFunctionType(n *ast.FunctionType)             {}
func (inf *ConstraintInferer) VisitObjectType(n *ast.ObjectType)                 {}
func (inf *ConstraintInferer) VisitObjectTypeProperty(n *ast.ObjectTypeProperty) {}
func (inf *ConstraintInferer) VisitUnionType(n *ast.UnionType)                   {}

// typeOf centralizes the Type field access that differs per concrete
// Expression type, since ast.Expression itself carries no Type getter
// (each node owns its own typed field for zero-cost access elsewhere in
// the core).
func typeOf(e ast.Expression) types.Type {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Type
	case *ast.ScalarLiteral:
		return n.Type
	case *ast.ObjectLiteral:
		return n.Type
	case *ast.ListLiteral:
		return n.Type
	case *ast.CallExpression:
		return n.Type
	case *ast.InfixExpression:
		return n.Type
	case *ast.PrefixExpression:
		return n.Type
	case *ast.PostfixExpression:
		return n.Type
	case *ast.IfExpression:
		return n.Type
	case *ast.MatchExpression:
		return n.Type
	case *ast.ClosureExpression:
		return n.Type
	case *ast.Binding:
		return n.Type
	case *ast.ArgRef:
		return n.Type
	case *ast.Nothing:
		return n.Type
	default:
		return nil
	}
}

func toFieldName(lit *ast.ScalarLiteral) string {
	if s, ok := lit.Value.(string); ok {
		return s
	}
	return fmt.Sprint(lit.Value)
}
