package analyzer

import (
	"sort"

	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/constraint"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/symbols"
	"github.com/mamba-lang/mamba/internal/types"
)

// signatureInferer computes types.Type values for type-signature nodes
// (FunctionType, ObjectType, UnionType, Identifier, Nothing). It is used
// wherever a TypeExpr appears: declaration domains/codomains, type
// declaration bodies, identifier specializers, and binding annotations.
// Identifiers are resolved differently here than in expression position:
// overloading is forbidden (a type name must resolve to exactly one
// symbol) and that symbol must be a type alias or a placeholder.
type signatureInferer struct {
	vars   *types.VarSource
	result map[ast.Node]types.Type
	// constraints points at the owning ConstraintInferer's list: a
	// specialized reference to an alias whose subject is still an inference
	// variable cannot be resolved eagerly and is handed to the solver as a
	// Specializes constraint instead.
	constraints *[]constraint.Constraint
	Errors      []*diagnostics.DiagnosticError
}

func (s *signatureInferer) typeOf(n ast.Node) types.Type {
	if s.result == nil {
		return nil
	}
	return s.result[n]
}

func (s *signatureInferer) set(n ast.Node, t types.Type) {
	if s.result == nil {
		s.result = map[ast.Node]types.Type{}
	}
	s.result[n] = t
}

func (s *signatureInferer) VisitFunctionType(n *ast.FunctionType) {
	n.Domain.Accept(s)
	n.Codomain.Accept(s)
	s.set(n, types.FunctionType{
		Domain:       s.typeOf(n.Domain),
		Codomain:     s.typeOf(n.Codomain),
		Placeholders: n.Placeholders,
	})
}

func (s *signatureInferer) VisitObjectType(n *ast.ObjectType) {
	names := make([]string, 0, len(n.Properties))
	props := map[string]types.Type{}
	seen := map[string]bool{}
	for _, prop := range n.Properties {
		if seen[prop.Name] {
			s.Errors = append(s.Errors, diagnostics.New(diagnostics.PhaseInference, diagnostics.ErrG004, prop.Range(), prop.Name))
			continue
		}
		seen[prop.Name] = true
		if prop.Body == nil {
			props[prop.Name] = s.vars.Fresh()
		} else {
			prop.Body.Accept(s)
			props[prop.Name] = s.typeOf(prop.Body)
		}
		names = append(names, prop.Name)
	}
	s.set(n, types.NewObjectType(names, props, n.Placeholders))
}

func (s *signatureInferer) VisitObjectTypeProperty(n *ast.ObjectTypeProperty) {
	if n.Body != nil {
		n.Body.Accept(s)
	}
}

func (s *signatureInferer) VisitUnionType(n *ast.UnionType) {
	members := make([]types.Type, 0, len(n.Members))
	for _, m := range n.Members {
		m.Accept(s)
		members = append(members, s.typeOf(m))
	}
	s.set(n, types.UnionType{Members: members})
}

func (s *signatureInferer) VisitIdentifier(n *ast.Identifier) {
	if n.Scope == nil {
		s.Errors = append(s.Errors, diagnostics.New(diagnostics.PhaseInference, diagnostics.ErrS002, n.Range(), n.Name))
		return
	}
	syms := n.Scope.Local(n.Name)
	if len(syms) == 0 {
		s.Errors = append(s.Errors, diagnostics.New(diagnostics.PhaseInference, diagnostics.ErrS002, n.Range(), n.Name))
		return
	}
	if len(syms) > 1 {
		s.Errors = append(s.Errors, diagnostics.New(diagnostics.PhaseInference, diagnostics.ErrG002, n.Range(), n.Name))
		return
	}
	sym := syms[0]

	var baseTy types.Type
	if alias, ok := symbols.Unwrap(sym.Type); ok {
		baseTy = alias
	} else if _, ok := sym.Type.(types.TypePlaceholder); ok {
		baseTy = sym.Type
	} else {
		s.Errors = append(s.Errors, diagnostics.New(diagnostics.PhaseInference, diagnostics.ErrG001, n.Range(), n.Name))
		return
	}

	if len(n.Specializers) == 0 {
		s.set(n, baseTy)
		return
	}

	args := map[string]types.Type{}
	for _, key := range sortedSpecializerKeys(n.Specializers) {
		child := n.Specializers[key]
		child.Accept(s)
		childTy := s.typeOf(child)
		if childTy == nil {
			return
		}
		args[key] = childTy
	}

	// A type declaration's alias subject is still an inference variable at
	// this point, so its placeholders are unknown: hand the specialization
	// to the solver, which defers it until the subject resolves.
	if _, unresolved := baseTy.(types.TVar); unresolved {
		v := s.vars.Fresh()
		*s.constraints = append(*s.constraints, constraint.NewSpecializes(v, baseTy, args, n.Range()))
		s.set(n, v)
		return
	}

	placeholders := placeholdersOf(baseTy)
	explicit := map[string]types.Type{}
	for _, key := range sortedSpecializerKeys(n.Specializers) {
		if key == "_0" {
			if len(placeholders) != 1 {
				s.Errors = append(s.Errors, diagnostics.New(diagnostics.PhaseInference, diagnostics.ErrG003, n.Range(), key))
				return
			}
			explicit[placeholders[0]] = args[key]
			continue
		}
		if !containsString(placeholders, key) {
			s.Errors = append(s.Errors, diagnostics.New(diagnostics.PhaseInference, diagnostics.ErrG003, n.Range(), key))
			return
		}
		explicit[key] = args[key]
	}

	specialized, err := specializeWithArgs(baseTy, explicit)
	if err != nil {
		s.Errors = append(s.Errors, diagnostics.New(diagnostics.PhaseInference, diagnostics.ErrU007, n.Range(), n.Name, baseTy.String()))
		return
	}
	s.set(n, specialized)
}

func sortedSpecializerKeys(specializers map[string]ast.TypeExpr) []string {
	keys := make([]string, 0, len(specializers))
	for key := range specializers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *signatureInferer) VisitNothing(n *ast.Nothing) {
	s.set(n, types.Nothing)
}

// The remaining visitor methods are unreachable in type-signature position;
// they are implemented only so signatureInferer satisfies ast.Visitor.

func (s *signatureInferer) VisitModule(n *ast.Module)                               {}
func (s *signatureInferer) VisitTypeDeclaration(n *ast.TypeDeclaration)             {}
func (s *signatureInferer) VisitFunctionDeclaration(n *ast.FunctionDeclaration)     {}
func (s *signatureInferer) VisitClosureExpression(n *ast.ClosureExpression)         {}
func (s *signatureInferer) VisitCallExpression(n *ast.CallExpression)               {}
func (s *signatureInferer) VisitInfixExpression(n *ast.InfixExpression)             {}
func (s *signatureInferer) VisitPrefixExpression(n *ast.PrefixExpression)           {}
func (s *signatureInferer) VisitPostfixExpression(n *ast.PostfixExpression)         {}
func (s *signatureInferer) VisitIfExpression(n *ast.IfExpression)                   {}
func (s *signatureInferer) VisitMatchExpression(n *ast.MatchExpression)             {}
func (s *signatureInferer) VisitWhenCase(n *ast.WhenCase)                           {}
func (s *signatureInferer) VisitElseCase(n *ast.ElseCase)                           {}
func (s *signatureInferer) VisitBinding(n *ast.Binding)                             {}
func (s *signatureInferer) VisitScalarLiteral(n *ast.ScalarLiteral)                 {}
func (s *signatureInferer) VisitListLiteral(n *ast.ListLiteral)                     {}
func (s *signatureInferer) VisitObjectLiteral(n *ast.ObjectLiteral)                 {}
func (s *signatureInferer) VisitObjectLiteralProperty(n *ast.ObjectLiteralProperty) {}
func (s *signatureInferer) VisitArgRef(n *ast.ArgRef)                               {}

func containsString(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}

func placeholdersOf(t types.Type) []string {
	switch ty := t.(type) {
	case types.ObjectType:
		return ty.Placeholders
	case types.FunctionType:
		return ty.Placeholders
	case types.GroundType:
		return ty.Placeholders
	default:
		return nil
	}
}
