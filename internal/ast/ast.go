// Package ast defines Mamba's abstract syntax tree: a closed set of node
// types reached through double-dispatch Accept/Visitor methods, so every
// pass is checked for exhaustiveness at compile time.
package ast

import (
	"github.com/mamba-lang/mamba/internal/symbols"
	"github.com/mamba-lang/mamba/internal/token"
	"github.com/mamba-lang/mamba/internal/types"
)

// Node is implemented by every AST node.
type Node interface {
	Range() token.Range
	Accept(v Visitor)
}

// Declaration is a top-level or nested declaration: TypeDeclaration or
// FunctionDeclaration.
type Declaration interface {
	Node
	declNode()
}

// Expression is any node that can appear in value position and therefore
// carries an inferred Type once the constraint solver has run.
type Expression interface {
	Node
	exprNode()
}

// TypeExpr is any node that can appear in type-signature position:
// FunctionType, ObjectType, UnionType, Identifier (referencing a type
// alias), or Nothing (the `_` absence marker).
type TypeExpr interface {
	Node
	typeExprNode()
}

// Visitor is implemented by each of the four core passes plus the
// signature sub-visitor. Every concrete node type has exactly one
// corresponding method.
type Visitor interface {
	VisitModule(*Module)
	VisitTypeDeclaration(*TypeDeclaration)
	VisitFunctionDeclaration(*FunctionDeclaration)
	VisitFunctionType(*FunctionType)
	VisitObjectType(*ObjectType)
	VisitObjectTypeProperty(*ObjectTypeProperty)
	VisitUnionType(*UnionType)
	VisitClosureExpression(*ClosureExpression)
	VisitCallExpression(*CallExpression)
	VisitInfixExpression(*InfixExpression)
	VisitPrefixExpression(*PrefixExpression)
	VisitPostfixExpression(*PostfixExpression)
	VisitIfExpression(*IfExpression)
	VisitMatchExpression(*MatchExpression)
	VisitWhenCase(*WhenCase)
	VisitElseCase(*ElseCase)
	VisitBinding(*Binding)
	VisitIdentifier(*Identifier)
	VisitScalarLiteral(*ScalarLiteral)
	VisitListLiteral(*ListLiteral)
	VisitObjectLiteral(*ObjectLiteral)
	VisitObjectLiteralProperty(*ObjectLiteralProperty)
	VisitNothing(*Nothing)
	VisitArgRef(*ArgRef)
}

// base carries what every node has: a source range.
type base struct {
	Rng token.Range
}

func (b base) Range() token.Range { return b.Rng }

// Module is the root of a single compiled file: an ordered list of
// declarations sharing one inner scope chained to the builtin scope.
type Module struct {
	base
	Declarations []Declaration
	InnerScope   *symbols.Scope
}

func (n *Module) Accept(v Visitor) { v.VisitModule(n) }

// TypeDeclaration introduces a name bound to a (possibly generic) type
// expression: `type Name [ Placeholders ] = Body`.
type TypeDeclaration struct {
	base
	Name         string
	Placeholders []string
	Body         TypeExpr
	InnerScope   *symbols.Scope
	Symbol       *symbols.Symbol
}

func (n *TypeDeclaration) Accept(v Visitor) { v.VisitTypeDeclaration(n) }
func (n *TypeDeclaration) declNode()        {}

// FunctionDeclaration introduces an overloadable function binding:
// `func Name [ Placeholders ] Domain -> Codomain = Body`.
type FunctionDeclaration struct {
	base
	Name         string
	Placeholders []string
	Domain       TypeExpr
	Codomain     TypeExpr
	Body         Expression
	InnerScope   *symbols.Scope
	Symbol       *symbols.Symbol
}

func (n *FunctionDeclaration) Accept(v Visitor) { v.VisitFunctionDeclaration(n) }
func (n *FunctionDeclaration) declNode()        {}

// FunctionType is a type-signature node: `[ Placeholders ] Domain -> Codomain`.
type FunctionType struct {
	base
	Placeholders []string
	Domain       TypeExpr
	Codomain     TypeExpr
	Type         types.Type
}

func (n *FunctionType) Accept(v Visitor) { v.VisitFunctionType(n) }
func (n *FunctionType) typeExprNode()    {}

// ObjectTypeProperty is one `name: Type` entry of an ObjectType. When the
// object type is a function declaration's domain, Symbol is the parameter
// symbol the scope builder installs in the function's inner scope so the
// body can refer to the property by name.
type ObjectTypeProperty struct {
	base
	Name   string
	Body   TypeExpr
	Symbol *symbols.Symbol
}

func (n *ObjectTypeProperty) Accept(v Visitor) { v.VisitObjectTypeProperty(n) }

// ObjectType is a structural type-signature node: `[ Placeholders ] { name: Type, ... }`.
type ObjectType struct {
	base
	Placeholders []string
	Properties   []*ObjectTypeProperty
	Type         types.Type
}

func (n *ObjectType) Accept(v Visitor) { v.VisitObjectType(n) }
func (n *ObjectType) typeExprNode()    {}

// UnionType is a type-signature node: `Member | Member | ...`.
type UnionType struct {
	base
	Members []TypeExpr
	Type    types.Type
}

func (n *UnionType) Accept(v Visitor) { v.VisitUnionType(n) }
func (n *UnionType) typeExprNode()    {}

// ClosureExpression is an anonymous function literal:
// `Domain [ -> Codomain ] => Body`.
type ClosureExpression struct {
	base
	Domain     TypeExpr
	Codomain   TypeExpr
	Body       Expression
	InnerScope *symbols.Scope
	Type       types.Type
}

func (n *ClosureExpression) Accept(v Visitor) { v.VisitClosureExpression(n) }
func (n *ClosureExpression) exprNode()        {}

// CallExpression applies Callee to Argument: `Callee Argument`.
type CallExpression struct {
	base
	Callee   Expression
	Argument Expression
	Type     types.Type
}

func (n *CallExpression) Accept(v Visitor) { v.VisitCallExpression(n) }
func (n *CallExpression) exprNode()        {}

// InfixExpression is `Left Operator Right`, including field access
// (`Left . Right`, recognized in the inferer by the `.` symbol's identity).
type InfixExpression struct {
	base
	Operator *Identifier
	Left     Expression
	Right    Expression
	Type     types.Type
}

func (n *InfixExpression) Accept(v Visitor) { v.VisitInfixExpression(n) }
func (n *InfixExpression) exprNode()        {}

// PrefixExpression is `Operator Operand`.
type PrefixExpression struct {
	base
	Operator *Identifier
	Operand  Expression
	Type     types.Type
}

func (n *PrefixExpression) Accept(v Visitor) { v.VisitPrefixExpression(n) }
func (n *PrefixExpression) exprNode()        {}

// PostfixExpression is `Operand Operator`.
type PostfixExpression struct {
	base
	Operator *Identifier
	Operand  Expression
	Type     types.Type
}

func (n *PostfixExpression) Accept(v Visitor) { v.VisitPostfixExpression(n) }
func (n *PostfixExpression) exprNode()        {}

// IfExpression is `if Condition then Then else Else`.
type IfExpression struct {
	base
	Condition  Expression
	Then       Expression
	Else       Expression
	InnerScope *symbols.Scope
	Type       types.Type
}

func (n *IfExpression) Accept(v Visitor) { v.VisitIfExpression(n) }
func (n *IfExpression) exprNode()        {}

// WhenCase is one `when Pattern => Body` arm of a MatchExpression.
type WhenCase struct {
	base
	Pattern    Expression
	Body       Expression
	InnerScope *symbols.Scope
}

func (n *WhenCase) Accept(v Visitor) { v.VisitWhenCase(n) }

// ElseCase is the trailing `else => Body` arm of a MatchExpression.
type ElseCase struct {
	base
	Body Expression
}

func (n *ElseCase) Accept(v Visitor) { v.VisitElseCase(n) }

// MatchCase is implemented by WhenCase and ElseCase.
type MatchCase interface {
	Node
	matchCaseNode()
}

func (n *WhenCase) matchCaseNode() {}
func (n *ElseCase) matchCaseNode() {}

// MatchExpression is `match Subject { Cases... }`.
type MatchExpression struct {
	base
	Subject Expression
	Cases   []MatchCase
	Type    types.Type
}

func (n *MatchExpression) Accept(v Visitor) { v.VisitMatchExpression(n) }
func (n *MatchExpression) exprNode()        {}

// Binding is a name with an optional type annotation; the parser produces
// one as the pattern of a `when` case.
type Binding struct {
	base
	Name       string
	Annotation TypeExpr
	Type       types.Type
}

func (n *Binding) Accept(v Visitor) { v.VisitBinding(n) }
func (n *Binding) exprNode()        {}

// Identifier is a name reference. It appears both in expression position
// (a call's callee, an operand) and in type-signature position (naming a
// type alias). Scope binding resolves an identifier to the *scope* that
// declares it, deferring overload choice to the solver.
type Identifier struct {
	base
	Name         string
	Specializers map[string]TypeExpr
	Scope        *symbols.Scope
	Type         types.Type
}

func (n *Identifier) Accept(v Visitor) { v.VisitIdentifier(n) }
func (n *Identifier) exprNode()        {}
func (n *Identifier) typeExprNode()    {}

// ScalarLiteralKind distinguishes the four scalar literal shapes the lexer
// can produce.
type ScalarLiteralKind int

const (
	BoolLiteral ScalarLiteralKind = iota
	IntLiteral
	FloatLiteral
	StringLiteral
)

// ScalarLiteral is a literal bool, int, float, or string value.
type ScalarLiteral struct {
	base
	Kind  ScalarLiteralKind
	Value interface{}
	Type  types.Type
}

func (n *ScalarLiteral) Accept(v Visitor) { v.VisitScalarLiteral(n) }
func (n *ScalarLiteral) exprNode()        {}

// ListLiteral is `[ Items, ... ]`.
type ListLiteral struct {
	base
	Items []Expression
	Type  types.Type
}

func (n *ListLiteral) Accept(v Visitor) { v.VisitListLiteral(n) }
func (n *ListLiteral) exprNode()        {}

// ObjectLiteralProperty is one `name = Value` entry of an ObjectLiteral. Per
// the sanitizer contract, Key is always a ScalarLiteral (enforced by the
// parser, not the core).
type ObjectLiteralProperty struct {
	base
	Key   *ScalarLiteral
	Value Expression
}

func (n *ObjectLiteralProperty) Accept(v Visitor) { v.VisitObjectLiteralProperty(n) }

// ObjectLiteral is `{ name = Value, ... }`.
type ObjectLiteral struct {
	base
	Properties []*ObjectLiteralProperty
	Type       types.Type
}

func (n *ObjectLiteral) Accept(v Visitor) { v.VisitObjectLiteral(n) }
func (n *ObjectLiteral) exprNode()        {}

// Nothing is the absence marker `_`: used as a domain or codomain
// annotation when a function takes or returns nothing, and as the argument
// of a call applied to nothing (`f _`).
type Nothing struct {
	base
	Type types.Type
}

func (n *Nothing) Accept(v Visitor) { v.VisitNothing(n) }
func (n *Nothing) exprNode()        {}
func (n *Nothing) typeExprNode()    {}

// ArgRef is the implicit `$` reference to a function's sole argument,
// installed into a function's inner scope by the scope builder after its
// placeholders.
type ArgRef struct {
	base
	Symbol *symbols.Symbol
	Type   types.Type
}

func (n *ArgRef) Accept(v Visitor) { v.VisitArgRef(n) }
func (n *ArgRef) exprNode()        {}

// NewRange is a small helper constructors use to build a base from two
// tokens delimiting a node.
func NewRange(start, end token.Token) token.Range {
	return token.Range{Start: start.Range.Start, End: end.Range.End}
}
