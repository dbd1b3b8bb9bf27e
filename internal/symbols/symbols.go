// Package symbols implements the scope tree: a parent-pointer chain of
// scopes rooted at a single, process-wide immutable builtin scope, each
// scope mapping names to one or more overloadable symbols.
package symbols

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/mamba-lang/mamba/internal/types"
)

// Symbol is a named, typed entity: a declaration, a binding, or a builtin.
// Overloadable symbols share a name within a scope; non-overloadable ones
// are always alone in their name's slot.
type Symbol struct {
	Name         string
	Type         types.Type
	Overloadable bool
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s: %s", s.Name, s.Type.String())
}

// Scope is one node of the scope tree. The root scope (Parent == nil) is the
// shared builtin scope; every other scope is owned by exactly one AST node
// (a Module, a declaration, a closure, a when-case, an if-branch...).
type Scope struct {
	Parent  *Scope
	symbols map[string][]*Symbol
	// order preserves insertion order for deterministic iteration in tests
	// and diagnostics (map iteration order is not stable in Go).
	order []string
}

// NewScope creates a child scope of parent. parent may be nil only for the
// root builtin scope.
func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, symbols: map[string][]*Symbol{}}
}

// Insert adds sym to the scope under its own name. If an existing symbol
// with that name is present and either is non-overloadable, Insert reports
// false and does not add the symbol (the caller raises a redeclaration
// diagnostic).
func (s *Scope) Insert(sym *Symbol) bool {
	existing := s.symbols[sym.Name]
	if len(existing) > 0 {
		if !sym.Overloadable || !existing[0].Overloadable {
			return false
		}
	} else {
		s.order = append(s.order, sym.Name)
	}
	s.symbols[sym.Name] = append(existing, sym)
	return true
}

// Local returns the symbols declared directly in this scope under name,
// without walking parents.
func (s *Scope) Local(name string) []*Symbol {
	return s.symbols[name]
}

// Lookup returns every symbol visible under name, searching this scope and
// then its ancestors. Overload sets do not merge across scope boundaries:
// the first scope (walking up from s) that declares name wins outright,
// shadowing any same-named symbols further up.
func (s *Scope) Lookup(name string) []*Symbol {
	for scope := s; scope != nil; scope = scope.Parent {
		if syms, ok := scope.symbols[name]; ok {
			return syms
		}
	}
	return nil
}

// Contains reports whether name is visible from s (in s or any ancestor).
func (s *Scope) Contains(name string) bool {
	return s.Lookup(name) != nil
}

// FindScopeOf walks from s up through ancestors and returns the Scope that
// defines name — not the symbol itself, since the binder defers overload
// resolution to the constraint solver. Returns nil if name is undeclared
// anywhere in the chain.
func (s *Scope) FindScopeOf(name string) *Scope {
	for scope := s; scope != nil; scope = scope.Parent {
		if _, ok := scope.symbols[name]; ok {
			return scope
		}
	}
	return nil
}

// Names returns the names declared directly in this scope, in insertion
// order.
func (s *Scope) Names() []string {
	return slices.Clone(s.order)
}

// DotSymbol is the builtin `.` field-access symbol. The inferer recognizes
// field-access infix expressions by comparing an operator's resolved
// symbols against this pointer, not by token text.
var DotSymbol *Symbol

// builtin is the single, shared, immutable root scope every compilation's
// module scope chains up to. It is built once at package init and never
// mutated afterward.
var builtin = buildBuiltinScope()

// Builtin returns the process-wide immutable builtin scope.
func Builtin() *Scope {
	return builtin
}

func buildBuiltinScope() *Scope {
	s := NewScope(nil)

	define := func(name string, t types.Type, overloadable bool) {
		s.Insert(&Symbol{Name: name, Type: t, Overloadable: overloadable})
	}

	// Builtin ground types are bound as aliases so `Int`, `String`, etc. can
	// be referenced as identifiers in type-signature position and unwrapped
	// to their Subject before taking part in a constraint.
	defineAlias := func(name string, subject types.Type) {
		s.Insert(&Symbol{Name: name, Type: aliasType{types.TypeAlias{Subject: subject}}})
	}

	defineAlias("Object", types.EmptyObject())
	defineAlias("Bool", types.Bool)
	defineAlias("Int", types.Int)
	defineAlias("Float", types.Float)
	defineAlias("String", types.String)
	defineAlias("List", types.List)
	defineAlias("Set", types.Set)

	elementPlaceholder := types.TypePlaceholder{Name: "Element"}

	// `.` is opaque field-access sugar handled specially by the inferer
	// (identified by symbol identity, not token text); it is still declared
	// here so scope binding finds a defining scope for it.
	DotSymbol = &Symbol{Name: ".", Type: types.FunctionType{
		Domain:   types.EmptyObject(),
		Codomain: types.EmptyObject(),
	}, Overloadable: false}
	s.Insert(DotSymbol)

	// `!` is list indexing; this is the only `!` signature installed.
	define("!", types.FunctionType{
		Placeholders: []string{"Element"},
		Domain: types.NewObjectType(
			[]string{"lhs", "rhs"},
			map[string]types.Type{
				"lhs": types.GroundType{Name: "List", Placeholders: []string{"Element"}},
				"rhs": types.Int,
			},
			nil,
		),
		Codomain: elementPlaceholder,
	}, true)

	define("+", types.FunctionType{
		Domain: types.NewObjectType([]string{"lhs", "rhs"}, map[string]types.Type{
			"lhs": types.Int, "rhs": types.Int,
		}, nil),
		Codomain: types.Int,
	}, true)
	define("+", types.FunctionType{
		Domain: types.NewObjectType([]string{"lhs", "rhs"}, map[string]types.Type{
			"lhs": types.Float, "rhs": types.Float,
		}, nil),
		Codomain: types.Float,
	}, true)

	define("print", types.FunctionType{
		Domain:   types.NewObjectType([]string{"item"}, map[string]types.Type{"item": types.EmptyObject()}, nil),
		Codomain: types.Nothing,
	}, false)

	return s
}

// aliasType lets a types.TypeAlias (which deliberately does not implement
// types.Type) still occupy a Symbol.Type slot: scope-bound
// identifiers that resolve to a type declaration carry their alias wrapped
// this way, and callers that need the Type interface call Unwrap first.
type aliasType struct {
	types.TypeAlias
}

func (a aliasType) String() string { return a.TypeAlias.String() }

// Apply satisfies types.Type by forwarding to the wrapped subject, so an
// aliasType can sit in a Subst-bearing position without panicking; callers
// that care about alias-ness use Unwrap.
func (a aliasType) Apply(s types.Subst) types.Type { return a.TypeAlias.Subject.Apply(s) }

func (a aliasType) FreeTypeVariables() []types.TVar { return a.TypeAlias.Subject.FreeTypeVariables() }

// Unwrap returns the aliased Type and true if t is an alias wrapper,
// otherwise t unchanged and false.
func Unwrap(t types.Type) (types.Type, bool) {
	if a, ok := t.(aliasType); ok {
		return a.TypeAlias.Subject, true
	}
	return t, false
}

// NewAliasType wraps subject as a type-alias-flavored types.Type, suitable
// for a Symbol.Type field (the scope builder uses this for type
// declarations, whose symbol aliases the still-unknown body type).
func NewAliasType(subject types.Type) types.Type {
	return aliasType{types.TypeAlias{Subject: subject}}
}
