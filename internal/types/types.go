// Package types implements Mamba's structural type algebra: ground types,
// inference variables, generic placeholders, type aliases, structural object
// types, function types, and union types. It is the vocabulary the scope
// passes, the constraint inferer, and the constraint solver all share.
package types

import (
	"fmt"
	"strings"
)

// Type is satisfied by every member of the type algebra except TypeAlias,
// which names an inference target but never transits in constraints
// directly (it is unwrapped to its Subject before use).
type Type interface {
	String() string
	// Apply returns the type obtained by substituting every type variable
	// bound in s with its image, recursively.
	Apply(s Subst) Type
	// FreeTypeVariables returns the set of type variables appearing in the
	// type, in first-occurrence order.
	FreeTypeVariables() []TVar
}

// TVar is an inference unknown, identified by a unique monotonic id.
type TVar struct {
	ID int
}

func (t TVar) String() string { return fmt.Sprintf("__%d", t.ID) }

func (t TVar) Apply(s Subst) Type {
	return applyWithCycleCheck(t, s, map[int]bool{})
}

func (t TVar) FreeTypeVariables() []TVar { return []TVar{t} }

// counter hands out monotonically increasing TVar ids. It is not
// goroutine-safe; the whole analysis runs on a single goroutine.
type counter struct{ next int }

// NewVarSource returns a fresh, independent source of type variables. Each
// compilation should use exactly one, so ids are stable and comparable
// within a run without being globally shared across unrelated runs (tests in
// particular want ids starting at 0).
func NewVarSource() *VarSource { return &VarSource{} }

// VarSource mints fresh TVars.
type VarSource struct {
	counter
}

// Fresh returns a new, distinct TVar.
func (v *VarSource) Fresh() TVar {
	id := v.next
	v.next++
	return TVar{ID: id}
}

// GroundType is a named nullary type, optionally generic (e.g. List[Element]).
type GroundType struct {
	Name         string
	Placeholders []string
}

func (t GroundType) String() string {
	if len(t.Placeholders) > 0 {
		return "[ " + strings.Join(t.Placeholders, ", ") + " ]" + t.Name
	}
	return t.Name
}

func (t GroundType) Apply(s Subst) Type { return t }

func (t GroundType) FreeTypeVariables() []TVar { return nil }

// TypePlaceholder is a named slot bound inside a declaration's inner scope,
// substituted during specialization.
type TypePlaceholder struct {
	Name string
}

func (t TypePlaceholder) String() string { return t.Name }

func (t TypePlaceholder) Apply(s Subst) Type { return t }

func (t TypePlaceholder) FreeTypeVariables() []TVar { return nil }

// TypeAlias wraps a type that names an inference target (a type
// declaration's symbol). It deliberately does not implement Type: an alias
// never transits in a constraint directly — callers unwrap Subject before
// building one.
type TypeAlias struct {
	Subject Type
}

func (t TypeAlias) String() string { return "~" + t.Subject.String() }

// ObjectType is an ordered mapping from property name to type, plus a list
// of placeholder names. Property order is preserved for deterministic
// String() output and for the rare case two different orderings of the same
// key set should print distinctly in diagnostics.
type ObjectType struct {
	Names        []string
	Properties   map[string]Type
	Placeholders []string
}

// NewObjectType builds an ObjectType from an ordered list of (name, type)
// pairs.
func NewObjectType(names []string, properties map[string]Type, placeholders []string) ObjectType {
	return ObjectType{Names: append([]string(nil), names...), Properties: properties, Placeholders: placeholders}
}

func (t ObjectType) String() string {
	var prefix string
	if len(t.Placeholders) > 0 {
		prefix = "[ " + strings.Join(t.Placeholders, ", ") + " ]"
	}
	props := make([]string, 0, len(t.Names))
	for _, name := range t.Names {
		props = append(props, fmt.Sprintf("%s: %s", name, t.Properties[name].String()))
	}
	return prefix + "{ " + strings.Join(props, ", ") + " }"
}

func (t ObjectType) Apply(s Subst) Type {
	return applyWithCycleCheck(t, s, map[int]bool{})
}

func (t ObjectType) FreeTypeVariables() []TVar {
	var vars []TVar
	for _, name := range t.Names {
		vars = append(vars, t.Properties[name].FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// Len returns the number of properties.
func (t ObjectType) Len() int { return len(t.Names) }

// Has reports whether the object type declares the given property.
func (t ObjectType) Has(name string) bool {
	_, ok := t.Properties[name]
	return ok
}

// SoleProperty returns the single property of a one-property object type.
// Panics if the type has no properties and returns the first property if
// it has several; callers must check Len() == 1 first.
func (t ObjectType) SoleProperty() (string, Type) {
	name := t.Names[0]
	return name, t.Properties[name]
}

// UnionType is an ordered list of member types.
type UnionType struct {
	Members []Type
}

func (t UnionType) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

func (t UnionType) Apply(s Subst) Type {
	members := make([]Type, len(t.Members))
	for i, m := range t.Members {
		members[i] = m.Apply(s)
	}
	return UnionType{Members: members}
}

func (t UnionType) FreeTypeVariables() []TVar {
	var vars []TVar
	for _, m := range t.Members {
		vars = append(vars, m.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// FunctionType is a domain type, a codomain type, plus placeholder names.
type FunctionType struct {
	Domain       Type
	Codomain     Type
	Placeholders []string
}

func (t FunctionType) String() string {
	var prefix string
	if len(t.Placeholders) > 0 {
		prefix = "[ " + strings.Join(t.Placeholders, ", ") + " ]"
	}
	return fmt.Sprintf("%s%s -> %s", prefix, t.Domain.String(), t.Codomain.String())
}

func (t FunctionType) Apply(s Subst) Type {
	return applyWithCycleCheck(t, s, map[int]bool{})
}

func (t FunctionType) FreeTypeVariables() []TVar {
	vars := append([]TVar{}, t.Domain.FreeTypeVariables()...)
	vars = append(vars, t.Codomain.FreeTypeVariables()...)
	return uniqueTVars(vars)
}

// Subst is a mapping from type variable id to the type it is bound to.
type Subst map[int]Type

// applyWithCycleCheck is the one substitution-walker every aggregate type
// funnels through, so cyclic object types are handled uniformly:
// a variable already on the path back to itself is returned unsubstituted
// rather than recursing forever.
func applyWithCycleCheck(t Type, s Subst, visiting map[int]bool) Type {
	switch typ := t.(type) {
	case TVar:
		if visiting[typ.ID] {
			return typ
		}
		if replacement, ok := s[typ.ID]; ok {
			if rv, ok := replacement.(TVar); ok && rv.ID == typ.ID {
				return typ
			}
			next := make(map[int]bool, len(visiting)+1)
			for k := range visiting {
				next[k] = true
			}
			next[typ.ID] = true
			return applyWithCycleCheck(replacement, s, next)
		}
		return typ

	case ObjectType:
		names := append([]string(nil), typ.Names...)
		props := make(map[string]Type, len(typ.Properties))
		for _, name := range names {
			props[name] = applyWithCycleCheck(typ.Properties[name], s, visiting)
		}
		return ObjectType{Names: names, Properties: props, Placeholders: typ.Placeholders}

	case FunctionType:
		return FunctionType{
			Domain:       applyWithCycleCheck(typ.Domain, s, visiting),
			Codomain:     applyWithCycleCheck(typ.Codomain, s, visiting),
			Placeholders: typ.Placeholders,
		}

	case UnionType:
		members := make([]Type, len(typ.Members))
		for i, m := range typ.Members {
			members[i] = applyWithCycleCheck(m, s, visiting)
		}
		return UnionType{Members: members}

	default:
		return t.Apply(s)
	}
}

func uniqueTVars(vars []TVar) []TVar {
	seen := make(map[int]bool, len(vars))
	out := make([]TVar, 0, len(vars))
	for _, v := range vars {
		if !seen[v.ID] {
			seen[v.ID] = true
			out = append(out, v)
		}
	}
	return out
}

// Builtin ground types, mirrored by aliases in the builtin scope.
var (
	Bool   = GroundType{Name: "Bool"}
	Int    = GroundType{Name: "Int"}
	Float  = GroundType{Name: "Float"}
	String = GroundType{Name: "String"}
	List   = GroundType{Name: "List", Placeholders: []string{"Element"}}
	Set    = GroundType{Name: "Set", Placeholders: []string{"Element"}}
	// Nothing is both the codomain of side-effecting builtins (print) and
	// the type of a domain annotated with the absence marker `_`.
	Nothing = GroundType{Name: "Nothing"}
)

// EmptyObject is the conformance top: an object type with no properties,
// which absorbs anything it is conformed against.
func EmptyObject() ObjectType {
	return ObjectType{Properties: map[string]Type{}}
}
