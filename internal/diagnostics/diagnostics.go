// Package diagnostics carries the closed error taxonomy every pass of the
// semantic core raises into: an ErrorCode enum, a template table, and a
// DiagnosticError that renders itself with source position, phase, and
// code.
package diagnostics

import (
	"fmt"

	"github.com/mamba-lang/mamba/internal/token"
)

// Phase identifies which of the four core passes (or an ambient collaborator)
// raised a diagnostic.
type Phase string

const (
	PhaseLexer        Phase = "lexer"
	PhaseParser       Phase = "parser"
	PhaseScopeBuilder Phase = "scope-builder"
	PhaseScopeBinder  Phase = "scope-binder"
	PhaseInference    Phase = "inference"
	PhaseSolver       Phase = "solver"
)

// ErrorCode identifies a specific diagnostic template. The prefix groups
// codes by the pass family that raises them: S (scope building/binding),
// G (signature/type-expression errors), U (unification/conformance/
// specialization failures), Z (solver-level failures: exhausted search,
// stuck detection, configured bounds).
type ErrorCode string

const (
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // expected an identifier
	ErrP003 ErrorCode = "P003" // expected a declaration
	ErrP004 ErrorCode = "P004" // imbalanced parenthesis
	ErrP005 ErrorCode = "P005" // expected a type annotation

	ErrS001 ErrorCode = "S001" // redeclaration conflict
	ErrS002 ErrorCode = "S002" // undeclared identifier
	ErrS003 ErrorCode = "S003" // duplicate placeholder name

	ErrG001 ErrorCode = "G001" // identifier in type position is not a type
	ErrG002 ErrorCode = "G002" // overloaded identifier in type position
	ErrG003 ErrorCode = "G003" // specializer argument does not match a placeholder
	ErrG004 ErrorCode = "G004" // duplicate property in an object type

	ErrU001 ErrorCode = "U001" // unification kind mismatch
	ErrU002 ErrorCode = "U002" // unification key-set mismatch
	ErrU003 ErrorCode = "U003" // occurs check failure
	ErrU004 ErrorCode = "U004" // conformance: missing required property
	ErrU006 ErrorCode = "U006" // specialization: inconsistent placeholder mapping
	ErrU007 ErrorCode = "U007" // specialization: explicit argument does not match a placeholder

	ErrZ001 ErrorCode = "Z001" // disjunction exhausted: no candidate solves
	ErrZ002 ErrorCode = "Z002" // solver stuck: no progress across an iteration
	ErrZ003 ErrorCode = "Z003" // disjunction fan-out exceeded the configured bound
)

var errorTemplates = map[ErrorCode]string{
	ErrP001: "unexpected token %s, expected %s",
	ErrP002: "expected an identifier, found %s",
	ErrP003: "expected a declaration, found %s",
	ErrP004: "imbalanced parenthesis",
	ErrP005: "expected a type annotation, found %s",

	ErrS001: "'%s' is already declared in this scope and cannot be overloaded",
	ErrS002: "undeclared identifier '%s'",
	ErrS003: "placeholder '%s' is declared more than once",

	ErrG001: "'%s' is not a type",
	ErrG002: "'%s' is overloaded and cannot be used as a type",
	ErrG003: "extraneous explicit specialization '%s'",
	ErrG004: "property '%s' is declared more than once",

	ErrU001: "incompatible types %s and %s",
	ErrU002: "incompatible types %s and %s: object properties differ",
	ErrU003: "occurs check failed: %s occurs in %s",
	ErrU004: "type %s does not have a property '%s'",
	ErrU006: "specialization failed: %s",
	ErrU007: "specializer argument '%s' does not name a placeholder of %s",

	ErrZ001: "no overload of '%s' satisfies the constraints at this call site",
	ErrZ002: "constraint system appears to be unsolvable",
	ErrZ003: "disjunction fan-out exceeded the configured bound (%d)",
}

// DiagnosticError is the single error type every pass returns.
type DiagnosticError struct {
	Code  ErrorCode
	Phase Phase
	Args  []interface{}
	Range token.Range
	File  string
}

func (e *DiagnosticError) Error() string {
	template, ok := errorTemplates[e.Code]
	if !ok {
		return fmt.Sprintf("unknown error code: %s", e.Code)
	}
	message := fmt.Sprintf(template, e.Args...)

	prefix := ""
	if e.File != "" {
		prefix = e.File + ": "
	}
	phaseStr := ""
	if e.Phase != "" {
		phaseStr = fmt.Sprintf("[%s] ", e.Phase)
	}
	return fmt.Sprintf("%s%s%s [%s]: %s", prefix, phaseStr, e.Range.Start.String(), e.Code, message)
}

// New builds a DiagnosticError for the given phase, code, and source range.
func New(phase Phase, code ErrorCode, rng token.Range, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Phase: phase, Range: rng, Args: args}
}

// WithFile returns a copy of e with File set, used once the pipeline knows
// which input file is being compiled.
func (e *DiagnosticError) WithFile(file string) *DiagnosticError {
	clone := *e
	clone.File = file
	return &clone
}
