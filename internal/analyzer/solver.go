package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mamba-lang/mamba/internal/constraint"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/types"
)

// Solver is the backtracking constraint solver. It drains a sorted list of
// constraints, forking into independent continuations whenever it hits a
// Disjunction, and yields one substitution per satisfiable branch of the
// search. Branches are explored depth-first, last-forked-first.
type Solver struct {
	// MaxDisjunctionFanOut bounds how many choices a single Disjunction may
	// fork into. Zero means unbounded. This is a defensive bound
	// independent of the stuck detector below, which catches a different
	// failure mode (no progress at all, rather than too much branching).
	MaxDisjunctionFanOut int

	nextID int
}

// NewSolver creates a Solver with the given fan-out bound (0 = unbounded).
func NewSolver(maxDisjunctionFanOut int) *Solver {
	return &Solver{MaxDisjunctionFanOut: maxDisjunctionFanOut}
}

// workItem pairs a constraint with a synthetic identity. The id survives a
// deferral, so the fingerprint below can recognize a work list the solver
// has seen before.
type workItem struct {
	id int
	c  constraint.Constraint
}

type branch struct {
	items []workItem
	sub   types.Subst
}

// Solution is one satisfiable assignment the solver found.
type Solution struct {
	Subst types.Subst
}

// String renders a solution as one `__N: Type` line per bound variable,
// sorted by variable id for deterministic output across runs.
func (sol Solution) String() string {
	ids := make([]int, 0, len(sol.Subst))
	for id := range sol.Subst {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = fmt.Sprintf("__%d: %s", id, sol.Subst[id].String())
	}
	return strings.Join(lines, "\n")
}

// Solve runs the solver to completion and returns every solution found. A
// failed branch does not prevent its siblings from being explored; the
// errors of failed branches are returned only when no branch yields a
// solution.
func (s *Solver) Solve(constraints []constraint.Constraint) ([]Solution, []error) {
	items := make([]workItem, len(constraints))
	for i, c := range constraints {
		items[i] = workItem{id: i, c: c}
	}
	s.nextID = len(items)

	stack := []branch{{items: sortedWork(items), sub: types.Subst{}}}

	var solutions []Solution
	var errs []error

	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, solved, err := s.run(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if solved != nil {
			solutions = append(solutions, Solution{Subst: solved})
			continue
		}
		stack = append(stack, children...)
	}

	// A branch failing inside a disjunction is not itself a reportable
	// failure as long as some sibling branch solves. Errors only surface
	// once every branch has failed and no solution survived.
	if len(solutions) > 0 {
		return solutions, nil
	}
	return solutions, errs
}

func sortedWork(items []workItem) []workItem {
	out := append([]workItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return constraint.Less(out[i].c, out[j].c) })
	return out
}

// fingerprint hashes the pending work list, order included, so the stuck
// detector below only fires when an iteration left the list in exactly the
// state it found it (a deferred constraint re-queued at the back changes
// the order and therefore the fingerprint, so mere deferral is progress
// as long as something else can still run).
func fingerprint(items []workItem) uint64 {
	h := uint64(14695981039346656037)
	for _, it := range items {
		h ^= uint64(it.id)
		h *= 1099511628211
	}
	return h
}

// run drains one branch until either it forks into children (a Disjunction
// was reached), it fails (a constraint could not be solved), or it
// completes (every constraint was consumed, yielding a solution).
func (s *Solver) run(b branch) (children []branch, solution types.Subst, err error) {
	items := b.items
	sub := b.sub

	haveFingerprint := false
	lastFingerprint := uint64(0)
	deferStreak := 0

	for len(items) > 0 {
		// The system is stuck when an iteration reproduces the previous
		// work list exactly, or when every remaining constraint has been
		// deferred in a row without any of them resolving.
		fp := fingerprint(items)
		if (haveFingerprint && fp == lastFingerprint) || deferStreak > len(items) {
			return nil, nil, diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrZ002, items[0].c.Range)
		}
		haveFingerprint = true
		lastFingerprint = fp

		item := items[0]
		items = items[1:]

		switch item.c.Kind {
		case constraint.Equals:
			if err := unify(item.c.Lhs, item.c.Rhs, item.c.Range, sub); err != nil {
				return nil, nil, err
			}
			deferStreak = 0

		case constraint.Conforms:
			deferred, err := s.solveConforms(item.c, sub)
			if err != nil {
				return nil, nil, err
			}
			if deferred {
				items = append(items, item)
				deferStreak++
			} else {
				deferStreak = 0
			}

		case constraint.Specializes:
			deferred, err := s.solveSpecializes(item.c, sub)
			if err != nil {
				return nil, nil, err
			}
			if deferred {
				items = append(items, item)
				deferStreak++
			} else {
				deferStreak = 0
			}

		case constraint.Disjunction:
			if s.MaxDisjunctionFanOut > 0 && len(item.c.Choices) > s.MaxDisjunctionFanOut {
				return nil, nil, diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrZ003, item.c.Range, s.MaxDisjunctionFanOut)
			}
			forks := make([]branch, 0, len(item.c.Choices))
			for _, choice := range item.c.Choices {
				childItems := make([]workItem, 0, len(items)+1)
				childItems = append(childItems, workItem{id: s.nextID, c: choice})
				s.nextID++
				childItems = append(childItems, items...)
				forks = append(forks, branch{items: sortedWork(childItems), sub: cloneSubst(sub)})
			}
			return forks, nil, nil
		}
	}

	result := types.Subst{}
	for k, v := range sub {
		result[k] = deepWalk(v, sub)
	}
	return nil, result, nil
}

// solveConforms: a right side that is still a variable defers the whole
// constraint (there is nothing to check structurally yet); a left side
// that is a variable degrades to equality, since an unconstrained left
// trivially conforms to whatever the right side turns out to be.
func (s *Solver) solveConforms(c constraint.Constraint, sub types.Subst) (deferred bool, err error) {
	a := walk(c.Lhs, sub)
	b := walk(c.Rhs, sub)

	if _, ok := b.(types.TVar); ok {
		return true, nil
	}
	if _, ok := a.(types.TVar); ok {
		return false, unify(a, b, c.Range, sub)
	}
	return false, conforms(a, b, c.Range, sub)
}

func (s *Solver) solveSpecializes(c constraint.Constraint, sub types.Subst) (deferred bool, err error) {
	a := walk(c.Lhs, sub)
	b := walk(c.Rhs, sub)

	if _, ok := b.(types.TVar); ok {
		return true, nil
	}

	placeholders := placeholdersOf(b)
	if len(placeholders) == 0 {
		return false, unify(a, b, c.Range, sub)
	}

	// Resolve the `_0` single-placeholder sugar and reject explicit
	// arguments that do not name a placeholder of the generic side.
	explicit := map[string]types.Type{}
	for _, key := range sortedArgKeys(c.Args) {
		v := c.Args[key]
		if key == "_0" {
			if len(placeholders) != 1 {
				return false, diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrU007, c.Range, key, b.String())
			}
			explicit[placeholders[0]] = v
			continue
		}
		if !containsString(placeholders, key) {
			return false, diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrU007, c.Range, key, b.String())
		}
		explicit[key] = v
	}

	// Explicit arguments are substituted first, so they guide the
	// specialization even when the pattern side is still an unbound
	// variable; any placeholders left over are resolved structurally
	// against the pattern.
	if len(explicit) > 0 {
		substituted, specErr := specializeWithArgs(b, explicit)
		if specErr != nil {
			return false, diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrU006, c.Range, specErr.Error())
		}
		b = substituted
		placeholders = placeholdersOf(b)
	}
	if len(placeholders) == 0 {
		return false, unify(a, b, c.Range, sub)
	}

	specialized, specErr := specialize(b, a, nil)
	if specErr != nil {
		return false, diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrU006, c.Range, specErr.Error())
	}
	return false, unify(specialized, a, c.Range, sub)
}

func sortedArgKeys(args map[string]types.Type) []string {
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneSubst(sub types.Subst) types.Subst {
	out := make(types.Subst, len(sub))
	for k, v := range sub {
		out[k] = v
	}
	return out
}
