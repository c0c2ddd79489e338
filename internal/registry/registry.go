package registry

import "github.com/gitrdm/hyperprobcheck/internal/smtterm"

// Registry is the Variable Registry. It owns the two sort-keyed
// mappings (Boolean and real) from name to solver term handle and the
// reverse structured
// index the Result Extractor reads from.
type Registry struct {
	program *smtterm.Program
	bools   map[string]*smtterm.Term
	reals   map[string]*smtterm.Term
	byName  map[string]Key
	order   []string // first-seen order, for deterministic iteration
}

// New returns an empty Registry bound to program: every variable the
// Registry mints is declared in program as it is created.
func New(program *smtterm.Program) *Registry {
	return &Registry{
		program: program,
		bools:   make(map[string]*smtterm.Term),
		reals:   make(map[string]*smtterm.Term),
		byName:  make(map[string]Key),
	}
}

// Term returns the term handle for key, minting and declaring it on
// first use. Repeated calls with an equal Key return the same *Term
// (spec section 3's invariant: "at most one Boolean/real ... exist").
func (r *Registry) Term(key Key) *smtterm.Term {
	name := key.Name()
	if key.Kind == KindHolds {
		if t, ok := r.bools[name]; ok {
			return t
		}
		t := smtterm.Var(name, smtterm.SortBool)
		r.bools[name] = t
		r.record(name, key)
		r.program.Declare(name, smtterm.SortBool)
		return t
	}
	if t, ok := r.reals[name]; ok {
		return t
	}
	t := smtterm.Var(name, smtterm.SortReal)
	r.reals[name] = t
	r.record(name, key)
	r.program.Declare(name, smtterm.SortReal)
	return t
}

func (r *Registry) record(name string, key Key) {
	if _, ok := r.byName[name]; !ok {
		r.byName[name] = key
		r.order = append(r.order, name)
	}
}

// Lookup returns the structured Key behind name, if it was minted
// through this Registry.
func (r *Registry) Lookup(name string) (Key, bool) {
	k, ok := r.byName[name]
	return k, ok
}

// Has reports whether key has already been minted (without minting it).
func (r *Registry) Has(key Key) bool {
	name := key.Name()
	if key.Kind == KindHolds {
		_, ok := r.bools[name]
		return ok
	}
	_, ok := r.reals[name]
	return ok
}

// Names returns every minted variable name in first-seen order
// (deterministic, per spec section 5).
func (r *Registry) Names() []string { return append([]string(nil), r.order...) }

// CountBySort returns (#bool, #real) variables minted so far, used for
// the solver-statistics report in the Result Extractor.
func (r *Registry) CountBySort() (bools, reals int) {
	return len(r.bools), len(r.reals)
}
