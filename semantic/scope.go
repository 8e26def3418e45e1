package semantic

import "ferrite/types"

// ItemKind tags what a scope binding refers to (spec.md §4.3 "Scopes":
// "items are: value(type), constant(type,value), type(definition),
// function(signature), module(scope), contract(scope+fields)").
type ItemKind int

const (
	ItemValue ItemKind = iota
	ItemConstant
	ItemType
	ItemFunction
	ItemModule
	ItemContract
)

// Binding is one name's entry in a Scope.
type Binding struct {
	Kind     ItemKind
	Type     types.Type
	Constant *ConstValue // non-nil only for ItemConstant
	Function *types.Function
	Mutable  bool
}

// scopeHandle indexes into the analyzer's scope arena. Using an integer
// handle instead of a pointer means a child's back-reference to its
// parent can never form an ownership cycle with Go's garbage collector
// (spec.md §9 "Cyclic references": "Use an arena for scopes indexed by
// integer handles, and store parent as an optional handle").
type scopeHandle int

const noParent scopeHandle = -1

// scope is one lexical scope: block, function, impl, contract, or
// module (spec.md §4.3 "Scopes").
type scope struct {
	parent   scopeHandle
	bindings map[string]Binding
}

// scopeArena owns every scope created during analysis; scopes are never
// freed individually, only dropped with the whole arena at the end of a
// pass.
type scopeArena struct {
	scopes []scope
}

func newScopeArena() *scopeArena {
	return &scopeArena{}
}

// push creates a new scope, child of parent, and returns its handle.
func (a *scopeArena) push(parent scopeHandle) scopeHandle {
	a.scopes = append(a.scopes, scope{parent: parent, bindings: map[string]Binding{}})
	return scopeHandle(len(a.scopes) - 1)
}

// declare binds name in the scope identified by h. Redeclaring a name
// already bound directly in h (not an ancestor) is a caller-reported
// DuplicateBinding error (spec.md §4.3 "Duplicate bindings within a
// single block are errors").
func (a *scopeArena) declare(h scopeHandle, name string, b Binding) bool {
	s := &a.scopes[h]
	if _, exists := s.bindings[name]; exists {
		return false
	}
	s.bindings[name] = b
	return true
}

// lookup walks from h up through ancestors until name resolves or the
// root is exhausted (spec.md §4.3 "lookup walks up until a match or
// root").
func (a *scopeArena) lookup(h scopeHandle, name string) (Binding, bool) {
	for h != noParent {
		s := &a.scopes[h]
		if b, ok := s.bindings[name]; ok {
			return b, true
		}
		h = s.parent
	}
	return Binding{}, false
}
