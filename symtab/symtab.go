// Package symtab implements a nested symbol table. The table always has a
// class scope at the bottom; further scopes are pushed while walking lexical
// blocks. A table may point at a parent table to mirror single inheritance.
// The parent is only used for lookups and is owned by whoever built it.
package symtab

import (
	"fmt"

	"coolc/status"
)

// SymbolTable is a stack of scopes over keys K and values V.
type SymbolTable[K comparable, V any] struct {
	scopes []map[K]V
	parent *SymbolTable[K, V]
}

// New returns a table holding only the class scope.
func New[K comparable, V any]() *SymbolTable[K, V] {
	return &SymbolTable[K, V]{
		scopes: []map[K]V{make(map[K]V)},
	}
}

// AddElement adds key to the current scope. It fails if key is already
// defined in that same scope; outer scopes may hold the key.
func (st *SymbolTable[K, V]) AddElement(key K, value V) status.Status {
	top := st.scopes[len(st.scopes)-1]
	if _, exists := top[key]; exists {
		return status.Errorf("duplicate in scope: %v", key)
	}
	top[key] = value
	return status.Ok()
}

// EnterScope pushes a new empty scope.
func (st *SymbolTable[K, V]) EnterScope() {
	st.scopes = append(st.scopes, make(map[K]V))
}

// ExitScope pops the current scope. Popping the class scope panics.
func (st *SymbolTable[K, V]) ExitScope() {
	if len(st.scopes) == 1 {
		panic("symtab: attempt to exit the class scope")
	}
	st.scopes[len(st.scopes)-1] = nil
	st.scopes = st.scopes[:len(st.scopes)-1]
}

// FindKeyInScope reports whether key is defined in the current scope.
func (st *SymbolTable[K, V]) FindKeyInScope(key K) bool {
	_, ok := st.scopes[len(st.scopes)-1][key]
	return ok
}

// FindKeyInTable reports whether key is defined in any scope of this table.
// The parent table is not consulted.
func (st *SymbolTable[K, V]) FindKeyInTable(key K) bool {
	_, ok := st.Lookup(key)
	return ok
}

// Lookup returns the innermost value bound to key in this table.
func (st *SymbolTable[K, V]) Lookup(key K) (V, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if v, ok := st.scopes[i][key]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Get returns the value bound to key. The key must be present: callers check
// with FindKeyInScope or FindKeyInTable first.
func (st *SymbolTable[K, V]) Get(key K) V {
	v, ok := st.Lookup(key)
	if !ok {
		panic(fmt.Sprintf("symtab: key %v is not in the table", key))
	}
	return v
}

// SetParentTable links the table used for inherited lookups.
func (st *SymbolTable[K, V]) SetParentTable(parent *SymbolTable[K, V]) {
	st.parent = parent
}

// Parent returns the parent table, or nil.
func (st *SymbolTable[K, V]) Parent() *SymbolTable[K, V] {
	return st.parent
}

// Count returns the number of keys across the scopes of this table.
func (st *SymbolTable[K, V]) Count() int {
	n := 0
	for _, scope := range st.scopes {
		n += len(scope)
	}
	return n
}

// Depth returns the number of scopes, class scope included.
func (st *SymbolTable[K, V]) Depth() int {
	return len(st.scopes)
}
