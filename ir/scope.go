package ir

import "sort"

// Scope is a node of the nested scope tree the frontend hands the
// optimizer: a local symbol table plus an ordered operation list (spec
// §4.1's "Input" paragraph).
type Scope struct {
	Depth      uint8
	Variables  map[LocalID]Item
	Operations []Operation

	nextID uint16
}

// RootScope creates the depth-0 scope the whole kernel body is parsed into.
func RootScope() *Scope {
	return &Scope{Depth: 0, Variables: map[LocalID]Item{}}
}

// Child creates a nested scope one depth level below s, inheriting nothing:
// each scope's Variables table holds only locals declared directly in it,
// per spec §3 ("a local symbol table").
func (s *Scope) Child() *Scope {
	return &Scope{Depth: s.Depth + 1, Variables: map[LocalID]Item{}}
}

// Declare introduces a new Local in s and returns its (unversioned)
// Variable handle.
func (s *Scope) Declare(item Item) Variable {
	id := s.nextID
	s.nextID++
	s.Variables[LocalID{ID: id, Depth: s.Depth}] = item
	return NewLocal(id, s.Depth, item)
}

// Add appends an operation to s.
func (s *Scope) Add(op Operation) { s.Operations = append(s.Operations, op) }

// Processed is the flattened view of a scope that the parser consumes:
// its declared variables (as Variable handles) plus its operation list.
// Mirrors cubecl_core::ir::Scope::process() referenced from
// cubecl-opt/src/lib.rs.
type Processed struct {
	Variables  []Variable
	Operations []Operation
}

// Process drains s's declared variables and operation list into a
// Processed snapshot and resets both to empty. Draining (rather than just
// reading) lets a Procedure's Expand append further operations/locals to
// the same Scope and have a subsequent Process/parse pass see only the new
// material, exactly as cubecl-opt's compile_procedure does
// (`proc.expand(&mut scope); compile(scope)` re-invokes parse_scope, which
// calls scope.process() again).
//
// Variables are returned in ascending id order for deterministic downstream
// iteration (the original uses a hash map; pruned-SSA phi placement and
// renaming must not depend on map iteration order, so this package sorts
// once here instead of pushing that burden onto every consumer).
func (s *Scope) Process() Processed {
	vars := make([]Variable, 0, len(s.Variables))
	for id, item := range s.Variables {
		vars = append(vars, NewLocal(id.ID, id.Depth, item))
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].ID < vars[j].ID })

	ops := s.Operations
	s.Variables = map[LocalID]Item{}
	s.Operations = nil
	return Processed{Variables: vars, Operations: ops}
}
