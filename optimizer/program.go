package optimizer

import "github.com/leizaf/cubecl/ir"

// Slice records a `[start, end)` view over an array, keyed by the slice
// variable's (id, depth) in Program.Slices (spec §3). EndOp is a slot for
// the operation that computed End; the parser does not set it and no pass
// reads it, so a constant length is only recognized from literal operands.
type Slice struct {
	Start    ir.Variable
	End      ir.Variable
	EndOp    *ir.Operation
	ConstLen *uint32
}

// VarID identifies a single SSA value: a versioned (id, depth, version)
// triple (spec §3 GLOSSARY "Versioned variable").
type VarID struct {
	ID      uint16
	Depth   uint8
	Version uint16
}

func varIDOf(v ir.Variable) VarID {
	return VarID{ID: v.ID, Depth: v.Depth, Version: v.Version}
}

// Range is an abstract interval `[Lower, Upper]`; a nil bound is ⊤
// (unbounded) on that side (spec §4.6 C9).
type Range struct {
	Lower *int64
	Upper *int64
}

// Top is the unbounded range, the lattice's top element.
func Top() Range { return Range{} }

// IsTop reports whether r carries no information in either direction.
func (r Range) IsTop() bool { return r.Lower == nil && r.Upper == nil }

// Exact returns the singleton range [v, v].
func Exact(v int64) Range { return Range{Lower: &v, Upper: ptrInt64(v)} }

func ptrInt64(v int64) *int64 { return &v }

// Program is the graph and program-wide tables the optimizer builds and
// mutates (spec §3). The Optimizer owns exactly one Program for its entire
// run_opt lifetime (spec §5).
type Program struct {
	Graph *Graph
	Root  NodeIndex
	Ret   NodeIndex

	// Variables holds every Local seen during parsing, cleared after the
	// SSA transform (spec §3 "cleared after SSA").
	Variables map[ir.LocalID]ir.Item

	Slices map[ir.LocalID]*Slice

	IntRanges map[VarID]Range
}

func newProgram() *Program {
	return &Program{
		Graph:     newGraph(),
		Root:      NoNode,
		Ret:       NoNode,
		Variables: map[ir.LocalID]ir.Item{},
		Slices:    map[ir.LocalID]*Slice{},
		IntRanges: map[VarID]Range{},
	}
}

// Block is a convenience accessor for Graph.Block.
func (p *Program) Block(id NodeIndex) *BasicBlock { return p.Graph.Block(id) }
