package optimizer

import "github.com/leizaf/cubecl/ir"

// CFKind discriminates the ControlFlow terminator union of spec §3.
type CFKind int

const (
	CFNone CFKind = iota
	CFIfElse
	CFSwitch
	CFLoop
	CFBreak
	CFReturn
)

// SwitchTarget pairs a constant case value with its target block.
type SwitchTarget struct {
	Value uint32
	Block NodeIndex
}

// ControlFlow is a basic block's terminator. Field meaning depends on Kind;
// unused fields are zero/NoNode. See spec §3.
type ControlFlow struct {
	Kind CFKind

	Next NodeIndex // CFNone: the unique fallthrough successor

	Cond  Variable     // IfElse, Break
	Then  NodeIndex    // IfElse
	Else  NodeIndex    // IfElse
	Merge NodeIndex    // IfElse, Switch, Loop

	Value   Variable       // Switch
	Cases   []SwitchTarget // Switch
	Default NodeIndex      // Switch

	Body           NodeIndex // Loop, Break
	ContinueTarget NodeIndex // Loop
	OrBreak        NodeIndex // Break: target when Cond is false
}

// Variable is an alias of ir.Variable, kept local so optimizer call sites
// read naturally (spec §3 uses "Variable" throughout the optimizer's own
// data model too, not just the IR's).
type Variable = ir.Variable

// PhiInstruction is a pseudo-assignment selecting its value by the executed
// predecessor (spec §3, GLOSSARY). Entries are keyed by predecessor
// NodeIndex per spec §6 ("Phi entries are keyed by predecessor node id").
type PhiInstruction struct {
	Out     Variable
	Entries map[NodeIndex]Variable

	// varID identifies which source Local this phi was placed for, before
	// renaming assigns Out its version. Needed by the renaming pass (C7) to
	// look up the right per-variable version stack.
	varID ir.LocalID
}

// BasicBlock is a maximal straight-line operation sequence ending in
// exactly one terminator (GLOSSARY). Per spec §3: ordered phi list, ordered
// ops, a terminator, a write-set, a live-in set and a dominance-frontier
// set.
//
// "ops" and "control_flow" are given interior mutability in the Rust
// source (Rc<RefCell<...>>) so a visitor walking one block can call helpers
// that read other blocks. Go has no aliasing XOR mutability rule to
// enforce, and the whole pipeline is single-threaded-per-compilation (spec
// §5), so these are plain mutable fields; the discipline spec §9 asks for
// ("No pass may mutate a block's ops list while an iterator over that same
// block is live ... clone the current op list before mutation when in
// doubt") is kept by convention — passes that remove ops while scanning
// index into b.Ops afresh on each step (see e.g. pass_cse.go's removeOp
// loop), or build a new slice and assign it back.
type BasicBlock struct {
	id NodeIndex

	Phis        []PhiInstruction
	Ops         []ir.Operation
	ControlFlow ControlFlow

	Writes       map[ir.LocalID]bool
	LiveIn       map[ir.LocalID]bool
	DomFrontiers map[NodeIndex]bool
}

// ID returns the block's stable identifier.
func (b *BasicBlock) ID() NodeIndex { return b.id }

func newBlock() *BasicBlock {
	return &BasicBlock{
		Writes:       map[ir.LocalID]bool{},
		LiveIn:       map[ir.LocalID]bool{},
		DomFrontiers: map[NodeIndex]bool{},
		ControlFlow:  ControlFlow{Kind: CFNone, Next: NoNode},
	}
}

// PhiFor returns the phi instruction in b for local v, if one has already
// been placed.
func (b *BasicBlock) PhiFor(v ir.LocalID) (*PhiInstruction, bool) {
	for i := range b.Phis {
		if b.Phis[i].varID == v {
			return &b.Phis[i], true
		}
	}
	return nil, false
}
