package optimizer

import (
	"fmt"
	"io"

	"github.com/leizaf/cubecl/ir"
)

// Config configures a single optimizer run (spec §6: CubeDim, execution
// mode). Debug/DebugOut are the ambient logging knob (SPEC_FULL.md
// "Ambient stack"): a verbosity level checked before writing trace lines,
// the same shape _examples/fkuehnel-golang-cfg/go-code/likelyadjust.go uses
// (`f.pass.debug`), rather than a logging framework no repo in the corpus
// imports.
type Config struct {
	CubeDim  ir.CubeDim
	Mode     ir.ExecutionMode
	Debug    int
	DebugOut io.Writer
}

// Optimizer applies CFG construction, dominator/liveness analysis, SSA
// transformation and the fixed-point pass pipeline to a single kernel scope
// (spec §2, §4.5). One Optimizer owns one Program for its entire lifetime
// (spec §5); it shares no mutable state with any other Optimizer.
type Optimizer struct {
	program *Program

	currentBlock NodeIndex
	loopBreak    []NodeIndex // stack of break targets for nested loops

	rootScope *ir.Scope
	cubeDim   ir.CubeDim
	mode      ir.ExecutionMode

	debug    int
	debugOut io.Writer

	// exempt holds Locals used as the mutated array operand of an
	// IndexAssign, computed once by exemptIndexAssignLocals and consulted by
	// every ssaTransform call thereafter (spec §4.4 "IndexAssign exemption").
	exempt map[ir.LocalID]bool

	// ssaItem is populated by collectSSAVars on each ssaTransform call: the
	// declared Item of every Local currently being converted to Versioned
	// form, needed to construct phi outputs and renamed Variables.
	ssaItem map[ir.LocalID]ir.Item
}

// New parses scope and runs the full optimization pipeline (spec §4.5),
// returning the resulting Optimizer or the error recovered from a fatal
// invariant violation / unsupported procedure variant (spec §7).
func New(scope *ir.Scope, cfg Config) (opt *Optimizer, err error) {
	if cfg.DebugOut == nil {
		cfg.DebugOut = io.Discard
	}
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(ir.InvariantError); ok {
				opt = nil
				err = ie
				return
			}
			panic(r)
		}
	}()

	opt = &Optimizer{
		program:      newProgram(),
		currentBlock: NoNode,
		rootScope:    scope,
		cubeDim:      cfg.CubeDim,
		mode:         cfg.Mode,
		debug:        cfg.Debug,
		debugOut:     cfg.DebugOut,
	}
	opt.runOpt(scope)
	return opt, nil
}

func (opt *Optimizer) logf(level int, format string, args ...any) {
	if opt.debug >= level {
		fmt.Fprintf(opt.debugOut, format+"\n", args...)
	}
}

// runOpt runs the driver sequence of spec §4.5.
func (opt *Optimizer) runOpt(scope *ir.Scope) {
	opt.parseGraph(scope)
	opt.analyzeLiveness()
	opt.exemptIndexAssignLocals()
	opt.applyPreSSAPasses()
	opt.ssaTransform()
	opt.applyPostSSAPasses()

	arraysProp := NewAtomicCounter(0)
	CopyPropagateArray{}.ApplyPostSSA(opt, arraysProp)
	if arraysProp.Get() > 0 {
		opt.analyzeLiveness()
		opt.ssaTransform()
		opt.applyPostSSAPasses()
	}
}

// Entry returns the root block's id (spec §6).
func (opt *Optimizer) Entry() NodeIndex { return opt.program.Root }

// Ret returns the unique return block's id.
func (opt *Optimizer) Ret() NodeIndex { return opt.program.Ret }

// Block returns the block with id (spec §6).
func (opt *Optimizer) Block(id NodeIndex) *BasicBlock { return opt.program.Block(id) }

// Predecessors enumerates id's incoming edges (spec §6).
func (opt *Optimizer) Predecessors(id NodeIndex) []NodeIndex { return opt.program.Graph.Predecessors(id) }

// Successors enumerates id's outgoing edges (spec §6).
func (opt *Optimizer) Successors(id NodeIndex) []NodeIndex { return opt.program.Graph.Successors(id) }

// NodeIDs returns the ids of all live blocks.
func (opt *Optimizer) NodeIDs() []NodeIndex { return opt.program.Graph.NodeIDs() }

// Mode returns the configured execution mode.
func (opt *Optimizer) Mode() ir.ExecutionMode { return opt.mode }

// CubeDim returns the configured work-group dimensions.
func (opt *Optimizer) CubeDim() ir.CubeDim { return opt.cubeDim }

func (opt *Optimizer) currentBlockMut() *BasicBlock {
	if opt.currentBlock == NoNode {
		ir.Fatalf("", "no current block")
	}
	return opt.program.Block(opt.currentBlock)
}
