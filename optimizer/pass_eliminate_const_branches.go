package optimizer

import "github.com/leizaf/cubecl/ir"

// EliminateConstBranches replaces an IfElse or Break terminator whose
// condition is a known-constant boolean with an unconditional edge to the
// taken side, detaching the other (spec §4.6). Scenario C relies on this to
// collapse `if true {...} else {...}`.
type EliminateConstBranches struct{}

func (EliminateConstBranches) Name() string { return "EliminateConstBranches" }

func (EliminateConstBranches) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		switch b.ControlFlow.Kind {
		case CFIfElse:
			v, ok := constBoolOf(b.ControlFlow.Cond)
			if !ok {
				continue
			}
			taken, dropped := b.ControlFlow.Then, b.ControlFlow.Else
			if !v {
				taken, dropped = dropped, taken
			}
			opt.program.Graph.RemoveEdge(id, dropped)
			removePhiEntry(opt, dropped, id)
			b.ControlFlow = ControlFlow{Kind: CFNone, Next: taken}
			counter.Inc()
		case CFBreak:
			v, ok := constBoolOf(b.ControlFlow.Cond)
			if !ok {
				continue
			}
			taken, dropped := b.ControlFlow.Body, b.ControlFlow.OrBreak
			if !v {
				taken, dropped = dropped, taken
			}
			opt.program.Graph.RemoveEdge(id, dropped)
			removePhiEntry(opt, dropped, id)
			b.ControlFlow = ControlFlow{Kind: CFNone, Next: taken}
			counter.Inc()
		}
	}
}

// removePhiEntry drops the entry predecessor pred contributes to every phi
// in block (spec §4.6: a phi's entries must stay exactly the predecessor
// set, see spec §8 invariant 3). A phi left with a single entry is no
// longer a choice between values — Braun et al.'s "trivial phi" — so it is
// rewritten in place to a plain Assign of that one surviving value and
// dropped from the block's phi list, the same collapse Scenario C expects
// once the dead arm's edge is gone.
func removePhiEntry(opt *Optimizer, block, pred NodeIndex) {
	b := opt.Block(block)
	if b == nil {
		return
	}
	for i := range b.Phis {
		delete(b.Phis[i].Entries, pred)
	}
	kept := b.Phis[:0]
	for _, ph := range b.Phis {
		if len(ph.Entries) == 1 {
			var sole Variable
			for _, v := range ph.Entries {
				sole = v
			}
			b.Ops = append([]ir.Operation{ir.Op(ir.Operator{Kind: ir.OpAssign, Out: ph.Out, Args: []ir.Variable{sole}})}, b.Ops...)
			continue
		}
		kept = append(kept, ph)
	}
	b.Phis = kept
}
