package optimizer

import "github.com/leizaf/cubecl/ir"

// InlineAssignments replaces every use of V with W when V is defined by
// `V = W` and both are Versioned, then drops the assignment (spec §4.6).
// This includes phi entries: V has exactly one definition (SSA), that
// definition computes exactly W, so any phi entry recording "the value
// reaching this predecessor is V" denotes the same value as W and can be
// rewritten too. Skipping phi entries here would leave a phi referencing a
// Versioned value whose sole defining instruction was just deleted — a
// dangling reference once the copy is removed below.
type InlineAssignments struct{}

func (InlineAssignments) Name() string { return "InlineAssignments" }

func (InlineAssignments) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		i := 0
		for i < len(b.Ops) {
			op := b.Ops[i]
			if op.Category != ir.CategoryOperator || op.Operator.Kind != ir.OpAssign {
				i++
				continue
			}
			v := op.Operator.Out
			w := op.Operator.Args[0]
			if v.Kind != ir.Versioned || w.Kind != ir.Versioned {
				i++
				continue
			}
			replaceUses(opt, v, w, true)
			removeOp(b, i)
			counter.Inc()
		}
	}
}
