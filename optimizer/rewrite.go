package optimizer

import "github.com/leizaf/cubecl/ir"

// forEachOp visits every operation in every live block by index, letting
// the callback mutate it in place (operand lists, not the slice itself).
func (opt *Optimizer) forEachOp(f func(b *BasicBlock, i int, op *ir.Operation)) {
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		for i := range b.Ops {
			f(b, i, &b.Ops[i])
		}
	}
}

func sameVersioned(a, b ir.Variable) bool {
	return a.Kind == ir.Versioned && b.Kind == ir.Versioned && varIDOf(a) == varIDOf(b)
}

// replaceUses rewrites every read of `from` (a Versioned variable) to `to`,
// across operator/metadata/sync/subcube/coopmma args and block terminators.
// includePhiEntries additionally rewrites phi Entries: safe whenever `from`
// and `to` are proven to denote the same value everywhere `from` is live,
// which holds for a true duplicate definition (MergeSameExpressions) and
// for a plain copy's sole defining instruction (InlineAssignments) alike —
// both pass true. A pass that only merges uses it has independently proven
// equal at one particular site, without `from` itself being fully retired,
// should pass false instead.
func replaceUses(opt *Optimizer, from, to ir.Variable, includePhiEntries bool) {
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		switch op.Category {
		case ir.CategoryOperator:
			for j, a := range op.Operator.Args {
				if sameVersioned(a, from) {
					op.Operator.Args[j] = to
				}
			}
		case ir.CategoryMetadata:
			for j, a := range op.Metadata.Args {
				if sameVersioned(a, from) {
					op.Metadata.Args[j] = to
				}
			}
		case ir.CategorySynchronization:
			for j, a := range op.Sync.Args {
				if sameVersioned(a, from) {
					op.Sync.Args[j] = to
				}
			}
		case ir.CategorySubcube:
			for j, a := range op.Subcube.Args {
				if sameVersioned(a, from) {
					op.Subcube.Args[j] = to
				}
			}
		case ir.CategoryCoopMma:
			for j, a := range op.CoopMma.Args {
				if sameVersioned(a, from) {
					op.CoopMma.Args[j] = to
				}
			}
		}
	})
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		if sameVersioned(b.ControlFlow.Cond, from) {
			b.ControlFlow.Cond = to
		}
		if sameVersioned(b.ControlFlow.Value, from) {
			b.ControlFlow.Value = to
		}
		if !includePhiEntries {
			continue
		}
		for i := range b.Phis {
			for pred, v := range b.Phis[i].Entries {
				if sameVersioned(v, from) {
					b.Phis[i].Entries[pred] = to
				}
			}
		}
	}
}

// countUses tallies how many read sites reference each Versioned value,
// across operand lists, terminators and phi entries.
func countUses(opt *Optimizer) map[VarID]int {
	counts := map[VarID]int{}
	bump := func(v ir.Variable) {
		if v.Kind == ir.Versioned {
			counts[varIDOf(v)]++
		}
	}
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		for _, r := range op.Reads() {
			bump(r)
		}
	})
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		bump(b.ControlFlow.Cond)
		bump(b.ControlFlow.Value)
		for _, ph := range b.Phis {
			for _, v := range ph.Entries {
				bump(v)
			}
		}
	}
	return counts
}

// removeOp deletes the op at index i from b, preserving order.
func removeOp(b *BasicBlock, i int) {
	b.Ops = append(b.Ops[:i:i], b.Ops[i+1:]...)
}
