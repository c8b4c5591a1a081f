package optimizer

import "github.com/leizaf/cubecl/ir"

// CopyPropagateArray is the special one-shot post-SSA pass of spec §4.5
// step 7 / §4.6: detect an array-like variable whose entire contents are a
// plain copy of another (`b = a` with both array-like), and redirect
// Index/Slice reads of the copy to the original. Run exactly once per
// run_opt, outside the regular post-SSA loop, since it may expose new
// copy-propagation opportunities for local scalar indices that invalidate
// their SSA form, hence the driver's one-shot liveness+SSA+post-SSA re-run
// when it reports work.
type CopyPropagateArray struct{}

func (CopyPropagateArray) Name() string { return "CopyPropagateArray" }

func (CopyPropagateArray) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	copies := map[ir.LocalID]ir.Variable{}
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryOperator || op.Operator.Kind != ir.OpAssign {
			return
		}
		if len(op.Operator.Args) != 1 {
			return
		}
		out, src := op.Operator.Out, op.Operator.Args[0]
		if !isArrayLike(out) || !isArrayLike(src) {
			return
		}
		copies[out.Key()] = src
	})
	if len(copies) == 0 {
		return
	}

	// Only loads are redirected: a write through the copy must still land on
	// the copy's own storage, since propagating it to the original would
	// change which array later loads from the original observe.
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryOperator {
			return
		}
		if op.Operator.Kind != ir.OpIndex && op.Operator.Kind != ir.OpSlice {
			return
		}
		if len(op.Operator.Args) == 0 {
			return
		}
		list := op.Operator.Args[0]
		if !isArrayLike(list) {
			return
		}
		if src, ok := copies[list.Key()]; ok {
			op.Operator.Args[0] = src
			counter.Inc()
		}
	})
}

func isArrayLike(v ir.Variable) bool {
	return v.Kind == ir.GlobalInputArray || v.Kind == ir.GlobalOutputArray || v.Kind == ir.Slice
}
