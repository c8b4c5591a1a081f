package optimizer

import "github.com/leizaf/cubecl/ir"

// RemoveIndexScalar replaces `v = a[const_index]` with the literal value
// when `a` is a known-constant vector (every lane a Composite of constants)
// (spec §4.6).
type RemoveIndexScalar struct{}

func (RemoveIndexScalar) Name() string { return "RemoveIndexScalar" }

func (RemoveIndexScalar) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	consts := map[ir.LocalID][]ir.Variable{}
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryOperator || op.Operator.Kind != ir.OpComposite {
			return
		}
		if !op.Operator.Out.IsLocal() {
			return
		}
		lanes := op.Operator.Args
		for _, a := range lanes {
			if a.Kind != ir.ConstScalar {
				return
			}
		}
		consts[op.Operator.Out.Key()] = append([]ir.Variable(nil), lanes...)
	})

	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryOperator || op.Operator.Kind != ir.OpIndex {
			return
		}
		if len(op.Operator.Args) != 2 {
			return
		}
		list, idx := op.Operator.Args[0], op.Operator.Args[1]
		if !list.IsLocal() || idx.Kind != ir.ConstScalar {
			return
		}
		lanes, ok := consts[list.Key()]
		if !ok {
			return
		}
		i := int(idx.Const.Int)
		if i < 0 || i >= len(lanes) {
			return
		}
		op.Operator = ir.Operator{Kind: ir.OpAssign, Out: op.Operator.Out, Args: []ir.Variable{lanes[i]}}
		counter.Inc()
	})
}
