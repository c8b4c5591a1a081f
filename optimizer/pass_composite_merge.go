package optimizer

import "github.com/leizaf/cubecl/ir"

// CompositeMerge is the sole pre-SSA pass (spec §4.6): it fuses a run of
// IndexAssign operations that together initialize every lane of a vector,
// in lane order, into a single Composite assignment. Scenario E relies on
// this collapsing `v[0]=1.0; v[1]=2.0; v[2]=3.0; v[3]=4.0` into one op
// before `v` (a vectorized Local) is ever considered for SSA.
type CompositeMerge struct{}

func (CompositeMerge) Name() string { return "CompositeMerge" }

func (CompositeMerge) ApplyPreSSA(opt *Optimizer, counter *AtomicCounter) {
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		b.Ops = mergeComposite(b.Ops, counter)
	}
}

func mergeComposite(ops []ir.Operation, counter *AtomicCounter) []ir.Operation {
	out := make([]ir.Operation, 0, len(ops))
	i := 0
	for i < len(ops) {
		op := ops[i]
		if op.Category == ir.CategoryOperator && op.Operator.Kind == ir.OpIndexAssign {
			width := int(op.Operator.Out.Item.Vectorization)
			if width > 1 {
				if run := collectAssignRun(ops, i, width); run != nil {
					values := make([]ir.Variable, width)
					for _, r := range run {
						idx := int(r.Operator.Args[0].Const.Int)
						values[idx] = r.Operator.Args[1]
					}
					out = append(out, ir.Op(ir.Operator{
						Kind: ir.OpComposite,
						Out:  op.Operator.Out,
						Args: values,
					}))
					counter.Inc()
					i += len(run)
					continue
				}
			}
		}
		out = append(out, op)
		i++
	}
	return out
}

// collectAssignRun recognizes `width` consecutive IndexAssign ops writing
// the same vector, one per lane 0..width-1 with no repeats, each indexed by
// a constant. Returns nil if the run at `start` doesn't fully qualify.
func collectAssignRun(ops []ir.Operation, start, width int) []ir.Operation {
	if start+width > len(ops) {
		return nil
	}
	key := ops[start].Operator.Out.Key()
	seen := make([]bool, width)
	run := make([]ir.Operation, width)
	for j := 0; j < width; j++ {
		op := ops[start+j]
		if op.Category != ir.CategoryOperator || op.Operator.Kind != ir.OpIndexAssign {
			return nil
		}
		if op.Operator.Out.Key() != key {
			return nil
		}
		if len(op.Operator.Args) != 2 {
			return nil
		}
		idxVar := op.Operator.Args[0]
		if idxVar.Kind != ir.ConstScalar || !idxVar.Item.Elem.IsInt() {
			return nil
		}
		idx := int(idxVar.Const.Int)
		if idx < 0 || idx >= width || seen[idx] {
			return nil
		}
		seen[idx] = true
		run[j] = op
	}
	return run
}
