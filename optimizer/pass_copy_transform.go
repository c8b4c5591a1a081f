package optimizer

import (
	"fmt"

	"github.com/leizaf/cubecl/ir"
)

// CopyTransform rewrites a structural vector-to-vector move expressed as a
// decompose-then-recompose (every lane of a Composite is a plain Index
// extraction of the same source vector, in order) into a single direct
// Assign of the whole vector — the minimal operator for that move
// (spec §4.6).
type CopyTransform struct{}

func (CopyTransform) Name() string { return "CopyTransform" }

func (CopyTransform) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	defs := buildDefs(opt)
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryOperator || op.Operator.Kind != ir.OpComposite {
			return
		}
		args := op.Operator.Args
		if len(args) < 2 {
			return
		}
		var source ir.Variable
		for lane, a := range args {
			def, ok := defs[defKey(a)]
			if !ok || def.Kind != ir.OpIndex || len(def.Args) != 2 {
				return
			}
			idx, isInt := constIntOf(def.Args[1])
			if !isInt || int(idx) != lane {
				return
			}
			if lane == 0 {
				source = def.Args[0]
			} else if defKey(def.Args[0]) != defKey(source) {
				return
			}
		}
		op.Operator = ir.Operator{Kind: ir.OpAssign, Out: op.Operator.Out, Args: []ir.Variable{source}}
		counter.Inc()
	})
}

// defKey canonically identifies a variable by its single static definition
// point: (id, depth, version) for Versioned, (id, depth) for Local-family.
func defKey(v ir.Variable) string {
	switch v.Kind {
	case ir.Versioned:
		return fmt.Sprintf("v:%d:%d:%d", v.ID, v.Depth, v.Version)
	case ir.Local, ir.AtomicLocal, ir.Slice:
		return fmt.Sprintf("l:%d:%d", v.ID, v.Depth)
	default:
		return ""
	}
}

func buildDefs(opt *Optimizer) map[string]ir.Operator {
	defs := map[string]ir.Operator{}
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryOperator {
			return
		}
		key := defKey(op.Operator.Out)
		if key == "" {
			return
		}
		defs[key] = op.Operator
	})
	return defs
}
