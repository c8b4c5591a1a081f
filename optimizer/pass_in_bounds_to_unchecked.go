package optimizer

import "github.com/leizaf/cubecl/ir"

// InBoundsToUnchecked rewrites a checked Index/IndexAssign to its unchecked
// form once IntegerRangeAnalysis has proven the index operand's interval
// lies entirely within `[0, len)` of its array or slice (spec §4.6).
// Checked-mode only; this is the pass that makes scenario D and F's bounds
// checks disappear.
type InBoundsToUnchecked struct{}

func (InBoundsToUnchecked) Name() string { return "InBoundsToUnchecked" }

func (InBoundsToUnchecked) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	lengthOf := opt.knownArrayLengths()
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryOperator || !op.Operator.Checked {
			return
		}
		if op.Operator.Kind != ir.OpIndex && op.Operator.Kind != ir.OpIndexAssign {
			return
		}
		idxVar, list := indexOperand(op.Operator)
		if idxVar == nil {
			return
		}
		length, ok := lengthOf(list)
		if !ok {
			return
		}
		idxRange, ok := operandRange(*idxVar, opt.program.IntRanges, opt.cubeDim)
		if !ok || idxRange.Lower == nil || idxRange.Upper == nil {
			return
		}
		if *idxRange.Lower >= 0 && *idxRange.Upper < length {
			op.Operator.Checked = false
			counter.Inc()
		}
	})
}

// indexOperand returns the index-valued operand and the array/slice it
// indexes into, for either Index ([list, index]) or IndexAssign
// ([index, value], with Out the mutated array).
func indexOperand(op ir.Operator) (*ir.Variable, ir.Variable) {
	switch op.Kind {
	case ir.OpIndex:
		if len(op.Args) != 2 {
			return nil, ir.Variable{}
		}
		return &op.Args[1], op.Args[0]
	case ir.OpIndexAssign:
		if len(op.Args) != 2 {
			return nil, ir.Variable{}
		}
		return &op.Args[0], op.Out
	}
	return nil, ir.Variable{}
}

// knownArrayLengths resolves an array-like operand to its statically-known
// element count: a Slice's FindConstSliceLen annotation, or a global array
// whose length-query Metadata op ("Length", per cubecl's Metadata category)
// has been pinned to an exact value by range analysis.
func (opt *Optimizer) knownArrayLengths() func(ir.Variable) (int64, bool) {
	exact := map[ir.LocalID]int64{}
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryMetadata || op.Metadata.Name != "Length" || op.Metadata.Out == nil {
			return
		}
		if len(op.Metadata.Args) != 1 {
			return
		}
		if v, ok := exactValue(*op.Metadata.Out, opt.program.IntRanges); ok {
			exact[op.Metadata.Args[0].Key()] = v
		}
	})
	return func(v ir.Variable) (int64, bool) {
		if v.Kind == ir.Slice {
			if s, ok := opt.program.Slices[v.Key()]; ok && s.ConstLen != nil {
				return int64(*s.ConstLen), true
			}
		}
		if n, ok := exact[v.Key()]; ok {
			return n, true
		}
		return 0, false
	}
}
