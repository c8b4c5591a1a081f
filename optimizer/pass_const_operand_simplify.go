package optimizer

import "github.com/leizaf/cubecl/ir"

// ConstOperandSimplify folds an operator with one constant operand into
// its algebraic identity (spec §4.6: "x*1=x, x+0=x, x&&true=x, x&0=0"),
// leaving the instruction as a plain Assign for InlineAssignments to clean
// up next sweep. Strictly value-preserving: it never guesses, only applies
// identities that hold for every possible value of the non-constant side.
type ConstOperandSimplify struct{}

func (ConstOperandSimplify) Name() string { return "ConstOperandSimplify" }

func (ConstOperandSimplify) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryOperator {
			return
		}
		if replacement, ok := simplifyConstOperand(op.Operator); ok {
			op.Operator = ir.Operator{Kind: ir.OpAssign, Out: op.Operator.Out, Args: []ir.Variable{replacement}}
			counter.Inc()
		}
	})
}

func constIntOf(v ir.Variable) (int64, bool) {
	if v.Kind == ir.ConstScalar && v.Item.Elem.IsInt() {
		return v.Const.Int, true
	}
	return 0, false
}

func constBoolOf(v ir.Variable) (bool, bool) {
	if v.Kind == ir.ConstScalar && v.Item.Elem == ir.ElemBool {
		return v.Const.Bool, true
	}
	return false, false
}

func simplifyConstOperand(op ir.Operator) (ir.Variable, bool) {
	if len(op.Args) != 2 {
		return ir.Variable{}, false
	}
	lhs, rhs := op.Args[0], op.Args[1]
	lc, lok := constIntOf(lhs)
	rc, rok := constIntOf(rhs)

	switch op.Kind {
	case ir.OpAdd:
		if rok && rc == 0 {
			return lhs, true
		}
		if lok && lc == 0 {
			return rhs, true
		}
	case ir.OpSub:
		if rok && rc == 0 {
			return lhs, true
		}
	case ir.OpMul:
		if rok && rc == 1 {
			return lhs, true
		}
		if lok && lc == 1 {
			return rhs, true
		}
		if rok && rc == 0 {
			return rhs, true
		}
		if lok && lc == 0 {
			return lhs, true
		}
	case ir.OpDiv:
		if rok && rc == 1 {
			return lhs, true
		}
	case ir.OpShl, ir.OpShr:
		if rok && rc == 0 {
			return lhs, true
		}
	case ir.OpAnd:
		if rok && rc == 0 {
			return rhs, true
		}
		if lok && lc == 0 {
			return lhs, true
		}
	case ir.OpOr:
		if rok && rc == 0 {
			return lhs, true
		}
		if lok && lc == 0 {
			return rhs, true
		}
	case ir.OpLogicalAnd:
		if lb, ok := constBoolOf(lhs); ok {
			if lb {
				return rhs, true
			}
			return lhs, true
		}
		if rb, ok := constBoolOf(rhs); ok {
			if rb {
				return lhs, true
			}
			return rhs, true
		}
	case ir.OpLogicalOr:
		if lb, ok := constBoolOf(lhs); ok {
			if !lb {
				return rhs, true
			}
			return lhs, true
		}
		if rb, ok := constBoolOf(rhs); ok {
			if !rb {
				return lhs, true
			}
			return rhs, true
		}
	}
	return ir.Variable{}, false
}
