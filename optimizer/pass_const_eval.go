package optimizer

import (
	"math"

	"github.com/leizaf/cubecl/ir"
)

// ConstEval folds an operator whose every operand is a constant scalar
// (spec §4.6): integers wrap two's-complement at the declared width,
// floats are computed in Go float64 arithmetic whatever the declared width
// (results are not rounded to float32 or float16).
type ConstEval struct{}

func (ConstEval) Name() string { return "ConstEval" }

func (ConstEval) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	opt.forEachOp(func(_ *BasicBlock, _ int, op *ir.Operation) {
		if op.Category != ir.CategoryOperator {
			return
		}
		if v, ok := evalConst(op.Operator); ok {
			op.Operator = ir.Operator{Kind: ir.OpAssign, Out: op.Operator.Out, Args: []ir.Variable{v}}
			counter.Inc()
		}
	})
}

func allConst(args []ir.Variable) bool {
	if len(args) == 0 {
		return false
	}
	for _, a := range args {
		if a.Kind != ir.ConstScalar {
			return false
		}
	}
	return true
}

// wrapInt truncates v to elem's declared bit width, two's-complement style.
func wrapInt(v int64, elem ir.Elem) int64 {
	bits := elem.Bits()
	if bits >= 64 {
		return v
	}
	mask := int64(1) << uint(bits)
	m := v % mask
	if m < 0 {
		m += mask
	}
	if elem == ir.ElemI32 || elem == ir.ElemI64 {
		half := mask / 2
		if m >= half {
			m -= mask
		}
	}
	return m
}

func evalConst(op ir.Operator) (ir.Variable, bool) {
	if !allConst(op.Args) {
		return ir.Variable{}, false
	}
	elem := op.Out.Item.Elem
	isFloat := elem == ir.ElemF16 || elem == ir.ElemF32 || elem == ir.ElemF64

	switch op.Kind {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpModulo, ir.OpMin, ir.OpMax:
		if len(op.Args) != 2 {
			return ir.Variable{}, false
		}
		if isFloat {
			a, b := op.Args[0].Const.Float, op.Args[1].Const.Float
			var r float64
			switch op.Kind {
			case ir.OpAdd:
				r = a + b
			case ir.OpSub:
				r = a - b
			case ir.OpMul:
				r = a * b
			case ir.OpDiv:
				r = a / b
			case ir.OpMin:
				r = math.Min(a, b)
			case ir.OpMax:
				r = math.Max(a, b)
			default:
				return ir.Variable{}, false
			}
			return ir.ConstFloat(elem, r), true
		}
		a, b := op.Args[0].Const.Int, op.Args[1].Const.Int
		var r int64
		switch op.Kind {
		case ir.OpAdd:
			r = a + b
		case ir.OpSub:
			r = a - b
		case ir.OpMul:
			r = a * b
		case ir.OpDiv:
			if b == 0 {
				return ir.Variable{}, false
			}
			r = a / b
		case ir.OpModulo:
			if b == 0 {
				return ir.Variable{}, false
			}
			r = a % b
		case ir.OpMin:
			r = a
			if b < a {
				r = b
			}
		case ir.OpMax:
			r = a
			if b > a {
				r = b
			}
		}
		return ir.ConstInt(elem, wrapInt(r, elem)), true

	case ir.OpNeg:
		if len(op.Args) != 1 {
			return ir.Variable{}, false
		}
		if isFloat {
			return ir.ConstFloat(elem, -op.Args[0].Const.Float), true
		}
		return ir.ConstInt(elem, wrapInt(-op.Args[0].Const.Int, elem)), true

	case ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpShr:
		if len(op.Args) != 2 || isFloat {
			return ir.Variable{}, false
		}
		a, b := op.Args[0].Const.Int, op.Args[1].Const.Int
		var r int64
		switch op.Kind {
		case ir.OpAnd:
			r = a & b
		case ir.OpOr:
			r = a | b
		case ir.OpXor:
			r = a ^ b
		case ir.OpShl:
			r = a << uint(b)
		case ir.OpShr:
			r = a >> uint(b)
		}
		return ir.ConstInt(elem, wrapInt(r, elem)), true

	case ir.OpNot:
		if len(op.Args) != 1 {
			return ir.Variable{}, false
		}
		if op.Args[0].Item.Elem == ir.ElemBool {
			return ir.ConstBool(!op.Args[0].Const.Bool), true
		}
		return ir.ConstInt(elem, wrapInt(^op.Args[0].Const.Int, elem)), true

	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		if len(op.Args) != 2 {
			return ir.Variable{}, false
		}
		argElem := op.Args[0].Item.Elem
		argIsFloat := argElem == ir.ElemF16 || argElem == ir.ElemF32 || argElem == ir.ElemF64
		var cmp int
		if argIsFloat {
			a, b := op.Args[0].Const.Float, op.Args[1].Const.Float
			switch {
			case a < b:
				cmp = -1
			case a > b:
				cmp = 1
			}
		} else {
			a, b := op.Args[0].Const.Int, op.Args[1].Const.Int
			switch {
			case a < b:
				cmp = -1
			case a > b:
				cmp = 1
			}
		}
		var r bool
		switch op.Kind {
		case ir.OpEq:
			r = cmp == 0
		case ir.OpNe:
			r = cmp != 0
		case ir.OpLt:
			r = cmp < 0
		case ir.OpLe:
			r = cmp <= 0
		case ir.OpGt:
			r = cmp > 0
		case ir.OpGe:
			r = cmp >= 0
		}
		return ir.ConstBool(r), true

	case ir.OpLogicalAnd:
		if len(op.Args) != 2 {
			return ir.Variable{}, false
		}
		return ir.ConstBool(op.Args[0].Const.Bool && op.Args[1].Const.Bool), true

	case ir.OpLogicalOr:
		if len(op.Args) != 2 {
			return ir.Variable{}, false
		}
		return ir.ConstBool(op.Args[0].Const.Bool || op.Args[1].Const.Bool), true

	case ir.OpClamp:
		if len(op.Args) != 3 {
			return ir.Variable{}, false
		}
		if isFloat {
			x, lo, hi := op.Args[0].Const.Float, op.Args[1].Const.Float, op.Args[2].Const.Float
			if x < lo {
				x = lo
			}
			if x > hi {
				x = hi
			}
			return ir.ConstFloat(elem, x), true
		}
		x, lo, hi := op.Args[0].Const.Int, op.Args[1].Const.Int, op.Args[2].Const.Int
		if x < lo {
			x = lo
		}
		if x > hi {
			x = hi
		}
		return ir.ConstInt(elem, wrapInt(x, elem)), true

	case ir.OpSelect:
		if len(op.Args) != 3 {
			return ir.Variable{}, false
		}
		if op.Args[0].Const.Bool {
			return op.Args[1], true
		}
		return op.Args[2], true

	default:
		return ir.Variable{}, false
	}
}
