package optimizer

import (
	"fmt"
	"strings"

	"github.com/leizaf/cubecl/ir"
)

// MergeSameExpressions is the CSE pass (spec §4.6): within a block,
// de-duplicate operations with equal opcode and equal operand versions,
// redirecting the duplicate's uses to the first occurrence's output.
type MergeSameExpressions struct{}

func (MergeSameExpressions) Name() string { return "MergeSameExpressions" }

func (MergeSameExpressions) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		seen := map[string]ir.Variable{}
		i := 0
		for i < len(b.Ops) {
			op := b.Ops[i]
			key, ok := exprKey(op)
			if !ok {
				i++
				continue
			}
			out, hasOut := op.Out()
			if !hasOut || out.Kind != ir.Versioned {
				i++
				continue
			}
			if first, dup := seen[key]; dup {
				replaceUses(opt, out, first, true)
				removeOp(b, i)
				counter.Inc()
				continue
			}
			seen[key] = out
			i++
		}
	}
}

// exprKey returns a hashable fingerprint of an operator call by opcode,
// result type and operand identity (Kind/ID/Depth/type, plus Version for
// Versioned operands and literal payload for consts), or ok=false for anything CSE shouldn't touch: only
// pure operators are candidates, since a side-effecting op can't be merged
// away even if its operands match textually.
func exprKey(op ir.Operation) (string, bool) {
	if op.Category != ir.CategoryOperator || !op.Operator.IsPure() {
		return "", false
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|%t|%d:%d", op.Operator.Kind, op.Operator.Checked, op.Operator.Out.Item.Elem, op.Operator.Out.Item.Vectorization)
	for _, a := range op.Operator.Args {
		fmt.Fprintf(&sb, "|%d:%d:%d:%d:%d", a.Kind, a.ID, a.Depth, a.Item.Elem, a.Item.Vectorization)
		switch a.Kind {
		case ir.Versioned:
			fmt.Fprintf(&sb, ":%d", a.Version)
		case ir.ConstScalar:
			fmt.Fprintf(&sb, ":%d:%g:%t", a.Const.Int, a.Const.Float, a.Const.Bool)
		}
	}
	return sb.String(), true
}
