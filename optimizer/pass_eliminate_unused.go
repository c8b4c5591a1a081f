package optimizer

import "github.com/leizaf/cubecl/ir"

// EliminateUnusedVariables drops a defining instruction whose result has no
// remaining reads, provided its operator is pure (spec §4.6). It runs after
// InlineAssignments and before CSE within a sweep, so it sees the previous
// sweep's CSE merges; the operands a removed op read may themselves go
// unused next sweep — the outer post-SSA loop (passes.go)
// re-runs this pass until a full sweep makes no change.
type EliminateUnusedVariables struct{}

func (EliminateUnusedVariables) Name() string { return "EliminateUnusedVariables" }

func (EliminateUnusedVariables) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	uses := countUses(opt)
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		i := 0
		for i < len(b.Ops) {
			op := b.Ops[i]
			out, ok := op.Out()
			if ok && out.Kind == ir.Versioned && uses[varIDOf(out)] == 0 && op.IsPure() {
				removeOp(b, i)
				counter.Inc()
				continue
			}
			i++
		}
	}
}
