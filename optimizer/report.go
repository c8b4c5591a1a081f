package optimizer

import (
	"fmt"

	"github.com/leizaf/cubecl/ir"
)

// BlockSummary is one block's shape after the full pipeline has run: enough
// to render a human-readable dump without exposing BasicBlock's mutable
// internals directly to callers outside the package.
type BlockSummary struct {
	ID        NodeIndex
	PhiCount  int
	OpCount   int
	Checked   int // number of Checked:true Index/IndexAssign ops remaining
	Preds     []NodeIndex
	Succs     []NodeIndex
	Kind      CFKind
}

// Summary is a whole-program report: one entry per reachable block, plus
// the final range table keyed by a readable string rather than the
// unexported VarID shape.
type Summary struct {
	Blocks []BlockSummary
	Ranges map[string]Range
}

// Summarize walks the optimized program and builds a Summary, the shape
// cmd/cubecl-opt prints. Grounded on the "-json"/text dump commands
// _examples/aclements-go-misc and the wazero CLI ship alongside their
// libraries — a thin reporting layer over already-public accessors rather
// than a new analysis.
func (opt *Optimizer) Summarize() Summary {
	var sum Summary
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		checked := 0
		for _, op := range b.Ops {
			if op.Category == ir.CategoryOperator && op.Operator.Checked {
				checked++
			}
		}
		sum.Blocks = append(sum.Blocks, BlockSummary{
			ID:       id,
			PhiCount: len(b.Phis),
			OpCount:  len(b.Ops),
			Checked:  checked,
			Preds:    opt.Predecessors(id),
			Succs:    opt.Successors(id),
			Kind:     b.ControlFlow.Kind,
		})
	}
	sum.Ranges = map[string]Range{}
	for id, r := range opt.program.IntRanges {
		sum.Ranges[formatVarID(id)] = r
	}
	return sum
}

func formatVarID(id VarID) string {
	return fmt.Sprintf("local%d.%d#%d", id.ID, id.Depth, id.Version)
}
