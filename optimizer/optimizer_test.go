package optimizer

import (
	"testing"

	"github.com/leizaf/cubecl/ir"
)

// countPhis sums every reachable block's phi count.
func countPhis(opt *Optimizer) int {
	n := 0
	for _, id := range opt.NodeIDs() {
		n += len(opt.Block(id).Phis)
	}
	return n
}

// TestScenarioA_StraightLineConstantFold is spec §8 Scenario A.
func TestScenarioA_StraightLineConstantFold(t *testing.T) {
	opt, err := New(fixtureStraightLine(), checkedConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if countPhis(opt) != 0 {
		t.Fatalf("expected no phis, got %d", countPhis(opt))
	}

	foundFoldedSum := false
	for _, id := range opt.NodeIDs() {
		for _, op := range opt.Block(id).Ops {
			if op.Category != ir.CategoryOperator {
				continue
			}
			if op.Operator.Kind == ir.OpAdd {
				t.Fatalf("expected the constant add to be folded away, found one live")
			}
			if op.Operator.Kind == ir.OpAssign {
				for _, a := range op.Operator.Args {
					if a.IsConst() && a.Item.Elem == ir.ElemI32 && a.Const.Int == 5 {
						foundFoldedSum = true
					}
				}
			}
		}
	}
	if !foundFoldedSum {
		t.Fatalf("expected ConstEval to fold the constant sum down to a literal 5")
	}
}

// TestScenarioB_IfElsePhi is spec §8 Scenario B.
func TestScenarioB_IfElsePhi(t *testing.T) {
	opt, err := New(fixtureIfElse(), Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := len(opt.NodeIDs()); got != 5 {
		t.Fatalf("expected 5 blocks (root, then, else, merge, ret), got %d", got)
	}

	var mergePhis int
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		if len(opt.Predecessors(id)) == 2 {
			mergePhis = len(b.Phis)
		}
	}
	if mergePhis != 1 {
		t.Fatalf("expected exactly one phi at the merge block, found %d", mergePhis)
	}
}

// TestScenarioC_DeadBranch is spec §8 Scenario C.
func TestScenarioC_DeadBranch(t *testing.T) {
	opt, err := New(fixtureDeadBranch(), Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if countPhis(opt) != 0 {
		t.Fatalf("expected the phi to collapse once one arm is unreachable, found %d", countPhis(opt))
	}

	foundOne := false
	for _, id := range opt.NodeIDs() {
		for _, op := range opt.Block(id).Ops {
			if op.Category != ir.CategoryOperator {
				continue
			}
			for _, a := range op.Reads() {
				if a.IsConst() && a.Item.Elem == ir.ElemI32 {
					if a.Const.Int == 2 {
						t.Fatalf("the false arm's literal 2 survived dead-branch elimination")
					}
					if a.Const.Int == 1 {
						foundOne = true
					}
				}
			}
		}
	}
	if !foundOne {
		t.Fatalf("expected the true arm's literal 1 to survive")
	}
}

// TestScenarioD_BoundsCheckElision is spec §8 Scenario D: a 256-trip loop
// over a slice of known length 256.
func TestScenarioD_BoundsCheckElision(t *testing.T) {
	opt, err := New(fixtureBoundedLoop(256), checkedConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	assertNoCheckedIndex(t, opt)
}

// TestScenarioE_IndexAssignExemption is spec §8 Scenario E: writing all
// four lanes of a vec4 Local must fuse into one composite assignment, and
// that Local must never be SSA-renamed.
func TestScenarioE_IndexAssignExemption(t *testing.T) {
	opt, err := New(fixtureIndexAssign(), Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	assigns, composites := 0, 0
	for _, id := range opt.NodeIDs() {
		for _, op := range opt.Block(id).Ops {
			if op.Category != ir.CategoryOperator {
				continue
			}
			switch op.Operator.Kind {
			case ir.OpIndexAssign:
				assigns++
				if op.Operator.Out.Kind == ir.Versioned {
					t.Fatalf("an IndexAssign target must stay exempt from SSA, got Versioned")
				}
			case ir.OpComposite:
				composites++
			}
		}
	}
	if assigns != 0 {
		t.Fatalf("expected CompositeMerge to fuse all four IndexAssigns, %d survived", assigns)
	}
	if composites != 1 {
		t.Fatalf("expected exactly one fused composite assignment, got %d", composites)
	}
}

// TestScenarioF_LoopInductionRangeElision is spec §8 Scenario F: the same
// shape as Scenario D but with a small trip count (4), proving the
// widen-then-narrow range proof isn't an artifact of CUBE_DIM_X specifically.
func TestScenarioF_LoopInductionRangeElision(t *testing.T) {
	opt, err := New(fixtureBoundedLoop(4), checkedConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	assertNoCheckedIndex(t, opt)

	foundLoop := false
	for _, id := range opt.NodeIDs() {
		if opt.Block(id).ControlFlow.Kind == CFBreak {
			foundLoop = true
		}
	}
	if !foundLoop {
		t.Fatalf("expected a CFBreak terminator for the loop's exit test")
	}
}

func assertNoCheckedIndex(t *testing.T, opt *Optimizer) {
	t.Helper()
	for _, id := range opt.NodeIDs() {
		for _, op := range opt.Block(id).Ops {
			if op.Category != ir.CategoryOperator {
				continue
			}
			if (op.Operator.Kind == ir.OpIndex || op.Operator.Kind == ir.OpIndexAssign) && op.Operator.Checked {
				t.Fatalf("expected every index op to have its bounds check elided, found one still Checked in block %d", id)
			}
		}
	}
}
