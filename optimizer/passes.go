package optimizer

import "github.com/leizaf/cubecl/ir"

// OptimizerPass is the shared identity every pass exposes (spec §4.6,
// §9 "Dynamic dispatch of passes": "a small capability with two methods").
type OptimizerPass interface {
	Name() string
}

// PreSSAPass runs before phi placement/renaming.
type PreSSAPass interface {
	OptimizerPass
	ApplyPreSSA(opt *Optimizer, counter *AtomicCounter)
}

// PostSSAPass runs after renaming, over Versioned variables.
type PostSSAPass interface {
	OptimizerPass
	ApplyPostSSA(opt *Optimizer, counter *AtomicCounter)
}

// fixedPointBound is spec §8 invariant 5's safety ceiling: "16 x
// initial_instruction_count" sweeps. A pass loop that hasn't converged by
// then is a programmer bug (a pass reporting spurious changes forever), not
// a slow-but-correct program, so it's an InvariantError rather than a
// silent truncation.
const fixedPointBound = 16

func (opt *Optimizer) instructionCount() int {
	n := 0
	opt.forEachOp(func(_ *BasicBlock, _ int, _ *ir.Operation) { n++ })
	return n
}

// applyPreSSAPasses runs the pre-SSA loop to a fixed point (spec §4.5 step
// 3): a single pass today (CompositeMerge), looped until it reports no
// further change within a sweep.
func (opt *Optimizer) applyPreSSAPasses() {
	passes := []PreSSAPass{CompositeMerge{}}
	bound := fixedPointBound * (opt.instructionCount() + 1)
	for sweep := 0; ; sweep++ {
		if sweep >= bound {
			ir.Fatalf("", "pre-SSA pass loop did not converge within %d sweeps", bound)
		}
		counter := NewAtomicCounter(0)
		for _, p := range passes {
			p.ApplyPreSSA(opt, counter)
		}
		opt.logf(2, "pre-ssa sweep: %d changes", counter.Get())
		if counter.Get() == 0 {
			break
		}
	}
}

// applyPostSSAPasses runs the post-SSA loop to a fixed point (spec §4.5
// step 6 and §4.6's ordered pass list), including the checked-mode-only
// range-analysis passes when the configured execution mode calls for them.
func (opt *Optimizer) applyPostSSAPasses() {
	passes := []PostSSAPass{
		InlineAssignments{},
		EliminateUnusedVariables{},
		ConstOperandSimplify{},
		MergeSameExpressions{},
		ConstEval{},
		RemoveIndexScalar{},
		EliminateConstBranches{},
		EliminateDeadBlocks{},
		CopyTransform{},
	}
	if opt.mode == ir.Checked {
		passes = append(passes, IntegerRangeAnalysis{}, FindConstSliceLen{}, InBoundsToUnchecked{})
	}

	bound := fixedPointBound * (opt.instructionCount() + 1)
	for sweep := 0; ; sweep++ {
		if sweep >= bound {
			ir.Fatalf("", "post-SSA pass loop did not converge within %d sweeps", bound)
		}
		counter := NewAtomicCounter(0)
		for _, p := range passes {
			p.ApplyPostSSA(opt, counter)
		}
		opt.logf(2, "post-ssa sweep: %d changes", counter.Get())
		if counter.Get() == 0 {
			break
		}
	}
}
