package main

import "github.com/leizaf/cubecl/ir"

// scenarios mirrors the end-to-end cases spec §8 names (straight-line
// constant fold, if-else phi, dead-branch elimination, bounds-check
// elision, index-assign SSA exemption, loop induction range proof); see
// optimizer/optimizer_test.go for the same shapes built for assertions
// rather than a printed demo.
var scenarios = map[string]func() *ir.Scope{
	"straight-line":  buildStraightLine,
	"if-else":        buildIfElse,
	"dead-branch":    buildDeadBranch,
	"bounds-elision": buildBoundsElision,
	"index-assign":   buildIndexAssign,
	"loop":           buildLoop,
	"loop-small":     buildLoopSmall,
}

// buildStraightLine computes `out = (2 + 3) * x`, entirely straight-line:
// ConstEval folds the literal sum into an assignment of 5; nothing reads
// out, so EliminateUnusedVariables then removes both ops.
func buildStraightLine() *ir.Scope {
	s := ir.RootScope()
	x := s.Declare(ir.Scalar(ir.ElemI32))
	sum := s.Declare(ir.Scalar(ir.ElemI32))
	out := s.Declare(ir.Scalar(ir.ElemI32))

	s.Add(ir.Op(ir.Operator{Kind: ir.OpAdd, Out: sum,
		Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 2), ir.ConstInt(ir.ElemI32, 3)}}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpMul, Out: out, Args: []ir.Variable{sum, x}}))
	return s
}

// buildIfElse assigns a Local from both arms of an If/Else and reads it
// afterward, forcing a phi at the merge block.
func buildIfElse() *ir.Scope {
	s := ir.RootScope()
	cond := s.Declare(ir.Scalar(ir.ElemBool))
	v := s.Declare(ir.Scalar(ir.ElemI32))
	out := s.Declare(ir.Scalar(ir.ElemI32))

	s.Add(ir.Op(ir.Operator{Kind: ir.OpLt, Out: cond,
		Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 1), ir.ConstInt(ir.ElemI32, 2)}}))

	then := s.Child()
	then.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: v, Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 10)}}))
	els := s.Child()
	els.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: v, Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 20)}}))

	s.Add(ir.BranchOp(ir.Branch{Kind: ir.BranchIfElse, Cond: cond, Scope: then, ElseScope: els}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: out, Args: []ir.Variable{v}}))
	return s
}

// buildDeadBranch branches on a literal-false condition: EliminateConstBranches
// should collapse it to the else arm and EliminateDeadBlocks should drop the
// then block entirely.
func buildDeadBranch() *ir.Scope {
	s := ir.RootScope()
	out := s.Declare(ir.Scalar(ir.ElemI32))

	then := s.Child()
	then.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: out, Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 999)}}))
	els := s.Child()
	els.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: out, Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 1)}}))

	s.Add(ir.BranchOp(ir.Branch{Kind: ir.BranchIfElse, Cond: ir.ConstBool(false), Scope: then, ElseScope: els}))
	return s
}

// buildBoundsElision slices buf to a constant-length [0, 256) view and
// indexes it with the AbsolutePosX intrinsic, whose range is seeded from
// CubeDim.X = 256: both FindConstSliceLen and InBoundsToUnchecked should
// fire, stripping the Checked flag.
func buildBoundsElision() *ir.Scope {
	s := ir.RootScope()
	buf := ir.Variable{Kind: ir.GlobalInputArray, Item: ir.Scalar(ir.ElemF32)}
	local := s.Declare(ir.Scalar(ir.ElemF32))
	view := ir.NewSlice(local.ID, local.Depth, local.Item)
	out := s.Declare(ir.Scalar(ir.ElemF32))
	idx := ir.Variable{Kind: ir.Position, Position: ir.AbsolutePosX, Item: ir.Scalar(ir.ElemU32)}

	s.Add(ir.Op(ir.Operator{Kind: ir.OpSlice, Out: view,
		Args: []ir.Variable{buf, ir.ConstInt(ir.ElemU32, 0), ir.ConstInt(ir.ElemU32, 256)}}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpIndex, Out: out, Args: []ir.Variable{view, idx}, Checked: true}))
	dst := ir.Variable{Kind: ir.GlobalOutputArray, Item: ir.Scalar(ir.ElemF32)}
	s.Add(ir.Op(ir.Operator{Kind: ir.OpIndexAssign, Out: dst, Args: []ir.Variable{ir.ConstInt(ir.ElemU32, 0), out}}))
	return s
}

// buildIndexAssign writes all four lanes of a vec4 Local one at a time:
// CompositeMerge should fuse the writes, and the Local itself must stay
// exempt from SSA throughout (spec §4.4).
func buildIndexAssign() *ir.Scope {
	s := ir.RootScope()
	vec := s.Declare(ir.Vectorized(ir.ElemF32, 4))
	out := s.Declare(ir.Vectorized(ir.ElemF32, 4))

	for lane := 0; lane < 4; lane++ {
		s.Add(ir.Op(ir.Operator{Kind: ir.OpIndexAssign, Out: vec,
			Args: []ir.Variable{ir.ConstInt(ir.ElemU32, int64(lane)), ir.ConstFloat(ir.ElemF32, float64(lane))}}))
	}
	s.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: out, Args: []ir.Variable{vec}}))
	return s
}

// buildLoop is spec §8 Scenario D: a RangeLoop induction counting 0..256 (=
// CUBE_DIM_X) indexes a slice of the same constant length. IntegerRangeAnalysis
// widens the induction phi's upper bound to ⊤ after its second real update
// (spec §9's sanctioned widening strategy, scoped to loop headers by
// loopHeaders in scc.go) but then narrows it straight back down using the
// loop's own exit test `i < 256` (narrowGuardedRanges, ranges.go) — a
// standard widen-then-narrow pass, so the proven range [0, 255] still lines
// up with the slice's known length and InBoundsToUnchecked strips the check.
func buildLoop() *ir.Scope { return buildBoundedLoop(256) }

// buildLoopSmall is spec §8 Scenario F: the same shape at trip count 4,
// proving the narrowing above isn't an artifact of CUBE_DIM_X specifically —
// any statically bounded RangeLoop recovers its induction variable's range
// once the back edge's widened-to-⊤ bound is intersected with the loop's own
// comparison.
func buildLoopSmall() *ir.Scope { return buildBoundedLoop(4) }

func buildBoundedLoop(n int64) *ir.Scope {
	s := ir.RootScope()
	buf := ir.Variable{Kind: ir.GlobalInputArray, Item: ir.Scalar(ir.ElemF32)}
	local := s.Declare(ir.Scalar(ir.ElemF32))
	view := ir.NewSlice(local.ID, local.Depth, local.Item)
	acc := s.Declare(ir.Scalar(ir.ElemF32))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpSlice, Out: view,
		Args: []ir.Variable{buf, ir.ConstInt(ir.ElemU32, 0), ir.ConstInt(ir.ElemU32, n)}}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: acc, Args: []ir.Variable{ir.ConstFloat(ir.ElemF32, 0)}}))

	body := s.Child()
	induction := body.Declare(ir.Scalar(ir.ElemU32))
	elem := body.Declare(ir.Scalar(ir.ElemF32))
	body.Add(ir.Op(ir.Operator{Kind: ir.OpIndex, Out: elem, Args: []ir.Variable{view, induction}, Checked: true}))
	body.Add(ir.Op(ir.Operator{Kind: ir.OpAdd, Out: acc, Args: []ir.Variable{acc, elem}}))

	s.Add(ir.BranchOp(ir.Branch{
		Kind:      ir.BranchRangeLoop,
		Scope:     body,
		Induction: induction,
		Start:     ir.ConstInt(ir.ElemU32, 0),
		End:       ir.ConstInt(ir.ElemU32, n),
		Step:      ir.ConstInt(ir.ElemU32, 1),
	}))
	return s
}
