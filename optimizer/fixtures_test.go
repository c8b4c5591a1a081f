package optimizer

import "github.com/leizaf/cubecl/ir"

// These builders mirror cmd/cubecl-opt/scenarios.go's shapes for spec §8's
// scenarios A-F, rebuilt here since cmd/cubecl-opt is package main and
// can't be imported by this package's tests.

// fixtureStraightLine computes `c = a + b; write_out(c)` (Scenario A): the
// write is a real IndexAssign sink so ConstEval's folded literal survives
// EliminateUnusedVariables (an impure op is never dropped as dead code).
func fixtureStraightLine() *ir.Scope {
	s := ir.RootScope()
	out := ir.Variable{Kind: ir.GlobalOutputArray, Item: ir.Scalar(ir.ElemI32)}
	c := s.Declare(ir.Scalar(ir.ElemI32))

	s.Add(ir.Op(ir.Operator{Kind: ir.OpAdd, Out: c,
		Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 2), ir.ConstInt(ir.ElemI32, 3)}}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpIndexAssign, Out: out,
		Args: []ir.Variable{ir.ConstInt(ir.ElemU32, 0), c}}))
	return s
}

// fixtureIfElse assigns x from both arms of an if/else and reads it
// afterward, forcing a phi at the merge block (Scenario B).
func fixtureIfElse() *ir.Scope {
	s := ir.RootScope()
	cond := s.Declare(ir.Scalar(ir.ElemBool))
	x := s.Declare(ir.Scalar(ir.ElemI32))
	out := s.Declare(ir.Scalar(ir.ElemI32))

	s.Add(ir.Op(ir.Operator{Kind: ir.OpLt, Out: cond,
		Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 1), ir.ConstInt(ir.ElemI32, 2)}}))

	then := s.Child()
	then.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: x, Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 1)}}))
	els := s.Child()
	els.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: x, Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 2)}}))

	s.Add(ir.BranchOp(ir.Branch{Kind: ir.BranchIfElse, Cond: cond, Scope: then, ElseScope: els}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: out, Args: []ir.Variable{x}}))
	return s
}

// fixtureDeadBranch branches on a literal-true condition: `if true { x = 1 }
// else { x = 2 }; write_out(x)` (Scenario C). The write is a real
// IndexAssign sink so the surviving literal isn't itself pruned as unused.
func fixtureDeadBranch() *ir.Scope {
	s := ir.RootScope()
	out := ir.Variable{Kind: ir.GlobalOutputArray, Item: ir.Scalar(ir.ElemI32)}
	x := s.Declare(ir.Scalar(ir.ElemI32))

	then := s.Child()
	then.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: x, Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 1)}}))
	els := s.Child()
	els.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: x, Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 2)}}))

	s.Add(ir.BranchOp(ir.Branch{Kind: ir.BranchIfElse, Cond: ir.ConstBool(true), Scope: then, ElseScope: els}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpIndexAssign, Out: out,
		Args: []ir.Variable{ir.ConstInt(ir.ElemU32, 0), x}}))
	return s
}

// fixtureIndexAssign writes all four lanes of a vec4 Local one at a time
// (Scenario E).
func fixtureIndexAssign() *ir.Scope {
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

// fixtureBoundedLoop is Scenario D (n=256) / Scenario F (n=4): `for i in
// 0..n { sum += a[i] }` over a slice known to have exactly n elements.
func fixtureBoundedLoop(n int64) *ir.Scope {
	s := ir.RootScope()
	buf := ir.Variable{Kind: ir.GlobalInputArray, Item: ir.Scalar(ir.ElemF32)}
	local := s.Declare(ir.Scalar(ir.ElemF32))
	view := ir.NewSlice(local.ID, local.Depth, local.Item)
	sum := s.Declare(ir.Scalar(ir.ElemF32))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpSlice, Out: view,
		Args: []ir.Variable{buf, ir.ConstInt(ir.ElemU32, 0), ir.ConstInt(ir.ElemU32, n)}}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: sum, Args: []ir.Variable{ir.ConstFloat(ir.ElemF32, 0)}}))

	body := s.Child()
	induction := body.Declare(ir.Scalar(ir.ElemU32))
	elem := body.Declare(ir.Scalar(ir.ElemF32))
	body.Add(ir.Op(ir.Operator{Kind: ir.OpIndex, Out: elem, Args: []ir.Variable{view, induction}, Checked: true}))
	body.Add(ir.Op(ir.Operator{Kind: ir.OpAdd, Out: sum, Args: []ir.Variable{sum, elem}}))

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

func checkedConfig() Config {
	return Config{CubeDim: ir.CubeDim{X: 256, Y: 1, Z: 1}, Mode: ir.Checked}
}
