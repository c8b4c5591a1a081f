package optimizer

import (
	"reflect"
	"testing"

	"github.com/leizaf/cubecl/ir"
)

// reachableFrom walks forward from start following successors.
func reachableFrom(opt *Optimizer, start NodeIndex) map[NodeIndex]bool {
	seen := map[NodeIndex]bool{}
	var walk func(NodeIndex)
	walk = func(n NodeIndex) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, s := range opt.Successors(n) {
			walk(s)
		}
	}
	walk(start)
	return seen
}

// reachesTo walks backward from target following predecessors.
func reachesTo(opt *Optimizer, target NodeIndex) map[NodeIndex]bool {
	seen := map[NodeIndex]bool{}
	var walk func(NodeIndex)
	walk = func(n NodeIndex) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, p := range opt.Predecessors(n) {
			walk(p)
		}
	}
	walk(target)
	return seen
}

// TestInvariant1_RootAndRetShape is spec §8 invariant 1.
func TestInvariant1_RootAndRetShape(t *testing.T) {
	opt, err := New(fixtureIfElse(), Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n := len(opt.Predecessors(opt.Entry())); n != 0 {
		t.Fatalf("root must have no predecessors, found %d", n)
	}
	if n := len(opt.Successors(opt.Ret())); n != 0 {
		t.Fatalf("ret must have no successors, found %d", n)
	}

	fwd := reachableFrom(opt, opt.Entry())
	back := reachesTo(opt, opt.Ret())
	for _, id := range opt.NodeIDs() {
		if !fwd[id] {
			t.Fatalf("block %d is not reachable from root", id)
		}
		if !back[id] {
			t.Fatalf("block %d cannot reach ret", id)
		}
	}
}

// TestInvariant2_SingleDefinition is spec §8 invariant 2.
func TestInvariant2_SingleDefinition(t *testing.T) {
	opt, err := New(fixtureIfElse(), Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defs := map[VarID]int{}
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		for _, ph := range b.Phis {
			defs[varIDOf(ph.Out)]++
		}
		for _, op := range b.Ops {
			if out, ok := op.Out(); ok && out.Kind == ir.Versioned {
				defs[varIDOf(out)]++
			}
		}
	}
	if len(defs) == 0 {
		t.Fatalf("expected at least one Versioned definition")
	}
	for id, n := range defs {
		if n != 1 {
			t.Fatalf("versioned value %+v has %d defining sites, want 1", id, n)
		}
	}
}

// TestInvariant3_PhiEntriesMatchPredecessors is spec §8 invariant 3.
func TestInvariant3_PhiEntriesMatchPredecessors(t *testing.T) {
	opt, err := New(fixtureIfElse(), Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	found := false
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		preds := map[NodeIndex]bool{}
		for _, p := range opt.Predecessors(id) {
			preds[p] = true
		}
		for _, ph := range b.Phis {
			found = true
			if len(ph.Entries) != len(preds) {
				t.Fatalf("block %d: phi has %d entries, block has %d predecessors", id, len(ph.Entries), len(preds))
			}
			for p := range ph.Entries {
				if !preds[p] {
					t.Fatalf("block %d: phi entry keyed by %d, which is not a predecessor", id, p)
				}
			}
		}
	}
	if !found {
		t.Fatalf("fixture produced no phi to check")
	}
}

// TestInvariant4_DefinitionsDominateUses is spec §8 invariant 4.
func TestInvariant4_DefinitionsDominateUses(t *testing.T) {
	for name, scope := range map[string]*ir.Scope{
		"if-else": fixtureIfElse(),
		"loop":    fixtureBoundedLoop(4),
	} {
		t.Run(name, func(t *testing.T) {
			opt, err := New(scope, checkedConfig())
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			d := computeDominators(opt.program.Graph, opt.Entry())
			domOrEqual := func(a, b NodeIndex) bool { return a == b || d.strictlyDominates(a, b) }

			defBlock := map[VarID]NodeIndex{}
			for _, id := range opt.NodeIDs() {
				b := opt.Block(id)
				for _, ph := range b.Phis {
					defBlock[varIDOf(ph.Out)] = id
				}
				for _, op := range b.Ops {
					if out, ok := op.Out(); ok && out.Kind == ir.Versioned {
						defBlock[varIDOf(out)] = id
					}
				}
			}

			for _, id := range opt.NodeIDs() {
				b := opt.Block(id)
				for _, ph := range b.Phis {
					for pred, v := range ph.Entries {
						if v.Kind != ir.Versioned {
							continue
						}
						db, ok := defBlock[varIDOf(v)]
						if !ok {
							t.Fatalf("phi entry in block %d reads undefined %+v", id, varIDOf(v))
						}
						if !domOrEqual(db, pred) {
							t.Fatalf("phi entry in block %d: def block %d does not dominate predecessor %d", id, db, pred)
						}
					}
				}
				for _, op := range b.Ops {
					for _, r := range op.Reads() {
						if r.Kind != ir.Versioned {
							continue
						}
						db, ok := defBlock[varIDOf(r)]
						if !ok {
							t.Fatalf("op in block %d reads undefined %+v", id, varIDOf(r))
						}
						if db != id && !d.strictlyDominates(db, id) {
							t.Fatalf("op in block %d reads %+v defined in non-dominating block %d", id, varIDOf(r), db)
						}
					}
				}
			}
		})
	}
}

// TestInvariant5_FixedPointBounded is spec §8 invariant 5: even a chain of
// dependent constant folds, which needs several sweeps of the post-SSA loop
// to fully collapse one hop at a time, converges within the safety ceiling
// rather than tripping ir.Fatalf.
func TestInvariant5_FixedPointBounded(t *testing.T) {
	s := ir.RootScope()
	out := ir.Variable{Kind: ir.GlobalOutputArray, Item: ir.Scalar(ir.ElemI32)}
	prev := ir.ConstInt(ir.ElemI32, 0)
	const chain = 40
	for i := 0; i < chain; i++ {
		v := s.Declare(ir.Scalar(ir.ElemI32))
		s.Add(ir.Op(ir.Operator{Kind: ir.OpAdd, Out: v, Args: []ir.Variable{prev, ir.ConstInt(ir.ElemI32, 1)}}))
		prev = v
	}
	s.Add(ir.Op(ir.Operator{Kind: ir.OpIndexAssign, Out: out,
		Args: []ir.Variable{ir.ConstInt(ir.ElemU32, 0), prev}}))

	opt, err := New(s, Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, id := range opt.NodeIDs() {
		for _, op := range opt.Block(id).Ops {
			if op.Category == ir.CategoryOperator && op.Operator.Kind == ir.OpAdd {
				t.Fatalf("expected the whole dependent chain to fold away, found a live Add")
			}
		}
	}
}

// TestInvariant6_Idempotence is spec §8 invariant 6: running the driver
// twice on equivalent input yields byte-identical summaries.
func TestInvariant6_Idempotence(t *testing.T) {
	opt1, err := New(fixtureBoundedLoop(4), checkedConfig())
	if err != nil {
		t.Fatalf("New (1st): %v", err)
	}
	opt2, err := New(fixtureBoundedLoop(4), checkedConfig())
	if err != nil {
		t.Fatalf("New (2nd): %v", err)
	}
	s1, s2 := opt1.Summarize(), opt2.Summarize()
	if !reflect.DeepEqual(s1, s2) {
		t.Fatalf("two runs over equivalent input diverged:\n%+v\nvs\n%+v", s1, s2)
	}
}

// TestInvariant7_NoControlFlowShape is spec §8 invariant 7: a scope with no
// control flow produces exactly root and ret, no phis.
func TestInvariant7_NoControlFlowShape(t *testing.T) {
	s := ir.RootScope()
	out := ir.Variable{Kind: ir.GlobalOutputArray, Item: ir.Scalar(ir.ElemI32)}
	v := s.Declare(ir.Scalar(ir.ElemI32))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpAssign, Out: v, Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 7)}}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpIndexAssign, Out: out, Args: []ir.Variable{ir.ConstInt(ir.ElemU32, 0), v}}))

	opt, err := New(s, Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := len(opt.NodeIDs()); got != 2 {
		t.Fatalf("expected exactly 2 blocks (root, ret), got %d", got)
	}
	if countPhis(opt) != 0 {
		t.Fatalf("expected no phis, got %d", countPhis(opt))
	}
}

// TestInvariant8_DeadBlockEliminationSparesRootAndRet is spec §8 invariant 8.
func TestInvariant8_DeadBlockEliminationSparesRootAndRet(t *testing.T) {
	opt, err := New(fixtureIfElse(), Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	orphan := opt.program.Graph.AddNode(newBlock())

	counter := NewAtomicCounter(0)
	EliminateDeadBlocks{}.ApplyPostSSA(opt, counter)

	if opt.Block(orphan) != nil {
		t.Fatalf("expected the unreachable orphan block to be removed")
	}
	if counter.Get() == 0 {
		t.Fatalf("expected EliminateDeadBlocks to report removing the orphan")
	}
	if opt.Block(opt.Entry()) == nil {
		t.Fatalf("root must never be removed")
	}
	if opt.Block(opt.Ret()) == nil {
		t.Fatalf("ret must never be removed")
	}
}

// TestInvariant9_ConstantFoldingValuePreserving is spec §8 invariant 9.
func TestInvariant9_ConstantFoldingValuePreserving(t *testing.T) {
	s := ir.RootScope()
	out := ir.Variable{Kind: ir.GlobalOutputArray, Item: ir.Scalar(ir.ElemI32)}
	diff := s.Declare(ir.Scalar(ir.ElemI32))
	result := s.Declare(ir.Scalar(ir.ElemI32))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpSub, Out: diff,
		Args: []ir.Variable{ir.ConstInt(ir.ElemI32, 10), ir.ConstInt(ir.ElemI32, 3)}}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpMul, Out: result,
		Args: []ir.Variable{diff, ir.ConstInt(ir.ElemI32, 2)}}))
	s.Add(ir.Op(ir.Operator{Kind: ir.OpIndexAssign, Out: out,
		Args: []ir.Variable{ir.ConstInt(ir.ElemU32, 0), result}}))

	opt, err := New(s, Config{Mode: ir.Unchecked})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const want = int64((10 - 3) * 2)
	found := false
	for _, id := range opt.NodeIDs() {
		for _, op := range opt.Block(id).Ops {
			if op.Category != ir.CategoryOperator || op.Operator.Kind != ir.OpIndexAssign {
				continue
			}
			if len(op.Operator.Args) != 2 {
				continue
			}
			v := op.Operator.Args[1]
			if v.Kind == ir.ConstScalar && v.Const.Int == want {
				found = true
			}
			if v.Kind == ir.Versioned {
				// Trace the single assignment chain down to its literal.
				for _, id2 := range opt.NodeIDs() {
					for _, op2 := range opt.Block(id2).Ops {
						if op2.Category == ir.CategoryOperator && op2.Operator.Kind == ir.OpAssign &&
							op2.Operator.Out.Kind == ir.Versioned && varIDOf(op2.Operator.Out) == varIDOf(v) {
							if op2.Operator.Args[0].Kind == ir.ConstScalar && op2.Operator.Args[0].Const.Int == want {
								found = true
							}
						}
					}
				}
			}
		}
	}
	if !found {
		t.Fatalf("expected the written value to equal (10-3)*2 = %d after folding", want)
	}
}
