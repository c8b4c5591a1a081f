package optimizer

import "github.com/leizaf/cubecl/ir"

// IntegerRangeAnalysis is C9: forward abstract interpretation over
// Versioned integer variables, producing the interval lattice
// `Range{lower?, upper?}` consumed by FindConstSliceLen and
// InBoundsToUnchecked (spec §4.6). Checked-mode only.
type IntegerRangeAnalysis struct{}

func (IntegerRangeAnalysis) Name() string { return "IntegerRangeAnalysis" }

func (IntegerRangeAnalysis) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	old := opt.program.IntRanges
	fresh := opt.computeRanges()
	opt.narrowGuardedRanges(fresh)
	if !rangesEqual(old, fresh) {
		counter.Inc()
	}
	opt.program.IntRanges = fresh
}

// rangeRunner accumulates the interval for each tracked VarID across
// repeated sweeps, applying the widening rule spec §4.6/§9 asks for: two
// plain (non-widening) updates to a loop-carried phi are allowed, any
// further change widens per-bound (see widenRange) rather than growing it
// further. This is the standard "promote to ⊤ after k >= 2 iterations"
// strategy spec §9's open question on widening explicitly sanctions,
// narrowed here to loop headers (see loopHeaders, scc.go): a phi at a
// non-loop join has no back edge feeding it a fresh value each sweep, so it
// converges in at most the block's dominator-tree depth and never needs
// widening at all. narrowGuardedRanges (below) then recovers precision the
// widening step gave up, from the loop's own exit test.
type rangeRunner struct {
	ranges  map[VarID]Range
	visits  map[VarID]int
	widened map[VarID]bool
}

func (rr *rangeRunner) update(v VarID, newR Range, widens bool) bool {
	old, existed := rr.ranges[v]
	if existed && rangeEq(old, newR) {
		return false
	}
	if widens && existed {
		rr.visits[v]++
		if rr.visits[v] > 2 {
			newR = widenRange(old, newR)
			if rangeEq(old, newR) {
				return false
			}
		}
	}
	rr.ranges[v] = newR
	return true
}

// widenRange applies Cousot & Cousot's standard per-bound interval widening
// instead of collapsing straight to ⊤: a bound that held the same value
// across this update is trusted and kept, while a bound that moved is
// assumed to keep moving forever and is jumped to infinity. This guarantees
// termination exactly like forcing the whole interval to ⊤ would, but
// without discarding a bound that had already settled — a loop induction
// variable's lower bound is fixed by its start value from the first real
// sweep, while its upper bound climbs once per iteration; only the upper
// bound needs to give up on precision here. narrowGuardedRanges below then
// recovers the climbing bound too, from the loop's own exit test.
func widenRange(old, newR Range) Range {
	lo := newR.Lower
	if !ptrInt64Eq(old.Lower, newR.Lower) {
		lo = nil
	}
	up := newR.Upper
	if !ptrInt64Eq(old.Upper, newR.Upper) {
		up = nil
	}
	return Range{Lower: lo, Upper: up}
}

// computeRanges runs the internal fixed point (bounded to 64 sweeps, well
// past what the widening rule above needs to settle) and returns the
// resulting interval table.
func (opt *Optimizer) computeRanges() map[VarID]Range {
	headers := opt.loopHeaders()
	rr := &rangeRunner{ranges: map[VarID]Range{}, visits: map[VarID]int{}, widened: map[VarID]bool{}}
	ids := opt.NodeIDs()
	for _, id := range ids {
		if !headers[id] {
			continue
		}
		for _, ph := range opt.Block(id).Phis {
			rr.widened[varIDOf(ph.Out)] = true
		}
	}
	for iter := 0; iter < 64; iter++ {
		changed := false
		for _, id := range ids {
			if opt.stepRangeBlock(id, rr) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return rr.ranges
}

func (opt *Optimizer) stepRangeBlock(id NodeIndex, rr *rangeRunner) bool {
	b := opt.Block(id)
	changed := false
	for _, ph := range b.Phis {
		if ph.Out.Kind != ir.Versioned || !ph.Out.Item.Elem.IsInt() {
			continue
		}
		nr, ok := phiRangeValue(ph, rr.ranges, opt.cubeDim)
		if !ok {
			continue
		}
		v := varIDOf(ph.Out)
		if rr.update(v, nr, rr.widened[v]) {
			changed = true
		}
	}
	for _, op := range b.Ops {
		if op.Category != ir.CategoryOperator {
			continue
		}
		out := op.Operator.Out
		if out.Kind != ir.Versioned || !out.Item.Elem.IsInt() {
			continue
		}
		nr, ok := transferRange(op.Operator, rr.ranges, opt.cubeDim)
		if !ok {
			continue
		}
		v := varIDOf(out)
		if rr.update(v, nr, rr.widened[v]) {
			changed = true
		}
	}
	return changed
}

// operandRange resolves the current interval of a read operand: exact for
// constants, seeded from CubeDim for axis-bound position intrinsics, ⊤ for
// anything else untracked — but a Versioned value with no entry yet in
// ranges returns ok=false (⊥, "not yet known"), not ⊤. Defaulting a missing
// value to ⊤ would poison a self-referential loop phi with ⊤ on its very
// first sweep, before the back edge's value has ever actually been computed
// once, since unionRange short-circuits to ⊤ whenever either side is ⊤ — and
// once a phi's stored range is itself ⊤, every future sweep recomputes the
// same ⊤ and rr.update sees no change, so the pollution never clears. Bottom
// lets the dataflow grow from real values instead.
func operandRange(v ir.Variable, ranges map[VarID]Range, dim ir.CubeDim) (Range, bool) {
	switch v.Kind {
	case ir.ConstScalar:
		if v.Item.Elem.IsInt() {
			return Exact(v.Const.Int), true
		}
		return Top(), true
	case ir.Versioned:
		r, ok := ranges[varIDOf(v)]
		return r, ok
	case ir.Position:
		if size, ok := dim.AxisSize(v.Position); ok {
			lo := int64(0)
			up := int64(size) - 1
			return Range{Lower: &lo, Upper: &up}, true
		}
		return Top(), true
	default:
		return Top(), true
	}
}

// phiRangeValue unions whichever entries are already known, skipping ⊥
// ones rather than letting them drag the result to ⊤; ok is false only when
// NO entry is known yet, meaning the phi itself has nothing to report this
// sweep.
func phiRangeValue(ph PhiInstruction, ranges map[VarID]Range, dim ir.CubeDim) (Range, bool) {
	var acc Range
	any := false
	for _, v := range ph.Entries {
		r, ok := operandRange(v, ranges, dim)
		if !ok {
			continue
		}
		if !any {
			acc = r
			any = true
		} else {
			acc = unionRange(acc, r)
		}
	}
	return acc, any
}

func transferRange(op ir.Operator, ranges map[VarID]Range, dim ir.CubeDim) (Range, bool) {
	switch op.Kind {
	case ir.OpAssign:
		if len(op.Args) != 1 {
			return Range{}, false
		}
		return operandRange(op.Args[0], ranges, dim)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpMin, ir.OpMax:
		if len(op.Args) != 2 {
			return Range{}, false
		}
		a, aok := operandRange(op.Args[0], ranges, dim)
		b, bok := operandRange(op.Args[1], ranges, dim)
		if !aok || !bok {
			return Range{}, false
		}
		switch op.Kind {
		case ir.OpAdd:
			return addRange(a, b), true
		case ir.OpSub:
			return subRange(a, b), true
		case ir.OpMul:
			return mulRange(a, b), true
		case ir.OpMin:
			return minRange(a, b), true
		case ir.OpMax:
			return maxRange(a, b), true
		}
	case ir.OpNeg:
		if len(op.Args) != 1 {
			return Range{}, false
		}
		a, ok := operandRange(op.Args[0], ranges, dim)
		if !ok {
			return Range{}, false
		}
		return negRange(a), true
	case ir.OpClamp:
		if len(op.Args) != 3 {
			return Range{}, false
		}
		lo, lok := operandRange(op.Args[1], ranges, dim)
		hi, hok := operandRange(op.Args[2], ranges, dim)
		if !lok || !hok {
			return Range{}, false
		}
		return clampRange(lo, hi), true
	}
	return Range{}, false
}

func unionRange(a, b Range) Range {
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	var lower, upper *int64
	if a.Lower != nil && b.Lower != nil {
		v := min64(*a.Lower, *b.Lower)
		lower = &v
	}
	if a.Upper != nil && b.Upper != nil {
		v := max64(*a.Upper, *b.Upper)
		upper = &v
	}
	return Range{Lower: lower, Upper: upper}
}

func addRange(a, b Range) Range {
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	var lo, up *int64
	if a.Lower != nil && b.Lower != nil {
		v := *a.Lower + *b.Lower
		lo = &v
	}
	if a.Upper != nil && b.Upper != nil {
		v := *a.Upper + *b.Upper
		up = &v
	}
	return Range{Lower: lo, Upper: up}
}

func subRange(a, b Range) Range {
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	var lo, up *int64
	if a.Lower != nil && b.Upper != nil {
		v := *a.Lower - *b.Upper
		lo = &v
	}
	if a.Upper != nil && b.Lower != nil {
		v := *a.Upper - *b.Lower
		up = &v
	}
	return Range{Lower: lo, Upper: up}
}

func negRange(a Range) Range {
	if a.IsTop() {
		return Top()
	}
	var lo, up *int64
	if a.Upper != nil {
		v := -*a.Upper
		lo = &v
	}
	if a.Lower != nil {
		v := -*a.Lower
		up = &v
	}
	return Range{Lower: lo, Upper: up}
}

func mulRange(a, b Range) Range {
	if a.Lower == nil || a.Upper == nil || b.Lower == nil || b.Upper == nil {
		return Top()
	}
	candidates := [4]int64{
		*a.Lower * *b.Lower, *a.Lower * *b.Upper,
		*a.Upper * *b.Lower, *a.Upper * *b.Upper,
	}
	lo, up := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		lo = min64(lo, c)
		up = max64(up, c)
	}
	return Range{Lower: &lo, Upper: &up}
}

func minRange(a, b Range) Range {
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	var lo, up *int64
	if a.Lower != nil && b.Lower != nil {
		v := min64(*a.Lower, *b.Lower)
		lo = &v
	}
	if a.Upper != nil && b.Upper != nil {
		v := min64(*a.Upper, *b.Upper)
		up = &v
	}
	return Range{Lower: lo, Upper: up}
}

func maxRange(a, b Range) Range {
	if a.IsTop() || b.IsTop() {
		return Top()
	}
	var lo, up *int64
	if a.Lower != nil && b.Lower != nil {
		v := max64(*a.Lower, *b.Lower)
		lo = &v
	}
	if a.Upper != nil && b.Upper != nil {
		v := max64(*a.Upper, *b.Upper)
		up = &v
	}
	return Range{Lower: lo, Upper: up}
}

// clampRange models clamp(x, lo, hi)'s result range as [min(lo), max(hi)]:
// the result is always within [lo, hi] regardless of x, so x's own range
// doesn't sharpen the bound further.
func clampRange(lo, hi Range) Range {
	if lo.Lower == nil || hi.Upper == nil {
		return Top()
	}
	return Range{Lower: lo.Lower, Upper: hi.Upper}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func rangeEq(a, b Range) bool {
	return ptrInt64Eq(a.Lower, b.Lower) && ptrInt64Eq(a.Upper, b.Upper)
}

func ptrInt64Eq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// narrowGuardedRanges sharpens a loop induction variable's range using the
// loop's own exit test, a standard widen-then-narrow pass (Cousot & Cousot):
// widening alone finds a safe fixed point fast by forcing a repeatedly
// growing value straight to ⊤ (rangeRunner.update above), which is exactly
// what spec §8's small, statically-bounded loops need to NOT happen to their
// induction variable. parseRangeLoop (parse.go) desugars `for i in
// start..end` into a CFBreak block whose Cond is `i < end` (or `<=` for an
// inclusive range) computed in that same block — a comparison the raw
// Add/union transfer functions never consult, but which proves the exact
// bound a widened-to-⊤ phi lost. Intersecting ⊤ with that bound recovers it;
// intersecting an already-precise range with it can only ever sharpen, never
// regress, so running this unconditionally after every fixed point is safe.
//
// This mutates ranges in place, keyed by the compared variable's own VarID —
// sound because parseRangeLoop's induction is read only inside loopBody,
// which executes exactly when the guard holds, so there is no other use site
// the narrowed bound could be wrong for. A hand-written CFBreak/CFIfElse
// whose Cond variable is reused outside the guarded arm would not have that
// property; see DESIGN.md.
func (opt *Optimizer) narrowGuardedRanges(ranges map[VarID]Range) {
	for _, id := range opt.NodeIDs() {
		b := opt.Block(id)
		if b.ControlFlow.Kind != CFBreak && b.ControlFlow.Kind != CFIfElse {
			continue
		}
		cond := b.ControlFlow.Cond
		if cond.Kind != ir.Versioned {
			continue
		}
		for _, op := range b.Ops {
			if op.Category != ir.CategoryOperator || op.Operator.Out.Kind != ir.Versioned {
				continue
			}
			if varIDOf(op.Operator.Out) != varIDOf(cond) {
				continue
			}
			target, guard, ok := comparisonGuard(op.Operator, ranges, opt.cubeDim)
			if !ok {
				break
			}
			v := varIDOf(target)
			if cur, exists := ranges[v]; exists {
				ranges[v] = intersectRange(cur, guard)
			}
			break
		}
	}
}

// comparisonGuard reads a two-operand int comparison and returns the tracked
// side's variable plus the interval the comparison implies about it (e.g.
// `x < end` implies `x`'s upper bound is end's upper bound minus one). ok is
// false when neither side is a tracked int Versioned value, or the bound
// operand's own range doesn't pin down the side the comparison needs.
func comparisonGuard(op ir.Operator, ranges map[VarID]Range, dim ir.CubeDim) (ir.Variable, Range, bool) {
	if len(op.Args) != 2 {
		return ir.Variable{}, Range{}, false
	}
	lhs, rhs := op.Args[0], op.Args[1]
	lhsTracked := lhs.Kind == ir.Versioned && lhs.Item.Elem.IsInt()
	rhsTracked := rhs.Kind == ir.Versioned && rhs.Item.Elem.IsInt()

	switch op.Kind {
	case ir.OpLt, ir.OpLe:
		if lhsTracked {
			bound, ok := operandRange(rhs, ranges, dim)
			if !ok || bound.Upper == nil {
				return ir.Variable{}, Range{}, false
			}
			up := *bound.Upper
			if op.Kind == ir.OpLt {
				up--
			}
			return lhs, Range{Upper: &up}, true
		}
		if rhsTracked {
			bound, ok := operandRange(lhs, ranges, dim)
			if !ok || bound.Lower == nil {
				return ir.Variable{}, Range{}, false
			}
			lo := *bound.Lower
			if op.Kind == ir.OpLt {
				lo++
			}
			return rhs, Range{Lower: &lo}, true
		}
	case ir.OpGt, ir.OpGe:
		if lhsTracked {
			bound, ok := operandRange(rhs, ranges, dim)
			if !ok || bound.Lower == nil {
				return ir.Variable{}, Range{}, false
			}
			lo := *bound.Lower
			if op.Kind == ir.OpGt {
				lo++
			}
			return lhs, Range{Lower: &lo}, true
		}
		if rhsTracked {
			bound, ok := operandRange(lhs, ranges, dim)
			if !ok || bound.Upper == nil {
				return ir.Variable{}, Range{}, false
			}
			up := *bound.Upper
			if op.Kind == ir.OpGt {
				up--
			}
			return rhs, Range{Upper: &up}, true
		}
	}
	return ir.Variable{}, Range{}, false
}

// intersectRange narrows a to whichever bound b also supplies; a bound
// missing on one side (⊤ in that direction) never widens the other side.
func intersectRange(a, b Range) Range {
	lo := a.Lower
	if b.Lower != nil && (lo == nil || *b.Lower > *lo) {
		lo = b.Lower
	}
	up := a.Upper
	if b.Upper != nil && (up == nil || *b.Upper < *up) {
		up = b.Upper
	}
	return Range{Lower: lo, Upper: up}
}

func rangesEqual(a, b map[VarID]Range) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !rangeEq(v, w) {
			return false
		}
	}
	return true
}
