package optimizer

import "github.com/leizaf/cubecl/ir"

// FindConstSliceLen annotates Slice.ConstLen when both of a slice's
// endpoints resolve to an exact compile-time value — either a literal
// constant, or a Versioned variable IntegerRangeAnalysis has pinned to a
// singleton interval (spec §4.6). Checked-mode only.
type FindConstSliceLen struct{}

func (FindConstSliceLen) Name() string { return "FindConstSliceLen" }

func (FindConstSliceLen) ApplyPostSSA(opt *Optimizer, counter *AtomicCounter) {
	for _, s := range opt.program.Slices {
		if s.ConstLen != nil {
			continue
		}
		start, ok1 := exactValue(s.Start, opt.program.IntRanges)
		end, ok2 := exactValue(s.End, opt.program.IntRanges)
		if ok1 && ok2 && end >= start {
			length := uint32(end - start)
			s.ConstLen = &length
			counter.Inc()
		}
	}
}

func exactValue(v ir.Variable, ranges map[VarID]Range) (int64, bool) {
	switch v.Kind {
	case ir.ConstScalar:
		if v.Item.Elem.IsInt() {
			return v.Const.Int, true
		}
	case ir.Versioned:
		if r, ok := ranges[varIDOf(v)]; ok && r.Lower != nil && r.Upper != nil && *r.Lower == *r.Upper {
			return *r.Lower, true
		}
	}
	return 0, false
}
