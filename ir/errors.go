package ir

import "fmt"

// InvariantError reports a violated precondition of the IR/optimizer
// pipeline: a programmer bug, never a user-facing recoverable condition on
// its own. See spec §7 ("Programmer-bug invariants ... fatal; abort
// compilation with an identifier of the offending block/operation").
//
// The optimizer package recovers these once, at its entry point, and turns
// them into a plain error for callers (spec §7: "core exposes only total
// outcome").
type InvariantError struct {
	Msg string
	// Ident optionally names the offending block/operation/variable.
	Ident string
}

func (e InvariantError) Error() string {
	if e.Ident == "" {
		return "invariant violation: " + e.Msg
	}
	return fmt.Sprintf("invariant violation: %s (%s)", e.Msg, e.Ident)
}

// Fatalf panics with an InvariantError built from a format string and an
// optional identifier, mirroring cmd/compile/internal/ssa's f.Fatalf.
func Fatalf(ident, format string, args ...any) {
	panic(InvariantError{Msg: fmt.Sprintf(format, args...), Ident: ident})
}
