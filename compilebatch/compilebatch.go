// Package compilebatch compiles a set of independent kernel scopes
// concurrently. It is a thin collaborator around optimizer.New: spec §5
// notes that "parallelism across kernels is the caller's responsibility,
// each compilation gets its own Program" — optimizer.Optimizer shares no
// mutable state across instances, so running N of them concurrently needs
// nothing beyond fanning the work out and collecting results in order.
//
// Grounded on the errgroup.WithContext feeder/worker shape in
// _examples/aclements-go-misc/dashquery/main.go's revision-log scan, the
// one golang.org/x/sync/errgroup use in the retrieved corpus.
package compilebatch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/leizaf/cubecl/ir"
	"github.com/leizaf/cubecl/optimizer"
)

// Kernel is one independent compilation unit: a scope plus the Config to
// run it with.
type Kernel struct {
	Name  string
	Scope *ir.Scope
	Cfg   optimizer.Config
}

// Result pairs a Kernel's output back to its source name, since errgroup
// fan-out completes compilations out of order.
type Result struct {
	Name string
	Opt  *optimizer.Optimizer
}

// Compile runs optimizer.New for every kernel concurrently, bounded by
// limit simultaneous compilations (0 means unbounded), and returns results
// in the same order as kernels. The first kernel to fail a fatal invariant
// cancels the group's derived context, so kernels that have not started yet
// are skipped; compilations already running finish. Compile returns that
// error wrapped with the failing kernel's name.
func Compile(ctx context.Context, kernels []Kernel, limit int) ([]Result, error) {
	results := make([]Result, len(kernels))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, k := range kernels {
		i, k := i, k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			opt, err := optimizer.New(k.Scope, k.Cfg)
			if err != nil {
				return fmt.Errorf("kernel %q: %w", k.Name, err)
			}
			results[i] = Result{Name: k.Name, Opt: opt}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
