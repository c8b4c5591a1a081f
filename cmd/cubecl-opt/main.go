// Command cubecl-opt runs the optimizer over one of a handful of built-in
// demonstration kernels and prints a summary of the resulting program: a
// thin driver in the shape of godoctor's and wazero's own example/demo
// binaries, the kind of "CLI exercising the library end to end" every
// compiler middle-end in the retrieved corpus ships even though it sits
// outside the optimizer's own design (spec §1).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/leizaf/cubecl/ir"
	"github.com/leizaf/cubecl/optimizer"
)

func main() {
	scenario := flag.String("scenario", "if-else", "demo kernel: straight-line, if-else, dead-branch, bounds-elision, index-assign, loop, loop-small")
	checked := flag.Bool("checked", true, "run in Checked execution mode")
	asJSON := flag.Bool("json", false, "print the summary as JSON instead of text")
	debug := flag.Int("debug", 0, "optimizer trace verbosity")
	flag.Parse()

	build, ok := scenarios[*scenario]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown scenario %q; choices: %s\n", *scenario, scenarioNames())
		os.Exit(2)
	}

	mode := ir.Unchecked
	if *checked {
		mode = ir.Checked
	}
	cfg := optimizer.Config{
		CubeDim:  ir.CubeDim{X: 256, Y: 1, Z: 1},
		Mode:     mode,
		Debug:    *debug,
		DebugOut: os.Stderr,
	}

	opt, err := optimizer.New(build(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		os.Exit(1)
	}

	summary := opt.Summarize()
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("scenario %s (%s)\n", *scenario, mode)
	for _, b := range summary.Blocks {
		fmt.Printf("  block %d: %d phi(s), %d op(s), %d checked, preds=%v succs=%v\n",
			b.ID, b.PhiCount, b.OpCount, b.Checked, b.Preds, b.Succs)
	}
	if len(summary.Ranges) > 0 {
		fmt.Println("  ranges:")
		for k, r := range summary.Ranges {
			fmt.Printf("    %s = %s\n", k, formatRange(r))
		}
	}
}

func formatRange(r optimizer.Range) string {
	lo, hi := "-inf", "+inf"
	if r.Lower != nil {
		lo = fmt.Sprint(*r.Lower)
	}
	if r.Upper != nil {
		hi = fmt.Sprint(*r.Upper)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}

func scenarioNames() string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	return fmt.Sprint(names)
}
