// Command mamba is the command-line driver for the semantic core: it reads
// a source file, runs the full pipeline (lex, parse, build scopes, bind
// scopes, infer constraints, solve), and prints diagnostics and solutions.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/mamba-lang/mamba/internal/analyzer"
	"github.com/mamba-lang/mamba/internal/config"
	"github.com/mamba-lang/mamba/internal/pipeline"
)

func main() {
	all := flag.Bool("all", false, "print every solution the solver finds, not just the first")
	verbose := flag.Bool("verbose", false, "log the compilation run id")
	noColor := flag.Bool("no-color", false, "disable ANSI colorization of diagnostics even on a terminal")
	version := flag.Bool("version", false, "print the analyzer version and exit")
	flag.Parse()

	if *version {
		fmt.Println("mamba " + config.Version)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mamba [-all] [-verbose] [-no-color] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)
	if filepath.Ext(path) != config.SourceFileExt {
		fmt.Fprintf(os.Stderr, "mamba: warning: %s does not have the %s extension\n", path, config.SourceFileExt)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mamba: %s\n", err)
		os.Exit(1)
	}

	opts, err := config.LoadAnalysisOptions(filepath.Join(filepath.Dir(path), ".mamba.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mamba: reading .mamba.yaml: %s\n", err)
		os.Exit(1)
	}
	color := opts.Color && !*noColor && isatty.IsTerminal(os.Stdout.Fd())

	ctx := pipeline.NewContext(path, string(source))
	ctx.MaxDisjunctionFanOut = opts.MaxDisjunctionFanOut

	if *verbose {
		fmt.Fprintf(os.Stderr, "mamba: run %s: compiling %s\n", ctx.RunID, path)
	}

	result := pipeline.Default().Run(ctx)

	for _, diag := range result.Errors {
		fmt.Fprintln(os.Stderr, renderDiagnostic(diag.Error(), color))
	}

	printed := result.Solutions
	if !*all && len(printed) > 1 {
		printed = printed[:1]
	}
	for i, sol := range printed {
		if *all && len(result.Solutions) > 1 {
			fmt.Printf("--- solution %d/%d (run %s) ---\n", i+1, len(result.Solutions), ctx.RunID)
		}
		printSolution(sol)
	}

	fmt.Println(runSummary(result))

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}

func renderDiagnostic(msg string, color bool) string {
	if !color {
		return msg
	}
	return "\x1b[31m" + msg + "\x1b[0m"
}

func printSolution(sol analyzer.Solution) {
	fmt.Println(sol.String())
}

func runSummary(result *pipeline.PipelineContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "mamba: processed %s constraints across %s solution branches",
		humanize.Comma(int64(len(result.Constraints))),
		humanize.Comma(int64(len(result.Solutions))),
	)
	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, ", %s errors", humanize.Comma(int64(len(result.Errors))))
	}
	return b.String()
}
