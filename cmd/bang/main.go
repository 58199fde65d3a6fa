// Command bang compiles bang source into a bytecode module or native
// assembly.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"gobm/pkg/bang"
	"gobm/pkg/diag"
	"gobm/pkg/target"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bang", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outPath := fs.String("o", "", "output path (default: ./<input stem><target extension>)")
	targetName := fs.String("t", target.BM.String(), "output target: "+strings.Join(target.Names(), " | "))
	dumpAST := fs.Bool("ast", false, "print the parsed syntax tree before compiling")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bang [OPTIONS] <input.bang>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		fmt.Fprintln(stderr, "ERROR: exactly one input file is required")
		return 1
	}
	inPath := fs.Arg(0)

	t, ok := target.ByName(*targetName)
	if !ok {
		fmt.Fprintf(stderr, "ERROR: unknown output format `%s`\n", *targetName)
		return 1
	}

	src, err := os.ReadFile(inPath)
	if err != nil {
		return diag.Exit(stderr, err)
	}
	mod, err := bang.Parse(string(src), inPath)
	if err != nil {
		return diag.Exit(stderr, err)
	}
	if *dumpAST {
		spew.Fdump(stdout, mod)
	}

	prog, err := bang.Compile(mod)
	if err != nil {
		return diag.Exit(stderr, err)
	}

	output := *outPath
	if output == "" {
		base := filepath.Base(inPath)
		output = "./" + strings.TrimSuffix(base, filepath.Ext(base)) + t.Ext()
	}
	if err := t.Save(prog, output); err != nil {
		return diag.Exit(stderr, err)
	}
	return 0
}
