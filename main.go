package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gobm/pkg/basm"
	"gobm/pkg/bm"
	"gobm/pkg/diag"
	"gobm/pkg/target"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// includePaths collects every -I flag in order.
type includePaths []string

func (p *includePaths) String() string { return strings.Join(*p, ":") }

func (p *includePaths) Set(path string) error {
	*p = append(*p, path)
	return nil
}

func usage(w io.Writer, program string) {
	fmt.Fprintf(w, "Usage: %s [OPTIONS] <input.basm>\n", program)
	fmt.Fprintf(w, "OPTIONS:\n")
	fmt.Fprintf(w, "    -I <include/path/>                            Add include path\n")
	fmt.Fprintf(w, "    -o <output.bm>                                Provide output path\n")
	fmt.Fprintf(w, "    -t <bm|nasm-linux-x86-64|nasm-freebsd-x86-64> Output target. Default is bm\n")
	fmt.Fprintf(w, "    -verify                                       Verify the bytecode instructions after the translation\n")
	fmt.Fprintf(w, "    -h                                            Print this help to stdout\n")
}

func defaultOutputPath(inPath string, t target.Target) string {
	base := filepath.Base(inPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return "./" + stem + t.Ext()
}

// run is the whole driver. It returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	program := "basm"
	if len(args) > 0 {
		program = filepath.Base(args[0])
		args = args[1:]
	}

	fail := func(format string, a ...any) int {
		usage(stderr, program)
		fmt.Fprintf(stderr, "ERROR: "+format+"\n", a...)
		return 1
	}

	var includes includePaths
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.Var(&includes, "I", "add include path")
	outPath := fs.String("o", "", "output path")
	targetName := fs.String("t", target.BM.String(), "output target")
	verify := fs.Bool("verify", false, "verify the bytecode after translation")

	// Flags may appear on either side of the input file.
	inPath := ""
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				usage(stdout, program)
				return 0
			}
			return fail("%v", err)
		}
		if fs.NArg() == 0 {
			break
		}
		if inPath != "" {
			return fail("input file is already provided as `%s`. Only a single input file is supported", inPath)
		}
		inPath = fs.Arg(0)
		args = fs.Args()[1:]
	}

	if inPath == "" {
		return fail("no input file is provided")
	}

	t, ok := target.ByName(*targetName)
	if !ok {
		usage(stderr, program)
		fmt.Fprintf(stderr, "ERROR: unknown output format `%s`\n", *targetName)
		if hints := target.Suggest(*targetName); len(hints) > 0 {
			fmt.Fprintf(stderr, "NOTE: did you mean `%s`?\n", hints[0])
		}
		return 1
	}

	output := *outPath
	if output == "" {
		output = defaultOutputPath(inPath, t)
	}

	prog, err := basm.NewTranslator(includes...).TranslateFile(inPath)
	if err != nil {
		return diag.Exit(stderr, err)
	}

	if *verify {
		if err := bm.Verify(prog); err != nil {
			return diag.Exit(stderr, err)
		}
	}

	if err := t.Save(prog, output); err != nil {
		return diag.Exit(stderr, err)
	}
	return 0
}
