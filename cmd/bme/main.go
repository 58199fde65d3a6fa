// Command bme runs a bytecode module on the reference machine.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gobm/pkg/bm"
	"gobm/pkg/diag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bme", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int("limit", 0, "stop after this many instructions (0 means no limit)")
	dump := fs.Bool("dump", false, "print the loaded program before running it")
	verify := fs.Bool("verify", false, "verify the program before running it")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bme [OPTIONS] <input.bm>\n")
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

	prog, err := bm.LoadFile(fs.Arg(0))
	if err != nil {
		return diag.Exit(stderr, err)
	}
	if *dump {
		fmt.Fprint(stderr, prog.Dump())
	}
	if *verify {
		if err := bm.Verify(prog); err != nil {
			return diag.Exit(stderr, err)
		}
	}

	vm := bm.NewMachine(prog)
	vm.Output = stdout
	if err := vm.Run(*limit); err != nil {
		return diag.Exit(stderr, err)
	}
	return vm.ExitCode
}
