package bang

import (
	"gobm/pkg/bm"
	"gobm/pkg/diag"
)

// EntryProc is the procedure a program starts in.
const EntryProc = "main"

type callSite struct {
	addr int
	call *Call
}

// Compile lowers m into bytecode. Procedures become call targets ending in
// ret, except main which ends in halt and becomes the entry point.
func Compile(m *Module) (*bm.Program, error) {
	prog := &bm.Program{}
	procs := make(map[string]*Proc, len(m.Procs))
	addrs := make(map[string]int64, len(m.Procs))
	var calls []callSite

	for _, proc := range m.Procs {
		if prev, ok := procs[proc.Name]; ok {
			return nil, diag.Errorf(proc.Loc, diag.Semantic, "procedure `%s` is already defined at %s", proc.Name, prev.Loc)
		}
		if proc.Name == "write" {
			return nil, diag.Errorf(proc.Loc, diag.Semantic, "`write` is a builtin and cannot be redefined")
		}
		procs[proc.Name] = proc
		addrs[proc.Name] = int64(len(prog.Insts))

		for _, call := range proc.Body {
			if call.Name == "write" {
				if err := compileWrite(prog, call); err != nil {
					return nil, err
				}
				continue
			}
			if len(call.Args) > 0 {
				return nil, diag.Errorf(call.Loc, diag.Semantic, "procedure `%s` takes no arguments", call.Name)
			}
			calls = append(calls, callSite{addr: prog.Emit(bm.OpCall, 0), call: call})
		}

		if proc.Name == EntryProc {
			prog.Emit(bm.OpHalt, 0)
		} else {
			prog.Emit(bm.OpRet, 0)
		}
	}

	for _, c := range calls {
		addr, ok := addrs[c.call.Name]
		if !ok {
			return nil, diag.Errorf(c.call.Loc, diag.Semantic, "unknown procedure `%s`", c.call.Name)
		}
		prog.Insts[c.addr].Operand = addr
	}

	entry, ok := addrs[EntryProc]
	if !ok {
		return nil, diag.Errorf(diag.Location{File: m.File, Row: 1, Col: 1}, diag.Semantic, "no `%s` procedure is defined", EntryProc)
	}
	prog.Entry = uint64(entry)
	return prog, nil
}

func compileWrite(prog *bm.Program, call *Call) error {
	if len(call.Args) != 1 {
		return diag.Errorf(call.Loc, diag.Semantic, "`write` expects exactly one string argument")
	}
	s := call.Args[0].Value
	prog.Emit(bm.OpPush, prog.Intern(s))
	prog.Emit(bm.OpPush, int64(len(s)))
	prog.Emit(bm.OpNative, bm.NativeWrite)
	return nil
}

// CompileSource parses and compiles src in one step.
func CompileSource(src, file string) (*bm.Program, error) {
	m, err := Parse(src, file)
	if err != nil {
		return nil, err
	}
	return Compile(m)
}
