package basm

import (
	"fmt"
	"os"
	"path/filepath"

	"gobm/pkg/bm"
	"gobm/pkg/diag"
	"gobm/pkg/expr"
)

// MaxLoopIterations bounds a single %for expansion.
const MaxLoopIterations = 1 << 16

// pending is an operand that can only be evaluated once every label is known.
type pending struct {
	addr  int
	inst  *Instruction
	scope expr.Scope
}

type deferredAssert struct {
	stmt  *Assert
	scope expr.Scope
}

// Translator turns assembler source into a bm.Program in two passes. The
// first pass expands includes, %if and %for, lays out instructions and
// assigns label addresses. The second pass evaluates operands, so
// instructions may refer to labels defined further down.
type Translator struct {
	IncludePaths []string

	prog     *bm.Program
	globals  *expr.Bindings
	defined  map[string]diag.Location
	entry    *Entry
	operands []pending
	asserts  []deferredAssert
	visiting map[string]bool
}

func NewTranslator(includePaths ...string) *Translator {
	return &Translator{IncludePaths: includePaths}
}

func (tr *Translator) reset() {
	tr.prog = &bm.Program{}
	tr.globals = expr.NewBindings(nil)
	tr.defined = make(map[string]diag.Location)
	tr.entry = nil
	tr.operands = nil
	tr.asserts = nil
	tr.visiting = make(map[string]bool)
}

// TranslateFile translates the root source file at path.
func (tr *Translator) TranslateFile(path string) (*bm.Program, error) {
	tr.reset()
	if err := tr.includeFile(path, diag.Location{File: path, Row: 1, Col: 1}); err != nil {
		return nil, err
	}
	return tr.finish()
}

// TranslateSource translates in-memory source. Includes are resolved
// relative to the directory of file.
func (tr *Translator) TranslateSource(src, file string) (*bm.Program, error) {
	tr.reset()
	stmts, err := Parse(src, file)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(file); err == nil {
		tr.visiting[abs] = true
	}
	if err := tr.layout(stmts, tr.globals, filepath.Dir(file)); err != nil {
		return nil, err
	}
	return tr.finish()
}

// resolveInclude looks for name next to the including file first, then in
// each include path in order.
func (tr *Translator) resolveInclude(name, dir string) (string, bool) {
	if filepath.IsAbs(name) {
		_, err := os.Stat(name)
		return name, err == nil
	}
	candidates := append([]string{dir}, tr.IncludePaths...)
	for _, base := range candidates {
		path := filepath.Join(base, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (tr *Translator) includeFile(path string, loc diag.Location) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if tr.visiting[abs] {
		return diag.Errorf(loc, diag.Semantic, "circular include of `%s`", path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return diag.Errorf(loc, diag.Semantic, "could not read `%s`: %v", path, err)
	}
	stmts, err := Parse(string(src), path)
	if err != nil {
		return err
	}

	tr.visiting[abs] = true
	defer delete(tr.visiting, abs)
	return tr.layout(stmts, tr.globals, filepath.Dir(path))
}

func (tr *Translator) define(name string, loc diag.Location, v expr.Value) error {
	if prev, ok := tr.defined[name]; ok {
		return diag.Errorf(loc, diag.Semantic, "`%s` is already defined at %s", name, prev)
	}
	tr.defined[name] = loc
	tr.globals.Bind(name, v)
	return nil
}

func evalInt(e expr.Expr, scope expr.Scope) (int64, error) {
	v, err := expr.Eval(e, scope)
	if err != nil {
		return 0, err
	}
	if v.Type != expr.Int {
		return 0, diag.Errorf(e.Location(), diag.Semantic, "expected an integer but got a %s", v.Type)
	}
	return v.Int, nil
}

// layout is the first pass.
func (tr *Translator) layout(stmts []Stmt, scope expr.Scope, dir string) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *Label:
			addr := int64(len(tr.prog.Insts))
			if err := tr.define(s.Name, s.Loc, expr.IntValue(addr)); err != nil {
				return err
			}

		case *Instruction:
			addr := tr.prog.Emit(s.Op, 0)
			if s.Operand != nil {
				tr.operands = append(tr.operands, pending{addr: addr, inst: s, scope: scope})
			}

		case *Const:
			v, err := expr.Eval(s.Value, scope)
			if err != nil {
				return err
			}
			if err := tr.define(s.Name, s.Loc, v); err != nil {
				return err
			}

		case *Entry:
			if tr.entry != nil {
				return diag.Errorf(s.Loc, diag.Semantic, "entry point is already set at %s", tr.entry.Loc)
			}
			tr.entry = s

		case *Assert:
			tr.asserts = append(tr.asserts, deferredAssert{stmt: s, scope: scope})

		case *Include:
			path, ok := tr.resolveInclude(s.Path, dir)
			if !ok {
				return diag.Errorf(s.Loc, diag.Semantic, "could not find include `%s`", s.Path)
			}
			if err := tr.includeFile(path, s.Loc); err != nil {
				return err
			}

		case *If:
			cond, err := evalInt(s.Cond, scope)
			if err != nil {
				return err
			}
			if cond != 0 {
				if err := tr.layout(s.Body, scope, dir); err != nil {
					return err
				}
			}

		case *For:
			from, err := evalInt(s.From, scope)
			if err != nil {
				return err
			}
			to, err := evalInt(s.To, scope)
			if err != nil {
				return err
			}
			if to < from {
				continue
			}
			// The span is computed unsigned so extreme bounds cannot wrap.
			span := uint64(to) - uint64(from)
			if span >= MaxLoopIterations {
				return diag.Errorf(s.Loc, diag.Semantic, "%%for expands to more than %d iterations", MaxLoopIterations)
			}
			for k := uint64(0); k <= span; k++ {
				iter := expr.NewBindings(scope)
				iter.Bind(s.Var, expr.IntValue(from+int64(k)))
				if err := tr.layout(s.Body, iter, dir); err != nil {
					return err
				}
			}

		default:
			return fmt.Errorf("basm: unexpected statement %T", stmt)
		}
	}
	return nil
}

// finish is the second pass.
func (tr *Translator) finish() (*bm.Program, error) {
	for _, p := range tr.operands {
		operand, err := tr.operand(p)
		if err != nil {
			return nil, err
		}
		tr.prog.Insts[p.addr].Operand = operand
	}

	for _, a := range tr.asserts {
		cond, err := evalInt(a.stmt.Cond, a.scope)
		if err != nil {
			return nil, err
		}
		if cond == 0 {
			return nil, diag.Errorf(a.stmt.Loc, diag.Semantic, "assertion failed: %s", a.stmt.Cond)
		}
	}

	if tr.entry != nil {
		v, ok := tr.globals.Lookup(tr.entry.Label)
		if !ok || v.Type != expr.Int {
			return nil, diag.Errorf(tr.entry.Loc, diag.Semantic, "unknown entry label `%s`", tr.entry.Label)
		}
		tr.prog.Entry = uint64(v.Int)
	}

	return tr.prog, nil
}

func (tr *Translator) operand(p pending) (int64, error) {
	if p.inst.Op == bm.OpNative {
		if id, ok := p.inst.Operand.(*expr.Ident); ok {
			if _, bound := p.scope.Lookup(id.Name); !bound {
				native, ok := bm.NativeByName(id.Name)
				if !ok {
					return 0, diag.Errorf(id.Loc, diag.Semantic, "unknown native `%s`", id.Name)
				}
				return native, nil
			}
		}
	}

	v, err := expr.Eval(p.inst.Operand, p.scope)
	if err != nil {
		return 0, err
	}
	if v.Type == expr.Str {
		return tr.prog.Intern(v.Str), nil
	}
	word, _ := v.Word()
	return word, nil
}

// Translate is a convenience wrapper for a one-off translation.
func Translate(src, file string, includePaths ...string) (*bm.Program, error) {
	return NewTranslator(includePaths...).TranslateSource(src, file)
}
