package basm

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobm/pkg/bm"
	"gobm/pkg/diag"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, p *bm.Program) (*bm.Machine, string) {
	t.Helper()
	var out bytes.Buffer
	m := bm.NewMachine(p)
	m.Output = &out
	require.NoError(t, m.Run(10000))
	return m, out.String()
}

func TestParseStatements(t *testing.T) {
	src := `; header comment
start: loop:  push 1 + 2   ; trailing
    halt
%const N 10
%entry start
%include "lib.basm"
%assert N > 1
%if N == 10
    nop
%end
%for i from 0 to N - 1
    push i
%end
`
	stmts, err := Parse(src, "p.basm")
	require.NoError(t, err)
	require.Len(t, stmts, 10)

	assert.Equal(t, &Label{Loc: diag.Location{File: "p.basm", Row: 2, Col: 1}, Name: "start"}, stmts[0])
	assert.Equal(t, "loop", stmts[1].(*Label).Name)
	assert.Equal(t, 8, stmts[1].Location().Col)

	push := stmts[2].(*Instruction)
	assert.Equal(t, bm.OpPush, push.Op)
	assert.Equal(t, "(1 + 2)", push.Operand.String())
	assert.Equal(t, 15, push.Loc.Col)

	halt := stmts[3].(*Instruction)
	assert.Equal(t, bm.OpHalt, halt.Op)
	assert.Nil(t, halt.Operand)

	assert.Equal(t, "N", stmts[4].(*Const).Name)
	assert.Equal(t, "start", stmts[5].(*Entry).Label)
	assert.Equal(t, "lib.basm", stmts[6].(*Include).Path)
	assert.Equal(t, "(N > 1)", stmts[7].(*Assert).Cond.String())

	ifStmt := stmts[8].(*If)
	require.Len(t, ifStmt.Body, 1)
	assert.Equal(t, bm.OpNop, ifStmt.Body[0].(*Instruction).Op)

	forStmt := stmts[9].(*For)
	assert.Equal(t, "i", forStmt.Var)
	assert.Equal(t, "0", forStmt.From.String())
	assert.Equal(t, "(N - 1)", forStmt.To.String())
	require.Len(t, forStmt.Body, 1)
}

func TestCommentInsideLiteral(t *testing.T) {
	stmts, err := Parse(`push "a;b" ; real comment`, "c.basm")
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, `"a;b"`, stmts[0].(*Instruction).Operand.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
		msg  string
	}{
		{"unknown instruction with hint", "pus 1", diag.Semantic, "p.basm:1:1: ERROR: unknown instruction `pus`, did you mean `push`?"},
		{"unknown instruction", "zzz", diag.Semantic, "p.basm:1:1: ERROR: unknown instruction `zzz`"},
		{"missing operand", "push", diag.UnexpectedEOF, ""},
		{"extra operand", "halt 1", diag.UnexpectedToken, "p.basm:1:6: ERROR: unexpected token `1`"},
		{"unknown token in operand", "push 1 $", diag.UnknownToken, "p.basm:1:6: ERROR: unknown token starts with `$`"},
		{"unterminated string", "  push \"abc", diag.UnterminatedLiteral, ""},
		{"unknown directive", "%macro x", diag.Syntax, "p.basm:1:1: ERROR: unknown directive `%macro`"},
		{"include needs string", "%include lib", diag.KindMismatch, ""},
		{"for needs from", "%for i to 3\n%end", diag.KindMismatch, ""},
		{"stray end", "%end", diag.Syntax, ""},
		{"unclosed block", "%if 1\nnop", diag.Syntax, "p.basm:1:1: ERROR: block is never closed with %end"},
		{"not a statement", "+ 1", diag.Syntax, ""},
		{"bad number", "push 12abc", diag.Syntax, "p.basm:1:6: ERROR: `12abc` is not a number"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src, "p.basm")
			require.Error(t, err)
			assert.True(t, diag.IsKind(err, tc.kind), "got %v", err)
			if tc.msg != "" {
				assert.EqualError(t, err, tc.msg)
			}
		})
	}
}

func TestTranslateHello(t *testing.T) {
	src := `%const MSG "Hello, World"
%entry main

main:
    push MSG
    push len(MSG)
    native write
    halt
`
	p, err := Translate(src, "hello.basm")
	require.NoError(t, err)
	require.NoError(t, bm.Verify(p))

	assert.Equal(t, "Hello, World", string(p.Memory))
	assert.Equal(t, []bm.Inst{
		{Op: bm.OpPush, Operand: 0},
		{Op: bm.OpPush, Operand: 12},
		{Op: bm.OpNative, Operand: bm.NativeWrite},
		{Op: bm.OpHalt},
	}, p.Insts)

	_, out := run(t, p)
	assert.Equal(t, "Hello, World", out)
}

func TestTranslateForwardLabels(t *testing.T) {
	src := `%entry main
    jmp main
fn:
    push 2
    multi
    ret
main:
    push 21
    call fn
    halt
%assert main == 4
`
	p, err := Translate(src, "labels.basm")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), p.Entry)
	assert.Equal(t, int64(4), p.Insts[0].Operand)
	assert.Equal(t, int64(1), p.Insts[5].Operand)

	m, _ := run(t, p)
	assert.Equal(t, []int64{42}, m.Stack)
}

func TestTranslateForAndIf(t *testing.T) {
	src := `%const DEBUG 0
%for i from 1 to 3
    push i * 10
%end
%if DEBUG
    push 999
%end
%if DEBUG == 0
    push -1
%end
%for i from 5 to 4
    push 123
%end
    halt
`
	p, err := Translate(src, "loops.basm")
	require.NoError(t, err)
	m, _ := run(t, p)
	assert.Equal(t, []int64{10, 20, 30, -1}, m.Stack)
}

func TestTranslateCountdownLoop(t *testing.T) {
	src := `%const N 5
    push N
loop:
    dup 0
    not
    jmp_if done
    push 1
    minusi
    jmp loop
done:
    halt
`
	p, err := Translate(src, "count.basm")
	require.NoError(t, err)
	require.NoError(t, bm.Verify(p))
	m, _ := run(t, p)
	assert.Equal(t, []int64{0}, m.Stack)
}

func TestTranslateFloatsAndChars(t *testing.T) {
	p, err := Translate("push 'A'\npush 1.5\nhalt", "f.basm")
	require.NoError(t, err)
	assert.Equal(t, int64(65), p.Insts[0].Operand)
	assert.Equal(t, int64(0x3FF8000000000000), p.Insts[1].Operand)
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"duplicate label", "a:\na:", "t.basm:2:1: ERROR: `a` is already defined at t.basm:1:1"},
		{"label clashes with const", "%const a 1\na:", "`a` is already defined"},
		{"unknown name", "push nowhere", "t.basm:1:6: ERROR: unknown name `nowhere`"},
		{"unknown native", "native read", "unknown native `read`"},
		{"failed assert", "%assert 1 == 2", "t.basm:1:1: ERROR: assertion failed: (1 == 2)"},
		{"unknown entry", "%entry nope", "unknown entry label `nope`"},
		{"two entries", "a:\n%entry a\n%entry a", "entry point is already set"},
		{"missing include", "%include \"nope.basm\"", "could not find include `nope.basm`"},
		{"non-integer if", "%if \"x\"\n%end", "expected an integer but got a string"},
		{"division by zero", "push 1 / 0", "division by zero"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Translate(tc.src, "t.basm")
			require.Error(t, err)
			_, ok := diag.As(err)
			assert.True(t, ok, "expected a located diagnostic, got %v", err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestIncludeResolution(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/local.basm", "%const LOCAL 1\n")
	writeFile(t, dir, "inc/std.basm", "%const STD 2\n%include \"nested.basm\"\n")
	writeFile(t, dir, "inc/nested.basm", "%const NESTED 3\n")
	// Shadowed by the copy next to the including file.
	writeFile(t, dir, "inc/local.basm", "%const LOCAL 100\n")
	root := writeFile(t, dir, "src/main.basm", `%include "local.basm"
%include "std.basm"
    push LOCAL + STD + NESTED
    halt
`)

	p, err := NewTranslator(filepath.Join(dir, "inc")).TranslateFile(root)
	require.NoError(t, err)
	m, _ := run(t, p)
	assert.Equal(t, []int64{6}, m.Stack)
}

func TestIncludeErrorsCarryIncludedFileLocation(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.basm", "nop\n  pusj 1\n")
	root := writeFile(t, dir, "main.basm", "%include \"bad.basm\"\n")

	_, err := NewTranslator().TranslateFile(root)
	require.Error(t, err)
	d, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.Location{File: bad, Row: 2, Col: 3}, d.Loc)
}

func TestCircularInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.basm", "%include \"b.basm\"\n")
	writeFile(t, dir, "b.basm", "%include \"a.basm\"\n")

	_, err := NewTranslator().TranslateFile(filepath.Join(dir, "a.basm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular include")
}

func TestDiamondIncludeDefinesTwice(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common.basm", "%const C 1\n")
	writeFile(t, dir, "x.basm", "%include \"common.basm\"\n")
	root := writeFile(t, dir, "main.basm", "%include \"x.basm\"\n%include \"common.basm\"\n")

	_, err := NewTranslator().TranslateFile(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "`C` is already defined")
}

func TestTranslateMissingRootFile(t *testing.T) {
	_, err := NewTranslator().TranslateFile(filepath.Join(t.TempDir(), "missing.basm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not read")
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, "jmp_if", suggest("jmpif", bm.Mnemonics()))
	assert.Equal(t, "", suggest("qqq", bm.Mnemonics()))
}

func TestForAtIntegerLimits(t *testing.T) {
	p, err := Translate("%for i from 9223372036854775806 to 9223372036854775807\n    push i\n%end\nhalt", "f.basm")
	require.NoError(t, err)
	require.Len(t, p.Insts, 3)
	assert.Equal(t, int64(math.MaxInt64-1), p.Insts[0].Operand)
	assert.Equal(t, int64(math.MaxInt64), p.Insts[1].Operand)

	p, err = Translate("%for i from -9223372036854775807 - 1 to -9223372036854775807 - 1\n    push i\n%end", "f.basm")
	require.NoError(t, err)
	require.Len(t, p.Insts, 1)
	assert.Equal(t, int64(math.MinInt64), p.Insts[0].Operand)

	_, err = Translate("%for i from -9223372036854775807 - 1 to 9223372036854775807\n%end", "f.basm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than 65536 iterations")
}
