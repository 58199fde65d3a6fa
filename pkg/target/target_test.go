package target

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobm/pkg/bm"
)

func hello() *bm.Program {
	p := &bm.Program{}
	addr := p.Intern("Hi\n")
	p.Emit(bm.OpPush, addr)
	p.Emit(bm.OpPush, 3)
	p.Emit(bm.OpNative, bm.NativeWrite)
	p.Emit(bm.OpHalt, 0)
	return p
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		tg, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, tg.String())
	}
	_, ok := ByName("wasm")
	assert.False(t, ok)

	assert.Equal(t, []string{"bm", "nasm-linux-x86-64", "nasm-freebsd-x86-64"}, Names())
	assert.Equal(t, ".bm", BM.Ext())
	assert.Equal(t, ".asm", NasmLinuxX8664.Ext())
	assert.Equal(t, ".asm", NasmFreeBSDX8664.Ext())
	assert.Equal(t, "Target(7)", Target(7).String())
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{"nasm-linux-x86-64"}, Suggest("linux"))
	assert.ElementsMatch(t, []string{"nasm-linux-x86-64", "nasm-freebsd-x86-64"}, Suggest("nasm"))
	assert.Empty(t, Suggest("qqq"))
}

func TestSaveBM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello"+BM.Ext())
	require.NoError(t, BM.Save(hello(), path))

	got, err := bm.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, hello(), got)
}

func TestNasmSyscalls(t *testing.T) {
	tests := []struct {
		target Target
		write  string
		exit   string
	}{
		{NasmLinuxX8664, "%define SYS_WRITE 1", "%define SYS_EXIT 60"},
		{NasmFreeBSDX8664, "%define SYS_WRITE 4", "%define SYS_EXIT 1"},
	}
	for _, tc := range tests {
		t.Run(tc.target.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tc.target.Write(&buf, hello()))
			asm := buf.String()
			assert.Contains(t, asm, tc.write+"\n")
			assert.Contains(t, asm, tc.exit+"\n")
		})
	}
}

func TestNasmLayout(t *testing.T) {
	p := hello()
	p.Entry = 1
	var buf bytes.Buffer
	require.NoError(t, NasmLinuxX8664.Write(&buf, p))
	asm := buf.String()

	assert.True(t, strings.HasPrefix(asm, "BITS 64\n"))
	assert.Contains(t, asm, "global _start\n")
	assert.Contains(t, asm, "    jmp inst_1\n")
	for _, label := range []string{"inst_0:", "inst_1:", "inst_2:", "inst_3:", "inst_4:"} {
		assert.Contains(t, asm, "\n"+label)
	}
	assert.Contains(t, asm, "memory:\n    db 72,105,10\n")
	assert.Contains(t, asm, "stack: resq STACK_CELLS\n")
}

func TestNasmMemoryWraps(t *testing.T) {
	p := &bm.Program{}
	p.Intern(strings.Repeat("a", 20))
	p.Emit(bm.OpHalt, 0)

	var buf bytes.Buffer
	require.NoError(t, NasmLinuxX8664.Write(&buf, p))
	assert.Equal(t, 2, strings.Count(buf.String(), "    db "))
}

func TestNasmRejects(t *testing.T) {
	tests := []struct {
		name string
		prog *bm.Program
		want string
	}{
		{"empty", &bm.Program{}, "empty program"},
		{"entry", &bm.Program{Insts: []bm.Inst{{Op: bm.OpHalt}}, Entry: 5}, "entry point 5"},
		{"jump", &bm.Program{Insts: []bm.Inst{{Op: bm.OpJmp, Operand: 9}}}, "target 9"},
		{"native", &bm.Program{Insts: []bm.Inst{{Op: bm.OpNative, Operand: 42}}}, "unknown native 42"},
		{"dup depth", &bm.Program{Insts: []bm.Inst{{Op: bm.OpDup, Operand: math.MaxInt64}}}, "depth is outside of the stack"},
		{"swap depth", &bm.Program{Insts: []bm.Inst{{Op: bm.OpSwap, Operand: -1}}}, "depth is outside of the stack"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := NasmFreeBSDX8664.Write(&bytes.Buffer{}, tc.prog)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSaveReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.asm")
	err := NasmLinuxX8664.Save(hello(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out.asm")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
