// Package bm defines the stack-machine bytecode produced by the toolchain:
// its instruction set, the on-disk module format, a static verifier and a
// reference machine.
package bm

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Opcode identifies an instruction.
type Opcode uint8

const (
	OpNop Opcode = iota
	OpPush
	OpDrop
	OpDup  // dup n: push a copy of the element n below the top
	OpSwap // swap n: exchange the top with the element n below it
	OpPlusI
	OpMinusI
	OpMultI
	OpDivI
	OpModI
	OpEqI
	OpGtI
	OpLtI
	OpNot
	OpJmp
	OpJmpIf
	OpCall
	OpRet
	OpNative
	OpHalt

	opCount
)

// InstDef describes the shape of an instruction.
type InstDef struct {
	Name       string
	HasOperand bool
	Pops       int
	Pushes     int
}

var instDefs = [opCount]InstDef{
	OpNop:    {"nop", false, 0, 0},
	OpPush:   {"push", true, 0, 1},
	OpDrop:   {"drop", false, 1, 0},
	OpDup:    {"dup", true, 0, 1},
	OpSwap:   {"swap", true, 0, 0},
	OpPlusI:  {"plusi", false, 2, 1},
	OpMinusI: {"minusi", false, 2, 1},
	OpMultI:  {"multi", false, 2, 1},
	OpDivI:   {"divi", false, 2, 1},
	OpModI:   {"modi", false, 2, 1},
	OpEqI:    {"eqi", false, 2, 1},
	OpGtI:    {"gti", false, 2, 1},
	OpLtI:    {"lti", false, 2, 1},
	OpNot:    {"not", false, 1, 1},
	OpJmp:    {"jmp", true, 0, 0},
	OpJmpIf:  {"jmp_if", true, 1, 0},
	OpCall:   {"call", true, 0, 0},
	OpRet:    {"ret", false, 0, 0},
	OpNative: {"native", true, 0, 0},
	OpHalt:   {"halt", false, 0, 0},
}

var opByName = func() map[string]Opcode {
	m := make(map[string]Opcode, opCount)
	for op, def := range instDefs {
		m[def.Name] = Opcode(op)
	}
	return m
}()

func (op Opcode) Valid() bool { return op < opCount }

// Def returns the definition of a valid opcode.
func (op Opcode) Def() InstDef { return instDefs[op] }

func (op Opcode) String() string {
	if op.Valid() {
		return instDefs[op].Name
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// OpcodeByName looks up an instruction by its mnemonic, case-insensitively.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opByName[strings.ToLower(name)]
	return op, ok
}

// Mnemonics lists every instruction name in opcode order.
func Mnemonics() []string {
	names := make([]string, 0, opCount)
	for _, def := range instDefs {
		names = append(names, def.Name)
	}
	return names
}

// Native functions reachable through the native instruction.
const (
	NativeWrite int64 = iota // pops length and address, writes memory to output
	NativeExit               // pops the exit status and halts
)

type NativeDef struct {
	Name string
	Pops int
}

var Natives = []NativeDef{
	NativeWrite: {"write", 2},
	NativeExit:  {"exit", 1},
}

func NativeByName(name string) (int64, bool) {
	for id, n := range Natives {
		if n.Name == name {
			return int64(id), true
		}
	}
	return 0, false
}

// Inst is a decoded instruction.
type Inst struct {
	Op      Opcode
	Operand int64
}

func (i Inst) String() string {
	if i.Op.Valid() && i.Op.Def().HasOperand {
		return fmt.Sprintf("%s %d", i.Op, i.Operand)
	}
	return i.Op.String()
}

// Program is a translated module: code, initial memory and entry point.
type Program struct {
	Insts  []Inst
	Memory []byte
	Entry  uint64
}

// Intern appends s to the program memory and returns its address. Equal
// strings share storage.
func (p *Program) Intern(s string) int64 {
	if i := strings.Index(string(p.Memory), s); i >= 0 && s != "" {
		return int64(i)
	}
	addr := len(p.Memory)
	p.Memory = append(p.Memory, s...)
	return int64(addr)
}

func (p *Program) Emit(op Opcode, operand int64) int {
	p.Insts = append(p.Insts, Inst{Op: op, Operand: operand})
	return len(p.Insts) - 1
}

var dumpConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}

// Dump renders p for debugging.
func (p *Program) Dump() string {
	return dumpConfig.Sdump(p)
}
