package target

import (
	"bufio"
	"fmt"
	"io"

	"gobm/pkg/bm"
)

type syscalls struct {
	write int
	exit  int
}

var (
	linuxSyscalls   = syscalls{write: 1, exit: 60}
	freebsdSyscalls = syscalls{write: 4, exit: 1}
)

// The data stack lives in .bss and r15 points at its next free slot.
// call and ret use the native stack, so return addresses never mix with
// data.
const nasmStackCells = bm.StackCapacity

func checkTarget(addr int, inst bm.Inst, n int) error {
	if inst.Operand < 0 || inst.Operand >= int64(n) {
		return fmt.Errorf("target: instruction %d (%s): target %d is outside of the program", addr, inst, inst.Operand)
	}
	return nil
}

// checkDepth bounds dup and swap so the stack displacement stays inside the
// data stack.
func checkDepth(addr int, inst bm.Inst) error {
	if inst.Operand < 0 || inst.Operand >= nasmStackCells {
		return fmt.Errorf("target: instruction %d (%s): depth is outside of the stack", addr, inst)
	}
	return nil
}

func writeNasm(w io.Writer, p *bm.Program, sys syscalls) error {
	n := len(p.Insts)
	if n == 0 {
		return fmt.Errorf("target: empty program")
	}
	if p.Entry >= uint64(n) {
		return fmt.Errorf("target: entry point %d is outside of the program", p.Entry)
	}

	out := bufio.NewWriter(w)
	emit := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	emit("BITS 64")
	emit("%%define SYS_WRITE %d", sys.write)
	emit("%%define SYS_EXIT %d", sys.exit)
	emit("%%define STDOUT 1")
	emit("%%define STACK_CELLS %d", nasmStackCells)
	emit("segment .text")
	emit("global _start")
	emit("_start:")
	emit("    mov r15, stack")
	emit("    jmp inst_%d", p.Entry)

	for addr, inst := range p.Insts {
		emit("inst_%d: ; %s", addr, inst)
		if err := emitInst(emit, addr, inst, n); err != nil {
			return err
		}
	}
	// Running off the end exits with status 0, like halt.
	emit("inst_%d:", n)
	emitExit(emit, "0")

	emit("segment .data")
	emit("memory:")
	const perLine = 16
	for i := 0; i < len(p.Memory); i += perLine {
		end := min(i+perLine, len(p.Memory))
		line := "    db "
		for j, b := range p.Memory[i:end] {
			if j > 0 {
				line += ","
			}
			line += fmt.Sprintf("%d", b)
		}
		emit("%s", line)
	}

	emit("segment .bss")
	emit("stack: resq STACK_CELLS")

	return out.Flush()
}

func emitExit(emit func(string, ...any), status string) {
	emit("    mov rax, SYS_EXIT")
	emit("    mov rdi, %s", status)
	emit("    syscall")
}

// emitBinary pops b and a, leaving the result of a op b in rax on the
// stack slot a used to occupy.
func emitBinary(emit func(string, ...any), body ...string) {
	emit("    sub r15, 8")
	emit("    mov rbx, [r15]")
	emit("    mov rax, [r15 - 8]")
	for _, line := range body {
		emit("    %s", line)
	}
	emit("    mov [r15 - 8], rax")
}

func emitCompare(emit func(string, ...any), set string) {
	emitBinary(emit,
		"xor rcx, rcx",
		"cmp rax, rbx",
		set+" cl",
		"mov rax, rcx",
	)
}

func emitInst(emit func(string, ...any), addr int, inst bm.Inst, n int) error {
	switch inst.Op {
	case bm.OpNop:
		emit("    nop")

	case bm.OpPush:
		emit("    mov rax, %d", inst.Operand)
		emit("    mov [r15], rax")
		emit("    add r15, 8")

	case bm.OpDrop:
		emit("    sub r15, 8")

	case bm.OpDup:
		if err := checkDepth(addr, inst); err != nil {
			return err
		}
		emit("    mov rax, [r15 - %d]", 8*(inst.Operand+1))
		emit("    mov [r15], rax")
		emit("    add r15, 8")

	case bm.OpSwap:
		if err := checkDepth(addr, inst); err != nil {
			return err
		}
		emit("    mov rax, [r15 - 8]")
		emit("    mov rbx, [r15 - %d]", 8*(inst.Operand+1))
		emit("    mov [r15 - 8], rbx")
		emit("    mov [r15 - %d], rax", 8*(inst.Operand+1))

	case bm.OpPlusI:
		emitBinary(emit, "add rax, rbx")
	case bm.OpMinusI:
		emitBinary(emit, "sub rax, rbx")
	case bm.OpMultI:
		emitBinary(emit, "imul rax, rbx")
	case bm.OpDivI:
		emitBinary(emit, "cqo", "idiv rbx")
	case bm.OpModI:
		emitBinary(emit, "cqo", "idiv rbx", "mov rax, rdx")
	case bm.OpEqI:
		emitCompare(emit, "sete")
	case bm.OpGtI:
		emitCompare(emit, "setg")
	case bm.OpLtI:
		emitCompare(emit, "setl")

	case bm.OpNot:
		emit("    mov rax, [r15 - 8]")
		emit("    xor rcx, rcx")
		emit("    test rax, rax")
		emit("    sete cl")
		emit("    mov [r15 - 8], rcx")

	case bm.OpJmp:
		if err := checkTarget(addr, inst, n); err != nil {
			return err
		}
		emit("    jmp inst_%d", inst.Operand)

	case bm.OpJmpIf:
		if err := checkTarget(addr, inst, n); err != nil {
			return err
		}
		emit("    sub r15, 8")
		emit("    mov rax, [r15]")
		emit("    test rax, rax")
		emit("    jnz inst_%d", inst.Operand)

	case bm.OpCall:
		if err := checkTarget(addr, inst, n); err != nil {
			return err
		}
		emit("    call inst_%d", inst.Operand)

	case bm.OpRet:
		emit("    ret")

	case bm.OpNative:
		switch inst.Operand {
		case bm.NativeWrite:
			emit("    sub r15, 16")
			emit("    mov rsi, [r15]")
			emit("    add rsi, memory")
			emit("    mov rdx, [r15 + 8]")
			emit("    mov rax, SYS_WRITE")
			emit("    mov rdi, STDOUT")
			emit("    syscall")
		case bm.NativeExit:
			emit("    sub r15, 8")
			emitExit(emit, "[r15]")
		default:
			return fmt.Errorf("target: instruction %d: unknown native %d", addr, inst.Operand)
		}

	case bm.OpHalt:
		emitExit(emit, "0")

	default:
		return fmt.Errorf("target: instruction %d: invalid opcode %d", addr, uint8(inst.Op))
	}
	return nil
}
