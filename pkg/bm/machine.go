package bm

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const StackCapacity = 1024

var ErrLimit = errors.New("bm: instruction limit reached")

// Machine executes a Program.
type Machine struct {
	Stack  []int64
	Calls  []uint64
	Memory []byte
	Insts  []Inst
	IP     uint64

	Halted   bool
	ExitCode int

	// Output receives native write calls. If nil, os.Stdout is used.
	Output io.Writer
}

func NewMachine(p *Program) *Machine {
	m := &Machine{
		Stack:  make([]int64, 0, StackCapacity),
		Memory: append([]byte(nil), p.Memory...),
		Insts:  p.Insts,
		IP:     p.Entry,
	}
	return m
}

func (m *Machine) fault(format string, args ...any) error {
	return fmt.Errorf("bm: ip %d: %s", m.IP, fmt.Sprintf(format, args...))
}

func (m *Machine) pop() (int64, error) {
	if len(m.Stack) == 0 {
		return 0, m.fault("stack underflow")
	}
	v := m.Stack[len(m.Stack)-1]
	m.Stack = m.Stack[:len(m.Stack)-1]
	return v, nil
}

func (m *Machine) push(v int64) error {
	if len(m.Stack) >= StackCapacity {
		return m.fault("stack overflow")
	}
	m.Stack = append(m.Stack, v)
	return nil
}

func (m *Machine) pop2() (a, b int64, err error) {
	if b, err = m.pop(); err != nil {
		return
	}
	a, err = m.pop()
	return
}

func (m *Machine) output() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

// Step executes one instruction.
func (m *Machine) Step() error {
	if m.Halted {
		return nil
	}
	if m.IP >= uint64(len(m.Insts)) {
		return m.fault("instruction pointer outside of the program")
	}

	inst := m.Insts[m.IP]
	next := m.IP + 1

	switch inst.Op {
	case OpNop:

	case OpPush:
		if err := m.push(inst.Operand); err != nil {
			return err
		}

	case OpDrop:
		if _, err := m.pop(); err != nil {
			return err
		}

	case OpDup:
		i := len(m.Stack) - 1 - int(inst.Operand)
		if inst.Operand < 0 || i < 0 {
			return m.fault("dup %d on a stack of %d", inst.Operand, len(m.Stack))
		}
		if err := m.push(m.Stack[i]); err != nil {
			return err
		}

	case OpSwap:
		top := len(m.Stack) - 1
		i := top - int(inst.Operand)
		if inst.Operand < 0 || i < 0 {
			return m.fault("swap %d on a stack of %d", inst.Operand, len(m.Stack))
		}
		m.Stack[top], m.Stack[i] = m.Stack[i], m.Stack[top]

	case OpPlusI, OpMinusI, OpMultI, OpDivI, OpModI, OpEqI, OpGtI, OpLtI:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		r, err := m.arith(inst.Op, a, b)
		if err != nil {
			return err
		}
		m.push(r)

	case OpNot:
		a, err := m.pop()
		if err != nil {
			return err
		}
		m.push(boolWord(a == 0))

	case OpJmp:
		next = uint64(inst.Operand)

	case OpJmpIf:
		cond, err := m.pop()
		if err != nil {
			return err
		}
		if cond != 0 {
			next = uint64(inst.Operand)
		}

	case OpCall:
		m.Calls = append(m.Calls, next)
		next = uint64(inst.Operand)

	case OpRet:
		if len(m.Calls) == 0 {
			return m.fault("ret with an empty call stack")
		}
		next = m.Calls[len(m.Calls)-1]
		m.Calls = m.Calls[:len(m.Calls)-1]

	case OpNative:
		if err := m.native(inst.Operand); err != nil {
			return err
		}

	case OpHalt:
		m.Halted = true

	default:
		return m.fault("invalid opcode %d", uint8(inst.Op))
	}

	if !m.Halted {
		m.IP = next
	}
	return nil
}

func boolWord(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) arith(op Opcode, a, b int64) (int64, error) {
	switch op {
	case OpPlusI:
		return a + b, nil
	case OpMinusI:
		return a - b, nil
	case OpMultI:
		return a * b, nil
	case OpDivI, OpModI:
		if b == 0 {
			return 0, m.fault("division by zero")
		}
		if op == OpDivI {
			return a / b, nil
		}
		return a % b, nil
	case OpEqI:
		return boolWord(a == b), nil
	case OpGtI:
		return boolWord(a > b), nil
	default:
		return boolWord(a < b), nil
	}
}

func (m *Machine) native(id int64) error {
	switch id {
	case NativeWrite:
		addr, size, err := m.pop2()
		if err != nil {
			return err
		}
		if addr < 0 || size < 0 || addr > int64(len(m.Memory)) || size > int64(len(m.Memory))-addr {
			return m.fault("write of %d bytes at %d is outside of memory", size, addr)
		}
		_, err = m.output().Write(m.Memory[addr : addr+size])
		return err
	case NativeExit:
		code, err := m.pop()
		if err != nil {
			return err
		}
		m.ExitCode = int(code)
		m.Halted = true
		return nil
	}
	return m.fault("unknown native %d", id)
}

// Run steps until the machine halts. A positive limit bounds the number of
// executed instructions.
func (m *Machine) Run(limit int) error {
	for steps := 0; !m.Halted; steps++ {
		if limit > 0 && steps >= limit {
			return ErrLimit
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}
