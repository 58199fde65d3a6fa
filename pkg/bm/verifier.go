package bm

import "fmt"

// VerifyError points at the first offending instruction.
type VerifyError struct {
	Addr int
	Msg  string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verifier: instruction %d: %s", e.Addr, e.Msg)
}

func verifyErr(addr int, format string, args ...any) error {
	return &VerifyError{Addr: addr, Msg: fmt.Sprintf(format, args...)}
}

// Verify checks p statically: operands must reference existing instructions
// and natives, and no path reachable from the entry may pop an empty stack
// or reach the same instruction with two different stack depths.
//
// A call is treated as stack neutral and its target is not followed, since a
// procedure's stack effect is not declared anywhere.
func Verify(p *Program) error {
	n := len(p.Insts)
	if n == 0 {
		return nil
	}
	if p.Entry >= uint64(n) {
		return verifyErr(int(p.Entry), "entry point is outside of the program (%d instructions)", n)
	}

	for addr, inst := range p.Insts {
		if !inst.Op.Valid() {
			return verifyErr(addr, "invalid opcode %d", inst.Op)
		}
		switch inst.Op {
		case OpJmp, OpJmpIf, OpCall:
			if inst.Operand < 0 || inst.Operand >= int64(n) {
				return verifyErr(addr, "%s target %d is outside of the program", inst.Op, inst.Operand)
			}
		case OpNative:
			if inst.Operand < 0 || inst.Operand >= int64(len(Natives)) {
				return verifyErr(addr, "unknown native %d", inst.Operand)
			}
		case OpDup, OpSwap:
			if inst.Operand < 0 || inst.Operand >= StackCapacity {
				return verifyErr(addr, "%s depth %d is outside of the stack", inst.Op, inst.Operand)
			}
		}
	}

	depths := make([]int, n)
	for i := range depths {
		depths[i] = -1
	}

	type state struct{ addr, depth int }
	work := []state{{int(p.Entry), 0}}

	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]

		for s.addr < n {
			if seen := depths[s.addr]; seen >= 0 {
				if seen != s.depth {
					return verifyErr(s.addr, "stack depth %d conflicts with %d on another path", s.depth, seen)
				}
				break
			}
			depths[s.addr] = s.depth

			inst := p.Insts[s.addr]
			pops, pushes := inst.Op.Def().Pops, inst.Op.Def().Pushes
			switch inst.Op {
			case OpDup:
				pops, pushes = int(inst.Operand)+1, int(inst.Operand)+2
			case OpSwap:
				pops, pushes = int(inst.Operand)+1, int(inst.Operand)+1
			case OpNative:
				pops = Natives[inst.Operand].Pops
			}
			if s.depth < pops {
				return verifyErr(s.addr, "%s needs %d stack elements but only %d are available", inst, pops, s.depth)
			}
			s.depth += pushes - pops

			switch inst.Op {
			case OpHalt, OpRet:
				s.addr = n
				continue
			case OpNative:
				if inst.Operand == NativeExit {
					s.addr = n
					continue
				}
			case OpJmp:
				s.addr = int(inst.Operand)
				continue
			case OpJmpIf:
				work = append(work, state{int(inst.Operand), s.depth})
			}
			s.addr++
		}
	}
	return nil
}
