package bm

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	Magic   = "bm"
	Version = 1

	// Hard limits keep a corrupted header from triggering huge allocations.
	MaxInsts  = 1 << 20
	MaxMemory = 1 << 24
)

var ErrBadMagic = errors.New("bm: not a bytecode module")

type header struct {
	Magic     [2]byte
	Version   uint16
	Entry     uint64
	InstCount uint64
	MemSize   uint64
}

// WriteModule serializes p in little-endian order.
func WriteModule(w io.Writer, p *Program) error {
	bw := bufio.NewWriter(w)
	h := header{
		Version:   Version,
		Entry:     p.Entry,
		InstCount: uint64(len(p.Insts)),
		MemSize:   uint64(len(p.Memory)),
	}
	copy(h.Magic[:], Magic)
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return err
	}
	for _, inst := range p.Insts {
		if err := bw.WriteByte(byte(inst.Op)); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, inst.Operand); err != nil {
			return err
		}
	}
	if _, err := bw.Write(p.Memory); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadModule parses a module written by WriteModule.
func ReadModule(r io.Reader) (*Program, error) {
	br := bufio.NewReader(r)
	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("bm: reading header: %w", err)
	}
	if string(h.Magic[:]) != Magic {
		return nil, ErrBadMagic
	}
	if h.Version != Version {
		return nil, fmt.Errorf("bm: unsupported module version %d", h.Version)
	}
	if h.InstCount > MaxInsts || h.MemSize > MaxMemory {
		return nil, fmt.Errorf("bm: module too large (%d instructions, %d bytes of memory)", h.InstCount, h.MemSize)
	}

	p := &Program{
		Entry:  h.Entry,
		Insts:  make([]Inst, h.InstCount),
		Memory: make([]byte, h.MemSize),
	}
	for i := range p.Insts {
		op, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("bm: reading instruction %d: %w", i, err)
		}
		if !Opcode(op).Valid() {
			return nil, fmt.Errorf("bm: invalid opcode %d at instruction %d", op, i)
		}
		p.Insts[i].Op = Opcode(op)
		if err := binary.Read(br, binary.LittleEndian, &p.Insts[i].Operand); err != nil {
			return nil, fmt.Errorf("bm: reading instruction %d: %w", i, err)
		}
	}
	if _, err := io.ReadFull(br, p.Memory); err != nil {
		return nil, fmt.Errorf("bm: reading memory: %w", err)
	}
	return p, nil
}

func SaveFile(path string, p *Program) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteModule(f, p); err != nil {
		f.Close()
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return f.Close()
}

func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadModule(f)
}
