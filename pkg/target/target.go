// Package target writes a translated bm.Program in one of the supported
// output formats.
package target

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"gobm/pkg/bm"
)

type Target int

const (
	BM Target = iota
	NasmLinuxX8664
	NasmFreeBSDX8664

	targetCount
)

var targetDefs = [targetCount]struct {
	name string
	ext  string
}{
	BM:               {"bm", ".bm"},
	NasmLinuxX8664:   {"nasm-linux-x86-64", ".asm"},
	NasmFreeBSDX8664: {"nasm-freebsd-x86-64", ".asm"},
}

func (t Target) valid() bool { return t >= 0 && t < targetCount }

func (t Target) String() string {
	if t.valid() {
		return targetDefs[t].name
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// Ext is the file extension of the target's output, including the dot.
func (t Target) Ext() string {
	if t.valid() {
		return targetDefs[t].ext
	}
	return ""
}

func ByName(name string) (Target, bool) {
	for t, def := range targetDefs {
		if def.name == name {
			return Target(t), true
		}
	}
	return 0, false
}

// Names lists every target name in declaration order.
func Names() []string {
	names := make([]string, 0, targetCount)
	for _, def := range targetDefs {
		names = append(names, def.name)
	}
	return names
}

// Suggest returns the target names closest to name, best match first.
func Suggest(name string) []string {
	ranks := fuzzy.RankFindNormalizedFold(name, Names())
	sort.Sort(ranks)
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}

// Write encodes p for t.
func (t Target) Write(w io.Writer, p *bm.Program) error {
	switch t {
	case BM:
		return bm.WriteModule(w, p)
	case NasmLinuxX8664:
		return writeNasm(w, p, linuxSyscalls)
	case NasmFreeBSDX8664:
		return writeNasm(w, p, freebsdSyscalls)
	}
	return fmt.Errorf("target: unknown target %s", t)
}

// Save writes p to path in t's format.
func (t Target) Save(p *bm.Program, path string) error {
	var buf bytes.Buffer
	if err := t.Write(&buf, p); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("target: could not write `%s`: %w", path, err)
	}
	return nil
}
