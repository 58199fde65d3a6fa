// Package sv implements a non-owning view over a source buffer.
//
// A View never copies: every sub-view shares the memory of the string it was
// created from and remembers its byte offset inside that string, so callers
// can compute positions without pointer arithmetic.
package sv

import (
	"fmt"
	"strings"
)

// View is a window over the remaining part of a source string.
type View struct {
	data   string
	offset int // byte index of data[0] in the owning string
}

// New returns a view over the whole of s.
func New(s string) View {
	return View{data: s}
}

func (v View) Len() int       { return len(v.data) }
func (v View) String() string { return v.data }

// Offset is the position of the view's first byte in the owning string.
func (v View) Offset() int { return v.offset }

// First returns the first byte. The view must not be empty.
func (v View) First() byte { return v.data[0] }

// At returns the i-th byte, or 0 when i is out of range.
func (v View) At(i int) byte {
	if i < 0 || i >= len(v.data) {
		return 0
	}
	return v.data[i]
}

func (v View) Eq(s string) bool { return v.data == s }

func (v View) StartsWith(prefix string) bool {
	return strings.HasPrefix(v.data, prefix)
}

// IndexOf reports the offset of the first c in the view.
func (v View) IndexOf(c byte) (int, bool) {
	i := strings.IndexByte(v.data, c)
	return i, i >= 0
}

// IsSpace matches the C isspace set.
func IsSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func (v *View) TrimLeft() {
	v.ChopLeftWhile(IsSpace)
}

// ChopLeft removes and returns the first n bytes. It panics if n exceeds the
// view length; classification code must never ask for more than is there.
func (v *View) ChopLeft(n int) View {
	if n < 0 || n > len(v.data) {
		panic(fmt.Sprintf("sv: chop of %d bytes from a view of %d", n, len(v.data)))
	}
	chopped := View{data: v.data[:n], offset: v.offset}
	v.data = v.data[n:]
	v.offset += n
	return chopped
}

// ChopLeftWhile removes and returns the longest prefix whose bytes all
// satisfy pred. The result may be empty.
func (v *View) ChopLeftWhile(pred func(byte) bool) View {
	n := 0
	for n < len(v.data) && pred(v.data[n]) {
		n++
	}
	return v.ChopLeft(n)
}

// ChopByDelim returns everything before the first delim and drops the
// delimiter itself. Without a delimiter the whole view is returned.
func (v *View) ChopByDelim(delim byte) View {
	i, ok := v.IndexOf(delim)
	if !ok {
		return v.ChopLeft(len(v.data))
	}
	line := v.ChopLeft(i)
	v.ChopLeft(1)
	return line
}
