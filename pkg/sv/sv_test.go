package sv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func TestTrimLeft(t *testing.T) {
	v := New(" \t\r\n\v\fabc ")
	v.TrimLeft()
	assert.Equal(t, "abc ", v.String())
	assert.Equal(t, 6, v.Offset())
}

func TestChopLeft(t *testing.T) {
	v := New("hello world")
	head := v.ChopLeft(5)
	assert.Equal(t, "hello", head.String())
	assert.Equal(t, 0, head.Offset())
	assert.Equal(t, " world", v.String())
	assert.Equal(t, 5, v.Offset())

	empty := v.ChopLeft(0)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 5, empty.Offset())

	assert.Panics(t, func() { v.ChopLeft(v.Len() + 1) })
}

func TestChopLeftWhile(t *testing.T) {
	v := New("123abc")
	digits := v.ChopLeftWhile(isDigit)
	assert.Equal(t, "123", digits.String())
	assert.Equal(t, "abc", v.String())

	none := v.ChopLeftWhile(isDigit)
	assert.Equal(t, 0, none.Len())
	assert.Equal(t, "abc", v.String())
}

func TestChopByDelim(t *testing.T) {
	v := New("foo\nbar\n")
	assert.Equal(t, "foo", v.ChopByDelim('\n').String())
	line := v.ChopByDelim('\n')
	assert.Equal(t, "bar", line.String())
	assert.Equal(t, 4, line.Offset())
	assert.Equal(t, 0, v.Len())

	v = New("tail")
	assert.Equal(t, "tail", v.ChopByDelim('\n').String())
	assert.Equal(t, 0, v.Len())
}

func TestQueries(t *testing.T) {
	v := New("abc\"def")
	assert.True(t, v.StartsWith("ab"))
	assert.False(t, v.StartsWith("abd"))
	assert.True(t, v.Eq("abc\"def"))
	assert.Equal(t, byte('a'), v.First())
	assert.Equal(t, byte('c'), v.At(2))
	assert.Equal(t, byte(0), v.At(100))

	i, ok := v.IndexOf('"')
	require.True(t, ok)
	assert.Equal(t, 3, i)
	_, ok = v.IndexOf('x')
	assert.False(t, ok)
}

func TestSubViewsShareOwner(t *testing.T) {
	src := "  name rest"
	v := New(src)
	v.TrimLeft()
	name := v.ChopLeft(4)
	assert.Equal(t, src[name.Offset():name.Offset()+name.Len()], name.String())
}
