package diag

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	err := Errorf(Location{File: "main.basm", Row: 3, Col: 7}, UnknownToken, "unknown token starts with `%c`", '@')
	assert.Equal(t, "main.basm:3:7: ERROR: unknown token starts with `@`", err.Error())
}

func TestAsThroughWrapping(t *testing.T) {
	inner := Errorf(Location{File: "a", Row: 1, Col: 1}, KindMismatch, "boom")
	wrapped := fmt.Errorf("translating: %w", inner)

	d, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, d)
	assert.True(t, IsKind(wrapped, KindMismatch))
	assert.False(t, IsKind(wrapped, Syntax))
	assert.False(t, IsKind(errors.New("plain"), KindMismatch))
}

func TestExit(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		out    string
	}{
		{"nil", nil, 0, ""},
		{
			"diagnostic",
			fmt.Errorf("wrapped: %w", Errorf(Location{File: "x.bang", Row: 2, Col: 3}, UnexpectedEOF, "expected token `;` but reached end of input")),
			1,
			"x.bang:2:3: ERROR: expected token `;` but reached end of input\n",
		},
		{"plain", errors.New("could not open file"), 1, "ERROR: could not open file\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tc.status, Exit(&buf, tc.err))
			assert.Equal(t, tc.out, buf.String())
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "keyword mismatch", KeywordMismatch.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
