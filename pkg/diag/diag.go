// Package diag defines located, fatal diagnostics shared by every stage of
// the toolchain.
//
// Nothing below the drivers terminates the process. Each stage returns an
// *Error and the driver hands it to Exit, which prints the single
// `<file>:<row>:<col>: ERROR: <message>` line and yields status 1.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Location is a position in a named source file. Row and Col start at 1.
type Location struct {
	File string
	Row  int
	Col  int
}

func (l Location) String() string {
	return l.File + ":" + strconv.Itoa(l.Row) + ":" + strconv.Itoa(l.Col)
}

// Kind classifies a diagnostic.
type Kind int

const (
	UnknownToken Kind = iota
	UnterminatedLiteral
	UnexpectedEOF
	KindMismatch
	KeywordMismatch
	UnexpectedToken
	Syntax
	Semantic
)

var kindNames = [...]string{
	UnknownToken:        "unknown token",
	UnterminatedLiteral: "unterminated literal",
	UnexpectedEOF:       "unexpected end of input",
	KindMismatch:        "token kind mismatch",
	KeywordMismatch:     "keyword mismatch",
	UnexpectedToken:     "unexpected token",
	Syntax:              "syntax error",
	Semantic:            "semantic error",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a fatal diagnostic.
type Error struct {
	Loc  Location
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Loc.String() + ": ERROR: " + e.Msg
}

func Errorf(loc Location, kind Kind, format string, args ...any) *Error {
	return &Error{Loc: loc, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// IsKind reports whether err carries a diagnostic of kind k.
func IsKind(err error, k Kind) bool {
	d, ok := As(err)
	return ok && d.Kind == k
}

// Exit reports err on w and returns the process exit status for it.
func Exit(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if d, ok := As(err); ok {
		fmt.Fprintln(w, d.Error())
	} else {
		fmt.Fprintf(w, "ERROR: %v\n", err)
	}
	return 1
}
