// Package bang parses and compiles the bang language, a small block
// structured language built on the structured lexer:
//
//	# comment
//	proc main() {
//	    write("Hello, World");
//	}
package bang

import "gobm/pkg/diag"

// Module is one parsed source file.
type Module struct {
	File  string
	Procs []*Proc
}

type Proc struct {
	Loc  diag.Location
	Name string
	Body []*Call
}

// Call is a procedure call statement. Arguments can only be string
// literals.
type Call struct {
	Loc  diag.Location
	Name string
	Args []*StrLit
}

// StrLit holds the literal text between the quotes, verbatim.
type StrLit struct {
	Loc   diag.Location
	Value string
}
