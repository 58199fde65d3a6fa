// Package basm translates assembler source into bm bytecode.
//
// Source is line oriented. A line holds an optional label, then either an
// instruction with an optional operand expression or a %directive. A ';'
// outside of a literal starts a comment.
package basm

import (
	"gobm/pkg/bm"
	"gobm/pkg/diag"
	"gobm/pkg/expr"
)

// Stmt is one parsed source statement.
type Stmt interface {
	Location() diag.Location
}

type Label struct {
	Loc  diag.Location
	Name string
}

type Instruction struct {
	Loc     diag.Location
	Op      bm.Opcode
	Operand expr.Expr // nil for instructions without an operand
}

type Const struct {
	Loc   diag.Location
	Name  string
	Value expr.Expr
}

type Entry struct {
	Loc   diag.Location
	Label string
}

type Assert struct {
	Loc  diag.Location
	Cond expr.Expr
}

type Include struct {
	Loc  diag.Location
	Path string
}

type If struct {
	Loc  diag.Location
	Cond expr.Expr
	Body []Stmt
}

// For repeats Body with Var bound to every integer from From to To
// inclusive.
type For struct {
	Loc  diag.Location
	Var  string
	From expr.Expr
	To   expr.Expr
	Body []Stmt
}

func (s *Label) Location() diag.Location       { return s.Loc }
func (s *Instruction) Location() diag.Location { return s.Loc }
func (s *Const) Location() diag.Location       { return s.Loc }
func (s *Entry) Location() diag.Location       { return s.Loc }
func (s *Assert) Location() diag.Location      { return s.Loc }
func (s *Include) Location() diag.Location     { return s.Loc }
func (s *If) Location() diag.Location          { return s.Loc }
func (s *For) Location() diag.Location         { return s.Loc }
