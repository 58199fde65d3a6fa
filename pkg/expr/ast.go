// Package expr parses and evaluates the constant expressions that appear as
// assembler operands and directive arguments.
package expr

import (
	"fmt"
	"strings"

	"gobm/pkg/diag"
	"gobm/pkg/tokenizer"
)

// Expr is a node of an operand expression.
type Expr interface {
	Location() diag.Location
	String() string
}

type IntLit struct {
	Loc   diag.Location
	Value int64
}

type FloatLit struct {
	Loc   diag.Location
	Value float64
}

type StrLit struct {
	Loc   diag.Location
	Value string
}

type Ident struct {
	Loc  diag.Location
	Name string
}

type Call struct {
	Loc  diag.Location
	Name string
	Args []Expr
}

type Binary struct {
	Loc   diag.Location
	Op    tokenizer.Kind
	Left  Expr
	Right Expr
}

type Neg struct {
	Loc     diag.Location
	Operand Expr
}

func (e *IntLit) Location() diag.Location   { return e.Loc }
func (e *FloatLit) Location() diag.Location { return e.Loc }
func (e *StrLit) Location() diag.Location   { return e.Loc }
func (e *Ident) Location() diag.Location    { return e.Loc }
func (e *Call) Location() diag.Location     { return e.Loc }
func (e *Binary) Location() diag.Location   { return e.Loc }
func (e *Neg) Location() diag.Location      { return e.Loc }

func (e *IntLit) String() string   { return fmt.Sprintf("%d", e.Value) }
func (e *FloatLit) String() string { return fmt.Sprintf("%g", e.Value) }
func (e *StrLit) String() string   { return `"` + e.Value + `"` }
func (e *Ident) String() string    { return e.Name }
func (e *Neg) String() string      { return "(-" + e.Operand.String() + ")" }

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

func (e *Binary) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}
