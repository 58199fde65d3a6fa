package expr

import (
	"fmt"
	"math"

	"gobm/pkg/diag"
	"gobm/pkg/tokenizer"
)

// Type is the dynamic type of a Value.
type Type int

const (
	Int Type = iota
	Float
	Str
)

var typeNames = [...]string{Int: "integer", Float: "float", Str: "string"}

func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Value is the result of evaluating an expression.
type Value struct {
	Type  Type
	Int   int64
	Float float64
	Str   string
}

func IntValue(n int64) Value     { return Value{Type: Int, Int: n} }
func FloatValue(f float64) Value { return Value{Type: Float, Float: f} }
func StrValue(s string) Value    { return Value{Type: Str, Str: s} }

func (v Value) String() string {
	switch v.Type {
	case Float:
		return fmt.Sprintf("%g", v.Float)
	case Str:
		return fmt.Sprintf("%q", v.Str)
	default:
		return fmt.Sprintf("%d", v.Int)
	}
}

// Word converts v to a 64-bit operand. Floats are stored as their IEEE 754
// bit pattern.
func (v Value) Word() (int64, bool) {
	switch v.Type {
	case Int:
		return v.Int, true
	case Float:
		return int64(math.Float64bits(v.Float)), true
	}
	return 0, false
}

func (v Value) asFloat() float64 {
	if v.Type == Float {
		return v.Float
	}
	return float64(v.Int)
}

// Scope resolves names during evaluation.
type Scope interface {
	Lookup(name string) (Value, bool)
}

// Bindings is a map-backed Scope with an optional parent.
type Bindings struct {
	Parent Scope
	Values map[string]Value
}

func NewBindings(parent Scope) *Bindings {
	return &Bindings{Parent: parent, Values: make(map[string]Value)}
}

func (b *Bindings) Lookup(name string) (Value, bool) {
	if v, ok := b.Values[name]; ok {
		return v, true
	}
	if b.Parent != nil {
		return b.Parent.Lookup(name)
	}
	return Value{}, false
}

func (b *Bindings) Bind(name string, v Value) {
	b.Values[name] = v
}

type builtin func(loc diag.Location, args []Value) (Value, error)

var builtins = map[string]builtin{
	"len": func(loc diag.Location, args []Value) (Value, error) {
		if len(args) != 1 || args[0].Type != Str {
			return Value{}, diag.Errorf(loc, diag.Semantic, "len expects a single string argument")
		}
		return IntValue(int64(len(args[0].Str))), nil
	},
}

// Eval computes the value of e.
func Eval(e Expr, scope Scope) (Value, error) {
	switch e := e.(type) {
	case *IntLit:
		return IntValue(e.Value), nil
	case *FloatLit:
		return FloatValue(e.Value), nil
	case *StrLit:
		return StrValue(e.Value), nil

	case *Ident:
		if scope != nil {
			if v, ok := scope.Lookup(e.Name); ok {
				return v, nil
			}
		}
		return Value{}, diag.Errorf(e.Loc, diag.Semantic, "unknown name `%s`", e.Name)

	case *Call:
		fn, ok := builtins[e.Name]
		if !ok {
			return Value{}, diag.Errorf(e.Loc, diag.Semantic, "unknown function `%s`", e.Name)
		}
		args := make([]Value, len(e.Args))
		for i, a := range e.Args {
			v, err := Eval(a, scope)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return fn(e.Loc, args)

	case *Neg:
		v, err := Eval(e.Operand, scope)
		if err != nil {
			return Value{}, err
		}
		switch v.Type {
		case Int:
			return IntValue(-v.Int), nil
		case Float:
			return FloatValue(-v.Float), nil
		}
		return Value{}, diag.Errorf(e.Loc, diag.Semantic, "cannot negate a %s", v.Type)

	case *Binary:
		left, err := Eval(e.Left, scope)
		if err != nil {
			return Value{}, err
		}
		right, err := Eval(e.Right, scope)
		if err != nil {
			return Value{}, err
		}
		return binary(e, left, right)
	}

	return Value{}, fmt.Errorf("expr: unexpected node %T", e)
}

func boolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

func binary(e *Binary, l, r Value) (Value, error) {
	if l.Type == Str || r.Type == Str {
		if l.Type != r.Type {
			return Value{}, diag.Errorf(e.Loc, diag.Semantic, "operator `%s` on %s and %s", e.Op, l.Type, r.Type)
		}
		switch e.Op {
		case tokenizer.Plus:
			return StrValue(l.Str + r.Str), nil
		case tokenizer.EqEq:
			return boolValue(l.Str == r.Str), nil
		}
		return Value{}, diag.Errorf(e.Loc, diag.Semantic, "operator `%s` is not defined on strings", e.Op)
	}

	if l.Type == Float || r.Type == Float {
		a, b := l.asFloat(), r.asFloat()
		switch e.Op {
		case tokenizer.Plus:
			return FloatValue(a + b), nil
		case tokenizer.Minus:
			return FloatValue(a - b), nil
		case tokenizer.Mult:
			return FloatValue(a * b), nil
		case tokenizer.Div:
			if b == 0 {
				return Value{}, diag.Errorf(e.Loc, diag.Semantic, "division by zero")
			}
			return FloatValue(a / b), nil
		case tokenizer.Mod:
			return Value{}, diag.Errorf(e.Loc, diag.Semantic, "operator `%%` is not defined on floats")
		case tokenizer.Lt:
			return boolValue(a < b), nil
		case tokenizer.Gt:
			return boolValue(a > b), nil
		case tokenizer.EqEq:
			return boolValue(a == b), nil
		}
		return Value{}, diag.Errorf(e.Loc, diag.Semantic, "unsupported operator `%s`", e.Op)
	}

	a, b := l.Int, r.Int
	switch e.Op {
	case tokenizer.Plus:
		return IntValue(a + b), nil
	case tokenizer.Minus:
		return IntValue(a - b), nil
	case tokenizer.Mult:
		return IntValue(a * b), nil
	case tokenizer.Div, tokenizer.Mod:
		if b == 0 {
			return Value{}, diag.Errorf(e.Loc, diag.Semantic, "division by zero")
		}
		if e.Op == tokenizer.Div {
			return IntValue(a / b), nil
		}
		return IntValue(a % b), nil
	case tokenizer.Lt:
		return boolValue(a < b), nil
	case tokenizer.Gt:
		return boolValue(a > b), nil
	case tokenizer.EqEq:
		return boolValue(a == b), nil
	}
	return Value{}, diag.Errorf(e.Loc, diag.Semantic, "unsupported operator `%s`", e.Op)
}
