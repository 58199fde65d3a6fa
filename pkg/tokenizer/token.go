package tokenizer

import (
	"fmt"

	"gobm/pkg/diag"
	"gobm/pkg/sv"
)

// Kind identifies the category of a token.
type Kind int

const (
	OpenParen  Kind = iota // (
	CloseParen             // )
	OpenCurly              // {
	CloseCurly             // }
	Div                    // /
	Comma                  // ,
	Mod                    // %
	Gt                     // >
	Lt                     // <
	Mult                   // *
	Plus                   // +
	Minus                  // -
	Assign                 // =
	EqEq                   // ==

	// Literals
	Str    // "..." without the quotes
	Char   // '...' without the quotes
	Number // digit followed by alphanumerics and dots
	Name   // identifier

	// Contextual keywords
	To
	From
	If
)

// kindNames is indexed by Kind.
var kindNames = [...]string{
	OpenParen:  "(",
	CloseParen: ")",
	OpenCurly:  "{",
	CloseCurly: "}",
	Div:        "/",
	Comma:      ",",
	Mod:        "%",
	Gt:         ">",
	Lt:         "<",
	Mult:       "*",
	Plus:       "+",
	Minus:      "-",
	Assign:     "=",
	EqEq:       "==",
	Str:        "string",
	Char:       "character",
	Number:     "number",
	Name:       "name",
	To:         "to",
	From:       "from",
	If:         "if",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical unit. Text is a view into the tokenized source,
// never a copy.
type Token struct {
	Kind Kind
	Text sv.View
	Loc  diag.Location
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %q", t.Kind, t.Text.String())
}
