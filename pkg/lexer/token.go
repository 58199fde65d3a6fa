package lexer

import (
	"fmt"
	"strings"

	"gobm/pkg/diag"
	"gobm/pkg/sv"
)

// Kind identifies the category of a token.
type Kind int

const (
	Name       Kind = iota // [A-Za-z0-9_]+
	OpenParen              // (
	CloseParen             // )
	OpenCurly              // {
	CloseCurly             // }
	Semicolon              // ;
	Colon                  // :
	StrLit                 // "..." including the quotes
)

var kindNames = [...]string{
	Name:       "name",
	OpenParen:  "(",
	CloseParen: ")",
	OpenCurly:  "{",
	CloseCurly: "}",
	Semicolon:  ";",
	Colon:      ":",
	StrLit:     "string literal",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a classified slice of the source with the position of its first
// byte.
type Token struct {
	Kind Kind
	Text sv.View
	Loc  diag.Location
}

func (t Token) String() string {
	return fmt.Sprintf("%s: %-14s %q", t.Loc, t.Kind, t.Text.String())
}

type fixedToken struct {
	text string
	kind Kind
}

// fixedTokens is matched in order against the start of the line. No entry may
// be a proper prefix of a later one, otherwise the longer token could never
// match.
var fixedTokens = []fixedToken{
	{"(", OpenParen},
	{")", CloseParen},
	{"{", OpenCurly},
	{"}", CloseCurly},
	{";", Semicolon},
	{":", Colon},
}

func init() {
	if err := checkShadowing(fixedTokens); err != nil {
		panic(err)
	}
}

func checkShadowing(table []fixedToken) error {
	for i, earlier := range table {
		for _, later := range table[i+1:] {
			if len(earlier.text) < len(later.text) && strings.HasPrefix(later.text, earlier.text) {
				return fmt.Errorf("lexer: token %q shadows later token %q", earlier.text, later.text)
			}
		}
	}
	return nil
}
