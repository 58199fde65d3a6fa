// Package tokenizer classifies the flat expression syntax used inside
// assembler lines.
//
// The tokenizer does not track positions. Every call takes the location the
// caller wants attached to the token it produces and to any diagnostic.
package tokenizer

import (
	"gobm/pkg/diag"
	"gobm/pkg/sv"
)

// singleChar maps one-byte tokens to their kind. '=' is absent because it
// needs a second byte of lookahead.
var singleChar = map[byte]Kind{
	'(': OpenParen,
	')': CloseParen,
	'{': OpenCurly,
	'}': CloseCurly,
	'/': Div,
	',': Comma,
	'%': Mod,
	'>': Gt,
	'<': Lt,
	'*': Mult,
	'+': Plus,
	'-': Minus,
}

var keywords = map[string]Kind{
	"to":   To,
	"from": From,
	"if":   If,
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isName(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}

func isNumber(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '.'
}

// Tokenizer pulls tokens from a source view on demand.
type Tokenizer struct {
	source sv.View
	peeked *Token // nil when empty
}

func New(source string) *Tokenizer {
	return FromView(sv.New(source))
}

func FromView(source sv.View) *Tokenizer {
	return &Tokenizer{source: source}
}

// Rest returns the input that has not been classified yet. A peeked token is
// not part of it.
func (t *Tokenizer) Rest() sv.View {
	return t.source
}

// Peek classifies the next token without consuming it. It returns false when
// only whitespace remains.
func (t *Tokenizer) Peek(loc diag.Location) (Token, bool, error) {
	if t.peeked != nil {
		return *t.peeked, true, nil
	}

	t.source.TrimLeft()
	if t.source.Len() == 0 {
		return Token{}, false, nil
	}

	tok := Token{Loc: loc}
	c := t.source.First()

	if kind, ok := singleChar[c]; ok {
		tok.Kind = kind
		tok.Text = t.source.ChopLeft(1)
		t.peeked = &tok
		return tok, true, nil
	}

	switch {
	case c == '=':
		if t.source.At(1) == '=' {
			tok.Kind = EqEq
			tok.Text = t.source.ChopLeft(2)
		} else {
			tok.Kind = Assign
			tok.Text = t.source.ChopLeft(1)
		}

	case c == '"':
		text, err := t.chopQuoted('"', loc)
		if err != nil {
			return Token{}, false, err
		}
		tok.Kind = Str
		tok.Text = text

	case c == '\'':
		text, err := t.chopQuoted('\'', loc)
		if err != nil {
			return Token{}, false, err
		}
		tok.Kind = Char
		tok.Text = text

	case isAlpha(c):
		tok.Text = t.source.ChopLeftWhile(isName)
		tok.Kind = Name
		if kw, ok := keywords[tok.Text.String()]; ok {
			tok.Kind = kw
		}

	case isDigit(c):
		// Deliberately loose: 12abc is one number token and gets rejected by
		// whoever converts it.
		tok.Kind = Number
		tok.Text = t.source.ChopLeftWhile(isNumber)

	default:
		return Token{}, false, diag.Errorf(loc, diag.UnknownToken, "unknown token starts with `%c`", c)
	}

	t.peeked = &tok
	return tok, true, nil
}

// chopQuoted consumes a literal delimited by quote and returns its contents
// without the delimiters.
func (t *Tokenizer) chopQuoted(quote byte, loc diag.Location) (sv.View, error) {
	rest := t.source
	rest.ChopLeft(1)
	end, ok := rest.IndexOf(quote)
	if !ok {
		return sv.View{}, diag.Errorf(loc, diag.UnterminatedLiteral, "could not find closing `%c`", quote)
	}
	text := rest.ChopLeft(end)
	rest.ChopLeft(1)
	t.source = rest
	return text, nil
}

// Next returns the next token and consumes it.
func (t *Tokenizer) Next(loc diag.Location) (Token, bool, error) {
	tok, ok, err := t.Peek(loc)
	if err != nil || !ok {
		return tok, ok, err
	}
	t.peeked = nil
	return tok, true, nil
}

// ExpectToken consumes the next token and requires it to be of the given kind.
func (t *Tokenizer) ExpectToken(kind Kind, loc diag.Location) (Token, error) {
	tok, ok, err := t.Next(loc)
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return Token{}, diag.Errorf(loc, diag.UnexpectedEOF, "expected token `%s` but reached end of input", kind)
	}
	if tok.Kind != kind {
		return Token{}, diag.Errorf(loc, diag.KindMismatch, "expected token `%s` but got `%s`", kind, tok.Kind)
	}
	return tok, nil
}

// ExpectNoTokens fails if any token is left in the input.
func (t *Tokenizer) ExpectNoTokens(loc diag.Location) error {
	tok, ok, err := t.Next(loc)
	if err != nil {
		return err
	}
	if ok {
		return diag.Errorf(loc, diag.UnexpectedToken, "unexpected token `%s`", tok.Text)
	}
	return nil
}
