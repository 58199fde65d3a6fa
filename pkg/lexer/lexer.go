// Package lexer tokenizes the block-structured Bang language.
//
// The lexer walks its input one physical line at a time and computes the
// row and column of every token itself. Lines that are blank or start with
// '#' produce no tokens.
package lexer

import (
	"gobm/pkg/diag"
	"gobm/pkg/sv"
)

// Lexer holds the scanning state for one source file.
type Lexer struct {
	content   sv.View // unconsumed input after the current line
	line      sv.View // unconsumed part of the current line
	lineStart int     // offset of the current line's first byte
	row       int
	file      string
	peeked    *Token
}

func New(source, file string) *Lexer {
	return FromView(sv.New(source), file)
}

func FromView(content sv.View, file string) *Lexer {
	return &Lexer{
		line:      content.ChopLeft(0),
		content:   content,
		lineStart: content.Offset(),
		file:      file,
	}
}

// Location is the position of the next unconsumed byte of the current line.
func (l *Lexer) Location() diag.Location {
	return diag.Location{
		File: l.file,
		Row:  l.row,
		Col:  l.line.Offset() - l.lineStart + 1,
	}
}

func (l *Lexer) nextLine() {
	l.line = l.content.ChopByDelim('\n')
	l.row++
	l.lineStart = l.line.Offset()
}

func (l *Lexer) emit(kind Kind, size int) Token {
	tok := Token{Kind: kind, Loc: l.Location()}
	tok.Text = l.line.ChopLeft(size)
	l.peeked = &tok
	return tok
}

func isName(c byte) bool {
	return ('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9') ||
		c == '_'
}

// Peek classifies the next token without consuming it. It returns false at
// the end of the input.
func (l *Lexer) Peek() (Token, bool, error) {
	if l.peeked != nil {
		return *l.peeked, true, nil
	}

	l.line.TrimLeft()
	for (l.line.Len() == 0 || l.line.First() == '#') && l.content.Len() > 0 {
		l.nextLine()
		l.line.TrimLeft()
	}
	if l.line.Len() == 0 || l.line.First() == '#' {
		return Token{}, false, nil
	}

	for _, fixed := range fixedTokens {
		if l.line.StartsWith(fixed.text) {
			return l.emit(fixed.kind, len(fixed.text)), true, nil
		}
	}

	n := 0
	for n < l.line.Len() && isName(l.line.At(n)) {
		n++
	}
	if n > 0 {
		return l.emit(Name, n), true, nil
	}

	if l.line.First() == '"' {
		// String literals cannot span lines.
		rest := l.line
		rest.ChopLeft(1)
		end, ok := rest.IndexOf('"')
		if !ok {
			return Token{}, false, diag.Errorf(l.Location(), diag.UnterminatedLiteral, "unclosed string literal")
		}
		return l.emit(StrLit, end+2), true, nil
	}

	return Token{}, false, diag.Errorf(l.Location(), diag.UnknownToken, "unknown token starts with `%c`", l.line.First())
}

// Next returns the next token and consumes it.
func (l *Lexer) Next() (Token, bool, error) {
	tok, ok, err := l.Peek()
	if err != nil || !ok {
		return tok, ok, err
	}
	l.peeked = nil
	return tok, true, nil
}

// ExpectToken consumes the next token and requires it to be of the given kind.
func (l *Lexer) ExpectToken(kind Kind) (Token, error) {
	tok, ok, err := l.Next()
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return Token{}, diag.Errorf(l.Location(), diag.UnexpectedEOF, "expected token `%s` but reached end of input", kind)
	}
	if tok.Kind != kind {
		return Token{}, diag.Errorf(tok.Loc, diag.KindMismatch, "expected token `%s` but got `%s`", kind, tok.Kind)
	}
	return tok, nil
}

// ExpectKeyword consumes a name token whose text must be exactly name.
func (l *Lexer) ExpectKeyword(name string) (Token, error) {
	tok, err := l.ExpectToken(Name)
	if err != nil {
		return Token{}, err
	}
	if !tok.Text.Eq(name) {
		return Token{}, diag.Errorf(tok.Loc, diag.KeywordMismatch, "expected keyword `%s` but got `%s`", name, tok.Text)
	}
	return tok, nil
}
