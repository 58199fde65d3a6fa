package bang

import (
	"gobm/pkg/diag"
	"gobm/pkg/lexer"
)

type parser struct {
	lex *lexer.Lexer
}

// Parse reads every procedure in src.
func Parse(src, file string) (*Module, error) {
	p := &parser{lex: lexer.New(src, file)}
	m := &Module{File: file}
	for {
		_, ok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if !ok {
			return m, nil
		}
		proc, err := p.parseProc()
		if err != nil {
			return nil, err
		}
		m.Procs = append(m.Procs, proc)
	}
}

func (p *parser) parseProc() (*Proc, error) {
	kw, err := p.lex.ExpectKeyword("proc")
	if err != nil {
		return nil, err
	}
	name, err := p.lex.ExpectToken(lexer.Name)
	if err != nil {
		return nil, err
	}
	for _, kind := range []lexer.Kind{lexer.OpenParen, lexer.CloseParen, lexer.OpenCurly} {
		if _, err := p.lex.ExpectToken(kind); err != nil {
			return nil, err
		}
	}

	proc := &Proc{Loc: kw.Loc, Name: name.Text.String()}
	for {
		tok, ok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, diag.Errorf(p.lex.Location(), diag.UnexpectedEOF, "expected `}` but reached end of input")
		}
		if tok.Kind == lexer.CloseCurly {
			if _, _, err := p.lex.Next(); err != nil {
				return nil, err
			}
			return proc, nil
		}
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		proc.Body = append(proc.Body, call)
	}
}

// parseCall reads `name();` or `name("text");`.
func (p *parser) parseCall() (*Call, error) {
	name, err := p.lex.ExpectToken(lexer.Name)
	if err != nil {
		return nil, err
	}
	if _, err := p.lex.ExpectToken(lexer.OpenParen); err != nil {
		return nil, err
	}
	call := &Call{Loc: name.Loc, Name: name.Text.String()}

	tok, ok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}
	if ok && tok.Kind == lexer.StrLit {
		if _, _, err := p.lex.Next(); err != nil {
			return nil, err
		}
		text := tok.Text.String()
		call.Args = append(call.Args, &StrLit{Loc: tok.Loc, Value: text[1 : len(text)-1]})
	}

	if _, err := p.lex.ExpectToken(lexer.CloseParen); err != nil {
		return nil, err
	}
	if _, err := p.lex.ExpectToken(lexer.Semicolon); err != nil {
		return nil, err
	}
	return call, nil
}
