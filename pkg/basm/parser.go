package basm

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"gobm/pkg/bm"
	"gobm/pkg/diag"
	"gobm/pkg/expr"
	"gobm/pkg/sv"
	"gobm/pkg/tokenizer"
)

func isNameByte(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') || c == '_'
}

// stripComment cuts line at the first ';' that is not inside a literal.
func stripComment(line sv.View) sv.View {
	var quote byte
	for i := 0; i < line.Len(); i++ {
		c := line.At(i)
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ';':
			return line.ChopLeft(i)
		}
	}
	return line
}

type block struct {
	stmts []Stmt
	open  Stmt // *If or *For, nil for the top level
}

type parser struct {
	file      string
	row       int
	lineStart int
	blocks    []*block
}

func (p *parser) loc(v sv.View) diag.Location {
	return diag.Location{File: p.file, Row: p.row, Col: v.Offset() - p.lineStart + 1}
}

func (p *parser) add(s Stmt) {
	top := p.blocks[len(p.blocks)-1]
	top.stmts = append(top.stmts, s)
}

// Parse splits src into statements. %if and %for bodies are nested into
// their directive.
func Parse(src, file string) ([]Stmt, error) {
	p := &parser{file: file, blocks: []*block{{}}}
	content := sv.New(src)

	for content.Len() > 0 {
		line := content.ChopByDelim('\n')
		p.row++
		p.lineStart = line.Offset()
		if err := p.parseLine(stripComment(line)); err != nil {
			return nil, err
		}
	}

	if len(p.blocks) > 1 {
		open := p.blocks[len(p.blocks)-1].open
		return nil, diag.Errorf(open.Location(), diag.Syntax, "block is never closed with %%end")
	}
	return p.blocks[0].stmts, nil
}

func (p *parser) parseLine(line sv.View) error {
	line.TrimLeft()
	if line.Len() == 0 {
		return nil
	}
	if line.First() == '%' {
		return p.parseDirective(line)
	}

	for {
		rest := line
		name := rest.ChopLeftWhile(isNameByte)
		if name.Len() == 0 || rest.At(0) != ':' {
			break
		}
		p.add(&Label{Loc: p.loc(name), Name: name.String()})
		rest.ChopLeft(1)
		rest.TrimLeft()
		line = rest
		if line.Len() == 0 {
			return nil
		}
	}

	return p.parseInstruction(line)
}

func (p *parser) parseInstruction(line sv.View) error {
	loc := p.loc(line)
	mnemonic := line.ChopLeftWhile(isNameByte)
	if mnemonic.Len() == 0 {
		return diag.Errorf(loc, diag.Syntax, "expected an instruction or a label")
	}
	op, ok := bm.OpcodeByName(mnemonic.String())
	if !ok {
		if hint := suggest(mnemonic.String(), bm.Mnemonics()); hint != "" {
			return diag.Errorf(loc, diag.Semantic, "unknown instruction `%s`, did you mean `%s`?", mnemonic, hint)
		}
		return diag.Errorf(loc, diag.Semantic, "unknown instruction `%s`", mnemonic)
	}

	line.TrimLeft()
	operandLoc := p.loc(line)
	t := tokenizer.FromView(line)
	inst := &Instruction{Loc: loc, Op: op}
	if op.Def().HasOperand {
		operand, err := expr.Parse(t, operandLoc)
		if err != nil {
			return err
		}
		inst.Operand = operand
	}
	if err := t.ExpectNoTokens(operandLoc); err != nil {
		return err
	}
	p.add(inst)
	return nil
}

func (p *parser) parseDirective(line sv.View) error {
	loc := p.loc(line)
	t := tokenizer.FromView(line)
	if _, err := t.ExpectToken(tokenizer.Mod, loc); err != nil {
		return err
	}
	head, ok, err := t.Next(loc)
	if err != nil {
		return err
	}
	if !ok || (head.Kind != tokenizer.Name && head.Kind != tokenizer.If) {
		return diag.Errorf(loc, diag.Syntax, "expected a directive name after `%%`")
	}
	rest := t.Rest()
	rest.TrimLeft()
	argLoc := p.loc(rest)
	name := head.Text

	switch name.String() {
	case "include":
		path, err := t.ExpectToken(tokenizer.Str, argLoc)
		if err != nil {
			return err
		}
		p.add(&Include{Loc: loc, Path: path.Text.String()})

	case "const":
		constName, err := t.ExpectToken(tokenizer.Name, argLoc)
		if err != nil {
			return err
		}
		value, err := expr.Parse(t, argLoc)
		if err != nil {
			return err
		}
		p.add(&Const{Loc: loc, Name: constName.Text.String(), Value: value})

	case "entry":
		label, err := t.ExpectToken(tokenizer.Name, argLoc)
		if err != nil {
			return err
		}
		p.add(&Entry{Loc: loc, Label: label.Text.String()})

	case "assert":
		cond, err := expr.Parse(t, argLoc)
		if err != nil {
			return err
		}
		p.add(&Assert{Loc: loc, Cond: cond})

	case "if":
		cond, err := expr.Parse(t, argLoc)
		if err != nil {
			return err
		}
		s := &If{Loc: loc, Cond: cond}
		p.add(s)
		p.blocks = append(p.blocks, &block{open: s})

	case "for":
		s, err := parseForHeader(t, loc, argLoc)
		if err != nil {
			return err
		}
		p.add(s)
		p.blocks = append(p.blocks, &block{open: s})

	case "end":
		if len(p.blocks) == 1 {
			return diag.Errorf(loc, diag.Syntax, "%%end without an open %%if or %%for")
		}
		top := p.blocks[len(p.blocks)-1]
		p.blocks = p.blocks[:len(p.blocks)-1]
		switch open := top.open.(type) {
		case *If:
			open.Body = top.stmts
		case *For:
			open.Body = top.stmts
		}

	default:
		return diag.Errorf(loc, diag.Syntax, "unknown directive `%%%s`", name)
	}

	return t.ExpectNoTokens(argLoc)
}

// parseForHeader reads `NAME from EXPR to EXPR`.
func parseForHeader(t *tokenizer.Tokenizer, loc, argLoc diag.Location) (*For, error) {
	v, err := t.ExpectToken(tokenizer.Name, argLoc)
	if err != nil {
		return nil, err
	}
	if _, err := t.ExpectToken(tokenizer.From, argLoc); err != nil {
		return nil, err
	}
	from, err := expr.Parse(t, argLoc)
	if err != nil {
		return nil, err
	}
	if _, err := t.ExpectToken(tokenizer.To, argLoc); err != nil {
		return nil, err
	}
	to, err := expr.Parse(t, argLoc)
	if err != nil {
		return nil, err
	}
	return &For{Loc: loc, Var: v.Text.String(), From: from, To: to}, nil
}

// suggest returns the closest candidate to name, or "" when nothing is close.
func suggest(name string, candidates []string) string {
	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
