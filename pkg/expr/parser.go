package expr

import (
	"strconv"
	"strings"

	"gobm/pkg/diag"
	"gobm/pkg/tokenizer"
)

// Binary operators grouped by precedence, lowest first.
var precedence = [][]tokenizer.Kind{
	{tokenizer.EqEq},
	{tokenizer.Lt, tokenizer.Gt},
	{tokenizer.Plus, tokenizer.Minus},
	{tokenizer.Mult, tokenizer.Div, tokenizer.Mod},
}

// Parse reads one expression from t. Tokens after the expression are left
// in t for the caller.
func Parse(t *tokenizer.Tokenizer, loc diag.Location) (Expr, error) {
	return parseLevel(t, loc, 0)
}

// ParseAll parses src as exactly one expression.
func ParseAll(src string, loc diag.Location) (Expr, error) {
	t := tokenizer.New(src)
	e, err := Parse(t, loc)
	if err != nil {
		return nil, err
	}
	if err := t.ExpectNoTokens(loc); err != nil {
		return nil, err
	}
	return e, nil
}

func parseLevel(t *tokenizer.Tokenizer, loc diag.Location, level int) (Expr, error) {
	if level >= len(precedence) {
		return parseUnary(t, loc)
	}

	left, err := parseLevel(t, loc, level+1)
	if err != nil {
		return nil, err
	}

	for {
		tok, ok, err := t.Peek(loc)
		if err != nil {
			return nil, err
		}
		if !ok || !hasKind(precedence[level], tok.Kind) {
			return left, nil
		}
		if _, _, err := t.Next(loc); err != nil {
			return nil, err
		}

		right, err := parseLevel(t, loc, level+1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Loc: loc, Op: tok.Kind, Left: left, Right: right}
	}
}

func hasKind(kinds []tokenizer.Kind, k tokenizer.Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func parseUnary(t *tokenizer.Tokenizer, loc diag.Location) (Expr, error) {
	tok, ok, err := t.Peek(loc)
	if err != nil {
		return nil, err
	}
	if ok && tok.Kind == tokenizer.Minus {
		if _, _, err := t.Next(loc); err != nil {
			return nil, err
		}
		operand, err := parseUnary(t, loc)
		if err != nil {
			return nil, err
		}
		return &Neg{Loc: loc, Operand: operand}, nil
	}
	return parsePrimary(t, loc)
}

func parsePrimary(t *tokenizer.Tokenizer, loc diag.Location) (Expr, error) {
	tok, ok, err := t.Next(loc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, diag.Errorf(loc, diag.UnexpectedEOF, "expected expression but reached end of input")
	}

	switch tok.Kind {
	case tokenizer.Number:
		return parseNumber(tok.Text.String(), loc)

	case tokenizer.Str:
		return &StrLit{Loc: loc, Value: tok.Text.String()}, nil

	case tokenizer.Char:
		if tok.Text.Len() != 1 {
			return nil, diag.Errorf(loc, diag.Syntax, "character literal '%s' must be exactly one byte", tok.Text)
		}
		return &IntLit{Loc: loc, Value: int64(tok.Text.First())}, nil

	case tokenizer.Name:
		name := tok.Text.String()
		next, ok, err := t.Peek(loc)
		if err != nil {
			return nil, err
		}
		if !ok || next.Kind != tokenizer.OpenParen {
			return &Ident{Loc: loc, Name: name}, nil
		}
		if _, _, err := t.Next(loc); err != nil {
			return nil, err
		}
		args, err := parseArgs(t, loc)
		if err != nil {
			return nil, err
		}
		return &Call{Loc: loc, Name: name, Args: args}, nil

	case tokenizer.OpenParen:
		inner, err := Parse(t, loc)
		if err != nil {
			return nil, err
		}
		if _, err := t.ExpectToken(tokenizer.CloseParen, loc); err != nil {
			return nil, err
		}
		return inner, nil
	}

	return nil, diag.Errorf(loc, diag.Syntax, "expected expression but got `%s`", tok.Kind)
}

// parseArgs reads a call's arguments after the opening parenthesis.
func parseArgs(t *tokenizer.Tokenizer, loc diag.Location) ([]Expr, error) {
	var args []Expr

	tok, ok, err := t.Peek(loc)
	if err != nil {
		return nil, err
	}
	if ok && tok.Kind == tokenizer.CloseParen {
		if _, _, err := t.Next(loc); err != nil {
			return nil, err
		}
		return args, nil
	}

	for {
		arg, err := Parse(t, loc)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok, ok, err := t.Next(loc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, diag.Errorf(loc, diag.UnexpectedEOF, "expected `)` but reached end of input")
		}
		switch tok.Kind {
		case tokenizer.CloseParen:
			return args, nil
		case tokenizer.Comma:
		default:
			return nil, diag.Errorf(loc, diag.KindMismatch, "expected `,` or `)` but got `%s`", tok.Kind)
		}
	}
}

// parseNumber converts the permissive number token. Anything that is not a
// valid integer (decimal, 0x, 0o, 0b) or float is rejected here.
func parseNumber(text string, loc diag.Location) (Expr, error) {
	if strings.ContainsRune(text, '.') {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, diag.Errorf(loc, diag.Syntax, "`%s` is not a number", text)
		}
		return &FloatLit{Loc: loc, Value: f}, nil
	}
	n, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return nil, diag.Errorf(loc, diag.Syntax, "`%s` is not a number", text)
	}
	return &IntLit{Loc: loc, Value: n}, nil
}
