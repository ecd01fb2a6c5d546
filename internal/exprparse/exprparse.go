// Package exprparse parses the textual expression form back into
// symbolic expression trees: constants in decimal or hex, identifiers as
// variables, op(rhs) for unary and (lhs op rhs) for binary operations.
package exprparse

import (
	"math/big"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"vtil/internal/symex"
)

var exprLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Integer", Pattern: `0x[0-9a-fA-F]+|[0-9]+`},
		{Name: "Operator", Pattern: `(\[<|>\]|==|!=|<=|>=|<<|>>|[-+*/%&|^~!<>])`},
		{Name: "Punct", Pattern: `[(),:]`},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	},
})

var parser = participle.MustBuild[node](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(3),
)

type node struct {
	Binary *binaryNode `parser:"  @@"`
	Call   *callNode   `parser:"| @@"`
	Num    *numNode    `parser:"| @@"`
	Ident  *string     `parser:"| @Ident"`
}

type binaryNode struct {
	LHS *node  `parser:"\"(\" @@"`
	Op  string `parser:"@(Operator | Ident)"`
	RHS *node  `parser:"@@ \")\""`
}

type callNode struct {
	Name string `parser:"@(Ident | Operator)"`
	Arg  *node  `parser:"\"(\" @@ \")\""`
}

type numNode struct {
	Neg   bool    `parser:"@\"-\"?"`
	Value string  `parser:"@Integer"`
	Bits  *string `parser:"(\":\" @Integer)?"`
}

// Parse converts source text into an expression tree.
func Parse(src string) (*symex.Expression, error) {
	n, err := parser.ParseString("", src)
	if err != nil {
		return nil, errors.Wrap(err, "parsing expression")
	}
	return n.toExpression()
}

func (n *node) toExpression() (*symex.Expression, error) {
	switch {
	case n.Binary != nil:
		op := symex.BinaryOperatorFromName(n.Binary.Op)
		if op == symex.Invalid {
			return nil, errors.Errorf("unknown binary operator %q", n.Binary.Op)
		}
		lhs, err := n.Binary.LHS.toExpression()
		if err != nil {
			return nil, err
		}
		rhs, err := n.Binary.RHS.toExpression()
		if err != nil {
			return nil, err
		}
		return symex.NewBinary(lhs, op, rhs)

	case n.Call != nil:
		op := symex.UnaryOperatorFromName(n.Call.Name)
		if op == symex.Invalid {
			return nil, errors.Errorf("unknown unary operator %q", n.Call.Name)
		}
		rhs, err := n.Call.Arg.toExpression()
		if err != nil {
			return nil, err
		}
		return symex.NewUnary(op, rhs)

	case n.Num != nil:
		return n.Num.toExpression()

	case n.Ident != nil:
		uid, err := symex.NewStringUID(*n.Ident)
		if err != nil {
			return nil, errors.Wrap(err, "invalid variable name")
		}
		return symex.NewVariableExpr(uid)

	default:
		return nil, errors.New("empty expression")
	}
}

func (n *numNode) toExpression() (*symex.Expression, error) {
	v, ok := new(big.Int).SetString(n.Value, 0)
	if !ok {
		return nil, errors.Errorf("invalid integer literal %q", n.Value)
	}
	if n.Neg {
		v.Neg(v)
	}
	bits := 64
	if n.Bits != nil {
		b, ok := new(big.Int).SetString(*n.Bits, 0)
		if !ok || !b.IsInt64() {
			return nil, errors.Errorf("invalid width %q", *n.Bits)
		}
		bits = int(b.Int64())
	}
	c, err := symex.NewConstant(v, bits)
	if err != nil {
		return nil, errors.Wrapf(err, "constant %s:%d", v, bits)
	}
	return symex.NewConstantExpr(c), nil
}
