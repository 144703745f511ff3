package dub

import (
	"fmt"
	"strconv"
	"strings"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Number) isNode()     {}
func (String) isNode()     {}
func (Array) isNode()      {}
func (Tuple) isNode()      {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Number float64
type String string

// Array is a bracketed sequence, e.g. [60 62 64].
type Array []Node

// Tuple is a parenthesized group of simultaneous items, e.g. (60 64 67).
type Tuple []Node

func (a Array) String() string { return "[" + join(a) + "]" }
func (t Tuple) String() string { return "(" + join(t) + ")" }

func join(nodes []Node) string {
	parts := make([]string, len(nodes))
	for n, node := range nodes {
		parts[n] = fmt.Sprint(node)
	}
	return strings.Join(parts, " ")
}

// Parse parses a single command line. Everything after a '#' is a comment.
func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != typeEOF {
		p.pos++
	}
	return t
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		arg, err := p.node(token)
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) node(token token) (Node, error) {
	switch token.typ {
	case typeIdentifier:
		return Identifier(token.text), nil
	case typeString:
		return String(token.text[1 : len(token.text)-1]), nil
	case typeNumber:
		f, err := strconv.ParseFloat(token.text, 64)
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case typeLeftBracket:
		items, err := p.list(typeRightBracket)
		return Array(items), err
	case typeLeftParen:
		items, err := p.list(typeRightParen)
		return Tuple(items), err
	default:
		return nil, unexpected(token)
	}
}

func (p *parser) list(end tokenType) ([]Node, error) {
	items := []Node{}
	for {
		token := p.next()
		switch token.typ {
		case end:
			return items, nil
		case typeEOF:
			return nil, fmt.Errorf("unexpected end of input at position %d", token.pos)
		}
		item, err := p.node(token)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input at position %d", t.pos)
	}
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
