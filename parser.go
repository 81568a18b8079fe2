package kalc

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// Parse parses Kal source into a Tree.
//
// Parse never fails. Syntax errors are collected in Tree.Errors and the tree
// covers whatever could be recognised, so partially-typed code such as `x.`
// still produces a member expression with an absent name. In script mode the
// unit may contain top-level statements and methods besides classes.
func Parse(source string, script bool) *Tree {
	tokens := Tokenize(source)

	p := &parser{
		tree: &Tree{Source: source, Tokens: tokens},
	}

	for i, tok := range tokens {
		if tok.Channel == ChannelDefault {
			p.sig = append(p.sig, i)
		}
	}

	p.tree.Root = p.parseUnit(script)

	return p.tree
}

type parser struct {
	tree *Tree
	// sig holds the stream indices of significant tokens, EOF included.
	sig []int
	pos int
	// lastEnd is the end offset of the last consumed token.
	lastEnd int
}

// Token access.

func (p *parser) tok() Token {
	return p.tree.Tokens[p.sig[p.pos]]
}

func (p *parser) peekType(n int) lexer.TokenType {
	i := p.pos + n
	if i >= len(p.sig) {
		return TokenEOF
	}

	return p.tree.Tokens[p.sig[i]].Type
}

func (p *parser) at(typ lexer.TokenType) bool {
	return p.tok().Type == typ
}

func (p *parser) eof() bool {
	return p.at(TokenEOF)
}

// advance consumes the current token and returns its stream index.
func (p *parser) advance() int {
	idx := p.sig[p.pos]
	if !p.eof() {
		p.lastEnd = p.tree.Tokens[idx].Span.End
		p.pos++
	}

	return idx
}

func (p *parser) accept(typ lexer.TokenType) (int, bool) {
	if !p.at(typ) {
		return -1, false
	}

	return p.advance(), true
}

func (p *parser) expect(typ lexer.TokenType, what string) (int, bool) {
	if idx, ok := p.accept(typ); ok {
		return idx, true
	}

	p.errorf("expected %s, found %s", what, describe(p.tok()))

	return -1, false
}

func (p *parser) errorf(format string, args ...any) {
	p.tree.Errors = append(p.tree.Errors, &SyntaxError{
		Span:    p.tok().Span,
		Message: fmt.Sprintf(format, args...),
	})
}

func describe(tok Token) string {
	if tok.EOF() {
		return "end of input"
	}

	return fmt.Sprintf("%q", tok.Text)
}

// Node construction.

func (p *parser) open(kind NodeKind, start int) NodeID {
	id := NodeID(len(p.tree.Nodes))
	p.tree.Nodes = append(p.tree.Nodes, Node{
		ID:      id,
		Kind:    kind,
		Span:    Span{Start: start, End: start},
		Parent:  NoNode,
		Name:    -1,
		TypeRef: NoNode,
	})

	return id
}

func (p *parser) close(id NodeID) NodeID {
	n := &p.tree.Nodes[id]
	if p.lastEnd > n.Span.Start {
		n.Span.End = p.lastEnd
	}

	return id
}

func (p *parser) adopt(parent, child NodeID) {
	if child == NoNode {
		return
	}

	p.tree.Nodes[child].Parent = parent
	p.tree.Nodes[parent].Children = append(p.tree.Nodes[parent].Children, child)
}

func (p *parser) start() int {
	return p.tok().Span.Start
}

// Declarations.

func (p *parser) parseUnit(script bool) NodeID {
	root := p.open(KindCompilationUnit, 0)

	for !p.eof() {
		before := p.pos

		switch {
		case p.at(TokenImport):
			p.adopt(root, p.parseImport())
		case p.at(TokenClass):
			p.adopt(root, p.parseClass())
		case script && p.atMethodDecl():
			p.adopt(root, p.parseMember(FlagScript))
		case script:
			p.adopt(root, p.parseStatement())
		default:
			p.errorf("expected class declaration, found %s", describe(p.tok()))
			p.advance()
		}

		if p.pos == before {
			p.advance()
		}
	}

	p.tree.Nodes[root].Span = Span{Start: 0, End: len(p.tree.Source)}

	return root
}

// atMethodDecl reports whether the next tokens read `[static] Type name (`.
func (p *parser) atMethodDecl() bool {
	off := 0
	if p.at(TokenStatic) {
		off = 1
	}

	return p.peekType(off) == TokenIdent &&
		p.peekType(off+1) == TokenIdent &&
		p.peekType(off+2) == TokenLParen
}

func (p *parser) parseImport() NodeID {
	id := p.open(KindImport, p.start())
	p.advance() // import

	decl := ImportDecl{}

	if _, ok := p.accept(TokenMixin); ok {
		decl.Mixin = true
	}

	if idx, ok := p.expect(TokenIdent, "class name"); ok {
		decl.Class = p.tree.Tokens[idx].Text
		p.tree.Nodes[id].Name = idx
	}

	if _, ok := p.accept(TokenDot); ok {
		if idx, ok := p.expect(TokenIdent, "member name"); ok {
			decl.Member = p.tree.Tokens[idx].Text
		}
	}

	if _, ok := p.accept(TokenAs); ok {
		if idx, ok := p.expect(TokenIdent, "alias"); ok {
			decl.Alias = p.tree.Tokens[idx].Text
		}
	}

	p.expect(TokenSemi, "';'")
	p.close(id)

	decl.Span = p.tree.Nodes[id].Span
	p.tree.Imports = append(p.tree.Imports, decl)

	return id
}

func (p *parser) parseClass() NodeID {
	id := p.open(KindClass, p.start())
	p.advance() // class

	if idx, ok := p.expect(TokenIdent, "class name"); ok {
		p.tree.Nodes[id].Name = idx
	}

	if _, ok := p.accept(TokenExtends); ok {
		if p.at(TokenIdent) {
			ref := p.parseTypeRef()
			p.adopt(id, ref)
			p.tree.Nodes[id].TypeRef = ref
		} else {
			p.errorf("expected superclass name, found %s", describe(p.tok()))
		}
	}

	if _, ok := p.expect(TokenLBrace, "'{'"); !ok {
		return p.close(id)
	}

	for !p.eof() && !p.at(TokenRBrace) && !p.at(TokenClass) && !p.at(TokenImport) {
		before := p.pos

		p.adopt(id, p.parseMember(0))

		if p.pos == before {
			p.errorf("unexpected %s in class body", describe(p.tok()))
			p.advance()
		}
	}

	p.expect(TokenRBrace, "'}'")

	return p.close(id)
}

// parseMember parses a field, method, constructor or static initializer.
func (p *parser) parseMember(flags NodeFlags) NodeID {
	start := p.start()

	if p.at(TokenStatic) {
		if p.peekType(1) == TokenLBrace {
			id := p.open(KindMethod, start)
			p.advance() // static
			p.tree.Nodes[id].Flags = flags | FlagStatic | FlagInitializer
			p.adopt(id, p.parseBlock(KindBlock))

			return p.close(id)
		}

		p.advance()

		flags |= FlagStatic
	}

	if p.at(TokenConstructor) {
		id := p.open(KindMethod, start)
		p.tree.Nodes[id].Name = p.advance()
		p.tree.Nodes[id].Flags = flags | FlagConstructor
		p.parseParams(id)
		p.adopt(id, p.parseBlock(KindBlock))

		return p.close(id)
	}

	if !p.at(TokenIdent) {
		if flags != 0 {
			p.errorf("expected member declaration, found %s", describe(p.tok()))
		}

		return NoNode
	}

	ref := p.parseTypeRef()
	nameIdx, _ := p.expect(TokenIdent, "member name")

	if p.at(TokenLParen) {
		id := p.open(KindMethod, start)
		p.tree.Nodes[id].Name = nameIdx
		p.tree.Nodes[id].Flags = flags
		p.tree.Nodes[id].TypeRef = ref
		p.adopt(id, ref)
		p.parseParams(id)
		p.adopt(id, p.parseBlock(KindBlock))

		return p.close(id)
	}

	id := p.open(KindField, start)
	p.tree.Nodes[id].Name = nameIdx
	p.tree.Nodes[id].Flags = flags
	p.tree.Nodes[id].TypeRef = ref
	p.adopt(id, ref)

	if _, ok := p.accept(TokenAssign); ok {
		p.adopt(id, p.parseExpr())
	}

	p.expect(TokenSemi, "';'")

	return p.close(id)
}

func (p *parser) parseTypeRef() NodeID {
	id := p.open(KindTypeRef, p.start())
	p.tree.Nodes[id].Name = p.advance()

	return p.close(id)
}

func (p *parser) parseParams(method NodeID) {
	if _, ok := p.expect(TokenLParen, "'('"); !ok {
		return
	}

	for p.at(TokenIdent) {
		param := p.open(KindParam, p.start())
		ref := p.parseTypeRef()
		p.adopt(param, ref)
		p.tree.Nodes[param].TypeRef = ref

		if idx, ok := p.expect(TokenIdent, "parameter name"); ok {
			p.tree.Nodes[param].Name = idx
		}

		p.adopt(method, p.close(param))

		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}

	p.expect(TokenRParen, "')'")
}

func (p *parser) parseBlock(kind NodeKind) NodeID {
	id := p.open(kind, p.start())

	if _, ok := p.expect(TokenLBrace, "'{'"); !ok {
		return p.close(id)
	}

	for !p.eof() && !p.at(TokenRBrace) && !p.at(TokenClass) {
		before := p.pos

		p.adopt(id, p.parseStatement())

		if p.pos == before {
			p.advance()
		}
	}

	p.expect(TokenRBrace, "'}'")

	return p.close(id)
}

// Statements.

func (p *parser) parseStatement() NodeID {
	switch {
	case p.at(TokenLBrace):
		return p.parseBlock(KindBlockStat)
	case p.at(TokenSemi):
		p.advance()

		return NoNode
	case p.at(TokenVar):
		return p.parseVar()
	case p.at(TokenIdent) && p.peekType(1) == TokenIdent:
		return p.parseTypedVar()
	case p.at(TokenReturn):
		id := p.open(KindReturnStat, p.start())
		p.advance()

		if !p.at(TokenSemi) && p.canStartExpr() {
			p.adopt(id, p.parseExpr())
		}

		p.expect(TokenSemi, "';'")

		return p.close(id)
	case p.at(TokenIf):
		id := p.open(KindIfStat, p.start())
		p.advance()
		p.parseCondition(id)
		p.adopt(id, p.parseStatement())

		if _, ok := p.accept(TokenElse); ok {
			p.adopt(id, p.parseStatement())
		}

		return p.close(id)
	case p.at(TokenWhile):
		id := p.open(KindWhileStat, p.start())
		p.advance()
		p.parseCondition(id)
		p.adopt(id, p.parseStatement())

		return p.close(id)
	case p.canStartExpr():
		id := p.open(KindExprStat, p.start())
		p.adopt(id, p.parseExpr())
		p.expect(TokenSemi, "';'")

		return p.close(id)
	default:
		p.errorf("unexpected %s", describe(p.tok()))

		return NoNode
	}
}

func (p *parser) parseCondition(id NodeID) {
	p.expect(TokenLParen, "'('")

	if p.canStartExpr() {
		p.adopt(id, p.parseExpr())
	} else {
		p.errorf("expected condition, found %s", describe(p.tok()))
	}

	p.expect(TokenRParen, "')'")
}

func (p *parser) parseVar() NodeID {
	id := p.open(KindVarStat, p.start())
	p.advance() // var
	p.tree.Nodes[id].Flags = FlagInferred

	if idx, ok := p.expect(TokenIdent, "variable name"); ok {
		p.tree.Nodes[id].Name = idx
	}

	p.parseInitializer(id)

	return p.close(id)
}

func (p *parser) parseTypedVar() NodeID {
	id := p.open(KindVarStat, p.start())
	ref := p.parseTypeRef()
	p.adopt(id, ref)
	p.tree.Nodes[id].TypeRef = ref
	p.tree.Nodes[id].Name = p.advance()
	p.parseInitializer(id)

	return p.close(id)
}

func (p *parser) parseInitializer(id NodeID) {
	if _, ok := p.accept(TokenAssign); ok {
		if p.canStartExpr() {
			p.adopt(id, p.parseExpr())
		} else {
			p.errorf("expected initializer, found %s", describe(p.tok()))
		}
	}

	p.expect(TokenSemi, "';'")
}

// Expressions.

func (p *parser) canStartExpr() bool {
	switch p.tok().Type {
	case TokenIdent, TokenInt, TokenFloat, TokenString, TokenTrue, TokenFalse, TokenNull,
		TokenThis, TokenNew, TokenLParen:
		return true
	case TokenOp:
		return p.tok().Text == "!" || p.tok().Text == "-"
	default:
		return false
	}
}

func (p *parser) parseExpr() NodeID {
	lhs := p.parseBinary(1)

	if !p.at(TokenAssign) {
		return lhs
	}

	id := p.open(KindAssignExpr, p.tree.Nodes[lhs].Span.Start)
	p.adopt(id, lhs)
	p.advance()
	p.adopt(id, p.parseExpr())

	return p.close(id)
}

var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, ">": 4, "<=": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

func (p *parser) parseBinary(minPrec int) NodeID {
	lhs := p.parseUnary()

	for p.at(TokenOp) {
		prec, ok := binaryPrecedence[p.tok().Text]
		if !ok || prec < minPrec {
			break
		}

		id := p.open(KindBinaryExpr, p.tree.Nodes[lhs].Span.Start)
		p.tree.Nodes[id].Name = p.advance()
		p.adopt(id, lhs)
		p.adopt(id, p.parseBinary(prec+1))
		lhs = p.close(id)
	}

	return lhs
}

func (p *parser) parseUnary() NodeID {
	if p.at(TokenOp) && (p.tok().Text == "!" || p.tok().Text == "-") {
		id := p.open(KindUnaryExpr, p.start())
		p.tree.Nodes[id].Name = p.advance()
		p.adopt(id, p.parseUnary())

		return p.close(id)
	}

	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePostfix(expr NodeID) NodeID {
	for {
		start := p.tree.Nodes[expr].Span.Start

		switch {
		case p.at(TokenDot):
			id := p.open(KindMemberExpr, start)
			p.adopt(id, expr)
			p.advance()

			if idx, ok := p.expect(TokenIdent, "member name"); ok {
				p.tree.Nodes[id].Name = idx
			}

			expr = p.close(id)
		case p.at(TokenDotDot):
			id := p.open(KindMixinCallExpr, start)
			p.adopt(id, expr)
			p.advance()

			if idx, ok := p.expect(TokenIdent, "mixin method name"); ok {
				p.tree.Nodes[id].Name = idx
			}

			if p.at(TokenLParen) {
				p.parseArgs(id)
			}

			expr = p.close(id)
		case p.at(TokenDoubleColon):
			id := p.open(KindMethodRefExpr, start)
			p.adopt(id, expr)
			p.advance()

			if idx, ok := p.expect(TokenIdent, "method name"); ok {
				p.tree.Nodes[id].Name = idx
			}

			expr = p.close(id)
		case p.at(TokenLParen):
			id := p.open(KindCallExpr, start)
			p.adopt(id, expr)
			p.parseArgs(id)
			expr = p.close(id)
		default:
			return expr
		}
	}
}

func (p *parser) parseArgs(call NodeID) {
	p.advance() // (

	for !p.at(TokenRParen) && p.canStartExpr() {
		p.adopt(call, p.parseExpr())

		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}

	p.expect(TokenRParen, "')'")
}

func (p *parser) parsePrimary() NodeID {
	start := p.start()

	switch p.tok().Type {
	case TokenInt, TokenFloat, TokenString, TokenTrue, TokenFalse, TokenNull:
		id := p.open(KindLiteralExpr, start)
		p.tree.Nodes[id].Name = p.advance()

		return p.close(id)
	case TokenThis:
		id := p.open(KindThisExpr, start)
		p.tree.Nodes[id].Name = p.advance()

		return p.close(id)
	case TokenIdent:
		id := p.open(KindNameExpr, start)
		p.tree.Nodes[id].Name = p.advance()

		return p.close(id)
	case TokenNew:
		id := p.open(KindNewExpr, start)
		p.advance()

		if p.at(TokenIdent) {
			ref := p.parseTypeRef()
			p.adopt(id, ref)
			p.tree.Nodes[id].TypeRef = ref
			p.tree.Nodes[id].Name = p.tree.Nodes[ref].Name
		} else {
			p.errorf("expected class name, found %s", describe(p.tok()))
		}

		if p.at(TokenLParen) {
			p.parseArgs(id)
		} else {
			p.errorf("expected '(', found %s", describe(p.tok()))
		}

		return p.close(id)
	case TokenLParen:
		id := p.open(KindParenExpr, start)
		p.advance()

		if p.canStartExpr() {
			p.adopt(id, p.parseExpr())
		} else {
			p.errorf("expected expression, found %s", describe(p.tok()))
		}

		p.expect(TokenRParen, "')'")

		return p.close(id)
	default:
		p.errorf("expected expression, found %s", describe(p.tok()))

		return p.open(KindErrorExpr, start)
	}
}
