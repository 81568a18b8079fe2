package kalc

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token type constants - negative values as per participle convention.
const (
	TokenEOF         lexer.TokenType = lexer.EOF
	TokenComment     lexer.TokenType = -(iota + 2) //nolint:mnd // participle convention
	TokenWhitespace                                // spaces, tabs, newlines
	TokenIdent                                     // identifiers, including primitive type names
	TokenInt                                       // 123
	TokenFloat                                     // 1.5, 2e10
	TokenString                                    // "..." or '...'
	TokenDot                                       // .
	TokenDotDot                                    // ..
	TokenDoubleColon                               // ::
	TokenColon                                     // :
	TokenComma                                     // ,
	TokenSemi                                      // ;
	TokenLParen                                    // (
	TokenRParen                                    // )
	TokenLBracket                                  // [
	TokenRBracket                                  // ]
	TokenLBrace                                    // {
	TokenRBrace                                    // }
	TokenAssign                                    // =
	TokenOp                                        // other operators
	TokenInvalid                                   // characters the language does not know
	// Keywords - distinct token types so the parser can tell them from identifiers.
	TokenClass       // class
	TokenExtends     // extends
	TokenStatic      // static
	TokenImport      // import
	TokenMixin       // mixin
	TokenAs          // as
	TokenVar         // var
	TokenReturn      // return
	TokenIf          // if
	TokenElse        // else
	TokenWhile       // while
	TokenNew         // new
	TokenThis        // this
	TokenTrue        // true
	TokenFalse       // false
	TokenNull        // null
	TokenConstructor // constructor
)

var keywords = map[string]lexer.TokenType{
	"class":       TokenClass,
	"extends":     TokenExtends,
	"static":      TokenStatic,
	"import":      TokenImport,
	"mixin":       TokenMixin,
	"as":          TokenAs,
	"var":         TokenVar,
	"return":      TokenReturn,
	"if":          TokenIf,
	"else":        TokenElse,
	"while":       TokenWhile,
	"new":         TokenNew,
	"this":        TokenThis,
	"true":        TokenTrue,
	"false":       TokenFalse,
	"null":        TokenNull,
	"constructor": TokenConstructor,
}

// Definition is the participle lexer definition for Kal source.
//
// It never fails: characters the language does not know are emitted as
// TokenInvalid and unterminated strings run to the end of the line.
var Definition lexer.Definition = newKalLexer()

type kalDefinition struct {
	symbols map[string]lexer.TokenType
}

func newKalLexer() *kalDefinition {
	symbols := map[string]lexer.TokenType{
		"EOF":        TokenEOF,
		"Comment":    TokenComment,
		"Whitespace": TokenWhitespace,
		"Ident":      TokenIdent,
		"Int":        TokenInt,
		"Float":      TokenFloat,
		"String":     TokenString,
		"Op":         TokenOp,
		"Invalid":    TokenInvalid,
		".":          TokenDot,
		"..":         TokenDotDot,
		"::":         TokenDoubleColon,
		":":          TokenColon,
		",":          TokenComma,
		";":          TokenSemi,
		"(":          TokenLParen,
		")":          TokenRParen,
		"[":          TokenLBracket,
		"]":          TokenRBracket,
		"{":          TokenLBrace,
		"}":          TokenRBrace,
		"=":          TokenAssign,
	}
	for kw, typ := range keywords {
		symbols[kw] = typ
	}

	return &kalDefinition{symbols: symbols}
}

// Symbols returns the mapping of symbol names to token types.
func (d *kalDefinition) Symbols() map[string]lexer.TokenType {
	return d.symbols
}

// Lex creates a new Lexer for the given reader.
//
//nolint:ireturn // Required by participle's lexer.Definition interface.
func (d *kalDefinition) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return d.LexBytes(filename, data)
}

// LexBytes implements lexer.BytesDefinition.
//
//nolint:ireturn // Required by participle's lexer.BytesDefinition interface.
func (d *kalDefinition) LexBytes(filename string, data []byte) (lexer.Lexer, error) {
	return newLexerState(filename, string(data)), nil
}

// LexString implements lexer.StringDefinition.
//
//nolint:ireturn // Required by participle's lexer.StringDefinition interface.
func (d *kalDefinition) LexString(filename string, input string) (lexer.Lexer, error) {
	return newLexerState(filename, input), nil
}

// Token is a lexed token with its byte span, channel and stream index.
type Token struct {
	Type    lexer.TokenType
	Text    string
	Span    Span
	Channel Channel
	// Index is the position of the token in the full stream, hidden tokens included.
	Index int
}

// Start returns the offset of the first byte of the token.
func (t Token) Start() int { return t.Span.Start }

// Stop returns the offset of the last byte of the token (inclusive).
// For the zero-width EOF token it is Start()-1.
func (t Token) Stop() int { return t.Span.End - 1 }

// EOF reports whether this is the end-of-input token.
func (t Token) EOF() bool { return t.Type == TokenEOF }

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Type == TokenIdent }

func (t Token) String() string {
	if t.EOF() {
		return "<EOF>"
	}

	return t.Text
}

// Tokenize lexes source into a full token stream, trivia included.
// The stream always ends with a zero-width EOF token.
func Tokenize(source string) []Token {
	l := newLexerState("", source)

	var tokens []Token

	for {
		tok := l.next()

		channel := ChannelDefault
		if tok.Type == TokenWhitespace || tok.Type == TokenComment {
			channel = ChannelHidden
		}

		tokens = append(tokens, Token{
			Type:    tok.Type,
			Text:    tok.Value,
			Span:    Span{Start: tok.Pos.Offset, End: tok.Pos.Offset + len(tok.Value)},
			Channel: channel,
			Index:   len(tokens),
		})

		if tok.EOF() {
			return tokens
		}
	}
}

// lexerState holds the state for lexing.
type lexerState struct {
	filename string
	input    string
	offset   int
	line     int
	col      int
}

func newLexerState(filename, input string) *lexerState {
	return &lexerState{
		filename: filename,
		input:    input,
		line:     1,
		col:      1,
	}
}

// Next returns the next token. It never returns an error.
func (l *lexerState) Next() (lexer.Token, error) {
	return l.next(), nil
}

func (l *lexerState) next() lexer.Token {
	if l.eof() {
		return lexer.EOFToken(l.pos())
	}

	start := l.pos()
	r := l.peek()

	if isSpace(r) {
		for !l.eof() && isSpace(l.peek()) {
			l.advance()
		}

		return l.token(TokenWhitespace, start)
	}

	if r == '/' && l.peekAt(1) == '/' {
		for !l.eof() && l.peek() != '\n' {
			l.advance()
		}

		return l.token(TokenComment, start)
	}

	if r == '"' || r == '\'' {
		return l.scanString(start, r)
	}

	if isDigit(r) {
		return l.scanNumber(start)
	}

	if isIdentStart(r) {
		l.advance()

		for !l.eof() && isIdentContinue(l.peek()) {
			l.advance()
		}

		tok := l.token(TokenIdent, start)
		if kwType, isKeyword := keywords[tok.Value]; isKeyword {
			tok.Type = kwType
		}

		return tok
	}

	// Multi-character operators (check before single-char)
	if tok, ok := l.scanMultiCharOp(start); ok {
		return tok
	}

	l.advance()

	switch r {
	case '.':
		return l.token(TokenDot, start)
	case ':':
		return l.token(TokenColon, start)
	case ',':
		return l.token(TokenComma, start)
	case ';':
		return l.token(TokenSemi, start)
	case '(':
		return l.token(TokenLParen, start)
	case ')':
		return l.token(TokenRParen, start)
	case '[':
		return l.token(TokenLBracket, start)
	case ']':
		return l.token(TokenRBracket, start)
	case '{':
		return l.token(TokenLBrace, start)
	case '}':
		return l.token(TokenRBrace, start)
	case '=':
		return l.token(TokenAssign, start)
	}

	if strings.ContainsRune("+-*/%!<>&|", r) {
		return l.token(TokenOp, start)
	}

	return l.token(TokenInvalid, start)
}

func (l *lexerState) pos() lexer.Position {
	return lexer.Position{
		Filename: l.filename,
		Offset:   l.offset,
		Line:     l.line,
		Column:   l.col,
	}
}

func (l *lexerState) eof() bool {
	return l.offset >= len(l.input)
}

func (l *lexerState) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])

	return r
}

func (l *lexerState) peekAt(n int) rune {
	off := l.offset + n
	if off >= len(l.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[off:])

	return r
}

func (l *lexerState) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.offset:])
	l.offset += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *lexerState) match(s string) bool {
	return strings.HasPrefix(l.input[l.offset:], s)
}

func (l *lexerState) token(typ lexer.TokenType, start lexer.Position) lexer.Token {
	return lexer.Token{
		Type:  typ,
		Value: l.input[start.Offset:l.offset],
		Pos:   start,
	}
}

// scanString stops at the closing quote, or just before the newline when
// the string is unterminated.
func (l *lexerState) scanString(start lexer.Position, quote rune) lexer.Token {
	l.advance() // opening quote

	for !l.eof() {
		ch := l.peek()
		if ch == '\\' && l.peekAt(1) != 0 && l.peekAt(1) != '\n' {
			l.advance()
			l.advance()

			continue
		}

		if ch == quote {
			l.advance()

			break
		}

		if ch == '\n' {
			break
		}

		l.advance()
	}

	return l.token(TokenString, start)
}

var multiCharOps = []struct {
	text string
	typ  lexer.TokenType
}{
	{"::", TokenDoubleColon},
	{"..", TokenDotDot},
	{"&&", TokenOp},
	{"||", TokenOp},
	{"==", TokenOp},
	{"!=", TokenOp},
	{"<=", TokenOp},
	{">=", TokenOp},
}

func (l *lexerState) scanMultiCharOp(start lexer.Position) (lexer.Token, bool) {
	for _, op := range multiCharOps {
		if l.match(op.text) {
			for range len(op.text) {
				l.advance()
			}

			return l.token(op.typ, start), true
		}
	}

	return lexer.Token{}, false
}

func (l *lexerState) scanNumber(start lexer.Position) lexer.Token {
	typ := TokenInt

	for !l.eof() && (isDigit(l.peek()) || l.peek() == '_') {
		l.advance()
	}

	// "1." followed by anything but a digit is an int and a dot.
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		typ = TokenFloat

		l.advance()

		for !l.eof() && (isDigit(l.peek()) || l.peek() == '_') {
			l.advance()
		}
	}

	if (l.peek() == 'e' || l.peek() == 'E') &&
		(isDigit(l.peekAt(1)) || ((l.peekAt(1) == '+' || l.peekAt(1) == '-') && isDigit(l.peekAt(2)))) {
		typ = TokenFloat

		l.advance()

		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	return l.token(typ, start)
}

// IsKeywordToken returns true if the token type is a reserved word.
func IsKeywordToken(typ lexer.TokenType) bool {
	return typ <= TokenClass && typ >= TokenConstructor
}

// Character helpers.

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
