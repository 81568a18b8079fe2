package kalc

import "fmt"

// NodeID indexes a node in its Tree's arena.
type NodeID int

// NoNode marks an absent node reference.
const NoNode NodeID = -1

// NodeKind identifies the syntactic form of a node.
type NodeKind int

// Node kinds.
const (
	KindCompilationUnit NodeKind = iota
	KindImport
	KindClass
	KindField
	KindMethod
	KindParam
	KindTypeRef
	KindBlock

	// Statements.
	KindVarStat
	KindExprStat
	KindReturnStat
	KindIfStat
	KindWhileStat
	KindBlockStat

	// Expressions.
	KindNameExpr
	KindLiteralExpr
	KindThisExpr
	KindParenExpr
	KindMemberExpr
	KindCallExpr
	KindMixinCallExpr
	KindMethodRefExpr
	KindNewExpr
	KindUnaryExpr
	KindBinaryExpr
	KindAssignExpr
	KindErrorExpr
)

var nodeKindNames = [...]string{
	KindCompilationUnit: "CompilationUnit",
	KindImport:          "Import",
	KindClass:           "Class",
	KindField:           "Field",
	KindMethod:          "Method",
	KindParam:           "Param",
	KindTypeRef:         "TypeRef",
	KindBlock:           "Block",
	KindVarStat:         "VarStat",
	KindExprStat:        "ExprStat",
	KindReturnStat:      "ReturnStat",
	KindIfStat:          "IfStat",
	KindWhileStat:       "WhileStat",
	KindBlockStat:       "BlockStat",
	KindNameExpr:        "NameExpr",
	KindLiteralExpr:     "LiteralExpr",
	KindThisExpr:        "ThisExpr",
	KindParenExpr:       "ParenExpr",
	KindMemberExpr:      "MemberExpr",
	KindCallExpr:        "CallExpr",
	KindMixinCallExpr:   "MixinCallExpr",
	KindMethodRefExpr:   "MethodRefExpr",
	KindNewExpr:         "NewExpr",
	KindUnaryExpr:       "UnaryExpr",
	KindBinaryExpr:      "BinaryExpr",
	KindAssignExpr:      "AssignExpr",
	KindErrorExpr:       "ErrorExpr",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}

	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// IsStatement reports whether nodes of this kind are statements.
func (k NodeKind) IsStatement() bool {
	return k >= KindVarStat && k <= KindBlockStat
}

// IsExpression reports whether nodes of this kind are expressions.
func (k NodeKind) IsExpression() bool {
	return k >= KindNameExpr && k <= KindErrorExpr
}

// NodeFlags carries modifiers recorded by the parser.
type NodeFlags uint8

const (
	// FlagStatic marks static members.
	FlagStatic NodeFlags = 1 << iota
	// FlagInferred marks `var` declarations whose type comes from the initializer.
	FlagInferred
	// FlagScript marks the synthetic members of a script.
	FlagScript
	// FlagConstructor marks constructors.
	FlagConstructor
	// FlagInitializer marks static initializer blocks.
	FlagInitializer
)

// Node is a syntax tree node. Children are ordered by source position.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Span     Span
	Parent   NodeID
	Children []NodeID
	// Name is the token index of the node's identifier, or -1.
	Name int
	// TypeRef is the declared type reference child, or NoNode.
	TypeRef NodeID
	Flags   NodeFlags
}

// HasFlag reports whether all of flags are set.
func (n *Node) HasFlag(flags NodeFlags) bool {
	return n.Flags&flags == flags
}

// ImportDecl is a parsed import declaration.
type ImportDecl struct {
	Span  Span
	Mixin bool
	// Class is the imported class name.
	Class string
	// Member is the imported member for `import mixin Class.member`, empty otherwise.
	Member string
	// Alias is the `as` name, empty when absent.
	Alias string
}

// Tree is an immutable parsed compilation unit.
type Tree struct {
	Source  string
	Tokens  []Token
	Nodes   []Node
	Root    NodeID
	Imports []ImportDecl
	// Errors are the syntax errors the parser recovered from.
	Errors []*SyntaxError
}

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.Nodes) {
		return nil
	}

	return &t.Nodes[id]
}

// NameText returns the identifier text of a node, or "".
func (t *Tree) NameText(id NodeID) string {
	n := t.Node(id)
	if n == nil || n.Name < 0 || n.Name >= len(t.Tokens) {
		return ""
	}

	return t.Tokens[n.Name].Text
}

// Text returns the source text covered by the node.
func (t *Tree) Text(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}

	return t.Source[n.Span.Start:n.Span.End]
}

// Walk visits id and its descendants depth-first. Returning false from fn
// skips the children of that node.
func (t *Tree) Walk(id NodeID, fn func(*Node) bool) {
	n := t.Node(id)
	if n == nil {
		return
	}

	if !fn(n) {
		return
	}

	for _, child := range n.Children {
		t.Walk(child, fn)
	}
}

// SyntaxError is a recoverable parse error.
type SyntaxError struct {
	Span    Span
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Span.Start, e.Span.End, e.Message)
}
