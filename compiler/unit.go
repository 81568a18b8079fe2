package compiler

import (
	"github.com/rlch/kalc"
	"github.com/rlch/kalc/ast"
	"github.com/rlch/kalc/types"
	"go.uber.org/multierr"
)

// ScopeInfo describes what is visible at the start of a statement.
type ScopeInfo struct {
	// This is the receiver type, or nil in a static context.
	This *types.ClassType
	// Locals are the local variables declared before the statement, in
	// declaration order.
	Locals []*ast.LocalVar
	// Method is the method containing the statement.
	Method *ast.Method
}

// MemberImport is a single member imported as a mixin, e.g.
// `import mixin Objects.isNull as nil`.
type MemberImport struct {
	// Alias is the name the member is offered under.
	Alias  string
	Class  *types.Class
	Member string
}

// Call is the target of a call, mixin call or new expression.
type Call struct {
	// Method is the overload selected for the arguments, nil when none fits.
	Method *types.MethodDescriptor
	// Candidates are the methods the call could name, in declaration order.
	Candidates []*types.MethodDescriptor
	// Mixin marks a mixin call, whose receiver is the first parameter.
	Mixin bool
}

// Param returns the parameter index that argument i binds to.
func (c *Call) Param(i int) int {
	if c.Mixin {
		return i + 1
	}

	return i
}

// MixinImports lists the mixin imports of a unit in source order.
type MixinImports struct {
	// Classes are whole-class imports: every static method is imported.
	Classes []*types.Class
	// Named are single-member imports.
	Named []MemberImport
}

// Unit is the result of a partial compile. It is immutable and owned by the
// request that produced it; its tables are indexed by the NodeIDs of its own
// tree and mean nothing for any other tree.
type Unit struct {
	identifier  string
	script      bool
	phase       Phase
	tree        *kalc.Tree
	lib         *types.Library
	nodes       []*ast.Node
	scopes      []*ScopeInfo
	calls       []*Call
	mixins      MixinImports
	classes     []*types.Class
	diagnostics []*Diagnostic
}

func newUnit(identifier string, script bool, tree *kalc.Tree, lib *types.Library) *Unit {
	return &Unit{
		identifier: identifier,
		script:     script,
		tree:       tree,
		lib:        lib,
		nodes:      make([]*ast.Node, len(tree.Nodes)),
		scopes:     make([]*ScopeInfo, len(tree.Nodes)),
		calls:      make([]*Call, len(tree.Nodes)),
	}
}

// Identifier returns the name the unit was compiled under.
func (u *Unit) Identifier() string { return u.identifier }

// Script reports whether the unit was compiled in script mode.
func (u *Unit) Script() bool { return u.script }

// Phase returns the last phase the compile completed.
func (u *Unit) Phase() Phase { return u.phase }

// Source returns the compiled source text.
func (u *Unit) Source() string { return u.tree.Source }

// Tokens returns the full token stream, hidden tokens included.
func (u *Unit) Tokens() []kalc.Token { return u.tree.Tokens }

// Tree returns the syntax tree.
func (u *Unit) Tree() *kalc.Tree { return u.tree }

// Node returns the semantic node bound to a syntax node.
func (u *Unit) Node(id kalc.NodeID) (*ast.Node, bool) {
	if id < 0 || int(id) >= len(u.nodes) || u.nodes[id] == nil {
		return nil, false
	}

	return u.nodes[id], true
}

// Scope returns the scope info recorded for a statement node.
func (u *Unit) Scope(id kalc.NodeID) (*ScopeInfo, bool) {
	if id < 0 || int(id) >= len(u.scopes) || u.scopes[id] == nil {
		return nil, false
	}

	return u.scopes[id], true
}

// Call returns the target recorded for a call node.
func (u *Unit) Call(id kalc.NodeID) (*Call, bool) {
	if id < 0 || int(id) >= len(u.calls) || u.calls[id] == nil {
		return nil, false
	}

	return u.calls[id], true
}

// Mixins returns the mixin import table.
func (u *Unit) Mixins() MixinImports { return u.mixins }

// Classes returns the classes declared by the unit, the script class first.
func (u *Unit) Classes() []*types.Class { return u.classes }

// Library returns the unit's class library: the declared classes on top of
// the compiler's library.
func (u *Unit) Library() *types.Library { return u.lib }

// Diagnostics returns every diagnostic reported while compiling.
func (u *Unit) Diagnostics() []*Diagnostic { return u.diagnostics }

// Err combines the error-severity diagnostics, or returns nil.
func (u *Unit) Err() error {
	var err error

	for _, d := range u.diagnostics {
		if d.Severity == SeverityError {
			err = multierr.Append(err, d)
		}
	}

	return err
}
