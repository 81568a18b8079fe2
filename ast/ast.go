// Package ast holds the semantic nodes the binder attaches to syntax nodes.
//
// A Node is a tagged variant: an expression with a value type, a reference
// to a class (the `Math` in `Math.max`), or anything else. Consumers switch
// on Kind and read only the payload that belongs to it.
package ast

import (
	"fmt"

	"github.com/rlch/kalc/types"
)

// Kind tags the variant held by a Node.
type Kind int

// Node kinds.
const (
	// KindOther is a declaration or any node without a value type.
	KindOther Kind = iota
	// KindExpression is an expression whose type is known.
	KindExpression
	// KindClassReference is a name that resolves to a class rather than a value.
	KindClassReference
)

func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindExpression:
		return "expression"
	case KindClassReference:
		return "class reference"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a semantic node.
type Node struct {
	kind  Kind
	typ   types.Type
	class *types.Class
	label string
}

// Expression returns an expression node of type t.
func Expression(t types.Type) *Node {
	return &Node{kind: KindExpression, typ: t}
}

// ClassReference returns a node referring to class c.
func ClassReference(c *types.Class) *Node {
	return &Node{kind: KindClassReference, class: c}
}

// Other returns a node without a value, described by label.
func Other(label string) *Node {
	return &Node{kind: KindOther, label: label}
}

// Kind returns the variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Type returns the expression type. It is nil unless Kind is KindExpression.
func (n *Node) Type() types.Type { return n.typ }

// Class returns the referenced class. It is nil unless Kind is KindClassReference.
func (n *Node) Class() *types.Class { return n.class }

func (n *Node) String() string {
	switch n.kind {
	case KindExpression:
		if n.typ == nil {
			return "expression: ?"
		}

		return "expression: " + n.typ.String()
	case KindClassReference:
		return "class: " + n.class.Name
	default:
		return n.label
	}
}

// LocalVar is a local variable declaration.
type LocalVar struct {
	Name string
	Type types.Type
	// Offset is the byte offset of the declaring statement.
	Offset int
}

// Parameter is a method parameter.
type Parameter struct {
	Name string
	Type types.Type
}

// Method is the method enclosing a statement.
type Method struct {
	Name   string
	Static bool
	Params []Parameter
	Class  *types.Class
}
