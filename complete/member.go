package complete

import (
	"github.com/rlch/kalc/analysis"
	"github.com/rlch/kalc/ast"
	"github.com/rlch/kalc/types"
)

// memberFilter selects members by their static modifier.
type memberFilter int

const (
	anyMember memberFilter = iota
	instanceMembers
	staticMembers
)

func (f memberFilter) accepts(static bool) bool {
	switch f {
	case instanceMembers:
		return !static
	case staticMembers:
		return static
	default:
		return true
	}
}

// nodeAt returns the semantic node of the deepest expression containing offset.
func (r *request) nodeAt(offset int) (*ast.Node, bool) {
	id, ok := r.syntax.Enclosing(offset, analysis.Expression)
	if !ok {
		return nil, false
	}

	return r.unit.Node(id)
}

// memberItems offers the members of the expression ending at boundary:
// instance members of a value, static members of a class reference.
func (r *request) memberItems(boundary int) []Item {
	node, ok := r.nodeAt(boundary)
	if !ok {
		return nil
	}

	switch node.Kind() {
	case ast.KindExpression:
		ot, ok := node.Type().(types.ObjectType)
		if !ok {
			return nil
		}

		return r.membersOf(ot, instanceMembers)
	case ast.KindClassReference:
		return r.membersOf(node.Class().Type(), staticMembers)
	case ast.KindOther:
		return nil
	}

	return nil
}

// membersOf lists the fields and methods of t, inherited ones included.
// Constructors and initializers are never offered.
func (r *request) membersOf(t types.ObjectType, filter memberFilter) []Item {
	var items []Item

	for _, f := range t.FieldDescriptors() {
		if filter.accepts(f.IsStatic()) {
			items = append(items, FieldItem{Field: f, Caret: r.caret})
		}
	}

	for _, m := range t.MethodDescriptors(true, true) {
		if m.IsSpecial() || !filter.accepts(m.IsStatic()) {
			continue
		}

		items = append(items, MethodItem{Method: m, Caret: r.caret})
	}

	return items
}
