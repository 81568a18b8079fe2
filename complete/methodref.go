package complete

import (
	"github.com/rlch/kalc/ast"
	"github.com/rlch/kalc/types"
)

// methodRefItems offers one item per method name of the expression or class
// ending at boundary, instance and static alike.
func (r *request) methodRefItems(boundary int) []Item {
	node, ok := r.nodeAt(boundary)
	if !ok {
		return nil
	}

	var ot types.ObjectType

	switch node.Kind() {
	case ast.KindExpression:
		t, ok := node.Type().(types.ObjectType)
		if !ok {
			return nil
		}

		ot = t
	case ast.KindClassReference:
		ot = node.Class().Type()
	case ast.KindOther:
		return nil
	}

	if ot == nil {
		return nil
	}

	var items []Item

	for _, m := range ot.MethodDescriptors(true, true) {
		if m.IsSpecial() {
			continue
		}

		items = append(items, MethodRefItem{Method: m.Name, Owner: ot.Class(), Caret: r.caret})
	}

	return items
}
