package complete

import (
	"github.com/rlch/kalc/ast"
	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/types"
)

// mixinItems offers the imported mixin methods applicable to the expression
// ending at boundary. A mixin applies when its first parameter accepts the
// receiver type; value expressions and class references both count.
func (r *request) mixinItems(boundary int) []Item {
	node, ok := r.nodeAt(boundary)
	if !ok {
		return nil
	}

	var recv types.Type

	switch node.Kind() {
	case ast.KindExpression:
		recv = node.Type()
	case ast.KindClassReference:
		recv = node.Class().Type()
	case ast.KindOther:
		return nil
	}

	if recv == nil {
		return nil
	}

	var items []Item

	for alias, imp := range mixinTable(r.unit.Mixins()).All() {
		for _, m := range imp.Class.DeclaredMethods() {
			if m.Name != imp.Member || !m.IsStatic() || len(m.Params) == 0 {
				continue
			}

			if first := m.Params[0].Type; first == nil || !first.IsAssignableFrom(recv) {
				continue
			}

			item := MethodItem{Method: m, Caret: r.caret}
			if alias != m.Name {
				item.Alias = alias
			}

			items = append(items, item)
		}
	}

	return items
}

// mixinTable merges the mixin imports into one table keyed by the name a
// mixin is called by. Whole-class imports go first, a later class replacing
// an earlier one on a name clash; named imports then override them.
//
// TODO: surface every clashing whole-class candidate and let the
// assignability check pick, instead of keeping only the last import.
func mixinTable(mixins compiler.MixinImports) *orderedMap[string, compiler.MemberImport] {
	table := newOrderedMap[string, compiler.MemberImport]()

	for _, c := range mixins.Classes {
		for _, m := range c.DeclaredMethods() {
			if !m.IsStatic() || m.IsSpecial() {
				continue
			}

			table.Set(m.Name, compiler.MemberImport{Alias: m.Name, Class: c, Member: m.Name})
		}
	}

	for _, imp := range mixins.Named {
		table.Set(imp.Alias, imp)
	}

	return table
}
