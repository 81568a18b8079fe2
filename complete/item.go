package complete

import (
	"strings"

	"github.com/rlch/kalc/types"
)

// ItemKind identifies the variant of a completion item.
type ItemKind string

// Item kinds.
const (
	ItemVariable  ItemKind = "variable"
	ItemField     ItemKind = "field"
	ItemMethod    ItemKind = "method"
	ItemMethodRef ItemKind = "method_ref"
)

// Item is a completion candidate. Items are values; the variants are
// VariableItem, FieldItem, MethodItem and MethodRefItem.
type Item interface {
	// Kind returns the variant tag.
	Kind() ItemKind
	// Name returns the text the item inserts.
	Name() string
	// Anchor returns the caret offset the item was computed for.
	Anchor() int
	// Label returns the text to show in a completion list.
	Label() string
	// Detail returns a one-line description, usually a type or declaration.
	Detail() string

	key() itemKey
}

// itemKey identifies an item for deduplication.
type itemKey struct {
	kind      ItemKind
	owner     string
	name      string
	signature string
	offset    int
}

// VariableItem is a local variable or method parameter.
type VariableItem struct {
	Var  string
	Type types.Type
	// DeclOffset is the start of the declaring statement, or -1 for parameters.
	DeclOffset int
	Caret      int
}

func (i VariableItem) Kind() ItemKind { return ItemVariable }
func (i VariableItem) Name() string   { return i.Var }
func (i VariableItem) Anchor() int    { return i.Caret }
func (i VariableItem) Label() string  { return i.Var }
func (i VariableItem) Detail() string { return typeString(i.Type) }

// IsParameter reports whether the variable is a method parameter.
func (i VariableItem) IsParameter() bool { return i.DeclOffset < 0 }

func (i VariableItem) key() itemKey {
	return itemKey{kind: ItemVariable, name: i.Var, offset: i.DeclOffset}
}

// FieldItem is a field of a class.
type FieldItem struct {
	Field *types.FieldDescriptor
	Caret int
}

func (i FieldItem) Kind() ItemKind { return ItemField }
func (i FieldItem) Name() string   { return i.Field.Name }
func (i FieldItem) Anchor() int    { return i.Caret }
func (i FieldItem) Label() string  { return i.Field.Name }

func (i FieldItem) Detail() string {
	if i.Field.IsStatic() {
		return "static " + typeString(i.Field.Type)
	}

	return typeString(i.Field.Type)
}

func (i FieldItem) key() itemKey {
	return itemKey{kind: ItemField, owner: ownerName(i.Field.Owner), name: i.Field.Name}
}

// MethodItem is a method, offered for a call.
type MethodItem struct {
	Method *types.MethodDescriptor
	// Alias is the imported name of a mixin method, when it differs from the
	// declared name.
	Alias string
	Caret int
}

func (i MethodItem) Kind() ItemKind { return ItemMethod }

func (i MethodItem) Name() string {
	if i.Alias != "" {
		return i.Alias
	}

	return i.Method.Name
}

func (i MethodItem) Anchor() int { return i.Caret }

// Label renders the name and parameter list, e.g. "substring(int beginIndex)".
func (i MethodItem) Label() string {
	var b strings.Builder

	b.WriteString(i.Name())
	b.WriteByte('(')

	for n, p := range i.Method.Params {
		if n > 0 {
			b.WriteString(", ")
		}

		b.WriteString(typeString(p.Type))

		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
	}

	b.WriteByte(')')

	return b.String()
}

// Detail returns the declaration, e.g. "static int max(int a, int b)".
func (i MethodItem) Detail() string { return i.Method.Declaration() }

func (i MethodItem) key() itemKey {
	return itemKey{kind: ItemMethod, name: i.Name(), signature: i.Method.Signature()}
}

// MethodRefItem is a method name offered after `::`. Overloads collapse into
// one item.
type MethodRefItem struct {
	Method string
	Owner  *types.Class
	Caret  int
}

func (i MethodRefItem) Kind() ItemKind { return ItemMethodRef }
func (i MethodRefItem) Name() string   { return i.Method }
func (i MethodRefItem) Anchor() int    { return i.Caret }
func (i MethodRefItem) Label() string  { return i.Method }
func (i MethodRefItem) Detail() string { return ownerName(i.Owner) + "::" + i.Method }

func (i MethodRefItem) key() itemKey {
	return itemKey{kind: ItemMethodRef, name: i.Method}
}

func typeString(t types.Type) string {
	if t == nil {
		return ""
	}

	return t.String()
}

func ownerName(c *types.Class) string {
	if c == nil {
		return ""
	}

	return c.Name
}

// itemSet collects items, keeping the first of each key in insertion order.
type itemSet struct {
	items *orderedMap[itemKey, Item]
}

func newItemSet() *itemSet {
	return &itemSet{items: newOrderedMap[itemKey, Item]()}
}

func (s *itemSet) add(items ...Item) {
	for _, item := range items {
		s.items.SetIfAbsent(item.key(), item)
	}
}

// list returns the items; never nil.
func (s *itemSet) list() []Item {
	out := make([]Item, 0, s.items.Len())
	for _, item := range s.items.All() {
		out = append(out, item)
	}

	return out
}
