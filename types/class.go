package types

import (
	"strings"
)

// Special method names.
const (
	ConstructorName = "<init>"
	InitializerName = "<clinit>"
)

// Well-known class names.
const (
	ObjectClassName = "Object"
	NumberClassName = "Number"
	StringClassName = "String"
)

// Modifier is a set of declaration modifiers.
type Modifier uint8

// Modifiers.
const (
	ModStatic Modifier = 1 << iota
	ModFinal
	ModPrivate
)

// IsStatic reports whether the static modifier is set.
func (m Modifier) IsStatic() bool { return m&ModStatic != 0 }

func (m Modifier) String() string {
	var parts []string

	if m&ModPrivate != 0 {
		parts = append(parts, "private")
	}

	if m&ModStatic != 0 {
		parts = append(parts, "static")
	}

	if m&ModFinal != 0 {
		parts = append(parts, "final")
	}

	return strings.Join(parts, " ")
}

// FieldDescriptor describes a field.
type FieldDescriptor struct {
	Name      string
	Type      Type
	Modifiers Modifier
	Owner     *Class
}

// IsStatic reports whether the field is static.
func (f *FieldDescriptor) IsStatic() bool { return f.Modifiers.IsStatic() }

// ParameterDescriptor describes a method parameter.
type ParameterDescriptor struct {
	Name string
	Type Type
}

// MethodDescriptor describes a method, constructor or static initializer.
type MethodDescriptor struct {
	Name      string
	Modifiers Modifier
	Params    []ParameterDescriptor
	Return    Type
	Owner     *Class
}

// IsStatic reports whether the method is static.
func (m *MethodDescriptor) IsStatic() bool { return m.Modifiers.IsStatic() }

// IsSpecial reports whether the method is a constructor or initializer.
func (m *MethodDescriptor) IsSpecial() bool { return strings.HasPrefix(m.Name, "<") }

// Signature returns the name and parameter types, e.g. "substring(int,int)".
func (m *MethodDescriptor) Signature() string {
	var b strings.Builder

	b.WriteString(m.Name)
	b.WriteByte('(')

	for i, p := range m.Params {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(typeName(p.Type))
	}

	b.WriteByte(')')

	return b.String()
}

// Declaration renders the method as it would be declared,
// e.g. "String substring(int beginIndex, int endIndex)".
func (m *MethodDescriptor) Declaration() string {
	var b strings.Builder

	if m.IsStatic() {
		b.WriteString("static ")
	}

	b.WriteString(typeName(m.Return))
	b.WriteByte(' ')
	b.WriteString(m.Name)
	b.WriteByte('(')

	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(typeName(p.Type))

		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
	}

	b.WriteByte(')')

	return b.String()
}

func typeName(t Type) string {
	if t == nil {
		return "?"
	}

	return t.String()
}

// Class is a class declaration: its superclass and declared members.
//
// Classes are built once, by the library loader or the compiler, and are
// read-only afterwards.
type Class struct {
	Name      string
	Super     *Class
	Modifiers Modifier

	fields  []*FieldDescriptor
	methods []*MethodDescriptor
	typ     *ClassType
}

// NewClass creates a class with the given superclass (nil for the root class).
func NewClass(name string, super *Class) *Class {
	c := &Class{Name: name, Super: super}
	c.typ = &ClassType{class: c}

	return c
}

// Type returns the object type of the class.
func (c *Class) Type() *ClassType { return c.typ }

// AddField declares a field.
func (c *Class) AddField(name string, t Type, mods Modifier) *FieldDescriptor {
	f := &FieldDescriptor{Name: name, Type: t, Modifiers: mods, Owner: c}
	c.fields = append(c.fields, f)

	return f
}

// AddMethod declares a method.
func (c *Class) AddMethod(name string, mods Modifier, ret Type, params ...ParameterDescriptor) *MethodDescriptor {
	m := &MethodDescriptor{Name: name, Modifiers: mods, Params: params, Return: ret, Owner: c}
	c.methods = append(c.methods, m)

	return m
}

// DeclaredFields returns the fields declared on the class itself.
func (c *Class) DeclaredFields() []*FieldDescriptor { return c.fields }

// DeclaredMethods returns the methods declared on the class itself.
func (c *Class) DeclaredMethods() []*MethodDescriptor { return c.methods }

// HasConstructor reports whether the class declares a constructor.
func (c *Class) HasConstructor() bool {
	for _, m := range c.methods {
		if m.Name == ConstructorName {
			return true
		}
	}

	return false
}

// IsSubclassOf reports whether c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.Super {
		if k == other {
			return true
		}
	}

	return false
}

func (c *Class) String() string { return c.Name }
