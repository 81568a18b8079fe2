// Package types models the values the Kal compiler reasons about: primitive
// types, class types, and the field and method descriptors of classes.
package types

// Type is a value type.
type Type interface {
	// String returns the source-level name of the type.
	String() string
	// IsAssignableFrom reports whether a value of type other can be stored in
	// a variable of this type, boxing and unboxing included.
	IsAssignableFrom(other Type) bool
}

// ObjectType is a type with members. Class types are the only object types.
type ObjectType interface {
	Type
	// Class returns the class behind the type.
	Class() *Class
	// FieldDescriptors returns the fields of the class and its superclasses.
	// A field shadows same-named fields of superclasses.
	FieldDescriptors() []*FieldDescriptor
	// MethodDescriptors returns the methods of the class. Inherited methods are
	// included when includeInherited is set, minus those overridden by a
	// subclass and minus superclass constructors. Static methods are included
	// only when includeStatic is set.
	MethodDescriptors(includeInherited, includeStatic bool) []*MethodDescriptor
}

// Primitive is a non-object value type.
type Primitive struct {
	name  string
	boxed string
	// rank orders numeric types for widening; zero for non-numeric types.
	rank int
}

// Primitive types.
var (
	Boolean = &Primitive{name: "boolean", boxed: "Boolean"}
	Char    = &Primitive{name: "char", boxed: "Character", rank: 1}
	Int     = &Primitive{name: "int", boxed: "Integer", rank: 2}
	Long    = &Primitive{name: "long", boxed: "Long", rank: 3}
	Float   = &Primitive{name: "float", boxed: "Float", rank: 4}
	Double  = &Primitive{name: "double", boxed: "Double", rank: 5}
	Void    = &Primitive{name: "void"}
)

var primitives = map[string]*Primitive{
	"boolean": Boolean,
	"char":    Char,
	"int":     Int,
	"long":    Long,
	"float":   Float,
	"double":  Double,
	"void":    Void,
}

// PrimitiveByName returns the primitive type with the given name.
func PrimitiveByName(name string) (*Primitive, bool) {
	p, ok := primitives[name]

	return p, ok
}

func (p *Primitive) String() string { return p.name }

// BoxedName returns the name of the wrapper class, or "" for void.
func (p *Primitive) BoxedName() string { return p.boxed }

// IsNumeric reports whether the type takes part in numeric widening.
func (p *Primitive) IsNumeric() bool { return p.rank > 0 }

// IsAssignableFrom implements Type.
func (p *Primitive) IsAssignableFrom(other Type) bool {
	if p == Void {
		return false
	}

	switch o := other.(type) {
	case *Primitive:
		return p.widensFrom(o)
	case *ClassType:
		// Unboxing, then widening.
		for _, src := range primitives {
			if src.boxed != "" && src.boxed == o.class.Name {
				return p.widensFrom(src)
			}
		}

		return false
	default:
		return false
	}
}

func (p *Primitive) widensFrom(o *Primitive) bool {
	if p == o {
		return true
	}

	return p.IsNumeric() && o.IsNumeric() && o.rank < p.rank
}

type nullType struct{}

// Null is the type of the null literal.
var Null Type = nullType{}

func (nullType) String() string { return "null" }

func (nullType) IsAssignableFrom(other Type) bool {
	return other == Null
}

// ClassType is the object type of a class.
type ClassType struct {
	class *Class
}

func (t *ClassType) String() string { return t.class.Name }

// Class implements ObjectType.
func (t *ClassType) Class() *Class { return t.class }

// IsAssignableFrom implements Type.
func (t *ClassType) IsAssignableFrom(other Type) bool {
	switch o := other.(type) {
	case *ClassType:
		return o.class.IsSubclassOf(t.class)
	case *Primitive:
		if o == Void {
			return false
		}

		switch t.class.Name {
		case ObjectClassName:
			return true
		case NumberClassName:
			return o.IsNumeric()
		default:
			return t.class.Name == o.boxed
		}
	default:
		return other == Null
	}
}

// FieldDescriptors implements ObjectType.
func (t *ClassType) FieldDescriptors() []*FieldDescriptor {
	var fields []*FieldDescriptor

	seen := make(map[string]struct{})

	for c := t.class; c != nil; c = c.Super {
		for _, f := range c.fields {
			if _, ok := seen[f.Name]; ok {
				continue
			}

			seen[f.Name] = struct{}{}
			fields = append(fields, f)
		}
	}

	return fields
}

// MethodDescriptors implements ObjectType.
func (t *ClassType) MethodDescriptors(includeInherited, includeStatic bool) []*MethodDescriptor {
	var methods []*MethodDescriptor

	seen := make(map[string]struct{})

	for c := t.class; c != nil; c = c.Super {
		for _, m := range c.methods {
			if c != t.class && m.IsSpecial() {
				continue
			}

			if !includeStatic && m.IsStatic() {
				continue
			}

			sig := m.Signature()
			if _, ok := seen[sig]; ok {
				continue
			}

			seen[sig] = struct{}{}
			methods = append(methods, m)
		}

		if !includeInherited {
			break
		}
	}

	return methods
}

var _ ObjectType = (*ClassType)(nil)
