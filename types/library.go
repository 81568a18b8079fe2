package types

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownType is returned when a library refers to a type it cannot resolve.
var ErrUnknownType = errors.New("unknown type")

// Library is a set of classes addressable by name. A library may extend a
// parent; lookups fall back to the parent and definitions never touch it.
type Library struct {
	parent  *Library
	classes map[string]*Class
	order   []*Class
}

// NewLibrary creates an empty library on top of parent (which may be nil).
func NewLibrary(parent *Library) *Library {
	return &Library{parent: parent, classes: make(map[string]*Class)}
}

// Extend returns an empty child library of l.
func (l *Library) Extend() *Library {
	return NewLibrary(l)
}

// Define adds a class. It returns false if this library already defines the name.
func (l *Library) Define(c *Class) bool {
	if _, ok := l.classes[c.Name]; ok {
		return false
	}

	l.classes[c.Name] = c
	l.order = append(l.order, c)

	return true
}

// Lookup finds a class by name, searching parents.
func (l *Library) Lookup(name string) (*Class, bool) {
	for lib := l; lib != nil; lib = lib.parent {
		if c, ok := lib.classes[name]; ok {
			return c, true
		}
	}

	return nil, false
}

// Classes returns the classes defined in this library, in definition order.
func (l *Library) Classes() []*Class {
	return l.order
}

// ResolveType resolves a type name to a primitive or class type.
func (l *Library) ResolveType(name string) (Type, bool) {
	if p, ok := PrimitiveByName(name); ok {
		return p, true
	}

	if c, ok := l.Lookup(name); ok {
		return c.Type(), true
	}

	return nil, false
}

// Object returns the root class, if the library chain defines one.
func (l *Library) Object() *Class {
	c, _ := l.Lookup(ObjectClassName)

	return c
}

// libraryFile is the YAML form of a class library.
type libraryFile struct {
	Classes []classSpec `yaml:"classes"`
}

type classSpec struct {
	Name    string       `yaml:"name"`
	Extends string       `yaml:"extends,omitempty"`
	Fields  []memberSpec `yaml:"fields,omitempty"`
	Methods []memberSpec `yaml:"methods,omitempty"`
}

type memberSpec struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type,omitempty"`
	Returns string      `yaml:"returns,omitempty"`
	Static  bool        `yaml:"static,omitempty"`
	Final   bool        `yaml:"final,omitempty"`
	Params  []paramSpec `yaml:"params,omitempty"`
}

type paramSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadLibrary parses a YAML class library on top of parent.
//
// Classes are declared first and resolved second, so members may refer to
// classes defined later in the same file. A class without `extends` inherits
// from Object when the library chain defines it.
func LoadLibrary(data []byte, parent *Library) (*Library, error) {
	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse library: %w", err)
	}

	lib := NewLibrary(parent)

	for _, spec := range file.Classes {
		if !lib.Define(NewClass(spec.Name, nil)) {
			return nil, fmt.Errorf("class %s defined twice", spec.Name)
		}
	}

	for _, spec := range file.Classes {
		c, _ := lib.Lookup(spec.Name)

		if err := lib.resolveClass(c, spec); err != nil {
			return nil, fmt.Errorf("class %s: %w", spec.Name, err)
		}
	}

	return lib, nil
}

// LoadLibraryFile loads a YAML class library from path.
func LoadLibraryFile(path string, parent *Library) (*Library, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	lib, err := LoadLibrary(data, parent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return lib, nil
}

func (l *Library) resolveClass(c *Class, spec classSpec) error {
	switch {
	case spec.Extends != "":
		super, ok := l.Lookup(spec.Extends)
		if !ok {
			return fmt.Errorf("superclass %s: %w", spec.Extends, ErrUnknownType)
		}

		if super.IsSubclassOf(c) {
			return fmt.Errorf("cyclic inheritance through %s", spec.Extends)
		}

		c.Super = super
	case c.Name != ObjectClassName:
		c.Super = l.Object()
	}

	for _, f := range spec.Fields {
		t, ok := l.ResolveType(f.Type)
		if !ok {
			return fmt.Errorf("field %s: %s: %w", f.Name, f.Type, ErrUnknownType)
		}

		c.AddField(f.Name, t, f.modifiers())
	}

	for _, m := range spec.Methods {
		ret := Type(Void)

		if m.Returns != "" {
			t, ok := l.ResolveType(m.Returns)
			if !ok {
				return fmt.Errorf("method %s: %s: %w", m.Name, m.Returns, ErrUnknownType)
			}

			ret = t
		}

		params := make([]ParameterDescriptor, 0, len(m.Params))

		for _, p := range m.Params {
			t, ok := l.ResolveType(p.Type)
			if !ok {
				return fmt.Errorf("method %s: parameter %s: %s: %w", m.Name, p.Name, p.Type, ErrUnknownType)
			}

			params = append(params, ParameterDescriptor{Name: p.Name, Type: t})
		}

		c.AddMethod(m.Name, m.modifiers(), ret, params...)
	}

	return nil
}

func (m memberSpec) modifiers() Modifier {
	var mods Modifier

	if m.Static {
		mods |= ModStatic
	}

	if m.Final {
		mods |= ModFinal
	}

	return mods
}

//go:embed builtin.yaml
var builtinYAML []byte

var builtins = sync.OnceValue(func() *Library {
	lib, err := LoadLibrary(builtinYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("types: builtin library: %v", err))
	}

	return lib
})

// Builtins returns the built-in class library: Object, the boxed number
// classes, String, Math, and the Strings, Objects and Ints mixin utilities.
// The returned library is shared and must not be modified; use Extend.
func Builtins() *Library {
	return builtins()
}
