package schemafile

import (
	"reflect"

	"github.com/danderson/jsonmap"
)

// A Registry binds the names used in schema documents to Go types,
// constructors and accessor functions.
//
// Registering a name twice replaces the earlier binding.
type Registry struct {
	types       map[string]reflect.Type
	ctors       map[string]*jsonmap.Constructor
	getters     map[string]func(any) (any, error)
	setters     map[string]func(any, any) error
	jsonGetters map[string]func(map[string]any) (any, bool)
	jsonSetters map[string]func(map[string]any, any)
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		types:       map[string]reflect.Type{},
		ctors:       map[string]*jsonmap.Constructor{},
		getters:     map[string]func(any) (any, error){},
		setters:     map[string]func(any, any) error{},
		jsonGetters: map[string]func(map[string]any) (any, bool){},
		jsonSetters: map[string]func(map[string]any, any){},
	}
}

// RegisterType binds name to the model type T.
func RegisterType[T any](r *Registry, name string) *Registry {
	return r.Type(name, reflect.TypeFor[T]())
}

// Type binds name to the model type t.
func (r *Registry) Type(name string, t reflect.Type) *Registry {
	r.types[name] = t
	return r
}

// Constructor binds name to c.
func (r *Registry) Constructor(name string, c *jsonmap.Constructor) *Registry {
	r.ctors[name] = c
	return r
}

// Getter binds name to a [jsonmap.Mapping.ObjectGetter].
func (r *Registry) Getter(name string, fn func(any) (any, error)) *Registry {
	r.getters[name] = fn
	return r
}

// Setter binds name to a [jsonmap.Mapping.ObjectSetter].
func (r *Registry) Setter(name string, fn func(any, any) error) *Registry {
	r.setters[name] = fn
	return r
}

// JSONGetter binds name to a [jsonmap.Mapping.JSONGetter].
func (r *Registry) JSONGetter(name string, fn func(map[string]any) (any, bool)) *Registry {
	r.jsonGetters[name] = fn
	return r
}

// JSONSetter binds name to a [jsonmap.Mapping.JSONSetter]. The name
// "omitEmpty" is builtin, and JSONSetter panics if asked to rebind it.
func (r *Registry) JSONSetter(name string, fn func(map[string]any, any)) *Registry {
	if name == builtinOmitEmpty {
		panic("schemafile: cannot rebind builtin JSON setter " + builtinOmitEmpty)
	}
	r.jsonSetters[name] = fn
	return r
}
