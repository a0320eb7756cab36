package jsonmap

import (
	"fmt"
	"reflect"
)

// PropertyReader is implemented by models that resolve property reads
// themselves, typically with a generated table of accessors, instead
// of relying on reflection.
//
// ReadProperty returns the value of the named property, or false if
// the model has no such property.
type PropertyReader interface {
	ReadProperty(name string) (value any, ok bool)
}

// PropertyWriter is implemented by models that resolve property writes
// themselves.
//
// WriteProperty stores value in the named property. It returns false
// if the model has no such property, and an error if the property
// exists but cannot hold value.
type PropertyWriter interface {
	WriteProperty(name string, value any) (ok bool, err error)
}

var (
	propertyReaderType = reflect.TypeFor[PropertyReader]()
	propertyWriterType = reflect.TypeFor[PropertyWriter]()
	errorType          = reflect.TypeFor[error]()
)

// A getterFunc reads a property from obj, which is a pointer to a
// model struct.
type getterFunc func(obj reflect.Value) (any, error)

// A setterFunc writes a property of obj, which is a pointer to a model
// struct.
type setterFunc func(obj reflect.Value, value any) error

type accessKey struct {
	t    reflect.Type
	name string
}

var (
	getters cache[accessKey, getterFunc]
	setters cache[accessKey, setterFunc]
)

// propertyGetter returns a getterFunc for the property name of model
// type t.
//
// Properties are resolved, in order, through [PropertyReader], an
// exported struct field (including fields promoted from embedded
// structs), or a method with no arguments that returns the value and
// optionally an error. If name cannot be resolved, the returned
// getterFunc always fails with a [PropertyAccessError].
func propertyGetter(t reflect.Type, name string) getterFunc {
	return getters.Get(accessKey{t, name}, newPropertyGetter)
}

// propertySetter returns a setterFunc for the property name of model
// type t.
//
// Properties are resolved, in order, through [PropertyWriter], an
// exported struct field, or a method named "Set"+name that takes the
// value and optionally returns an error. If name cannot be resolved,
// the returned setterFunc always fails with a [PropertyAccessError].
func propertySetter(t reflect.Type, name string) setterFunc {
	return setters.Get(accessKey{t, name}, newPropertySetter)
}

func newPropertyGetter(k accessKey) getterFunc {
	t, name := k.t, k.name
	debugEncoder("getter %s.%s", t, name)
	pt := reflect.PointerTo(t)

	if pt.Implements(propertyReaderType) {
		return func(obj reflect.Value) (any, error) {
			v, ok := obj.Interface().(PropertyReader).ReadProperty(name)
			if !ok {
				return nil, accessErr(t, name, "no such property")
			}
			return v, nil
		}
	}

	reason := "no field or method with that name"
	if f, ok := t.FieldByName(name); ok {
		if exportedPath(t, f.Index) {
			path := newFieldPath(t, f)
			return func(obj reflect.Value) (any, error) {
				return path.GetWithZero(obj.Elem()).Interface(), nil
			}
		}
		reason = "field is not exported"
	}

	if m, ok := pt.MethodByName(name); ok {
		mt := m.Type
		switch {
		case mt.NumIn() != 1:
			reason = fmt.Sprintf("method %s takes arguments", name)
		case mt.NumOut() == 1:
			return func(obj reflect.Value) (any, error) {
				return m.Func.Call([]reflect.Value{obj})[0].Interface(), nil
			}
		case mt.NumOut() == 2 && mt.Out(1) == errorType:
			return func(obj reflect.Value) (any, error) {
				out := m.Func.Call([]reflect.Value{obj})
				if err, _ := out[1].Interface().(error); err != nil {
					return nil, err
				}
				return out[0].Interface(), nil
			}
		default:
			reason = fmt.Sprintf("method %s must return a value and optionally an error", name)
		}
	}

	err := accessErr(t, name, "%s", reason)
	return func(reflect.Value) (any, error) { return nil, err }
}

func newPropertySetter(k accessKey) setterFunc {
	t, name := k.t, k.name
	debugDecoder("setter %s.%s", t, name)
	pt := reflect.PointerTo(t)

	if pt.Implements(propertyWriterType) {
		return func(obj reflect.Value, value any) error {
			ok, err := obj.Interface().(PropertyWriter).WriteProperty(name, value)
			if err != nil {
				return PropertyAccessError{typeName(t), name, err}
			}
			if !ok {
				return accessErr(t, name, "no such property")
			}
			return nil
		}
	}

	reason := "no field or setter method with that name"
	if f, ok := t.FieldByName(name); ok {
		if exportedPath(t, f.Index) {
			path := newFieldPath(t, f)
			return func(obj reflect.Value, value any) error {
				fv := path.GetWithAlloc(obj.Elem())
				if err := assign(fv, value); err != nil {
					return PropertyAccessError{typeName(t), name, err}
				}
				return nil
			}
		}
		reason = "field is not exported"
	}

	if m, ok := pt.MethodByName("Set" + name); ok {
		mt := m.Type
		switch {
		case mt.NumIn() != 2:
			reason = fmt.Sprintf("method %s must take exactly one argument", m.Name)
		case mt.NumOut() == 0 || (mt.NumOut() == 1 && mt.Out(0) == errorType):
			argType := mt.In(1)
			return func(obj reflect.Value, value any) error {
				arg := reflect.New(argType).Elem()
				if err := assign(arg, value); err != nil {
					return PropertyAccessError{typeName(t), name, err}
				}
				out := m.Func.Call([]reflect.Value{obj, arg})
				if len(out) == 1 {
					if err, _ := out[0].Interface().(error); err != nil {
						return err
					}
				}
				return nil
			}
		default:
			reason = fmt.Sprintf("method %s must return nothing or an error", m.Name)
		}
	}

	err := accessErr(t, name, "%s", reason)
	return func(reflect.Value, any) error { return err }
}

// fieldPath locates a possibly promoted struct field.
type fieldPath struct {
	Type reflect.Type
	// Steps partitions the field's index path at every hop through a
	// struct pointer, see allocSteps.
	Steps [][]int
}

func newFieldPath(t reflect.Type, f reflect.StructField) fieldPath {
	return fieldPath{f.Type, allocSteps(t, f.Index)}
}

// GetWithZero loads the field from structVal. If loading requires
// traversing a nil pointer into an embedded struct, GetWithZero
// returns a non-settable zero value of the field.
func (f fieldPath) GetWithZero(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Steps {
		if i > 0 {
			if v.IsNil() {
				return reflect.Zero(f.Type)
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

// GetWithAlloc loads the field from structVal, allocating nil
// embedded struct pointers along the way. The returned value is
// settable if structVal is.
func (f fieldPath) GetWithAlloc(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Steps {
		if i > 0 {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

// exportedPath reports whether every field along idx is exported.
// Values reached through unexported fields are read-only.
func exportedPath(t reflect.Type, idx []int) bool {
	for _, i := range idx {
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		f := t.Field(i)
		if !f.IsExported() {
			return false
		}
		t = f.Type
	}
	return true
}

// allocSteps partitions a multi-hop traversal of struct fields into
// segments that end at either the final value, or at a struct pointer
// that might be nil.
func allocSteps(t reflect.Type, idx []int) [][]int {
	var ret [][]int
	prev := 0
	t = t.Field(idx[0]).Type
	for i := 1; i < len(idx); i++ {
		if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
			// Hop through a struct pointer that might be nil, cut.
			ret = append(ret, idx[prev:i])
			prev = i
			t = t.Elem()
		}
		t = t.Field(idx[i]).Type
	}
	ret = append(ret, idx[prev:])
	return ret
}

// A viewFunc returns a pointer to the part of a model that a mapping
// of an ancestor schema operates on.
type viewFunc func(obj reflect.Value, alloc bool) reflect.Value

func identityView(obj reflect.Value, _ bool) reflect.Value { return obj }

// ancestorView returns a viewFunc that maps pointers to t to pointers
// to the embedded ancestor struct anc.
//
// When alloc is false and the ancestor sits behind a nil embedded
// pointer, the view is a pointer to a fresh zero ancestor.
func ancestorView(t, anc reflect.Type) (viewFunc, error) {
	if t == anc {
		return identityView, nil
	}

	var (
		best  *reflect.StructField
		dupes bool
	)
	for _, f := range reflect.VisibleFields(t) {
		if !f.Anonymous {
			continue
		}
		if f.Type != anc && f.Type != reflect.PointerTo(anc) {
			continue
		}
		switch {
		case best == nil || len(f.Index) < len(best.Index):
			best, dupes = &f, false
		case len(f.Index) == len(best.Index):
			dupes = true
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%s does not embed parent model %s", t, anc)
	}
	if dupes {
		return nil, fmt.Errorf("%s embeds %s more than once at the same depth", t, anc)
	}
	if !exportedPath(t, best.Index) {
		return nil, fmt.Errorf("%s embeds parent model %s through an unexported field", t, anc)
	}

	path := newFieldPath(t, *best)
	isPtr := best.Type.Kind() == reflect.Pointer
	return func(obj reflect.Value, alloc bool) reflect.Value {
		var fv reflect.Value
		if alloc {
			fv = path.GetWithAlloc(obj.Elem())
			if isPtr && fv.IsNil() {
				fv.Set(reflect.New(anc))
			}
		} else {
			fv = path.GetWithZero(obj.Elem())
		}
		if isPtr {
			if fv.IsNil() {
				return reflect.New(anc)
			}
			return fv
		}
		if !fv.CanAddr() {
			ret := reflect.New(anc)
			ret.Elem().Set(fv)
			return ret
		}
		return fv.Addr()
	}, nil
}
