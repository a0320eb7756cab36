package jsonmap

import (
	"fmt"
	"reflect"
	"strings"
)

// A ValueEncoder converts a Go value into a JSON-compatible value.
//
// A built [*Encoder] is a ValueEncoder, so that models can nest other
// models.
type ValueEncoder interface {
	EncodeValue(v any) (any, error)
}

// A ValueDecoder converts a JSON-compatible value into a Go value.
//
// A built [*Decoder] is a ValueDecoder, so that models can nest other
// models.
type ValueDecoder interface {
	DecodeValue(v any) (any, error)
}

// Mapping describes one correspondence between a property of a JSON
// object and a property of a model.
//
// A Mapping may describe both directions, or only one. It can encode
// if it has a way to read a value from the model (ObjectGetter or
// ObjectProperty) and a way to place it in the JSON object
// (JSONSetter or JSONProperty). It can decode if it has a way to read
// a value from the JSON object (JSONGetter or JSONProperty) and a way
// to give it to the model (ConstructorParam, ObjectSetter or
// ObjectProperty). Explicit getters and setters take precedence over
// property names.
type Mapping struct {
	// JSONProperty is the key of the JSON object property.
	JSONProperty string
	// ObjectProperty is the name of the model property. See
	// [PropertyReader] for the ways a property can be resolved.
	ObjectProperty string

	// ObjectGetter computes the JSON-side value from the whole
	// model. obj is always a pointer to the model.
	ObjectGetter func(obj any) (any, error)
	// ObjectSetter applies a decoded value to the model. obj is always
	// a pointer to the model.
	ObjectSetter func(obj any, value any) error

	// JSONGetter computes the model-side value from the whole JSON
	// object. If it returns false, the mapping contributes nothing to
	// the decoded model.
	JSONGetter func(m map[string]any) (any, bool)
	// JSONSetter places an encoded value into the JSON object. It
	// alone decides whether and where the value lands.
	JSONSetter func(m map[string]any, value any)

	// ConstructorParam, if set, makes decoding pass the value to the
	// named parameter of the schema's [Constructor], rather than
	// setting it on the constructed model.
	ConstructorParam string

	// Encoder, if set, encodes the property value before it is
	// placed in the JSON object. Slice values are encoded element by
	// element.
	Encoder ValueEncoder
	// Decoder, if set, decodes the JSON value before it is given to
	// the model. JSON arrays are decoded element by element.
	Decoder ValueDecoder
}

// CanEncode reports whether m describes a model to JSON mapping.
func (m *Mapping) CanEncode() bool {
	return (m.ObjectGetter != nil || m.ObjectProperty != "") && (m.JSONSetter != nil || m.JSONProperty != "")
}

// CanDecode reports whether m describes a JSON to model mapping.
func (m *Mapping) CanDecode() bool {
	return (m.JSONGetter != nil || m.JSONProperty != "") && (m.ConstructorParam != "" || m.ObjectSetter != nil || m.ObjectProperty != "")
}

// Validate reports whether m is a usable mapping for model type t.
func (m *Mapping) Validate(t reflect.Type) error {
	if !m.CanEncode() && !m.CanDecode() {
		return configErr(t, m, "mapping can neither encode nor decode")
	}
	if m.JSONProperty != "" && m.JSONGetter != nil && m.JSONSetter != nil {
		return configErr(t, m, "redundant JSON property name, both a JSON getter and setter are provided")
	}
	if m.Encoder != nil && !isBuilt(m.Encoder) {
		return configErr(t, m, "nested encoder %T is not a built encoder", m.Encoder)
	}
	if m.Decoder != nil && !isBuilt(m.Decoder) {
		return configErr(t, m, "nested decoder %T is not a built decoder", m.Decoder)
	}
	return nil
}

// builtChecker is implemented by codecs that can be in an unusable
// state, such as a zero [Encoder].
type builtChecker interface {
	isBuilt() bool
}

// isBuilt reports whether codec is a usable nested encoder or
// decoder.
func isBuilt(codec any) bool {
	v := reflect.ValueOf(codec)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Interface:
		if v.IsNil() {
			return false
		}
	}
	if bc, ok := codec.(builtChecker); ok {
		return bc.isBuilt()
	}
	return true
}

func (m *Mapping) String() string {
	var json, obj string

	switch {
	case m.JSONGetter != nil && m.JSONSetter != nil:
		json = "json func"
	case m.JSONProperty != "" && m.JSONGetter != nil:
		json = fmt.Sprintf("json %q (getter func)", m.JSONProperty)
	case m.JSONProperty != "" && m.JSONSetter != nil:
		json = fmt.Sprintf("json %q (setter func)", m.JSONProperty)
	case m.JSONProperty != "":
		json = fmt.Sprintf("json %q", m.JSONProperty)
	case m.JSONGetter != nil:
		json = "json getter func"
	case m.JSONSetter != nil:
		json = "json setter func"
	default:
		json = "no json"
	}

	var parts []string
	if m.ConstructorParam != "" {
		parts = append(parts, "param "+m.ConstructorParam)
	}
	if m.ObjectProperty != "" {
		parts = append(parts, "property "+m.ObjectProperty)
	}
	if m.ObjectGetter != nil {
		parts = append(parts, "getter func")
	}
	if m.ObjectSetter != nil {
		parts = append(parts, "setter func")
	}
	if len(parts) == 0 {
		obj = "no object"
	} else {
		obj = strings.Join(parts, ", ")
	}

	arrow := "<->"
	switch {
	case m.CanEncode() && !m.CanDecode():
		arrow = "<-"
	case m.CanDecode() && !m.CanEncode():
		arrow = "->"
	}
	return fmt.Sprintf("%s %s %s", json, arrow, obj)
}

// ObjectGetterFunc adapts a typed getter into a [Mapping.ObjectGetter].
func ObjectGetterFunc[T any](get func(*T) any) func(any) (any, error) {
	return func(obj any) (any, error) {
		p, ok := obj.(*T)
		if !ok {
			return nil, accessErr(reflect.TypeFor[T](), "<getter>", "getter for %s called with %T", reflect.TypeFor[*T](), obj)
		}
		return get(p), nil
	}
}

// ObjectSetterFunc adapts a typed setter into a [Mapping.ObjectSetter].
func ObjectSetterFunc[T any](set func(*T, any) error) func(any, any) error {
	return func(obj any, value any) error {
		p, ok := obj.(*T)
		if !ok {
			return accessErr(reflect.TypeFor[T](), "<setter>", "setter for %s called with %T", reflect.TypeFor[*T](), obj)
		}
		return set(p, value)
	}
}

// OmitEmpty returns a [Mapping.JSONSetter] that stores values under
// key, except for nil values, empty strings, and empty slices and
// maps, which are left out of the JSON object entirely.
func OmitEmpty(key string) func(map[string]any, any) {
	return func(m map[string]any, value any) {
		if isEmpty(value) {
			return
		}
		m[key] = value
	}
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	}
	return false
}
