package jsonmap

import (
	"errors"
	"fmt"
	"log"
	"reflect"

	"github.com/kr/pretty"
)

const debugEncoders = false

func debugEncoder(msg string, args ...any) {
	if !debugEncoders {
		return
	}
	log.Printf(msg, args...)
}

// An Encoder converts models into JSON-compatible values, according
// to a [Schema].
//
// An Encoder is immutable once built, and safe for concurrent use.
type Encoder struct {
	t     reflect.Type
	rules []encodeRule
}

type encodeRule struct {
	*Mapping
	// Index is the position of the mapping in the flattened schema.
	Index int
	view  viewFunc
	get   getterFunc
}

// NewEncoder builds an Encoder for s.
//
// NewEncoder flattens s with its ancestors, and resolves every
// mapping that can encode. Mappings that can only decode are
// ignored. NewEncoder returns a [ConfigurationError] if the schema
// is malformed.
func NewEncoder(s *Schema) (*Encoder, error) {
	rules, err := s.flatten()
	if err != nil {
		return nil, err
	}

	ret := &Encoder{t: s.Type}
	for i, r := range rules {
		if !r.CanEncode() {
			debugEncoder("%s: #%d %s is decode-only", s.Type, i, r.Mapping)
			continue
		}
		view, err := ancestorView(s.Type, r.Owner.Type)
		if err != nil {
			return nil, configErr(s.Type, r.Mapping, "%w", err)
		}
		er := encodeRule{
			Mapping: r.Mapping,
			Index:   i,
			view:    view,
		}
		if get := r.ObjectGetter; get != nil {
			er.get = func(obj reflect.Value) (any, error) {
				return get(obj.Interface())
			}
		} else {
			er.get = propertyGetter(r.Owner.Type, r.ObjectProperty)
		}
		ret.rules = append(ret.rules, er)
	}

	if debugEncoders {
		descs := make([]string, len(ret.rules))
		for i, r := range ret.rules {
			descs[i] = r.String()
		}
		debugEncoder("encoder for %s: %# v", s.Type, pretty.Formatter(descs))
	}
	return ret, nil
}

// MustEncoder is like [NewEncoder], but panics on error.
func MustEncoder(s *Schema) *Encoder {
	ret, err := NewEncoder(s)
	if err != nil {
		panic(err)
	}
	return ret
}

func (e *Encoder) isBuilt() bool {
	return e != nil && e.t != nil
}

// Type returns the model type that e encodes.
func (e *Encoder) Type() reflect.Type {
	return e.t
}

// Encode returns the JSON-compatible form of v.
//
// If v is a model or a pointer to a model, Encode returns a
// map[string]any. If v is a slice or array of models, Encode returns
// a []any with one encoded element per model, in order. A nil pointer
// or nil slice encodes as nil.
func (e *Encoder) Encode(v any) (any, error) {
	if !e.isBuilt() {
		return nil, errors.New("jsonmap: Encode called on an unbuilt Encoder")
	}
	if v == nil {
		return nil, nil
	}
	return e.encode(reflect.ValueOf(v))
}

// EncodeValue implements [ValueEncoder].
func (e *Encoder) EncodeValue(v any) (any, error) {
	return e.Encode(v)
}

func (e *Encoder) encode(v reflect.Value) (any, error) {
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch t := v.Type(); {
	case t == e.t:
		if v.CanAddr() {
			return e.encodeOne(v.Addr())
		}
		ptr := reflect.New(e.t)
		ptr.Elem().Set(v)
		return e.encodeOne(ptr)
	case t.Kind() == reflect.Pointer && t.Elem() == e.t:
		if v.IsNil() {
			return nil, nil
		}
		return e.encodeOne(v)
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		if t.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		ret := make([]any, v.Len())
		for i := range ret {
			ev, err := e.encode(v.Index(i))
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			ret[i] = ev
		}
		return ret, nil
	}
	return nil, fmt.Errorf("encoder for %s cannot encode %s", e.t, v.Type())
}

// encodeOne encodes the model that ptr points to.
func (e *Encoder) encodeOne(ptr reflect.Value) (map[string]any, error) {
	ret := map[string]any{}
	for _, r := range e.rules {
		v, err := r.get(r.view(ptr, false))
		if err != nil {
			return nil, MappingError{e.t.String(), r.Index, r.String(), err}
		}
		if r.Encoder != nil {
			v, err = encodeNested(r.Encoder, v)
			if err != nil {
				return nil, MappingError{e.t.String(), r.Index, r.String(), err}
			}
		}
		if r.JSONSetter != nil {
			r.JSONSetter(ret, v)
		} else {
			ret[r.JSONProperty] = v
		}
	}
	return ret, nil
}

// encodeNested encodes v with enc, element by element if v is a
// slice or array.
func encodeNested(enc ValueEncoder, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		if rv.IsNil() {
			return nil, nil
		}
		fallthrough
	case reflect.Array:
		ret := make([]any, rv.Len())
		for i := range ret {
			ev, err := enc.EncodeValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			ret[i] = ev
		}
		return ret, nil
	}
	return enc.EncodeValue(v)
}
