package jsonmap

import (
	"errors"
	"fmt"
	"log"
	"reflect"

	"github.com/kr/pretty"
)

const debugDecoders = false

func debugDecoder(msg string, args ...any) {
	if !debugDecoders {
		return
	}
	log.Printf(msg, args...)
}

// A Decoder converts JSON-compatible values into models, according
// to a [Schema].
//
// Decoding happens in two passes. First, the mappings bound to
// constructor parameters are evaluated, and the model is created by
// the schema's [Constructor] (or allocated as a zero value if the
// schema has none). Second, the remaining mappings are applied to the
// new model in schema order.
//
// A Decoder is immutable once built, and safe for concurrent use.
type Decoder struct {
	t    reflect.Type
	ctor *Constructor
	// params are the mappings evaluated before construction.
	params []decodeRule
	// setters are the mappings applied after construction.
	setters []decodeRule
}

type decodeRule struct {
	*Mapping
	// Index is the position of the mapping in the flattened schema.
	Index int
	get   func(map[string]any) (any, bool)
	view  viewFunc
	set   setterFunc
}

// NewDecoder builds a Decoder for s.
//
// NewDecoder flattens s with its ancestors, and resolves every
// mapping that can decode. Mappings that can only encode are
// ignored. Mappings bound to constructor parameters that s inherits
// from an ancestor model's schema are dropped, since only the
// constructor of s runs during decoding. However, if the constructor
// of s does not accept such an inherited parameter, the schemas have
// drifted apart and NewDecoder returns a
// [ConstructorBindingError]. NewDecoder also returns a
// ConstructorBindingError if one of s's own mappings names a
// parameter that its constructor does not accept, and a
// [ConfigurationError] if the schema is otherwise malformed.
func NewDecoder(s *Schema) (*Decoder, error) {
	rules, err := s.flatten()
	if err != nil {
		return nil, err
	}

	ret := &Decoder{
		t:    s.Type,
		ctor: s.Constructor,
	}
	for i, r := range rules {
		if !r.CanDecode() {
			debugDecoder("%s: #%d %s is encode-only", s.Type, i, r.Mapping)
			continue
		}
		dr := decodeRule{
			Mapping: r.Mapping,
			Index:   i,
		}
		if get := r.JSONGetter; get != nil {
			dr.get = get
		} else {
			key := r.JSONProperty
			dr.get = func(m map[string]any) (any, bool) {
				v, ok := m[key]
				return v, ok
			}
		}

		if param := r.ConstructorParam; param != "" {
			inherited := r.Owner.Type != s.Type
			switch {
			case inherited && (s.Constructor == nil || !s.Constructor.Accepts(param)):
				return nil, bindErr(s.Type, param, "inherited from the schema of %s, but not accepted by the constructor of %s", r.Owner.Type, s.Type)
			case inherited:
				debugDecoder("%s: #%d %s dropped, inherited constructor parameter", s.Type, i, r.Mapping)
				continue
			case s.Constructor == nil:
				return nil, configErr(s.Type, r.Mapping, "constructor parameter %q, but the schema has no constructor", param)
			case !s.Constructor.Accepts(param):
				return nil, bindErr(s.Type, param, "constructor %s has no such parameter", s.Constructor)
			}
			ret.params = append(ret.params, dr)
			continue
		}

		view, err := ancestorView(s.Type, r.Owner.Type)
		if err != nil {
			return nil, configErr(s.Type, r.Mapping, "%w", err)
		}
		dr.view = view
		if set := r.ObjectSetter; set != nil {
			dr.set = func(obj reflect.Value, v any) error {
				return set(obj.Interface(), v)
			}
		} else {
			dr.set = propertySetter(r.Owner.Type, r.ObjectProperty)
		}
		ret.setters = append(ret.setters, dr)
	}

	if debugDecoders {
		var descs []string
		for _, r := range ret.params {
			descs = append(descs, "pass 1: "+r.String())
		}
		for _, r := range ret.setters {
			descs = append(descs, "pass 2: "+r.String())
		}
		debugDecoder("decoder for %s: %# v", s.Type, pretty.Formatter(descs))
	}
	return ret, nil
}

// MustDecoder is like [NewDecoder], but panics on error.
func MustDecoder(s *Schema) *Decoder {
	ret, err := NewDecoder(s)
	if err != nil {
		panic(err)
	}
	return ret
}

func (d *Decoder) isBuilt() bool {
	return d != nil && d.t != nil
}

// Type returns the model type that d decodes.
func (d *Decoder) Type() reflect.Type {
	return d.t
}

// Decode returns the model described by v.
//
// If v is a map[string]any, Decode returns a pointer to a new
// model. If v is a []any of JSON objects, Decode returns a slice of
// pointers to new models, in order. A nil v decodes as nil.
func (d *Decoder) Decode(v any) (any, error) {
	if !d.isBuilt() {
		return nil, errors.New("jsonmap: Decode called on an unbuilt Decoder")
	}
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		ret, err := d.decodeOne(val)
		if err != nil {
			return nil, err
		}
		return ret.Interface(), nil
	case []any:
		ret := reflect.MakeSlice(reflect.SliceOf(reflect.PointerTo(d.t)), len(val), len(val))
		for i, elem := range val {
			if elem == nil {
				continue
			}
			m, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d: decoder for %s cannot decode %T", i, d.t, elem)
			}
			ev, err := d.decodeOne(m)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			ret.Index(i).Set(ev)
		}
		return ret.Interface(), nil
	}
	return nil, fmt.Errorf("decoder for %s cannot decode %T", d.t, v)
}

// DecodeValue implements [ValueDecoder].
func (d *Decoder) DecodeValue(v any) (any, error) {
	return d.Decode(v)
}

// DecodeAs decodes the JSON object m into a model of type T.
func DecodeAs[T any](d *Decoder, m map[string]any) (*T, error) {
	if want := reflect.TypeFor[T](); d.Type() != want {
		return nil, fmt.Errorf("decoder for %s cannot decode into %s", d.Type(), want)
	}
	ret, err := d.Decode(m)
	if err != nil {
		return nil, err
	}
	return ret.(*T), nil
}

// decodeOne decodes m into a new model, and returns a pointer to it.
func (d *Decoder) decodeOne(m map[string]any) (reflect.Value, error) {
	var obj reflect.Value
	if d.ctor != nil {
		args := map[string]any{}
		for _, r := range d.params {
			v, ok, err := r.value(m)
			if err != nil {
				return reflect.Value{}, MappingError{d.t.String(), r.Index, r.String(), err}
			}
			if ok {
				args[r.ConstructorParam] = v
			}
		}
		var err error
		if obj, err = d.ctor.call(args); err != nil {
			return reflect.Value{}, err
		}
	} else {
		obj = reflect.New(d.t)
	}

	for _, r := range d.setters {
		v, ok, err := r.value(m)
		if err == nil && ok {
			err = r.set(r.view(obj, true), v)
		}
		if err != nil {
			return reflect.Value{}, MappingError{d.t.String(), r.Index, r.String(), err}
		}
	}
	return obj, nil
}

// value returns the model-side value of the mapping, and whether the
// mapping contributes to m's model at all.
func (r *decodeRule) value(m map[string]any) (any, bool, error) {
	v, ok := r.get(m)
	if !ok {
		return nil, false, nil
	}
	if r.Decoder == nil {
		return v, true, nil
	}
	v, err := decodeNested(r.Decoder, v)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// decodeNested decodes v with dec, element by element if v is a JSON
// array.
func decodeNested(dec ValueDecoder, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []any:
		ret := make([]any, len(val))
		for i, elem := range val {
			dv, err := dec.DecodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			ret[i] = dv
		}
		return ret, nil
	}
	return dec.DecodeValue(v)
}
