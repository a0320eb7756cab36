package jsonmap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creachadair/mds/mapset"
)

// Constructor describes a function that creates a model from named
// arguments.
//
// Go functions have positional parameters, so a Constructor pairs a
// function with the names of its parameters. Mappings with a
// [Mapping.ConstructorParam] supply values for these names when
// decoding.
type Constructor struct {
	fn     reflect.Value
	params []ctorParam
	names  mapset.Set[string]
	// Model is the type of model constructed, with pointers removed.
	model  reflect.Type
	retPtr bool
	retErr bool
}

type ctorParam struct {
	Name     string
	Type     reflect.Type
	Optional bool
}

// NewConstructor returns a Constructor that calls fn.
//
// fn must be a non-variadic function with one parameter per entry in
// params, returning a model struct T or *T, optionally followed by an
// error. Each param is a parameter name, optionally followed by
// ",optional". Optional parameters receive their zero value when no
// mapping supplies them, whereas a missing required parameter is a
// [ConstructorBindingError].
func NewConstructor(fn any, params ...string) (*Constructor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("constructor must be a non-nil function, got %T", fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("constructor %s must not be variadic", t)
	}
	if t.NumIn() != len(params) {
		return nil, fmt.Errorf("constructor %s takes %d arguments, but %d parameter names given", t, t.NumIn(), len(params))
	}

	ret := &Constructor{
		fn:    v,
		names: mapset.New[string](),
	}

	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
		ret.retErr = true
	default:
		return nil, fmt.Errorf("constructor %s must return a model and optionally an error", t)
	}
	ret.model = t.Out(0)
	if ret.model.Kind() == reflect.Pointer {
		ret.model = ret.model.Elem()
		ret.retPtr = true
	}
	if ret.model.Kind() != reflect.Struct {
		return nil, fmt.Errorf("constructor %s must return a struct or struct pointer", t)
	}

	for i, p := range params {
		name, optional, err := parseParam(p)
		if err != nil {
			return nil, err
		}
		if ret.names.Has(name) {
			return nil, fmt.Errorf("duplicate constructor parameter name %q", name)
		}
		ret.names.Add(name)
		ret.params = append(ret.params, ctorParam{name, t.In(i), optional})
	}
	return ret, nil
}

// MustConstructor is like [NewConstructor], but panics on error.
func MustConstructor(fn any, params ...string) *Constructor {
	ret, err := NewConstructor(fn, params...)
	if err != nil {
		panic(err)
	}
	return ret
}

// parseParam parses a constructor parameter declaration.
func parseParam(p string) (name string, optional bool, err error) {
	fs := strings.Split(p, ",")
	name = strings.TrimSpace(fs[0])
	if name == "" {
		return "", false, errors.New("empty constructor parameter name")
	}
	for _, f := range fs[1:] {
		switch strings.TrimSpace(f) {
		case "optional":
			optional = true
		default:
			return "", false, fmt.Errorf("unknown option %q for constructor parameter %q", f, name)
		}
	}
	return name, optional, nil
}

// Accepts reports whether the constructor has a parameter called name.
func (c *Constructor) Accepts(name string) bool {
	return c.names.Has(name)
}

// Model returns the model struct type that the constructor creates.
func (c *Constructor) Model() reflect.Type {
	return c.model
}

func (c *Constructor) String() string {
	var ps []string
	for _, p := range c.params {
		if p.Optional {
			ps = append(ps, p.Name+"?")
		} else {
			ps = append(ps, p.Name)
		}
	}
	return fmt.Sprintf("%s(%s)", c.model, strings.Join(ps, ", "))
}

// call invokes the constructor with the given named arguments, and
// returns a pointer to the new model.
func (c *Constructor) call(args map[string]any) (reflect.Value, error) {
	in := make([]reflect.Value, len(c.params))
	for i, p := range c.params {
		arg := reflect.New(p.Type).Elem()
		in[i] = arg
		v, ok := args[p.Name]
		if !ok {
			if p.Optional {
				continue
			}
			return reflect.Value{}, bindErr(c.model, p.Name, "missing required parameter")
		}
		if err := assign(arg, v); err != nil {
			return reflect.Value{}, ConstructorBindingError{c.model.String(), p.Name, err}
		}
	}

	out := c.fn.Call(in)
	if c.retErr {
		if err, _ := out[1].Interface().(error); err != nil {
			return reflect.Value{}, fmt.Errorf("constructing %s: %w", c.model, err)
		}
	}
	if !c.retPtr {
		ret := reflect.New(c.model)
		ret.Elem().Set(out[0])
		return ret, nil
	}
	if out[0].IsNil() {
		return reflect.Value{}, fmt.Errorf("constructor for %s returned nil", c.model)
	}
	return out[0], nil
}
