package jsonmap

import (
	"fmt"
	"reflect"
)

// ConfigurationError is the error returned when a schema or one of
// its mappings is structurally invalid. It is always returned when
// building an [Encoder] or [Decoder], never during encoding or
// decoding.
type ConfigurationError struct {
	// Type is the name of the model type whose schema is invalid.
	Type string
	// Mapping describes the offending mapping, if the problem is
	// specific to one mapping.
	Mapping string
	// Reason is an explanation of what is wrong.
	Reason error
}

func (e ConfigurationError) Error() string {
	if e.Mapping == "" {
		return fmt.Sprintf("invalid schema for %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid schema for %s: mapping %s: %s", e.Type, e.Mapping, e.Reason)
}

func (e ConfigurationError) Unwrap() error {
	return e.Reason
}

func configErr(t reflect.Type, m *Mapping, reason string, args ...any) error {
	ret := ConfigurationError{
		Type:   typeName(t),
		Reason: fmt.Errorf(reason, args...),
	}
	if m != nil {
		ret.Mapping = m.String()
	}
	return ret
}

// PropertyAccessError is the error returned when a mapping reads or
// writes a property that the model does not have, or that cannot
// hold the value being written. It indicates that a schema and its
// model have drifted out of sync.
type PropertyAccessError struct {
	// Type is the name of the model type being accessed.
	Type string
	// Property is the name of the property.
	Property string
	// Reason is an explanation of why the access failed.
	Reason error
}

func (e PropertyAccessError) Error() string {
	return fmt.Sprintf("cannot access %s.%s: %s", e.Type, e.Property, e.Reason)
}

func (e PropertyAccessError) Unwrap() error {
	return e.Reason
}

func accessErr(t reflect.Type, prop string, reason string, args ...any) error {
	return PropertyAccessError{typeName(t), prop, fmt.Errorf(reason, args...)}
}

// ConstructorBindingError is the error returned when decoded values
// cannot be bound to a model's constructor parameters.
type ConstructorBindingError struct {
	// Type is the name of the model type being constructed.
	Type string
	// Param is the name of the constructor parameter at fault.
	Param string
	// Reason is an explanation of what went wrong.
	Reason error
}

func (e ConstructorBindingError) Error() string {
	return fmt.Sprintf("cannot construct %s: parameter %q: %s", e.Type, e.Param, e.Reason)
}

func (e ConstructorBindingError) Unwrap() error {
	return e.Reason
}

func bindErr(t reflect.Type, param string, reason string, args ...any) error {
	return ConstructorBindingError{typeName(t), param, fmt.Errorf(reason, args...)}
}

// MappingError identifies the mapping that failed while encoding or
// decoding a value. The underlying error is usually a
// [PropertyAccessError], or an error returned by a caller-supplied
// getter or setter.
type MappingError struct {
	// Type is the name of the model type being encoded or decoded.
	Type string
	// Index is the position of the mapping in the flattened schema.
	Index int
	// Mapping describes the failing mapping.
	Mapping string
	// Err is the error returned by the mapping.
	Err error
}

func (e MappingError) Error() string {
	return fmt.Sprintf("%s mapping #%d (%s): %s", e.Type, e.Index, e.Mapping, e.Err)
}

func (e MappingError) Unwrap() error {
	return e.Err
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
