package jsonmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Marshal returns the JSON encoding of v, which is a model, a pointer
// to a model, or a slice of models.
func (e *Encoder) Marshal(v any) ([]byte, error) {
	jv, err := e.Encode(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jv)
}

// MarshalIndent is like [Encoder.Marshal], but indents the output as
// [json.MarshalIndent] does.
func (e *Encoder) MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	jv, err := e.Encode(v)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(jv, prefix, indent)
}

// Value returns a [json.Marshaler] that encodes v with e. It allows
// models to be embedded in larger values marshaled by encoding/json.
func (e *Encoder) Value(v any) json.Marshaler {
	return marshaler{e, v}
}

type marshaler struct {
	enc *Encoder
	v   any
}

func (m marshaler) MarshalJSON() ([]byte, error) {
	return m.enc.Marshal(m.v)
}

// Unmarshal parses the JSON-encoded data and decodes the resulting
// object or array of objects with d. Numbers are parsed as
// [json.Number], so that integers too large for a float64 keep their
// precision until assigned to model properties.
func (d *Decoder) Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing JSON for %s: %w", d.Type(), err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing JSON for %s: trailing data after top-level value", d.Type())
	}
	return d.Decode(v)
}

// Unmarshal parses the JSON object in data into a model of type T.
func Unmarshal[T any](d *Decoder, data []byte) (*T, error) {
	v, err := d.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	ret, ok := v.(*T)
	if !ok {
		return nil, fmt.Errorf("decoder for %s cannot decode into %T", d.Type(), ret)
	}
	return ret, nil
}
