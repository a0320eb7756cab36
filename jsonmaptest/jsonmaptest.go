// Package jsonmaptest provides helpers to test jsonmap schemas
// against the models they describe.
package jsonmaptest

import (
	"encoding/json"
	"testing"

	"github.com/danderson/jsonmap"
	"github.com/google/go-cmp/cmp"
)

// Codec is an encoder and decoder pair built from one schema.
type Codec struct {
	Encoder *jsonmap.Encoder
	Decoder *jsonmap.Decoder
}

// New builds an encoder and decoder for s. It causes an immediate
// test failure with t.Fatal if either cannot be built.
func New(t testing.TB, s *jsonmap.Schema) *Codec {
	t.Helper()
	enc, err := jsonmap.NewEncoder(s)
	if err != nil {
		t.Fatalf("building encoder: %v", err)
	}
	dec, err := jsonmap.NewDecoder(s)
	if err != nil {
		t.Fatalf("building decoder: %v", err)
	}
	return &Codec{enc, dec}
}

// RoundTrip encodes v to JSON text, decodes the text back into a new
// model, and reports a test error if the new model differs from v.
//
// opts are passed to cmp.Diff, for example to compare models with
// unexported fields. RoundTrip returns the JSON text.
func (c *Codec) RoundTrip(t testing.TB, v any, opts ...cmp.Option) string {
	t.Helper()
	bs, err := c.Encoder.Marshal(v)
	if err != nil {
		t.Errorf("encoding %#v: %v", v, err)
		return ""
	}
	got, err := c.Decoder.Unmarshal(bs)
	if err != nil {
		t.Errorf("decoding %s: %v", bs, err)
		return string(bs)
	}
	if diff := cmp.Diff(got, v, opts...); diff != "" {
		t.Errorf("round trip through %s changed value (-got+want):\n%s", bs, diff)
	}
	return string(bs)
}

// EncodesTo reports a test error if v does not encode to the JSON
// text want. Object key order and whitespace do not matter.
func (c *Codec) EncodesTo(t testing.TB, v any, want string) {
	t.Helper()
	bs, err := c.Encoder.Marshal(v)
	if err != nil {
		t.Errorf("encoding %#v: %v", v, err)
		return
	}
	var gotV, wantV any
	if err := json.Unmarshal(bs, &gotV); err != nil {
		t.Errorf("parsing encoded JSON %s: %v", bs, err)
		return
	}
	if err := json.Unmarshal([]byte(want), &wantV); err != nil {
		t.Errorf("parsing wanted JSON %s: %v", want, err)
		return
	}
	if diff := cmp.Diff(gotV, wantV); diff != "" {
		t.Errorf("encoding %#v wrong result (-got+want):\n%s", v, diff)
	}
}

// DecodesTo reports a test error if the JSON text data does not
// decode to want.
func (c *Codec) DecodesTo(t testing.TB, data string, want any, opts ...cmp.Option) {
	t.Helper()
	got, err := c.Decoder.Unmarshal([]byte(data))
	if err != nil {
		t.Errorf("decoding %s: %v", data, err)
		return
	}
	if diff := cmp.Diff(got, want, opts...); diff != "" {
		t.Errorf("decoding %s wrong result (-got+want):\n%s", data, diff)
	}
}
