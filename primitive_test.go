package jsonmap

import (
	"encoding/json"
	"testing"
)

func TestPrimitiveCodecs(t *testing.T) {
	tests := []struct {
		name string
		fn   func(any) (any, error)
		in   any
		want any
	}{
		{"string from int", StringEncoder.EncodeValue, 123, "123"},
		{"string from float", StringEncoder.EncodeValue, 12.5, "12.5"},
		{"string from bool", StringEncoder.EncodeValue, true, "true"},
		{"string nil", StringEncoder.EncodeValue, nil, nil},
		{"decode string", StringDecoder.DecodeValue, "abc", "abc"},
		{"decode string from number", StringDecoder.DecodeValue, json.Number("12345678901234567890"), "12345678901234567890"},
		{"decode int from string", IntDecoder.DecodeValue, "42", int64(42)},
		{"decode int from float", IntDecoder.DecodeValue, 42.0, int64(42)},
		{"decode int from number", IntDecoder.DecodeValue, json.Number("-7"), int64(-7)},
		{"decode int nil", IntDecoder.DecodeValue, nil, nil},
		{"decode float from string", FloatDecoder.DecodeValue, "1.25", 1.25},
		{"decode float from number", FloatDecoder.DecodeValue, json.Number("2.5"), 2.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn(tc.in)
			if err != nil {
				t.Fatalf("got err: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %#v, want %#v", got, tc.want)
			}
		})
	}

	bad := []struct {
		name string
		fn   func(any) (any, error)
		in   any
	}{
		{"int from word", IntDecoder.DecodeValue, "many"},
		{"float from word", FloatDecoder.DecodeValue, "lots"},
		{"string from object", StringDecoder.DecodeValue, map[string]any{}},
	}
	for _, tc := range bad {
		if got, err := tc.fn(tc.in); err == nil {
			t.Errorf("%s = %#v, want error", tc.name, got)
		}
	}
}
