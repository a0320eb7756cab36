package jsonmap

import (
	"encoding/json"

	"github.com/spf13/cast"
)

// Primitive codecs for JSON documents that carry scalars in an
// unusual form, such as numbers quoted as strings. They are meant for
// use as a [Mapping.Encoder] or [Mapping.Decoder].
var (
	// StringEncoder encodes scalars as their string form, for example
	// 123 as "123" and 12.3 as "12.3".
	StringEncoder ValueEncoder = stringEncoder{}
	// StringDecoder decodes JSON strings and numbers into strings.
	StringDecoder ValueDecoder = stringDecoder{}
	// IntDecoder decodes JSON numbers and numeric strings into int64.
	IntDecoder ValueDecoder = intDecoder{}
	// FloatDecoder decodes JSON numbers and numeric strings into
	// float64.
	FloatDecoder ValueDecoder = floatDecoder{}
)

type stringEncoder struct{}

func (stringEncoder) EncodeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return cast.ToStringE(v)
}

type stringDecoder struct{}

func (stringDecoder) DecodeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return cast.ToStringE(plainNumber(v))
}

type intDecoder struct{}

func (intDecoder) DecodeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return cast.ToInt64E(plainNumber(v))
}

type floatDecoder struct{}

func (floatDecoder) DecodeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return cast.ToFloat64E(plainNumber(v))
}

// plainNumber turns json.Numbers into strings, which cast parses
// without loss.
func plainNumber(v any) any {
	if n, ok := v.(json.Number); ok {
		return string(n)
	}
	return v
}
