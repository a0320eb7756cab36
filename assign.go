package jsonmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
)

var numberType = reflect.TypeFor[json.Number]()

// assign stores value in dst, converting JSON-shaped values to the
// type of dst.
//
// Numbers convert between numeric kinds as long as no precision is
// lost, []any converts to typed slices and arrays, map[string]any to
// typed maps, and values convert to pointers to values and back. A nil
// value stores the zero value.
func assign(dst reflect.Value, value any) error {
	if value == nil {
		dst.SetZero()
		return nil
	}
	return assignValue(dst, reflect.ValueOf(value))
}

func assignValue(dst, src reflect.Value) error {
	for src.Kind() == reflect.Interface {
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
		src = src.Elem()
	}
	dt := dst.Type()
	if src.Type().AssignableTo(dt) {
		dst.Set(src)
		return nil
	}

	if dt.Kind() == reflect.Pointer {
		if src.Kind() == reflect.Pointer && src.IsNil() {
			dst.SetZero()
			return nil
		}
		elem := reflect.New(dt.Elem())
		if err := assignValue(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	if src.Kind() == reflect.Pointer {
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
		return assignValue(dst, src.Elem())
	}

	if src.Type() == numberType && isNumeric(dt.Kind()) {
		n, err := parseNumber(json.Number(src.String()), dt.Kind())
		if err != nil {
			return err
		}
		src = n
	}

	switch dt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt64(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(i) {
			return fmt.Errorf("%d overflows %s", i, dt)
		}
		dst.SetInt(i)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := toUint64(src)
		if err != nil {
			return err
		}
		if dst.OverflowUint(u) {
			return fmt.Errorf("%d overflows %s", u, dt)
		}
		dst.SetUint(u)
		return nil

	case reflect.Float32, reflect.Float64:
		var f float64
		switch {
		case isInt(src.Kind()):
			f = float64(src.Int())
		case isUint(src.Kind()):
			f = float64(src.Uint())
		case isFloat(src.Kind()):
			f = src.Float()
		default:
			return fmt.Errorf("cannot assign %s to %s", src.Type(), dt)
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("%g overflows %s", f, dt)
		}
		dst.SetFloat(f)
		return nil

	case reflect.Slice:
		if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
			break
		}
		if src.Kind() == reflect.Slice && src.IsNil() {
			dst.SetZero()
			return nil
		}
		ln := src.Len()
		out := reflect.MakeSlice(dt, ln, ln)
		for i := range ln {
			if err := assignValue(out.Index(i), src.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
			break
		}
		if src.Len() != dt.Len() {
			return fmt.Errorf("cannot assign %d elements to %s", src.Len(), dt)
		}
		for i := range src.Len() {
			if err := assignValue(dst.Index(i), src.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil

	case reflect.Map:
		if src.Kind() != reflect.Map {
			break
		}
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
		out := reflect.MakeMapWithSize(dt, src.Len())
		k := reflect.New(dt.Key()).Elem()
		v := reflect.New(dt.Elem()).Elem()
		iter := src.MapRange()
		for iter.Next() {
			k.SetZero()
			v.SetZero()
			if err := assignValue(k, iter.Key()); err != nil {
				return fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			if err := assignValue(v, iter.Value()); err != nil {
				return fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			out.SetMapIndex(k, v)
		}
		dst.Set(out)
		return nil
	}

	if src.Kind() == dt.Kind() && src.Type().ConvertibleTo(dt) {
		dst.Set(src.Convert(dt))
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", src.Type(), dt)
}

// parseNumber parses n exactly for a destination of kind k. Integer
// destinations get an int64 or uint64, and accept literals like 1.0 or
// 1e3 only when they denote an integer exactly.
func parseNumber(n json.Number, k reflect.Kind) (reflect.Value, error) {
	s := string(n)
	switch {
	case isFloat(k):
		f, err := n.Float64()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid number %q", s)
		}
		return reflect.ValueOf(f), nil
	case isUint(k):
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return reflect.ValueOf(u), nil
		}
	default:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return reflect.ValueOf(i), nil
		}
	}

	// Past 2^65 every integer kind overflows.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return reflect.Value{}, fmt.Errorf("invalid number %q", s)
	}
	switch {
	case math.IsInf(f, 0) || math.Abs(f) > 1<<65:
		return reflect.Value{}, fmt.Errorf("%s overflows %s", s, k)
	case f == 0 && err != nil:
		return reflect.Value{}, fmt.Errorf("%s is not an integer", s)
	case f == 0:
		return reflect.Zero(reflect.TypeFor[int64]()), nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return reflect.Value{}, fmt.Errorf("invalid number %q", s)
	}
	if !r.IsInt() {
		return reflect.Value{}, fmt.Errorf("%s is not an integer", s)
	}
	i := r.Num()
	switch {
	case isUint(k) && i.Sign() < 0:
		return reflect.Value{}, fmt.Errorf("%s is negative", s)
	case isUint(k) && i.IsUint64():
		return reflect.ValueOf(i.Uint64()), nil
	case !isUint(k) && i.IsInt64():
		return reflect.ValueOf(i.Int64()), nil
	}
	return reflect.Value{}, fmt.Errorf("%s overflows %s", s, k)
}

func toInt64(src reflect.Value) (int64, error) {
	switch {
	case isInt(src.Kind()):
		return src.Int(), nil
	case isUint(src.Kind()):
		u := src.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", u)
		}
		return int64(u), nil
	case isFloat(src.Kind()):
		f := src.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%g is not an integer", f)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("%g overflows int64", f)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("cannot assign %s to an integer", src.Type())
}

func toUint64(src reflect.Value) (uint64, error) {
	switch {
	case isInt(src.Kind()):
		i := src.Int()
		if i < 0 {
			return 0, fmt.Errorf("%d is negative", i)
		}
		return uint64(i), nil
	case isUint(src.Kind()):
		return src.Uint(), nil
	case isFloat(src.Kind()):
		f := src.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%g is not an integer", f)
		}
		if f < 0 || f >= math.MaxUint64 {
			return 0, fmt.Errorf("%g overflows uint64", f)
		}
		return uint64(f), nil
	}
	return 0, fmt.Errorf("cannot assign %s to an unsigned integer", src.Type())
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumeric(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}
