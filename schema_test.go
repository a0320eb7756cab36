package jsonmap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlatten(t *testing.T) {
	animal := NewSchema[Animal](nil,
		Mapping{JSONProperty: "name", ObjectProperty: "Name"},
		Mapping{JSONProperty: "legs", ObjectProperty: "Legs"},
	)
	dog := NewSchema[Dog](animal,
		Mapping{JSONProperty: "breed", ObjectProperty: "Breed"},
		Mapping{JSONProperty: "name", ObjectProperty: "Breed"},
	)
	puppy := NewSchema[Puppy](dog,
		Mapping{JSONProperty: "age", ObjectProperty: "AgeWeeks"},
	)

	got, err := puppy.Flatten()
	if err != nil {
		t.Fatalf("Flatten() got err: %v", err)
	}
	var gotStrs []string
	for _, m := range got {
		gotStrs = append(gotStrs, m.String())
	}
	want := []string{
		`json "name" <-> property Name`,
		`json "legs" <-> property Legs`,
		`json "breed" <-> property Breed`,
		`json "name" <-> property Breed`,
		`json "age" <-> property AgeWeeks`,
	}
	if diff := cmp.Diff(gotStrs, want); diff != "" {
		t.Errorf("Flatten() wrong result (-got+want):\n%s", diff)
	}

	// Flattening does not modify the schemas.
	if len(animal.Mappings) != 2 || len(dog.Mappings) != 2 || len(puppy.Mappings) != 1 {
		t.Errorf("Flatten() modified schemas")
	}
}

func TestFlattenErrors(t *testing.T) {
	cycleA := &Schema{Type: reflect.TypeFor[Animal]()}
	cycleB := &Schema{Type: reflect.TypeFor[Dog](), Parent: cycleA}
	cycleA.Parent = cycleB

	self := &Schema{Type: reflect.TypeFor[Animal]()}
	self.Parent = self

	tests := []struct {
		name string
		s    *Schema
	}{
		{"nil schema", nil},
		{"no type", &Schema{}},
		{"not a struct", &Schema{Type: reflect.TypeFor[*Animal]()}},
		{"cycle", cycleB},
		{"self parent", self},
		{"bad mapping", NewSchema[Animal](nil, Mapping{JSONProperty: "name"})},
		{"bad parent mapping", NewSchema[Dog](NewSchema[Animal](nil, Mapping{ObjectProperty: "Name"}))},
		{"parent without type", NewSchema[Dog](&Schema{})},
		{"constructor mismatch", NewSchema[Animal](nil).WithConstructor(MustConstructor(NewNamed, "name"))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.s.Flatten()
			var ce ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("Flatten() got err %v, want ConfigurationError", err)
			}
			if _, err := NewEncoder(tc.s); !errors.As(err, &ce) {
				t.Errorf("NewEncoder() got err %v, want ConfigurationError", err)
			}
			if _, err := NewDecoder(tc.s); !errors.As(err, &ce) {
				t.Errorf("NewDecoder() got err %v, want ConfigurationError", err)
			}
		})
	}
}

func TestConstructor(t *testing.T) {
	c, err := NewConstructor(NewPoint, "x", "y", "label,optional")
	if err != nil {
		t.Fatalf("NewConstructor() got err: %v", err)
	}
	if got, want := c.Model(), reflect.TypeFor[Point](); got != want {
		t.Errorf("Model() = %v, want %v", got, want)
	}
	for _, name := range []string{"x", "y", "label"} {
		if !c.Accepts(name) {
			t.Errorf("Accepts(%q) = false, want true", name)
		}
	}
	if c.Accepts("label,optional") || c.Accepts("z") {
		t.Errorf("constructor accepts unknown parameters")
	}
	if got, want := c.String(), "jsonmap.Point(x, y, label?)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	bad := []struct {
		name   string
		fn     any
		params []string
	}{
		{"not a func", 42, nil},
		{"nil func", (func() *Named)(nil), nil},
		{"wrong arity", NewNamed, nil},
		{"variadic", func(...string) *Named { return nil }, []string{"a"}},
		{"no return", func(string) {}, []string{"a"}},
		{"non-error second return", func(string) (*Named, int) { return nil, 0 }, []string{"a"}},
		{"returns non-struct", func(string) int { return 0 }, []string{"a"}},
		{"duplicate names", NewPoint, []string{"x", "x", "label"}},
		{"empty name", NewNamed, []string{""}},
		{"unknown option", NewNamed, []string{"name,required"}},
	}
	for _, tc := range bad {
		if _, err := NewConstructor(tc.fn, tc.params...); err == nil {
			t.Errorf("NewConstructor(%s) succeeded, want error", tc.name)
		}
	}
}
