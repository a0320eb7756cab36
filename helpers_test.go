package jsonmap

import (
	"errors"
	"fmt"
	"strings"
)

// Simple is a model with plain exported fields.
type Simple struct {
	A string
	B int
	C []string
}

// Named is a model whose name can only be set by its constructor.
type Named struct {
	first, last string
	Nickname    string
}

func NewNamed(constructorName string) *Named {
	first, last, _ := strings.Cut(constructorName, " ")
	return &Named{first: first, last: last}
}

func (n *Named) Name() string {
	return strings.TrimSpace(n.first + " " + n.last)
}

// Animal is a model that other models extend.
type Animal struct {
	Name string
	Legs int
}

// Dog extends Animal by embedding it by value.
type Dog struct {
	Animal
	Breed string
}

// Puppy extends Dog by embedding it by pointer.
type Puppy struct {
	*Dog
	AgeWeeks int
}

// Cat is unrelated to Animal, despite the resemblance.
type Cat struct {
	Name string
	Legs int
}

// Address is a model nested in Owner.
type Address struct {
	Street string
	City   string
}

// Owner is a model with nested models.
type Owner struct {
	Name string
	Home *Address
	Pets []*Animal
}

// Account is a model with private state, reachable only through
// methods.
type Account struct {
	id      string
	balance int64
}

func (a *Account) ID() string    { return a.id }
func (a *Account) SetID(s string) { a.id = s }

func (a *Account) Balance() (int64, error) {
	if a.id == "" {
		return 0, errors.New("account has no ID")
	}
	return a.balance, nil
}

func (a *Account) SetBalance(v int64) error {
	if v < 0 {
		return fmt.Errorf("negative balance %d", v)
	}
	a.balance = v
	return nil
}

// Point is a model with a value-returning constructor that can fail.
type Point struct {
	X, Y int
	Label string
}

func NewPoint(x, y int, label string) (Point, error) {
	if x < 0 || y < 0 {
		return Point{}, errors.New("point outside the first quadrant")
	}
	return Point{x, y, label}, nil
}

// Record resolves its properties itself, through a table.
type Record struct {
	vals map[string]any
}

func (r *Record) ReadProperty(name string) (any, bool) {
	switch name {
	case "key", "value":
		return r.vals[name], true
	}
	return nil, false
}

func (r *Record) WriteProperty(name string, value any) (bool, error) {
	switch name {
	case "key":
		s, ok := value.(string)
		if !ok {
			return true, fmt.Errorf("key must be a string, got %T", value)
		}
		if r.vals == nil {
			r.vals = map[string]any{}
		}
		r.vals[name] = s
		return true, nil
	case "value":
		if r.vals == nil {
			r.vals = map[string]any{}
		}
		r.vals[name] = value
		return true, nil
	}
	return false, nil
}

// Numbers is a model with many numeric kinds.
type Numbers struct {
	I8  int8
	U16 uint16
	I64 int64
	U64 uint64
	F32 float32
	P   *int
	Arr [2]int
	M   map[string]int
}

func ptr[T any](v T) *T {
	return &v
}
