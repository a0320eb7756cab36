package jsonmap

import (
	"reflect"

	"github.com/creachadair/mds/mapset"
)

// Schema is the ordered list of mappings for one model type.
//
// Order matters: when two mappings write the same JSON property or
// the same model property, the later one wins. A schema may have a
// parent schema describing an ancestor model, that is, a struct that
// the model embeds. The parent's mappings apply before the schema's
// own, so the schema's own mappings override them.
//
// A Schema must not be modified once an [Encoder] or [Decoder] has
// been built from it.
type Schema struct {
	// Type is the model struct type.
	Type reflect.Type
	// Constructor, if set, creates models when decoding. Without a
	// Constructor, decoding starts from a zero model.
	Constructor *Constructor
	// Mappings is the list of mappings, in application order.
	Mappings []Mapping
	// Parent is the schema of an ancestor model, or nil.
	Parent *Schema
}

// NewSchema returns a Schema for model type T.
func NewSchema[T any](parent *Schema, mappings ...Mapping) *Schema {
	return &Schema{
		Type:     reflect.TypeFor[T](),
		Mappings: mappings,
		Parent:   parent,
	}
}

// WithConstructor sets the schema's constructor, and returns the
// schema.
func (s *Schema) WithConstructor(c *Constructor) *Schema {
	s.Constructor = c
	return s
}

// rule is a mapping of a flattened schema.
type rule struct {
	*Mapping
	// Owner is the schema that declared the mapping.
	Owner *Schema
}

// Flatten returns the schema's effective mappings: the flattened
// mappings of the parent schema, followed by the schema's own
// mappings.
//
// Flatten returns a [ConfigurationError] if any schema in the chain
// is malformed, if the parent chain has a cycle, or if any mapping is
// unusable.
func (s *Schema) Flatten() ([]Mapping, error) {
	rules, err := s.flatten()
	if err != nil {
		return nil, err
	}
	ret := make([]Mapping, len(rules))
	for i, r := range rules {
		ret[i] = *r.Mapping
	}
	return ret, nil
}

func (s *Schema) flatten() ([]rule, error) {
	if s == nil {
		return nil, configErr(nil, nil, "nil schema")
	}

	var chain []*Schema
	seen := mapset.New[*Schema]()
	for cur := s; cur != nil; cur = cur.Parent {
		if seen.Has(cur) {
			return nil, configErr(s.Type, nil, "parent schema cycle through %s", typeName(cur.Type))
		}
		seen.Add(cur)
		if err := cur.validateType(); err != nil {
			return nil, err
		}
		chain = append(chain, cur)
	}

	var ret []rule
	for i := len(chain) - 1; i >= 0; i-- {
		cur := chain[i]
		for j := range cur.Mappings {
			m := &cur.Mappings[j]
			if err := m.Validate(cur.Type); err != nil {
				return nil, err
			}
			ret = append(ret, rule{m, cur})
		}
	}
	return ret, nil
}

func (s *Schema) validateType() error {
	if s.Type == nil {
		return configErr(nil, nil, "schema has no model type")
	}
	if s.Type.Kind() != reflect.Struct {
		return configErr(s.Type, nil, "model type must be a struct, not %s", s.Type.Kind())
	}
	if s.Constructor != nil && s.Constructor.Model() != s.Type {
		return configErr(s.Type, nil, "constructor %s creates %s", s.Constructor, s.Constructor.Model())
	}
	return nil
}
