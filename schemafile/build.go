package schemafile

import (
	"fmt"
	"slices"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/jsonmap"
)

// A Set is the collection of encoders and decoders built from a
// [Document].
type Set struct {
	names    []string
	schemas  map[string]*jsonmap.Schema
	encoders map[string]*jsonmap.Encoder
	decoders map[string]*jsonmap.Decoder
}

// Names returns the names of the schemas in s, in document order.
func (s *Set) Names() []string {
	return slices.Clone(s.names)
}

// Schema returns the schema called name.
func (s *Set) Schema(name string) (*jsonmap.Schema, bool) {
	ret, ok := s.schemas[name]
	return ret, ok
}

// Encoder returns the encoder for the schema called name.
func (s *Set) Encoder(name string) (*jsonmap.Encoder, bool) {
	ret, ok := s.encoders[name]
	return ret, ok
}

// Decoder returns the decoder for the schema called name.
func (s *Set) Decoder(name string) (*jsonmap.Decoder, bool) {
	ret, ok := s.decoders[name]
	return ret, ok
}

// Build checks d, binds its names through reg, and builds an encoder
// and a decoder for every schema of d.
//
// Schemas are built after the schemas they nest, so that nested
// mappings receive built codecs. A schema that nests itself, directly
// or through other schemas, is a [jsonmap.ConfigurationError], as is
// any name that reg does not bind. Errors from building the encoders
// and decoders themselves are returned as is, wrapped with the name of
// the schema.
func (d *Document) Build(reg *Registry) (*Set, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	b := &builder{
		doc:      d,
		reg:      reg,
		visiting: mapset.New[string](),
		set: &Set{
			schemas:  map[string]*jsonmap.Schema{},
			encoders: map[string]*jsonmap.Encoder{},
			decoders: map[string]*jsonmap.Decoder{},
		},
	}
	for _, s := range d.Schemas {
		if _, err := b.encoder(s.Name); err != nil {
			return nil, err
		}
		if _, err := b.decoder(s.Name); err != nil {
			return nil, err
		}
		b.set.names = append(b.set.names, s.Name)
	}
	return b.set, nil
}

type builder struct {
	doc *Document
	reg *Registry
	// visiting is the set of schemas being built, for recursion
	// detection.
	visiting mapset.Set[string]
	set      *Set
}

func (b *builder) encoder(name string) (*jsonmap.Encoder, error) {
	if ret, ok := b.set.encoders[name]; ok {
		return ret, nil
	}
	s, err := b.schema(name)
	if err != nil {
		return nil, err
	}
	ret, err := jsonmap.NewEncoder(s)
	if err != nil {
		return nil, fmt.Errorf("building encoder for schema %q: %w", name, err)
	}
	b.set.encoders[name] = ret
	return ret, nil
}

func (b *builder) decoder(name string) (*jsonmap.Decoder, error) {
	if ret, ok := b.set.decoders[name]; ok {
		return ret, nil
	}
	s, err := b.schema(name)
	if err != nil {
		return nil, err
	}
	ret, err := jsonmap.NewDecoder(s)
	if err != nil {
		return nil, fmt.Errorf("building decoder for schema %q: %w", name, err)
	}
	b.set.decoders[name] = ret
	return ret, nil
}

func (b *builder) schema(name string) (*jsonmap.Schema, error) {
	if ret, ok := b.set.schemas[name]; ok {
		return ret, nil
	}
	decl, ok := b.doc.Lookup(name)
	if !ok {
		return nil, configErr(name, nil, "unknown schema")
	}
	if b.visiting.Has(name) {
		return nil, configErr(name, nil, "schema nests itself")
	}
	b.visiting.Add(name)
	defer b.visiting.Remove(name)

	t, ok := b.reg.types[decl.Type]
	if !ok {
		return nil, configErr(name, nil, "unknown type %q", decl.Type)
	}
	ret := &jsonmap.Schema{Type: t}
	if decl.Parent != "" {
		parent, err := b.schema(decl.Parent)
		if err != nil {
			return nil, err
		}
		ret.Parent = parent
	}
	if decl.Constructor != "" {
		c, ok := b.reg.ctors[decl.Constructor]
		if !ok {
			return nil, configErr(name, nil, "unknown constructor %q", decl.Constructor)
		}
		ret.Constructor = c
	}
	for i := range decl.Mappings {
		m, err := b.mapping(decl, &decl.Mappings[i])
		if err != nil {
			return nil, err
		}
		ret.Mappings = append(ret.Mappings, m)
	}

	b.set.schemas[name] = ret
	return ret, nil
}

func (b *builder) mapping(s *SchemaDecl, d *MappingDecl) (jsonmap.Mapping, error) {
	ret := jsonmap.Mapping{
		JSONProperty:     d.JSON,
		ObjectProperty:   d.Property,
		ConstructorParam: d.Param,
	}
	fail := func(kind, name string) (jsonmap.Mapping, error) {
		return jsonmap.Mapping{}, configErr(s.Name, d, "unknown %s %q", kind, name)
	}

	if d.Getter != "" {
		fn, ok := b.reg.getters[d.Getter]
		if !ok {
			return fail("getter", d.Getter)
		}
		ret.ObjectGetter = fn
	}
	if d.Setter != "" {
		fn, ok := b.reg.setters[d.Setter]
		if !ok {
			return fail("setter", d.Setter)
		}
		ret.ObjectSetter = fn
	}
	if d.JSONGetter != "" {
		fn, ok := b.reg.jsonGetters[d.JSONGetter]
		if !ok {
			return fail("json getter", d.JSONGetter)
		}
		ret.JSONGetter = fn
	}
	switch d.JSONSetter {
	case "":
	case builtinOmitEmpty:
		ret.JSONSetter = jsonmap.OmitEmpty(d.JSON)
	default:
		fn, ok := b.reg.jsonSetters[d.JSONSetter]
		if !ok {
			return fail("json setter", d.JSONSetter)
		}
		ret.JSONSetter = fn
	}

	if ref := d.Encoder; ref != "" {
		if enc, ok := builtinEncoders[ref]; ok {
			ret.Encoder = enc
		} else {
			enc, err := b.encoder(ref)
			if err != nil {
				return jsonmap.Mapping{}, err
			}
			ret.Encoder = enc
		}
	}
	if ref := d.Decoder; ref != "" {
		if dec, ok := builtinDecoders[ref]; ok {
			ret.Decoder = dec
		} else {
			dec, err := b.decoder(ref)
			if err != nil {
				return jsonmap.Mapping{}, err
			}
			ret.Decoder = dec
		}
	}
	return ret, nil
}

func configErr(schema string, m *MappingDecl, reason string, args ...any) error {
	ret := jsonmap.ConfigurationError{
		Type:   schema,
		Reason: fmt.Errorf(reason, args...),
	}
	if m != nil {
		ret.Mapping = m.String()
	}
	return ret
}
