package schemafile

import (
	"errors"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/jsonmap"
)

const builtinOmitEmpty = "omitEmpty"

var (
	builtinEncoders = map[string]jsonmap.ValueEncoder{
		"string": jsonmap.StringEncoder,
	}
	builtinDecoders = map[string]jsonmap.ValueDecoder{
		"string": jsonmap.StringDecoder,
		"int":    jsonmap.IntDecoder,
		"float":  jsonmap.FloatDecoder,
	}
)

func isReserved(name string) bool {
	_, enc := builtinEncoders[name]
	_, dec := builtinDecoders[name]
	return enc || dec
}

// Check validates the structure of d, without resolving any names
// through a registry.
//
// Check reports duplicate or reserved schema names, unknown parent
// schemas, parent cycles, mappings that can neither encode nor decode,
// and nested codecs that name neither a schema of d nor a builtin
// codec. Every problem found is reported as a
// [jsonmap.ConfigurationError], joined into one error.
func (d *Document) Check() error {
	var errs []error
	report := func(s *SchemaDecl, m *MappingDecl, reason string, args ...any) {
		errs = append(errs, configErr(s.Name, m, reason, args...))
	}

	names := mapset.New[string]()
	for i := range d.Schemas {
		s := &d.Schemas[i]
		switch {
		case s.Name == "":
			report(s, nil, "schema #%d has no name", i)
		case names.Has(s.Name):
			report(s, nil, "duplicate schema name")
		case isReserved(s.Name):
			report(s, nil, "schema name is reserved for a builtin codec")
		}
		names.Add(s.Name)
	}

	for i := range d.Schemas {
		s := &d.Schemas[i]
		if s.Parent != "" && !names.Has(s.Parent) {
			report(s, nil, "unknown parent schema %q", s.Parent)
		} else if s.Parent != "" {
			if _, err := d.Flatten(s.Name); err != nil {
				report(s, nil, "%w", err)
			}
		}

		for j := range s.Mappings {
			m := &s.Mappings[j]
			if !m.CanEncode() && !m.CanDecode() {
				report(s, m, "mapping can neither encode nor decode")
			}
			if m.JSONSetter == builtinOmitEmpty && m.JSON == "" {
				report(s, m, "%s needs a json property name", builtinOmitEmpty)
			}
			if m.Param != "" && s.Constructor == "" {
				report(s, m, "constructor parameter %q, but the schema has no constructor", m.Param)
			}
			if ref := m.Encoder; ref != "" && !names.Has(ref) && builtinEncoders[ref] == nil {
				report(s, m, "unknown encoder %q", ref)
			}
			if ref := m.Decoder; ref != "" && !names.Has(ref) && builtinDecoders[ref] == nil {
				report(s, m, "unknown decoder %q", ref)
			}
		}
	}
	return errors.Join(errs...)
}
