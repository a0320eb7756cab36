// Package schemafile loads jsonmap schemas from YAML documents.
//
// A document declares schemas by name, and refers to Go types,
// constructors and accessor functions through names bound in a
// [Registry]:
//
//	schemas:
//	  - name: Person
//	    type: Person
//	    constructor: newPerson
//	    mappings:
//	      - json: full_name
//	        property: Name
//	        param: name
//	      - json: nickname
//	        property: Nickname
//	        json_setter: omitEmpty
//	      - json: home
//	        property: Home
//	        encoder: Address
//	        decoder: Address
//
// A mapping's encoder and decoder name another schema of the same
// document, which nests that schema's model, or one of the builtin
// codecs "string", "int" and "float". The builtin JSON setter
// "omitEmpty" leaves empty values out of the JSON object.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creachadair/mds/mapset"
	"gopkg.in/yaml.v3"
)

// Document is a parsed schema file.
type Document struct {
	Schemas []SchemaDecl `yaml:"schemas"`
}

// SchemaDecl declares one schema.
type SchemaDecl struct {
	// Name identifies the schema within the document.
	Name string `yaml:"name"`
	// Type is the registry name of the model type. It defaults to
	// Name.
	Type string `yaml:"type,omitempty"`
	// Parent is the name of the parent schema, if any.
	Parent string `yaml:"parent,omitempty"`
	// Constructor is the registry name of the model's constructor, if
	// any.
	Constructor string        `yaml:"constructor,omitempty"`
	Mappings    []MappingDecl `yaml:"mappings,omitempty"`
}

// MappingDecl declares one mapping. Function-valued fields hold
// registry names.
type MappingDecl struct {
	JSON       string `yaml:"json,omitempty"`
	Property   string `yaml:"property,omitempty"`
	Param      string `yaml:"param,omitempty"`
	Getter     string `yaml:"getter,omitempty"`
	Setter     string `yaml:"setter,omitempty"`
	JSONGetter string `yaml:"json_getter,omitempty"`
	JSONSetter string `yaml:"json_setter,omitempty"`
	Encoder    string `yaml:"encoder,omitempty"`
	Decoder    string `yaml:"decoder,omitempty"`
}

// CanEncode reports whether the mapping contributes to encoding.
func (m MappingDecl) CanEncode() bool {
	return (m.Property != "" || m.Getter != "") && (m.JSON != "" || m.JSONSetter != "")
}

// CanDecode reports whether the mapping contributes to decoding.
func (m MappingDecl) CanDecode() bool {
	return (m.JSON != "" || m.JSONGetter != "") && (m.Property != "" || m.Setter != "" || m.Param != "")
}

func (m MappingDecl) String() string {
	var jsonSide []string
	if m.JSON != "" {
		jsonSide = append(jsonSide, fmt.Sprintf("json %q", m.JSON))
	}
	if m.JSONGetter != "" {
		jsonSide = append(jsonSide, "json_getter "+m.JSONGetter)
	}
	if m.JSONSetter != "" {
		jsonSide = append(jsonSide, "json_setter "+m.JSONSetter)
	}
	if len(jsonSide) == 0 {
		jsonSide = append(jsonSide, "no json")
	}

	var objSide []string
	if m.Param != "" {
		objSide = append(objSide, "param "+m.Param)
	}
	if m.Property != "" {
		objSide = append(objSide, "property "+m.Property)
	}
	if m.Getter != "" {
		objSide = append(objSide, "getter "+m.Getter)
	}
	if m.Setter != "" {
		objSide = append(objSide, "setter "+m.Setter)
	}
	if len(objSide) == 0 {
		objSide = append(objSide, "no object")
	}

	arrow := "<->"
	switch enc, dec := m.CanEncode(), m.CanDecode(); {
	case enc && !dec:
		arrow = "<-"
	case dec && !enc:
		arrow = "->"
	}
	ret := strings.Join(jsonSide, ", ") + " " + arrow + " " + strings.Join(objSide, ", ")
	if m.Encoder != "" {
		ret += " encoder " + m.Encoder
	}
	if m.Decoder != "" {
		ret += " decoder " + m.Decoder
	}
	return ret
}

// LoadFile loads and parses the schema file at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse parses a schema document. Unknown keys are errors.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing schema YAML: %w", err)
	}
	for i := range doc.Schemas {
		s := &doc.Schemas[i]
		if s.Type == "" {
			s.Type = s.Name
		}
	}
	return &doc, nil
}

// Marshal serializes doc to YAML.
func Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// Lookup returns the schema declaration called name.
func (d *Document) Lookup(name string) (*SchemaDecl, bool) {
	for i := range d.Schemas {
		if d.Schemas[i].Name == name {
			return &d.Schemas[i], true
		}
	}
	return nil, false
}

// Flatten returns the mappings of the named schema, preceded by the
// mappings of its ancestors, root ancestor first.
func (d *Document) Flatten(name string) ([]MappingDecl, error) {
	var chain []*SchemaDecl
	seen := mapset.New[string]()
	for cur := name; cur != ""; {
		if seen.Has(cur) {
			return nil, fmt.Errorf("schema %q: parent cycle through %q", name, cur)
		}
		seen.Add(cur)
		s, ok := d.Lookup(cur)
		if !ok {
			return nil, fmt.Errorf("unknown schema %q", cur)
		}
		chain = append(chain, s)
		cur = s.Parent
	}

	var ret []MappingDecl
	for i := len(chain) - 1; i >= 0; i-- {
		ret = append(ret, chain[i].Mappings...)
	}
	return ret, nil
}
