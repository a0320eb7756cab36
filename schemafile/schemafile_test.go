package schemafile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danderson/jsonmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Person struct {
	Name     string
	Nickname string
	Age      int
	Home     *Address
}

func newPerson(name string) *Person {
	return &Person{Name: name}
}

type Address struct {
	City string
}

type Employee struct {
	Person
	Title string
}

func newEmployee(name string) *Employee {
	return &Employee{Person: *newPerson(name)}
}

const peopleYAML = `
schemas:
  - name: Person
    constructor: newPerson
    mappings:
      - json: name
        property: Name
        param: name
      - json: nickname
        property: Nickname
        json_setter: omitEmpty
      - json: age
        property: Age
        encoder: string
        decoder: int
      - json: home
        property: Home
        encoder: Home
        decoder: Home
      - json: initials
        getter: initials
  - name: Employee
    parent: Person
    constructor: newEmployee
    mappings:
      - json: name
        param: name
      - json: title
        property: Title
  - name: Home
    type: Address
    mappings:
      - json: city
        property: City
`

func peopleRegistry() *Registry {
	r := NewRegistry()
	RegisterType[Person](r, "Person")
	RegisterType[Employee](r, "Employee")
	RegisterType[Address](r, "Address")
	r.Constructor("newPerson", jsonmap.MustConstructor(newPerson, "name"))
	r.Constructor("newEmployee", jsonmap.MustConstructor(newEmployee, "name"))
	r.Getter("initials", jsonmap.ObjectGetterFunc(func(p *Person) any {
		var ret strings.Builder
		for _, w := range strings.Fields(p.Name) {
			ret.WriteByte(w[0])
		}
		return ret.String()
	}))
	return r
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(peopleYAML))
	require.NoError(t, err)
	require.Len(t, doc.Schemas, 3)

	person := doc.Schemas[0]
	assert.Equal(t, "Person", person.Name)
	assert.Equal(t, "Person", person.Type, "type defaults to name")
	assert.Equal(t, "newPerson", person.Constructor)
	require.Len(t, person.Mappings, 5)
	assert.Equal(t, MappingDecl{JSON: "name", Property: "Name", Param: "name"}, person.Mappings[0])
	assert.Equal(t, "omitEmpty", person.Mappings[1].JSONSetter)
	assert.Equal(t, "Home", person.Mappings[3].Encoder)

	home, ok := doc.Lookup("Home")
	require.True(t, ok)
	assert.Equal(t, "Address", home.Type)
	_, ok = doc.Lookup("Nobody")
	assert.False(t, ok)

	// Serializing and parsing again yields the same document.
	bs, err := Marshal(doc)
	require.NoError(t, err)
	again, err := Parse(bs)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestParseErrors(t *testing.T) {
	empty, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Schemas)

	for _, in := range []string{
		"schemas: {",
		"schemas: 42",
		"schemas:\n  - name: A\n    colour: blue\n",
		"schemas:\n  - name: A\n    mappings:\n      - jsn: a\n",
	} {
		_, err := Parse([]byte(in))
		assert.Error(t, err, "Parse(%q)", in)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.yaml")
	require.NoError(t, os.WriteFile(path, []byte(peopleYAML), 0600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Schemas, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("schemas: {"), 0600))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestFlatten(t *testing.T) {
	doc, err := Parse([]byte(peopleYAML))
	require.NoError(t, err)

	got, err := doc.Flatten("Employee")
	require.NoError(t, err)
	var strs []string
	for _, m := range got {
		strs = append(strs, m.String())
	}
	assert.Equal(t, []string{
		`json "name" <-> param name, property Name`,
		`json "nickname", json_setter omitEmpty <-> property Nickname`,
		`json "age" <-> property Age encoder string decoder int`,
		`json "home" <-> property Home encoder Home decoder Home`,
		`json "initials" <- getter initials`,
		`json "name" -> param name`,
		`json "title" <-> property Title`,
	}, strs)

	_, err = doc.Flatten("Nobody")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	doc, err := Parse([]byte(peopleYAML))
	require.NoError(t, err)
	require.NoError(t, doc.Check())

	tests := []struct {
		name string
		yaml string
	}{
		{"no name", "schemas:\n  - type: A\n"},
		{"duplicate name", "schemas:\n  - name: A\n  - name: A\n"},
		{"reserved name", "schemas:\n  - name: int\n"},
		{"unknown parent", "schemas:\n  - name: A\n    parent: B\n"},
		{"parent cycle", "schemas:\n  - name: A\n    parent: B\n  - name: B\n    parent: A\n"},
		{"self parent", "schemas:\n  - name: A\n    parent: A\n"},
		{"no direction", "schemas:\n  - name: A\n    mappings:\n      - json: a\n"},
		{"omitEmpty without key", "schemas:\n  - name: A\n    mappings:\n      - property: A\n        json_setter: omitEmpty\n"},
		{"param without constructor", "schemas:\n  - name: A\n    mappings:\n      - json: a\n        param: a\n"},
		{"unknown encoder", "schemas:\n  - name: A\n    mappings:\n      - json: a\n        property: A\n        encoder: B\n"},
		{"unknown decoder", "schemas:\n  - name: A\n    mappings:\n      - json: a\n        property: A\n        decoder: bool\n"},
		{"decoder only builtin as encoder", "schemas:\n  - name: A\n    mappings:\n      - json: a\n        property: A\n        encoder: int\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse([]byte(tc.yaml))
			require.NoError(t, err)
			err = doc.Check()
			var ce jsonmap.ConfigurationError
			assert.True(t, errors.As(err, &ce), "Check() got err %v, want ConfigurationError", err)
		})
	}

	// All problems are reported at once.
	doc, err = Parse([]byte("schemas:\n  - name: A\n    parent: X\n  - name: A\n    mappings:\n      - json: a\n"))
	require.NoError(t, err)
	err = doc.Check()
	require.Error(t, err)
	assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 3)
}

func TestBuild(t *testing.T) {
	doc, err := Parse([]byte(peopleYAML))
	require.NoError(t, err)
	set, err := doc.Build(peopleRegistry())
	require.NoError(t, err)
	assert.Equal(t, []string{"Person", "Employee", "Home"}, set.Names())

	enc, ok := set.Encoder("Person")
	require.True(t, ok)
	got, err := enc.Encode(&Person{Name: "Ada Lovelace", Age: 36, Home: &Address{"London"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":     "Ada Lovelace",
		"age":      "36",
		"home":     map[string]any{"city": "London"},
		"initials": "AL",
	}, got)

	dec, ok := set.Decoder("Employee")
	require.True(t, ok)
	emp, err := dec.Unmarshal([]byte(`{"name": "Ada", "nickname": "Countess", "age": "36", "home": {"city": "London"}, "title": "Analyst"}`))
	require.NoError(t, err)
	assert.Equal(t, &Employee{
		Person: Person{Name: "Ada", Nickname: "Countess", Age: 36, Home: &Address{"London"}},
		Title:  "Analyst",
	}, emp)

	s, ok := set.Schema("Employee")
	require.True(t, ok)
	flat, err := s.Flatten()
	require.NoError(t, err)
	assert.Len(t, flat, 7)

	_, ok = set.Encoder("Nobody")
	assert.False(t, ok)
	_, ok = set.Decoder("Nobody")
	assert.False(t, ok)
}

func TestRegistryBuiltins(t *testing.T) {
	r := peopleRegistry()
	assert.Panics(t, func() {
		r.JSONSetter(builtinOmitEmpty, func(map[string]any, any) {})
	})
	r.JSONSetter("always", func(m map[string]any, v any) { m["always"] = v })
	_, ok := r.jsonSetters[builtinOmitEmpty]
	assert.False(t, ok)

	doc, err := Parse([]byte("schemas:\n  - name: Person\n    mappings:\n      - json: nickname\n        property: Nickname\n        json_setter: omitEmpty\n      - property: Name\n        json_setter: always\n"))
	require.NoError(t, err)
	set, err := doc.Build(r)
	require.NoError(t, err)
	enc, ok := set.Encoder("Person")
	require.True(t, ok)
	got, err := enc.Encode(&Person{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"always": "Ada"}, got)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown type", "schemas:\n  - name: Nobody\n"},
		{"unknown constructor", "schemas:\n  - name: Person\n    constructor: makePerson\n"},
		{"unknown getter", "schemas:\n  - name: Person\n    mappings:\n      - json: a\n        getter: nope\n"},
		{"unknown setter", "schemas:\n  - name: Person\n    mappings:\n      - json: a\n        setter: nope\n"},
		{"unknown json getter", "schemas:\n  - name: Person\n    mappings:\n      - json_getter: nope\n        property: Name\n"},
		{"unknown json setter", "schemas:\n  - name: Person\n    mappings:\n      - json_setter: nope\n        property: Name\n"},
		{"self nesting", "schemas:\n  - name: Person\n    mappings:\n      - json: a\n        property: Home\n        encoder: Person\n"},
		{"mutual nesting", `
schemas:
  - name: Person
    mappings:
      - json: home
        property: Home
        decoder: Home
  - name: Home
    type: Address
    mappings:
      - json: owner
        property: City
        decoder: Person
`},
		{"type mismatch", "schemas:\n  - name: Person\n    type: Address\n    constructor: newPerson\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse([]byte(tc.yaml))
			require.NoError(t, err)
			require.NoError(t, doc.Check())
			_, err = doc.Build(peopleRegistry())
			var ce jsonmap.ConfigurationError
			assert.True(t, errors.As(err, &ce), "Build() got err %v, want ConfigurationError", err)
		})
	}

	// Check failures stop the build.
	doc, err := Parse([]byte("schemas:\n  - name: Person\n    parent: Nobody\n"))
	require.NoError(t, err)
	_, err = doc.Build(peopleRegistry())
	assert.Error(t, err)

	// Constructor binding problems surface from the decoder build.
	doc, err = Parse([]byte("schemas:\n  - name: Person\n    constructor: newPerson\n    mappings:\n      - json: n\n        param: fullName\n"))
	require.NoError(t, err)
	_, err = doc.Build(peopleRegistry())
	var be jsonmap.ConstructorBindingError
	assert.True(t, errors.As(err, &be), "Build() got err %v, want ConstructorBindingError", err)
}
