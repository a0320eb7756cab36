// Package jsonmap maps Go models to and from JSON-compatible values
// according to declarative schemas, without the models knowing
// anything about JSON.
//
// A [Schema] is an ordered list of [Mapping] values for one model
// struct type. Each Mapping relates one JSON property to one model
// property, in one or both directions:
//
//	var personSchema = jsonmap.NewSchema[Person](nil,
//	    jsonmap.Mapping{JSONProperty: "id", ObjectProperty: "ID"},
//	    jsonmap.Mapping{JSONProperty: "full_name", ObjectProperty: "Name", ConstructorParam: "name"},
//	    jsonmap.Mapping{JSONProperty: "nickname", ObjectProperty: "Nickname", JSONSetter: jsonmap.OmitEmpty("nickname")},
//	).WithConstructor(jsonmap.MustConstructor(NewPerson, "name"))
//
// [NewEncoder] and [NewDecoder] compile a schema into an [Encoder]
// and a [Decoder]. Compilation validates every mapping, so mistakes in
// a schema are reported as a [ConfigurationError] when the encoder or
// decoder is built, rather than in the middle of serializing data.
//
// Encoding starts with an empty JSON object, and applies every
// mapping that can encode in schema order. A mapping reads its value
// with ObjectGetter, or from the property named ObjectProperty. It
// places the value with JSONSetter, which decides alone whether and
// where the value lands, or under the key JSONProperty. Mappings that
// can only decode are skipped.
//
// Decoding runs in two passes. The first pass evaluates the mappings
// with a ConstructorParam, and calls the schema's [Constructor] with
// the collected named arguments. The second pass applies the
// remaining mappings to the new model in schema order, through
// ObjectSetter or by assigning the property named ObjectProperty. A
// mapping reads its value with JSONGetter, or from the key
// JSONProperty. If the key is missing, the mapping is skipped, which
// makes every JSON property optional unless a constructor requires it.
//
// When two mappings write the same JSON key or the same model
// property, the later mapping wins.
//
// # Properties
//
// A model property named by ObjectProperty is resolved as follows:
// if the model implements [PropertyReader] or [PropertyWriter], the
// model resolves it. Otherwise, an exported struct field of that name
// is used, including fields promoted from embedded structs. Otherwise,
// a method is used: Name() for reading, returning the value and
// optionally an error, and SetName(v) for writing, optionally
// returning an error.
//
// A property that cannot be resolved results in a
// [PropertyAccessError] when a mapping tries to use it.
//
// # Inheritance
//
// A schema may have a parent schema, for a model struct that the
// schema's model embeds. The parent's mappings apply first, so that
// the child's mappings override them. Getters and setters of parent
// mappings receive a pointer to the embedded parent struct, so they
// keep working unchanged for every child model.
//
// Parent mappings bound to constructor parameters are not used when
// decoding a child model, since only the child's constructor runs.
//
// # Nested models
//
// A Mapping with an Encoder or Decoder delegates the property value
// to it. A built [*Encoder] or [*Decoder] can be used this way, which
// nests models in models. Slices of values and JSON arrays are
// delegated element by element.
//
// # JSON pipeline
//
// Encoders and decoders produce and consume the values used by
// encoding/json: map[string]any, []any, strings, numbers, booleans and
// nil. [Encoder.Marshal], [Decoder.Unmarshal] and [Encoder.Value]
// connect them to encoding/json directly.
//
// jsonmap does not validate its input beyond what mappings require.
// Callers decoding untrusted JSON should validate it first.
package jsonmap
