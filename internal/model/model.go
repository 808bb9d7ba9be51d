// Package model defines core data structures for cmdschema.
package model

import (
	"bytes"
	"encoding/json"
)

// FunctionBlock is the run of non-empty, non-comment source lines belonging
// to one function declaration. Lines[0] always holds the declaration keyword.
type FunctionBlock struct {
	Lines []string
}

// TypeDescriptor describes the value domain of one parameter.
// A nil DefaultValue means the parameter has no default.
type TypeDescriptor struct {
	Type         string `json:"type"`
	DefaultValue any    `json:"defaultValue,omitempty"`
	IsNullable   bool   `json:"isNullable"`
}

// Parameter is one declared function parameter.
type Parameter struct {
	Name string
	Type TypeDescriptor
}

// ParameterTable holds the parameters of one function keyed by name.
type ParameterTable struct {
	Params           map[string]Parameter
	HasCommandMarker bool
}

// Lookup returns the parameter named name, if declared.
func (pt ParameterTable) Lookup(name string) (Parameter, bool) {
	p, ok := pt.Params[name]
	return p, ok
}

// Field is one key/value pair of command metadata.
type Field struct {
	Key   string
	Value string
}

// Fields is an insertion-ordered string map. Setting an existing key
// replaces its value in place.
type Fields []Field

// Set adds or replaces key.
func (f *Fields) Set(key, value string) {
	for i := range *f {
		if (*f)[i].Key == key {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (string, bool) {
	for _, fl := range f {
		if fl.Key == key {
			return fl.Value, true
		}
	}
	return "", false
}

// Delete removes key if present.
func (f *Fields) Delete(key string) {
	for i := range *f {
		if (*f)[i].Key == key {
			*f = append((*f)[:i], (*f)[i+1:]...)
			return
		}
	}
}

// ArgumentPair is one (name, raw value) descriptor parsed from a command's
// nested argument array.
type ArgumentPair struct {
	Name  string
	Value string
}

// RawCommandSchema is the unreconciled result of parsing one command call.
type RawCommandSchema struct {
	Metadata  Fields
	Arguments []ArgumentPair
}

// ArgumentValue is either a raw literal or the descriptor of the parameter
// the literal referred to.
type ArgumentValue struct {
	Literal    string
	Descriptor *TypeDescriptor
}

// MarshalJSON encodes the descriptor when present, the literal otherwise.
func (v ArgumentValue) MarshalJSON() ([]byte, error) {
	if v.Descriptor != nil {
		return marshal(v.Descriptor)
	}
	return marshal(v.Literal)
}

// NamedArgument is one reconciled command argument.
type NamedArgument struct {
	Name  string
	Value ArgumentValue
}

// FunctionSchema is the emitted entry for one function.
type FunctionSchema struct {
	Metadata  Fields
	Arguments []NamedArgument
}

// Argument returns the reconciled argument named name.
func (fs FunctionSchema) Argument(name string) (ArgumentValue, bool) {
	for _, a := range fs.Arguments {
		if a.Name == name {
			return a.Value, true
		}
	}
	return ArgumentValue{}, false
}

// MarshalJSON writes metadata keys in source order followed by
// "rubyArguments".
func (fs FunctionSchema) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for _, f := range fs.Metadata {
		if err := writeMember(&b, f.Key, f.Value); err != nil {
			return nil, err
		}
		b.WriteByte(',')
	}
	key, _ := marshal("rubyArguments")
	b.Write(key)
	b.WriteString(":{")
	for i, a := range fs.Arguments {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeMember(&b, a.Name, a.Value); err != nil {
			return nil, err
		}
	}
	b.WriteString("}}")
	return b.Bytes(), nil
}

// Entry is one function name with its schema.
type Entry struct {
	Name   string
	Schema FunctionSchema
}

// Schema is the ordered mapping from function name to FunctionSchema.
// A repeated name overwrites the earlier value and keeps its position.
type Schema struct {
	Entries []Entry
	index   map[string]int
}

// Put stores fs under name.
func (s *Schema) Put(name string, fs FunctionSchema) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[name]; ok {
		s.Entries[i].Schema = fs
		return
	}
	s.index[name] = len(s.Entries)
	s.Entries = append(s.Entries, Entry{Name: name, Schema: fs})
}

// Get returns the schema stored under name.
func (s *Schema) Get(name string) (FunctionSchema, bool) {
	i, ok := s.index[name]
	if !ok {
		return FunctionSchema{}, false
	}
	return s.Entries[i].Schema, true
}

// Len reports the number of functions.
func (s *Schema) Len() int {
	return len(s.Entries)
}

// Merge copies every entry of other into s, overwriting duplicates.
func (s *Schema) Merge(other *Schema) {
	for _, e := range other.Entries {
		s.Put(e.Name, e.Schema)
	}
}

// MarshalJSON writes the functions in insertion order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, e := range s.Entries {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeMember(&b, e.Name, e.Schema); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func writeMember(b *bytes.Buffer, key string, value any) error {
	k, err := marshal(key)
	if err != nil {
		return err
	}
	v, err := marshal(value)
	if err != nil {
		return err
	}
	b.Write(k)
	b.WriteByte(':')
	b.Write(v)
	return nil
}

// marshal is json.Marshal without HTML escaping, so Swift generics such as
// Array<String> survive verbatim.
func marshal(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}
