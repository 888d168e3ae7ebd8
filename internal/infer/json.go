package infer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidJSON is returned when a JSON sample cannot be parsed.
var ErrInvalidJSON = errors.New("invalid JSON sample")

// JSON schema type names.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeNull    = "null"
)

// Schema is the structure inferred from a JSON document. Object properties
// keep document order.
type Schema struct {
	Type       string     `json:"type" yaml:"type"`
	Properties []Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items      *Schema    `json:"items,omitempty" yaml:"items,omitempty"`
}

// Property is one member of an object schema.
type Property struct {
	Name   string  `json:"name" yaml:"name"`
	Schema *Schema `json:"schema" yaml:"schema"`
}

// InferJSON parses doc and returns its schema. Arrays take the schema of
// their first element.
func InferJSON(doc string) (*Schema, error) {
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()

	s, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	return s, nil
}

func decodeValue(dec *json.Decoder) (*Schema, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected %q", v)
	case string:
		return &Schema{Type: TypeString}, nil
	case json.Number:
		if strings.ContainsAny(v.String(), ".eE") {
			return &Schema{Type: TypeNumber}, nil
		}
		return &Schema{Type: TypeInteger}, nil
	case bool:
		return &Schema{Type: TypeBoolean}, nil
	case nil:
		return &Schema{Type: TypeNull}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (*Schema, error) {
	s := &Schema{Type: TypeObject}
	index := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %v", tok)
		}
		child, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		// A repeated key keeps its first position and the last value.
		if i, ok := index[name]; ok {
			s.Properties[i].Schema = child
			continue
		}
		index[name] = len(s.Properties)
		s.Properties = append(s.Properties, Property{Name: name, Schema: child})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeArray(dec *json.Decoder) (*Schema, error) {
	s := &Schema{Type: TypeArray}
	for dec.More() {
		child, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		if s.Items == nil {
			s.Items = child
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return s, nil
}

// Fields flattens the schema into field specs with dotted keys. Arrays
// contribute the fields of their element schema under their own key.
func (s *Schema) Fields() []FieldSpec {
	var fields []FieldSpec
	s.flatten("", &fields)
	return fields
}

// Empty reports whether the schema yields no fields.
func (s *Schema) Empty() bool {
	return s == nil || len(s.Fields()) == 0
}

func (s *Schema) flatten(prefix string, out *[]FieldSpec) {
	if s == nil {
		return
	}
	switch s.Type {
	case TypeObject:
		for _, p := range s.Properties {
			key := p.Name
			if prefix != "" {
				key = prefix + "." + p.Name
			}
			p.Schema.flatten(key, out)
		}
	case TypeArray:
		if s.Items == nil {
			if prefix != "" {
				*out = append(*out, FieldSpec{Key: prefix, Type: Text})
			}
			return
		}
		s.Items.flatten(prefix, out)
	default:
		if prefix == "" {
			return
		}
		*out = append(*out, FieldSpec{Key: prefix, Type: jsonTypeTag(s.Type)})
	}
}

func jsonTypeTag(t string) TypeTag {
	switch t {
	case TypeInteger:
		return Long
	case TypeNumber:
		return Double
	case TypeBoolean:
		return Boolean
	}
	return Text
}
