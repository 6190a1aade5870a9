package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Kind tags a parsed JSON value.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

// Value is a parsed JSON document node. Object members keep document order,
// which encoding/json's map decoding would lose.
type Value struct {
	Kind    Kind
	Scalar  any // string, json.Number, bool, or nil
	Members []Member
	Elems   []Value
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// EmptyObject returns the document used in place of a failed or undecodable
// response.
func EmptyObject() Value {
	return Value{Kind: KindObject}
}

// Member returns the named object member.
func (v Value) Member(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Parse decodes a JSON document into a Value tree, preserving object member
// order. Numbers are kept as json.Number so sample values render verbatim.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("parse json: trailing content")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return Value{Kind: KindScalar, Scalar: tok}, nil
	}

	switch delim {
	case '{':
		v := Value{Kind: KindObject}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return Value{}, err
			}
			key, _ := keyTok.(string)
			child, err := parseValue(dec)
			if err != nil {
				return Value{}, err
			}
			v.Members = append(v.Members, Member{Key: key, Value: child})
		}
		if _, err := dec.Token(); err != nil { // closing brace
			return Value{}, err
		}
		return v, nil
	case '[':
		v := Value{Kind: KindArray}
		for dec.More() {
			child, err := parseValue(dec)
			if err != nil {
				return Value{}, err
			}
			v.Elems = append(v.Elems, child)
		}
		if _, err := dec.Token(); err != nil { // closing bracket
			return Value{}, err
		}
		return v, nil
	}
	return Value{}, fmt.Errorf("unexpected delimiter %v", delim)
}

// MarshalIndent renders the value as 4-space indented JSON in member order.
func (v Value) MarshalIndent() string {
	var buf bytes.Buffer
	appendIndented(&buf, v, 0)
	return buf.String()
}

func appendIndented(buf *bytes.Buffer, v Value, depth int) {
	switch v.Kind {
	case KindObject:
		if len(v.Members) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteString("{\n")
		for i, m := range v.Members {
			writeIndent(buf, depth+1)
			buf.WriteString(scalarJSON(m.Key))
			buf.WriteString(": ")
			appendIndented(buf, m.Value, depth+1)
			if i < len(v.Members)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte('}')
	case KindArray:
		if len(v.Elems) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteString("[\n")
		for i, e := range v.Elems {
			writeIndent(buf, depth+1)
			appendIndented(buf, e, depth+1)
			if i < len(v.Elems)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte(']')
	default:
		buf.WriteString(scalarJSON(v.Scalar))
	}
}

func writeIndent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("    ")
	}
}

func scalarJSON(s any) string {
	switch t := s.(type) {
	case nil:
		return "null"
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case string:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
