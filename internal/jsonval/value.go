package jsonval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind identifies which JSON variant a Value holds.
type Kind int

// The six JSON kinds. A Value holds exactly one of these.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the kind name for log and error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Member is one key/value pair of a JSON object. Objects are stored as
// member slices so source order survives decoding.
type Member struct {
	Key   string
	Value Value
}

// Value is one node of a decoded JSON document.
// The zero Value is JSON null.
type Value struct {
	kind    Kind
	boolVal bool
	numVal  json.Number
	strVal  string
	arr     []Value
	members []Member
}

// Kind returns the variant this value holds.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload. Valid only for KindBool.
func (v Value) Bool() bool { return v.boolVal }

// Number returns the numeric payload as it appeared on the wire.
// Valid only for KindNumber.
func (v Value) Number() json.Number { return v.numVal }

// Str returns the string payload. Valid only for KindString.
func (v Value) Str() string { return v.strVal }

// Items returns the elements of an array value, nil otherwise.
func (v Value) Items() []Value { return v.arr }

// Members returns the ordered key/value pairs of an object value,
// nil otherwise.
func (v Value) Members() []Member { return v.members }

// Get returns the value for key in an object, with false when the key is
// absent or the value is not an object. First occurrence wins for
// duplicate keys.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// StringField returns the string value of an object field, with false when
// the field is absent or not a string.
func (v Value) StringField(key string) (string, bool) {
	f, ok := v.Get(key)
	if !ok || f.kind != KindString {
		return "", false
	}
	return f.strVal, true
}

// Interface converts the value back to the shapes encoding/json produces:
// map[string]any, []any, string, json.Number, bool, or nil. Used when
// copying unrecognized link-object fields into endpoint metadata verbatim.
// Object key order is lost here, which is fine for metadata payloads.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.boolVal
	case KindNumber:
		return v.numVal
	case KindString:
		return v.strVal
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}

// Decode parses a complete JSON document into a Value.
// Trailing non-whitespace after the document is an error.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}

	// The document must contain exactly one value.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errors.New("trailing data after JSON document")
	}
	return v, nil
}

// decodeValue consumes one JSON value from the decoder.
func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

// decodeFromToken builds a Value starting from an already-read token.
func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Value{kind: KindNull}, nil
	case bool:
		return Value{kind: KindBool, boolVal: t}, nil
	case json.Number:
		return Value{kind: KindNumber, numVal: t}, nil
	case string:
		return Value{kind: KindString, strVal: t}, nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// decodeObject consumes object members up to and including the closing brace.
func decodeObject(dec *json.Decoder) (Value, error) {
	var members []Member
	for {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return Value{kind: KindObject, members: members}, nil
		}

		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string: %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: key, Value: val})
	}
}

// decodeArray consumes array items up to and including the closing bracket.
func decodeArray(dec *json.Decoder) (Value, error) {
	var items []Value
	for {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return Value{kind: KindArray, arr: items}, nil
		}
		val, err := decodeFromToken(dec, tok)
		if err != nil {
			return Value{}, err
		}
		items = append(items, val)
	}
}
