package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
)

// Member is a key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that keeps its key order.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(m.Key, "")
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encodeJSON(m.Value, "")
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", m.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Normalize prunes empty values from a JSON value tree. Empty strings, nulls
// and containers left without entries are dropped from their parent object;
// arrays drop empty strings and emptied containers but keep nulls. Numbers
// and booleans are never empty. The second result is false when v itself
// normalizes to nothing.
//
// Tree values are Object, []any, string, json.Number, bool and nil. Other Go
// values are converted through their JSON encoding first; a value that
// cannot be encoded is returned unchanged so the encoding error surfaces
// when the result is written.
func Normalize(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		if t == "" {
			return nil, false
		}
		return t, true
	case bool, json.Number, float64, float32, int, int64, int32:
		return t, true
	case []any:
		out := make([]any, 0, len(t))
		for _, elem := range t {
			if elem == nil {
				out = append(out, nil)
				continue
			}
			if n, ok := Normalize(elem); ok {
				out = append(out, n)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case Object:
		out := make(Object, 0, len(t))
		for _, m := range t {
			if n, ok := Normalize(m.Value); ok {
				out = append(out, Member{Key: m.Key, Value: n})
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(Object, len(keys))
		for i, k := range keys {
			obj[i] = Member{Key: k, Value: t[k]}
		}
		return Normalize(obj)
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Struct, reflect.Slice, reflect.Array, reflect.Map, reflect.Pointer:
		tree, err := toTree(v)
		if err != nil {
			return v, true
		}
		return Normalize(tree)
	}
	return v, true
}

// NormalizeSource returns the minimal export view of src. It never returns
// nil: a document with nothing left normalizes to an empty Object.
func NormalizeSource(src Source) (Object, error) {
	tree, err := toTree(src)
	if err != nil {
		return nil, err
	}
	n, ok := Normalize(tree)
	if !ok {
		return Object{}, nil
	}
	obj, ok := n.(Object)
	if !ok {
		return Object{}, nil
	}
	return obj, nil
}

func toTree(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeTree(raw)
}

// decodeTree parses data into a value tree, keeping object key order.
func decodeTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := Object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Key: key, Value: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}

// encodeJSON encodes v without HTML escaping so URLs keep their ampersands.
func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
