package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

var (
	sourceFields  = jsonFieldNames(reflect.TypeOf(Source{}))
	appFields     = jsonFieldNames(reflect.TypeOf(App{}))
	versionFields = jsonFieldNames(reflect.TypeOf(AppVersion{}))
	newsFields    = jsonFieldNames(reflect.TypeOf(NewsItem{}))
)

// Import reads a document from JSON text. Text that is not a JSON object
// yields a *ParseError. Anything that parses is accepted: missing or
// malformed apps and news default to empty lists, fields holding values of
// the wrong type are left empty, and problems are left for Validate.
func Import(data []byte) (Source, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return Source{}, &ParseError{Offset: syntaxErr.Offset, Err: err}
		}
		return Source{}, &ParseError{Err: err}
	}
	if _, ok := probe.(map[string]any); !ok {
		return Source{}, &ParseError{Err: fmt.Errorf("document is %s, not an object", jsonKind(probe))}
	}

	var src Source
	if err := src.UnmarshalJSON(data); err != nil {
		return Source{}, &ParseError{Err: err}
	}
	if src.Apps == nil {
		src.Apps = []App{}
	}
	if src.News == nil {
		src.News = []NewsItem{}
	}
	return src, nil
}

// Export normalizes src and renders it as indented JSON. Keys keep the
// declared field order; unknown keys carried from import follow, sorted.
func Export(src Source) ([]byte, error) {
	obj, err := NormalizeSource(src)
	if err != nil {
		return nil, err
	}
	return encodeJSON(obj, "  ")
}

// ExportCompact is Export without indentation.
func ExportCompact(src Source) ([]byte, error) {
	obj, err := NormalizeSource(src)
	if err != nil {
		return nil, err
	}
	return encodeJSON(obj, "")
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return "a number"
	}
}

func (s Source) MarshalJSON() ([]byte, error) {
	type alias Source
	known, err := json.Marshal(alias(s))
	if err != nil {
		return nil, err
	}
	return appendExtra(known, s.Extra, sourceFields)
}

func (s *Source) UnmarshalJSON(data []byte) error {
	type alias Source
	var a alias
	if err := unmarshalLenient(data, &a); err != nil {
		return err
	}
	a.Extra = extraFields(data, sourceFields)
	*s = Source(a)
	return nil
}

func (a App) MarshalJSON() ([]byte, error) {
	type alias App
	known, err := json.Marshal(alias(a))
	if err != nil {
		return nil, err
	}
	return appendExtra(known, a.Extra, appFields)
}

func (a *App) UnmarshalJSON(data []byte) error {
	type alias App
	var v alias
	if err := unmarshalLenient(data, &v); err != nil {
		return err
	}
	v.Extra = extraFields(data, appFields)
	*a = App(v)
	return nil
}

func (v AppVersion) MarshalJSON() ([]byte, error) {
	type alias AppVersion
	known, err := json.Marshal(alias(v))
	if err != nil {
		return nil, err
	}
	return appendExtra(known, v.Extra, versionFields)
}

func (v *AppVersion) UnmarshalJSON(data []byte) error {
	type alias AppVersion
	var a alias
	if err := unmarshalLenient(data, &a); err != nil {
		return err
	}
	a.Extra = extraFields(data, versionFields)
	*v = AppVersion(a)
	return nil
}

func (n NewsItem) MarshalJSON() ([]byte, error) {
	type alias NewsItem
	if n.AppID == NoApp {
		n.AppID = ""
	}
	known, err := json.Marshal(alias(n))
	if err != nil {
		return nil, err
	}
	return appendExtra(known, n.Extra, newsFields)
}

func (n *NewsItem) UnmarshalJSON(data []byte) error {
	type alias NewsItem
	var a alias
	if err := unmarshalLenient(data, &a); err != nil {
		return err
	}
	if a.AppID == NoApp {
		a.AppID = ""
	}
	a.Extra = extraFields(data, newsFields)
	*n = NewsItem(a)
	return nil
}

// UnmarshalJSON accepts either a screenshot object or a bare image URL.
func (s *Screenshot) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		*s = Screenshot{ImageURL: url}
		return nil
	}
	type alias Screenshot
	var a alias
	if err := unmarshalLenient(data, &a); err != nil {
		return err
	}
	*s = Screenshot(a)
	return nil
}

func (s Screenshots) MarshalJSON() ([]byte, error) {
	if s.Devices != nil {
		return json.Marshal(s.Devices)
	}
	return json.Marshal(s.Images)
}

// UnmarshalJSON reads the flat list form or the per-device object form.
func (s *Screenshots) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '[':
		var images []Screenshot
		if err := unmarshalLenient(data, &images); err != nil {
			return err
		}
		*s = Screenshots{Images: images}
	case '{':
		var devices DeviceScreenshots
		if err := unmarshalLenient(data, &devices); err != nil {
			return err
		}
		*s = Screenshots{Devices: &devices}
	}
	return nil
}

// UnmarshalJSON also reads the older shapes where entitlements are
// {"name": ...} objects and privacy is a list of
// {"name": ..., "usageDescription": ...} entries.
func (p *AppPermissions) UnmarshalJSON(data []byte) error {
	var raw struct {
		Entitlements []json.RawMessage `json:"entitlements"`
		Privacy      json.RawMessage   `json:"privacy"`
	}
	if err := unmarshalLenient(data, &raw); err != nil {
		return err
	}

	var out AppPermissions
	if raw.Entitlements != nil {
		out.Entitlements = make([]string, 0, len(raw.Entitlements))
	}
	for _, e := range raw.Entitlements {
		if name, ok := legacyName(e); ok {
			out.Entitlements = append(out.Entitlements, name)
		}
	}

	privacy := bytes.TrimSpace(raw.Privacy)
	switch {
	case len(privacy) > 0 && privacy[0] == '{':
		var entries map[string]json.RawMessage
		_ = json.Unmarshal(privacy, &entries)
		out.Privacy = make(map[string]string, len(entries))
		for key, val := range entries {
			var desc string
			if json.Unmarshal(val, &desc) == nil {
				out.Privacy[key] = desc
			}
		}
	case len(privacy) > 0 && privacy[0] == '[':
		var entries []struct {
			Name             string `json:"name"`
			UsageDescription string `json:"usageDescription"`
		}
		_ = unmarshalLenient(privacy, &entries)
		out.Privacy = make(map[string]string, len(entries))
		for _, e := range entries {
			if e.Name != "" {
				out.Privacy[e.Name] = e.UsageDescription
			}
		}
	}

	*p = out
	return nil
}

func legacyName(raw json.RawMessage) (string, bool) {
	var name string
	if json.Unmarshal(raw, &name) == nil {
		return name, true
	}
	var obj struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Name != "" {
		return obj.Name, true
	}
	return "", false
}

// unmarshalLenient decodes data into v, ignoring values whose JSON type
// does not match the target field. encoding/json keeps decoding past those.
func unmarshalLenient(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

// extraFields returns the members of the JSON object in data that are not
// declared fields.
func extraFields(data []byte, declared map[string]bool) map[string]json.RawMessage {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil
	}
	for key := range all {
		if declared[key] {
			delete(all, key)
		}
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// appendExtra splices extra members into the encoded object known.
func appendExtra(known []byte, extra map[string]json.RawMessage, declared map[string]bool) ([]byte, error) {
	keys := make([]string, 0, len(extra))
	for key := range extra {
		if !declared[key] {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return known, nil
	}
	sort.Strings(keys)

	known = bytes.TrimSpace(known)
	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	needComma := len(known) > 2
	for _, key := range keys {
		val := extra[key]
		if !json.Valid(val) {
			return nil, fmt.Errorf("extra field %q holds invalid JSON", key)
		}
		if needComma {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
		needComma = true
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonFieldNames(t reflect.Type) map[string]bool {
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		names[name] = true
	}
	return names
}

// Encode renders src as indented JSON without normalizing it, so a draft
// keeps its empty fields. Import reads the result back.
func Encode(src Source) ([]byte, error) {
	return encodeJSON(src, "  ")
}
