package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mustTree(t *testing.T, s string) any {
	t.Helper()
	v, err := decodeTree([]byte(s))
	if err != nil {
		t.Fatalf("decodeTree(%s) failed: %v", s, err)
	}
	return v
}

func mustEncode(t *testing.T, v any) string {
	t.Helper()
	b, err := encodeJSON(v, "")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return string(b)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		empty bool
	}{
		{"collapse empty fields", `{"name":"X","subtitle":"","apps":[],"news":[]}`, `{"name":"X"}`, false},
		{"keeps zero and false", `{"size":0,"notify":false}`, `{"size":0,"notify":false}`, false},
		{"drops nulls in objects", `{"a":null,"b":"x"}`, `{"b":"x"}`, false},
		{"keeps nulls in arrays", `[null,"a"]`, `[null,"a"]`, false},
		{"drops empty strings in arrays", `["","a",""]`, `["a"]`, false},
		{"nested empty collapses upward", `{"a":{"b":{"c":""}},"d":1}`, `{"d":1}`, false},
		{"array of empty objects", `{"list":[{},{"x":""}]}`, ``, true},
		{"empty object", `{}`, ``, true},
		{"empty string", `""`, ``, true},
		{"keeps key order", `{"z":1,"a":2,"m":3}`, `{"z":1,"a":2,"m":3}`, false},
		{"number passthrough", `12.5`, `12.5`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(mustTree(t, tt.input))
			if ok == tt.empty {
				t.Fatalf("Normalize ok = %v, want %v (got %v)", ok, !tt.empty, got)
			}
			if tt.empty {
				return
			}
			if s := mustEncode(t, got); s != tt.want {
				t.Errorf("Normalize = %s, want %s", s, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		`{"name":"X","apps":[{"name":"","versions":[]},{"name":"A","screenshots":["", {"imageURL":""}]}],"news":[null]}`,
		`[[],[[]],{"a":[{}]},null,0,false,""]`,
		`{"nested":{"list":[1,"",{"k":null}],"flag":true}}`,
	}
	for _, in := range inputs {
		once, ok := Normalize(mustTree(t, in))
		if !ok {
			continue
		}
		twice, ok := Normalize(once)
		if !ok {
			t.Fatalf("second Normalize of %s reported empty", in)
		}
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Normalize not idempotent for %s: %s vs %s", in, mustEncode(t, once), mustEncode(t, twice))
		}
	}
}

func TestNormalizeGoValues(t *testing.T) {
	got, ok := Normalize(map[string]any{"b": "", "a": []string{"x", ""}, "c": 0})
	if !ok {
		t.Fatal("Normalize reported empty")
	}
	if s := mustEncode(t, got); s != `{"a":["x"],"c":0}` {
		t.Errorf("Normalize = %s", s)
	}

	if _, ok := Normalize([]string{}); ok {
		t.Error("empty slice should normalize to nothing")
	}
	if _, ok := Normalize((*App)(nil)); ok {
		t.Error("nil pointer should normalize to nothing")
	}

	type unencodable struct{ C chan int }
	in := unencodable{C: make(chan int)}
	kept, ok := Normalize(in)
	if !ok {
		t.Fatal("value that cannot be encoded was dropped")
	}
	if kept != any(in) {
		t.Errorf("Normalize = %v, want input unchanged", kept)
	}
	if _, err := encodeJSON(kept, ""); err == nil {
		t.Error("expected the encoding error to surface on write")
	}
}

func TestNormalizeSourceDoesNotMutate(t *testing.T) {
	src := NewSource()
	src.Name = "X"
	src.Subtitle = ""
	src.Apps = []App{{Name: "", Versions: []AppVersion{}}}

	before := src.Clone()
	obj, err := NormalizeSource(src)
	if err != nil {
		t.Fatalf("NormalizeSource failed: %v", err)
	}
	if !reflect.DeepEqual(src, before) {
		t.Error("NormalizeSource mutated its input")
	}
	if got := obj.Keys(); !reflect.DeepEqual(got, []string{"name", "tintColor"}) {
		t.Errorf("keys = %v", got)
	}
}

func TestNormalizeSourceEmpty(t *testing.T) {
	obj, err := NormalizeSource(Source{})
	if err != nil {
		t.Fatalf("NormalizeSource failed: %v", err)
	}
	if obj == nil {
		t.Fatal("NormalizeSource returned nil")
	}
	b, _ := json.Marshal(obj)
	if string(b) != `{}` {
		t.Errorf("empty document = %s, want {}", b)
	}
}

func TestObjectMarshalKeepsAmpersands(t *testing.T) {
	obj := Object{{Key: "url", Value: "https://x/y?a=1&b=2"}}
	if got := mustEncode(t, obj); got != `{"url":"https://x/y?a=1&b=2"}` {
		t.Errorf("encoded = %s", got)
	}
}

func TestDecodeTreeTrailingData(t *testing.T) {
	if _, err := decodeTree([]byte(`{} {}`)); err == nil {
		t.Error("expected error for trailing data")
	}
}
