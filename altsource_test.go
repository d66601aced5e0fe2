package altsource_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/git-pkgs/altsource"
)

// buildSource assembles a publishable document through the public API.
func buildSource(t testing.TB) altsource.Source {
	t.Helper()

	src := altsource.NewSource()
	src, err := altsource.SetField(src, "name", "Example Source")
	if err != nil {
		t.Fatalf("SetField: %v", err)
	}

	src, i := altsource.AddApp(src)
	app := src.Apps[i]
	app.Name = "Example"
	app.BundleIdentifier = "com.example.app"
	app.DeveloperName = "Example Dev"
	v := altsource.NewVersion(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	v.Version = "1.0"
	v.DownloadURL = "https://example.com/example-1.0.ipa"
	app = altsource.AddVersion(app, v)
	src, err = altsource.UpdateApp(src, i, app)
	if err != nil {
		t.Fatalf("UpdateApp: %v", err)
	}

	src = altsource.SetFeatured(src, "com.example.app", true)
	item := altsource.NewNewsItem(time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC))
	item.Title = "Launch"
	item.AppID = "com.example.app"
	src, _ = altsource.AddNewsItem(src, item)
	return src
}

func TestEndToEnd(t *testing.T) {
	src := buildSource(t)

	if problems := altsource.Validate(src); !problems.Valid() {
		t.Fatalf("unexpected problems: %v", problems)
	}

	data, err := altsource.Export(src)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.Contains(string(data), `""`) {
		t.Errorf("export contains empty strings:\n%s", data)
	}

	back, err := altsource.Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	again, err := altsource.Export(back)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("export is not stable across import:\n%s\n---\n%s", data, again)
	}

	featured := altsource.FeaturedApps(back)
	if len(featured) != 1 || featured[0].Name != "Example" {
		t.Errorf("FeaturedApps = %+v", featured)
	}
	if app, ok := altsource.ResolveNewsApp(back, back.News[0]); !ok || app.BundleIdentifier != "com.example.app" {
		t.Errorf("ResolveNewsApp = %+v, %v", app, ok)
	}
	if got := altsource.Inventory(back); len(got) != 1 || !strings.HasPrefix(got[0], "pkg:generic/com.example.app@1.0") {
		t.Errorf("Inventory = %v", got)
	}
	if got := altsource.Filename(back); got != "example-source.json" {
		t.Errorf("Filename = %q", got)
	}
}

func TestErrors(t *testing.T) {
	src := altsource.NewSource()

	_, err := altsource.DeleteApp(src, 0)
	if !errors.Is(err, altsource.ErrIndexOutOfRange) {
		t.Errorf("DeleteApp = %v, want ErrIndexOutOfRange", err)
	}
	var indexErr *altsource.IndexError
	if !errors.As(err, &indexErr) || indexErr.Collection != "apps" {
		t.Errorf("IndexError = %+v", indexErr)
	}

	_, err = altsource.Import([]byte("[1, 2]"))
	var parseErr *altsource.ParseError
	if !errors.As(err, &parseErr) || !errors.Is(err, altsource.ErrInvalidJSON) {
		t.Errorf("Import = %v, want ParseError", err)
	}

	if err := altsource.Validate(src).Err(); err == nil {
		t.Error("expected validation error for empty document")
	} else {
		var vErr *altsource.ValidationError
		if !errors.As(err, &vErr) || len(vErr.Problems) != 2 {
			t.Errorf("ValidationError = %+v", vErr)
		}
	}
}

func TestEncodeKeepsDraftFields(t *testing.T) {
	src, _ := altsource.AddApp(altsource.NewSource())
	data, err := altsource.Encode(src)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"bundleIdentifier": ""`) {
		t.Errorf("draft lost empty fields:\n%s", data)
	}
	back, err := altsource.Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(back.Apps) != 1 {
		t.Errorf("apps = %d, want 1", len(back.Apps))
	}
}

func ExampleValidate() {
	src := altsource.NewSource()
	src, _ = altsource.AddApp(src)

	for _, p := range altsource.Validate(src) {
		fmt.Println(p)
	}
	// Output:
	// Source name is required
	// App 1: Name is required
	// App 1: Bundle identifier is required
	// App 1: Developer name is required
	// App 1: At least one version is required
}

func ExampleFormatSize() {
	fmt.Println(altsource.FormatSize(0))
	fmt.Println(altsource.FormatSize(1536))
	fmt.Println(altsource.FormatSize(52428800))
	// Output:
	// 0 B
	// 1.5 KB
	// 50 MB
}
