package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validSource = `{
  "name": "Test Source",
  "apps": [{
    "name": "Demo",
    "bundleIdentifier": "com.example.demo",
    "developerName": "Example",
    "subtitle": "",
    "versions": [{"version": "1.2", "date": "2026-01-02", "size": 0, "downloadURL": "DOWNLOAD"}]
  }],
  "news": []
}`

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	for _, key := range []string{"ALTSOURCE_CONFIG", "ALTSOURCE_STORE", "ALTSOURCE_FILE", "ALTSOURCE_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUsage(t *testing.T) {
	if code, _, stderr := runCLI(t); code != 2 || !strings.Contains(stderr, "commands:") {
		t.Errorf("no args: code %d, stderr %q", code, stderr)
	}
	if code, _, stderr := runCLI(t, "frobnicate"); code != 2 || !strings.Contains(stderr, `unknown command "frobnicate"`) {
		t.Errorf("unknown command: code %d, stderr %q", code, stderr)
	}
	if code, _, _ := runCLI(t, "validate"); code != 2 {
		t.Errorf("missing argument: code %d, want 2", code)
	}
}

func TestInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.json")

	code, stdout, _ := runCLI(t, "init", path)
	if code != 0 || !strings.Contains(stdout, "created") {
		t.Fatalf("init: code %d, stdout %q", code, stdout)
	}
	if code, _, stderr := runCLI(t, "init", path); code != 1 || !strings.Contains(stderr, "already exists") {
		t.Errorf("second init: code %d, stderr %q", code, stderr)
	}
	if code, _, _ := runCLI(t, "init", "-force", path); code != 0 {
		t.Errorf("init -force: code %d", code)
	}

	code, stdout, _ = runCLI(t, "validate", path)
	if code != 1 {
		t.Errorf("validate new document: code %d, want 1", code)
	}
	for _, want := range []string{"Source name is required", "At least one app is required"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("validate output missing %q:\n%s", want, stdout)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := writeFile(t, "valid.json", validSource)
	if code, stdout, _ := runCLI(t, "validate", valid); code != 0 || !strings.Contains(stdout, "ready to publish") {
		t.Errorf("valid: code %d, stdout %q", code, stdout)
	}

	broken := writeFile(t, "broken.json", `{"name": `)
	if code, _, stderr := runCLI(t, "validate", broken); code != 1 || !strings.Contains(stderr, "Invalid JSON file") {
		t.Errorf("broken: code %d, stderr %q", code, stderr)
	}
}

func TestExport(t *testing.T) {
	in := writeFile(t, "in.json", validSource)
	out := filepath.Join(t.TempDir(), "out.json")

	if code, _, stderr := runCLI(t, "export", "-o", out, in); code != 0 {
		t.Fatalf("export: code %d, stderr %q", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if strings.Contains(got, "subtitle") || strings.Contains(got, `"news"`) {
		t.Errorf("export kept empty fields:\n%s", got)
	}
	if !strings.Contains(got, `"size": 0`) {
		t.Errorf("export dropped zero size:\n%s", got)
	}

	code, stdout, _ := runCLI(t, "export", "-compact", in)
	if code != 0 || !strings.HasPrefix(stdout, `{"name":"Test Source","apps":[`) {
		t.Errorf("compact: code %d, stdout %q", code, stdout)
	}

	draft := writeFile(t, "draft.json", `{"name":"Draft"}`)
	if code, _, _ := runCLI(t, "export", "-strict", draft); code != 1 {
		t.Errorf("strict export of invalid document: code %d, want 1", code)
	}
}

func TestInventoryAndLinks(t *testing.T) {
	in := writeFile(t, "in.json", strings.Replace(validSource, "DOWNLOAD", "", 1))
	code, stdout, _ := runCLI(t, "inventory", in)
	if code != 0 || strings.TrimSpace(stdout) != "pkg:generic/com.example.demo@1.2" {
		t.Errorf("inventory: code %d, stdout %q", code, stdout)
	}

	code, stdout, _ = runCLI(t, "links", "https://example.com/s.json")
	if code != 0 {
		t.Fatalf("links: code %d", code)
	}
	for _, want := range []string{"altstore://source?url=", "sidestore://source?url="} {
		if !strings.Contains(stdout, want) {
			t.Errorf("links output missing %q:\n%s", want, stdout)
		}
	}
}

func TestFetchAndProbe(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/source.json":
			_, _ = w.Write([]byte(strings.Replace(validSource, "DOWNLOAD", server.URL+"/demo.ipa", 1)))
		case "/demo.ipa":
			w.Header().Set("Content-Length", "1572864")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	saved := filepath.Join(t.TempDir(), "fetched.json")
	code, stdout, stderr := runCLI(t, "fetch", "-o", saved, server.URL+"/source.json")
	if code != 0 {
		t.Fatalf("fetch: code %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stdout, "Test Source") || !strings.Contains(stdout, "1 app(s)") {
		t.Errorf("fetch summary:\n%s", stdout)
	}

	code, _, stderr = runCLI(t, "probe", "-w", saved)
	if code != 0 {
		t.Fatalf("probe: code %d, stderr %q", code, stderr)
	}
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"size": 1572864`) {
		t.Errorf("probe did not write size:\n%s", data)
	}

	if code, _, _ := runCLI(t, "fetch", server.URL+"/missing.json"); code != 1 {
		t.Errorf("fetch missing: code %d, want 1", code)
	}
}
