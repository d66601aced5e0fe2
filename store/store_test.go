package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-pkgs/altsource/internal/config"
	"github.com/git-pkgs/altsource/internal/core"
)

// draftSource has empty required fields that an export would drop.
func draftSource() core.Source {
	src, _ := core.AddApp(core.NewSource())
	src.Apps[0].Name = "Draft & Co"
	src.Apps[0].Versions = []core.AppVersion{{Version: "1.0", DownloadURL: "https://example.com/a.ipa?x=1&y=2"}}
	src.Extra = map[string]json.RawMessage{"sourceURL": json.RawMessage(`"https://example.com/source.json"`)}
	return src
}

// exerciseStore checks the contract every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	src, err := LoadOrNew(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultTintColor, src.TintColor)

	want := draftSource()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", got.Name)
	require.Len(t, got.Apps, 1)
	assert.Equal(t, "Draft & Co", got.Apps[0].Name)
	assert.Equal(t, "", got.Apps[0].BundleIdentifier)
	assert.Equal(t, want.Apps[0].Versions[0].DownloadURL, got.Apps[0].Versions[0].DownloadURL)
	assert.JSONEq(t, `"https://example.com/source.json"`, string(got.Extra["sourceURL"]))
	assert.Equal(t, core.Validate(want), core.Validate(got))

	renamed, err := core.SetField(got, "name", "Saved Twice")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, renamed))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Saved Twice", got.Name)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "source.json")
	s := NewFileStore(path)
	exerciseStore(t, s)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bundleIdentifier": ""`, "drafts keep empty fields")
	assert.Contains(t, string(data), "a.ipa?x=1&y=2")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidJSON)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "s.json")

	s, err := Open(ctx, config.StoreConfig{Backend: config.StoreFile, File: path})
	require.NoError(t, err)
	fs, ok := s.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, path, fs.Path())

	_, err = Open(ctx, config.StoreConfig{Backend: "redis"})
	assert.Error(t, err)

	_, err = Open(ctx, config.StoreConfig{Backend: config.StoreS3, S3: config.S3Config{Endpoint: "localhost:9000"}})
	assert.Error(t, err, "credentials are required")
}

func TestS3Store(t *testing.T) {
	endpoint := os.Getenv("ALTSOURCE_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("ALTSOURCE_TEST_S3_ENDPOINT not set")
	}
	s, err := NewS3Store(S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("ALTSOURCE_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("ALTSOURCE_TEST_S3_SECRET_KEY"),
		Bucket:    "altsource-test",
		Key:       fmt.Sprintf("%s-%d.json", t.Name(), time.Now().UnixNano()),
	})
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("ALTSOURCE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ALTSOURCE_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn, t.Name())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.db.ExecContext(ctx, `DELETE FROM altsource_documents WHERE key = $1`, t.Name())
	require.NoError(t, err)
	exerciseStore(t, s)
}
