// Package store persists the working AltSource document. The payload is
// the document as edited, not its export view, so drafts with empty
// required fields survive a restart.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/git-pkgs/altsource/internal/config"
	"github.com/git-pkgs/altsource/internal/core"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("no document saved")

// Store loads and saves a single document.
type Store interface {
	Load(ctx context.Context) (core.Source, error)
	Save(ctx context.Context, src core.Source) error
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreFile, "":
		return NewFileStore(cfg.File), nil
	case config.StoreS3:
		useSSL := cfg.S3.UseSSL == nil || *cfg.S3.UseSSL
		return NewS3Store(S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Key:       cfg.S3.Key,
			UseSSL:    useSSL,
		})
	case config.StorePostgres:
		return NewPostgresStore(ctx, cfg.Postgres.DSN, cfg.Postgres.Key)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// LoadOrNew loads the saved document, or returns a new one when nothing
// has been saved yet.
func LoadOrNew(ctx context.Context, s Store) (core.Source, error) {
	src, err := s.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return core.NewSource(), nil
	}
	return src, err
}

func encode(src core.Source) ([]byte, error) {
	data, err := core.Encode(src)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return data, nil
}

func decode(data []byte) (core.Source, error) {
	src, err := core.Import(data)
	if err != nil {
		return core.Source{}, fmt.Errorf("decoding stored document: %w", err)
	}
	return src, nil
}

// Memory keeps the document in process.
type Memory struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (core.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return core.Source{}, ErrNotFound
	}
	return decode(m.data)
}

func (m *Memory) Save(_ context.Context, src core.Source) error {
	data, err := encode(src)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}
