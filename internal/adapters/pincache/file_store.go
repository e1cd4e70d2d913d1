// Package pincache remembers which descriptions were already pinned so
// repeated runs reuse the same IPFS locator.
package pincache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

const cacheFileName = "ipfs_cache.json"

// FileStore keeps description hashes in a JSON object on disk
type FileStore struct {
	path string
	log  *slog.Logger
	mu   sync.Mutex
}

// NewFileStore creates a store under the configured cache directory
func NewFileStore(cfg *config.RuntimeConfig, log *slog.Logger) *FileStore {
	return &FileStore{
		path: filepath.Join(cfg.CacheDir, cacheFileName),
		log:  log.With("component", "pincache"),
	}
}

// Get returns the content hash pinned for key
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	hash, ok := entries[key]
	return hash, ok, nil
}

// Put records hash for key, creating the cache file if needed
func (s *FileStore) Put(_ context.Context, key, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[key] = hash

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pin cache: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pin cache: %w", err)
	}
	return nil
}

// load reads the cache. A missing or corrupt file reads as empty.
func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read pin cache: %w", err)
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warn("ignoring corrupt pin cache", "path", s.path, "error", err)
		return make(map[string]string), nil
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return entries, nil
}
