// Package file implements the token store over flat JSON files, one file
// per token plus a report snapshot. Suited to single-node deployments
// without a managed database.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/storage"
)

const (
	tokensDir  = "tokens"
	reportFile = "report.json"
)

// TokenStore is a flat-file implementation of storage.TokenStore.
// Writes go through a temp file plus rename so readers never observe a
// partial record.
type TokenStore struct {
	mu  sync.RWMutex
	dir string
}

// NewTokenStore creates the store rooted at dir, creating the layout if
// missing.
func NewTokenStore(dir string) (*TokenStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, tokensDir), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &TokenStore{dir: dir}, nil
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// LoadAllTokenRecords returns every token record on disk.
func (s *TokenStore) LoadAllTokenRecords(_ context.Context) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, tokensDir))
	if err != nil {
		return nil, fmt.Errorf("read tokens directory: %w", err)
	}

	records := make([]*domain.TokenRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := s.readRecord(filepath.Join(s.dir, tokensDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// LoadTokenSummary retrieves one token by ID. Returns ErrNotFound if absent.
func (s *TokenStore) LoadTokenSummary(_ context.Context, tokenID string) (*domain.TokenRecord, error) {
	if tokenID == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, err := s.readRecord(s.tokenPath(tokenID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// SaveEnhancedToken creates or overwrites the enriched record.
func (s *TokenStore) SaveEnhancedToken(_ context.Context, record *domain.TokenRecord) error {
	if record == nil || record.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(s.tokenPath(record.TokenID), record)
}

// SaveReport replaces the published report.
func (s *TokenStore) SaveReport(_ context.Context, report *domain.MarketCapReport) error {
	if report == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(filepath.Join(s.dir, reportFile), report)
}

// LoadLatestReport returns the most recently published report.
func (s *TokenStore) LoadLatestReport(_ context.Context) (*domain.MarketCapReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dir, reportFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read report file: %w", err)
	}

	var report domain.MarketCapReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report file: %w", err)
	}
	return &report, nil
}

// tokenPath maps a token ID to its file. IDs are opaque strings; escape
// path separators so a hostile ID cannot leave the store directory.
func (s *TokenStore) tokenPath(tokenID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(tokenID)
	return filepath.Join(s.dir, tokensDir, safe+".json")
}

func (s *TokenStore) readRecord(path string) (*domain.TokenRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record domain.TokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode token file %s: %w", filepath.Base(path), err)
	}
	return &record, nil
}

// writeJSON writes atomically: temp file in the same directory, then rename.
func (s *TokenStore) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
