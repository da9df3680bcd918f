package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StorageKey is the fixed key the API key is cached under.
const StorageKey = "malti_api_key"

// KeyStore persists the API key between runs.
type KeyStore interface {
	Load() (string, error)
	Save(key string) error
	Clear() error
}

// FileKeyStore keeps the key in a small JSON document. Other fields in the
// document are preserved.
type FileKeyStore struct {
	path string
	mu   sync.Mutex
}

// NewFileKeyStore returns a store backed by path.
func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

func (s *FileKeyStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(data, StorageKey).String(), nil
}

func (s *FileKeyStore) Save(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	data, err = sjson.SetBytes(data, StorageKey, key)
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	return s.write(data)
}

func (s *FileKeyStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	if !gjson.GetBytes(data, StorageKey).Exists() {
		return nil
	}
	data, err = sjson.DeleteBytes(data, StorageKey)
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	return s.write(data)
}

// read returns the current document, or an empty object when the file is
// missing or not valid JSON.
func (s *FileKeyStore) read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return []byte("{}"), nil
	}
	return data, nil
}

func (s *FileKeyStore) write(data []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create key dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// MemoryKeyStore keeps the key in memory only.
type MemoryKeyStore struct {
	mu  sync.Mutex
	key string
}

func (s *MemoryKeyStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, nil
}

func (s *MemoryKeyStore) Save(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	return nil
}

func (s *MemoryKeyStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	return nil
}
