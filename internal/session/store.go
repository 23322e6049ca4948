package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Persisted credential keys. Names match what the web build keeps in
// localStorage so a device can migrate between shells.
const (
	KeyToken       = "token"
	KeyTokenExpiry = "tokenExpiry" // epoch milliseconds, stored as a string
	KeyUser        = "user"        // JSON-serialized user record
)

// Store is the device-local persistent storage behind the session.
// Get returns "" for absent keys; none of the methods may panic on
// corrupt content, the service treats garbage as "no session".
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// FileStore keeps the credential map in a single JSON file under the
// shell's data directory.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	if err := json.Unmarshal(raw, &m); err != nil {
		// corrupt file reads as empty; the next Set rewrites it
		return map[string]string{}, nil
	}
	return m, nil
}

func (s *FileStore) save(m map[string]string) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return "", err
	}
	return m[key], nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	m[key] = value
	return s.save(m)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	delete(m, key)
	return s.save(m)
}
