package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store abstrae el almacenamiento local clave/valor del navegador
// (session id, token de admin). Los consumidores reciben la interfaz
// para poder inyectar un fake en tests.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

type memoryStore struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStore crea un Store en memoria, pensado para tests.
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string]string)}
}

func (s *memoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *memoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(key) == "" {
		return nil
	}
	s.items[key] = value
	return nil
}

func (s *memoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

type fileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore crea un Store respaldado por un archivo JSON. El archivo se
// reescribe completo en cada Set/Remove; las escrituras son raras e
// idempotentes, igual que el localStorage que reemplaza.
func NewFileStore(path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, ".taste-fit", "state.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &fileStore{path: path}, nil
}

func (s *fileStore) load() map[string]string {
	items := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return items
	}
	// Un archivo corrupto se trata como vacio: el peor caso es regenerar
	// un session id nuevo.
	_ = json.Unmarshal(data, &items)
	return items
}

func (s *fileStore) save(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func (s *fileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.load()[key]
	return v, ok
}

func (s *fileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(key) == "" {
		return nil
	}
	items := s.load()
	items[key] = value
	return s.save(items)
}

func (s *fileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.load()
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return s.save(items)
}
