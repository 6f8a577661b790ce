package session

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// Storage es un almacen clave-valor de strings durable entre sesiones,
// el equivalente de localStorage en el navegador.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

type memoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStorage crea un Storage volatil, util para tests.
func NewMemoryStorage() Storage {
	return &memoryStorage{items: make(map[string]string)}
}

func (s *memoryStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.items[key]
	return val, ok
}

func (s *memoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *memoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

type fileStorage struct {
	mu    sync.Mutex
	path  string
	items map[string]string
}

// NewFileStorage crea un Storage respaldado en un archivo JSON. El archivo
// se lee al abrir y se reescribe completo en cada Set/Delete.
func NewFileStorage(path string) (Storage, error) {
	s := &fileStorage{
		path:  path,
		items: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return s, nil
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.items); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *fileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.items[key]
	return val, ok
}

func (s *fileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return s.persistLocked()
}

func (s *fileStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return s.persistLocked()
}

func (s *fileStorage) persistLocked() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
