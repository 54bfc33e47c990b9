package secretstore

import "github.com/mkalvans/passvault/internal/common"

// InMemoryStore is a map-backed Store used in tests and as a fallback where
// no OS credential store is available. It is not safe for concurrent use;
// the core assumes a single active session per process.
type InMemoryStore struct {
	values map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{values: make(map[string]string)}
}

func (s *InMemoryStore) Get(name string) (string, error) {
	value, ok := s.values[name]
	if !ok {
		return "", common.ErrorNotFound
	}
	return value, nil
}

func (s *InMemoryStore) Set(name string, value string) error {
	s.values[name] = value
	return nil
}

func (s *InMemoryStore) Delete(name string) error {
	if _, ok := s.values[name]; !ok {
		return common.ErrorNotFound
	}
	delete(s.values, name)
	return nil
}
