package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"finance/internal/storage"
)

// SeedFile is the optional file NewFromFiles reads initial records from.
const SeedFile = "seed_records.json"

// Store keeps slots in process memory. Nothing survives a restart.
type Store struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// NewFromFiles seeds key with the contents of <base>/seed_records.json when
// that file exists and holds a JSON array. A missing or unreadable seed file
// leaves the store empty.
func NewFromFiles(base, key string) *Store {
	s := New()
	data, err := os.ReadFile(filepath.Join(base, SeedFile))
	if err != nil {
		return s
	}
	var probe []json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return s
	}
	s.slots[key] = data
	return s
}

// Read implements storage.SlotReader
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[key]
	if !ok {
		return nil, storage.ErrSlotEmpty
	}
	return append([]byte(nil), v...), nil
}

// Write implements storage.SlotWriter
func (s *Store) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), value...)
	return nil
}
