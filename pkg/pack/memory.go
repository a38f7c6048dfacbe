package pack

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore keeps packs in process memory. Packs are stored as JSON so
// callers can never mutate a saved pack through a shared map.
type MemoryStore struct {
	mu    sync.RWMutex
	packs map[string][]byte
	saves int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() (store *MemoryStore) {
	store = &MemoryStore{packs: make(map[string][]byte)}
	return store
}

// Save stores a copy of p.
func (s *MemoryStore) Save(ctx context.Context, p ApplicationPack) (err error) {
	err = ctx.Err()
	if err != nil {
		return err
	}

	err = p.Validate()
	if err != nil {
		err = errors.Wrap(err, "refusing to save invalid pack")
		return err
	}

	var data []byte
	data, err = json.Marshal(p)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal pack")
		return err
	}

	s.mu.Lock()
	s.packs[p.ID] = data
	s.saves++
	s.mu.Unlock()

	return err
}

// Load returns a copy of the pack with the given id.
func (s *MemoryStore) Load(ctx context.Context, id string) (p ApplicationPack, err error) {
	err = ctx.Err()
	if err != nil {
		return p, err
	}

	s.mu.RLock()
	data, ok := s.packs[id]
	s.mu.RUnlock()

	if !ok {
		err = errors.Wrapf(ErrNotFound, "pack %s", id)
		return p, err
	}

	err = json.Unmarshal(data, &p)
	if err != nil {
		err = errors.Wrap(err, "failed to unmarshal pack")
		return p, err
	}

	return p, err
}

// Saves reports how many times Save succeeded.
func (s *MemoryStore) Saves() (count int) {
	s.mu.RLock()
	count = s.saves
	s.mu.RUnlock()
	return count
}
