package storage

import (
	"context"
	"sync"

	"github.com/annel0/voxelworld/internal/voxel"
)

// MemoryStore реализует ChunkStore на карте в памяти без сжатия.
// Используется в тестах и как fallback, когда BadgerDB не открылась.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[voxel.ChunkKey]*voxel.Buffer
}

// NewMemoryStore создаёт пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[voxel.ChunkKey]*voxel.Buffer),
	}
}

func (s *MemoryStore) Save(_ context.Context, key voxel.ChunkKey, buf *voxel.Buffer) error {
	s.mu.Lock()
	s.data[key] = buf.Clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key voxel.ChunkKey) (*voxel.Buffer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return buf.Clone(), true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key voxel.ChunkKey) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Len количество сохранённых чанков
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) Close() error { return nil }
