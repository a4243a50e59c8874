package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/dgraph-io/badger/v3"
)

// ErrStoreClosed возвращается при обращении к закрытому хранилищу
var ErrStoreClosed = errors.New("хранилище не готово")

// BadgerStore хранит сжатые буферы в BadgerDB, открытой в памяти.
// Данные живут в пределах сессии и на диск не пишутся.
type BadgerStore struct {
	db      *badger.DB
	codec   *Codec
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerStore открывает BadgerDB в памяти
func NewBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	codec, err := NewCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	logging.GetStorageLogger().Info("💾 Хранилище изменённых чанков открыто (in-memory)")
	return &BadgerStore{
		db:      db,
		codec:   codec,
		isReady: true,
	}, nil
}

// Save сохраняет сжатую копию буфера
func (s *BadgerStore) Save(ctx context.Context, key voxel.ChunkKey, buf *voxel.Buffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrStoreClosed
	}

	data, err := s.codec.Encode(buf)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key.Bytes(), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Load загружает буфер, если он сохранялся
func (s *BadgerStore) Load(ctx context.Context, key voxel.ChunkKey) (*voxel.Buffer, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, false, ErrStoreClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key.Bytes())
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	buf, err := s.codec.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("чанк %s повреждён: %w", key, err)
	}
	return buf, true, nil
}

// Delete удаляет сохранённый чанк
func (s *BadgerStore) Delete(ctx context.Context, key voxel.ChunkKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrStoreClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key.Bytes())
	})
}

// Close закрывает хранилище
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	s.codec.Close()
	return s.db.Close()
}
