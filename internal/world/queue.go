package world

import (
	"sort"

	"github.com/annel0/voxelworld/internal/voxel"
)

// KeyQueue упорядоченная очередь ключей без повторов.
// Используется между стадиями конвейера внутри одного кадра главного цикла.
type KeyQueue struct {
	keys  []voxel.ChunkKey
	index map[voxel.ChunkKey]struct{}
}

func NewKeyQueue() *KeyQueue {
	return &KeyQueue{index: make(map[voxel.ChunkKey]struct{})}
}

// Push добавляет ключ в конец. false - ключ уже в очереди.
func (q *KeyQueue) Push(key voxel.ChunkKey) bool {
	if _, ok := q.index[key]; ok {
		return false
	}
	q.index[key] = struct{}{}
	q.keys = append(q.keys, key)
	return true
}

// Pop извлекает первый ключ
func (q *KeyQueue) Pop() (voxel.ChunkKey, bool) {
	if len(q.keys) == 0 {
		return voxel.ChunkKey{}, false
	}
	key := q.keys[0]
	q.keys = q.keys[1:]
	delete(q.index, key)
	return key, true
}

// Remove удаляет ключ с сохранением порядка остальных
func (q *KeyQueue) Remove(key voxel.ChunkKey) bool {
	if _, ok := q.index[key]; !ok {
		return false
	}
	q.Retain(func(k voxel.ChunkKey) bool { return k != key })
	return true
}

// Retain обходит очередь по порядку и оставляет ключи, для которых keep вернул true
func (q *KeyQueue) Retain(keep func(voxel.ChunkKey) bool) {
	kept := q.keys[:0]
	for _, k := range q.keys {
		if keep(k) {
			kept = append(kept, k)
		} else {
			delete(q.index, k)
		}
	}
	// Обнуляем хвост, чтобы не держать старые значения
	for i := len(kept); i < len(q.keys); i++ {
		q.keys[i] = voxel.ChunkKey{}
	}
	q.keys = kept
}

// SortStable переупорядочивает очередь; равные элементы сохраняют относительный порядок
func (q *KeyQueue) SortStable(less func(a, b voxel.ChunkKey) bool) {
	sort.SliceStable(q.keys, func(i, j int) bool { return less(q.keys[i], q.keys[j]) })
}

func (q *KeyQueue) Contains(key voxel.ChunkKey) bool {
	_, ok := q.index[key]
	return ok
}

func (q *KeyQueue) Len() int {
	return len(q.keys)
}

// Keys копия содержимого в порядке очереди
func (q *KeyQueue) Keys() []voxel.ChunkKey {
	out := make([]voxel.ChunkKey, len(q.keys))
	copy(out, q.keys)
	return out
}
