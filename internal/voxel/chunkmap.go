package voxel

import (
	"fmt"
	"sort"

	"github.com/annel0/voxelworld/internal/vec"
)

// ChunkMap пространственный каталог: ключ чанка -> буфер вокселей.
// Владеет буферами; используется только из главного цикла.
type ChunkMap struct {
	shape   Shape
	entries map[ChunkKey]*Buffer
}

// NewChunkMap создаёт каталог для буферов формы shape
func NewChunkMap(shape Shape) *ChunkMap {
	return &ChunkMap{
		shape:   shape,
		entries: make(map[ChunkKey]*Buffer),
	}
}

// Shape возвращает сконфигурированную форму буферов
func (m *ChunkMap) Shape() Shape {
	return m.shape
}

// Exists проверяет наличие записи
func (m *ChunkMap) Exists(key ChunkKey) bool {
	_, ok := m.entries[key]
	return ok
}

// Insert создаёт или заменяет запись. Несовпадение формы - логическая ошибка.
func (m *ChunkMap) Insert(key ChunkKey, buf *Buffer) {
	if buf == nil || buf.Shape() != m.shape {
		panic(fmt.Sprintf("voxel: buffer shape mismatch for chunk %s: map edge %d", key, m.shape.Edge))
	}
	m.entries[key] = buf
}

// InsertEmpty вставляет пустой буфер и возвращает его
func (m *ChunkMap) InsertEmpty(key ChunkKey) *Buffer {
	buf := NewBuffer(m.shape)
	m.entries[key] = buf
	return buf
}

// Remove удаляет запись и возвращает владение буфером. Безопасен при отсутствии ключа.
func (m *ChunkMap) Remove(key ChunkKey) (*Buffer, bool) {
	buf, ok := m.entries[key]
	if ok {
		delete(m.entries, key)
	}
	return buf, ok
}

// Get возвращает буфер для чтения и записи
func (m *ChunkMap) Get(key ChunkKey) (*Buffer, bool) {
	buf, ok := m.entries[key]
	return buf, ok
}

// Len количество записей
func (m *ChunkMap) Len() int {
	return len(m.entries)
}

// Keys возвращает ключи в лексикографическом порядке
func (m *ChunkMap) Keys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Locate переводит мировую позицию в ключ чанка и локальную позицию
func (m *ChunkMap) Locate(p vec.Vec3) (ChunkKey, vec.Vec3) {
	key := KeyFromWorld(p, m.shape.Edge)
	return key, p.FloorMod(m.shape.Edge)
}

// VoxelAtWorld читает воксель по мировой позиции; false если чанк не загружен
func (m *ChunkMap) VoxelAtWorld(p vec.Vec3) (Voxel, bool) {
	key, local := m.Locate(p)
	buf, ok := m.entries[key]
	if !ok {
		return Empty, false
	}
	return buf.At(local), true
}
