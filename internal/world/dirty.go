package world

import "github.com/annel0/voxelworld/internal/voxel"

// DirtySet ключи, требующие перестройки меша в текущем кадре.
// Порядок обхода совпадает с порядком пометки.
type DirtySet struct {
	keys  []voxel.ChunkKey
	index map[voxel.ChunkKey]struct{}
}

func NewDirtySet() *DirtySet {
	return &DirtySet{index: make(map[voxel.ChunkKey]struct{})}
}

// Mark помечает ключ; повторная пометка ничего не меняет
func (d *DirtySet) Mark(key voxel.ChunkKey) {
	if _, ok := d.index[key]; ok {
		return
	}
	d.index[key] = struct{}{}
	d.keys = append(d.keys, key)
}

func (d *DirtySet) Contains(key voxel.ChunkKey) bool {
	_, ok := d.index[key]
	return ok
}

func (d *DirtySet) Len() int {
	return len(d.keys)
}

// Keys ключи в порядке пометки
func (d *DirtySet) Keys() []voxel.ChunkKey {
	return d.keys
}

// Clear очищает набор в конце кадра
func (d *DirtySet) Clear() {
	d.keys = d.keys[:0]
	clear(d.index)
}
