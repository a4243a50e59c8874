package world

import (
	"testing"

	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/stretchr/testify/assert"
)

func TestKeyQueue_FIFOWithoutDuplicates(t *testing.T) {
	q := NewKeyQueue()
	a, b, c := voxel.ChunkKey{X: 1}, voxel.ChunkKey{X: 2}, voxel.ChunkKey{X: 3}

	assert.True(t, q.Push(a))
	assert.True(t, q.Push(b))
	assert.False(t, q.Push(a), "повторный ключ не добавляется")
	assert.True(t, q.Push(c))
	assert.Equal(t, 3, q.Len())

	assert.True(t, q.Remove(b))
	assert.False(t, q.Remove(b))
	assert.Equal(t, []voxel.ChunkKey{a, c}, q.Keys())

	k, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, a, k)
	assert.False(t, q.Contains(a))
	assert.True(t, q.Push(a), "после извлечения ключ можно добавить снова")
	assert.Equal(t, []voxel.ChunkKey{c, a}, q.Keys())
}

func TestKeyQueue_RetainAndStableSort(t *testing.T) {
	q := NewKeyQueue()
	for _, x := range []int{5, 1, 4, 2, 3} {
		q.Push(voxel.ChunkKey{X: x, Z: x % 2})
	}

	// Сортировка только по Z: внутри групп сохраняется исходный порядок
	q.SortStable(func(a, b voxel.ChunkKey) bool { return a.Z < b.Z })
	assert.Equal(t, []voxel.ChunkKey{{X: 4}, {X: 2}, {X: 5, Z: 1}, {X: 1, Z: 1}, {X: 3, Z: 1}}, q.Keys())

	q.Retain(func(k voxel.ChunkKey) bool { return k.X > 2 })
	assert.Equal(t, []voxel.ChunkKey{{X: 4}, {X: 5, Z: 1}, {X: 3, Z: 1}}, q.Keys())
	assert.False(t, q.Contains(voxel.ChunkKey{X: 2}))
}

func TestDirtySet_ClearedAndOrdered(t *testing.T) {
	d := NewDirtySet()
	d.Mark(voxel.ChunkKey{X: 2})
	d.Mark(voxel.ChunkKey{X: 1})
	d.Mark(voxel.ChunkKey{X: 2})

	assert.Equal(t, []voxel.ChunkKey{{X: 2}, {X: 1}}, d.Keys())
	d.Clear()
	assert.Equal(t, 0, d.Len())
	assert.False(t, d.Contains(voxel.ChunkKey{X: 2}))
}
