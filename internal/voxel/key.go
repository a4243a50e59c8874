package voxel

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/vec"
)

// ChunkKey минимальный угол чанка в мировых координатах; кратен ребру по каждой оси
type ChunkKey struct {
	X, Y, Z int
}

// KeyFromWorld возвращает ключ чанка, содержащего мировую позицию
func KeyFromWorld(p vec.Vec3, edge int) ChunkKey {
	c := p.FloorDiv(edge).Scale(edge)
	return ChunkKey{X: c.X, Y: c.Y, Z: c.Z}
}

// KeyFromChunkCoords строит ключ из координат в пространстве чанков
func KeyFromChunkCoords(c vec.Vec3, edge int) ChunkKey {
	return ChunkKey{X: c.X * edge, Y: c.Y * edge, Z: c.Z * edge}
}

// Location возвращает угол чанка как вектор
func (k ChunkKey) Location() vec.Vec3 {
	return vec.Vec3{X: k.X, Y: k.Y, Z: k.Z}
}

// ChunkCoords координаты ключа в пространстве чанков
func (k ChunkKey) ChunkCoords(edge int) vec.Vec3 {
	return k.Location().FloorDiv(edge)
}

// Offset сдвигает ключ на d чанков
func (k ChunkKey) Offset(d vec.Vec3, edge int) ChunkKey {
	return ChunkKey{X: k.X + d.X*edge, Y: k.Y + d.Y*edge, Z: k.Z + d.Z*edge}
}

// DistanceSq квадрат евклидова расстояния в пространстве чанков
func (k ChunkKey) DistanceSq(other ChunkKey, edge int) int {
	return k.ChunkCoords(edge).DistanceSq(other.ChunkCoords(edge))
}

// Less лексикографический порядок (x, y, z)
func (k ChunkKey) Less(other ChunkKey) bool {
	if k.X != other.X {
		return k.X < other.X
	}
	if k.Y != other.Y {
		return k.Y < other.Y
	}
	return k.Z < other.Z
}

// ToLocal переводит мировую позицию в локальную позицию внутри этого чанка
func (k ChunkKey) ToLocal(p vec.Vec3) vec.Vec3 {
	return p.Sub(k.Location())
}

// Bytes компактное представление для ключей хранилища
func (k ChunkKey) Bytes() []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d:%d", k.X, k.Y, k.Z))
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("(%d,%d,%d)", k.X, k.Y, k.Z)
}

// FaceNeighbors шесть соседей по граням в порядке -X, +X, -Y, +Y, -Z, +Z
var FaceNeighbors = [6]vec.Vec3{
	{X: -1}, {X: 1}, {Y: -1}, {Y: 1}, {Z: -1}, {Z: 1},
}
