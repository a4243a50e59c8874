package physics

import (
	"github.com/annel0/voxelworld/internal/vec"
)

// BoxCollider прямоугольный коллайдер в вокселях.
// Позиция коллайдера - воксель под центром основания: по X и Z коробка
// центрирована, по Y растёт вверх от позиции.
type BoxCollider struct {
	Width  int // Размер по X
	Height int // Размер по Y
	Depth  int // Размер по Z
}

// NewBoxCollider создаёт новый коллайдер с указанными размерами
func NewBoxCollider(width, height, depth int) *BoxCollider {
	return &BoxCollider{
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// bounds возвращает занимаемые воксели как полуинтервал [min, max)
func (bc *BoxCollider) bounds(pos vec.Vec3) (min, max vec.Vec3) {
	min = vec.Vec3{
		X: pos.X - bc.Width/2,
		Y: pos.Y,
		Z: pos.Z - bc.Depth/2,
	}
	max = vec.Vec3{
		X: min.X + maxInt(bc.Width, 1),
		Y: min.Y + maxInt(bc.Height, 1),
		Z: min.Z + maxInt(bc.Depth, 1),
	}
	return min, max
}

// IsPointInside проверяет, находится ли воксель point внутри коллайдера
func (bc *BoxCollider) IsPointInside(colliderPos, point vec.Vec3) bool {
	min, max := bc.bounds(colliderPos)
	return point.X >= min.X && point.X < max.X &&
		point.Y >= min.Y && point.Y < max.Y &&
		point.Z >= min.Z && point.Z < max.Z
}

// CheckBoxCollision проверяет пересечение двух коллайдеров
func CheckBoxCollision(pos1 vec.Vec3, collider1 *BoxCollider, pos2 vec.Vec3, collider2 *BoxCollider) bool {
	min1, max1 := collider1.bounds(pos1)
	min2, max2 := collider2.bounds(pos2)

	return min1.X < max2.X && max1.X > min2.X &&
		min1.Y < max2.Y && max1.Y > min2.Y &&
		min1.Z < max2.Z && max1.Z > min2.Z
}

// GetCollisionPoints возвращает все воксели, занимаемые коллайдером
func GetCollisionPoints(pos vec.Vec3, collider *BoxCollider) []vec.Vec3 {
	min, max := collider.bounds(pos)

	points := make([]vec.Vec3, 0, (max.X-min.X)*(max.Y-min.Y)*(max.Z-min.Z))
	for y := min.Y; y < max.Y; y++ {
		for z := min.Z; z < max.Z; z++ {
			for x := min.X; x < max.X; x++ {
				points = append(points, vec.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	return points
}

// CanMoveToPosition проверяет, может ли сущность с коллайдером встать в newPos.
// isSolid сообщает, занят ли воксель; незагруженные воксели считаются занятыми вызывающей стороной.
func CanMoveToPosition(newPos vec.Vec3, collider *BoxCollider, isSolid func(vec.Vec3) bool) bool {
	for _, point := range GetCollisionPoints(newPos, collider) {
		if isSolid(point) {
			return false
		}
	}
	return true
}

// GroundHeight ищет сверху вниз первый твёрдый воксель в колонке (x, z)
// в диапазоне [minY, maxY]. Возвращает высоту, на которую можно встать.
func GroundHeight(x, z, minY, maxY int, isSolid func(vec.Vec3) bool) (int, bool) {
	for y := maxY; y >= minY; y-- {
		if isSolid(vec.Vec3{X: x, Y: y, Z: z}) {
			return y + 1, true
		}
	}
	return 0, false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
