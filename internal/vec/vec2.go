package vec

// Vec2 представляет 2D координаты колонки (X, Z в мировом пространстве)
type Vec2 struct {
	X, Y int
}

// FloorDiv делит покомпонентно с округлением вниз
func (v Vec2) FloorDiv(d int) Vec2 {
	return Vec2{X: FloorDiv(v.X, d), Y: FloorDiv(v.Y, d)}
}

// DistanceSq возвращает квадрат расстояния до другой точки
func (v Vec2) DistanceSq(other Vec2) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return dx*dx + dy*dy
}
