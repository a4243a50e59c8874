package voxel

import "github.com/annel0/voxelworld/internal/vec"

// Shape кубическая форма буфера с фиксированной линеаризацией x + z*edge + y*edge²
type Shape struct {
	Edge int
}

// NewShape создаёт форму с ребром edge. Ребро должно быть положительным.
func NewShape(edge int) Shape {
	if edge <= 0 {
		panic("voxel: shape edge must be positive")
	}
	return Shape{Edge: edge}
}

// Volume количество вокселей в буфере
func (s Shape) Volume() int {
	return s.Edge * s.Edge * s.Edge
}

// Linearize возвращает индекс вокселя. Границы не проверяются.
func (s Shape) Linearize(x, y, z int) int {
	return x + z*s.Edge + y*s.Edge*s.Edge
}

// Delinearize обратное преобразование к Linearize
func (s Shape) Delinearize(i int) (x, y, z int) {
	x = i % s.Edge
	z = (i / s.Edge) % s.Edge
	y = i / (s.Edge * s.Edge)
	return
}

// Contains проверяет, что локальная позиция лежит в [0, edge)³
func (s Shape) Contains(p vec.Vec3) bool {
	return p.X >= 0 && p.X < s.Edge &&
		p.Y >= 0 && p.Y < s.Edge &&
		p.Z >= 0 && p.Z < s.Edge
}
