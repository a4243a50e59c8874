package mesh

import "github.com/go-gl/mathgl/mgl32"

// Mesh буферы одной поверхности чанка в локальных координатах чанка.
// На каждый квад приходится 4 вершины и 6 индексов.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Colors    [][4]uint8
	Indices   []uint32
}

// Result пара мешей чанка: непрозрачный рельеф и полупрозрачная жидкость
type Result struct {
	Opaque      *Mesh
	Translucent *Mesh
}

// QuadCount общее число квадов в обоих мешах
func (r Result) QuadCount() int {
	return r.Opaque.QuadCount() + r.Translucent.QuadCount()
}

// QuadCount число квадов
func (m *Mesh) QuadCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 6
}

// IsEmpty меш без геометрии - нормальное состояние для пустого или полностью закрытого чанка
func (m *Mesh) IsEmpty() bool {
	return m.QuadCount() == 0
}

// Reset очищает буферы, сохраняя ёмкость
func (m *Mesh) Reset() {
	m.Positions = m.Positions[:0]
	m.Normals = m.Normals[:0]
	m.UVs = m.UVs[:0]
	m.Colors = m.Colors[:0]
	m.Indices = m.Indices[:0]
}

// Clone копирует меш в буферы точного размера
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Positions: append([]mgl32.Vec3(nil), m.Positions...),
		Normals:   append([]mgl32.Vec3(nil), m.Normals...),
		UVs:       append([]mgl32.Vec2(nil), m.UVs...),
		Colors:    append([][4]uint8(nil), m.Colors...),
		Indices:   append([]uint32(nil), m.Indices...),
	}
}

// Area суммарная площадь квадов
func (m *Mesh) Area() float32 {
	var total float32
	for q := 0; q+3 < len(m.Positions); q += 4 {
		a := m.Positions[q+1].Sub(m.Positions[q])
		b := m.Positions[q+3].Sub(m.Positions[q])
		total += a.Cross(b).Len()
	}
	return total
}

func (m *Mesh) addQuad(corners [4]mgl32.Vec3, uvs [4]mgl32.Vec2, normal mgl32.Vec3, color [4]uint8) {
	base := uint32(len(m.Positions))
	for i := 0; i < 4; i++ {
		m.Positions = append(m.Positions, corners[i])
		m.Normals = append(m.Normals, normal)
		m.UVs = append(m.UVs, uvs[i])
		m.Colors = append(m.Colors, color)
	}
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
}
