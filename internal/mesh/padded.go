package mesh

import (
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
)

// Padded снимок чанка с ореолом в один воксель со всех сторон: (edge+2)³.
// Координаты лежат в [-1, edge].
type Padded struct {
	edge int
	side int
	data []voxel.Voxel
}

// NewPadded создаёт пустой снимок для чанка с ребром edge
func NewPadded(edge int) *Padded {
	side := edge + 2
	return &Padded{
		edge: edge,
		side: side,
		data: make([]voxel.Voxel, side*side*side),
	}
}

// Edge ребро исходного чанка
func (p *Padded) Edge() int { return p.edge }

func (p *Padded) index(x, y, z int) int {
	return (x + 1) + (z+1)*p.side + (y+1)*p.side*p.side
}

// At читает воксель; координаты в [-1, edge]
func (p *Padded) At(x, y, z int) voxel.Voxel {
	return p.data[p.index(x, y, z)]
}

// Set пишет воксель; координаты в [-1, edge]
func (p *Padded) Set(x, y, z int, v voxel.Voxel) {
	p.data[p.index(x, y, z)] = v
}

// Clear обнуляет снимок
func (p *Padded) Clear() {
	for i := range p.data {
		p.data[i] = voxel.Empty
	}
}

// CopyFrom копирует центр и грани соседей. neighbor получает смещение соседа
// в чанках и возвращает nil, если сосед не загружен (ореол тогда пустой).
// Рёбра и углы ореола для отсечения граней не нужны и остаются пустыми.
func (p *Padded) CopyFrom(center *voxel.Buffer, neighbor func(d vec.Vec3) *voxel.Buffer) {
	p.Clear()
	e := p.edge

	for y := 0; y < e; y++ {
		for z := 0; z < e; z++ {
			for x := 0; x < e; x++ {
				p.Set(x, y, z, center.VoxelAt(x, y, z))
			}
		}
	}

	if neighbor == nil {
		return
	}

	for _, d := range voxel.FaceNeighbors {
		nb := neighbor(d)
		if nb == nil {
			continue
		}
		// Слой соседа, прилегающий к нашей грани
		for a := 0; a < e; a++ {
			for b := 0; b < e; b++ {
				switch {
				case d.X == -1:
					p.Set(-1, a, b, nb.VoxelAt(e-1, a, b))
				case d.X == 1:
					p.Set(e, a, b, nb.VoxelAt(0, a, b))
				case d.Y == -1:
					p.Set(a, -1, b, nb.VoxelAt(a, e-1, b))
				case d.Y == 1:
					p.Set(a, e, b, nb.VoxelAt(a, 0, b))
				case d.Z == -1:
					p.Set(a, b, -1, nb.VoxelAt(a, b, e-1))
				case d.Z == 1:
					p.Set(a, b, e, nb.VoxelAt(a, b, 0))
				}
			}
		}
	}
}
