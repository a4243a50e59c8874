package mesh

import (
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/go-gl/mathgl/mgl32"
)

// Face направление грани
type Face uint8

const (
	FaceNegX Face = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

// Axis ось, перпендикулярная грани (0 - x, 1 - y, 2 - z)
func (f Face) Axis() int { return int(f) / 2 }

// Positive грань смотрит в положительном направлении оси
func (f Face) Positive() bool { return f%2 == 1 }

// Normal единичная нормаль грани
func (f Face) Normal() mgl32.Vec3 {
	var n mgl32.Vec3
	if f.Positive() {
		n[f.Axis()] = 1
	} else {
		n[f.Axis()] = -1
	}
	return n
}

// Scratch рабочая память мешера. Принадлежит одному воркеру и не разделяется.
type Scratch struct {
	edge        int
	mask        []voxel.Voxel
	opaque      Mesh
	translucent Mesh
}

// NewScratch выделяет рабочую память для чанка с ребром edge
func NewScratch(edge int) *Scratch {
	return &Scratch{
		edge: edge,
		mask: make([]voxel.Voxel, edge*edge),
	}
}

// faceVisible решает, видна ли грань вокселя cur, если за ней лежит nb.
// Твёрдые грани видны против пустоты и жидкости, жидкие - только против пустоты.
func faceVisible(cur, nb voxel.Voxel) bool {
	switch cur.Kind() {
	case voxel.KindSolid:
		return nb.Kind() != voxel.KindSolid
	case voxel.KindFluid:
		return nb.Kind() == voxel.KindEmpty
	default:
		return false
	}
}

// Greedy строит меши чанка жадным слиянием квадов.
// Квады сливаются, только если воксели полностью совпадают (материал и атрибут).
func Greedy(p *Padded, s *Scratch) Result {
	if s == nil || s.edge != p.edge {
		s = NewScratch(p.edge)
	}
	s.opaque.Reset()
	s.translucent.Reset()

	for f := FaceNegX; f <= FacePosZ; f++ {
		s.meshFace(p, f)
	}

	return Result{
		Opaque:      s.opaque.Clone(),
		Translucent: s.translucent.Clone(),
	}
}

func (s *Scratch) meshFace(p *Padded, f Face) {
	e := s.edge
	d := f.Axis()
	u := (d + 1) % 3
	v := (d + 2) % 3
	step := -1
	if f.Positive() {
		step = 1
	}
	normal := f.Normal()

	var pos, nbPos [3]int
	for slice := 0; slice < e; slice++ {
		// Заполняем маску видимых граней слоя
		for j := 0; j < e; j++ {
			for i := 0; i < e; i++ {
				pos[d], pos[u], pos[v] = slice, i, j
				nbPos = pos
				nbPos[d] += step

				cur := p.At(pos[0], pos[1], pos[2])
				nb := p.At(nbPos[0], nbPos[1], nbPos[2])
				if faceVisible(cur, nb) {
					s.mask[j*e+i] = cur
				} else {
					s.mask[j*e+i] = voxel.Empty
				}
			}
		}

		plane := slice
		if f.Positive() {
			plane = slice + 1
		}

		// Жадно выбираем прямоугольники
		for j := 0; j < e; j++ {
			for i := 0; i < e; {
				cell := s.mask[j*e+i]
				if cell.IsEmpty() {
					i++
					continue
				}

				w := 1
				for i+w < e && s.mask[j*e+i+w] == cell {
					w++
				}

				h := 1
			grow:
				for j+h < e {
					for k := 0; k < w; k++ {
						if s.mask[(j+h)*e+i+k] != cell {
							break grow
						}
					}
					h++
				}

				s.emit(cell, f, d, u, v, plane, i, j, w, h, normal)

				for dj := 0; dj < h; dj++ {
					for di := 0; di < w; di++ {
						s.mask[(j+dj)*e+i+di] = voxel.Empty
					}
				}
				i += w
			}
		}
	}
}

func (s *Scratch) emit(cell voxel.Voxel, f Face, d, u, v, plane, i, j, w, h int, normal mgl32.Vec3) {
	corner := func(cu, cv int) mgl32.Vec3 {
		var c mgl32.Vec3
		c[d] = float32(plane)
		c[u] = float32(cu)
		c[v] = float32(cv)
		return c
	}

	// Обход (i,j) -> (i+w,j) -> (i+w,j+h) -> (i,j+h) идёт против часовой стрелки,
	// если смотреть со стороны +d. Вершины выдаются по часовой стрелке снаружи.
	ccw := [4]mgl32.Vec3{corner(i, j), corner(i+w, j), corner(i+w, j+h), corner(i, j+h)}
	uvCCW := [4]mgl32.Vec2{{0, 0}, {float32(w), 0}, {float32(w), float32(h)}, {0, float32(h)}}

	corners, uvs := ccw, uvCCW
	if f.Positive() {
		corners = [4]mgl32.Vec3{ccw[0], ccw[3], ccw[2], ccw[1]}
		uvs = [4]mgl32.Vec2{uvCCW[0], uvCCW[3], uvCCW[2], uvCCW[1]}
	}

	target := &s.opaque
	if cell.Kind() == voxel.KindFluid {
		target = &s.translucent
	}
	target.addQuad(corners, uvs, normal, cell.Color())
}
