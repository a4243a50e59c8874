package mesh

import (
	"testing"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEdge = 8

func paddedFrom(buf *voxel.Buffer, neighbor func(d vec.Vec3) *voxel.Buffer) *Padded {
	p := NewPadded(buf.Shape().Edge)
	p.CopyFrom(buf, neighbor)
	return p
}

func TestGreedy_SingleVoxel(t *testing.T) {
	buf := voxel.NewBuffer(voxel.NewShape(testEdge))
	buf.SetVoxel(3, 3, 3, voxel.Of(voxel.MaterialRock))

	res := Greedy(paddedFrom(buf, nil), NewScratch(testEdge))
	assert.Equal(t, 6, res.Opaque.QuadCount(), "у одиночного вокселя 6 граней")
	assert.Len(t, res.Opaque.Positions, 24)
	assert.Len(t, res.Opaque.Indices, 36)
	assert.InDelta(t, 6.0, res.Opaque.Area(), 1e-5)
	assert.True(t, res.Translucent.IsEmpty())
}

func TestGreedy_CuboidAreaMatchesSurface(t *testing.T) {
	buf := voxel.NewBuffer(voxel.NewShape(testEdge))
	buf.FillExtent(vec.Vec3{X: 1, Y: 2, Z: 1}, vec.Vec3{X: 3, Y: 2, Z: 4}, voxel.Of(voxel.MaterialDirt))

	res := Greedy(paddedFrom(buf, nil), nil)

	// 2*(3*2 + 3*4 + 2*4) = 52
	assert.InDelta(t, 52.0, res.Opaque.Area(), 1e-4, "площадь квадов должна совпадать с открытой поверхностью")
	assert.Equal(t, 6, res.Opaque.QuadCount(), "каждая грань кубоида сливается в один квад")
}

func TestGreedy_FullySolidWithSolidHaloHasNoFaces(t *testing.T) {
	solid := voxel.NewFilledBuffer(voxel.NewShape(testEdge), voxel.Of(voxel.MaterialRock))
	neighbor := func(vec.Vec3) *voxel.Buffer { return solid }

	res := Greedy(paddedFrom(solid, neighbor), NewScratch(testEdge))
	assert.Equal(t, 0, res.QuadCount(), "полностью закрытый чанк не даёт граней")
	assert.True(t, res.Opaque.IsEmpty())
}

func TestGreedy_FullySolidWithAirHalo(t *testing.T) {
	solid := voxel.NewFilledBuffer(voxel.NewShape(testEdge), voxel.Of(voxel.MaterialRock))

	res := Greedy(paddedFrom(solid, nil), NewScratch(testEdge))
	assert.Equal(t, 6, res.Opaque.QuadCount())
	assert.InDelta(t, float64(6*testEdge*testEdge), res.Opaque.Area(), 1e-3)
}

func TestGreedy_EmptyBufferIsValid(t *testing.T) {
	res := Greedy(paddedFrom(voxel.NewBuffer(voxel.NewShape(testEdge)), nil), NewScratch(testEdge))
	assert.Equal(t, 0, res.QuadCount(), "пустой чанк - нормальный результат")
	assert.NotNil(t, res.Opaque)
	assert.NotNil(t, res.Translucent)
}

func TestGreedy_NeighborHaloCullsBorderFaces(t *testing.T) {
	shape := voxel.NewShape(testEdge)
	buf := voxel.NewBuffer(shape)
	buf.SetVoxel(testEdge-1, 0, 0, voxel.Of(voxel.MaterialRock))

	east := voxel.NewBuffer(shape)
	east.SetVoxel(0, 0, 0, voxel.Of(voxel.MaterialRock))

	neighbor := func(d vec.Vec3) *voxel.Buffer {
		if d.X == 1 {
			return east
		}
		return nil
	}

	res := Greedy(paddedFrom(buf, neighbor), NewScratch(testEdge))
	assert.Equal(t, 5, res.Opaque.QuadCount(), "грань, прилегающая к твёрдому соседу, не строится")
	for _, n := range res.Opaque.Normals {
		assert.NotEqual(t, float32(1), n.X(), "не должно быть граней +X")
	}
}

func TestGreedy_FluidSplitsIntoTranslucent(t *testing.T) {
	buf := voxel.NewBuffer(voxel.NewShape(testEdge))
	buf.SetVoxel(2, 2, 2, voxel.Of(voxel.MaterialRock))
	buf.SetVoxel(3, 2, 2, voxel.Of(voxel.MaterialWater))

	res := Greedy(paddedFrom(buf, nil), NewScratch(testEdge))
	assert.Equal(t, 6, res.Opaque.QuadCount(), "грань камня против воды видна")
	assert.Equal(t, 5, res.Translucent.QuadCount(), "грань воды против камня не строится")
	for _, c := range res.Translucent.Colors {
		assert.Equal(t, voxel.MaterialWater.Color(), c)
	}
}

func TestGreedy_DifferentMaterialsDoNotMerge(t *testing.T) {
	buf := voxel.NewBuffer(voxel.NewShape(testEdge))
	buf.SetVoxel(1, 1, 1, voxel.Of(voxel.MaterialRock))
	buf.SetVoxel(2, 1, 1, voxel.Of(voxel.MaterialDirt))
	res := Greedy(paddedFrom(buf, nil), NewScratch(testEdge))
	assert.Equal(t, 10, res.Opaque.QuadCount())

	buf.SetVoxel(2, 1, 1, voxel.Of(voxel.MaterialRock))
	res = Greedy(paddedFrom(buf, nil), NewScratch(testEdge))
	assert.Equal(t, 6, res.Opaque.QuadCount(), "одинаковые воксели сливаются")
	assert.InDelta(t, 10.0, res.Opaque.Area(), 1e-5)
}

func TestGreedy_ClockwiseWinding(t *testing.T) {
	buf := voxel.NewBuffer(voxel.NewShape(testEdge))
	buf.FillExtent(vec.Vec3{X: 2, Y: 2, Z: 2}, vec.Vec3{X: 2, Y: 3, Z: 1}, voxel.Of(voxel.MaterialSand))
	m := Greedy(paddedFrom(buf, nil), NewScratch(testEdge)).Opaque

	require.Equal(t, 0, len(m.Indices)%6)
	for q := 0; q < len(m.Indices); q += 6 {
		a := m.Positions[m.Indices[q]]
		b := m.Positions[m.Indices[q+1]]
		c := m.Positions[m.Indices[q+2]]
		n := m.Normals[m.Indices[q]]
		assert.Less(t, b.Sub(a).Cross(c.Sub(a)).Dot(n), float32(0),
			"треугольники обходятся по часовой стрелке, если смотреть снаружи")
	}
}

func TestGreedy_RemeshIsStable(t *testing.T) {
	buf := voxel.NewBuffer(voxel.NewShape(testEdge))
	buf.FillExtent(vec.Vec3{}, vec.Vec3{X: testEdge, Y: 3, Z: testEdge}, voxel.Of(voxel.MaterialGrass))
	buf.SetVoxel(4, 3, 4, voxel.Of(voxel.MaterialWood))
	buf.SetVoxel(5, 3, 4, voxel.Of(voxel.MaterialWater))

	scratch := NewScratch(testEdge)
	first := Greedy(paddedFrom(buf, nil), scratch)
	second := Greedy(paddedFrom(buf, nil), scratch)

	assert.Equal(t, first.QuadCount(), second.QuadCount())
	assert.Equal(t, first.Opaque.Positions, second.Opaque.Positions)
	assert.Equal(t, first.Translucent.Positions, second.Translucent.Positions)
}

func TestGreedy_ResultIndependentOfScratch(t *testing.T) {
	scratch := NewScratch(testEdge)
	one := voxel.NewBuffer(voxel.NewShape(testEdge))
	one.SetVoxel(0, 0, 0, voxel.Of(voxel.MaterialRock))
	first := Greedy(paddedFrom(one, nil), scratch)
	snapshot := first.Opaque.Clone()

	other := voxel.NewFilledBuffer(voxel.NewShape(testEdge), voxel.Of(voxel.MaterialSnow))
	Greedy(paddedFrom(other, nil), scratch)

	assert.Equal(t, snapshot.Positions, first.Opaque.Positions, "результат не должен разделять память со scratch")
}

func TestFace_Normals(t *testing.T) {
	assert.Equal(t, float32(-1), FaceNegX.Normal().X())
	assert.Equal(t, float32(1), FacePosY.Normal().Y())
	assert.Equal(t, 2, FacePosZ.Axis())
	assert.False(t, FaceNegZ.Positive())
}
