package vec

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFloorDiv_NegativeCoordinates(t *testing.T) {
	assert.Equal(t, 0, FloorDiv(0, 32))
	assert.Equal(t, 0, FloorDiv(31, 32))
	assert.Equal(t, 1, FloorDiv(32, 32))
	assert.Equal(t, -1, FloorDiv(-1, 32), "-1 должен попадать в чанк -1")
	assert.Equal(t, -1, FloorDiv(-32, 32))
	assert.Equal(t, -2, FloorDiv(-33, 32))
}

func TestFloorMod_AlwaysNonNegative(t *testing.T) {
	assert.Equal(t, 31, FloorMod(-1, 32))
	assert.Equal(t, 0, FloorMod(-32, 32))
	assert.Equal(t, 5, FloorMod(37, 32))

	for a := -100; a <= 100; a++ {
		assert.Equal(t, a, FloorDiv(a, 16)*16+FloorMod(a, 16), "разложение должно быть точным для %d", a)
	}
}

func TestFromWorld_FloorsEachAxis(t *testing.T) {
	v := FromWorld(mgl32.Vec3{1.5, -0.25, -3})
	assert.Equal(t, Vec3{X: 1, Y: -1, Z: -3}, v)
}

func TestVec3_DistanceSq(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 3}
	assert.Equal(t, 25, a.DistanceSq(b))
	assert.Equal(t, Vec2{X: 1, Y: 3}, a.XZ())
}
