package world

import (
	"sort"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
)

// VisibilityScheduler держит набор резидентных чанков вокруг наблюдателя.
// Горизонтальное условие dx²+dz² < Rh². При Rv > 0 чанки делятся по вертикали:
// дополнительно dy² < Rv² и y >= 0. При Rv == 0 используется один слой y = 0.
type VisibilityScheduler struct {
	edge    int
	rh, rv  int
	center  vec.Vec3 // Чанк наблюдателя в координатах чанков
	placed  bool
	changed bool
}

// NewVisibilityScheduler создаёт планировщик для чанков с ребром edge
func NewVisibilityScheduler(edge, horizontal, vertical int) *VisibilityScheduler {
	return &VisibilityScheduler{
		edge:    edge,
		rh:      horizontal,
		rv:      vertical,
		changed: true,
	}
}

// SetRadius меняет радиусы; изменение вызывает пересчёт на следующем Observe
func (v *VisibilityScheduler) SetRadius(horizontal, vertical int) {
	if horizontal == v.rh && vertical == v.rv {
		return
	}
	v.rh, v.rv = horizontal, vertical
	v.changed = true
}

// Radius текущие радиусы (горизонтальный, вертикальный)
func (v *VisibilityScheduler) Radius() (int, int) {
	return v.rh, v.rv
}

// Vertical включено ли вертикальное деление
func (v *VisibilityScheduler) Vertical() bool {
	return v.rv > 0
}

// Observe обновляет позицию наблюдателя (мировые координаты вокселя).
// true - наблюдатель перешёл в другой чанк или изменился радиус, нужен пересчёт.
func (v *VisibilityScheduler) Observe(pos vec.Vec3) bool {
	c := pos.FloorDiv(v.edge)
	if !v.Vertical() {
		c.Y = 0
	}

	recompute := v.changed || !v.placed || c != v.center
	v.center = c
	v.placed = true
	v.changed = false
	return recompute
}

// Center ключ чанка наблюдателя
func (v *VisibilityScheduler) Center() voxel.ChunkKey {
	return voxel.KeyFromChunkCoords(v.center, v.edge)
}

// distanceSq квадрат расстояния от чанка наблюдателя в пространстве чанков
func (v *VisibilityScheduler) distanceSq(key voxel.ChunkKey) int {
	c := key.ChunkCoords(v.edge)
	dx, dy, dz := c.X-v.center.X, c.Y-v.center.Y, c.Z-v.center.Z
	if !v.Vertical() {
		dy = 0
	}
	return dx*dx + dy*dy + dz*dz
}

// InRange проверяет, должен ли ключ быть резидентным
func (v *VisibilityScheduler) InRange(key voxel.ChunkKey) bool {
	if v.rh <= 0 {
		return false
	}
	c := key.ChunkCoords(v.edge)
	dx, dz := c.X-v.center.X, c.Z-v.center.Z
	if dx*dx+dz*dz >= v.rh*v.rh {
		return false
	}
	if !v.Vertical() {
		return c.Y == 0
	}
	dy := c.Y - v.center.Y
	return c.Y >= 0 && dy*dy < v.rv*v.rv
}

// Closer порядок приоритета: ближе к наблюдателю, при равенстве - по ключу
func (v *VisibilityScheduler) Closer(a, b voxel.ChunkKey) bool {
	da, db := v.distanceSq(a), v.distanceSq(b)
	if da != db {
		return da < db
	}
	return a.Less(b)
}

// Candidates все ключи в радиусе, отсортированные по приоритету
func (v *VisibilityScheduler) Candidates() []voxel.ChunkKey {
	if v.rh <= 0 {
		return nil
	}

	var keys []voxel.ChunkKey
	span := v.rh - 1
	for dx := -span; dx <= span; dx++ {
		for dz := -span; dz <= span; dz++ {
			if dx*dx+dz*dz >= v.rh*v.rh {
				continue
			}
			if !v.Vertical() {
				keys = append(keys, voxel.KeyFromChunkCoords(vec.Vec3{X: v.center.X + dx, Z: v.center.Z + dz}, v.edge))
				continue
			}
			for dy := -(v.rv - 1); dy <= v.rv-1; dy++ {
				y := v.center.Y + dy
				if y < 0 {
					continue
				}
				keys = append(keys, voxel.KeyFromChunkCoords(vec.Vec3{X: v.center.X + dx, Y: y, Z: v.center.Z + dz}, v.edge))
			}
		}
	}

	sort.Slice(keys, func(i, j int) bool { return v.Closer(keys[i], keys[j]) })
	return keys
}

// Plan сравнивает резидентные ключи с кандидатами.
// creates - отсутствующие кандидаты по приоритету, destroys - резидентные вне радиуса по ключу.
func (v *VisibilityScheduler) Plan(resident []voxel.ChunkKey) (creates, destroys []voxel.ChunkKey) {
	present := make(map[voxel.ChunkKey]struct{}, len(resident))
	for _, k := range resident {
		present[k] = struct{}{}
		if !v.InRange(k) {
			destroys = append(destroys, k)
		}
	}

	for _, k := range v.Candidates() {
		if _, ok := present[k]; !ok {
			creates = append(creates, k)
		}
	}

	sort.Slice(destroys, func(i, j int) bool { return destroys[i].Less(destroys[j]) })
	return creates, destroys
}
