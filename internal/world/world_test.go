package world

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/annel0/voxelworld/internal/physics"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/annel0/voxelworld/internal/tasks"
	"github.com/annel0/voxelworld/internal/terrain"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEdge = 8

func testOptions(radius int) Options {
	return Options{
		HorizontalRadius: radius,
		GenerationBudget: 4,
		MeshingBudget:    4,
	}
}

func newTestWorldEdge(t *testing.T, edge, workers int, opts Options, store storage.ChunkStore) *World {
	t.Helper()
	gen, err := terrain.NewBuilder(2024, edge).WithDefaultBiomes().Build()
	require.NoError(t, err)

	pool := tasks.NewPool(context.Background(), workers, 256, edge)
	t.Cleanup(func() { pool.Close() })

	w, err := New(opts, tasks.NewOrchestrator(context.Background(), pool, gen, store), store, nil)
	require.NoError(t, err)
	return w
}

func newTestWorld(t *testing.T, opts Options, store storage.ChunkStore) *World {
	return newTestWorldEdge(t, testEdge, 2, opts, store)
}

// chunkCenter мировая точка в центре колонки чанков (cx, cz)
func chunkCenter(edge, cx, cz int) mgl32.Vec3 {
	return mgl32.Vec3{float32(cx*edge + edge/2), 1, float32(cz*edge + edge/2)}
}

// settle крутит кадры, пока конвейер не опустеет
func settle(t *testing.T, w *World, observer mgl32.Vec3) {
	t.Helper()
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		w.Update(context.Background(), observer)
		if w.Idle() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("конвейер не завершился: %+v", w.Stats())
}

func diskKeys(edge, cx, cz, radius int) []voxel.ChunkKey {
	var keys []voxel.ChunkKey
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if dx*dx+dz*dz < radius*radius {
				keys = append(keys, voxel.KeyFromChunkCoords(vec.Vec3{X: cx + dx, Z: cz + dz}, edge))
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

func countEvents(events []Event, typ EventType) map[voxel.ChunkKey]int {
	counts := make(map[voxel.ChunkKey]int)
	for _, e := range events {
		if e.GetType() != typ {
			continue
		}
		switch ev := e.(type) {
		case ChunkEvent:
			counts[ev.Key]++
		case MeshEvent:
			counts[ev.Key]++
		}
	}
	return counts
}

// assertResidency проверяет, что записи ChunkMap и сущности совпадают и все чанки готовы
func assertResidency(t *testing.T, w *World) {
	t.Helper()
	assert.Equal(t, w.life.Keys(), w.ResidentKeys(), "запись ChunkMap есть тогда и только тогда, когда есть сущность")
	for _, key := range w.life.Keys() {
		c, _ := w.life.Get(key)
		assert.Equal(t, PhaseIdle, c.Phase, "после завершения задач чанк %s готов", key)
	}
}

func TestWorld_EndToEndRadius2(t *testing.T) {
	const edge = 32
	w := newTestWorldEdge(t, edge, 4, testOptions(2), nil)
	settle(t, w, mgl32.Vec3{1, 1, 1})

	want := diskKeys(edge, 0, 0, 2)
	require.Len(t, want, 9)
	assert.Equal(t, want, w.ResidentKeys())
	assertResidency(t, w)

	for _, key := range want {
		opaque, translucent, ok := w.Meshes(key)
		require.True(t, ok, "у чанка %s есть меш", key)
		assert.Greater(t, opaque.QuadCount(), 0, "слой коренной породы всегда даёт грани (%s)", key)
		assert.NotNil(t, translucent)
	}

	ready := countEvents(w.DrainEvents(), EventTypeChunkReady)
	assert.Len(t, ready, 9)
	for key, n := range ready {
		assert.Equal(t, 1, n, "ChunkReady для %s ровно один раз", key)
	}
}

func TestWorld_ZeroRadiusRequestsNothing(t *testing.T) {
	w := newTestWorld(t, testOptions(0), nil)
	settle(t, w, mgl32.Vec3{})
	assert.Empty(t, w.ResidentKeys())
	assert.Equal(t, 0, w.Stats().Entities)

	w.SetRadius(2, 0)
	settle(t, w, mgl32.Vec3{})
	assert.Len(t, w.ResidentKeys(), 9, "изменение радиуса пересчитывает набор")

	w.SetRadius(-1, 0)
	settle(t, w, mgl32.Vec3{})
	assert.Empty(t, w.ResidentKeys(), "отрицательный радиус выгружает всё")
}

func TestWorld_MovingObserverKeepsResidency(t *testing.T) {
	w := newTestWorld(t, testOptions(3), nil)
	settle(t, w, chunkCenter(testEdge, 0, 0))
	assert.Equal(t, diskKeys(testEdge, 0, 0, 3), w.ResidentKeys())

	settle(t, w, chunkCenter(testEdge, 4, -1))
	assert.Equal(t, diskKeys(testEdge, 4, -1, 3), w.ResidentKeys(), "нет лишних и нет недостающих чанков")
	assertResidency(t, w)

	despawned := countEvents(w.DrainEvents(), EventTypeChunkDespawned)
	assert.Contains(t, despawned, voxel.ChunkKey{X: -2 * testEdge}, "дальние чанки выгружены")
}

func TestWorld_AtMostOneEntityPerKey(t *testing.T) {
	opts := testOptions(2)
	opts.GenerationBudget = 0
	w := newTestWorld(t, opts, nil)

	w.Update(context.Background(), mgl32.Vec3{})
	w.SetRadius(3, 0)
	w.Update(context.Background(), mgl32.Vec3{})
	w.SetRadius(2, 0)
	w.Update(context.Background(), mgl32.Vec3{})

	s := w.Stats()
	assert.Equal(t, 9, s.Entities)
	assert.Equal(t, 9, s.GenQueue, "нулевой бюджет ничего не запускает")
	assert.Equal(t, 0, s.GenInFlight)
	assert.Len(t, countEvents(w.DrainEvents(), EventTypeChunkSpawned), 25)
}

func TestWorld_StaleGenerationDiscarded(t *testing.T) {
	w := newTestWorldEdge(t, testEdge, 1, testOptions(1), nil)

	release := make(chan struct{})
	require.True(t, w.orch.Pool().TrySubmit(func(*tasks.Arena) { <-release }))

	origin := voxel.ChunkKey{}
	w.Update(context.Background(), chunkCenter(testEdge, 0, 0))
	require.Equal(t, 1, w.Stats().GenInFlight, "генерация в работе")

	far := chunkCenter(testEdge, 10, 0)
	w.Update(context.Background(), far)
	assert.False(t, w.chunks.Exists(origin), "чанк выгружен до завершения генерации")

	close(release)
	settle(t, w, far)

	assert.NotContains(t, w.ResidentKeys(), origin, "устаревший результат не возвращает чанк")
	assert.Equal(t, []voxel.ChunkKey{{X: 10 * testEdge}}, w.ResidentKeys())
	assert.GreaterOrEqual(t, w.Stats().Stale, int64(1))
}

func inFlightKeys(w *World) []voxel.ChunkKey {
	keys := make([]voxel.ChunkKey, 0, len(w.genTasks))
	for _, p := range w.genTasks {
		keys = append(keys, p.key)
	}
	return keys
}

func TestWorld_GenerationDispatchedClosestFirst(t *testing.T) {
	opts := testOptions(3)
	opts.GenerationBudget = 1
	w := newTestWorldEdge(t, testEdge, 1, opts, nil)

	release := make(chan struct{})
	require.True(t, w.orch.Pool().TrySubmit(func(*tasks.Arena) { <-release }))

	origin := chunkCenter(testEdge, 0, 0)
	for i := 0; i < 3; i++ {
		w.Update(context.Background(), origin)
	}

	dispatched := inFlightKeys(w)
	require.Len(t, dispatched, 3, "бюджет 1 запускает одну генерацию за кадр")
	assert.Equal(t, voxel.ChunkKey{}, dispatched[0], "первым генерируется чанк наблюдателя")
	for i := 1; i < len(dispatched); i++ {
		assert.False(t, w.vis.Closer(dispatched[i], dispatched[i-1]),
			"генерации запускаются по возрастанию расстояния: %v", dispatched)
	}
	queued := w.genQueue.Keys()
	require.Len(t, queued, 22)
	assert.True(t, sort.SliceIsSorted(queued, func(i, j int) bool { return w.vis.Closer(queued[i], queued[j]) }),
		"очередь генерации упорядочена по расстоянию")

	// Наблюдатель переходит в соседний чанк, пока генерации ещё ждут
	moved := chunkCenter(testEdge, 2, 0)
	w.Update(context.Background(), moved)

	queued = w.genQueue.Keys()
	assert.True(t, sort.SliceIsSorted(queued, func(i, j int) bool { return w.vis.Closer(queued[i], queued[j]) }),
		"после смены чанка наблюдателя очередь пересортирована под новый центр")
	for _, key := range queued {
		assert.True(t, w.vis.InRange(key), "в очереди только ключи в радиусе (%s)", key)
	}

	dispatched = inFlightKeys(w)
	newCenter := voxel.KeyFromChunkCoords(vec.Vec3{X: 2}, testEdge)
	assert.Equal(t, newCenter, dispatched[len(dispatched)-1], "после пересортировки первым запускается новый центр")

	close(release)
	settle(t, w, moved)
	assert.Equal(t, diskKeys(testEdge, 2, 0, 3), w.ResidentKeys())
	assertResidency(t, w)
}

func TestWorld_EditRoundTrip(t *testing.T) {
	w := newTestWorld(t, testOptions(2), nil)
	settle(t, w, chunkCenter(testEdge, 0, 0))
	w.DrainEvents()

	pos := vec.Vec3{X: 0, Y: testEdge - 2, Z: 3}
	wood := voxel.Of(voxel.MaterialWood)
	require.True(t, w.SetVoxel(pos, wood, true))

	got, ok := w.VoxelAt(pos)
	require.True(t, ok)
	assert.Equal(t, wood, got)

	key := voxel.ChunkKey{}
	west := voxel.ChunkKey{X: -testEdge}
	assert.True(t, w.dirty.Contains(key), "правка помечает чанк")
	assert.True(t, w.dirty.Contains(west), "правка на границе помечает соседа")

	w.Update(context.Background(), chunkCenter(testEdge, 0, 0))
	assert.False(t, w.dirty.Contains(key), "набор очищается в конце кадра")

	settle(t, w, chunkCenter(testEdge, 0, 0))
	events := w.DrainEvents()
	assert.Equal(t, 1, countEvents(events, EventTypeChunkRemeshed)[key])
	assert.Equal(t, 1, countEvents(events, EventTypeChunkRemeshed)[west])
	assert.Empty(t, countEvents(events, EventTypeChunkReady), "правка не порождает повторный ChunkReady")

	c, ok := w.Chunk(key)
	require.True(t, ok)
	assert.True(t, c.Edited)
	assert.Equal(t, PhaseIdle, c.Phase, "правка не меняет фазу")

	assert.False(t, w.SetVoxel(vec.Vec3{X: 1000}, wood, true), "незагруженный чанк не редактируется")
	_, ok = w.VoxelAt(vec.Vec3{X: 1000})
	assert.False(t, ok)
}

func TestWorld_EditWithoutUpdateFlag(t *testing.T) {
	w := newTestWorld(t, testOptions(1), nil)
	settle(t, w, mgl32.Vec3{})

	require.True(t, w.SetVoxel(vec.Vec3{X: 3, Y: 5, Z: 3}, voxel.Of(voxel.MaterialRock), false))
	assert.Equal(t, 0, w.dirty.Len())
}

func TestWorld_StoreRestoresEdits(t *testing.T) {
	store, err := storage.NewBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	w := newTestWorld(t, testOptions(1), store)
	home := chunkCenter(testEdge, 0, 0)
	settle(t, w, home)

	pos := vec.Vec3{X: 2, Y: testEdge - 1, Z: 2}
	cactus := voxel.Of(voxel.MaterialCactus)
	require.True(t, w.SetVoxel(pos, cactus, true))

	settle(t, w, chunkCenter(testEdge, 6, 0))
	_, found, err := store.Load(context.Background(), voxel.ChunkKey{})
	require.NoError(t, err)
	assert.True(t, found, "изменённый чанк сохранён при выгрузке")
	w.DrainEvents()

	settle(t, w, home)
	got, ok := w.VoxelAt(pos)
	require.True(t, ok)
	assert.Equal(t, cactus, got, "правка пережила выгрузку")

	restored := false
	for _, e := range w.DrainEvents() {
		if ev, ok := e.(ChunkEvent); ok && ev.EventType == EventTypeChunkGenerated && ev.Key == (voxel.ChunkKey{}) {
			restored = ev.FromStore
		}
	}
	assert.True(t, restored)
}

func TestWorld_CloseSavesEditedChunks(t *testing.T) {
	store := storage.NewMemoryStore()
	w := newTestWorld(t, testOptions(2), store)
	settle(t, w, mgl32.Vec3{})

	require.True(t, w.SetVoxel(vec.Vec3{X: 1, Y: 1, Z: 1}, voxel.Empty, false))
	require.NoError(t, w.Close(context.Background()))
	assert.Equal(t, 1, store.Len())
}

func TestWorld_CollisionQueries(t *testing.T) {
	w := newTestWorld(t, testOptions(1), nil)
	settle(t, w, mgl32.Vec3{})

	h, ok := w.GroundHeight(3, 3)
	require.True(t, ok)
	assert.GreaterOrEqual(t, h, 2, "над коренной породой")

	below := vec.Vec3{X: 3, Y: h - 1, Z: 3}
	assert.True(t, w.IsSolid(below))
	assert.False(t, w.CanMoveTo(below, physics.NewBoxCollider(1, 2, 1)))
	assert.True(t, w.IsSolid(vec.Vec3{X: 500, Y: 5, Z: 500}), "незагруженное пространство непроходимо")
}

func TestWorld_PoolFailurePanics(t *testing.T) {
	w := newTestWorld(t, testOptions(1), nil)
	require.True(t, w.orch.Pool().TrySubmit(func(*tasks.Arena) { panic("сбой генератора") }))

	deadline := time.Now().Add(5 * time.Second)
	for w.orch.Pool().Err() == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Panics(t, func() { w.Update(context.Background(), mgl32.Vec3{}) })
}
