package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxelworld/internal/mesh"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/annel0/voxelworld/internal/terrain"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEdge = 8

func TestPool_RunsJobsOnOwnArenas(t *testing.T) {
	pool := NewPool(context.Background(), 3, 64, testEdge)
	assert.Equal(t, 3, pool.Workers())

	var mu sync.Mutex
	seen := make(map[int]*Arena)
	var wg sync.WaitGroup

	for i := 0; i < 30; i++ {
		wg.Add(1)
		require.True(t, pool.TrySubmit(func(a *Arena) {
			defer wg.Done()
			mu.Lock()
			if prev, ok := seen[a.WorkerID]; ok {
				assert.Same(t, prev, a, "у воркера всегда одна и та же арена")
			}
			seen[a.WorkerID] = a
			mu.Unlock()
		}))
	}
	wg.Wait()

	require.NoError(t, pool.Close())
	assert.Equal(t, 0, pool.Pending())
	for id, a := range seen {
		assert.Equal(t, id, a.WorkerID)
	}
}

func TestPool_TrySubmitDoesNotBlockWhenFull(t *testing.T) {
	pool := NewPool(context.Background(), 1, 1, testEdge)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, pool.TrySubmit(func(*Arena) {
		close(started)
		<-release
	}))
	<-started

	assert.True(t, pool.TrySubmit(func(*Arena) {}), "одно место в очереди свободно")
	assert.False(t, pool.TrySubmit(func(*Arena) {}), "переполненная очередь отклоняет задачу без блокировки")

	close(release)
	require.NoError(t, pool.Close())
	assert.False(t, pool.TrySubmit(func(*Arena) {}), "закрытый пул не принимает задачи")
}

func TestPool_PanicBecomesError(t *testing.T) {
	pool := NewPool(context.Background(), 2, 4, testEdge)
	require.True(t, pool.TrySubmit(func(*Arena) { panic("boom") }))

	err := pool.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, err, pool.Err())
	assert.Equal(t, 0, pool.Pending(), "задача с panic не остаётся в ожидающих")
}

func TestDefaultWorkers_Positive(t *testing.T) {
	assert.Greater(t, DefaultWorkers(), 0)
}

func TestHandle_PollOnce(t *testing.T) {
	h := newHandle[int]()
	_, ok := h.Poll()
	assert.False(t, ok, "незавершённая задача")

	h.complete(42)
	v, ok := h.Poll()
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	v, ok = h.Poll()
	assert.True(t, ok, "повторный опрос возвращает тот же результат")
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, h.Wait())
}

func newTestOrchestrator(t *testing.T, store storage.ChunkStore) *Orchestrator {
	t.Helper()
	gen, err := terrain.NewBuilder(77, testEdge).WithDefaultBiomes().Build()
	require.NoError(t, err)
	pool := NewPool(context.Background(), 2, 16, testEdge)
	t.Cleanup(func() { pool.Close() })
	return NewOrchestrator(context.Background(), pool, gen, store)
}

func waitPoll[T any](t *testing.T, h *Handle[T]) T {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := h.Poll(); ok {
			return v
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("задача не завершилась вовремя")
	var zero T
	return zero
}

func TestOrchestrator_GenerationMatchesGenerator(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	key := voxel.ChunkKey{X: 16, Z: -8}

	h, ok := o.SpawnGeneration(key, 9)
	require.True(t, ok)
	res := waitPoll(t, h)

	assert.Equal(t, key, res.Key)
	assert.Equal(t, uint64(9), res.EntityID)
	assert.False(t, res.FromStore)

	want := voxel.NewBuffer(voxel.NewShape(testEdge))
	o.gen.Generate(key, want, nil)
	assert.True(t, want.Equal(res.Buffer), "результат задачи должен совпадать с прямой генерацией")
}

func TestOrchestrator_GenerationPrefersStore(t *testing.T) {
	store := storage.NewMemoryStore()
	key := voxel.ChunkKey{X: 8}
	edited := voxel.NewFilledBuffer(voxel.NewShape(testEdge), voxel.Of(voxel.MaterialCactus))
	require.NoError(t, store.Save(context.Background(), key, edited))

	o := newTestOrchestrator(t, store)
	h, ok := o.SpawnGeneration(key, 1)
	require.True(t, ok)
	res := waitPoll(t, h)

	assert.True(t, res.FromStore, "сохранённая правка важнее генерации")
	assert.True(t, edited.Equal(res.Buffer))
}

func TestOrchestrator_Meshing(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	buf := voxel.NewBuffer(voxel.NewShape(testEdge))
	buf.SetVoxel(1, 1, 1, voxel.Of(voxel.MaterialRock))
	p := mesh.NewPadded(testEdge)
	p.CopyFrom(buf, nil)

	h, ok := o.SpawnMeshing(voxel.ChunkKey{}, 3, p)
	require.True(t, ok)
	res := waitPoll(t, h)

	assert.Equal(t, 6, res.Quads)
	assert.Equal(t, 6, res.Mesh.Opaque.QuadCount())
	assert.Equal(t, uint64(3), res.EntityID)
}
