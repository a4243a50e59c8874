package tasks

import (
	"context"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/mesh"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/annel0/voxelworld/internal/terrain"
	"github.com/annel0/voxelworld/internal/voxel"
)

// GenerationResult содержимое чанка, готовое к записи в ChunkMap
type GenerationResult struct {
	Key       voxel.ChunkKey
	EntityID  uint64
	Buffer    *voxel.Buffer
	FromStore bool
	Duration  time.Duration
}

// MeshResult меши чанка, готовые к прикреплению
type MeshResult struct {
	Key      voxel.ChunkKey
	EntityID uint64
	Mesh     mesh.Result
	Quads    int
	Duration time.Duration
}

// Orchestrator запускает генерацию и мешинг на пуле.
// Задачи захватывают только значения и неизменяемые объекты, поэтому
// состояние мира главного цикла им недоступно.
type Orchestrator struct {
	ctx   context.Context
	pool  *Pool
	gen   *terrain.Generator
	store storage.ChunkStore
	shape voxel.Shape
	log   *logging.Logger
}

// NewOrchestrator связывает пул, генератор и (опционально, может быть nil) хранилище правок
func NewOrchestrator(ctx context.Context, pool *Pool, gen *terrain.Generator, store storage.ChunkStore) *Orchestrator {
	return &Orchestrator{
		ctx:   ctx,
		pool:  pool,
		gen:   gen,
		store: store,
		shape: voxel.NewShape(gen.Edge()),
		log:   logging.GetTasksLogger(),
	}
}

// Pool возвращает пул воркеров
func (o *Orchestrator) Pool() *Pool {
	return o.pool
}

// Edge ребро чанка, для которого настроен генератор
func (o *Orchestrator) Edge() int {
	return o.shape.Edge
}

// SpawnGeneration ставит генерацию чанка key. false - пул не принял задачу,
// запрос остаётся у вызывающего.
func (o *Orchestrator) SpawnGeneration(key voxel.ChunkKey, entityID uint64) (*Handle[GenerationResult], bool) {
	h := newHandle[GenerationResult]()
	gen, store, shape, ctx, log := o.gen, o.store, o.shape, o.ctx, o.log

	ok := o.pool.TrySubmit(func(a *Arena) {
		start := time.Now()
		res := GenerationResult{Key: key, EntityID: entityID}

		if store != nil {
			buf, found, err := store.Load(ctx, key)
			switch {
			case err != nil:
				log.Warn("Не удалось загрузить чанк %s из хранилища, генерируем заново: %v", key, err)
			case found && buf.Shape() == shape:
				res.Buffer = buf
				res.FromStore = true
			case found:
				log.Warn("Чанк %s в хранилище другой формы (%d), игнорируем", key, buf.Shape().Edge)
			}
		}

		if res.Buffer == nil {
			res.Buffer = voxel.NewBuffer(shape)
			gen.Generate(key, res.Buffer, a.Terrain)
		}

		res.Duration = time.Since(start)
		h.complete(res)
	})
	if !ok {
		return nil, false
	}
	return h, true
}

// SpawnMeshing ставит мешинг снимка padded. Снимок переходит во владение задачи.
func (o *Orchestrator) SpawnMeshing(key voxel.ChunkKey, entityID uint64, padded *mesh.Padded) (*Handle[MeshResult], bool) {
	h := newHandle[MeshResult]()

	ok := o.pool.TrySubmit(func(a *Arena) {
		start := time.Now()
		res := mesh.Greedy(padded, a.Mesh)
		h.complete(MeshResult{
			Key:      key,
			EntityID: entityID,
			Mesh:     res,
			Quads:    res.QuadCount(),
			Duration: time.Since(start),
		})
	})
	if !ok {
		return nil, false
	}
	return h, true
}
