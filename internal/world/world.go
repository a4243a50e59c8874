package world

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxelworld/internal/config"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/mesh"
	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/physics"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/annel0/voxelworld/internal/tasks"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Options параметры мира, неизменные после создания (кроме радиусов)
type Options struct {
	HorizontalRadius int
	VerticalRadius   int
	GenerationBudget int           // Запусков генерации за кадр; <= 0 - ни одного
	MeshingBudget    int           // Запусков мешинга за кадр; <= 0 - ни одного
	LogEvery         time.Duration // Период диагностического лога; 0 - выключен
}

// OptionsFromConfig переносит настройки мира из конфигурации
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		HorizontalRadius: cfg.World.HorizontalRadius,
		VerticalRadius:   cfg.World.VerticalRadius,
		GenerationBudget: cfg.Scheduler.GenerationBudget,
		MeshingBudget:    cfg.Scheduler.MeshingBudget,
		LogEvery:         time.Duration(cfg.Diagnostics.LogEverySeconds * float64(time.Second)),
	}
}

type pendingGeneration struct {
	key    voxel.ChunkKey
	id     uint64
	handle *tasks.Handle[tasks.GenerationResult]
}

type pendingMesh struct {
	key    voxel.ChunkKey
	id     uint64
	handle *tasks.Handle[tasks.MeshResult]
}

// Stats снимок состояния конвейера
type Stats struct {
	Frame        uint64
	Center       voxel.ChunkKey
	Resident     int
	Entities     int
	Ready        int
	GenQueue     int
	MeshQueue    int
	GenInFlight  int
	MeshInFlight int
	Stale        int64
	LastGenPass  time.Duration
	LastMeshPass time.Duration
}

// World связывает планировщик видимости, жизненный цикл чанков и оркестратор задач.
// Все методы вызываются из одного потока главного цикла.
type World struct {
	opts   Options
	edge   int
	chunks *voxel.ChunkMap
	life   *Lifecycle
	vis    *VisibilityScheduler
	orch   *tasks.Orchestrator
	store  storage.ChunkStore
	diag   *observability.Diagnostics

	genQueue  *KeyQueue
	meshQueue *KeyQueue
	dirty     *DirtySet
	genTasks  []pendingGeneration
	meshTasks []pendingMesh
	events    []Event

	observer vec.Vec3
	frame    uint64

	tracer  trace.Tracer
	limiter *rate.Limiter
	log     *logging.Logger
}

// New создаёт мир поверх оркестратора. store и diag могут быть nil.
func New(opts Options, orch *tasks.Orchestrator, store storage.ChunkStore, diag *observability.Diagnostics) (*World, error) {
	if orch == nil {
		return nil, errors.New("world: orchestrator is required")
	}
	edge := orch.Edge()
	if edge <= 0 {
		return nil, fmt.Errorf("world: invalid chunk edge %d", edge)
	}
	if diag == nil {
		diag = observability.NewDiagnostics(nil)
	}

	chunks := voxel.NewChunkMap(voxel.NewShape(edge))
	w := &World{
		opts:      opts,
		edge:      edge,
		chunks:    chunks,
		vis:       NewVisibilityScheduler(edge, opts.HorizontalRadius, opts.VerticalRadius),
		orch:      orch,
		store:     store,
		diag:      diag,
		genQueue:  NewKeyQueue(),
		meshQueue: NewKeyQueue(),
		dirty:     NewDirtySet(),
		tracer:    observability.Tracer(),
		log:       logging.GetWorldLogger(),
	}
	w.life = NewLifecycle(chunks, w.emit)
	if opts.LogEvery > 0 {
		w.limiter = rate.NewLimiter(rate.Every(opts.LogEvery), 1)
	}

	w.log.Info("🌍 Мир создан: ребро %d, радиус %d/%d, бюджет %d/%d",
		edge, opts.HorizontalRadius, opts.VerticalRadius, opts.GenerationBudget, opts.MeshingBudget)
	return w, nil
}

func (w *World) emit(e Event) {
	w.events = append(w.events, e)
}

// Edge ребро чанка
func (w *World) Edge() int {
	return w.edge
}

// SetRadius меняет радиусы загрузки; пересчёт произойдёт в следующем Update
func (w *World) SetRadius(horizontal, vertical int) {
	h, v := w.vis.Radius()
	if h == horizontal && v == vertical {
		return
	}
	w.vis.SetRadius(horizontal, vertical)
	w.log.Info("🔭 Радиус загрузки изменён: %d/%d -> %d/%d", h, v, horizontal, vertical)
}

// Update выполняет один кадр конвейера для позиции наблюдателя observer
func (w *World) Update(ctx context.Context, observer mgl32.Vec3) {
	if err := w.orch.Pool().Err(); err != nil {
		panic(fmt.Sprintf("world: worker pool failed: %v", err))
	}

	w.frame++
	ctx, span := w.tracer.Start(ctx, "world.Update",
		trace.WithAttributes(attribute.Int64("world.frame", int64(w.frame))))
	defer span.End()

	w.observer = vec.FromWorld(observer)
	w.schedule(ctx)

	genStart := time.Now()
	w.pollGeneration()
	w.dispatchGeneration()
	w.diag.ObserveGenerationPass(time.Since(genStart))

	meshStart := time.Now()
	w.queueDirty()
	w.pollMeshing()
	w.dispatchMeshing()
	w.diag.ObserveMeshingPass(time.Since(meshStart))

	w.dirty.Clear()
	w.recordDiagnostics()
}

// schedule пересчитывает резидентный набор при смене чанка наблюдателя или радиуса.
// Уничтожения применяются до создания.
func (w *World) schedule(ctx context.Context) {
	if !w.vis.Observe(w.observer) {
		return
	}

	_, span := w.tracer.Start(ctx, "world.schedule")
	defer span.End()

	creates, destroys := w.vis.Plan(w.life.Keys())
	for _, key := range destroys {
		w.destroy(ctx, key)
	}
	for _, key := range creates {
		w.life.Spawn(key)
		w.genQueue.Push(key)
	}

	// Ожидающие генерации переупорядочиваются под новый центр
	w.genQueue.SortStable(w.vis.Closer)

	span.SetAttributes(
		attribute.Int("world.creates", len(creates)),
		attribute.Int("world.destroys", len(destroys)),
	)
	if len(creates) > 0 || len(destroys) > 0 {
		w.log.Debug("Центр %s: +%d чанков, -%d чанков", w.vis.Center(), len(creates), len(destroys))
	}
}

func (w *World) destroy(ctx context.Context, key voxel.ChunkKey) {
	c, buf := w.life.Destroy(key)
	w.genQueue.Remove(key)
	w.meshQueue.Remove(key)

	trace.SpanFromContext(ctx).AddEvent("chunk.despawn", observability.ChunkAttrs(key.X, key.Y, key.Z))

	if c.Edited && buf != nil && w.store != nil {
		if err := w.store.Save(ctx, key, buf); err != nil {
			w.log.Error("❌ Не удалось сохранить изменённый чанк %s: %v", key, err)
		}
	}
}

func (w *World) pollGeneration() {
	kept := w.genTasks[:0]
	for _, p := range w.genTasks {
		res, ok := p.handle.Poll()
		if !ok {
			kept = append(kept, p)
			continue
		}

		w.diag.ObserveGenerationTask(res.Duration, res.FromStore)
		c, applied := w.life.ApplyGeneration(res)
		if !applied {
			w.diag.IncStale()
			continue
		}

		w.dirty.Mark(c.Key)
		w.markNeighborsDirty(c.Key, func(vec.Vec3) bool { return true })
	}
	clearTail(w.genTasks, len(kept))
	w.genTasks = kept
}

func (w *World) dispatchGeneration() {
	budget := w.opts.GenerationBudget
	dispatched := 0
	blocked := false

	w.genQueue.Retain(func(key voxel.ChunkKey) bool {
		if blocked || dispatched >= budget {
			return true
		}
		c, ok := w.life.Get(key)
		if !ok || c.Phase != PhaseGenerate || c.genInFlight {
			return false
		}

		h, ok := w.orch.SpawnGeneration(key, c.ID)
		if !ok {
			// Очередь пула полна: ключ остаётся на своём месте до следующего кадра
			blocked = true
			return true
		}
		c.genInFlight = true
		w.genTasks = append(w.genTasks, pendingGeneration{key: key, id: c.ID, handle: h})
		dispatched++
		return false
	})
}

// queueDirty переводит помеченные ключи в очередь мешинга
func (w *World) queueDirty() {
	for _, key := range w.dirty.Keys() {
		if c, ok := w.life.Get(key); ok && c.Editable() {
			w.meshQueue.Push(key)
		}
	}
}

func (w *World) pollMeshing() {
	kept := w.meshTasks[:0]
	for _, p := range w.meshTasks {
		res, ok := p.handle.Poll()
		if !ok {
			kept = append(kept, p)
			continue
		}

		w.diag.ObserveMeshingTask(res.Duration)
		ready, applied := w.life.ApplyMesh(res)
		if !applied {
			w.diag.IncStale()
			continue
		}
		if ready {
			w.diag.IncReady()
		}
	}
	clearTail(w.meshTasks, len(kept))
	w.meshTasks = kept
}

// dispatchMeshing запускает мешинг в порядке очереди. Чанк с мешем в работе
// пропускается и остаётся в очереди до применения результата.
func (w *World) dispatchMeshing() {
	budget := w.opts.MeshingBudget
	dispatched := 0
	blocked := false

	w.meshQueue.Retain(func(key voxel.ChunkKey) bool {
		if blocked || dispatched >= budget {
			return true
		}
		c, ok := w.life.Get(key)
		if !ok || !c.Editable() {
			return false
		}
		if c.meshInFlight {
			return true
		}

		h, ok := w.orch.SpawnMeshing(key, c.ID, w.snapshot(key))
		if !ok {
			blocked = true
			return true
		}
		c.meshInFlight = true
		w.meshTasks = append(w.meshTasks, pendingMesh{key: key, id: c.ID, handle: h})
		dispatched++
		return false
	})
}

// snapshot копирует чанк и грани соседей в новый буфер с ореолом.
// Копия делается в главном цикле, поэтому задача не видит последующих правок.
func (w *World) snapshot(key voxel.ChunkKey) *mesh.Padded {
	center, ok := w.chunks.Get(key)
	if !ok {
		panic(fmt.Sprintf("world: meshing chunk %s without a ChunkMap entry", key))
	}

	p := mesh.NewPadded(w.edge)
	p.CopyFrom(center, func(d vec.Vec3) *voxel.Buffer {
		nk := key.Offset(d, w.edge)
		if c, ok := w.life.Get(nk); !ok || !c.Editable() {
			return nil
		}
		buf, _ := w.chunks.Get(nk)
		return buf
	})
	return p
}

// markNeighborsDirty помечает загруженных соседей по граням, для которых filter вернул true
func (w *World) markNeighborsDirty(key voxel.ChunkKey, filter func(d vec.Vec3) bool) {
	for _, d := range voxel.FaceNeighbors {
		if !filter(d) {
			continue
		}
		nk := key.Offset(d, w.edge)
		if c, ok := w.life.Get(nk); ok && c.Editable() {
			w.dirty.Mark(nk)
		}
	}
}

// SetVoxel записывает воксель по мировой позиции. При update чанк (и соседи,
// если воксель лежит на границе) помечаются для перестройки меша.
// false - чанк не загружен или ещё генерируется.
func (w *World) SetVoxel(pos vec.Vec3, v voxel.Voxel, update bool) bool {
	key, local := w.chunks.Locate(pos)
	c, ok := w.life.Get(key)
	if !ok || !c.Editable() {
		return false
	}
	buf, ok := w.chunks.Get(key)
	if !ok {
		panic(fmt.Sprintf("world: editable chunk %s without a ChunkMap entry", key))
	}

	buf.SetVoxel(local.X, local.Y, local.Z, v)
	c.Edited = true

	if update {
		w.dirty.Mark(key)
		last := w.edge - 1
		w.markNeighborsDirty(key, func(d vec.Vec3) bool {
			return (d.X == -1 && local.X == 0) || (d.X == 1 && local.X == last) ||
				(d.Y == -1 && local.Y == 0) || (d.Y == 1 && local.Y == last) ||
				(d.Z == -1 && local.Z == 0) || (d.Z == 1 && local.Z == last)
		})
	}
	return true
}

// VoxelAt читает воксель по мировой позиции. false - чанк не загружен.
func (w *World) VoxelAt(pos vec.Vec3) (voxel.Voxel, bool) {
	key, _ := w.chunks.Locate(pos)
	if c, ok := w.life.Get(key); !ok || !c.Editable() {
		return voxel.Empty, false
	}
	return w.chunks.VoxelAtWorld(pos)
}

// IsSolid сообщает, занят ли воксель. Незагруженные воксели считаются занятыми.
func (w *World) IsSolid(pos vec.Vec3) bool {
	v, ok := w.VoxelAt(pos)
	if !ok {
		return true
	}
	return v.Kind() == voxel.KindSolid
}

// CanMoveTo проверяет, помещается ли коллайдер в позицию pos
func (w *World) CanMoveTo(pos vec.Vec3, collider *physics.BoxCollider) bool {
	return physics.CanMoveToPosition(pos, collider, w.IsSolid)
}

// GroundHeight высота поверхности в колонке (x, z) среди загруженных чанков
func (w *World) GroundHeight(x, z int) (int, bool) {
	maxY := w.edge - 1
	if w.vis.Vertical() {
		_, rv := w.vis.Radius()
		maxY = (w.vis.Center().Y/w.edge+rv)*w.edge - 1
	}
	return physics.GroundHeight(x, z, 0, maxY, func(p vec.Vec3) bool {
		v, ok := w.VoxelAt(p)
		return ok && v.Kind() == voxel.KindSolid
	})
}

// Meshes возвращает прикреплённые меши чанка
func (w *World) Meshes(key voxel.ChunkKey) (opaque, translucent *mesh.Mesh, ok bool) {
	c, exists := w.life.Get(key)
	if !exists || c.Phase < PhaseIdle {
		return nil, nil, false
	}
	return c.Opaque, c.Translucent, true
}

// Chunk возвращает копию сущности чанка
func (w *World) Chunk(key voxel.ChunkKey) (Chunk, bool) {
	c, ok := w.life.Get(key)
	if !ok {
		return Chunk{}, false
	}
	return *c, true
}

// ResidentKeys ключи записей ChunkMap по порядку
func (w *World) ResidentKeys() []voxel.ChunkKey {
	return w.chunks.Keys()
}

// DrainEvents возвращает накопленные события и очищает очередь
func (w *World) DrainEvents() []Event {
	events := w.events
	w.events = nil
	return events
}

// Idle нет ни ожидающих запросов, ни задач в работе
func (w *World) Idle() bool {
	return w.genQueue.Len() == 0 && w.meshQueue.Len() == 0 &&
		len(w.genTasks) == 0 && len(w.meshTasks) == 0
}

// Stats снимок состояния конвейера
func (w *World) Stats() Stats {
	ready := 0
	for _, key := range w.life.Keys() {
		if c, _ := w.life.Get(key); c.Phase == PhaseIdle {
			ready++
		}
	}
	gen, meshPass := w.diag.LastPassDurations()
	return Stats{
		Frame:        w.frame,
		Center:       w.vis.Center(),
		Resident:     w.chunks.Len(),
		Entities:     w.life.Len(),
		Ready:        ready,
		GenQueue:     w.genQueue.Len(),
		MeshQueue:    w.meshQueue.Len(),
		GenInFlight:  len(w.genTasks),
		MeshInFlight: len(w.meshTasks),
		Stale:        w.diag.StaleResults(),
		LastGenPass:  gen,
		LastMeshPass: meshPass,
	}
}

func (w *World) recordDiagnostics() {
	w.diag.SetGauges(observability.PipelineGauges{
		Resident:     w.chunks.Len(),
		Entities:     w.life.Len(),
		GenQueue:     w.genQueue.Len(),
		MeshQueue:    w.meshQueue.Len(),
		GenInFlight:  len(w.genTasks),
		MeshInFlight: len(w.meshTasks),
	})

	if w.limiter == nil || !w.limiter.Allow() {
		return
	}
	s := w.Stats()
	w.log.Info("📊 Кадр %d: центр %s, чанков %d (готово %d), очереди %d/%d, в работе %d/%d, генерация %v, мешинг %v",
		s.Frame, s.Center, s.Resident, s.Ready, s.GenQueue, s.MeshQueue,
		s.GenInFlight, s.MeshInFlight, s.LastGenPass, s.LastMeshPass)
}

// Close сохраняет изменённые резидентные чанки в хранилище.
// Задачи в работе не ждёт: их результаты больше не нужны.
func (w *World) Close(ctx context.Context) error {
	if w.store == nil {
		return nil
	}

	var errs []error
	saved := 0
	for _, key := range w.life.Keys() {
		c, _ := w.life.Get(key)
		if !c.Edited {
			continue
		}
		buf, ok := w.chunks.Get(key)
		if !ok {
			continue
		}
		if err := w.store.Save(ctx, key, buf); err != nil {
			errs = append(errs, fmt.Errorf("chunk %s: %w", key, err))
			continue
		}
		saved++
	}

	w.log.Info("💾 Сохранено изменённых чанков: %d", saved)
	return errors.Join(errs...)
}

func clearTail[T any](s []T, from int) {
	var zero T
	for i := from; i < len(s); i++ {
		s[i] = zero
	}
}
