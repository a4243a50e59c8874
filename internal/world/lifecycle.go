package world

import (
	"fmt"
	"sort"

	"github.com/annel0/voxelworld/internal/tasks"
	"github.com/annel0/voxelworld/internal/voxel"
)

// Lifecycle машина состояний сущностей чанков. Единственный владелец
// сущностей и записей ChunkMap; вызывается только из главного цикла.
type Lifecycle struct {
	chunks   *voxel.ChunkMap
	entities map[voxel.ChunkKey]*Chunk
	nextID   uint64
	emit     func(Event)
}

// NewLifecycle создаёт контроллер над chunks. emit получает события переходов.
func NewLifecycle(chunks *voxel.ChunkMap, emit func(Event)) *Lifecycle {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Lifecycle{
		chunks:   chunks,
		entities: make(map[voxel.ChunkKey]*Chunk),
		nextID:   1,
		emit:     emit,
	}
}

// Spawn создаёт сущность и сразу переводит её в Generate: в ChunkMap
// вставляется пустой буфер. Вторая сущность для того же ключа - логическая ошибка.
func (l *Lifecycle) Spawn(key voxel.ChunkKey) *Chunk {
	if existing, ok := l.entities[key]; ok {
		panic(fmt.Sprintf("world: chunk %s already has entity %d in phase %s", key, existing.ID, existing.Phase))
	}

	c := &Chunk{ID: l.nextID, Key: key, Phase: PhaseLoadRequested}
	l.nextID++
	l.entities[key] = c
	l.emit(ChunkEvent{EventType: EventTypeChunkSpawned, Key: key, EntityID: c.ID})

	// Загрузка с диска не моделируется: сразу генерация
	c.Phase = PhaseGenerate
	l.chunks.InsertEmpty(key)
	return c
}

// Get возвращает сущность по ключу
func (l *Lifecycle) Get(key voxel.ChunkKey) (*Chunk, bool) {
	c, ok := l.entities[key]
	return c, ok
}

// Len количество живых сущностей
func (l *Lifecycle) Len() int {
	return len(l.entities)
}

// Keys ключи живых сущностей в лексикографическом порядке
func (l *Lifecycle) Keys() []voxel.ChunkKey {
	keys := make([]voxel.ChunkKey, 0, len(l.entities))
	for k := range l.entities {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// accepts проверяет, что результат задачи всё ещё относится к живой сущности
func (l *Lifecycle) accepts(key voxel.ChunkKey, entityID uint64) (*Chunk, bool) {
	c, ok := l.entities[key]
	if !ok || c.ID != entityID || c.Phase >= PhaseUnload {
		return nil, false
	}
	return c, true
}

// ApplyGeneration записывает результат генерации. false - результат устарел и отброшен.
func (l *Lifecycle) ApplyGeneration(res tasks.GenerationResult) (*Chunk, bool) {
	c, ok := l.accepts(res.Key, res.EntityID)
	if !ok || c.Phase != PhaseGenerate {
		return nil, false
	}
	if !l.chunks.Exists(res.Key) {
		panic(fmt.Sprintf("world: chunk %s finished generation without a ChunkMap entry", res.Key))
	}

	l.chunks.Insert(res.Key, res.Buffer)
	c.genInFlight = false
	c.Phase = PhaseLoading
	c.Edited = res.FromStore
	l.emit(ChunkEvent{EventType: EventTypeChunkGenerated, Key: res.Key, EntityID: c.ID, FromStore: res.FromStore})
	return c, true
}

// ApplyMesh прикрепляет меш. Первый меш переводит чанк в Idle и порождает
// ChunkReady ровно один раз; последующие - ChunkRemeshed.
func (l *Lifecycle) ApplyMesh(res tasks.MeshResult) (ready bool, applied bool) {
	c, ok := l.accepts(res.Key, res.EntityID)
	if !ok {
		return false, false
	}

	c.meshInFlight = false
	c.Opaque = res.Mesh.Opaque
	c.Translucent = res.Mesh.Translucent

	ev := MeshEvent{Key: res.Key, EntityID: c.ID, Opaque: c.Opaque, Translucent: c.Translucent}
	if c.Phase < PhaseIdle {
		c.Phase = PhaseIdle
		ev.EventType = EventTypeChunkReady
		ready = true
	} else {
		ev.EventType = EventTypeChunkRemeshed
	}
	l.emit(ev)
	return ready, true
}

// Destroy переводит чанк в Unload и в том же проходе удаляет сущность и запись
// ChunkMap. Возвращает сущность и её буфер. Уничтожение несуществующей сущности - логическая ошибка.
func (l *Lifecycle) Destroy(key voxel.ChunkKey) (*Chunk, *voxel.Buffer) {
	c, ok := l.entities[key]
	if !ok {
		panic(fmt.Sprintf("world: destroy requested for chunk %s without entity", key))
	}

	c.Phase = PhaseUnload
	buf, _ := l.chunks.Remove(key)
	delete(l.entities, key)
	c.Phase = PhaseDespawn

	l.emit(ChunkEvent{EventType: EventTypeChunkDespawned, Key: key, EntityID: c.ID})
	return c, buf
}
