package world

import (
	"github.com/annel0/voxelworld/internal/mesh"
	"github.com/annel0/voxelworld/internal/voxel"
)

// EventType определяет тип события
type EventType uint8

const (
	EventTypeChunkSpawned   EventType = iota // Сущность чанка создана
	EventTypeChunkGenerated                  // Содержимое чанка записано в ChunkMap
	EventTypeChunkReady                      // Первый меш чанка готов
	EventTypeChunkRemeshed                   // Меш чанка перестроен
	EventTypeChunkDespawned                  // Чанк выгружен
)

func (t EventType) String() string {
	switch t {
	case EventTypeChunkSpawned:
		return "ChunkSpawned"
	case EventTypeChunkGenerated:
		return "ChunkGenerated"
	case EventTypeChunkReady:
		return "ChunkReady"
	case EventTypeChunkRemeshed:
		return "ChunkRemeshed"
	case EventTypeChunkDespawned:
		return "ChunkDespawned"
	default:
		return "Unknown"
	}
}

// Event представляет собой интерфейс для всех событий
type Event interface {
	GetType() EventType
}

// ChunkEvent событие жизненного цикла чанка
type ChunkEvent struct {
	EventType EventType
	Key       voxel.ChunkKey
	EntityID  uint64
	FromStore bool // Для ChunkGenerated: содержимое восстановлено из хранилища правок
}

// GetType возвращает тип события
func (e ChunkEvent) GetType() EventType {
	return e.EventType
}

// MeshEvent событие прикрепления меша (ChunkReady, ChunkRemeshed)
type MeshEvent struct {
	EventType   EventType
	Key         voxel.ChunkKey
	EntityID    uint64
	Opaque      *mesh.Mesh
	Translucent *mesh.Mesh
}

// GetType возвращает тип события
func (e MeshEvent) GetType() EventType {
	return e.EventType
}
