package world

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/mesh"
	"github.com/annel0/voxelworld/internal/voxel"
)

// Phase стадия жизненного цикла чанка. Порядок значим: сравнения "<" и ">="
// не дают откатить прогресс.
type Phase uint8

const (
	PhaseLoadRequested Phase = iota // Сущность создана
	PhaseGenerate                   // Пустой буфер в ChunkMap, генерация в очереди или в работе
	PhaseLoading                    // Содержимое применено, первый меш ещё не готов
	PhaseIdle                       // Чанк готов и отрисовывается
	PhaseUnload                     // Помечен на уничтожение
	PhaseDespawn                    // Сущность удалена
)

func (p Phase) String() string {
	switch p {
	case PhaseLoadRequested:
		return "LoadRequested"
	case PhaseGenerate:
		return "Generate"
	case PhaseLoading:
		return "Loading"
	case PhaseIdle:
		return "Idle"
	case PhaseUnload:
		return "Unload"
	case PhaseDespawn:
		return "Despawn"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// Chunk сущность резидентного чанка
type Chunk struct {
	ID          uint64
	Key         voxel.ChunkKey
	Phase       Phase
	Opaque      *mesh.Mesh
	Translucent *mesh.Mesh
	Edited      bool // Содержимое отличается от сгенерированного и сохраняется при выгрузке

	genInFlight  bool
	meshInFlight bool
}

// Editable чанк принимает правки вокселей
func (c *Chunk) Editable() bool {
	return c.Phase >= PhaseLoading && c.Phase < PhaseUnload
}
