package tasks

import (
	"github.com/annel0/voxelworld/internal/mesh"
	"github.com/annel0/voxelworld/internal/terrain"
)

// Arena рабочая память одного воркера. Передаётся задаче в момент выполнения
// и никогда не используется двумя задачами одновременно.
type Arena struct {
	WorkerID int
	Mesh     *mesh.Scratch
	Terrain  *terrain.Scratch
}

// NewArena выделяет арену для чанков с ребром edge
func NewArena(workerID, edge int) *Arena {
	return &Arena{
		WorkerID: workerID,
		Mesh:     mesh.NewScratch(edge),
		Terrain:  terrain.NewScratch(edge),
	}
}
