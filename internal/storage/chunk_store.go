package storage

import (
	"context"

	"github.com/annel0/voxelworld/internal/voxel"
)

// ChunkStore хранит содержимое отредактированных чанков между выгрузкой и повторной загрузкой.
// Реализации должны быть безопасны для вызова из воркеров и главного цикла одновременно.
type ChunkStore interface {
	// Save сохраняет копию буфера чанка.
	// Параметры:
	//   ctx - контекст для отмены операции
	//   key - ключ чанка
	//   buf - содержимое; хранилище не удерживает ссылку после возврата
	// Возвращает:
	//   error - ошибка при сохранении
	Save(ctx context.Context, key voxel.ChunkKey, buf *voxel.Buffer) error

	// Load загружает буфер чанка.
	// Возвращает:
	//   *voxel.Buffer - новый буфер, которым владеет вызывающий
	//   bool - false если чанк никогда не сохранялся
	//   error - ошибка при загрузке или разборе
	Load(ctx context.Context, key voxel.ChunkKey) (*voxel.Buffer, bool, error)

	// Delete удаляет сохранённый чанк, отсутствие ключа не ошибка.
	Delete(ctx context.Context, key voxel.ChunkKey) error

	// Close освобождает ресурсы хранилища.
	Close() error
}
