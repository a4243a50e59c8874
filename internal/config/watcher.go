package config

import (
	"context"
	"os"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
)

// Watcher следит за файлом конфигурации и публикует перечитанные версии.
// Ребро чанка при перезагрузке не меняется: изменение отклоняется с предупреждением.
type Watcher struct {
	path     string
	interval time.Duration
	current  *Config
	modTime  time.Time
	changes  chan *Config
	log      *logging.Logger
}

// NewWatcher создаёт наблюдателя за path, начиная с уже загруженной конфигурации
func NewWatcher(path string, current *Config, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	w := &Watcher{
		path:     path,
		interval: interval,
		current:  current,
		changes:  make(chan *Config, 1),
		log:      logging.GetComponentLogger("config"),
	}
	if st, err := os.Stat(path); err == nil {
		w.modTime = st.ModTime()
	}
	return w
}

// Changes канал новых конфигураций. Хранится только последняя непрочитанная.
func (w *Watcher) Changes() <-chan *Config {
	return w.changes
}

// Run опрашивает файл до отмены ctx
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Poll выполняет одну проверку файла. Возвращает true, если опубликована новая версия.
func (w *Watcher) Poll() bool {
	st, err := os.Stat(w.path)
	if err != nil {
		w.log.Warn("Конфиг %s недоступен: %v", w.path, err)
		return false
	}
	if !st.ModTime().After(w.modTime) {
		return false
	}
	w.modTime = st.ModTime()

	next, err := Load(w.path)
	if err != nil {
		w.log.Error("❌ Новая версия конфига отклонена: %v", err)
		return false
	}

	if next.World.ChunkEdge != w.current.World.ChunkEdge {
		w.log.Warn("⚠️ world.chunk_edge нельзя менять на лету (%d -> %d), оставляем %d",
			w.current.World.ChunkEdge, next.World.ChunkEdge, w.current.World.ChunkEdge)
		next.World.ChunkEdge = w.current.World.ChunkEdge
	}
	w.current = next

	// Вытесняем непрочитанную версию
	select {
	case <-w.changes:
	default:
	}
	w.changes <- next

	w.log.Info("🔄 Конфиг перечитан: радиус %d/%d", next.World.HorizontalRadius, next.World.VerticalRadius)
	return true
}
