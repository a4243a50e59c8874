package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxelworld/internal/config"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/annel0/voxelworld/internal/tasks"
	"github.com/annel0/voxelworld/internal/terrain"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигу (по умолчанию VOXEL_CONFIG)")
		frames     = flag.Int("frames", 0, "Количество кадров; 0 - до сигнала завершения")
		tick       = flag.Duration("tick", 16*time.Millisecond, "Длительность кадра")
		speed      = flag.Float64("speed", 0.5, "Скорость наблюдателя, вокселей за кадр")
		orbit      = flag.Float64("orbit", 0, "Радиус круговой траектории в вокселях; 0 - движение по прямой")
		editEvery  = flag.Int("edit-every", 240, "Ставить блок под наблюдателем каждые N кадров; 0 - не редактировать")
	)
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("voxelworld"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🧊 Запуск voxelworld (instance=%s)...", observability.InstanceID)

	if err := run(*configPath, *frames, *tick, *speed, *orbit, *editEvery); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}

	logging.Info("👋 voxelworld успешно остановлен")
}

func run(configPath string, frames int, tick time.Duration, speed, orbit float64, editEvery int) error {
	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфига: %w", err)
	}
	if level, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
		logging.SetDefaultLevels(level, logging.DEBUG)
	}
	cfg.World.Seed = cfg.World.GetSeed()

	logging.Info("📡 Конфигурация: seed=%d, ребро=%d, радиус=%d/%d, воркеров=%d",
		cfg.World.Seed, cfg.World.ChunkEdge, cfg.World.HorizontalRadius, cfg.World.VerticalRadius, cfg.Scheduler.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === НАБЛЮДАЕМОСТЬ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)
	if err != nil {
		return fmt.Errorf("ошибка инициализации телеметрии: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки телеметрии: %v", err)
		}
	}()

	diag := observability.NewDiagnostics(prometheus.DefaultRegisterer)
	metricsSrv := observability.StartHTTP(fmt.Sprintf(":%d", cfg.Diagnostics.GetMetricsPort()), nil)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		metricsSrv.Shutdown(shutdownCtx)
	}()

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===
	logging.Debug("Создание генератора рельефа...")
	gen, err := terrain.NewBuilder(cfg.World.Seed, cfg.World.ChunkEdge).
		WithSettings(cfg.TerrainSettings()).
		WithDefaultBiomes().
		Build()
	if err != nil {
		return fmt.Errorf("ошибка создания генератора: %w", err)
	}

	var store storage.ChunkStore
	if cfg.Storage.Enabled {
		badgerStore, err := storage.NewBadgerStore()
		if err != nil {
			return fmt.Errorf("ошибка открытия хранилища правок: %w", err)
		}
		defer badgerStore.Close()
		store = badgerStore
	}

	pool := tasks.NewPool(ctx, cfg.Scheduler.Workers, cfg.Scheduler.QueueSize, cfg.World.ChunkEdge)
	defer func() {
		if err := pool.Close(); err != nil {
			logging.Error("❌ Пул воркеров завершился с ошибкой: %v", err)
		}
	}()

	w, err := world.New(world.OptionsFromConfig(cfg), tasks.NewOrchestrator(ctx, pool, gen, store), store, diag)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(context.Background()); err != nil {
			logging.Error("❌ Ошибка сохранения правок: %v", err)
		}
	}()

	// Горячая перезагрузка радиусов
	var changes <-chan *config.Config
	if path := resolveConfigPath(configPath); path != "" {
		watcher := config.NewWatcher(path, cfg, 2*time.Second)
		go watcher.Run(ctx)
		changes = watcher.Changes()
		logging.Info("🔄 Слежение за конфигом %s", path)
	}

	monitor, err := observability.NewProcessMonitor()
	if err != nil {
		logging.Warn("Статистика процесса недоступна: %v", err)
	}
	processLog := rate.NewLimiter(rate.Every(30*time.Second), 1)

	logging.Info("✅ Мир запущен, кадр %v", tick)

	// === ГЛАВНЫЙ ЦИКЛ ===
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	applyRadius := func(next *config.Config) {
		w.SetRadius(next.World.HorizontalRadius, next.World.VerticalRadius)
	}

	var ready, remeshed, despawned int
	for frame := 0; frames == 0 || frame < frames; frame++ {
		if !waitFrame(ctx, ticker.C, changes, applyRadius) {
			logging.Info("📡 Получен сигнал завершения на кадре %d", frame)
			return nil
		}

		observer := observerAt(frame, speed, orbit, cfg.World.ChunkEdge)
		w.Update(ctx, observer)

		for _, e := range w.DrainEvents() {
			switch e.GetType() {
			case world.EventTypeChunkReady:
				ready++
			case world.EventTypeChunkRemeshed:
				remeshed++
			case world.EventTypeChunkDespawned:
				despawned++
			}
		}

		if editEvery > 0 && frame > 0 && frame%editEvery == 0 {
			placeMarker(w, observer)
		}

		if monitor != nil && processLog.Allow() {
			ps := monitor.Snapshot()
			logging.Info("🖥️ Процесс: uptime %s, CPU %.1f%%, RSS %.1f MB, heap %.1f MB, горутин %d",
				observability.FormatUptime(ps.Uptime), ps.CPUPercent, ps.RSSMB, ps.HeapMB, ps.Goroutines)
		}
	}

	s := w.Stats()
	logging.Info("🏁 Кадров %d: готово %d, перестроено %d, выгружено %d, отброшено %d",
		s.Frame, ready, remeshed, despawned, s.Stale)
	return nil
}

// waitFrame ждёт следующего тика, применяя пришедшие за это время изменения конфига.
// false - контекст отменён.
func waitFrame(ctx context.Context, tick <-chan time.Time, changes <-chan *config.Config, apply func(*config.Config)) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case next := <-changes:
			apply(next)
		case <-tick:
			return true
		}
	}
}

func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	return os.Getenv("VOXEL_CONFIG")
}

// observerAt позиция наблюдателя на кадре frame: прямая вдоль +X или окружность
func observerAt(frame int, speed, orbit float64, edge int) mgl32.Vec3 {
	y := float32(edge / 2)
	dist := float64(frame) * speed
	if orbit <= 0 {
		return mgl32.Vec3{float32(dist), y, float32(edge / 2)}
	}
	angle := dist / orbit
	return mgl32.Vec3{
		float32(orbit * math.Cos(angle)),
		y,
		float32(orbit * math.Sin(angle)),
	}
}

// placeMarker ставит столб из дерева на поверхности под наблюдателем
func placeMarker(w *world.World, observer mgl32.Vec3) {
	p := vec.FromWorld(observer)
	h, ok := w.GroundHeight(p.X, p.Z)
	if !ok {
		return
	}
	for dy := 0; dy < 3; dy++ {
		if !w.SetVoxel(vec.Vec3{X: p.X, Y: h + dy, Z: p.Z}, voxel.Of(voxel.MaterialWood), true) {
			return
		}
	}
	logging.Debug("🪵 Столб поставлен в (%d, %d, %d)", p.X, h, p.Z)
}
