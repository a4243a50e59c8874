package observability

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineGauges мгновенное состояние конвейера на конец кадра
type PipelineGauges struct {
	Resident     int
	Entities     int
	GenQueue     int
	MeshQueue    int
	GenInFlight  int
	MeshInFlight int
}

// Diagnostics собирает длительности проходов генерации и мешинга и состояние очередей.
// Значения только наблюдаются и никогда не влияют на управление конвейером.
type Diagnostics struct {
	genPass   prometheus.Histogram
	meshPass  prometheus.Histogram
	genTask   prometheus.Histogram
	meshTask  prometheus.Histogram
	resident  prometheus.Gauge
	entities  prometheus.Gauge
	queued    *prometheus.GaugeVec
	inflight  *prometheus.GaugeVec
	stale     prometheus.Counter
	ready     prometheus.Counter
	fromStore prometheus.Counter

	staleCount atomic.Int64

	mu       sync.RWMutex
	lastGen  time.Duration
	lastMesh time.Duration
	gauges   PipelineGauges
}

// NewDiagnostics создаёт метрики и регистрирует их в reg. reg == nil - без регистрации
// (тесты и несколько миров в одном процессе).
func NewDiagnostics(reg prometheus.Registerer) *Diagnostics {
	d := &Diagnostics{
		genPass: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelworld",
			Name:      "generation_pass_seconds",
			Help:      "Длительность прохода генерации за кадр (опрос и запуск задач).",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
		meshPass: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelworld",
			Name:      "meshing_pass_seconds",
			Help:      "Длительность прохода мешинга за кадр (снимки, опрос и запуск задач).",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
		genTask: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelworld",
			Name:      "generation_task_seconds",
			Help:      "Время генерации одного чанка на воркере.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		meshTask: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelworld",
			Name:      "meshing_task_seconds",
			Help:      "Время мешинга одного чанка на воркере.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelworld",
			Name:      "resident_chunks",
			Help:      "Количество записей в ChunkMap.",
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelworld",
			Name:      "chunk_entities",
			Help:      "Количество живых сущностей чанков.",
		}),
		queued: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxelworld",
			Name:      "queued_requests",
			Help:      "Запросы, ожидающие запуска.",
		}, []string{"stage"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxelworld",
			Name:      "inflight_tasks",
			Help:      "Задачи, запущенные на пуле и ещё не применённые.",
		}, []string{"stage"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld",
			Name:      "stale_results_total",
			Help:      "Результаты задач, отброшенные из-за выгрузки чанка.",
		}),
		ready: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld",
			Name:      "chunks_ready_total",
			Help:      "Чанки, впервые получившие меш.",
		}),
		fromStore: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld",
			Name:      "chunks_restored_total",
			Help:      "Чанки, восстановленные из хранилища правок вместо генерации.",
		}),
	}

	if reg != nil {
		reg.MustRegister(d.genPass, d.meshPass, d.genTask, d.meshTask,
			d.resident, d.entities, d.queued, d.inflight,
			d.stale, d.ready, d.fromStore)
	}
	return d
}

// ObserveGenerationPass записывает длительность прохода генерации
func (d *Diagnostics) ObserveGenerationPass(dur time.Duration) {
	d.genPass.Observe(dur.Seconds())
	d.mu.Lock()
	d.lastGen = dur
	d.mu.Unlock()
}

// ObserveMeshingPass записывает длительность прохода мешинга
func (d *Diagnostics) ObserveMeshingPass(dur time.Duration) {
	d.meshPass.Observe(dur.Seconds())
	d.mu.Lock()
	d.lastMesh = dur
	d.mu.Unlock()
}

func (d *Diagnostics) ObserveGenerationTask(dur time.Duration, fromStore bool) {
	d.genTask.Observe(dur.Seconds())
	if fromStore {
		d.fromStore.Inc()
	}
}

func (d *Diagnostics) ObserveMeshingTask(dur time.Duration) {
	d.meshTask.Observe(dur.Seconds())
}

// IncStale учитывает отброшенный результат
func (d *Diagnostics) IncStale() {
	d.stale.Inc()
	d.staleCount.Add(1)
}

func (d *Diagnostics) IncReady() {
	d.ready.Inc()
}

// SetGauges обновляет состояние очередей и резидентности
func (d *Diagnostics) SetGauges(g PipelineGauges) {
	d.resident.Set(float64(g.Resident))
	d.entities.Set(float64(g.Entities))
	d.queued.WithLabelValues("generation").Set(float64(g.GenQueue))
	d.queued.WithLabelValues("meshing").Set(float64(g.MeshQueue))
	d.inflight.WithLabelValues("generation").Set(float64(g.GenInFlight))
	d.inflight.WithLabelValues("meshing").Set(float64(g.MeshInFlight))

	d.mu.Lock()
	d.gauges = g
	d.mu.Unlock()
}

// LastPassDurations длительности последних проходов генерации и мешинга
func (d *Diagnostics) LastPassDurations() (gen, mesh time.Duration) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastGen, d.lastMesh
}

// Gauges последнее записанное состояние конвейера
func (d *Diagnostics) Gauges() PipelineGauges {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gauges
}

// StaleResults число отброшенных результатов
func (d *Diagnostics) StaleResults() int64 {
	return d.staleCount.Load()
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// gatherer == nil - глобальный регистр. Метод неблокирующий, сервер останавливается через Shutdown.
func StartHTTP(addr string, gatherer prometheus.Gatherer) *http.Server {
	handler := promhttp.Handler()
	if gatherer != nil {
		handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return srv
}
