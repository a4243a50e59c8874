package tasks

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
)

// Job задача пула; получает арену воркера, на котором выполняется
type Job func(a *Arena)

// Pool фиксированный пул воркеров с ограниченной очередью
type Pool struct {
	jobs   chan Job
	arenas []*Arena
	group  *errgroup.Group
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	submitted atomic.Int64
	completed atomic.Int64

	failMu  sync.Mutex
	failure error

	log *logging.Logger
}

// DefaultWorkers число логических CPU по gopsutil, при ошибке runtime.NumCPU
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// NewPool запускает workers воркеров. workers <= 0 означает DefaultWorkers,
// queueSize <= 0 означает очередь размером 4*workers.
func NewPool(ctx context.Context, workers, queueSize, edge int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}

	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)

	p := &Pool{
		jobs:   make(chan Job, queueSize),
		arenas: make([]*Arena, workers),
		group:  group,
		cancel: cancel,
		log:    logging.GetTasksLogger(),
	}

	for id := 0; id < workers; id++ {
		arena := NewArena(id, edge)
		p.arenas[id] = arena
		group.Go(func() error {
			return p.worker(gctx, arena)
		})
	}

	p.log.Info("⚙️ Пул воркеров запущен: %d воркеров, очередь %d", workers, queueSize)
	return p
}

func (p *Pool) worker(ctx context.Context, arena *Arena) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job, ok := <-p.jobs:
			if !ok {
				return nil
			}
			if err := p.run(job, arena); err != nil {
				p.fail(err)
				p.log.Error("❌ Воркер %d остановлен: %v", arena.WorkerID, err)
				return err
			}
		}
	}
}

// run выполняет задачу; задача с panic тоже считается завершённой
func (p *Pool) run(job Job, arena *Arena) (err error) {
	defer func() {
		p.completed.Add(1)
		if r := recover(); r != nil {
			err = fmt.Errorf("panic в задаче воркера %d: %v", arena.WorkerID, r)
		}
	}()
	job(arena)
	return nil
}

// TrySubmit ставит задачу в очередь без блокировки. false - очередь полна или пул закрыт.
func (p *Pool) TrySubmit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job:
		p.submitted.Add(1)
		return true
	default:
		return false
	}
}

// Workers число воркеров
func (p *Pool) Workers() int {
	return len(p.arenas)
}

// Pending задачи, отправленные, но ещё не завершённые
func (p *Pool) Pending() int {
	return int(p.submitted.Load() - p.completed.Load())
}

func (p *Pool) fail(err error) {
	p.failMu.Lock()
	if p.failure == nil {
		p.failure = err
	}
	p.failMu.Unlock()
}

// Err первая ошибка воркера (panic в задаче), nil если всё в порядке
func (p *Pool) Err() error {
	p.failMu.Lock()
	defer p.failMu.Unlock()
	return p.failure
}

// Close перестаёт принимать задачи, дожидается выполнения очереди и останавливает воркеров
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return p.Err()
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	err := p.group.Wait()
	p.cancel()
	p.log.Info("⚙️ Пул воркеров остановлен")
	return err
}
