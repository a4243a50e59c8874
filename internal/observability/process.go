package observability

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats снимок ресурсов процесса для периодического лога
type ProcessStats struct {
	Uptime     time.Duration
	CPUPercent float64
	RSSMB      float64
	HeapMB     float64
	Goroutines int
	NumGC      uint32
}

// ProcessMonitor снимает статистику текущего процесса
type ProcessMonitor struct {
	startTime time.Time
	proc      *process.Process
}

// NewProcessMonitor создаёт монитор текущего процесса
func NewProcessMonitor() (*ProcessMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть процесс: %w", err)
	}
	return &ProcessMonitor{startTime: time.Now(), proc: proc}, nil
}

// Snapshot собирает ProcessStats. Ошибки gopsutil не фатальны: недоступные поля остаются нулевыми.
func (pm *ProcessMonitor) Snapshot() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:     time.Since(pm.startTime),
		HeapMB:     float64(m.HeapAlloc) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
		NumGC:      m.NumGC,
	}

	if pct, err := pm.proc.CPUPercent(); err == nil {
		stats.CPUPercent = pct
	} else if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		// Если не удалось получить метрику процесса, берём системную
		stats.CPUPercent = pcts[0]
	}

	if mem, err := pm.proc.MemoryInfo(); err == nil && mem != nil {
		stats.RSSMB = float64(mem.RSS) / 1024 / 1024
	}

	return stats
}

// FormatUptime форматирует время работы
func FormatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	}
	return fmt.Sprintf("%dс", seconds)
}
