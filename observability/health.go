package observability

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/shirou/gopsutil/process"
)

type Health struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	PID           int32   `json:"pid"`
	ProcessStatus string  `json:"process_status"`
	CPUPercent    float64 `json:"cpu_percent"`
	RSSBytes      uint64  `json:"rss_bytes"`
	Goroutines    int     `json:"goroutines"`
	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	LSMBytes      int64   `json:"badger_lsm_bytes"`
	VlogBytes     int64   `json:"badger_vlog_bytes"`
}

// HealthReporter collects process and storage statistics on demand.
type HealthReporter struct {
	db      *badger.DB
	proc    *process.Process
	started time.Time
}

func NewHealthReporter(db *badger.DB) (*HealthReporter, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("process lookup failed: %w", err)
	}
	return &HealthReporter{db: db, proc: p, started: time.Now()}, nil
}

func (h *HealthReporter) Report() (Health, error) {
	if h.db.IsClosed() {
		return Health{}, fmt.Errorf("database is closed")
	}

	memInfo, err := h.proc.MemoryInfo()
	if err != nil {
		return Health{}, fmt.Errorf("memory info: %w", err)
	}
	cpu, err := h.proc.CPUPercent()
	if err != nil {
		return Health{}, fmt.Errorf("cpu usage: %w", err)
	}
	status, err := h.proc.Status()
	if err != nil {
		return Health{}, fmt.Errorf("process status: %w", err)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	lsm, vlog := h.db.Size()

	return Health{
		Status:        "ok",
		Uptime:        time.Since(h.started).Round(time.Second).String(),
		PID:           h.proc.Pid,
		ProcessStatus: status,
		CPUPercent:    cpu,
		RSSBytes:      memInfo.RSS,
		Goroutines:    runtime.NumGoroutine(),
		AllocMemMb:    m.Alloc / 1024 / 1024,
		NumGC:         m.NumGC,
		LSMBytes:      lsm,
		VlogBytes:     vlog,
	}, nil
}
