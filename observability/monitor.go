package observability

import (
	"context"
	"log/slog"
	"time"
)

type reporter interface {
	Report() (Health, error)
}

// Monitor logs a health report at a fixed interval until its context ends.
type Monitor struct {
	log      *slog.Logger
	reporter reporter
	interval time.Duration
}

func NewMonitor(log *slog.Logger, reporter *HealthReporter, interval time.Duration) *Monitor {
	return &Monitor{log: log, reporter: reporter, interval: interval}
}

func (m *Monitor) Run(ctx context.Context) error {
	if m.interval <= 0 {
		m.log.Debug("Health monitoring disabled")
		return nil
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			h, err := m.reporter.Report()
			if err != nil {
				m.log.Error("Error while collecting health report", "err", err)
				continue
			}
			m.log.Info("Health",
				"uptime", h.Uptime,
				"cpu_percent", h.CPUPercent,
				"rss_bytes", h.RSSBytes,
				"goroutines", h.Goroutines,
				"alloc_mem_mb", h.AllocMemMb,
				"badger_lsm_bytes", h.LSMBytes,
				"badger_vlog_bytes", h.VlogBytes,
			)
		}
	}
}
