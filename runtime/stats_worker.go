package runtime

import (
	"context"
	"cow-chat/contract"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*StatsWorker)(nil)

// StatsWorker periodically logs registry occupancy alongside the server's own
// process usage (RSS, CPU, status).
type StatsWorker struct {
	log      *slog.Logger
	registry *Registry
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, registry *Registry, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, registry: registry, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := w.registry.Stats()
			attrs := []any{
				"sessions", stats.Sessions,
				"authenticated", stats.Authenticated,
				"pending_messages", stats.Pending,
			}
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Debug("Failed to collect self stats", "err", err)
			} else {
				attrs = append(attrs, "rss_bytes", rss, "cpu_percent", cpu, "status", status)
			}
			w.log.Info("Server stats", attrs...)
		}
	}
}

// selfStats retrieves memory, CPU and OS status for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
