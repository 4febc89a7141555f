package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
)

// Repairer scrubs dangling user back-references
type Repairer interface {
	RepairReferences(ctx context.Context) (service.RepairReport, error)
}

// ReferenceRepair periodically removes user references to clubs and events
// that are gone or no longer list the user
type ReferenceRepair struct {
	repairer     Repairer
	interval     time.Duration
	initialDelay time.Duration
	timeout      time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
	running      bool
	mu           sync.Mutex
}

// NewReferenceRepair creates a new reference repair job
func NewReferenceRepair(repairer Repairer, interval time.Duration) *ReferenceRepair {
	if interval == 0 {
		interval = time.Hour
	}
	return &ReferenceRepair{
		repairer:     repairer,
		interval:     interval,
		initialDelay: 5 * time.Second,
		timeout:      5 * time.Minute,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the repair loop. Calling Start on a running job does nothing.
func (j *ReferenceRepair) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	slog.Info("reference repair started", slog.Duration("interval", j.interval))
}

// Stop gracefully stops the job and waits for a sweep in progress
func (j *ReferenceRepair) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	slog.Info("reference repair stopped")
}

func (j *ReferenceRepair) run() {
	defer j.wg.Done()

	// Give the server a moment to finish starting up
	select {
	case <-time.After(j.initialDelay):
		j.sweep()
	case <-j.stopCh:
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopCh:
			return
		}
	}
}

func (j *ReferenceRepair) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.repairer.RepairReferences(ctx)
	if err != nil {
		slog.Error("reference repair failed",
			slog.Int("scanned", report.Scanned),
			slog.Int("repaired", report.Repaired),
			slog.String("error", err.Error()),
		)
		return
	}
	slog.Debug("reference repair finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("repaired", report.Repaired),
	)
}

// RunOnce runs a single sweep (for testing or manual trigger)
func (j *ReferenceRepair) RunOnce(ctx context.Context) (service.RepairReport, error) {
	return j.repairer.RepairReferences(ctx)
}

// IsRunning returns whether the job is running
func (j *ReferenceRepair) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
