package documents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/robfig/cron/v3"
)

// ReceiptPruner deletes receipts older than the retention period. A non-positive retention keeps
// receipts forever.
type ReceiptPruner struct {
	repository ReceiptRepository
	retention  time.Duration
	logger     *log.Logger
	now        func() time.Time
}

func NewReceiptPruner(repository ReceiptRepository, retention time.Duration, logger *log.Logger) *ReceiptPruner {
	return &ReceiptPruner{
		repository: repository,
		retention:  retention,
		logger:     logger,
		now:        time.Now,
	}
}

func (p *ReceiptPruner) Prune(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		return 0, nil
	}

	cutoff := p.now().Add(-p.retention)
	deleted, err := p.repository.DeleteReceiptsBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error("Receipt pruning failed", "cutoff", cutoff, "error", err)
		return 0, err
	}

	p.logger.Info("Receipt pruning completed", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// RetentionScheduler runs a ReceiptPruner on a cron schedule ("@hourly", "0 3 * * *").
type RetentionScheduler struct {
	pruner   *ReceiptPruner
	schedule string
	cron     *cron.Cron
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	stopped chan struct{}
}

func NewRetentionScheduler(pruner *ReceiptPruner, schedule string, logger *log.Logger) *RetentionScheduler {
	return &RetentionScheduler{
		pruner:   pruner,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start is a no-op when either the schedule or the retention period is unset. The scheduler stops
// when ctx is done or Stop is called, and may be started again afterwards.
func (s *RetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" || s.pruner.retention <= 0 {
		s.logger.Info("Receipt retention disabled")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid receipt prune schedule %q: %w", s.schedule, err)
	}

	// A stopped cron keeps its entries, so every start gets a fresh one.
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.pruner.Prune(ctx); err != nil {
			s.logger.Error("Scheduled receipt pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule receipt pruning: %w", err)
	}

	s.cron.Start()
	s.running = true
	stopped := make(chan struct{})
	s.stopped = stopped
	s.logger.Info("Receipt retention scheduler started", "schedule", s.schedule, "retention", s.pruner.retention.String())

	go func() {
		select {
		case <-ctx.Done():
			s.stopRun(stopped)
		case <-stopped:
		}
	}()

	return nil
}

// Stop waits for a running prune to finish.
func (s *RetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// stopRun stops only the run that owns stopped, so a stale watcher cannot stop a later Start.
func (s *RetentionScheduler) stopRun(stopped chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped == stopped {
		s.stopLocked()
	}
}

func (s *RetentionScheduler) stopLocked() {
	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	close(s.stopped)
	s.running = false
	s.logger.Info("Receipt retention scheduler stopped")
}

func (s *RetentionScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns nil when nothing is scheduled.
func (s *RetentionScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
