package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/pkg/jobs"
)

const sweepJobType = "period_sweep"

type sweepRunner interface {
	Run(ctx context.Context, kind models.SweepKind) (models.SweepResult, error)
}

// SweepSchedulerConfig controls the periodic sweep loop.
type SweepSchedulerConfig struct {
	Interval   time.Duration
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// SweepScheduler enqueues both sweeps on a ticker. New periods are created
// before statuses are recomputed so fresh periods get a status on the same tick.
type SweepScheduler struct {
	runner   sweepRunner
	queue    *jobs.Queue
	interval time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	last map[models.SweepKind]models.SweepResult
	stop context.CancelFunc
	done chan struct{}
}

// NewSweepScheduler builds the scheduler and its worker queue.
func NewSweepScheduler(runner sweepRunner, cfg SweepSchedulerConfig, logger *zap.Logger) *SweepScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	s := &SweepScheduler{
		runner:   runner,
		interval: cfg.Interval,
		logger:   logger,
		last:     make(map[models.SweepKind]models.SweepResult),
	}
	s.queue = jobs.NewQueue("sweeps", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnFailure: func(job jobs.Job, err error) {
			logger.Error("sweep abandoned", zap.String("job_id", job.ID), zap.String("sweep", job.Key), zap.Error(err))
		},
	})
	return s
}

// Start runs the queue and an immediate sweep, then one every interval.
func (s *SweepScheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.done = make(chan struct{})
	s.queue.Start(ctx)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueAll()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.enqueueAll()
			}
		}
	}()
}

// Stop halts the ticker and waits for running sweeps.
func (s *SweepScheduler) Stop() {
	if s.stop == nil {
		return
	}
	s.stop()
	<-s.done
	s.queue.Stop()
}

// Trigger queues a sweep out of schedule. It fails when the same sweep is
// already queued or running.
func (s *SweepScheduler) Trigger(kind models.SweepKind) error {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    sweepJobType,
		Key:     string(kind),
		Payload: kind,
	})
	if errors.Is(err, jobs.ErrDuplicate) {
		return fmt.Errorf("sweep %s: %w", kind, err)
	}
	return err
}

// LastResults returns the latest outcome of each sweep run by the scheduler.
func (s *SweepScheduler) LastResults() map[models.SweepKind]models.SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[models.SweepKind]models.SweepResult, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}

func (s *SweepScheduler) enqueueAll() {
	for _, kind := range []models.SweepKind{models.SweepNewPeriods, models.SweepPeriodStatuses} {
		if err := s.Trigger(kind); err != nil {
			s.logger.Warn("sweep not scheduled", zap.String("sweep", string(kind)), zap.Error(err))
		}
	}
}

func (s *SweepScheduler) handle(ctx context.Context, job jobs.Job) error {
	kind, ok := job.Payload.(models.SweepKind)
	if !ok {
		return fmt.Errorf("unexpected sweep payload %T", job.Payload)
	}
	result, err := s.runner.Run(ctx, kind)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.last[kind] = result
	s.mu.Unlock()
	return nil
}
