// Package engagement runs engagement score recalculation in the background.
package engagement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/pkg/jobcontext"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

const jobType = "engagement.recalculate"

// Calculator recomputes and stores the scores of one meeting
type Calculator interface {
	CalculateEngagement(ctx context.Context, meetingID uuid.UUID) ([]*entities.Participant, error)
}

// Invalidator drops cached views of a meeting after its scores change
type Invalidator interface {
	Invalidate(ctx context.Context, meetingID uuid.UUID) error
}

// Options configures a Recalculator
type Options struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	Timeout    time.Duration
	BaseDelay  time.Duration
}

// Recalculator drains a queue of meeting IDs with a fixed pool of workers.
// A meeting already waiting in the queue is not queued twice.
type Recalculator struct {
	calc        Calculator
	invalidator Invalidator
	policy      jobcontext.Policy
	workers     int
	logger      *zap.Logger

	queue chan uuid.UUID

	mu      sync.Mutex
	pending map[uuid.UUID]struct{}
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewRecalculator creates a stopped recalculator. invalidator may be nil.
func NewRecalculator(calc Calculator, invalidator Invalidator, opts Options, log *zap.Logger) *Recalculator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	policy := jobcontext.DefaultPolicy
	if opts.MaxRetries > 0 {
		policy.MaxRetries = opts.MaxRetries
	}
	if opts.Timeout > 0 {
		policy.Timeout = opts.Timeout
	}
	if opts.BaseDelay > 0 {
		policy.BaseDelay = opts.BaseDelay
	}

	return &Recalculator{
		calc:        calc,
		invalidator: invalidator,
		policy:      policy,
		workers:     opts.Workers,
		logger:      logger.OrNop(log),
		queue:       make(chan uuid.UUID, opts.QueueSize),
		pending:     make(map[uuid.UUID]struct{}),
	}
}

// Enqueue schedules a recalculation. It never blocks and reports false
// when the queue is full.
func (r *Recalculator) Enqueue(meetingID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[meetingID]; ok {
		return true
	}
	select {
	case r.queue <- meetingID:
		r.pending[meetingID] = struct{}{}
		return true
	default:
		return false
	}
}

// Start launches the workers. They run until Stop is called or ctx is done.
func (r *Recalculator) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("recalculator already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})

	r.logger.Info("engagement.recalculator.start", zap.Int("workers", r.workers))
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i, r.stopCh)
	}
	return nil
}

// Stop signals the workers and waits for in-flight jobs to finish
func (r *Recalculator) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("recalculator not running")
	}
	close(r.stopCh)
	r.running = false
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("engagement.recalculator.stopped")
	return nil
}

func (r *Recalculator) worker(ctx context.Context, workerID int, stop <-chan struct{}) {
	defer r.wg.Done()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case meetingID := <-r.queue:
			r.mu.Lock()
			delete(r.pending, meetingID)
			r.mu.Unlock()

			r.process(ctx, workerID, meetingID)
		}
	}
}

func (r *Recalculator) process(ctx context.Context, workerID int, meetingID uuid.UUID) {
	jobCtx, cancel := jobcontext.JobBegin(ctx, uuid.New(), jobType, workerID, r.policy)
	defer cancel()

	err := jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		_, err := r.calc.CalculateEngagement(ctx, meetingID)
		return err
	})
	if err != nil {
		r.logger.Error("engagement.recalculate.failed",
			zap.Int("worker_id", workerID),
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
		return
	}

	if r.invalidator != nil {
		if err := r.invalidator.Invalidate(ctx, meetingID); err != nil {
			r.logger.Warn("engagement.cache.invalidate_failed",
				zap.String("meeting_id", meetingID.String()),
				zap.Error(err),
			)
		}
	}
	r.logger.Debug("engagement.recalculated",
		zap.Int("worker_id", workerID),
		zap.String("meeting_id", meetingID.String()),
	)
}
