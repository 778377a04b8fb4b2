package dashboard

import (
	"context"
	stdErrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

// Service loads dashboard data for meetings
type Service struct {
	source  Source
	cache   *RecordCache
	timeout time.Duration
	logger  *zap.Logger

	// generations counts invalidations per meeting. A fetch only caches
	// what it read if no invalidation happened in between.
	mu          sync.Mutex
	generations map[uuid.UUID]uint64
}

// NewService creates a dashboard service. cache may be nil.
func NewService(source Source, cache *RecordCache, timeout time.Duration, log *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		source:      source,
		cache:       cache,
		timeout:     timeout,
		logger:      logger.OrNop(log),
		generations: make(map[uuid.UUID]uint64),
	}
}

// NewLoader returns an idle loader for a meeting's records
func (s *Service) NewLoader(meetingID uuid.UUID) *Loader {
	return NewLoader(func(ctx context.Context) ([]engagement.Record, error) {
		return s.fetch(ctx, meetingID)
	})
}

// Load starts a loader and waits for it up to the load timeout. A load
// still running at the deadline is cancelled and reported as failed.
func (s *Service) Load(ctx context.Context, meetingID uuid.UUID) State {
	loader := s.NewLoader(meetingID)
	loader.Start(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	state := loader.Wait(waitCtx)
	if !state.Resolved() {
		loader.Cancel()
		state = loader.State()
	}
	if state.Status == StatusFailed {
		s.logger.Warn("dashboard.load.failed",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(state.Err),
		)
	}
	return state
}

// View loads a meeting and builds its view model
func (s *Service) View(ctx context.Context, meetingID uuid.UUID) ViewModel {
	return BuildView(meetingID, s.Load(ctx, meetingID))
}

// Dashboard is View for API callers: a failed load becomes an error
func (s *Service) Dashboard(ctx context.Context, meetingID uuid.UUID) (*ViewModel, error) {
	state := s.Load(ctx, meetingID)
	if state.Status == StatusFailed {
		return nil, loadError(state.Err)
	}
	vm := BuildView(meetingID, state)
	return &vm, nil
}

// Records returns a meeting's normalised records
func (s *Service) Records(ctx context.Context, meetingID uuid.UUID) ([]engagement.Record, error) {
	state := s.Load(ctx, meetingID)
	if state.Status == StatusFailed {
		return nil, loadError(state.Err)
	}
	return state.Records, nil
}

// Invalidate drops cached records after a meeting's scores change
func (s *Service) Invalidate(ctx context.Context, meetingID uuid.UUID) error {
	s.mu.Lock()
	s.generations[meetingID]++
	s.mu.Unlock()

	if err := s.cache.Invalidate(ctx, meetingID); err != nil {
		return errors.ErrCacheFailed("invalidate dashboard", err)
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, meetingID uuid.UUID) ([]engagement.Record, error) {
	records, ok, err := s.cache.Get(ctx, meetingID)
	if err != nil {
		s.logger.Warn("dashboard.cache.get_failed", zap.Error(err))
	}
	if ok {
		return records, nil
	}

	generation := s.generation(meetingID)
	raws, err := s.source.Records(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	records = s.normalize(meetingID, raws)
	s.store(ctx, meetingID, generation, records)
	return records, nil
}

func (s *Service) generation(meetingID uuid.UUID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[meetingID]
}

// store caches records read at generation. Records read before a later
// invalidation are still returned to their caller but never cached.
func (s *Service) store(ctx context.Context, meetingID uuid.UUID, generation uint64, records []engagement.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[meetingID] != generation {
		s.logger.Debug("dashboard.cache.stale_skipped", zap.String("meeting_id", meetingID.String()))
		return
	}
	if err := s.cache.Set(ctx, meetingID, records); err != nil {
		s.logger.Warn("dashboard.cache.set_failed", zap.Error(err))
	}
}

// normalize applies the source defaults and reports out-of-range scores.
// Such records are kept and classified like any other.
func (s *Service) normalize(meetingID uuid.UUID, raws []engagement.RawRecord) []engagement.Record {
	records := engagement.NormalizeAll(raws, s.source.Defaults())
	for _, r := range records {
		if r.ScoreInRange() {
			continue
		}
		s.logger.Warn("dashboard.score.out_of_range",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(errors.ErrInputOutOfRange(r.ParticipantID.String(), r.EngagementScore)),
		)
	}
	return records
}

func loadError(err error) error {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}
	return errors.ErrDataFetchFailed(err)
}
