package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
)

// Source supplies raw engagement records together with the defaults that
// fill the values it leaves out
type Source interface {
	Records(ctx context.Context, meetingID uuid.UUID) ([]engagement.RawRecord, error)
	Defaults() engagement.Defaults
}

// RecordProvider is the part of the meeting service the dashboard reads from
type RecordProvider interface {
	EngagementRecords(ctx context.Context, meetingID uuid.UUID) ([]engagement.RawRecord, error)
}

// ServiceSource reads persisted participants. Every count is reported by
// the database, so no defaults apply.
type ServiceSource struct {
	provider RecordProvider
}

// NewServiceSource creates a source backed by the meeting service
func NewServiceSource(provider RecordProvider) *ServiceSource {
	return &ServiceSource{provider: provider}
}

func (s *ServiceSource) Records(ctx context.Context, meetingID uuid.UUID) ([]engagement.RawRecord, error) {
	return s.provider.EngagementRecords(ctx, meetingID)
}

func (s *ServiceSource) Defaults() engagement.Defaults {
	return engagement.Defaults{}
}

// DemoSource serves the sample meeting after a fixed delay, whatever
// meeting is asked for
type DemoSource struct {
	delay time.Duration
}

// NewDemoSource creates the demo source
func NewDemoSource(delay time.Duration) *DemoSource {
	return &DemoSource{delay: delay}
}

func (s *DemoSource) Records(ctx context.Context, _ uuid.UUID) ([]engagement.RawRecord, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return engagement.SampleRawRecords(), nil
}

func (s *DemoSource) Defaults() engagement.Defaults {
	return engagement.DemoDefaults
}
