// Package report exports engagement reports to object storage.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

const contentType = "application/json"

// Storage is where report documents are written
type Storage interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Meetings looks meetings up
type Meetings interface {
	GetMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error)
}

// Records loads a meeting's normalised engagement records
type Records interface {
	Records(ctx context.Context, meetingID uuid.UUID) ([]engagement.Record, error)
}

// Entry is one participant in a report
type Entry struct {
	engagement.Record
	Classification engagement.Classification `json:"classification"`
}

// Summary aggregates a report
type Summary struct {
	Participants       int     `json:"participants"`
	SilentContributors int     `json:"silent_contributors"`
	SilentButEngaged   int     `json:"silent_but_engaged"`
	AverageScore       float64 `json:"average_score"`
}

// Report is the exported document
type Report struct {
	MeetingID    uuid.UUID                    `json:"meeting_id"`
	MeetingTitle string                       `json:"meeting_title"`
	GeneratedAt  time.Time                    `json:"generated_at"`
	Summary      Summary                      `json:"summary"`
	Participants []Entry                      `json:"participants"`
	Comparison   []engagement.ComparisonPoint `json:"comparison"`
}

// Export is the result of an export
type Export struct {
	ObjectName string    `json:"object_name"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
	Report     *Report   `json:"report"`
}

// Object is a previously exported report
type Object struct {
	ObjectName string `json:"object_name"`
	URL        string `json:"url"`
}

// Service builds and stores reports
type Service struct {
	storage  Storage
	meetings Meetings
	records  Records
	expiry   time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a report service. storage may be nil, which
// disables exports.
func NewService(storage Storage, meetings Meetings, records Records, expiry time.Duration, log *zap.Logger) *Service {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Service{
		storage:  storage,
		meetings: meetings,
		records:  records,
		expiry:   expiry,
		now:      time.Now,
		logger:   logger.OrNop(log),
	}
}

// Build assembles the report of a meeting without storing it
func (s *Service) Build(ctx context.Context, meetingID uuid.UUID) (*Report, error) {
	m, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.Records(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	r := &Report{
		MeetingID:    m.ID,
		MeetingTitle: m.Title,
		GeneratedAt:  s.now().UTC(),
		Participants: make([]Entry, 0, len(records)),
		Comparison:   engagement.CollectComparison(records),
	}

	var total float64
	for _, rec := range records {
		c := engagement.Classify(rec)
		r.Participants = append(r.Participants, Entry{Record: rec, Classification: c})
		total += rec.EngagementScore
		if c.Label == engagement.LabelSilentContributor {
			r.Summary.SilentContributors++
		}
		if c.SilentButEngaged {
			r.Summary.SilentButEngaged++
		}
	}
	r.Summary.Participants = len(records)
	if len(records) > 0 {
		r.Summary.AverageScore = total / float64(len(records))
	}
	return r, nil
}

// Export stores the report at reports/<meeting-id>/<timestamp>.json and
// returns a presigned download URL
func (s *Service) Export(ctx context.Context, meetingID uuid.UUID) (*Export, error) {
	if s.storage == nil {
		return nil, errors.ErrIntegrationDisabled("storage")
	}

	r, err := s.Build(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.ErrInternal(fmt.Errorf("failed to encode report: %w", err))
	}

	objectName := ObjectName(meetingID, r.GeneratedAt)
	if err := s.storage.Put(ctx, objectName, data, contentType); err != nil {
		return nil, errors.ErrStorageFailed("upload report", err)
	}
	url, err := s.storage.PresignedURL(ctx, objectName, s.expiry)
	if err != nil {
		return nil, errors.ErrStorageFailed("presign report", err)
	}

	s.logger.Info("report.export",
		zap.String("meeting_id", meetingID.String()),
		zap.String("object", objectName),
		zap.Int("bytes", len(data)),
	)
	return &Export{
		ObjectName: objectName,
		URL:        url,
		ExpiresAt:  r.GeneratedAt.Add(s.expiry),
		Report:     r,
	}, nil
}

// List returns the stored reports of a meeting, newest first
func (s *Service) List(ctx context.Context, meetingID uuid.UUID) ([]Object, error) {
	if s.storage == nil {
		return nil, errors.ErrIntegrationDisabled("storage")
	}
	if _, err := s.meetings.GetMeeting(ctx, meetingID); err != nil {
		return nil, err
	}

	names, err := s.storage.List(ctx, prefix(meetingID))
	if err != nil {
		return nil, errors.ErrStorageFailed("list reports", err)
	}

	objects := make([]Object, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		url, err := s.storage.PresignedURL(ctx, names[i], s.expiry)
		if err != nil {
			return nil, errors.ErrStorageFailed("presign report", err)
		}
		objects = append(objects, Object{ObjectName: names[i], URL: url})
	}
	return objects, nil
}

// ObjectName returns the storage key of a report generated at t
func ObjectName(meetingID uuid.UUID, t time.Time) string {
	return prefix(meetingID) + t.UTC().Format("20060102T150405Z") + ".json"
}

func prefix(meetingID uuid.UUID) string {
	return "reports/" + strings.ToLower(meetingID.String()) + "/"
}
