// Package engagement holds the pure engagement logic of the dashboard:
// classification of a participant record, the comparison chart series and
// the engagement score formula. Nothing in this package performs I/O.
package engagement

import "github.com/google/uuid"

// Record is one participant's engagement snapshot for a single meeting.
type Record struct {
	ParticipantID         uuid.UUID `json:"participant_id"`
	ParticipantName       string    `json:"participant_name"`
	SpeakingTimeSeconds   int       `json:"speaking_time_seconds"`
	EngagementScore       float64   `json:"engagement_score"`
	ChatMessageCount      int       `json:"chat_message_count"`
	DocumentActivityCount int       `json:"document_activity_count"`
	TaskActivityCount     int       `json:"task_activity_count"`
}

// ScoreInRange reports whether the engagement score lies in [0,100].
func (r Record) ScoreInRange() bool {
	return r.EngagementScore >= 0 && r.EngagementScore <= 100
}

// RawRecord is a record as received from a data source, before defaults are
// applied. Nil means the source did not report the value.
type RawRecord struct {
	ParticipantID         uuid.UUID
	ParticipantName       string
	SpeakingTimeSeconds   int
	EngagementScore       *float64
	ChatMessageCount      *int
	DocumentActivityCount *int
	TaskActivityCount     *int
}

// Defaults are substituted for absent RawRecord fields.
type Defaults struct {
	EngagementScore       float64
	ChatMessageCount      int
	DocumentActivityCount int
	TaskActivityCount     int
}

// DemoDefaults are the fallbacks the demo dashboard shows for unreported values.
var DemoDefaults = Defaults{
	EngagementScore:       45,
	ChatMessageCount:      5,
	DocumentActivityCount: 2,
	TaskActivityCount:     3,
}

// Normalize resolves absent fields against d. Reported zeros are kept.
func (r RawRecord) Normalize(d Defaults) Record {
	return Record{
		ParticipantID:         r.ParticipantID,
		ParticipantName:       r.ParticipantName,
		SpeakingTimeSeconds:   r.SpeakingTimeSeconds,
		EngagementScore:       valueOr(r.EngagementScore, d.EngagementScore),
		ChatMessageCount:      valueOr(r.ChatMessageCount, d.ChatMessageCount),
		DocumentActivityCount: valueOr(r.DocumentActivityCount, d.DocumentActivityCount),
		TaskActivityCount:     valueOr(r.TaskActivityCount, d.TaskActivityCount),
	}
}

// NormalizeAll applies Normalize to every record, preserving order.
func NormalizeAll(raws []RawRecord, d Defaults) []Record {
	out := make([]Record, len(raws))
	for i, raw := range raws {
		out[i] = raw.Normalize(d)
	}
	return out
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
