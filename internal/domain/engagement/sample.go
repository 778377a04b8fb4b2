package engagement

import "github.com/google/uuid"

// SampleRawRecords returns the demo meeting used when the dashboard runs
// without a database.
func SampleRawRecords() []RawRecord {
	return []RawRecord{
		{
			ParticipantID:         uuid.MustParse("00000000-0000-4000-8000-000000000001"),
			ParticipantName:       "Alex Johnson",
			SpeakingTimeSeconds:   30,
			EngagementScore:       ptr(65.0),
			ChatMessageCount:      ptr(8),
			DocumentActivityCount: ptr(4),
			TaskActivityCount:     ptr(5),
		},
		{
			ParticipantID:         uuid.MustParse("00000000-0000-4000-8000-000000000002"),
			ParticipantName:       "Sam Taylor",
			SpeakingTimeSeconds:   15,
			EngagementScore:       ptr(42.0),
			ChatMessageCount:      ptr(5),
			DocumentActivityCount: ptr(2),
			TaskActivityCount:     ptr(3),
		},
		{
			ParticipantID:         uuid.MustParse("00000000-0000-4000-8000-000000000003"),
			ParticipantName:       "Jordan Lee",
			SpeakingTimeSeconds:   45,
			EngagementScore:       ptr(28.0),
			ChatMessageCount:      ptr(2),
			DocumentActivityCount: ptr(1),
			TaskActivityCount:     ptr(0),
		},
	}
}

// SampleRecords returns SampleRawRecords normalised with DemoDefaults.
func SampleRecords() []Record {
	return NormalizeAll(SampleRawRecords(), DemoDefaults)
}

func ptr[T any](v T) *T {
	return &v
}
