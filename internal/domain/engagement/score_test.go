package engagement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want float64
	}{
		{"no activity", Inputs{}, 0},
		{"all caps reached", Inputs{SpeakingTimeSeconds: 3600, ChatMessageCount: 50, DocumentActivityCount: 9, TaskActivityCount: 9}, 100},
		{"speaking only, five minutes", Inputs{SpeakingTimeSeconds: 300}, 5 * 100.0 / 30},
		{"chat only, three messages", Inputs{ChatMessageCount: 3}, 6 * 100.0 / 30},
		{"doc cap", Inputs{DocumentActivityCount: 3}, 5 * 100.0 / 30},
		{"task cap", Inputs{TaskActivityCount: 2}, 5 * 100.0 / 30},
		{"negative inputs ignored", Inputs{SpeakingTimeSeconds: -120, ChatMessageCount: -1}, 0},
		{"mixed", Inputs{SpeakingTimeSeconds: 30, ChatMessageCount: 2, DocumentActivityCount: 1, TaskActivityCount: 1}, (0.5 + 4 + 2 + 3) * 100.0 / 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.in), 1e-9)
		})
	}
}

func TestScore_AlwaysInRange(t *testing.T) {
	for s := 0; s <= 1200; s += 97 {
		for c := 0; c <= 12; c += 3 {
			got := Score(Inputs{SpeakingTimeSeconds: s, ChatMessageCount: c, DocumentActivityCount: c, TaskActivityCount: c})
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		}
	}
}

func TestNormalize_AppliesDefaultsOnlyWhenAbsent(t *testing.T) {
	zero := 0
	raw := RawRecord{
		ParticipantID:       uuid.New(),
		ParticipantName:     "Jordan Lee",
		SpeakingTimeSeconds: 45,
		TaskActivityCount:   &zero,
	}

	r := raw.Normalize(DemoDefaults)

	assert.Equal(t, 45.0, r.EngagementScore)
	assert.Equal(t, 5, r.ChatMessageCount)
	assert.Equal(t, 2, r.DocumentActivityCount)
	assert.Equal(t, 0, r.TaskActivityCount, "reported zero must survive normalisation")
	assert.Equal(t, raw.ParticipantID, r.ParticipantID)
}

func TestFormatSpeakingTime(t *testing.T) {
	assert.Equal(t, "0m 0s", FormatSpeakingTime(0))
	assert.Equal(t, "0m 45s", FormatSpeakingTime(45))
	assert.Equal(t, "1m 0s", FormatSpeakingTime(60))
	assert.Equal(t, "2m 5s", FormatSpeakingTime(125))
	assert.Equal(t, "-1m 5s", FormatSpeakingTime(-65))
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "65.0%", FormatScore(65))
	assert.Equal(t, "42.3%", FormatScore(42.26))
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0.0, ProgressPercent(-3))
	assert.Equal(t, 55.5, ProgressPercent(55.5))
	assert.Equal(t, 100.0, ProgressPercent(140))
}
