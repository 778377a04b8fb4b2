package engagement

// SilentThresholdSeconds is the speaking time below which a participant is
// considered silent.
const SilentThresholdSeconds = 60

// Score tier boundaries.
const (
	MediumScoreThreshold = 30.0
	HighScoreThreshold   = 60.0
)

// ActivityLabel classifies a participant as primarily vocal or non-vocal.
type ActivityLabel string

const (
	LabelSilentContributor ActivityLabel = "SilentContributor"
	LabelActiveSpeaker     ActivityLabel = "ActiveSpeaker"
)

// Display returns the badge text for the label.
func (l ActivityLabel) Display() string {
	if l == LabelSilentContributor {
		return "Silent Contributor"
	}
	return "Active Speaker"
}

// ScoreTier buckets an engagement score for display.
type ScoreTier string

const (
	TierLow    ScoreTier = "Low"
	TierMedium ScoreTier = "Medium"
	TierHigh   ScoreTier = "High"
)

// Color returns the CSS colour class for the tier.
func (t ScoreTier) Color() string {
	switch t {
	case TierLow:
		return "text-red-500"
	case TierMedium:
		return "text-yellow-500"
	default:
		return "text-green-500"
	}
}

// Classification is the display classification of one record.
type Classification struct {
	Label            ActivityLabel `json:"activity_label"`
	Tier             ScoreTier     `json:"score_tier"`
	SilentButEngaged bool          `json:"silent_but_engaged"`
}

// ActivityLabelFor labels r by its speaking time.
func ActivityLabelFor(r Record) ActivityLabel {
	if r.SpeakingTimeSeconds < SilentThresholdSeconds {
		return LabelSilentContributor
	}
	return LabelActiveSpeaker
}

// ScoreTierFor buckets r's engagement score. Scores outside [0,100] are
// bucketed with the same comparisons.
func ScoreTierFor(r Record) ScoreTier {
	switch {
	case r.EngagementScore < MediumScoreThreshold:
		return TierLow
	case r.EngagementScore < HighScoreThreshold:
		return TierMedium
	default:
		return TierHigh
	}
}

// IsSilentButEngaged reports a participant who rarely speaks but contributes
// through chat, documents or tasks.
func IsSilentButEngaged(r Record) bool {
	return r.SpeakingTimeSeconds < SilentThresholdSeconds && r.EngagementScore > MediumScoreThreshold
}

// Classify derives all display signals for r.
func Classify(r Record) Classification {
	return Classification{
		Label:            ActivityLabelFor(r),
		Tier:             ScoreTierFor(r),
		SilentButEngaged: IsSilentButEngaged(r),
	}
}
