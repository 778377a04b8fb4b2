package engagement

import "math"

// Per-channel caps of the engagement score. The caps sum to maxRawScore.
const (
	voiceCap    = 10.0
	chatCap     = 10.0
	documentCap = 5.0
	taskCap     = 5.0
	maxRawScore = voiceCap + chatCap + documentCap + taskCap
)

// Inputs are the activity totals the engagement score is computed from.
type Inputs struct {
	SpeakingTimeSeconds   int
	ChatMessageCount      int
	DocumentActivityCount int
	TaskActivityCount     int
}

// Score computes a participant's engagement score in [0,100]:
// one point per spoken minute (max 10), two per chat message (max 10), two
// per document activity (max 5) and three per task activity (max 5),
// normalised from 30 to 100.
func Score(in Inputs) float64 {
	voice := math.Min(float64(nonNegative(in.SpeakingTimeSeconds))/60, voiceCap)
	chat := math.Min(float64(nonNegative(in.ChatMessageCount))*2, chatCap)
	doc := math.Min(float64(nonNegative(in.DocumentActivityCount))*2, documentCap)
	task := math.Min(float64(nonNegative(in.TaskActivityCount))*3, taskCap)

	return (voice + chat + doc + task) * (100 / maxRawScore)
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
