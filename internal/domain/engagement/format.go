package engagement

import "fmt"

// FormatSpeakingTime renders seconds as "Xm Ys".
func FormatSpeakingTime(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%dm %ds", sign, seconds/60, seconds%60)
}

// FormatScore renders a score with one decimal and a percent sign.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.1f%%", score)
}

// ProgressPercent clamps a score to [0,100] for progress bar widths. The
// displayed score itself is never clamped.
func ProgressPercent(score float64) float64 {
	switch {
	case score != score: // NaN
		return 0
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
