package dashboard

import (
	"github.com/google/uuid"

	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
)

// Tab selects the dashboard panel
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabAnalytics Tab = "analytics"
)

// ParseTab falls back to the dashboard tab for unknown values
func ParseTab(s string) Tab {
	if Tab(s) == TabAnalytics {
		return TabAnalytics
	}
	return TabDashboard
}

// Card is one participant tile
type Card struct {
	ParticipantID       uuid.UUID                 `json:"participant_id"`
	Name                string                    `json:"name"`
	SpeakingTimeSeconds int                       `json:"speaking_time_seconds"`
	SpeakingTime        string                    `json:"speaking_time"`
	Score               float64                   `json:"engagement_score"`
	ScoreText           string                    `json:"engagement_score_text"`
	ScoreColor          string                    `json:"score_color"`
	Progress            float64                   `json:"progress"`
	Badge               string                    `json:"badge"`
	ChatMessages        int                       `json:"chat_messages"`
	DocumentActivities  int                       `json:"document_activities"`
	TaskActivities      int                       `json:"task_activities"`
	Classification      engagement.Classification `json:"classification"`
}

// Bar is one series value of a participant's bar group, scaled to the
// largest value in the chart
type Bar struct {
	Series  string  `json:"series"`
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
}

// BarGroup holds the bars of one participant
type BarGroup struct {
	Name string `json:"name"`
	Bars []Bar  `json:"bars"`
}

// Chart is the contribution comparison
type Chart struct {
	Points []engagement.ComparisonPoint `json:"points"`
	Max    int                          `json:"max"`
	Groups []BarGroup                   `json:"groups"`
}

// ViewModel is everything the dashboard page and API render
type ViewModel struct {
	MeetingID             uuid.UUID `json:"meeting_id"`
	MeetingTitle          string    `json:"meeting_title,omitempty"`
	Status                string    `json:"status"`
	Loading               bool      `json:"loading"`
	Error                 string    `json:"error,omitempty"`
	Tab                   Tab       `json:"tab"`
	Cards                 []Card    `json:"cards"`
	Chart                 Chart     `json:"chart"`
	SilentCount           int       `json:"silent_count"`
	SilentButEngagedCount int       `json:"silent_but_engaged_count"`
}

// BuildView derives the view model from a loader state. Idle and Loading
// both render as loading with no cards.
func BuildView(meetingID uuid.UUID, state State) ViewModel {
	vm := ViewModel{
		MeetingID: meetingID,
		Status:    state.Status.String(),
		Tab:       TabDashboard,
		Cards:     []Card{},
		Chart:     Chart{Points: []engagement.ComparisonPoint{}, Groups: []BarGroup{}},
	}

	switch state.Status {
	case StatusIdle, StatusLoading:
		vm.Loading = true
		return vm
	case StatusFailed:
		vm.Error = "Failed to load engagement data"
		return vm
	}

	for _, r := range state.Records {
		c := engagement.Classify(r)
		vm.Cards = append(vm.Cards, Card{
			ParticipantID:       r.ParticipantID,
			Name:                r.ParticipantName,
			SpeakingTimeSeconds: r.SpeakingTimeSeconds,
			SpeakingTime:        engagement.FormatSpeakingTime(r.SpeakingTimeSeconds),
			Score:               r.EngagementScore,
			ScoreText:           engagement.FormatScore(r.EngagementScore),
			ScoreColor:          c.Tier.Color(),
			Progress:            engagement.ProgressPercent(r.EngagementScore),
			Badge:               c.Label.Display(),
			ChatMessages:        r.ChatMessageCount,
			DocumentActivities:  r.DocumentActivityCount,
			TaskActivities:      r.TaskActivityCount,
			Classification:      c,
		})
		if c.Label == engagement.LabelSilentContributor {
			vm.SilentCount++
		}
		if c.SilentButEngaged {
			vm.SilentButEngagedCount++
		}
	}

	vm.Chart = buildChart(state.Records)
	return vm
}

func buildChart(records []engagement.Record) Chart {
	points := engagement.CollectComparison(records)
	top := engagement.MaxValue(points)

	groups := make([]BarGroup, 0, len(points))
	for _, p := range points {
		groups = append(groups, BarGroup{
			Name: p.Name,
			Bars: []Bar{
				bar("Speaking", p.Speaking, top),
				bar("Chat", p.Chat, top),
				bar("Documents", p.Documents, top),
				bar("Tasks", p.Tasks, top),
			},
		})
	}
	return Chart{Points: points, Max: top, Groups: groups}
}

func bar(series string, value, top int) Bar {
	b := Bar{Series: series, Value: value}
	if top > 0 && value > 0 {
		b.Percent = float64(value) * 100 / float64(top)
	}
	return b
}
