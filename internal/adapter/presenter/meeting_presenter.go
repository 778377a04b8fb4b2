package presenter

import (
	"encoding/json"

	"github.com/johnquangdev/silent-contributor/internal/adapter/dto/common"
	"github.com/johnquangdev/silent-contributor/internal/adapter/dto/meeting"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	meetingUsecase "github.com/johnquangdev/silent-contributor/internal/usecase/meeting"
)

// ToMeetingResponse converts a Meeting entity to MeetingResponse DTO
func ToMeetingResponse(m *entities.Meeting) *meeting.MeetingResponse {
	if m == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(m.Metadata) > 0 {
		// stored metadata is always written by the service as an object
		_ = json.Unmarshal(m.Metadata, &metadata)
	}

	response := &meeting.MeetingResponse{
		ID:          m.ID.String(),
		Title:       m.Title,
		Description: m.Description,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		LiveKitRoom: m.LiveKitRoom,
		Metadata:    metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.CreatedBy != nil {
		createdBy := m.CreatedBy.String()
		response.CreatedBy = &createdBy
	}
	return response
}

// ToMeetingListResponse converts a page of meetings
func ToMeetingListResponse(meetings []*entities.Meeting, total int64, page, pageSize int) *meeting.MeetingListResponse {
	items := make([]*meeting.MeetingResponse, len(meetings))
	for i, m := range meetings {
		items[i] = ToMeetingResponse(m)
	}
	return &meeting.MeetingListResponse{
		Meetings:   items,
		Pagination: common.NewPagination(page, pageSize, total),
	}
}

// ToParticipantResponse converts a Participant entity to ParticipantResponse DTO
func ToParticipantResponse(p *entities.Participant) *meeting.ParticipantResponse {
	if p == nil {
		return nil
	}
	return &meeting.ParticipantResponse{
		ID:              p.ID.String(),
		MeetingID:       p.MeetingID.String(),
		UserID:          p.UserID.String(),
		User:            ToUserResponse(p.User),
		JoinTime:        p.JoinTime,
		LeaveTime:       p.LeaveTime,
		SpeakingTime:    p.SpeakingTime,
		EngagementScore: p.EngagementScore,
	}
}

// ToParticipantResponses converts a slice of participants
func ToParticipantResponses(participants []*entities.Participant) []*meeting.ParticipantResponse {
	out := make([]*meeting.ParticipantResponse, len(participants))
	for i, p := range participants {
		out[i] = ToParticipantResponse(p)
	}
	return out
}

// ToSilentContributorResponses converts the silent contributors of a meeting
func ToSilentContributorResponses(items []*meetingUsecase.SilentContributor) []*meeting.SilentContributorResponse {
	out := make([]*meeting.SilentContributorResponse, len(items))
	for i, sc := range items {
		participant := ToParticipantResponse(sc.Participant)
		if participant != nil && participant.User == nil {
			participant.User = ToPublicUserResponse(sc.User)
		}
		out[i] = &meeting.SilentContributorResponse{
			Participant:        participant,
			ChatMessages:       sc.ChatMessages,
			DocumentActivities: sc.DocumentActivities,
			TaskActivities:     sc.TaskActivities,
			EngagementScore:    sc.EngagementScore,
			SilentButEngaged:   sc.SilentButEngaged,
		}
	}
	return out
}

// ToSyncParticipantsResponse converts a roster import result
func ToSyncParticipantsResponse(result *meetingUsecase.SyncResult) *meeting.SyncParticipantsResponse {
	skipped := result.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return &meeting.SyncParticipantsResponse{
		Added:   ToParticipantResponses(result.Added),
		Skipped: skipped,
	}
}
