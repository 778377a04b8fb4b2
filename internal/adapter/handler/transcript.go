package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	meetingDTO "github.com/johnquangdev/silent-contributor/internal/adapter/dto/meeting"
	"github.com/johnquangdev/silent-contributor/internal/usecase/transcript"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

// TranscriptService imports speaking time from transcripts
type TranscriptService interface {
	Import(ctx context.Context, meetingID uuid.UUID, input transcript.ImportInput) (*transcript.ImportResult, error)
}

// Transcript handles transcript import requests
type Transcript struct {
	svc    TranscriptService
	logger *zap.Logger
}

// NewTranscriptHandler creates a new transcript handler
func NewTranscriptHandler(svc TranscriptService, log *zap.Logger) *Transcript {
	return &Transcript{svc: svc, logger: logger.OrNop(log)}
}

// ImportTranscript handles POST /meetings/:id/transcripts
// @Summary      Import a transcript
// @Description  Records one voice activity per utterance of each mapped speaker of an AssemblyAI transcript
// @Tags         Transcripts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                              true  "Meeting ID (UUID)"
// @Param        request  body      meetingDTO.TranscriptImportRequest  true  "Transcript and speaker mapping"
// @Success      200      {object}  transcript.ImportResult
// @Failure      400      {object}  map[string]interface{}  "Speaker is not a participant"
// @Failure      502      {object}  map[string]interface{}  "AssemblyAI call failed"
// @Failure      503      {object}  map[string]interface{}  "AssemblyAI is not configured"
// @Router       /meetings/{id}/transcripts [post]
func (h *Transcript) ImportTranscript(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.TranscriptImportRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.svc.Import(c.Request().Context(), meetingID, transcript.ImportInput{
		TranscriptID: req.TranscriptID,
		Speakers:     req.Speakers,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, result)
}
