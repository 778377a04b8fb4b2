package assemblyai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
)

var (
	// ErrNotReady is returned while a transcript is queued or processing
	ErrNotReady = errors.New("transcript not ready")

	// ErrTranscriptFailed is returned when AssemblyAI could not transcribe
	ErrTranscriptFailed = errors.New("transcript failed")
)

// Utterance is one speaker turn of a transcript
type Utterance struct {
	Speaker    string
	Start      time.Duration
	End        time.Duration
	Text       string
	Confidence float64
}

// Duration returns the length of the turn, never negative
func (u Utterance) Duration() time.Duration {
	if u.End < u.Start {
		return 0
	}
	return u.End - u.Start
}

// Client reads speaker-labelled transcripts
type Client interface {
	Utterances(ctx context.Context, transcriptID string) ([]Utterance, error)
}

// SDKClient reads transcripts through the official AssemblyAI SDK
type SDKClient struct {
	client *aai.Client
}

// NewClient creates an AssemblyAI client
func NewClient(apiKey string, timeout time.Duration) *SDKClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return newSDKClient(
		aai.WithAPIKey(apiKey),
		aai.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
}

func newSDKClient(opts ...aai.ClientOption) *SDKClient {
	return &SDKClient{client: aai.NewClientWithOptions(opts...)}
}

// Utterances fetches a completed transcript's speaker turns
func (c *SDKClient) Utterances(ctx context.Context, transcriptID string) ([]Utterance, error) {
	transcript, err := c.client.Transcripts.Get(ctx, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	switch transcript.Status {
	case aai.TranscriptStatusCompleted:
	case aai.TranscriptStatusError:
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrTranscriptFailed, msg)
	default:
		return nil, fmt.Errorf("%w: status %s", ErrNotReady, transcript.Status)
	}

	utterances := make([]Utterance, 0, len(transcript.Utterances))
	for _, utt := range transcript.Utterances {
		var u Utterance
		if utt.Speaker != nil {
			u.Speaker = *utt.Speaker
		}
		if utt.Start != nil {
			u.Start = time.Duration(*utt.Start) * time.Millisecond
		}
		if utt.End != nil {
			u.End = time.Duration(*utt.End) * time.Millisecond
		}
		if utt.Text != nil {
			u.Text = *utt.Text
		}
		if utt.Confidence != nil {
			u.Confidence = *utt.Confidence
		}
		utterances = append(utterances, u)
	}
	return utterances, nil
}
