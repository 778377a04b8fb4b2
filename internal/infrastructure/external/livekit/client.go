package livekit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/livekit/protocol/auth"
	livekit "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

// Client wraps the LiveKit operations used for meetings
type Client interface {
	CreateRoom(ctx context.Context, name string, options *CreateRoomOptions) (*RoomInfo, error)
	GenerateToken(identity, roomName, participantName string, validFor time.Duration) (string, error)
	ListParticipants(ctx context.Context, roomName string) ([]*ParticipantInfo, error)
	URL() string
}

// CreateRoomOptions holds options for creating a room
type CreateRoomOptions struct {
	MaxParticipants  uint32
	EmptyTimeout     uint32 // seconds
	DepartureTimeout uint32 // seconds
	Metadata         string
}

// RoomInfo holds room information
type RoomInfo struct {
	Name         string
	SID          string
	CreationTime time.Time
}

// ParticipantInfo holds participant information
type ParticipantInfo struct {
	SID      string
	Identity string
	Name     string
	JoinedAt time.Time
}

var defaultRoomOptions = CreateRoomOptions{
	MaxParticipants:  50,
	EmptyTimeout:     300,
	DepartureTimeout: 30,
}

// NewClient creates a LiveKit client, or an in-memory one when useMock is set
func NewClient(url, apiKey, apiSecret string, useMock bool) Client {
	if useMock {
		return NewMockClient(url, apiKey, apiSecret)
	}
	return &realClient{
		roomClient: lksdk.NewRoomServiceClient(url, apiKey, apiSecret),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		url:        url,
	}
}

type realClient struct {
	roomClient *lksdk.RoomServiceClient
	apiKey     string
	apiSecret  string
	url        string
}

func (c *realClient) URL() string { return c.url }

// CreateRoom creates a room in LiveKit
func (c *realClient) CreateRoom(ctx context.Context, name string, options *CreateRoomOptions) (*RoomInfo, error) {
	if options == nil {
		options = &defaultRoomOptions
	}

	room, err := c.roomClient.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:             name,
		MaxParticipants:  options.MaxParticipants,
		EmptyTimeout:     options.EmptyTimeout,
		DepartureTimeout: options.DepartureTimeout,
		Metadata:         options.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return &RoomInfo{
		Name:         room.Name,
		SID:          room.Sid,
		CreationTime: time.Unix(room.CreationTime, 0),
	}, nil
}

// GenerateToken generates an access token for joining a room
func (c *realClient) GenerateToken(identity, roomName, participantName string, validFor time.Duration) (string, error) {
	return signToken(c.apiKey, c.apiSecret, identity, roomName, participantName, validFor)
}

// ListParticipants lists all participants currently in a room
func (c *realClient) ListParticipants(ctx context.Context, roomName string) ([]*ParticipantInfo, error) {
	resp, err := c.roomClient.ListParticipants(ctx, &livekit.ListParticipantsRequest{
		Room: roomName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	participants := make([]*ParticipantInfo, 0, len(resp.Participants))
	for _, p := range resp.Participants {
		participants = append(participants, &ParticipantInfo{
			SID:      p.Sid,
			Identity: p.Identity,
			Name:     p.Name,
			JoinedAt: time.Unix(p.JoinedAt, 0),
		})
	}
	return participants, nil
}

func signToken(apiKey, apiSecret, identity, roomName, participantName string, validFor time.Duration) (string, error) {
	if validFor <= 0 {
		validFor = 6 * time.Hour
	}
	canPublish, canSubscribe, canPublishData := true, true, true

	at := auth.NewAccessToken(apiKey, apiSecret)
	at.AddGrant(&auth.VideoGrant{
		RoomJoin:       true,
		Room:           roomName,
		CanPublish:     &canPublish,
		CanSubscribe:   &canSubscribe,
		CanPublishData: &canPublishData,
	}).
		SetIdentity(identity).
		SetName(participantName).
		SetValidFor(validFor)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// MockClient keeps rooms in memory. Anyone a token was issued to is
// treated as present in the room.
type MockClient struct {
	url       string
	apiKey    string
	apiSecret string

	mu    sync.Mutex
	rooms map[string]map[string]*ParticipantInfo
}

// NewMockClient creates an in-memory LiveKit client
func NewMockClient(url, apiKey, apiSecret string) *MockClient {
	if apiKey == "" {
		apiKey = "devkey"
	}
	if apiSecret == "" {
		apiSecret = "devsecret-devsecret-devsecret-00"
	}
	return &MockClient{
		url:       url,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		rooms:     make(map[string]map[string]*ParticipantInfo),
	}
}

func (m *MockClient) URL() string { return m.url }

// CreateRoom registers an empty room
func (m *MockClient) CreateRoom(_ context.Context, name string, _ *CreateRoomOptions) (*RoomInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[name]; !ok {
		m.rooms[name] = make(map[string]*ParticipantInfo)
	}
	return &RoomInfo{Name: name, SID: "RM_mock_" + name, CreationTime: time.Now()}, nil
}

// GenerateToken signs a real token and adds the identity to the room
func (m *MockClient) GenerateToken(identity, roomName, participantName string, validFor time.Duration) (string, error) {
	token, err := signToken(m.apiKey, m.apiSecret, identity, roomName, participantName, validFor)
	if err != nil {
		return "", err
	}
	m.Join(roomName, identity, participantName)
	return token, nil
}

// Join places an identity in a room
func (m *MockClient) Join(roomName, identity, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomName]
	if !ok {
		room = make(map[string]*ParticipantInfo)
		m.rooms[roomName] = room
	}
	if _, present := room[identity]; !present {
		room[identity] = &ParticipantInfo{
			SID:      "PA_mock_" + identity,
			Identity: identity,
			Name:     name,
			JoinedAt: time.Now().UTC(),
		}
	}
}

// ListParticipants returns the room's identities sorted by join time
func (m *MockClient) ListParticipants(_ context.Context, roomName string) ([]*ParticipantInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomName]
	if !ok {
		return nil, fmt.Errorf("failed to list participants: room %q not found", roomName)
	}
	out := make([]*ParticipantInfo, 0, len(room))
	for _, p := range room {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].Identity < out[j].Identity
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}
