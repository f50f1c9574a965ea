package service

import (
	"context"
	"fmt"
)

// CallMetadata is the fixed schema attached to a call at creation. Every
// field is required; the facade validates before calling out.
type CallMetadata struct {
	SessionID    string
	ProblemTitle string
	Difficulty   string
}

func (m CallMetadata) validate() error {
	if m.SessionID == "" {
		return fmt.Errorf("call metadata: session id is required")
	}
	if m.ProblemTitle == "" {
		return fmt.Errorf("call metadata: problem title is required")
	}
	if m.Difficulty == "" {
		return fmt.Errorf("call metadata: difficulty is required")
	}
	return nil
}

// ChatUser is the fixed schema sent to the channel provider's user registry.
type ChatUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// CallProvider is the call side of the realtime layer.
type CallProvider interface {
	CreateCall(ctx context.Context, callID, creatorID string, meta CallMetadata) error
	DeleteCall(ctx context.Context, callID string) error
}

// ChannelProvider is the chat side of the realtime layer.
type ChannelProvider interface {
	CreateChannel(ctx context.Context, callID, creatorID, name string, members []string) error
	AddMember(ctx context.Context, callID, userID string) error
	DeleteChannel(ctx context.Context, callID string) error
	UpsertUser(ctx context.Context, user ChatUser) error
	DeleteUser(ctx context.Context, userID string) error
}

// RealtimeService fronts the two external realtime providers behind one
// create/join/teardown contract keyed by the session's call id. It validates
// outbound payloads and performs no retries.
type RealtimeService struct {
	calls    CallProvider
	channels ChannelProvider
}

func NewRealtimeService(calls CallProvider, channels ChannelProvider) *RealtimeService {
	return &RealtimeService{
		calls:    calls,
		channels: channels,
	}
}

func (s *RealtimeService) CreateCall(ctx context.Context, callID, creatorID string, meta CallMetadata) error {
	if callID == "" || creatorID == "" {
		return fmt.Errorf("call id and creator are required")
	}
	if err := meta.validate(); err != nil {
		return err
	}

	return s.calls.CreateCall(ctx, callID, creatorID, meta)
}

func (s *RealtimeService) CreateChannel(ctx context.Context, callID, creatorID string, members []string, displayName string) error {
	if callID == "" || creatorID == "" {
		return fmt.Errorf("call id and creator are required")
	}
	if displayName == "" {
		return fmt.Errorf("channel display name is required")
	}
	if len(members) == 0 {
		return fmt.Errorf("channel needs at least one initial member")
	}
	for _, m := range members {
		if m == "" {
			return fmt.Errorf("channel member id cannot be empty")
		}
	}

	return s.channels.CreateChannel(ctx, callID, creatorID, displayName, members)
}

func (s *RealtimeService) AddChannelMember(ctx context.Context, callID, userID string) error {
	if callID == "" || userID == "" {
		return fmt.Errorf("call id and user id are required")
	}

	return s.channels.AddMember(ctx, callID, userID)
}

func (s *RealtimeService) DeleteCall(ctx context.Context, callID string) error {
	if callID == "" {
		return fmt.Errorf("call id is required")
	}

	return s.calls.DeleteCall(ctx, callID)
}

func (s *RealtimeService) DeleteChannel(ctx context.Context, callID string) error {
	if callID == "" {
		return fmt.Errorf("call id is required")
	}

	return s.channels.DeleteChannel(ctx, callID)
}

func (s *RealtimeService) UpsertChatUser(ctx context.Context, user ChatUser) error {
	if user.ID == "" {
		return fmt.Errorf("chat user id is required")
	}

	return s.channels.UpsertUser(ctx, user)
}

func (s *RealtimeService) RemoveChatUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("chat user id is required")
	}

	return s.channels.DeleteUser(ctx, userID)
}
