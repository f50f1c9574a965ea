package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"moduo/internal/cache"
	"moduo/internal/config"
	"moduo/internal/model"
	"moduo/internal/repository"

	"github.com/google/uuid"
)

// listLimit bounds every session listing.
const listLimit = 20

// SessionService coordinates the session store and the realtime provisioning
// facade through the session lifecycle: create, join, end.
//
// The store is the source of truth. Provider calls always come after the
// store write they belong to, and a provider failure never rolls the store
// write back; the reconciler repairs the divergence out of band.
type SessionService struct {
	sessions   repository.SessionRepo
	users      repository.UserRepo
	cache      cache.SessionCache
	realtime   *RealtimeService
	joinPolicy string
}

func NewSessionService(
	sessions repository.SessionRepo,
	users repository.UserRepo,
	sessionCache cache.SessionCache,
	realtime *RealtimeService,
	joinPolicy string,
) *SessionService {
	return &SessionService{
		sessions:   sessions,
		users:      users,
		cache:      sessionCache,
		realtime:   realtime,
		joinPolicy: joinPolicy,
	}
}

// CreateSession persists a new active session for the host, then provisions
// its call and chat channel. The returned session has working realtime
// resources only when the error is nil.
func (s *SessionService) CreateSession(ctx context.Context, host *model.User, problemTitle, difficulty string) (*model.Session, error) {
	if problemTitle == "" || difficulty == "" {
		return nil, ErrMissingFields
	}

	session := &model.Session{
		ID:            uuid.New().String(),
		CallID:        newCallID(),
		ProblemTitle:  problemTitle,
		Difficulty:    difficulty,
		HostID:        host.ID,
		Status:        model.SessionActive,
		ResourceState: model.ResourcesPending,
		CreatedAt:     time.Now(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	meta := CallMetadata{
		SessionID:    session.ID,
		ProblemTitle: problemTitle,
		Difficulty:   difficulty,
	}
	if err := s.realtime.CreateCall(ctx, session.CallID, host.ExternalID, meta); err != nil {
		log.Printf("Create session %s: call provisioning failed: %v", session.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	channelName := problemTitle + " session"
	if err := s.realtime.CreateChannel(ctx, session.CallID, host.ExternalID, []string{host.ExternalID}, channelName); err != nil {
		log.Printf("Create session %s: channel provisioning failed: %v", session.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	if err := s.sessions.SetResourceState(ctx, session.ID, model.ResourcesReady); err != nil {
		log.Printf("Create session %s: failed to mark resources ready: %v", session.ID, err)
	} else {
		session.ResourceState = model.ResourcesReady
	}

	return session, nil
}

// JoinSession records the caller as the session's participant and grants
// chat membership. The call itself is joined client-side through the call
// provider, not here.
func (s *SessionService) JoinSession(ctx context.Context, sessionID string, user *model.User) (*model.Session, error) {
	if s.joinPolicy == config.JoinPolicyClosed {
		return nil, ErrJoinClosed
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.HostID == user.ID {
		return nil, ErrHostJoin
	}
	if session.Status != model.SessionActive {
		return nil, ErrSessionCompleted
	}

	// Conditional update: only wins if no participant is set at write time.
	updated, err := s.sessions.SetParticipant(ctx, sessionID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to set participant: %w", err)
	}
	if updated == nil {
		return nil, ErrSessionFull
	}

	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("Join session %s: cache invalidation failed: %v", sessionID, err)
	}

	if err := s.realtime.AddChannelMember(ctx, updated.CallID, user.ExternalID); err != nil {
		log.Printf("Join session %s: chat membership failed: %v", sessionID, err)
		return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	return updated, nil
}

// EndSession completes the session and tears down its realtime resources.
// Only the host may end. The completed status stands even when a provider
// deletion fails; the leaked resource is reported and left to the reconciler.
func (s *SessionService) EndSession(ctx context.Context, sessionID string, caller *model.User) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.HostID != caller.ID {
		return nil, ErrNotHost
	}
	if session.Status == model.SessionCompleted {
		return nil, ErrSessionCompleted
	}

	completed, err := s.sessions.Complete(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	if completed == nil {
		// Lost a race with another end call.
		return nil, ErrSessionCompleted
	}

	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("End session %s: cache invalidation failed: %v", sessionID, err)
	}

	callErr := s.realtime.DeleteCall(ctx, completed.CallID)
	if callErr != nil {
		log.Printf("End session %s: call teardown failed: %v", sessionID, callErr)
	}
	channelErr := s.realtime.DeleteChannel(ctx, completed.CallID)
	if channelErr != nil {
		log.Printf("End session %s: channel teardown failed: %v", sessionID, channelErr)
	}
	if callErr != nil || channelErr != nil {
		return nil, fmt.Errorf("%w: teardown incomplete", ErrProvisioning)
	}

	if err := s.sessions.SetResourceState(ctx, sessionID, model.ResourcesReleased); err != nil {
		log.Printf("End session %s: failed to mark resources released: %v", sessionID, err)
	} else {
		completed.ResourceState = model.ResourcesReleased
	}

	return completed, nil
}

// GetSession fetches one session with host and participant projected.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*model.SessionDetail, error) {
	session, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		log.Printf("Get session %s: cache read failed: %v", sessionID, err)
	}

	if session == nil {
		session, err = s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
		if err := s.cache.Set(ctx, session); err != nil {
			log.Printf("Get session %s: cache write failed: %v", sessionID, err)
		}
	}

	ids := []string{session.HostID}
	if session.ParticipantID != "" {
		ids = append(ids, session.ParticipantID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load session users: %w", err)
	}

	detail := &model.SessionDetail{Session: *session}
	detail.Host = users[session.HostID]
	if session.ParticipantID != "" {
		detail.Participant = users[session.ParticipantID]
	}

	return detail, nil
}

// ListActiveSessions returns active sessions newest first with host
// identities projected.
func (s *SessionService) ListActiveSessions(ctx context.Context) ([]*model.SessionDetail, error) {
	sessions, err := s.sessions.ListActive(ctx, listLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	hostIDs := make([]string, 0, len(sessions))
	for _, session := range sessions {
		hostIDs = append(hostIDs, session.HostID)
	}
	hosts, err := s.users.GetByIDs(ctx, hostIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load session hosts: %w", err)
	}

	details := make([]*model.SessionDetail, 0, len(sessions))
	for _, session := range sessions {
		details = append(details, &model.SessionDetail{
			Session: *session,
			Host:    hosts[session.HostID],
		})
	}

	return details, nil
}

// ListPastSessions returns completed sessions the user hosted or joined,
// newest first.
func (s *SessionService) ListPastSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	sessions, err := s.sessions.ListPastForUser(ctx, userID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list past sessions: %w", err)
	}

	return sessions, nil
}

// newCallID builds a call id from a time component and a random component.
// Collisions are treated as negligible and not checked.
func newCallID() string {
	return "session_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + uuid.New().String()[:8]
}
