package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"moduo/internal/model"
)

// In-memory fakes for the repo, cache, and provider interfaces. The session
// fake mirrors the store's conditional-update semantics under a mutex so
// concurrency tests exercise the same compare-and-set discipline.

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session

	createErr error
	getErr    error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*model.Session{}}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; ok {
		return errors.New("duplicate key")
	}
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) ListActive(ctx context.Context, limit int) ([]*model.Session, error) {
	return r.listByStatus(model.SessionActive, "", limit), nil
}

func (r *fakeSessionRepo) ListPastForUser(ctx context.Context, userID string, limit int) ([]*model.Session, error) {
	return r.listByStatus(model.SessionCompleted, userID, limit), nil
}

func (r *fakeSessionRepo) listByStatus(status model.SessionStatus, userID string, limit int) []*model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Session{}
	for _, session := range r.sessions {
		if session.Status != status {
			continue
		}
		if userID != "" && session.HostID != userID && session.ParticipantID != userID {
			continue
		}
		copied := *session
		out = append(out, &copied)
	}
	// Newest first.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *fakeSessionRepo) SetParticipant(ctx context.Context, id, userID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.Status != model.SessionActive || session.ParticipantID != "" {
		return nil, nil
	}
	session.ParticipantID = userID
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) Complete(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.Status != model.SessionActive {
		return nil, nil
	}
	session.Status = model.SessionCompleted
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) SetResourceState(ctx context.Context, id string, state model.ResourceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return errors.New("session not found")
	}
	session.ResourceState = state
	return nil
}

func (r *fakeSessionRepo) FindStaleProvisioning(ctx context.Context, olderThan time.Time) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Session{}
	for _, session := range r.sessions {
		if session.Status == model.SessionActive &&
			session.ResourceState == model.ResourcesPending &&
			session.CreatedAt.Before(olderThan) {
			copied := *session
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) FindUnreleased(ctx context.Context) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Session{}
	for _, session := range r.sessions {
		if session.Status == model.SessionCompleted && session.ResourceState != model.ResourcesReleased {
			copied := *session
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for _, user := range users {
		r.users[user.ID] = user
	}
	return r
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.ExternalID == user.ExternalID {
			existing.Name = user.Name
			existing.Email = user.Email
			existing.ProfileImageURL = user.ProfileImageURL
			return nil
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ExternalID == externalID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]*model.User{}
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			copied := *user
			out[id] = &copied
		}
	}
	return out, nil
}

func (r *fakeUserRepo) DeleteByExternalID(ctx context.Context, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, user := range r.users {
		if user.ExternalID == externalID {
			delete(r.users, id)
			return nil
		}
	}
	return nil
}

type fakeSessionCache struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	deletes  int
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{sessions: map[string]*model.Session{}}
}

func (c *fakeSessionCache) Set(ctx context.Context, session *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *session
	c.sessions[session.ID] = &copied
	return nil
}

func (c *fakeSessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (c *fakeSessionCache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	c.deletes++
	return nil
}

type fakeCallProvider struct {
	mu      sync.Mutex
	created []string
	deleted []string

	createErr error
	deleteErr error
}

func (p *fakeCallProvider) CreateCall(ctx context.Context, callID, creatorID string, meta CallMetadata) error {
	if p.createErr != nil {
		return p.createErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, callID)
	return nil
}

func (p *fakeCallProvider) DeleteCall(ctx context.Context, callID string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, callID)
	return nil
}

type fakeChannelProvider struct {
	mu           sync.Mutex
	created      []string
	members      map[string][]string
	deleted      []string
	upsertedUser []string
	deletedUser  []string

	createErr    error
	addMemberErr error
	deleteErr    error
	upsertErr    error
}

func newFakeChannelProvider() *fakeChannelProvider {
	return &fakeChannelProvider{members: map[string][]string{}}
}

func (p *fakeChannelProvider) CreateChannel(ctx context.Context, callID, creatorID, name string, members []string) error {
	if p.createErr != nil {
		return p.createErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, callID)
	p.members[callID] = append([]string{}, members...)
	return nil
}

func (p *fakeChannelProvider) AddMember(ctx context.Context, callID, userID string) error {
	if p.addMemberErr != nil {
		return p.addMemberErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[callID] = append(p.members[callID], userID)
	return nil
}

func (p *fakeChannelProvider) DeleteChannel(ctx context.Context, callID string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, callID)
	return nil
}

func (p *fakeChannelProvider) UpsertUser(ctx context.Context, user ChatUser) error {
	if p.upsertErr != nil {
		return p.upsertErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upsertedUser = append(p.upsertedUser, user.ID)
	return nil
}

func (p *fakeChannelProvider) DeleteUser(ctx context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletedUser = append(p.deletedUser, userID)
	return nil
}
