package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"moduo/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcilerFixture() (*Reconciler, *fakeSessionRepo, *fakeCallProvider, *fakeChannelProvider) {
	repo := newFakeSessionRepo()
	users := newFakeUserRepo(testHost)
	calls := &fakeCallProvider{}
	channels := newFakeChannelProvider()
	realtime := NewRealtimeService(calls, channels)
	rec := NewReconciler(repo, users, realtime, time.Minute, time.Minute)
	return rec, repo, calls, channels
}

func seedSession(t *testing.T, repo *fakeSessionRepo, status model.SessionStatus, state model.ResourceState, age time.Duration) *model.Session {
	t.Helper()
	id := uuid.New().String()
	session := &model.Session{
		ID:            id,
		CallID:        "call_" + id[:8],
		ProblemTitle:  "Two Sum",
		Difficulty:    "easy",
		HostID:        testHost.ID,
		Status:        status,
		ResourceState: state,
		CreatedAt:     time.Now().Add(-age),
	}
	require.NoError(t, repo.Create(context.Background(), session))
	return session
}

func TestReconciler_ReprovisionsStaleSessions(t *testing.T) {
	rec, repo, calls, channels := newReconcilerFixture()
	ctx := context.Background()

	stale := seedSession(t, repo, model.SessionActive, model.ResourcesPending, 5*time.Minute)
	// Fresh pending session is still being provisioned by its own request;
	// the reconciler must leave it alone.
	fresh := seedSession(t, repo, model.SessionActive, model.ResourcesPending, time.Second)

	rec.RunOnce(ctx)

	assert.Equal(t, []string{stale.CallID}, calls.created)
	assert.Equal(t, []string{stale.CallID}, channels.created)

	repaired, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourcesReady, repaired.ResourceState)

	untouched, err := repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourcesPending, untouched.ResourceState)
}

func TestReconciler_ReleasesCompletedSessions(t *testing.T) {
	rec, repo, calls, channels := newReconcilerFixture()
	ctx := context.Background()

	leaked := seedSession(t, repo, model.SessionCompleted, model.ResourcesReady, 5*time.Minute)
	done := seedSession(t, repo, model.SessionCompleted, model.ResourcesReleased, 5*time.Minute)

	rec.RunOnce(ctx)

	assert.Equal(t, []string{leaked.CallID}, calls.deleted)
	assert.Equal(t, []string{leaked.CallID}, channels.deleted)

	repaired, err := repo.GetByID(ctx, leaked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourcesReleased, repaired.ResourceState)

	// Already-released sessions see no further provider traffic.
	assert.NotContains(t, calls.deleted, done.CallID)
}

func TestReconciler_FailuresWaitForNextPass(t *testing.T) {
	rec, repo, calls, _ := newReconcilerFixture()
	ctx := context.Background()

	leaked := seedSession(t, repo, model.SessionCompleted, model.ResourcesReady, 5*time.Minute)

	calls.deleteErr = errors.New("provider down")
	rec.RunOnce(ctx)

	still, err := repo.GetByID(ctx, leaked.ID)
	require.NoError(t, err)
	assert.NotEqual(t, model.ResourcesReleased, still.ResourceState)

	// Provider recovers; the next pass finishes the job.
	calls.deleteErr = nil
	rec.RunOnce(ctx)

	repaired, err := repo.GetByID(ctx, leaked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourcesReleased, repaired.ResourceState)
}
