package service

import (
	"context"
	"log"
	"time"

	"moduo/internal/model"
	"moduo/internal/repository"
)

// Reconciler repairs sessions whose realtime resources diverged from their
// status: active sessions stuck in pending get re-provisioned, completed
// sessions with unreleased resources get torn down again. Lifecycle
// operations never retry; this pass is the only repair mechanism.
type Reconciler struct {
	sessions repository.SessionRepo
	users    repository.UserRepo
	realtime *RealtimeService
	interval time.Duration
	staleAge time.Duration
}

func NewReconciler(
	sessions repository.SessionRepo,
	users repository.UserRepo,
	realtime *RealtimeService,
	interval, staleAge time.Duration,
) *Reconciler {
	return &Reconciler{
		sessions: sessions,
		users:    users,
		realtime: realtime,
		interval: interval,
		staleAge: staleAge,
	}
}

// Run executes reconciliation passes until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconciliation pass. Failures are logged and
// left for the next pass.
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.provisionStale(ctx)
	r.releaseCompleted(ctx)
}

func (r *Reconciler) provisionStale(ctx context.Context) {
	cutoff := time.Now().Add(-r.staleAge)
	stale, err := r.sessions.FindStaleProvisioning(ctx, cutoff)
	if err != nil {
		log.Printf("Reconciler: failed to find stale sessions: %v", err)
		return
	}

	for _, session := range stale {
		host, err := r.users.GetByID(ctx, session.HostID)
		if err != nil || host == nil {
			log.Printf("Reconciler: session %s host %s unavailable, skipping", session.ID, session.HostID)
			continue
		}

		meta := CallMetadata{
			SessionID:    session.ID,
			ProblemTitle: session.ProblemTitle,
			Difficulty:   session.Difficulty,
		}
		if err := r.realtime.CreateCall(ctx, session.CallID, host.ExternalID, meta); err != nil {
			log.Printf("Reconciler: session %s call re-provision failed: %v", session.ID, err)
			continue
		}

		channelName := session.ProblemTitle + " session"
		if err := r.realtime.CreateChannel(ctx, session.CallID, host.ExternalID, []string{host.ExternalID}, channelName); err != nil {
			log.Printf("Reconciler: session %s channel re-provision failed: %v", session.ID, err)
			continue
		}

		if err := r.sessions.SetResourceState(ctx, session.ID, model.ResourcesReady); err != nil {
			log.Printf("Reconciler: session %s failed to mark ready: %v", session.ID, err)
			continue
		}
		log.Printf("Reconciler: re-provisioned session %s", session.ID)
	}
}

func (r *Reconciler) releaseCompleted(ctx context.Context) {
	unreleased, err := r.sessions.FindUnreleased(ctx)
	if err != nil {
		log.Printf("Reconciler: failed to find unreleased sessions: %v", err)
		return
	}

	for _, session := range unreleased {
		if err := r.realtime.DeleteCall(ctx, session.CallID); err != nil {
			log.Printf("Reconciler: session %s call teardown failed: %v", session.ID, err)
			continue
		}
		if err := r.realtime.DeleteChannel(ctx, session.CallID); err != nil {
			log.Printf("Reconciler: session %s channel teardown failed: %v", session.ID, err)
			continue
		}

		if err := r.sessions.SetResourceState(ctx, session.ID, model.ResourcesReleased); err != nil {
			log.Printf("Reconciler: session %s failed to mark released: %v", session.ID, err)
			continue
		}
		log.Printf("Reconciler: released resources for session %s", session.ID)
	}
}
