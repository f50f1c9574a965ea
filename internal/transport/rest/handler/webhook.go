package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"moduo/internal/model"
	"moduo/internal/service"
)

// WebhookHandler consumes identity-provider webhook events
type WebhookHandler struct {
	authSvc *service.AuthService
	secret  string
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(authSvc *service.AuthService, secret string) *WebhookHandler {
	return &WebhookHandler{
		authSvc: authSvc,
		secret:  secret,
	}
}

// IdentityEvent handles POST /webhooks/identity
func (h *WebhookHandler) IdentityEvent(w http.ResponseWriter, r *http.Request) {
	provided := r.Header.Get("X-Webhook-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var event model.IdentityEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch event.Type {
	case model.IdentityUserCreated:
		if _, err := h.authSvc.SyncUser(r.Context(), event.Data); err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	case model.IdentityUserDeleted:
		if err := h.authSvc.RemoveUser(r.Context(), event.Data.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "unsupported event type")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
