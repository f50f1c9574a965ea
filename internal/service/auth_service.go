package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"moduo/internal/model"
	"moduo/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthService resolves identity-provider tokens into internal users and
// keeps the user collection in sync with provider webhook events.
type AuthService struct {
	users     repository.UserRepo
	realtime  *RealtimeService
	jwtSecret []byte
}

func NewAuthService(users repository.UserRepo, realtime *RealtimeService, jwtSecret string) *AuthService {
	return &AuthService{
		users:     users,
		realtime:  realtime,
		jwtSecret: []byte(jwtSecret),
	}
}

// Authenticate validates a bearer token and resolves the principal to the
// synced user row. A valid token whose user has not been synced yet is
// rejected with ErrUserNotFound.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.IdentityClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByExternalID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// SyncUser upserts a user from a provider webhook event and mirrors the
// identity into the chat provider so channels can reference it.
func (s *AuthService) SyncUser(ctx context.Context, profile model.IdentityProfile) (*model.User, error) {
	if profile.ID == "" {
		return nil, fmt.Errorf("identity profile is missing an id")
	}

	email := ""
	if len(profile.EmailAddresses) > 0 {
		email = profile.EmailAddresses[0].EmailAddress
	}

	user := &model.User{
		ID:              uuid.New().String(),
		ExternalID:      profile.ID,
		Name:            strings.TrimSpace(profile.FirstName + " " + profile.LastName),
		Email:           email,
		ProfileImageURL: profile.ProfileImageURL,
		CreatedAt:       time.Now(),
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	chatUser := ChatUser{
		ID:    user.ExternalID,
		Name:  user.Name,
		Image: user.ProfileImageURL,
	}
	if err := s.realtime.UpsertChatUser(ctx, chatUser); err != nil {
		log.Printf("Sync user %s: chat provider upsert failed: %v", user.ExternalID, err)
		return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	return user, nil
}

// RemoveUser deletes a user after a provider deletion event.
func (s *AuthService) RemoveUser(ctx context.Context, externalID string) error {
	if externalID == "" {
		return fmt.Errorf("identity event is missing a user id")
	}

	if err := s.users.DeleteByExternalID(ctx, externalID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := s.realtime.RemoveChatUser(ctx, externalID); err != nil {
		log.Printf("Remove user %s: chat provider delete failed: %v", externalID, err)
		return fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	return nil
}
