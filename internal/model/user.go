package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the internal record for a principal synced from the identity
// provider. ExternalID is the provider's stable user id and is also the id
// used with the realtime providers.
type User struct {
	ID              string    `json:"id" bson:"_id,omitempty"`
	ExternalID      string    `json:"externalId" bson:"externalId"`
	Name            string    `json:"name" bson:"name"`
	Email           string    `json:"email" bson:"email"`
	ProfileImageURL string    `json:"profileImageUrl" bson:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

// IdentityClaims are the JWT claims issued by the identity provider.
// Subject carries the external user id.
type IdentityClaims struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl"`
	jwt.RegisteredClaims
}

// IdentityProfile is the user payload carried by identity webhook events.
type IdentityProfile struct {
	ID              string          `json:"id"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	EmailAddresses  []IdentityEmail `json:"email_addresses"`
	ProfileImageURL string          `json:"image_url"`
}

type IdentityEmail struct {
	EmailAddress string `json:"email_address"`
}

// IdentityEvent is one webhook delivery from the identity provider.
type IdentityEvent struct {
	Type string          `json:"type"`
	Data IdentityProfile `json:"data"`
}

const (
	IdentityUserCreated = "user.created"
	IdentityUserDeleted = "user.deleted"
)
