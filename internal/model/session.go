package model

import "time"

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// ResourceState tracks whether the session's external call and chat channel
// are live. Written before and after provider calls so the reconciler can
// detect sessions whose realtime resources do not match their status.
type ResourceState string

const (
	ResourcesPending  ResourceState = "pending"
	ResourcesReady    ResourceState = "ready"
	ResourcesReleased ResourceState = "released"
)

type Session struct {
	ID            string        `json:"id" bson:"_id,omitempty"`
	CallID        string        `json:"callId" bson:"callId"`
	ProblemTitle  string        `json:"problemTitle" bson:"problemTitle"`
	Difficulty    string        `json:"difficulty" bson:"difficulty"`
	HostID        string        `json:"hostId" bson:"hostId"`
	ParticipantID string        `json:"participantId,omitempty" bson:"participantId,omitempty"`
	Status        SessionStatus `json:"status" bson:"status"`
	ResourceState ResourceState `json:"resourceState" bson:"resourceState"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
}

// SessionDetail is a session with host and participant identities projected
// for the read endpoints.
type SessionDetail struct {
	Session
	Host        *User `json:"host,omitempty"`
	Participant *User `json:"participant,omitempty"`
}
