package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Connection request lifecycle states. Only "pending" has outbound
// transitions besides block; accepted_at is set exactly once, at the
// pending -> accepted transition.
const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
	ConnectionStatusRejected = "rejected"
	ConnectionStatusBlocked  = "blocked"
)

const (
	ConnectionTypeStudentTeacher = "student-teacher"
	ConnectionTypePeer           = "peer"
	ConnectionTypeMentorMentee   = "mentor-mentee"
)

// MaxConnectionMessageLen caps the optional free-text message attached to a
// connection request.
const MaxConnectionMessageLen = 200

// ConnectionRequest is a directed relationship proposal between two
// accounts. PairKey is the canonical unordered-pair key; a unique index on
// it guarantees at most one record per pair regardless of direction.
type ConnectionRequest struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairKey           string             `bson:"pair_key" json:"-"`
	RequesterID       primitive.ObjectID `bson:"requester_id" json:"requester_id"`
	RecipientID       primitive.ObjectID `bson:"recipient_id" json:"recipient_id"`
	Status            string             `bson:"status" json:"status"`
	Type              string             `bson:"type" json:"type"`
	Message           string             `bson:"message,omitempty" json:"message,omitempty"`
	AcceptedAt        *time.Time         `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	LastInteractionAt time.Time          `bson:"last_interaction_at" json:"last_interaction_at"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`

	// Display-only projections, attached by the service on the way out.
	Requester *PublicUser `bson:"-" json:"requester,omitempty"`
	Recipient *PublicUser `bson:"-" json:"recipient,omitempty"`
}

// PairKey returns the canonical key for the unordered pair {a, b}.
func PairKey(a, b primitive.ObjectID) string {
	ah, bh := a.Hex(), b.Hex()
	if ah > bh {
		ah, bh = bh, ah
	}
	return ah + ":" + bh
}

func ValidConnectionType(t string) bool {
	switch t {
	case ConnectionTypeStudentTeacher, ConnectionTypePeer, ConnectionTypeMentorMentee:
		return true
	}
	return false
}
