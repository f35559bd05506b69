package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification event kinds (closed enumeration).
const (
	NotificationTypeConnectionRequest  = "connection_request"
	NotificationTypeConnectionAccepted = "connection_accepted"
	NotificationTypePostLiked          = "post_liked"
	NotificationTypePostCommented      = "post_commented"
	NotificationTypeTeacherVerified    = "teacher_verified"
	NotificationTypeWelcome            = "welcome"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// RelatedEntityType selects which ID namespace RelatedEntity belongs to.
const (
	RelatedEntityConnection = "connection"
	RelatedEntityPost       = "post"
	RelatedEntityUser       = "user"
)

var notificationPriorities = map[string]string{
	NotificationTypeConnectionRequest:  PriorityHigh,
	NotificationTypeConnectionAccepted: PriorityHigh,
	NotificationTypeTeacherVerified:    PriorityHigh,
	NotificationTypePostCommented:      PriorityMedium,
	NotificationTypePostLiked:          PriorityLow,
	NotificationTypeWelcome:            PriorityLow,
}

// PriorityForType returns the fixed priority for a notification type.
// Unknown types default to medium.
func PriorityForType(notifType string) string {
	if p, ok := notificationPriorities[notifType]; ok {
		return p
	}
	return PriorityMedium
}

// Notification is a one-way, user-targeted event record. It never owns what
// it points to; RelatedEntity is resolved lazily by the client.
type Notification struct {
	ID                primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	RecipientID       primitive.ObjectID     `bson:"recipient_id" json:"recipient_id"`
	SenderID          *primitive.ObjectID    `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
	Type              string                 `bson:"type" json:"type"`
	Title             string                 `bson:"title" json:"title"`
	Message           string                 `bson:"message" json:"message"`
	RelatedEntity     *primitive.ObjectID    `bson:"related_entity,omitempty" json:"related_entity,omitempty"`
	RelatedEntityType string                 `bson:"related_entity_type,omitempty" json:"related_entity_type,omitempty"`
	IsRead            bool                   `bson:"is_read" json:"is_read"`
	ReadAt            *time.Time             `bson:"read_at,omitempty" json:"read_at,omitempty"`
	Priority          string                 `bson:"priority" json:"priority"`
	ActionData        map[string]interface{} `bson:"action_data,omitempty" json:"action_data,omitempty"`
	CreatedAt         time.Time              `bson:"created_at" json:"created_at"`
	ExpiresAt         time.Time              `bson:"expires_at" json:"expires_at"`
}
