package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a DeenVerse account can hold.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User represents a registered DeenVerse account. Emails are stored
// lowercased and carry a unique index; accounts are deactivated, never
// hard-deleted.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username         string             `bson:"username" json:"username"`
	Email            string             `bson:"email" json:"email"`
	HashedPassword   string             `bson:"hashed_password" json:"-"`
	Role             string             `bson:"role" json:"role"`
	Bio              string             `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL        string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	IsActive         bool               `bson:"is_active" json:"is_active"`
	IsVerified       bool               `bson:"is_verified" json:"is_verified"`
	ConnectionsCount int64              `bson:"connections_count" json:"connections_count"`
	VerifyToken      string             `bson:"verify_token,omitempty" json:"-"`
	ResetToken       string             `bson:"reset_token,omitempty" json:"-"`
	ResetTokenExp    time.Time          `bson:"reset_token_exp,omitempty" json:"-"`
	LastActiveAt     time.Time          `bson:"last_active_at,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// PublicUser is the minimal profile projection attached to connection
// records, posts and search results.
type PublicUser struct {
	ID               primitive.ObjectID `json:"id"`
	Username         string             `json:"username"`
	Role             string             `json:"role"`
	AvatarURL        string             `json:"avatar_url,omitempty"`
	IsVerified       bool               `json:"is_verified"`
	ConnectionsCount int64              `json:"connections_count"`
}

// Public returns the display projection of the user.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:               u.ID,
		Username:         u.Username,
		Role:             u.Role,
		AvatarURL:        u.AvatarURL,
		IsVerified:       u.IsVerified,
		ConnectionsCount: u.ConnectionsCount,
	}
}

func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}
