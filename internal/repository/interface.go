package repository

import (
	"context"

	"github.com/deenverse/deenverse/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository is the account directory: identity lookup plus the
// denormalized connections counter other components maintain.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// GetUserByEmail is case-insensitive: emails are normalized to lower
	// case before storage and lookup.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByVerifyToken(ctx context.Context, token string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error)
	GetAllUsers(ctx context.Context, page, limit int64) ([]models.User, int64, error)
	ListTeachers(ctx context.Context, page, limit int64) ([]models.User, int64, error)
	SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error)
	// IncrementConnectionsCount is an atomic relative-delta update, never a
	// read-modify-write round trip.
	IncrementConnectionsCount(ctx context.Context, id primitive.ObjectID, delta int64) error
	SetConnectionsCount(ctx context.Context, id primitive.ObjectID, count int64) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	TouchLastActive(ctx context.Context, id primitive.ObjectID) error
}

// ConnectionRepository is the connection ledger: durable storage and
// state-transition enforcement for connection requests.
type ConnectionRepository interface {
	// CreateRequest inserts a new pending record. A duplicate pair insert
	// (racing or otherwise) surfaces as apperrors.ErrConflict.
	CreateRequest(ctx context.Context, req *models.ConnectionRequest) (*models.ConnectionRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error)
	// FindByPair is the unordered lookup; it returns (nil, nil) when no
	// record exists for the pair.
	FindByPair(ctx context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error)
	// AcceptPending transitions pending -> accepted, guarded on
	// _id + recipient + status == pending. No match is ErrNotFound.
	AcceptPending(ctx context.Context, id, recipient primitive.ObjectID) (*models.ConnectionRequest, error)
	// RejectPending transitions pending -> rejected under the same guard.
	RejectPending(ctx context.Context, id, recipient primitive.ObjectID) (*models.ConnectionRequest, error)
	// Block transitions pending|accepted -> blocked. Reserved; no HTTP
	// route drives it.
	Block(ctx context.Context, id, actor primitive.ObjectID) (*models.ConnectionRequest, error)
	// ReopenRejected transitions an existing rejected record back to
	// pending, preserving the one-record-per-pair invariant on re-request.
	ReopenRejected(ctx context.Context, id, requester, recipient primitive.ObjectID, reqType, message string) (*models.ConnectionRequest, error)
	// DeleteAccepted removes an accepted record entirely (peer unfollow).
	DeleteAccepted(ctx context.Context, a, b primitive.ObjectID) error
	ListPendingForRecipient(ctx context.Context, recipient primitive.ObjectID, page, limit int64) ([]models.ConnectionRequest, int64, error)
	CountAcceptedForUser(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// NotificationRepository is the notification sink.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	ListForRecipient(ctx context.Context, recipient primitive.ObjectID, page, limit int64, unreadOnly bool) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	// MarkAsRead is guarded on the recipient: flipping another user's
	// notification reports ErrNotFound.
	MarkAsRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// PostRepository stores the content feed.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// Feed returns one page ordered by pin flag then recency.
	Feed(ctx context.Context, page, limit int64) ([]models.Post, int64, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error
	// ToggleLike flips the caller's like and reports whether the post is
	// now liked by them.
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error)
	SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error
}
