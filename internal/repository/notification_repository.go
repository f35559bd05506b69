package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/deenverse/deenverse/internal/apperrors"
	"github.com/deenverse/deenverse/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// notificationRetention is how long records stay visible before the cleanup
// job removes them.
const notificationRetention = 30 * 24 * time.Hour

type notificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository creates the Mongo-backed notification sink.
func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{
		collection: db.Collection("notifications"),
	}
}

// CreateNotification inserts a new notification.
func (r *notificationRepository) CreateNotification(ctx context.Context, notif *models.Notification) error {
	notif.CreatedAt = time.Now()
	notif.ExpiresAt = notif.CreatedAt.Add(notificationRetention)

	_, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert notification")
		return fmt.Errorf("failed to create notification: %v", err)
	}
	return nil
}

// ListForRecipient returns one page of a user's notifications, newest first.
func (r *notificationRepository) ListForRecipient(ctx context.Context, recipient primitive.ObjectID, page, limit int64, unreadOnly bool) ([]models.Notification, int64, error) {
	filter := bson.M{
		"recipient_id": recipient,
		"expires_at":   bson.M{"$gt": time.Now()},
	}
	if unreadOnly {
		filter["is_read"] = false
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %v", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %v", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %v", err)
	}
	return notifications, total, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"recipient_id": recipient,
		"is_read":      false,
		"expires_at":   bson.M{"$gt": time.Now()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %v", err)
	}
	return count, nil
}

// MarkAsRead flips is_read and stamps read_at, guarded on the recipient.
func (r *notificationRepository) MarkAsRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var notif models.Notification
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "recipient_id": recipient},
		bson.M{"$set": bson.M{"is_read": true, "read_at": time.Now()}},
		opts,
	).Decode(&notif)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: notification %s", apperrors.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("failed to mark notification as read: %v", err)
	}
	return &notif, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{"recipient_id": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %v", err)
	}
	return result.ModifiedCount, nil
}

// DeleteExpired removes notifications past their retention window.
func (r *notificationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %v", err)
	}
	logrus.Infof("Deleted %d expired notifications", result.DeletedCount)
	return result.DeletedCount, nil
}
