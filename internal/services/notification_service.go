package services

import (
	"context"
	"fmt"

	"github.com/deenverse/deenverse/internal/apperrors"
	"github.com/deenverse/deenverse/internal/models"
	"github.com/deenverse/deenverse/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService records and retrieves cross-user event notices.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotification stores a new notification. Priority comes from the
// fixed type table unless the caller supplied one.
func (s *NotificationService) CreateNotification(ctx context.Context, notif *models.Notification) error {
	if notif.RecipientID.IsZero() {
		return fmt.Errorf("%w: notification requires a recipient", apperrors.ErrInvalidOperation)
	}
	if notif.Priority == "" {
		notif.Priority = models.PriorityForType(notif.Type)
	}
	notif.IsRead = false
	notif.ReadAt = nil

	return s.repo.CreateNotification(ctx, notif)
}

// Notify is the best-effort side channel the domain services use. A failed
// store write must never fail the business operation that triggered it, so
// errors are logged and dropped here.
func (s *NotificationService) Notify(ctx context.Context, notif *models.Notification) {
	if err := s.CreateNotification(ctx, notif); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"recipient": notif.RecipientID.Hex(),
			"type":      notif.Type,
		}).Warn("Failed to deliver notification")
	}
}

// GetNotifications returns one page of a user's notifications, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64, unreadOnly bool) ([]models.Notification, int64, error) {
	return s.repo.ListForRecipient(ctx, userID, page, limit, unreadOnly)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkNotificationAsRead flips the read flag. Only the recipient may do so;
// the repository guard reports anything else as NotFound.
func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, notifID, userID primitive.ObjectID) (*models.Notification, error) {
	return s.repo.MarkAsRead(ctx, notifID, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// CleanupExpired is called periodically by the cron scheduler.
func (s *NotificationService) CleanupExpired(ctx context.Context) error {
	_, err := s.repo.DeleteExpired(ctx)
	return err
}
