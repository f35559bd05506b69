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

// ConnectionService orchestrates the ledger, the account directory and the
// notification sink into the request -> accept/reject -> counters -> notify
// workflow.
type ConnectionService struct {
	connRepo      repository.ConnectionRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

func NewConnectionService(connRepo repository.ConnectionRepository, userRepo repository.UserRepository, notifications *NotificationService) *ConnectionService {
	return &ConnectionService{
		connRepo:      connRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// RequestConnection sends a student-teacher connection request. The
// recipient must be a verified, active teacher.
func (s *ConnectionService) RequestConnection(ctx context.Context, requesterID, teacherID primitive.ObjectID, message string) (*models.ConnectionRequest, error) {
	teacher, err := s.userRepo.GetUserByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("%w: teacher not found", apperrors.ErrNotFound)
	}
	if teacher.Role != models.RoleTeacher || !teacher.IsVerified || !teacher.IsActive {
		return nil, fmt.Errorf("%w: teacher not found or not verified", apperrors.ErrNotFound)
	}

	return s.createRequest(ctx, requesterID, teacher, models.ConnectionTypeStudentTeacher, message)
}

// Follow sends a peer connection request to any active account.
func (s *ConnectionService) Follow(ctx context.Context, followerID, targetID primitive.ObjectID) (*models.ConnectionRequest, error) {
	target, err := s.userRepo.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !target.IsActive {
		return nil, fmt.Errorf("%w: user is not active", apperrors.ErrNotFound)
	}

	return s.createRequest(ctx, followerID, target, models.ConnectionTypePeer, "")
}

// createRequest runs the shared create protocol: self-check, pair conflict
// check, insert (or reopen after rejection), then a best-effort
// notification to the recipient.
func (s *ConnectionService) createRequest(ctx context.Context, requesterID primitive.ObjectID, recipient *models.User, reqType, message string) (*models.ConnectionRequest, error) {
	if requesterID == recipient.ID {
		return nil, fmt.Errorf("%w: cannot send a connection request to yourself", apperrors.ErrInvalidOperation)
	}
	if len(message) > models.MaxConnectionMessageLen {
		return nil, fmt.Errorf("%w: message exceeds %d characters", apperrors.ErrInvalidOperation, models.MaxConnectionMessageLen)
	}

	requester, err := s.userRepo.GetUserByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	existing, err := s.connRepo.FindByPair(ctx, requesterID, recipient.ID)
	if err != nil {
		return nil, err
	}

	var request *models.ConnectionRequest
	switch {
	case existing == nil:
		request, err = s.connRepo.CreateRequest(ctx, &models.ConnectionRequest{
			RequesterID: requesterID,
			RecipientID: recipient.ID,
			Type:        reqType,
			Message:     message,
		})
	case existing.Status == models.ConnectionStatusAccepted:
		return nil, fmt.Errorf("%w: already connected", apperrors.ErrConflict)
	case existing.Status == models.ConnectionStatusPending:
		return nil, fmt.Errorf("%w: a request is already pending", apperrors.ErrConflict)
	case existing.Status == models.ConnectionStatusBlocked:
		return nil, fmt.Errorf("%w: connection is blocked", apperrors.ErrConflict)
	default:
		// A rejected pair may be re-requested; the old record is reused so
		// the one-record-per-pair invariant holds.
		request, err = s.connRepo.ReopenRejected(ctx, existing.ID, requesterID, recipient.ID, reqType, message)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"requester": requesterID.Hex(),
		"recipient": recipient.ID.Hex(),
		"type":      reqType,
	}).Info("Connection request created")

	s.notifications.Notify(ctx, &models.Notification{
		RecipientID:       recipient.ID,
		SenderID:          &requester.ID,
		Type:              models.NotificationTypeConnectionRequest,
		Title:             "New connection request",
		Message:           fmt.Sprintf("%s wants to connect with you", requester.Username),
		RelatedEntity:     &request.ID,
		RelatedEntityType: models.RelatedEntityConnection,
		ActionData: map[string]interface{}{
			"connection_id": request.ID.Hex(),
			"requester_id":  requester.ID.Hex(),
		},
	})

	request.Requester = requester.Public()
	request.Recipient = recipient.Public()
	return request, nil
}

// Accept transitions a pending request addressed to actingUser into
// accepted, bumps both parties' counters and notifies the requester.
func (s *ConnectionService) Accept(ctx context.Context, connectionID, actingUserID primitive.ObjectID) (*models.ConnectionRequest, error) {
	request, err := s.connRepo.AcceptPending(ctx, connectionID, actingUserID)
	if err != nil {
		return nil, err
	}

	// Counter updates are atomic deltas; if one is missed the nightly
	// reconciliation job corrects the drift, so the accept itself stands.
	if err := s.userRepo.IncrementConnectionsCount(ctx, request.RequesterID, 1); err != nil {
		logrus.WithError(err).Errorf("Failed to increment connections count for %s", request.RequesterID.Hex())
	}
	if err := s.userRepo.IncrementConnectionsCount(ctx, request.RecipientID, 1); err != nil {
		logrus.WithError(err).Errorf("Failed to increment connections count for %s", request.RecipientID.Hex())
	}

	logrus.WithField("connectionID", request.ID.Hex()).Info("Connection request accepted")

	recipient, err := s.userRepo.GetUserByID(ctx, request.RecipientID)
	if err == nil {
		s.notifications.Notify(ctx, &models.Notification{
			RecipientID:       request.RequesterID,
			SenderID:          &request.RecipientID,
			Type:              models.NotificationTypeConnectionAccepted,
			Title:             "Connection accepted",
			Message:           fmt.Sprintf("%s accepted your connection request", recipient.Username),
			RelatedEntity:     &request.ID,
			RelatedEntityType: models.RelatedEntityConnection,
		})
		request.Recipient = recipient.Public()
	}
	if requester, err := s.userRepo.GetUserByID(ctx, request.RequesterID); err == nil {
		request.Requester = requester.Public()
	}

	return request, nil
}

// Reject transitions a pending request addressed to actingUser into
// rejected. No counters change and no notification is sent.
func (s *ConnectionService) Reject(ctx context.Context, connectionID, actingUserID primitive.ObjectID) (*models.ConnectionRequest, error) {
	request, err := s.connRepo.RejectPending(ctx, connectionID, actingUserID)
	if err != nil {
		return nil, err
	}

	logrus.WithField("connectionID", request.ID.Hex()).Info("Connection request rejected")
	return request, nil
}

// Unfollow tears down an accepted peer connection: the record is deleted
// entirely and both counters return to their pre-follow values, so a later
// follow starts fresh.
func (s *ConnectionService) Unfollow(ctx context.Context, userID, targetID primitive.ObjectID) error {
	if userID == targetID {
		return fmt.Errorf("%w: cannot unfollow yourself", apperrors.ErrInvalidOperation)
	}

	if err := s.connRepo.DeleteAccepted(ctx, userID, targetID); err != nil {
		return err
	}

	if err := s.userRepo.IncrementConnectionsCount(ctx, userID, -1); err != nil {
		logrus.WithError(err).Errorf("Failed to decrement connections count for %s", userID.Hex())
	}
	if err := s.userRepo.IncrementConnectionsCount(ctx, targetID, -1); err != nil {
		logrus.WithError(err).Errorf("Failed to decrement connections count for %s", targetID.Hex())
	}

	logrus.WithFields(logrus.Fields{
		"user":   userID.Hex(),
		"target": targetID.Hex(),
	}).Info("Connection removed")
	return nil
}

// GetPendingRequests lists the requests awaiting the recipient's decision,
// newest first, with requester projections attached.
func (s *ConnectionService) GetPendingRequests(ctx context.Context, recipientID primitive.ObjectID, page, limit int64) ([]models.ConnectionRequest, int64, error) {
	requests, total, err := s.connRepo.ListPendingForRecipient(ctx, recipientID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if len(requests) == 0 {
		return []models.ConnectionRequest{}, total, nil
	}

	ids := make([]primitive.ObjectID, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.RequesterID)
	}

	users, err := s.userRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		// The list itself is still useful without projections.
		logrus.WithError(err).Warn("Failed to attach requester profiles to pending requests")
		return requests, total, nil
	}

	byID := make(map[primitive.ObjectID]*models.PublicUser, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Public()
	}
	for i := range requests {
		requests[i].Requester = byID[requests[i].RequesterID]
	}

	return requests, total, nil
}

// GetConnectionState returns the pair record between two users, or nil when
// none exists. Used for "already connected" display state.
func (s *ConnectionService) GetConnectionState(ctx context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error) {
	return s.connRepo.FindByPair(ctx, a, b)
}

// ReconcileConnectionCounts recomputes every account's connections_count
// from the ledger and corrects drift. Run periodically by the scheduler.
func (s *ConnectionService) ReconcileConnectionCounts(ctx context.Context) error {
	const pageSize = 200

	for page := int64(1); ; page++ {
		users, _, err := s.userRepo.GetAllUsers(ctx, page, pageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch users for reconciliation: %v", err)
		}
		if len(users) == 0 {
			return nil
		}

		for i := range users {
			user := &users[i]
			actual, err := s.connRepo.CountAcceptedForUser(ctx, user.ID)
			if err != nil {
				logrus.WithError(err).Warnf("Skipping reconciliation for user %s", user.ID.Hex())
				continue
			}
			if actual == user.ConnectionsCount {
				continue
			}

			logrus.WithFields(logrus.Fields{
				"userID":   user.ID.Hex(),
				"recorded": user.ConnectionsCount,
				"actual":   actual,
			}).Warn("Correcting connections count drift")

			if err := s.userRepo.SetConnectionsCount(ctx, user.ID, actual); err != nil {
				logrus.WithError(err).Warnf("Failed to correct connections count for %s", user.ID.Hex())
			}
		}

		if int64(len(users)) < pageSize {
			return nil
		}
	}
}
