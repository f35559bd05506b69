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

type connectionRepository struct {
	collection *mongo.Collection
}

// NewConnectionRepository creates the Mongo-backed connection ledger.
func NewConnectionRepository(db *mongo.Database) ConnectionRepository {
	return &connectionRepository{
		collection: db.Collection("connection_requests"),
	}
}

// CreateRequest inserts a new pending record. The unique index on pair_key
// makes the check-then-insert race in the service harmless: the losing
// insert comes back as ErrConflict, same as the pre-check would report.
func (r *connectionRepository) CreateRequest(ctx context.Context, req *models.ConnectionRequest) (*models.ConnectionRequest, error) {
	now := time.Now()
	req.PairKey = models.PairKey(req.RequesterID, req.RecipientID)
	req.Status = models.ConnectionStatusPending
	req.CreatedAt = now
	req.LastInteractionAt = now
	req.AcceptedAt = nil

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: a connection request already exists for this pair", apperrors.ErrConflict)
		}
		logrus.WithError(err).Error("Failed to insert connection request")
		return nil, fmt.Errorf("failed to create connection request: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	req.ID = insertedID

	return req, nil
}

func (r *connectionRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: connection request %s", apperrors.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("failed to find connection request: %v", err)
	}
	return &req, nil
}

// FindByPair performs the unordered-pair lookup. No record is (nil, nil),
// not an error: callers use this for conflict checks and display state.
func (r *connectionRepository) FindByPair(ctx context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := r.collection.FindOne(ctx, bson.M{"pair_key": models.PairKey(a, b)}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up connection pair: %v", err)
	}
	return &req, nil
}

// AcceptPending flips pending -> accepted in a single conditional update.
// The triple guard (_id, recipient, pending) rejects accepting someone
// else's request and re-accepting in one shot; accepted_at is therefore set
// exactly once.
func (r *connectionRepository) AcceptPending(ctx context.Context, id, recipient primitive.ObjectID) (*models.ConnectionRequest, error) {
	now := time.Now()
	return r.transition(ctx,
		bson.M{"_id": id, "recipient_id": recipient, "status": models.ConnectionStatusPending},
		bson.M{"$set": bson.M{
			"status":              models.ConnectionStatusAccepted,
			"accepted_at":         now,
			"last_interaction_at": now,
		}},
	)
}

// RejectPending flips pending -> rejected under the same guard. The record
// is retained as audit trail.
func (r *connectionRepository) RejectPending(ctx context.Context, id, recipient primitive.ObjectID) (*models.ConnectionRequest, error) {
	return r.transition(ctx,
		bson.M{"_id": id, "recipient_id": recipient, "status": models.ConnectionStatusPending},
		bson.M{"$set": bson.M{
			"status":              models.ConnectionStatusRejected,
			"last_interaction_at": time.Now(),
		}},
	)
}

// Block flips pending|accepted -> blocked. Either participant may block.
func (r *connectionRepository) Block(ctx context.Context, id, actor primitive.ObjectID) (*models.ConnectionRequest, error) {
	return r.transition(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$in": bson.A{models.ConnectionStatusPending, models.ConnectionStatusAccepted}},
			"$or":    bson.A{bson.M{"requester_id": actor}, bson.M{"recipient_id": actor}},
		},
		bson.M{"$set": bson.M{
			"status":              models.ConnectionStatusBlocked,
			"last_interaction_at": time.Now(),
		}},
	)
}

// ReopenRejected turns an existing rejected record back into a fresh
// pending request, possibly with the direction flipped, so a re-request
// after rejection never creates a duplicate pair record.
func (r *connectionRepository) ReopenRejected(ctx context.Context, id, requester, recipient primitive.ObjectID, reqType, message string) (*models.ConnectionRequest, error) {
	now := time.Now()
	return r.transition(ctx,
		bson.M{"_id": id, "status": models.ConnectionStatusRejected},
		bson.M{
			"$set": bson.M{
				"status":              models.ConnectionStatusPending,
				"requester_id":        requester,
				"recipient_id":        recipient,
				"type":                reqType,
				"message":             message,
				"created_at":          now,
				"last_interaction_at": now,
			},
			"$unset": bson.M{"accepted_at": ""},
		},
	)
}

func (r *connectionRepository) transition(ctx context.Context, filter, update bson.M) (*models.ConnectionRequest, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var req models.ConnectionRequest
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: no matching pending request", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update connection request: %v", err)
	}
	return &req, nil
}

// DeleteAccepted removes an accepted record entirely. Peer unfollow is a
// hard teardown: no rejected/blocked residue survives it.
func (r *connectionRepository) DeleteAccepted(ctx context.Context, a, b primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{
		"pair_key": models.PairKey(a, b),
		"status":   models.ConnectionStatusAccepted,
	})
	if err != nil {
		return fmt.Errorf("failed to delete connection: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: no accepted connection for this pair", apperrors.ErrNotFound)
	}
	return nil
}

func (r *connectionRepository) ListPendingForRecipient(ctx context.Context, recipient primitive.ObjectID, page, limit int64) ([]models.ConnectionRequest, int64, error) {
	filter := bson.M{"recipient_id": recipient, "status": models.ConnectionStatusPending}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count pending requests: %v", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find pending requests: %v", err)
	}
	defer cursor.Close(ctx)

	var requests []models.ConnectionRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, 0, fmt.Errorf("failed to decode pending requests: %v", err)
	}
	return requests, total, nil
}

// CountAcceptedForUser recomputes a user's true connection count from the
// ledger. The reconciliation job compares it against the denormalized
// counter.
func (r *connectionRepository) CountAcceptedForUser(ctx context.Context, id primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"status": models.ConnectionStatusAccepted,
		"$or": bson.A{
			bson.M{"requester_id": id},
			bson.M{"recipient_id": id},
		},
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count accepted connections: %v", err)
	}
	return count, nil
}
