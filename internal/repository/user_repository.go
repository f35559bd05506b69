package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deenverse/deenverse/internal/apperrors"
	"github.com/deenverse/deenverse/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates the Mongo-backed account directory.
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
	}
}

// CreateUser inserts a new user. The unique index on email turns duplicate
// registrations into ErrConflict.
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: email already in use", apperrors.ErrConflict)
		}
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, fmt.Errorf("failed to insert user: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("failed to find user by id: %v", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: no user with this email", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user by email: %v", err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByVerifyToken(ctx context.Context, token string) (*models.User, error) {
	return r.findByToken(ctx, bson.M{"verify_token": token})
}

func (r *userRepository) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.findByToken(ctx, bson.M{"reset_token": token})
}

func (r *userRepository) findByToken(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: invalid token", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user by token: %v", err)
	}
	return &user, nil
}

// GetUsersByIDs fetches user details for a list of IDs, mainly for
// attaching profile projections.
func (r *userRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users by IDs: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
	update["updated_at"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, id.Hex())
		}
		logrus.WithField("userID", id.Hex()).WithError(err).Error("Failed to update user")
		return nil, fmt.Errorf("failed to update user: %v", err)
	}
	return &user, nil
}

func (r *userRepository) GetAllUsers(ctx context.Context, page, limit int64) ([]models.User, int64, error) {
	return r.pagedFind(ctx, bson.M{}, page, limit)
}

// ListTeachers returns verified, active teacher accounts, newest first.
func (r *userRepository) ListTeachers(ctx context.Context, page, limit int64) ([]models.User, int64, error) {
	filter := bson.M{
		"role":        models.RoleTeacher,
		"is_verified": true,
		"is_active":   true,
	}
	return r.pagedFind(ctx, filter, page, limit)
}

func (r *userRepository) pagedFind(ctx context.Context, filter bson.M, page, limit int64) ([]models.User, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %v", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, total, nil
}

func (r *userRepository) SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error) {
	filter := bson.M{
		"is_active": true,
		"username":  bson.M{"$regex": query, "$options": "i"},
	}

	opts := options.Find().SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}

// IncrementConnectionsCount applies an atomic $inc so concurrent accepts and
// unfollows on the same account never lose updates.
func (r *userRepository) IncrementConnectionsCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"connections_count": delta}},
	)
	if err != nil {
		return fmt.Errorf("failed to update connections count: %v", err)
	}
	return nil
}

// SetConnectionsCount overwrites the counter. Only the reconciliation job
// uses this.
func (r *userRepository) SetConnectionsCount(ctx context.Context, id primitive.ObjectID, count int64) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"connections_count": count}},
	)
	if err != nil {
		return fmt.Errorf("failed to set connections count: %v", err)
	}
	return nil
}

func (r *userRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update active flag: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, id.Hex())
	}
	return nil
}

func (r *userRepository) TouchLastActive(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_active_at": time.Now()}},
	)
	return err
}
