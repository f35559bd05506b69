package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/deenverse/deenverse/internal/apperrors"
	"github.com/deenverse/deenverse/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postRepository struct {
	collection *mongo.Collection
}

// NewPostRepository creates the Mongo-backed feed store.
func NewPostRepository(db *mongo.Database) PostRepository {
	return &postRepository{
		collection: db.Collection("posts"),
	}
}

func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt

	result, err := r.collection.InsertOne(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	post.ID = insertedID

	return post, nil
}

func (r *postRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: post %s", apperrors.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("failed to find post: %v", err)
	}
	return &post, nil
}

// Feed returns one page ranked pinned-first, then newest-first.
func (r *postRepository) Feed(ctx context.Context, page, limit int64) ([]models.Post, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %v", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "is_pinned", Value: -1}, {Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch feed: %v", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode posts: %v", err)
	}
	return posts, total, nil
}

func (r *postRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete post: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: post %s", apperrors.ErrNotFound, id.Hex())
	}
	return nil
}

func (r *postRepository) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": postID},
		bson.M{
			"$push": bson.M{"comments": comment},
			"$inc":  bson.M{"comment_count": 1},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add comment: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: post %s", apperrors.ErrNotFound, postID.Hex())
	}
	return nil
}

// ToggleLike adds the like when absent and removes it when present, keeping
// like_count in sync via $inc in the same update. Both branches are
// conditional single updates, so concurrent toggles never double-count.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": postID, "likes": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"likes": userID},
			"$inc":      bson.M{"like_count": 1},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to like post: %v", err)
	}
	if result.ModifiedCount > 0 {
		return true, nil
	}

	result, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": postID, "likes": userID},
		bson.M{
			"$pull": bson.M{"likes": userID},
			"$inc":  bson.M{"like_count": -1},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to unlike post: %v", err)
	}
	if result.ModifiedCount == 0 {
		return false, fmt.Errorf("%w: post %s", apperrors.ErrNotFound, postID.Hex())
	}
	return false, nil
}

func (r *postRepository) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_pinned": pinned, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update pin flag: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: post %s", apperrors.ErrNotFound, id.Hex())
	}
	return nil
}
