package services

import (
	"context"
	"strings"
	"testing"

	"github.com/deenverse/deenverse/internal/apperrors"
	"github.com/deenverse/deenverse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreatePost_Validation(t *testing.T) {
	svc := NewPostService(&fakePostRepo{}, &fakeUserRepo{}, NewNotificationService(&fakeNotificationRepo{}))

	_, err := svc.CreatePost(context.Background(), primitive.NewObjectID(), "   ", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	_, err = svc.CreatePost(context.Background(), primitive.NewObjectID(), strings.Repeat("x", models.MaxPostBodyLen+1), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	post, err := svc.CreatePost(context.Background(), primitive.NewObjectID(), "Jumu'ah mubarak", "")
	require.NoError(t, err)
	assert.Equal(t, "Jumu'ah mubarak", post.Body)
}

func TestDeletePost_AuthorOrAdminOnly(t *testing.T) {
	authorID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	postRepo := &fakePostRepo{
		GetPostByIDFn: func(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: authorID}, nil
		},
	}
	svc := NewPostService(postRepo, &fakeUserRepo{}, NewNotificationService(&fakeNotificationRepo{}))

	err := svc.DeletePost(context.Background(), postID, otherID, models.RoleStudent)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	assert.NoError(t, svc.DeletePost(context.Background(), postID, authorID, models.RoleStudent))
	assert.NoError(t, svc.DeletePost(context.Background(), postID, otherID, models.RoleAdmin))
}

func TestAddComment_NotifiesPostAuthor(t *testing.T) {
	authorID := primitive.NewObjectID()
	commenterID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	postRepo := &fakePostRepo{
		GetPostByIDFn: func(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: authorID}, nil
		},
	}
	userRepo := &fakeUserRepo{
		GetUserByIDFn: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
			return &models.User{ID: id, Username: "omar"}, nil
		},
	}
	notifRepo := &fakeNotificationRepo{}
	svc := NewPostService(postRepo, userRepo, NewNotificationService(notifRepo))

	comment, err := svc.AddComment(context.Background(), postID, commenterID, "MashaAllah")
	require.NoError(t, err)
	assert.Equal(t, "MashaAllah", comment.Text)

	require.Len(t, notifRepo.Stored, 1)
	assert.Equal(t, authorID, notifRepo.Stored[0].RecipientID)
	assert.Equal(t, models.NotificationTypePostCommented, notifRepo.Stored[0].Type)
}

func TestAddComment_SelfCommentIsSilent(t *testing.T) {
	authorID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	postRepo := &fakePostRepo{
		GetPostByIDFn: func(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: authorID}, nil
		},
	}
	notifRepo := &fakeNotificationRepo{}
	svc := NewPostService(postRepo, &fakeUserRepo{}, NewNotificationService(notifRepo))

	_, err := svc.AddComment(context.Background(), postID, authorID, "note to self")
	require.NoError(t, err)
	assert.Empty(t, notifRepo.Stored)
}

func TestToggleLike_NotifiesOnlyOnLike(t *testing.T) {
	authorID := primitive.NewObjectID()
	likerID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	liked := true
	postRepo := &fakePostRepo{
		GetPostByIDFn: func(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: authorID}, nil
		},
		ToggleLikeFn: func(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
			return liked, nil
		},
	}
	userRepo := &fakeUserRepo{
		GetUserByIDFn: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
			return &models.User{ID: id, Username: "fatima"}, nil
		},
	}
	notifRepo := &fakeNotificationRepo{}
	svc := NewPostService(postRepo, userRepo, NewNotificationService(notifRepo))

	nowLiked, err := svc.ToggleLike(context.Background(), postID, likerID)
	require.NoError(t, err)
	assert.True(t, nowLiked)
	assert.Len(t, notifRepo.Stored, 1)

	// Unlike must stay silent.
	liked = false
	nowLiked, err = svc.ToggleLike(context.Background(), postID, likerID)
	require.NoError(t, err)
	assert.False(t, nowLiked)
	assert.Len(t, notifRepo.Stored, 1)
}
