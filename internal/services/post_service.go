package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deenverse/deenverse/internal/apperrors"
	"github.com/deenverse/deenverse/internal/models"
	"github.com/deenverse/deenverse/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostService handles the content feed: posts, comments and likes.
type PostService struct {
	postRepo      repository.PostRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, notifications *NotificationService) *PostService {
	return &PostService{
		postRepo:      postRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// CreatePost publishes a new feed entry.
func (s *PostService) CreatePost(ctx context.Context, authorID primitive.ObjectID, body, imageURL string) (*models.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: post body is required", apperrors.ErrInvalidOperation)
	}
	if len(body) > models.MaxPostBodyLen {
		return nil, fmt.Errorf("%w: post body exceeds %d characters", apperrors.ErrInvalidOperation, models.MaxPostBodyLen)
	}

	post, err := s.postRepo.CreatePost(ctx, &models.Post{
		AuthorID: authorID,
		Body:     body,
		ImageURL: imageURL,
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("postID", post.ID.Hex()).Info("Post created")
	return post, nil
}

// GetFeed returns one feed page, pinned posts first, then newest first,
// with author projections attached.
func (s *PostService) GetFeed(ctx context.Context, page, limit int64) ([]models.Post, int64, error) {
	posts, total, err := s.postRepo.Feed(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if len(posts) == 0 {
		return []models.Post{}, total, nil
	}

	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.AuthorID)
	}

	authors, err := s.userRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		logrus.WithError(err).Warn("Failed to attach author profiles to feed")
		return posts, total, nil
	}

	byID := make(map[primitive.ObjectID]*models.PublicUser, len(authors))
	for i := range authors {
		byID[authors[i].ID] = authors[i].Public()
	}
	for i := range posts {
		posts[i].Author = byID[posts[i].AuthorID]
	}

	return posts, total, nil
}

func (s *PostService) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	post, err := s.postRepo.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if author, err := s.userRepo.GetUserByID(ctx, post.AuthorID); err == nil {
		post.Author = author.Public()
	}
	return post, nil
}

// DeletePost removes a post. Only the author or an admin may delete.
func (s *PostService) DeletePost(ctx context.Context, postID, actorID primitive.ObjectID, actorRole string) error {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID && actorRole != models.RoleAdmin {
		return fmt.Errorf("%w: only the author can delete this post", apperrors.ErrForbidden)
	}
	return s.postRepo.DeletePost(ctx, postID)
}

// AddComment appends a comment and notifies the post author.
func (s *PostService) AddComment(ctx context.Context, postID, authorID primitive.ObjectID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", apperrors.ErrInvalidOperation)
	}

	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.postRepo.AddComment(ctx, postID, comment); err != nil {
		return nil, err
	}

	if post.AuthorID != authorID {
		commenter, err := s.userRepo.GetUserByID(ctx, authorID)
		if err == nil {
			s.notifications.Notify(ctx, &models.Notification{
				RecipientID:       post.AuthorID,
				SenderID:          &authorID,
				Type:              models.NotificationTypePostCommented,
				Title:             "New comment on your post",
				Message:           fmt.Sprintf("%s commented on your post", commenter.Username),
				RelatedEntity:     &postID,
				RelatedEntityType: models.RelatedEntityPost,
			})
		}
	}

	return &comment, nil
}

// ToggleLike flips the caller's like on a post and notifies the author when
// the post gains a like.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return false, err
	}

	liked, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return false, err
	}

	if liked && post.AuthorID != userID {
		liker, err := s.userRepo.GetUserByID(ctx, userID)
		if err == nil {
			s.notifications.Notify(ctx, &models.Notification{
				RecipientID:       post.AuthorID,
				SenderID:          &userID,
				Type:              models.NotificationTypePostLiked,
				Title:             "Your post was liked",
				Message:           fmt.Sprintf("%s liked your post", liker.Username),
				RelatedEntity:     &postID,
				RelatedEntityType: models.RelatedEntityPost,
			})
		}
	}

	return liked, nil
}

// SetPinned pins or unpins a post in the feed. Admin only; the handler
// enforces the role.
func (s *PostService) SetPinned(ctx context.Context, postID primitive.ObjectID, pinned bool) error {
	return s.postRepo.SetPinned(ctx, postID, pinned)
}
