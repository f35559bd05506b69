package services

import (
	"context"

	"github.com/deenverse/deenverse/internal/apperrors"
	"github.com/deenverse/deenverse/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUserRepo implements repository.UserRepository with overridable
// function fields so each test wires only what it needs.
type fakeUserRepo struct {
	CreateUserFn        func(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByIDFn       func(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmailFn    func(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDsFn     func(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateUserFn        func(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error)
	GetAllUsersFn       func(ctx context.Context, page, limit int64) ([]models.User, int64, error)
	IncrementFn         func(ctx context.Context, id primitive.ObjectID, delta int64) error
	SetConnectionsFn    func(ctx context.Context, id primitive.ObjectID, count int64) error
	GetByVerifyTokenFn  func(ctx context.Context, token string) (*models.User, error)
	GetByResetTokenFn   func(ctx context.Context, token string) (*models.User, error)
	ListTeachersFn      func(ctx context.Context, page, limit int64) ([]models.User, int64, error)
	SearchUsersFn       func(ctx context.Context, query string, limit int64) ([]models.User, error)
	SetActiveFn         func(ctx context.Context, id primitive.ObjectID, active bool) error
	TouchLastActiveFn   func(ctx context.Context, id primitive.ObjectID) error
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if f.CreateUserFn != nil {
		return f.CreateUserFn(ctx, user)
	}
	user.ID = primitive.NewObjectID()
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.GetUserByIDFn != nil {
		return f.GetUserByIDFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.GetUserByEmailFn != nil {
		return f.GetUserByEmailFn(ctx, email)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) GetUserByVerifyToken(ctx context.Context, token string) (*models.User, error) {
	if f.GetByVerifyTokenFn != nil {
		return f.GetByVerifyTokenFn(ctx, token)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	if f.GetByResetTokenFn != nil {
		return f.GetByResetTokenFn(ctx, token)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if f.GetUsersByIDsFn != nil {
		return f.GetUsersByIDsFn(ctx, ids)
	}
	return []models.User{}, nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
	if f.UpdateUserFn != nil {
		return f.UpdateUserFn(ctx, id, update)
	}
	return &models.User{ID: id}, nil
}

func (f *fakeUserRepo) GetAllUsers(ctx context.Context, page, limit int64) ([]models.User, int64, error) {
	if f.GetAllUsersFn != nil {
		return f.GetAllUsersFn(ctx, page, limit)
	}
	return []models.User{}, 0, nil
}

func (f *fakeUserRepo) ListTeachers(ctx context.Context, page, limit int64) ([]models.User, int64, error) {
	if f.ListTeachersFn != nil {
		return f.ListTeachersFn(ctx, page, limit)
	}
	return []models.User{}, 0, nil
}

func (f *fakeUserRepo) SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error) {
	if f.SearchUsersFn != nil {
		return f.SearchUsersFn(ctx, query, limit)
	}
	return []models.User{}, nil
}

func (f *fakeUserRepo) IncrementConnectionsCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	if f.IncrementFn != nil {
		return f.IncrementFn(ctx, id, delta)
	}
	return nil
}

func (f *fakeUserRepo) SetConnectionsCount(ctx context.Context, id primitive.ObjectID, count int64) error {
	if f.SetConnectionsFn != nil {
		return f.SetConnectionsFn(ctx, id, count)
	}
	return nil
}

func (f *fakeUserRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	if f.SetActiveFn != nil {
		return f.SetActiveFn(ctx, id, active)
	}
	return nil
}

func (f *fakeUserRepo) TouchLastActive(ctx context.Context, id primitive.ObjectID) error {
	if f.TouchLastActiveFn != nil {
		return f.TouchLastActiveFn(ctx, id)
	}
	return nil
}

// fakeConnectionRepo implements repository.ConnectionRepository.
type fakeConnectionRepo struct {
	CreateRequestFn   func(ctx context.Context, req *models.ConnectionRequest) (*models.ConnectionRequest, error)
	GetRequestByIDFn  func(ctx context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error)
	FindByPairFn      func(ctx context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error)
	AcceptPendingFn   func(ctx context.Context, id, recipient primitive.ObjectID) (*models.ConnectionRequest, error)
	RejectPendingFn   func(ctx context.Context, id, recipient primitive.ObjectID) (*models.ConnectionRequest, error)
	BlockFn           func(ctx context.Context, id, actor primitive.ObjectID) (*models.ConnectionRequest, error)
	ReopenRejectedFn  func(ctx context.Context, id, requester, recipient primitive.ObjectID, reqType, message string) (*models.ConnectionRequest, error)
	DeleteAcceptedFn  func(ctx context.Context, a, b primitive.ObjectID) error
	ListPendingFn     func(ctx context.Context, recipient primitive.ObjectID, page, limit int64) ([]models.ConnectionRequest, int64, error)
	CountAcceptedFn   func(ctx context.Context, id primitive.ObjectID) (int64, error)
}

func (f *fakeConnectionRepo) CreateRequest(ctx context.Context, req *models.ConnectionRequest) (*models.ConnectionRequest, error) {
	if f.CreateRequestFn != nil {
		return f.CreateRequestFn(ctx, req)
	}
	req.ID = primitive.NewObjectID()
	req.Status = models.ConnectionStatusPending
	return req, nil
}

func (f *fakeConnectionRepo) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error) {
	if f.GetRequestByIDFn != nil {
		return f.GetRequestByIDFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeConnectionRepo) FindByPair(ctx context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error) {
	if f.FindByPairFn != nil {
		return f.FindByPairFn(ctx, a, b)
	}
	return nil, nil
}

func (f *fakeConnectionRepo) AcceptPending(ctx context.Context, id, recipient primitive.ObjectID) (*models.ConnectionRequest, error) {
	if f.AcceptPendingFn != nil {
		return f.AcceptPendingFn(ctx, id, recipient)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeConnectionRepo) RejectPending(ctx context.Context, id, recipient primitive.ObjectID) (*models.ConnectionRequest, error) {
	if f.RejectPendingFn != nil {
		return f.RejectPendingFn(ctx, id, recipient)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeConnectionRepo) Block(ctx context.Context, id, actor primitive.ObjectID) (*models.ConnectionRequest, error) {
	if f.BlockFn != nil {
		return f.BlockFn(ctx, id, actor)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeConnectionRepo) ReopenRejected(ctx context.Context, id, requester, recipient primitive.ObjectID, reqType, message string) (*models.ConnectionRequest, error) {
	if f.ReopenRejectedFn != nil {
		return f.ReopenRejectedFn(ctx, id, requester, recipient, reqType, message)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeConnectionRepo) DeleteAccepted(ctx context.Context, a, b primitive.ObjectID) error {
	if f.DeleteAcceptedFn != nil {
		return f.DeleteAcceptedFn(ctx, a, b)
	}
	return apperrors.ErrNotFound
}

func (f *fakeConnectionRepo) ListPendingForRecipient(ctx context.Context, recipient primitive.ObjectID, page, limit int64) ([]models.ConnectionRequest, int64, error) {
	if f.ListPendingFn != nil {
		return f.ListPendingFn(ctx, recipient, page, limit)
	}
	return []models.ConnectionRequest{}, 0, nil
}

func (f *fakeConnectionRepo) CountAcceptedForUser(ctx context.Context, id primitive.ObjectID) (int64, error) {
	if f.CountAcceptedFn != nil {
		return f.CountAcceptedFn(ctx, id)
	}
	return 0, nil
}

// fakeNotificationRepo implements repository.NotificationRepository and
// records everything stored through it.
type fakeNotificationRepo struct {
	Stored []*models.Notification

	CreateFn       func(ctx context.Context, notif *models.Notification) error
	ListFn         func(ctx context.Context, recipient primitive.ObjectID, page, limit int64, unreadOnly bool) ([]models.Notification, int64, error)
	UnreadCountFn  func(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	MarkAsReadFn   func(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error)
	MarkAllReadFn  func(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	DeleteExpireFn func(ctx context.Context) (int64, error)
}

func (f *fakeNotificationRepo) CreateNotification(ctx context.Context, notif *models.Notification) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, notif)
	}
	f.Stored = append(f.Stored, notif)
	return nil
}

func (f *fakeNotificationRepo) ListForRecipient(ctx context.Context, recipient primitive.ObjectID, page, limit int64, unreadOnly bool) ([]models.Notification, int64, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx, recipient, page, limit, unreadOnly)
	}
	return []models.Notification{}, 0, nil
}

func (f *fakeNotificationRepo) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	if f.UnreadCountFn != nil {
		return f.UnreadCountFn(ctx, recipient)
	}
	return 0, nil
}

func (f *fakeNotificationRepo) MarkAsRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	if f.MarkAsReadFn != nil {
		return f.MarkAsReadFn(ctx, id, recipient)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	if f.MarkAllReadFn != nil {
		return f.MarkAllReadFn(ctx, recipient)
	}
	return 0, nil
}

func (f *fakeNotificationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if f.DeleteExpireFn != nil {
		return f.DeleteExpireFn(ctx)
	}
	return 0, nil
}

// fakePostRepo implements repository.PostRepository.
type fakePostRepo struct {
	CreatePostFn  func(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByIDFn func(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	FeedFn        func(ctx context.Context, page, limit int64) ([]models.Post, int64, error)
	DeletePostFn  func(ctx context.Context, id primitive.ObjectID) error
	AddCommentFn  func(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error
	ToggleLikeFn  func(ctx context.Context, postID, userID primitive.ObjectID) (bool, error)
	SetPinnedFn   func(ctx context.Context, id primitive.ObjectID, pinned bool) error
}

func (f *fakePostRepo) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if f.CreatePostFn != nil {
		return f.CreatePostFn(ctx, post)
	}
	post.ID = primitive.NewObjectID()
	return post, nil
}

func (f *fakePostRepo) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	if f.GetPostByIDFn != nil {
		return f.GetPostByIDFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakePostRepo) Feed(ctx context.Context, page, limit int64) ([]models.Post, int64, error) {
	if f.FeedFn != nil {
		return f.FeedFn(ctx, page, limit)
	}
	return []models.Post{}, 0, nil
}

func (f *fakePostRepo) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	if f.DeletePostFn != nil {
		return f.DeletePostFn(ctx, id)
	}
	return nil
}

func (f *fakePostRepo) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error {
	if f.AddCommentFn != nil {
		return f.AddCommentFn(ctx, postID, comment)
	}
	return nil
}

func (f *fakePostRepo) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	if f.ToggleLikeFn != nil {
		return f.ToggleLikeFn(ctx, postID, userID)
	}
	return true, nil
}

func (f *fakePostRepo) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	if f.SetPinnedFn != nil {
		return f.SetPinnedFn(ctx, id, pinned)
	}
	return nil
}

// fakeMailer satisfies EmailSender.
type fakeMailer struct {
	Sent []string
	Err  error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, to)
	return nil
}
