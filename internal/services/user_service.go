package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/deenverse/deenverse/internal/apperrors"
	"github.com/deenverse/deenverse/internal/models"
	"github.com/deenverse/deenverse/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// EmailSender delivers outbound mail. Satisfied by pkg/email.Sender.
type EmailSender interface {
	Send(to, subject, body string) error
}

// UserService encapsulates the business logic for account operations.
type UserService struct {
	repo    repository.UserRepository
	mailer  EmailSender
	baseURL string
}

func NewUserService(repo repository.UserRepository, mailer EmailSender, baseURL string) *UserService {
	return &UserService{
		repo:    repo,
		mailer:  mailer,
		baseURL: baseURL,
	}
}

// RegisterUser registers a new account after hashing its password. Teachers
// start unverified until an admin confirms them.
func (s *UserService) RegisterUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	if user.Email == "" || user.Username == "" || password == "" {
		return nil, fmt.Errorf("%w: missing required user fields", apperrors.ErrInvalidOperation)
	}
	if !emailRegex.MatchString(user.Email) {
		return nil, fmt.Errorf("%w: invalid email format", apperrors.ErrInvalidOperation)
	}

	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if user.Role != models.RoleStudent && user.Role != models.RoleTeacher {
		return nil, fmt.Errorf("%w: invalid role", apperrors.ErrInvalidOperation)
	}

	user.Email = strings.ToLower(user.Email)

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	user.HashedPassword = string(hashedPwd)

	user.IsActive = true
	user.IsVerified = false
	user.ConnectionsCount = 0
	user.VerifyToken = uuid.NewString()

	createdUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	verificationLink := fmt.Sprintf("%s/users/verify?token=%s", s.baseURL, createdUser.VerifyToken)
	body := fmt.Sprintf("Welcome to DeenVerse!\n\nPlease verify your email by clicking the link below:\n%s", verificationLink)
	if err := s.mailer.Send(createdUser.Email, "Verify your DeenVerse account", body); err != nil {
		// Registration stands; the user can request a new link.
		logrus.WithError(err).Warnf("Failed to send verification email to %s", createdUser.Email)
	}

	logrus.WithFields(logrus.Fields{
		"userID": createdUser.ID.Hex(),
		"role":   createdUser.Role,
	}).Info("User registered successfully")

	return createdUser, nil
}

// AuthenticateUser verifies the email and password and returns the user if
// the credentials are valid.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Invalid credentials")
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthenticated)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", apperrors.ErrForbidden)
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// VerifyEmail consumes a verification token. Student accounts become
// verified immediately; teacher accounts additionally wait for an admin.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.repo.GetUserByVerifyToken(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired verification token", apperrors.ErrNotFound)
	}

	update := map[string]interface{}{
		"verify_token": "",
	}
	if user.Role != models.RoleTeacher {
		update["is_verified"] = true
	}

	if _, err := s.repo.UpdateUser(ctx, user.ID, update); err != nil {
		return fmt.Errorf("failed to update verification status: %v", err)
	}
	return nil
}

func (s *UserService) RequestPasswordReset(ctx context.Context, userEmail string) error {
	user, err := s.repo.GetUserByEmail(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("%w: no account found with this email", apperrors.ErrNotFound)
	}

	resetToken := uuid.NewString()
	update := map[string]interface{}{
		"reset_token":     resetToken,
		"reset_token_exp": time.Now().Add(1 * time.Hour),
	}
	if _, err := s.repo.UpdateUser(ctx, user.ID, update); err != nil {
		return fmt.Errorf("failed to save reset token: %v", err)
	}

	resetLink := fmt.Sprintf("%s/users/reset-password?token=%s", s.baseURL, resetToken)
	body := fmt.Sprintf("Click the link below to reset your password:\n\n%s", resetLink)
	if err := s.mailer.Send(user.Email, "Reset your DeenVerse password", body); err != nil {
		return fmt.Errorf("failed to send password reset email: %v", err)
	}

	logrus.Infof("Password reset email sent to %s", userEmail)
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.repo.GetUserByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired reset token", apperrors.ErrNotFound)
	}
	if time.Now().After(user.ResetTokenExp) {
		return fmt.Errorf("%w: reset token has expired", apperrors.ErrNotFound)
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	update := map[string]interface{}{
		"hashed_password": string(hashedPwd),
		"reset_token":     "",
		"reset_token_exp": time.Time{},
	}
	if _, err := s.repo.UpdateUser(ctx, user.ID, update); err != nil {
		return fmt.Errorf("failed to update password: %v", err)
	}
	return nil
}

// GetUser retrieves a user by their hex ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID", apperrors.ErrInvalidOperation)
	}
	return s.repo.GetUserByID(ctx, objID)
}

// UpdateProfile applies a whitelisted set of profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.User, error) {
	update := make(map[string]interface{})
	for _, key := range []string{"username", "bio", "avatar_url"} {
		if v, ok := fields[key]; ok {
			update[key] = v
		}
	}
	if len(update) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields supplied", apperrors.ErrInvalidOperation)
	}

	user, err := s.repo.UpdateUser(ctx, id, update)
	if err != nil {
		return nil, err
	}

	logrus.WithField("userID", id.Hex()).Info("User profile updated")
	return user, nil
}

// DeactivateUser soft-deletes an account. Accounts are never hard-deleted.
func (s *UserService) DeactivateUser(ctx context.Context, id primitive.ObjectID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	logrus.WithField("userID", id.Hex()).Info("User deactivated")
	return nil
}

func (s *UserService) ActivateUser(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.SetActive(ctx, id, true)
}

// VerifyTeacher marks a teacher account as verified by an admin, making it
// eligible to receive connection requests.
func (s *UserService) VerifyTeacher(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleTeacher {
		return nil, fmt.Errorf("%w: user is not a teacher", apperrors.ErrInvalidOperation)
	}

	return s.repo.UpdateUser(ctx, id, map[string]interface{}{"is_verified": true})
}

// ListTeachers returns one page of verified, active teachers.
func (s *UserService) ListTeachers(ctx context.Context, page, limit int64) ([]models.User, int64, error) {
	return s.repo.ListTeachers(ctx, page, limit)
}

func (s *UserService) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	return s.repo.SearchUsers(ctx, query, 20)
}

func (s *UserService) GetAllUsers(ctx context.Context, page, limit int64) ([]models.User, int64, error) {
	return s.repo.GetAllUsers(ctx, page, limit)
}

func (s *UserService) TouchLastActive(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.TouchLastActive(ctx, id)
}
