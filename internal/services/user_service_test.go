package services

import (
	"context"
	"errors"
	"testing"

	"github.com/deenverse/deenverse/internal/apperrors"
	"github.com/deenverse/deenverse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterUser_HashesPasswordAndSendsVerification(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewUserService(&fakeUserRepo{}, mailer, "http://localhost:8080")

	user, err := svc.RegisterUser(context.Background(), &models.User{
		Username: "fatima",
		Email:    "Fatima@Example.com",
	}, "secret123")
	require.NoError(t, err)

	assert.Equal(t, "fatima@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsVerified)
	assert.NotEmpty(t, user.VerifyToken)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("secret123")))
	assert.Equal(t, []string{"fatima@example.com"}, mailer.Sent)
}

func TestRegisterUser_Validation(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{}, &fakeMailer{}, "")

	cases := []struct {
		name string
		user models.User
		pwd  string
	}{
		{"missing email", models.User{Username: "a"}, "pwd"},
		{"missing username", models.User{Email: "a@b.com"}, "pwd"},
		{"missing password", models.User{Username: "a", Email: "a@b.com"}, ""},
		{"bad email", models.User{Username: "a", Email: "not-an-email"}, "pwd"},
		{"admin role rejected", models.User{Username: "a", Email: "a@b.com", Role: models.RoleAdmin}, "pwd"},
	}
	for _, tc := range cases {
		u := tc.user
		_, err := svc.RegisterUser(context.Background(), &u, tc.pwd)
		assert.ErrorIs(t, err, apperrors.ErrInvalidOperation, tc.name)
	}
}

func TestRegisterUser_EmailFailureDoesNotFailRegistration(t *testing.T) {
	mailer := &fakeMailer{Err: errors.New("smtp unreachable")}
	svc := NewUserService(&fakeUserRepo{}, mailer, "")

	_, err := svc.RegisterUser(context.Background(), &models.User{
		Username: "omar",
		Email:    "omar@example.com",
	}, "secret123")
	assert.NoError(t, err)
}

func TestAuthenticateUser(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	stored := &models.User{
		ID:             primitive.NewObjectID(),
		Email:          "fatima@example.com",
		HashedPassword: string(hash),
		IsActive:       true,
	}
	repo := &fakeUserRepo{
		GetUserByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, apperrors.ErrNotFound
		},
	}
	svc := NewUserService(repo, &fakeMailer{}, "")

	user, err := svc.AuthenticateUser(context.Background(), "fatima@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)

	_, err = svc.AuthenticateUser(context.Background(), "fatima@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = svc.AuthenticateUser(context.Background(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	stored.IsActive = false
	_, err = svc.AuthenticateUser(context.Background(), "fatima@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestVerifyEmail_TeacherStaysUnverifiedUntilAdmin(t *testing.T) {
	teacher := &models.User{
		ID:          primitive.NewObjectID(),
		Role:        models.RoleTeacher,
		VerifyToken: "tok-1",
	}

	var applied map[string]interface{}
	repo := &fakeUserRepo{
		GetByVerifyTokenFn: func(ctx context.Context, token string) (*models.User, error) {
			if token == teacher.VerifyToken {
				return teacher, nil
			}
			return nil, apperrors.ErrNotFound
		},
		UpdateUserFn: func(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
			applied = update
			return teacher, nil
		},
	}
	svc := NewUserService(repo, &fakeMailer{}, "")

	require.NoError(t, svc.VerifyEmail(context.Background(), "tok-1"))
	_, verified := applied["is_verified"]
	assert.False(t, verified, "teacher verification is an admin action")

	err := svc.VerifyEmail(context.Background(), "bogus")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVerifyTeacher(t *testing.T) {
	teacherID := primitive.NewObjectID()
	studentID := primitive.NewObjectID()

	repo := &fakeUserRepo{
		GetUserByIDFn: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
			if id == teacherID {
				return &models.User{ID: id, Role: models.RoleTeacher}, nil
			}
			return &models.User{ID: id, Role: models.RoleStudent}, nil
		},
		UpdateUserFn: func(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
			assert.Equal(t, map[string]interface{}{"is_verified": true}, update)
			return &models.User{ID: id, Role: models.RoleTeacher, IsVerified: true}, nil
		},
	}
	svc := NewUserService(repo, &fakeMailer{}, "")

	user, err := svc.VerifyTeacher(context.Background(), teacherID)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	_, err = svc.VerifyTeacher(context.Background(), studentID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOperation)
}

func TestUpdateProfile_WhitelistsFields(t *testing.T) {
	var applied map[string]interface{}
	repo := &fakeUserRepo{
		UpdateUserFn: func(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
			applied = update
			return &models.User{ID: id}, nil
		},
	}
	svc := NewUserService(repo, &fakeMailer{}, "")

	_, err := svc.UpdateProfile(context.Background(), primitive.NewObjectID(), map[string]interface{}{
		"username":          "new_name",
		"bio":               "seeker of knowledge",
		"role":              "admin",
		"connections_count": 9999,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"username": "new_name",
		"bio":      "seeker of knowledge",
	}, applied)

	_, err = svc.UpdateProfile(context.Background(), primitive.NewObjectID(), map[string]interface{}{
		"role": "admin",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOperation)
}

func TestSearchUsers_EmptyQueryShortCircuits(t *testing.T) {
	repo := &fakeUserRepo{
		SearchUsersFn: func(ctx context.Context, query string, limit int64) ([]models.User, error) {
			t.Fatal("repository must not be hit for an empty query")
			return nil, nil
		},
	}
	svc := NewUserService(repo, &fakeMailer{}, "")

	users, err := svc.SearchUsers(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, users)
}
