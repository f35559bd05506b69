package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/deenverse/deenverse/internal/config"
	"github.com/deenverse/deenverse/internal/models"
	"github.com/deenverse/deenverse/internal/services"
	"github.com/deenverse/deenverse/pkg/httputil"
	jwtutil "github.com/deenverse/deenverse/pkg/jwt"
	"github.com/deenverse/deenverse/pkg/logger"
	"github.com/deenverse/deenverse/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler handles HTTP requests related to accounts.
type UserHandler struct {
	Service           *services.UserService
	ConnectionService *services.ConnectionService
	Config            *config.Config
}

func NewUserHandler(service *services.UserService, connectionService *services.ConnectionService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		Service:           service,
		ConnectionService: connectionService,
		Config:            cfg,
	}
}

// RegisterUserHandler handles account registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Bio      string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	user := &models.User{
		Username: payload.Username,
		Email:    payload.Email,
		Role:     payload.Role,
		Bio:      payload.Bio,
	}

	createdUser, err := h.Service.RegisterUser(r.Context(), user, payload.Password)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to register user")
		httputil.DomainError(w, err)
		return
	}

	logger.Log.WithField("userID", createdUser.ID.Hex()).Info("User registered successfully")
	httputil.JSON(w, http.StatusCreated, createdUser)
}

// LoginUserHandler authenticates a user and issues a JWT.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		logger.Log.WithField("email", credentials.Email).Warn("Authentication failed")
		httputil.DomainError(w, err)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.Role, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to generate JWT token")
		httputil.Error(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// VerifyEmailHandler consumes an email verification token.
func (h *UserHandler) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.Error(w, http.StatusBadRequest, "Missing verification token")
		return
	}

	if err := h.Service.VerifyEmail(r.Context(), token); err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.Message(w, http.StatusOK, "Email verified successfully")
}

func (h *UserHandler) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.Service.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.Message(w, http.StatusOK, "Password reset email sent")
}

func (h *UserHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.Service.ResetPassword(r.Context(), payload.Token, payload.NewPassword); err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.Message(w, http.StatusOK, "Password reset successfully")
}

// GetMeHandler returns the authenticated user's own profile.
func (h *UserHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.Service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

// GetUserHandler returns another user's public profile, including the
// connection state between the caller and that user.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.Service.GetUser(r.Context(), userID.Hex())
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	result := map[string]interface{}{"user": user.Public()}

	callerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err == nil && callerID != userID {
		if state, err := h.ConnectionService.GetConnectionState(r.Context(), callerID, userID); err == nil && state != nil {
			result["connection"] = state
		}
	}

	httputil.JSON(w, http.StatusOK, result)
}

// UpdateUserHandler updates the caller's own profile.
func (h *UserHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	requestedUserID := mux.Vars(r)["id"]
	if requestedUserID != claims.UserID {
		logger.Log.Warnf("User %s attempted to update profile of %s", claims.UserID, requestedUserID)
		httputil.Error(w, http.StatusForbidden, "You can only update your own profile")
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.Service.UpdateProfile(r.Context(), userID, fields)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

// SearchUsersHandler searches active users by username.
func (h *UserHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.SearchUsers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "Failed to search users")
		return
	}

	results := make([]*models.PublicUser, 0, len(users))
	for i := range users {
		results = append(results, users[i].Public())
	}
	httputil.JSON(w, http.StatusOK, results)
}

// FollowHandler sends a peer connection request.
func (h *UserHandler) FollowHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	followerID, _ := primitive.ObjectIDFromHex(claims.UserID)

	request, err := h.ConnectionService.Follow(r.Context(), followerID, targetID)
	if err != nil {
		logger.Log.WithError(err).Warnf("Follow from %s to %s failed", claims.UserID, targetID.Hex())
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, request)
}

// UnfollowHandler tears down an accepted peer connection.
func (h *UserHandler) UnfollowHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := h.ConnectionService.Unfollow(r.Context(), userID, targetID); err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.Message(w, http.StatusOK, "Unfollowed successfully")
}

// AdminGetAllUsersHandler lists every account, paged. Admin only.
func (h *UserHandler) AdminGetAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.ParsePagination(r)

	users, total, err := h.Service.GetAllUsers(r.Context(), page, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch users")
		httputil.Error(w, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	httputil.Paged(w, http.StatusOK, users, page, limit, total)
}

// AdminDeactivateUserHandler soft-deletes an account. Admin only.
func (h *UserHandler) AdminDeactivateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.Service.DeactivateUser(r.Context(), userID); err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.Message(w, http.StatusOK, "User deactivated")
}

// AdminVerifyTeacherHandler marks a teacher account as verified. Admin only.
func (h *UserHandler) AdminVerifyTeacherHandler(w http.ResponseWriter, r *http.Request) {
	teacherID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.Service.VerifyTeacher(r.Context(), teacherID)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}
