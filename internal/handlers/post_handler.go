package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/deenverse/deenverse/internal/services"
	"github.com/deenverse/deenverse/pkg/httputil"
	"github.com/deenverse/deenverse/pkg/logger"
	"github.com/deenverse/deenverse/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler exposes the content feed.
type PostHandler struct {
	Service *services.PostService
}

func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{Service: service}
}

// CreatePostHandler publishes a new post authored by the caller.
func (h *PostHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload struct {
		Body     string `json:"body"`
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	authorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	post, err := h.Service.CreatePost(r.Context(), authorID, payload.Body, payload.ImageURL)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to create post")
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, post)
}

// FeedHandler returns one page of the feed, pinned posts first.
func (h *PostHandler) FeedHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.ParsePagination(r)

	posts, total, err := h.Service.GetFeed(r.Context(), page, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to load feed")
		httputil.Error(w, http.StatusInternalServerError, "Failed to retrieve feed")
		return
	}
	httputil.Paged(w, http.StatusOK, posts, page, limit, total)
}

// GetPostHandler returns a single post with its comments.
func (h *PostHandler) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := h.Service.GetPost(r.Context(), postID)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, post)
}

// DeletePostHandler removes a post. The author or an admin only.
func (h *PostHandler) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	actorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.Service.DeletePost(r.Context(), postID, actorID, claims.Role); err != nil {
		logger.Log.WithError(err).Warnf("Delete of post %s by %s failed", postID.Hex(), claims.UserID)
		httputil.DomainError(w, err)
		return
	}
	httputil.Message(w, http.StatusOK, "Post deleted")
}

// AddCommentHandler appends a comment to a post.
func (h *PostHandler) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	authorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	comment, err := h.Service.AddComment(r.Context(), postID, authorID, payload.Text)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, comment)
}

// ToggleLikeHandler flips the caller's like on a post.
func (h *PostHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	liked, err := h.Service.ToggleLike(r.Context(), postID, userID)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// PinPostHandler pins or unpins a post in the feed. Admin only.
func (h *PostHandler) PinPostHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var payload struct {
		Pinned bool `json:"pinned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.Service.SetPinned(r.Context(), postID, payload.Pinned); err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.Message(w, http.StatusOK, "Post pin state updated")
}
