package handlers

import (
	"net/http"

	"github.com/deenverse/deenverse/internal/services"
	"github.com/deenverse/deenverse/pkg/httputil"
	"github.com/deenverse/deenverse/pkg/logger"
	"github.com/deenverse/deenverse/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler exposes a user's notification inbox.
type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// ListHandler returns one page of the caller's notifications, newest first.
// ?unread=true restricts the page to unread ones.
func (h *NotificationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	page, limit := httputil.ParsePagination(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, total, err := h.Service.GetNotifications(r.Context(), userID, page, limit, unreadOnly)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list notifications")
		httputil.Error(w, http.StatusInternalServerError, "Failed to retrieve notifications")
		return
	}
	httputil.Paged(w, http.StatusOK, notifications, page, limit, total)
}

// UnreadCountHandler returns how many unread notifications the caller has.
func (h *NotificationHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	count, err := h.Service.UnreadCount(r.Context(), userID)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "Failed to count notifications")
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}

// MarkReadHandler marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	notifID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	notif, err := h.Service.MarkNotificationAsRead(r.Context(), notifID, userID)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, notif)
}

// MarkAllReadHandler marks every unread notification of the caller as read.
func (h *NotificationHandler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	modified, err := h.Service.MarkAllRead(r.Context(), userID)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "Failed to mark notifications as read")
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]int64{"marked_read": modified})
}
