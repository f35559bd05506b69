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

// ImaamHandler exposes the teacher directory and the student-teacher
// connection workflow.
type ImaamHandler struct {
	UserService       *services.UserService
	ConnectionService *services.ConnectionService
}

func NewImaamHandler(userService *services.UserService, connectionService *services.ConnectionService) *ImaamHandler {
	return &ImaamHandler{
		UserService:       userService,
		ConnectionService: connectionService,
	}
}

// ListImaamsHandler returns one page of verified, active teachers.
func (h *ImaamHandler) ListImaamsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.ParsePagination(r)

	teachers, total, err := h.UserService.ListTeachers(r.Context(), page, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list imaams")
		httputil.Error(w, http.StatusInternalServerError, "Failed to retrieve imaams")
		return
	}

	results := make([]interface{}, 0, len(teachers))
	for i := range teachers {
		results = append(results, teachers[i].Public())
	}
	httputil.Paged(w, http.StatusOK, results, page, limit, total)
}

// ConnectHandler sends a connection request from the authenticated student
// to the imaam named in the path.
func (h *ImaamHandler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	teacherID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid imaam ID")
		return
	}
	requesterID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if r.Body != nil {
		// The message is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&payload)
		defer r.Body.Close()
	}

	request, err := h.ConnectionService.RequestConnection(r.Context(), requesterID, teacherID, payload.Message)
	if err != nil {
		logger.Log.WithError(err).Warnf("Connection request from %s to %s failed", claims.UserID, teacherID.Hex())
		httputil.DomainError(w, err)
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"requester": claims.UserID,
		"imaam":     teacherID.Hex(),
	}).Info("Connection request sent")
	httputil.JSON(w, http.StatusCreated, request)
}

// PendingRequestsHandler lists the requests awaiting the authenticated
// teacher's decision. Teacher only.
func (h *ImaamHandler) PendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	recipientID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	page, limit := httputil.ParsePagination(r)

	requests, total, err := h.ConnectionService.GetPendingRequests(r.Context(), recipientID, page, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list pending connection requests")
		httputil.Error(w, http.StatusInternalServerError, "Failed to retrieve connection requests")
		return
	}
	httputil.Paged(w, http.StatusOK, requests, page, limit, total)
}

// AcceptRequestHandler accepts a pending request addressed to the caller.
func (h *ImaamHandler) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	connectionID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid connection ID")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	request, err := h.ConnectionService.Accept(r.Context(), connectionID, userID)
	if err != nil {
		logger.Log.WithError(err).Warnf("Accept of connection %s by %s failed", connectionID.Hex(), claims.UserID)
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, request)
}

// RejectRequestHandler rejects a pending request addressed to the caller.
func (h *ImaamHandler) RejectRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httputil.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	connectionID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid connection ID")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	request, err := h.ConnectionService.Reject(r.Context(), connectionID, userID)
	if err != nil {
		logger.Log.WithError(err).Warnf("Reject of connection %s by %s failed", connectionID.Hex(), claims.UserID)
		httputil.DomainError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, request)
}
