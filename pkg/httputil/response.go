package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/deenverse/deenverse/internal/apperrors"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PagedResponse additionally carries the paging metadata for list endpoints.
type PagedResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message,omitempty"`
	Data        interface{} `json:"data"`
	CurrentPage int64       `json:"currentPage"`
	TotalPages  int64       `json:"totalPages"`
	TotalItems  int64       `json:"totalItems"`
	HasNext     bool        `json:"hasNext"`
	HasPrev     bool        `json:"hasPrev"`
}

func write(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSON writes a successful envelope.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, Response{Success: true, Data: data})
}

// Message writes a successful envelope with a message and no data.
func Message(w http.ResponseWriter, status int, msg string) {
	write(w, status, Response{Success: true, Message: msg})
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	write(w, status, Response{Success: false, Message: msg})
}

// DomainError maps a domain error to its HTTP status and writes it.
func DomainError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	Error(w, status, msg)
}

// Paged writes a list envelope with paging metadata.
func Paged(w http.ResponseWriter, status int, data interface{}, page, limit, total int64) {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	write(w, status, PagedResponse{
		Success:     true,
		Data:        data,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1 && total > 0,
	})
}

// ParsePagination reads page/limit query parameters with sane bounds.
func ParsePagination(r *http.Request) (page, limit int64) {
	page, limit = 1, 10

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
