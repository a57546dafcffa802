// Package dto defines the JSON shapes of the HTTP API.
package dto

import (
	"time"

	"github.com/reeltrack/reeltrack/internal/model"
)

// TimeFormat renders timestamps as UTC RFC 3339 with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Error codes.
const (
	CodeNoCredential        = "NO_CREDENTIAL"
	CodeMalformedCredential = "MALFORMED_CREDENTIAL"
	CodeInvalidCredential   = "INVALID_CREDENTIAL"
	CodeCredentialExpired   = "CREDENTIAL_EXPIRED"
	CodeVerificationFailed  = "VERIFICATION_FAILED"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidJSON         = "INVALID_JSON"
	CodeMissingField        = "MISSING_FIELD"
	CodeNameTooLong         = "NAME_TOO_LONG"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeStorageError        = "STORAGE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeRateLimited         = "RATE_LIMITED"
	CodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeInternal            = "INTERNAL_ERROR"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateListRequest is the body of POST /lists. Any ownerId sent by the
// client is not decoded.
type CreateListRequest struct {
	Name string `json:"name"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	UserID    string `json:"userId"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// ListResponse represents a list in API responses.
type ListResponse struct {
	ListID    string `json:"listId"`
	OwnerID   string `json:"ownerId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// ProtectedResponse is returned by GET /api/protected.
type ProtectedResponse struct {
	Message string `json:"message"`
	UID     string `json:"uid"`
	Email   string `json:"email"`
}

// TestDBResponse is returned by GET /test-db.
type TestDBResponse struct {
	Success bool       `json:"success"`
	Data    TestDBData `json:"data"`
}

// TestDBData mirrors a table scan result.
type TestDBData struct {
	Items []*UserResponse `json:"items"`
	Count int             `json:"count"`
}

// RoutesResponse is returned by GET /debug-routes.
type RoutesResponse struct {
	Routes []Route `json:"routes"`
}

// Route is one registered method and path.
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ToUserResponse converts a User model to its DTO.
func ToUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		UserID:    u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

// ToListResponse converts a List model to its DTO.
func ToListResponse(l *model.List) *ListResponse {
	return &ListResponse{
		ListID:    l.ListID,
		OwnerID:   l.OwnerID,
		Name:      l.Name,
		CreatedAt: formatTime(l.CreatedAt),
	}
}

// ToListResponses converts lists, returning an empty slice for none.
func ToListResponses(lists []*model.List) []*ListResponse {
	out := make([]*ListResponse, 0, len(lists))
	for _, l := range lists {
		out = append(out, ToListResponse(l))
	}
	return out
}

// ToUserResponses converts users, returning an empty slice for none.
func ToUserResponses(users []*model.User) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}
