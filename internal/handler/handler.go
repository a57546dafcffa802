// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/reeltrack/reeltrack/internal/auth"
	"github.com/reeltrack/reeltrack/internal/handler/dto"
	"github.com/reeltrack/reeltrack/internal/middleware"
	"github.com/reeltrack/reeltrack/internal/service"
)

// RootMessage is the plain-text body of GET /.
const RootMessage = "Backend running with Firebase Authentication"

// Handler serves the endpoints that have no domain dependencies.
type Handler struct {
	logger *slog.Logger
}

// New creates a new Handler instance.
func New(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, RootMessage)
}

// Protected handles GET /api/protected. It echoes the verified identity.
func (h *Handler) Protected(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, dto.ProtectedResponse{
		Message: "Access granted",
		UID:     claims.Subject,
		Email:   claims.Email,
	})
}

// DebugRoutes lists every registered method and path.
// GET /debug-routes
func (h *Handler) DebugRoutes(routes chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out []dto.Route
		err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			out = append(out, dto.Route{Method: method, Path: route})
			return nil
		})
		if err != nil {
			h.logger.Error("walk routes failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, dto.CodeInternal, "Internal server error")
			return
		}

		sort.Slice(out, func(i, j int) bool {
			if out[i].Path != out[j].Path {
				return out[i].Path < out[j].Path
			}
			return out[i].Method < out[j].Method
		})
		writeJSON(w, http.StatusOK, dto.RoutesResponse{Routes: out})
	}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, dto.CodeNotFound, "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, dto.CodeMethodNotAllowed, "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched. It writes the error response itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, dto.CodePayloadTooLarge, "Request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, dto.CodeInvalidJSON, "Invalid request body")
	return false
}

// handleServiceError maps service errors to HTTP responses. Anything that is
// not a known validation or lookup error is a storage failure and is
// reported with its message.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, dto.CodeUserNotFound, "User not found")
	case errors.Is(err, service.ErrUsernameRequired),
		errors.Is(err, service.ErrEmailRequired),
		errors.Is(err, service.ErrListNameRequired),
		errors.Is(err, service.ErrSubjectRequired),
		errors.Is(err, service.ErrOwnerRequired):
		writeError(w, http.StatusBadRequest, dto.CodeMissingField, capitalize(err.Error()))
	case errors.Is(err, service.ErrListNameTooLong):
		writeError(w, http.StatusBadRequest, dto.CodeNameTooLong, capitalize(err.Error()))
	default:
		logger.Error("storage error",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, dto.CodeStorageError, err.Error())
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
