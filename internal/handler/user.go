package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reeltrack/reeltrack/internal/handler/dto"
	"github.com/reeltrack/reeltrack/internal/middleware"
	"github.com/reeltrack/reeltrack/internal/service"
)

// UserHandler handles HTTP requests for the user directory.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /users. This is the legacy path: the new user gets a
// random id unrelated to any identity provider subject.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Create(r.Context(), req.Username, req.Email)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("user_created",
		slog.String("user_id", user.UserID),
		slog.String("source", "legacy"),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Get handles GET /users/{userId}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// TestDB handles GET /test-db. It scans the users table to prove the store
// is reachable.
func (h *UserHandler) TestDB(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ScanUsers(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	items := dto.ToUserResponses(users)
	writeJSON(w, http.StatusOK, dto.TestDBResponse{
		Success: true,
		Data:    dto.TestDBData{Items: items, Count: len(items)},
	})
}
