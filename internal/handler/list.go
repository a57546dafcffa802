package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reeltrack/reeltrack/internal/auth"
	"github.com/reeltrack/reeltrack/internal/handler/dto"
	"github.com/reeltrack/reeltrack/internal/middleware"
	"github.com/reeltrack/reeltrack/internal/service"
)

// ListHandler handles HTTP requests for watchlists. Every route requires
// verified claims in the request context.
type ListHandler struct {
	users  *service.UserService
	lists  *service.ListService
	logger *slog.Logger
}

// NewListHandler creates a new ListHandler.
func NewListHandler(users *service.UserService, lists *service.ListService, logger *slog.Logger) *ListHandler {
	return &ListHandler{
		users:  users,
		lists:  lists,
		logger: logger,
	}
}

// Create handles POST /lists. The owner is always the caller; an ownerId in
// the body is ignored. The name is validated before the caller's user record
// is created on first use.
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustClaimsFromContext(r.Context())

	var req dto.CreateListRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name, err := service.NormalizeListName(req.Name)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	if _, err := h.users.GetOrCreate(r.Context(), claims.Subject, claims.Email); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	list, err := h.lists.Create(r.Context(), claims.Subject, name)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("list_created",
		slog.String("list_id", list.ListID),
		slog.String("uid", claims.Subject),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeJSON(w, http.StatusCreated, dto.ToListResponse(list))
}

// ListByUser handles GET /lists/user/{userId}. Callers may only read their
// own lists.
func (h *ListHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustClaimsFromContext(r.Context())

	userID := chi.URLParam(r, "userId")
	if userID != claims.Subject {
		h.logger.Warn("list access denied",
			slog.String("uid", claims.Subject),
			slog.String("requested_user_id", userID),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusForbidden, dto.CodeForbidden, "Forbidden: You can only access your own lists")
		return
	}

	lists, err := h.lists.ListByOwner(r.Context(), userID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToListResponses(lists))
}
