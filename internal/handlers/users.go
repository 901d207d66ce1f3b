package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Zllawi/bassmaStore/internal/platform/auth"
	"github.com/Zllawi/bassmaStore/internal/platform/httpx"
	"github.com/Zllawi/bassmaStore/internal/services"
)

// UserAdminHandlers exposes back-office account administration.
type UserAdminHandlers struct {
	users services.UserService
	guard AuthMiddleware
}

// NewUserAdminHandlers constructs the account administration handler set.
func NewUserAdminHandlers(users services.UserService, guard AuthMiddleware) *UserAdminHandlers {
	return &UserAdminHandlers{users: users, guard: guard}
}

// Routes registers the admin-only account endpoints.
func (h *UserAdminHandlers) Routes(r chi.Router) {
	r.Use(h.guard.RequireAuth())
	r.Use(h.guard.RequireRole(auth.RoleAdmin))
	r.Get("/", h.list)
	r.Patch("/{userID}", h.update)
	r.Delete("/{userID}", h.delete)
}

func (h *UserAdminHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	users, err := h.users.ListUsers(ctx, limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]userPayload, 0, len(users))
	for _, user := range users {
		payload = append(payload, buildUserPayload(user))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *UserAdminHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "user id is required", http.StatusBadRequest))
		return
	}

	var req updateProfileRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	user, err := h.users.UpdateUser(ctx, userID, services.UpdateProfileCommand{
		Name:               req.Name,
		Phone:              req.Phone,
		City:               req.City,
		Region:             req.Region,
		AddressDescription: req.AddressDescription,
		Password:           req.Password,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildUserPayload(user))
}

func (h *UserAdminHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "user id is required", http.StatusBadRequest))
		return
	}

	if err := h.users.DeleteUser(ctx, userID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
