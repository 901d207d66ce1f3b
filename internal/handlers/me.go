package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/platform/auth"
	"github.com/Zllawi/bassmaStore/internal/platform/httpx"
	"github.com/Zllawi/bassmaStore/internal/services"
)

// MeHandlers exposes the authenticated user's profile and address book.
type MeHandlers struct {
	users services.UserService
	guard AuthMiddleware
}

// NewMeHandlers constructs the profile handler set.
func NewMeHandlers(users services.UserService, guard AuthMiddleware) *MeHandlers {
	return &MeHandlers{users: users, guard: guard}
}

// Routes registers the profile and address book endpoints.
func (h *MeHandlers) Routes(r chi.Router) {
	r.Use(h.guard.RequireAuth())
	r.Get("/", h.getProfile)
	r.Patch("/", h.updateProfile)
	r.Route("/addresses", func(r chi.Router) {
		r.Get("/", h.listAddresses)
		r.Post("/", h.createAddress)
		r.Patch("/{addressID}", h.updateAddress)
		r.Delete("/{addressID}", h.deleteAddress)
		r.Post("/{addressID}:default", h.setDefaultAddress)
	})
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || strings.TrimSpace(identity.UserID) == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(ctx, identity.UserID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildUserPayload(user))
}

type updateProfileRequest struct {
	Name               *string `json:"name"`
	Phone              *string `json:"phone"`
	City               *string `json:"city"`
	Region             *string `json:"region"`
	AddressDescription *string `json:"addressDescription"`
	Password           *string `json:"password"`
}

func (h *MeHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	user, err := h.users.UpdateProfile(ctx, identity.UserID, services.UpdateProfileCommand{
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

func (h *MeHandlers) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addresses, err := h.users.ListAddresses(ctx, identity.UserID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]addressPayload, 0, len(addresses))
	for _, addr := range addresses {
		payload = append(payload, buildAddressPayload(addr))
	}
	writeJSON(w, http.StatusOK, payload)
}

type addressRequest struct {
	Label              string `json:"label"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	City               string `json:"city"`
	Region             string `json:"region"`
	Address            string `json:"address"`
	AddressDescription string `json:"addressDescription"`
	IsDefault          bool   `json:"isDefault"`
}

func (req addressRequest) toDomain() domain.Address {
	return domain.Address{
		Label:              req.Label,
		Name:               req.Name,
		Phone:              req.Phone,
		City:               req.City,
		Region:             req.Region,
		Address:            req.Address,
		AddressDescription: req.AddressDescription,
		IsDefault:          req.IsDefault,
	}
}

func (h *MeHandlers) createAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	saved, err := h.users.CreateAddress(ctx, identity.UserID, req.toDomain())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+saved.ID)
	writeJSON(w, http.StatusCreated, buildAddressPayload(saved))
}

func (h *MeHandlers) updateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	var req addressRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	addr := req.toDomain()
	addr.ID = addressID
	saved, err := h.users.UpdateAddress(ctx, identity.UserID, addr)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildAddressPayload(saved))
}

func (h *MeHandlers) deleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	if err := h.users.DeleteAddress(ctx, identity.UserID, addressID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MeHandlers) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	saved, err := h.users.SetDefaultAddress(ctx, identity.UserID, addressID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildAddressPayload(saved))
}
