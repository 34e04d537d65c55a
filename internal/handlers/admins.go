package handlers

import (
	"net/http"

	"jamwathq/internal/api"
	"jamwathq/internal/apperr"
	"jamwathq/internal/auth"
	"jamwathq/internal/middleware"
	"jamwathq/internal/models"

	"github.com/go-chi/chi/v5"
)

var ErrSelfModification = apperr.New(apperr.Conflict, "You cannot deactivate or demote your own account")

type AdminsHandler struct {
	admins *auth.AdminService
}

func NewAdminsHandler(admins *auth.AdminService) *AdminsHandler {
	return &AdminsHandler{admins: admins}
}

func (h *AdminsHandler) List(r *http.Request) (*api.Response, error) {
	admins, err := h.admins.List(r.Context())
	if err != nil {
		return nil, err
	}
	return api.OK(map[string]any{"count": len(admins), "admins": admins}), nil
}

type createAdminRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
}

func (h *AdminsHandler) Create(r *http.Request) (*api.Response, error) {
	var req createAdminRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		return nil, err
	}

	admin, err := h.admins.Create(r.Context(), auth.CreateAdminInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		return nil, err
	}
	return api.Created("Admin created", map[string]any{"admin": admin}), nil
}

type updateAdminRequest struct {
	FirstName *string      `json:"firstName"`
	LastName  *string      `json:"lastName"`
	Role      *models.Role `json:"role"`
	IsActive  *bool        `json:"isActive"`
	Password  *string      `json:"password"`
}

func (h *AdminsHandler) Update(r *http.Request) (*api.Response, error) {
	id := chi.URLParam(r, "id")

	var req updateAdminRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		return nil, err
	}

	if current := middleware.GetAdmin(r); current != nil && current.ID == id {
		if (req.IsActive != nil && !*req.IsActive) || (req.Role != nil && *req.Role != current.Role) {
			return nil, ErrSelfModification
		}
	}

	admin, err := h.admins.Update(r.Context(), id, auth.UpdateAdminInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		IsActive:  req.IsActive,
		Password:  req.Password,
	})
	if err != nil {
		return nil, err
	}
	return &api.Response{Status: http.StatusOK, Message: "Admin updated", Data: map[string]any{"admin": admin}}, nil
}

func (h *AdminsHandler) Unlock(r *http.Request) (*api.Response, error) {
	id := chi.URLParam(r, "id")
	if err := h.admins.Unlock(r.Context(), id); err != nil {
		return nil, err
	}
	admin, err := h.admins.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return &api.Response{Status: http.StatusOK, Message: "Admin unlocked", Data: map[string]any{"admin": admin}}, nil
}
