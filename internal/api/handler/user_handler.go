package handler

import (
	"errors"
	"net/http"

	"github.com/blaisecz/smart-sleep/internal/api/validation"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/service"
	"github.com/blaisecz/smart-sleep/pkg/problem"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// UserHandler serves sleeper registration and profile endpoints.
type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create handles POST /v1/users
// @Summary Register a sleeper
// @Description Register a sleeper with a home timezone (defaults to UTC)
// @Tags users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User creation request"
// @Success 201 {object} domain.UserResponse
// @Failure 400 {object} problem.Problem
// @Failure 422 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeUserBody(w, r, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), &req)
	if err != nil {
		problem.InternalError("Failed to register user").Write(w, r)
		return
	}

	writeJSON(w, http.StatusCreated, user.ToResponse())
}

// GetByID handles GET /v1/users/{userId}
// @Summary Get a sleeper
// @Description Get a sleeper's profile by UUID
// @Tags users
// @Produce json
// @Param userId path string true "User ID" format(uuid)
// @Success 200 {object} domain.UserResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /users/{userId} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	user, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		writeUserError(w, r, err, "Failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, user.ToResponse())
}

// Update handles PATCH /v1/users/{userId}
// @Summary Change home timezone
// @Description Move a sleeper to another home timezone. Sessions already started keep their zone.
// @Tags users
// @Accept json
// @Produce json
// @Param userId path string true "User ID" format(uuid)
// @Param request body domain.UpdateUserRequest true "New timezone"
// @Success 200 {object} domain.UserResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 422 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /users/{userId} [patch]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		problem.BadRequest("Invalid user ID format").Write(w, r)
		return
	}

	var req domain.UpdateUserRequest
	if !decodeUserBody(w, r, &req) {
		return
	}

	user, err := h.service.UpdateTimezone(r.Context(), userID, &req)
	if err != nil {
		writeUserError(w, r, err, "Failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, user.ToResponse())
}

// decodeUserBody reads and validates a JSON body, writing the problem response on failure.
func decodeUserBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w, r)
		return false
	}
	if fieldErrors := validation.Validate(dst); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w, r)
		return false
	}
	return true
}

func writeUserError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, domain.ErrNotFound) {
		problem.NotFound("User not found").Write(w, r)
		return
	}
	problem.InternalError(fallback).Write(w, r)
}
