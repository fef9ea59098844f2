// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/postboard/internal/core"
	"github.com/carterperez-dev/templates/postboard/internal/middleware"
)

// SessionCloser ends the caller's session once their account is gone.
type SessionCloser interface {
	CloseSession(w http.ResponseWriter, r *http.Request) error
}

type Handler struct {
	service   *Service
	sessions  SessionCloser
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) WithSessionCloser(sessions SessionCloser) *Handler {
	h.sessions = sessions
	return h
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/{accountName}", h.GetProfile)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/me", h.GetMe)
			r.Put("/me", h.UpdateMe)
			r.Delete("/me", h.DeleteMe)
		})
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateUser(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.ToPatch(),
	)
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.DeleteUser(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		core.Fail(w, err, "user")
		return
	}

	if h.sessions != nil {
		if err := h.sessions.CloseSession(w, r); err != nil {
			slog.WarnContext(r.Context(), "revoke session after account deletion",
				"error", err,
			)
		}
	}

	core.NoContent(w)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByAccountName(r.Context(), chi.URLParam(r, "accountName"))
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToPublicUserResponse(user))
}

// RegisterAdminRoutes registers admin-only user management endpoints.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}/role", h.UpdateUserRole)
		r.Delete("/{userID}", h.DeleteUser)
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.SetRole(r.Context(), chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")

	if targetID == middleware.GetUserID(r.Context()) {
		core.Forbidden(w, "use DELETE /users/me to delete your own account")
		return
	}

	if _, err := h.service.DeleteUser(r.Context(), targetID); err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.NoContent(w)
}
