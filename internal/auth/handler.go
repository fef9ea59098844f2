// AngelaMos | 2026
// handler.go

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/postboard/internal/config"
	"github.com/carterperez-dev/templates/postboard/internal/core"
	"github.com/carterperez-dev/templates/postboard/internal/middleware"
	"github.com/carterperez-dev/templates/postboard/internal/user"
)

type Handler struct {
	service    *Service
	cookie     config.SessionConfig
	successURL string
}

func NewHandler(
	service *Service,
	cookie config.SessionConfig,
	successURL string,
) *Handler {
	return &Handler{
		service:    service,
		cookie:     cookie,
		successURL: successURL,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google", h.BeginGoogle)
		r.Get("/google/callback", h.GoogleCallback)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
		})
	})
}

func (h *Handler) BeginGoogle(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.BeginLogin(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if reason := q.Get("error"); reason != "" {
		core.Unauthorized(w, "google sign-in was not completed: "+reason)
		return
	}

	result, err := h.service.CompleteLogin(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		core.Fail(w, err, "session")
		return
	}

	h.setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)

	if h.successURL != "" {
		http.Redirect(w, r, h.successURL, http.StatusFound)
		return
	}

	core.OK(w, ToLoginResponse(result))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r, h.cookie.CookieName)

	if err := h.service.Logout(r.Context(), token); err != nil {
		core.Fail(w, err, "session")
		return
	}

	h.clearSessionCookie(w)
	core.NoContent(w)
}

// CloseSession revokes the request's session, if any, and clears the cookie.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) error {
	defer h.clearSessionCookie(w)

	token := middleware.ExtractToken(r, h.cookie.CookieName)
	if token == "" {
		return nil
	}

	return h.service.Logout(r.Context(), token)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.CurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.Fail(w, err, "user")
		return
	}

	core.OK(w, user.ToUserResponse(u))
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
