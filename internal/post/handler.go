// AngelaMos | 2026
// handler.go

package post

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/postboard/internal/core"
	"github.com/carterperez-dev/templates/postboard/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/latest", h.Latest)
		r.Get("/{postID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/by-user", h.ListByUser)
			r.Post("/", h.Create)
			r.Put("/{postID}", h.Update)
			r.Delete("/{postID}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}

	h.writeList(w, r, ListParams{All: true, Limit: limit, Offset: offset})
}

// ListByUser requires exactly one of user_id, user_name or account_name.
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	h.writeList(w, r, ListParams{
		UserID:           q.Get("user_id"),
		OwnerName:        q.Get("user_name"),
		OwnerAccountName: q.Get("account_name"),
		Limit:            limit,
		Offset:           offset,
	})
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, params ListParams) {
	entries, err := h.service.ListPosts(r.Context(), params)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.Page(w, ToEntryResponses(entries), params.Limit, params.Offset, len(entries))
}

func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.LatestByUser(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.OK(w, ToPostResponse(post))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.OK(w, ToPostResponse(post))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	post, err := h.service.CreatePost(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.Title,
		req.Description,
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.Created(w, ToPostResponse(post))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	post, err := h.service.UpdatePost(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "postID"),
		req.ToPatch(),
	)
	if err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.OK(w, ToPostResponse(post))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.DeletePost(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "postID"),
	); err != nil {
		core.Fail(w, err, "post")
		return
	}

	core.NoContent(w)
}

func pageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	limit, offset := defaultListLimit, 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			core.BadRequest(w, "limit must be an integer")
			return 0, 0, false
		}
		limit = n
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			core.BadRequest(w, "offset must be an integer")
			return 0, 0, false
		}
		offset = n
	}

	return limit, offset, true
}
