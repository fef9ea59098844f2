// AngelaMos | 2026
// handler_test.go

package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/postboard/internal/authz"
	"github.com/carterperez-dev/templates/postboard/internal/middleware"
)

func asUser(id, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithIdentity(r.Context(), authz.Identity{UserID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newUserRouter(svc *Service, id, role string) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	h.RegisterRoutes(r, asUser(id, role))
	h.RegisterAdminRoutes(r, asUser(id, role), middleware.RequireAdmin)
	return r
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestHandlerUpdateMeConflict(t *testing.T) {
	svc, _ := newTestService(newMemRepo(), nil)
	ctx := context.Background()

	a, err := svc.CreateUser(ctx, CreateUserInput{Email: "a@x.io", Name: "A", AccountName: strPtr("alpha")})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateUserInput{Email: "b@x.io", Name: "B", AccountName: strPtr("bravo")})
	require.NoError(t, err)

	h := newUserRouter(svc, a.ID, RoleUser)

	w := send(h, http.MethodPut, "/users/me", `{"account_name":"bravo"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "account_name already exists")

	w = send(h, http.MethodPut, "/users/me", `{"account_name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(h, http.MethodPut, "/users/me", `{"name":"Alpha Prime"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alpha Prime")
}

func TestHandlerDeletedProfileIsNotFound(t *testing.T) {
	svc, _ := newTestService(newMemRepo(), nil)

	u, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email: "a@x.io", Name: "A", AccountName: strPtr("alpha"),
	})
	require.NoError(t, err)

	h := newUserRouter(svc, u.ID, RoleUser)

	w := send(h, http.MethodGet, "/users/alpha", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "a@x.io")

	assert.Equal(t, http.StatusNoContent, send(h, http.MethodDelete, "/users/me", "").Code)
	assert.Equal(t, http.StatusNotFound, send(h, http.MethodGet, "/users/alpha", "").Code)
	assert.Equal(t, http.StatusNotFound, send(h, http.MethodGet, "/users/me", "").Code)
}

func TestHandlerAdminRoutes(t *testing.T) {
	svc, _ := newTestService(newMemRepo(), nil)
	ctx := context.Background()

	admin, err := svc.CreateUser(ctx, CreateUserInput{Email: "root@x.io", Name: "Root"})
	require.NoError(t, err)
	target, err := svc.CreateUser(ctx, CreateUserInput{Email: "t@x.io", Name: "T"})
	require.NoError(t, err)

	member := newUserRouter(svc, target.ID, RoleUser)
	assert.Equal(t, http.StatusForbidden, send(member, http.MethodGet, "/admin/users/"+admin.ID, "").Code)

	h := newUserRouter(svc, admin.ID, RoleAdmin)

	w := send(h, http.MethodPut, "/admin/users/"+target.ID+"/role", `{"role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(h, http.MethodPut, "/admin/users/"+target.ID+"/role", `{"role":"admin"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	assert.Equal(t, http.StatusForbidden, send(h, http.MethodDelete, "/admin/users/"+admin.ID, "").Code)
	assert.Equal(t, http.StatusNoContent, send(h, http.MethodDelete, "/admin/users/"+target.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, send(h, http.MethodDelete, "/admin/users/"+target.ID, "").Code)
}

type recordingCloser struct{ closed int }

func (c *recordingCloser) CloseSession(w http.ResponseWriter, _ *http.Request) error {
	c.closed++
	http.SetCookie(w, &http.Cookie{Name: "session", MaxAge: -1})
	return nil
}

func TestHandlerDeleteMeClosesSession(t *testing.T) {
	svc, _ := newTestService(newMemRepo(), nil)

	u, err := svc.CreateUser(context.Background(), CreateUserInput{Email: "a@x.io", Name: "A"})
	require.NoError(t, err)

	closer := &recordingCloser{}
	h := NewHandler(svc).WithSessionCloser(closer)
	r := chi.NewRouter()
	h.RegisterRoutes(r, asUser(u.ID, RoleUser))

	w := send(r, http.MethodDelete, "/users/me", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, closer.closed)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=")

	w = send(r, http.MethodDelete, "/users/me", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, closer.closed)
}
