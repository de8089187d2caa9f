package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/avksport/server/api/rest/auth"
	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/accounts"
	authz "codeberg.org/avksport/server/internal/auth"
)

type adminFixture struct {
	router   *gin.Engine
	users    *users.MemoryStore
	sessions *sessions.MemoryStore
	admin    string
	customer string
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := authz.NewIssuer("admin-test-secret", 0, 0)
	require.NoError(t, err)

	f := &adminFixture{users: users.NewMemoryStore(), sessions: sessions.NewMemoryStore()}
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.users.Create(ctx, &users.User{ID: "admin", Email: "admin@avk-sport.ru", Role: users.RoleAdmin, IsActive: true, CreatedAt: now}))
	require.NoError(t, f.users.Create(ctx, &users.User{ID: "cust", Email: "cust@avk.ru", Role: users.RoleCustomer, IsActive: true, CreatedAt: now.Add(time.Second)}))

	f.admin, err = issuer.IssueAccess("admin", "admin@avk-sport.ru")
	require.NoError(t, err)

	f.customer, err = issuer.IssueAccess("cust", "cust@avk.ru")
	require.NoError(t, err)

	svc := accounts.NewService(accounts.Deps{Users: f.users, Sessions: f.sessions, Issuer: issuer})
	gate := authz.NewGate(issuer, f.users, nil, nil, "session_token")

	f.router = gin.New()
	RegisterRoutes(f.router.Group("/api"), svc, gate)

	return f
}

func (f *adminFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	return w
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	f := newAdminFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/api/admin/users", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, "GET", "/api/admin/users", f.customer, nil).Code)
}

func TestListUsers(t *testing.T) {
	f := newAdminFixture(t)

	w := f.do(t, "GET", "/api/admin/users?limit=1", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp UserListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Len(t, resp.Users, 1)
	assert.Equal(t, int64(2), resp.Pagination.Total)
	assert.True(t, resp.Pagination.HasMore)
}

func TestSetRole(t *testing.T) {
	f := newAdminFixture(t)

	w := f.do(t, "PUT", "/api/admin/users/cust/role", f.admin, gin.H{"role": "employee"})
	require.Equal(t, http.StatusOK, w.Code)

	var view auth.UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, users.RoleStaff, view.Role)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "PUT", "/api/admin/users/cust/role", f.admin, gin.H{"role": "owner"}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "PUT", "/api/admin/users/ghost/role", f.admin, gin.H{"role": "staff"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "PUT", "/api/admin/users/admin/role", f.admin, gin.H{"role": "customer"}).Code)
}

func TestSetStatus(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sessions.Create(ctx, &sessions.Session{
		ID: "s", UserID: "cust", SessionToken: "cookie", ExpiresAt: time.Now().Add(time.Hour),
	}))

	assert.Equal(t, http.StatusBadRequest, f.do(t, "PUT", "/api/admin/users/cust/status", f.admin, gin.H{}).Code)

	w := f.do(t, "PUT", "/api/admin/users/cust/status", f.admin, gin.H{"disabled": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, f.sessions.Count())

	// the disabled customer's token no longer passes the gate
	assert.Equal(t, http.StatusForbidden, f.do(t, "GET", "/api/admin/users", f.customer, nil).Code)

	u, err := f.users.FindByID(ctx, "cust")
	require.NoError(t, err)
	assert.True(t, u.Disabled())

	assert.Equal(t, http.StatusBadRequest, f.do(t, "PUT", "/api/admin/users/admin/status", f.admin, gin.H{"disabled": true}).Code)
}

func TestDeleteUser(t *testing.T) {
	f := newAdminFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "DELETE", "/api/admin/users/admin", f.admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/api/admin/users/cust", f.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "DELETE", "/api/admin/users/cust", f.admin, nil).Code)
	assert.Equal(t, 1, f.users.Count())
}
