package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jobboard-api/internal/config"
	"github.com/jobboard-api/internal/domain"
	jwtinfra "github.com/jobboard-api/internal/infrastructure/jwt"
	"github.com/jobboard-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}

func (m *mockUserSvc) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.User), args.String(1), args.Error(2)
}

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserSvc) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return m.Called(ctx, userID, currentPassword, newPassword).Error(0)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given userID and role.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, userID, role string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign(userID, userID+"@example.com", role)
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

// --- Register tests ---

func TestRegister_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockUserSvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_ValidationFailure(t *testing.T) {
	h := NewAuthHandler(&mockUserSvc{})
	body, _ := json.Marshal(domain.CreateUserRequest{Name: "Alice"}) // missing email and password
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRegister_ServiceConflict(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)
	h := NewAuthHandler(svc)
	body, _ := json.Marshal(domain.CreateUserRequest{
		Name: "Alice Smith", Email: "alice@example.com", Password: "Password123",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusConflict, rr.Code)
	svc.AssertExpectations(t)
}

func TestRegister_HappyPath(t *testing.T) {
	svc := &mockUserSvc{}
	u := &domain.User{UserID: "u1", Name: "Alice Smith", Email: "alice@example.com", Role: domain.RoleUser}
	svc.On("Register", mock.Anything, mock.Anything).Return(u, nil)
	h := NewAuthHandler(svc)
	body, _ := json.Marshal(domain.CreateUserRequest{
		Name: "Alice Smith", Email: "alice@example.com", Password: "Password123",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	svc.AssertExpectations(t)
}

// --- Login tests ---

func TestLogin_BadCredentials(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Authenticate", mock.Anything, mock.Anything).Return(nil, "", domain.ErrUnauthorized)
	h := NewAuthHandler(svc)
	body, _ := json.Marshal(domain.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogin_HappyPath(t *testing.T) {
	svc := &mockUserSvc{}
	u := &domain.User{UserID: "u1", Email: "alice@example.com"}
	svc.On("Authenticate", mock.Anything, mock.Anything).Return(u, "bearer-token", nil)
	h := NewAuthHandler(svc)
	body, _ := json.Marshal(domain.LoginRequest{Email: "alice@example.com", Password: "Password123"})
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "bearer-token", resp.Bearer)
	svc.AssertExpectations(t)
}

// --- Get tests ---

func TestGet_NotOwnerOrAdmin(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	h := NewUserHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/users/u2", "u1", domain.RoleUser, nil)
	r = withChiID(r, "u2")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Get), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGet_Self(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "u1@example.com"}, nil)
	h := NewUserHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/users/u1", "u1", domain.RoleUser, nil)
	r = withChiID(r, "u1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Get), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestGet_Admin_ReadsOtherUser(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "u2").Return(&domain.User{UserID: "u2"}, nil)
	h := NewUserHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/users/u2", "admin1", domain.RoleAdmin, nil)
	r = withChiID(r, "u2")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Get), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- Update tests ---

func TestUpdate_MissingClaims(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	r := withChiID(httptest.NewRequest(http.MethodPut, "/v1/users/u1", nil), "u1")
	rr := httptest.NewRecorder()
	h.Update(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdate_NotOwnerOrAdmin(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewUserHandler(&mockUserSvc{})

	r := bearerReq(t, p, http.MethodPut, "/v1/users/u2", "u1", domain.RoleUser, nil)
	r = withChiID(r, "u2") // u1 trying to update u2
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdate_NonAdmin_CannotSetRole(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewUserHandler(&mockUserSvc{})
	role := domain.RoleAdmin
	body, _ := json.Marshal(domain.UpdateUserRequest{Role: &role})

	r := bearerReq(t, p, http.MethodPut, "/v1/users/u1", "u1", domain.RoleUser, body)
	r = withChiID(r, "u1") // self-update but with role field
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdate_HappyPath_SelfUpdate(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	updated := &domain.User{UserID: "u1", Name: "Alice B", Email: "alice@example.com"}
	svc.On("Update", mock.Anything, "u1", mock.Anything).Return(updated, nil)
	h := NewUserHandler(svc)
	newName := "Alice B"
	body, _ := json.Marshal(domain.UpdateUserRequest{Name: &newName})

	r := bearerReq(t, p, http.MethodPut, "/v1/users/u1", "u1", domain.RoleUser, body)
	r = withChiID(r, "u1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp domain.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Alice B", resp.Name)
	svc.AssertExpectations(t)
}

func TestUpdate_Admin_CanSetRole(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	updated := &domain.User{UserID: "u2", Name: "Bob", Role: domain.RoleAdmin}
	svc.On("Update", mock.Anything, "u2", mock.Anything).Return(updated, nil)
	h := NewUserHandler(svc)
	newRole := domain.RoleAdmin
	body, _ := json.Marshal(domain.UpdateUserRequest{Role: &newRole})

	r := bearerReq(t, p, http.MethodPut, "/v1/users/u2", "admin1", domain.RoleAdmin, body)
	r = withChiID(r, "u2")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- Delete tests ---

func TestDelete_NotOwnerOrAdmin(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewUserHandler(&mockUserSvc{})

	r := bearerReq(t, p, http.MethodDelete, "/v1/users/u2", "u1", domain.RoleUser, nil)
	r = withChiID(r, "u2")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Delete), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDelete_Admin_DeletesOtherUser(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Delete", mock.Anything, "u2").Return(nil)
	h := NewUserHandler(svc)

	r := bearerReq(t, p, http.MethodDelete, "/v1/users/u2", "admin1", domain.RoleAdmin, nil)
	r = withChiID(r, "u2")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Delete), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- ChangePassword tests ---

func TestChangePassword_InvalidBody(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewAuthHandler(&mockUserSvc{})
	body, _ := json.Marshal(map[string]string{"current_password": "old"}) // missing new_password

	r := bearerReq(t, p, http.MethodPost, "/v1/auth/change-password", "u1", domain.RoleUser, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.ChangePassword), rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestChangePassword_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("ChangePassword", mock.Anything, "u1", "OldPass123", "NewPass123").Return(nil)
	h := NewAuthHandler(svc)
	body, _ := json.Marshal(ChangePasswordRequest{CurrentPassword: "OldPass123", NewPassword: "NewPass123"})

	r := bearerReq(t, p, http.MethodPost, "/v1/auth/change-password", "u1", domain.RoleUser, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.ChangePassword), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
