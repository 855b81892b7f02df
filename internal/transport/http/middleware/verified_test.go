package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobboard-api/internal/domain"
	jwtinfra "github.com/jobboard-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

type stubUserGetter struct {
	user *domain.User
	err  error
}

func (s *stubUserGetter) Get(_ context.Context, _ string) (*domain.User, error) {
	return s.user, s.err
}

func verifiedReq(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	return req.WithContext(WithClaims(req.Context(), &jwtinfra.Claims{UserID: userID}))
}

func TestRequireVerified_NoClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	RequireVerified(&stubUserGetter{})(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireVerified_AccountGone(t *testing.T) {
	users := &stubUserGetter{err: domain.ErrNotFound}
	rr := httptest.NewRecorder()
	RequireVerified(users)(http.HandlerFunc(okHandler)).ServeHTTP(rr, verifiedReq("u1"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireVerified_Unverified(t *testing.T) {
	users := &stubUserGetter{user: &domain.User{UserID: "u1", Enable: true}}
	rr := httptest.NewRecorder()
	RequireVerified(users)(http.HandlerFunc(okHandler)).ServeHTTP(rr, verifiedReq("u1"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireVerified_Verified(t *testing.T) {
	users := &stubUserGetter{user: &domain.User{UserID: "u1", Enable: true, EmailVerified: true}}
	rr := httptest.NewRecorder()
	RequireVerified(users)(http.HandlerFunc(okHandler)).ServeHTTP(rr, verifiedReq("u1"))
	assert.Equal(t, http.StatusOK, rr.Code)
}
