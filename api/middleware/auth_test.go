package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ateliermoda/moda-backend/internal/identity"
	pkgAuth "github.com/ateliermoda/moda-backend/pkg/auth"
	"github.com/ateliermoda/moda-backend/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessionChecker struct {
	active bool
	err    error
}

func (s *stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return s.active, s.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "middleware-test-secret-key-material",
		Issuer:            "moda-test",
		ExpirationMinutes: 15,
	}
}

func mintToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "m@example.com",
	})
	require.NoError(t, err)
	return token
}

func TestAuthAcceptsValidBearerToken(t *testing.T) {
	userID := uuid.New()
	var seenUserID, seenAccessID string
	handler := Auth(testJWTConfig(), &stubSessionChecker{active: true}, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenUserID = UserIDFromContext(r.Context())
			seenAccessID = AccessIDFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, userID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), seenUserID)
	assert.NotEmpty(t, seenAccessID)
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	handler := Auth(testJWTConfig(), nil, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	handler := Auth(testJWTConfig(), &stubSessionChecker{active: false}, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		CookieName:   "moda_cart_session",
		CookieMaxAge: 720 * time.Hour,
	}
}

func TestCartOwnerPrefersAuthenticatedUser(t *testing.T) {
	userID := uuid.New()
	var owner identity.Identity
	handler := CartOwner(testJWTConfig(), testSessionConfig(), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner = OwnerFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, userID))
	req.AddCookie(&http.Cookie{Name: "moda_cart_session", Value: "sess-should-lose"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	gotUserID, ok := owner.UserID()
	require.True(t, ok)
	assert.Equal(t, userID, gotUserID)
}

func TestCartOwnerMintsGuestCookie(t *testing.T) {
	var owner identity.Identity
	handler := CartOwner(testJWTConfig(), testSessionConfig(), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner = OwnerFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	sessionKey, ok := owner.SessionKey()
	require.True(t, ok)
	assert.NotEmpty(t, sessionKey)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "moda_cart_session", cookies[0].Name)
	assert.Equal(t, sessionKey, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCartOwnerReusesExistingCookie(t *testing.T) {
	var owner identity.Identity
	handler := CartOwner(testJWTConfig(), testSessionConfig(), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner = OwnerFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "moda_cart_session", Value: "sess-existing"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	sessionKey, ok := owner.SessionKey()
	require.True(t, ok)
	assert.Equal(t, "sess-existing", sessionKey)
	assert.Empty(t, rec.Result().Cookies(), "no new cookie when one is presented")
}

func TestCartOwnerRejectsBadBearerToken(t *testing.T) {
	handler := CartOwner(testJWTConfig(), testSessionConfig(), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
