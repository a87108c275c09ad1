package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ateliermoda/moda-backend/pkg/config"
	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret-key-material",
			Issuer:            "moda-test",
			ExpirationMinutes: 15,
		},
		Session: config.SessionConfig{CookieName: "moda_cart_session"},
	}
}

func TestRouterHealthAndMetricsEndpoints(t *testing.T) {
	router := New(Dependencies{Config: testConfig()})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Moda-Env"))

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "nil pingers are skipped")

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router := New(Dependencies{Config: testConfig()})

	for _, path := range []string{"/api/v1/users/me", "/api/v1/users/me/addresses"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterRequestIDHeader(t *testing.T) {
	router := New(Dependencies{Config: testConfig()})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
