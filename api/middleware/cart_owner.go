package middleware

import (
	"net/http"
	"strings"

	"github.com/ateliermoda/moda-backend/api/responses"
	"github.com/ateliermoda/moda-backend/internal/identity"
	"github.com/ateliermoda/moda-backend/pkg/config"
	pkgerrors "github.com/ateliermoda/moda-backend/pkg/errors"
	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/google/uuid"
)

// CartOwner resolves who the cart belongs to. A valid bearer token wins;
// otherwise the guest session cookie is used, minting one on first touch.
// Carts must work for anonymous shoppers, so unlike Auth this never rejects.
func CartOwner(jwtCfg config.JWTConfig, sessionCfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				claims, err := claimsFromRequest(r, jwtCfg)
				if err != nil {
					// a presented-but-bad token is rejected, not downgraded to guest
					responses.WriteError(ctx, logg, w, err)
					return
				}
				owner, err := identity.User(claims.UserID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token subject"))
					return
				}
				ctx = WithUserID(ctx, claims.UserID.String())
				ctx = WithOwner(ctx, owner)
				if logg != nil {
					ctx = logg.WithUserID(ctx, claims.UserID.String())
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			sessionKey := guestSessionKey(r, sessionCfg)
			if sessionKey == "" {
				sessionKey = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCfg.CookieName,
					Value:    sessionKey,
					Path:     "/",
					MaxAge:   int(sessionCfg.CookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   sessionCfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			owner, err := identity.Guest(sessionKey)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session"))
				return
			}
			ctx = WithOwner(ctx, owner)
			if logg != nil {
				ctx = logg.WithSessionKey(ctx, sessionKey)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuestSessionKey reads the guest cart cookie, empty when absent.
func GuestSessionKey(r *http.Request, cfg config.SessionConfig) string {
	return guestSessionKey(r, cfg)
}

func guestSessionKey(r *http.Request, cfg config.SessionConfig) string {
	cookie, err := r.Cookie(cfg.CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
