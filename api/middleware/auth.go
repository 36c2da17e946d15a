package middleware

import (
	"net/http"
	"strings"

	"github.com/isolele/isolele-backend/api/responses"
	pkgAuth "github.com/isolele/isolele-backend/pkg/auth"
	"github.com/isolele/isolele-backend/pkg/auth/session"
	"github.com/isolele/isolele-backend/pkg/config"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

// AuthParams configure how operator credentials are read and verified.
type AuthParams struct {
	JWT        config.JWTConfig
	CookieName string
	Sessions   session.AccessSessionChecker
	Logger     *logger.Logger
}

// Auth validates the bearer token or session cookie and seeds the request context with the claims.
func Auth(params AuthParams) func(http.Handler) http.Handler {
	return authenticate(params, true)
}

// OptionalAuth seeds the context when valid credentials are present and passes through otherwise.
func OptionalAuth(params AuthParams) func(http.Handler) http.Handler {
	return authenticate(params, false)
}

func authenticate(params AuthParams, required bool) func(http.Handler) http.Handler {
	logg := params.Logger
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(err error) {
				if required {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				next.ServeHTTP(w, r)
			}

			token := credentialFromRequest(r, params.CookieName)
			if token == "" {
				reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(params.JWT, token)
			if err != nil {
				reject(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if params.Sessions != nil {
				ok, err := params.Sessions.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := WithProfile(r.Context(), claims.ProfileID, claims.Role, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.ProfileID.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// credentialFromRequest prefers an Authorization bearer token over the session cookie.
func credentialFromRequest(r *http.Request, cookieName string) string {
	if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
		if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return raw
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
