package controllers

import (
	"net/http"
	"time"

	"github.com/isolele/isolele-backend/api/middleware"
	"github.com/isolele/isolele-backend/api/responses"
	"github.com/isolele/isolele-backend/api/validators"
	authsvc "github.com/isolele/isolele-backend/internal/auth"
	"github.com/isolele/isolele-backend/pkg/config"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

// TokenHeader carries the access token for clients that cannot hold cookies.
const TokenHeader = "X-Isolele-Token"

// AuthLogin verifies operator credentials and sets the session cookie.
func AuthLogin(svc authsvc.Service, cookie config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, sessionCookie(cookie, result.AccessToken, result.ExpiresAt))
		w.Header().Set(TokenHeader, result.AccessToken)
		responses.WriteSuccess(w, map[string]any{
			"profile":    result.Profile,
			"expires_at": result.ExpiresAt,
		})
	}
}

// AuthLogout revokes the presented session, if any, and clears the cookie.
func AuthLogout(svc authsvc.Service, cookie config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		http.SetCookie(w, sessionCookie(cookie, "", time.Time{}))
		responses.WriteNoContent(w)
	}
}

func AuthMe(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.Me(r.Context(), middleware.ProfileIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// sessionCookie builds the session cookie; a zero expiry deletes it.
func sessionCookie(cfg config.SessionConfig, value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if expires.IsZero() {
		c.MaxAge = -1
		return c
	}
	c.Expires = expires
	c.MaxAge = int(time.Until(expires).Seconds())
	return c
}
