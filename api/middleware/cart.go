package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/logger"
)

// CartTokenHeader lets non-browser clients carry the cart token explicitly.
const CartTokenHeader = "X-Cart-Token"

// CartCookie describes the anonymous cart cookie.
type CartCookie struct {
	Name   string
	TTL    time.Duration
	Domain string
	Secure bool
}

// CartToken resolves the anonymous cart token from the header or cookie, minting
// one when absent or malformed, and refreshes the cookie on every response.
func CartToken(cookie CartCookie, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(CartTokenHeader))
			if token == "" {
				if c, err := r.Cookie(cookie.Name); err == nil {
					token = strings.TrimSpace(c.Value)
				}
			}
			if _, err := uuid.Parse(token); err != nil {
				token = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cookie.Name,
				Value:    token,
				Path:     "/",
				Domain:   cookie.Domain,
				MaxAge:   int(cookie.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(CartTokenHeader, token)

			ctx := WithCartToken(r.Context(), token)
			if logg != nil {
				ctx = logg.WithCartToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
