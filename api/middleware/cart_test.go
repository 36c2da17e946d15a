package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCartTokenMintsWhenMissing(t *testing.T) {
	var seen string
	handler := CartToken(CartCookie{Name: "isolele_cart", TTL: time.Hour}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartTokenFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected minted uuid token, got %q", seen)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != seen || !cookies[0].HttpOnly {
		t.Fatalf("expected http-only cart cookie carrying %q, got %+v", seen, cookies)
	}
	if rec.Header().Get(CartTokenHeader) != seen {
		t.Fatalf("expected token echoed in header")
	}
}

func TestCartTokenReusesCookieAndPrefersHeader(t *testing.T) {
	cookieToken := uuid.NewString()
	headerToken := uuid.NewString()
	var seen string
	handler := CartToken(CartCookie{Name: "isolele_cart", TTL: time.Hour}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartTokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "isolele_cart", Value: cookieToken})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != cookieToken {
		t.Fatalf("expected cookie token %s, got %s", cookieToken, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "isolele_cart", Value: cookieToken})
	req.Header.Set(CartTokenHeader, headerToken)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != headerToken {
		t.Fatalf("expected header token %s, got %s", headerToken, seen)
	}
}

func TestCartTokenReplacesMalformedValue(t *testing.T) {
	var seen string
	handler := CartToken(CartCookie{Name: "isolele_cart", TTL: time.Hour}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartTokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "isolele_cart", Value: "../../etc"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "../../etc" {
		t.Fatal("expected malformed token to be replaced")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid token, got %q", seen)
	}
}
