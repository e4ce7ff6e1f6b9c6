package httpx

import (
	"context"
	"net/http"
)

// Session issuance lives upstream; the authenticating proxy injects the
// caller identity as headers and this layer only checks their presence.
const (
	headerUserID = "X-User-Id"
	headerSeller = "X-Seller"
)

type ctxKey int

const ctxUserID ctxKey = 1

func AuthUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get(headerUserID)
		if uid == "" {
			fail(w, http.StatusUnauthorized, "Not Authorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserID, uid)))
	})
}

func AuthSeller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerSeller) != "true" {
			fail(w, http.StatusUnauthorized, "Not Authorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserID returns the authenticated user id placed by AuthUser.
func UserID(r *http.Request) string {
	uid, _ := r.Context().Value(ctxUserID).(string)
	return uid
}
