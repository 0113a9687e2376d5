package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// Claims es la identidad que el frontend ya autenticó (Clerk) y reenvía en headers.
type Claims struct {
	UserID    string
	Email     string
	Username  string
	FirstName string
	LastName  string
}

// AuthContext:
// - X-User-ID identifica al usuario; X-Debug-User-ID sirve igual en modo dev.
// - X-User-Email, X-User-Name, X-User-First-Name y X-User-Last-Name son opcionales.
// - Si no hay user id, el request sigue igual; los handlers decidirán si exigen auth.
func AuthContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if uid == "" {
				uid = strings.TrimSpace(r.Header.Get("X-Debug-User-ID"))
			}
			if uid == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims := Claims{
				UserID:    uid,
				Email:     strings.TrimSpace(r.Header.Get("X-User-Email")),
				Username:  strings.TrimSpace(r.Header.Get("X-User-Name")),
				FirstName: strings.TrimSpace(r.Header.Get("X-User-First-Name")),
				LastName:  strings.TrimSpace(r.Header.Get("X-User-Last-Name")),
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return Claims{}, false
	}
	c, ok := v.(Claims)
	return c, ok
}
