package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shopstream/internal/pkg/errs"
	"shopstream/internal/pkg/logx"
	"shopstream/internal/pkg/resp"
)

// Context key for storing the Identity, preventing collisions with other packages.
type contextKey string

const (
	// ContextIdentityKey is the key used to store the verified Identity in the request Context.
	ContextIdentityKey contextKey = "auth_identity"
)

// IdentityExtractorMiddleware attempts to extract and verify a bearer token
// from the request header. It injects the Identity into the Context upon
// success. It does NOT interrupt the request on failure or missing token,
// treating the caller as anonymous instead; route-level guards decide.
func IdentityExtractorMiddleware(verifier Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				code := errs.ErrTokenInvalid
				if errors.Is(err, ErrExpired) {
					code = errs.ErrTokenExpired
				}

				logx.Warn("Invalid or expired token provided, treating as anonymous", "error", err, "error_code", code)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextIdentityKey, identity)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext safely extracts the verified Identity from the request
// Context. The second return value is false for anonymous callers.
func IdentityFromContext(r *http.Request) (Identity, bool) {
	identity, ok := r.Context().Value(ContextIdentityKey).(Identity)
	return identity, ok
}

// RequireAdmin rejects requests whose identity is missing or not an admin.
// It guards the manual trigger endpoints and admin-only stats queries.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if identity.Role != RoleAdmin {
			resp.RespondError(w, r, errs.NewError(errs.ErrAdminRequired))
			return
		}

		next.ServeHTTP(w, r)
	})
}
