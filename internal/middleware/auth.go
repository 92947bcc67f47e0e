package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"friendsvc/internal/auth"
)

type contextKey string

const (
	callerKey contextKey = "caller"
	claimsKey contextKey = "claims"
)

// Revocations is the denylist surface the middleware checks tokens against.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error)
}

// Authenticator rejects requests without a valid, unrevoked session bearer
// token and stores the caller's identity in the request context. Reset-purpose
// tokens are refused here: verifying an OTP must not open a session.
type Authenticator struct {
	keys    *auth.Keys
	revoked Revocations
	onError func(w http.ResponseWriter, status int, message string)
}

func NewAuthenticator(keys *auth.Keys, revoked Revocations, onError func(http.ResponseWriter, int, string)) *Authenticator {
	return &Authenticator{keys: keys, revoked: revoked, onError: onError}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			a.onError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := a.keys.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			a.onError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Purpose != auth.PurposeSession {
			a.onError(w, http.StatusUnauthorized, "token is not a session token")
			return
		}

		revoked, err := a.revoked.IsRevoked(r.Context(), claims.TokenID)
		if err != nil {
			a.onError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if revoked {
			a.onError(w, http.StatusUnauthorized, "token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, claims.UserID)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerID returns the authenticated caller's id from the request context.
func CallerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(callerKey).(uuid.UUID)
	return id, ok
}

// TokenClaims returns the verified claims from the request context.
func TokenClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}
