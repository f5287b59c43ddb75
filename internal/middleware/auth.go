// Package middleware provides the HTTP cross-cutting layers: authentication,
// CORS, rate limiting, request tracing and metrics.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
	"github.com/Gather-Network/conference_layer/internal/httputil"
	"github.com/Gather-Network/conference_layer/internal/logging"
)

// Auth validates bearer tokens and loads the caller identity into the
// request context.
type Auth struct {
	secret []byte
	log    *logging.Logger
}

// NewAuth creates the auth middleware.
func NewAuth(jwtSecret string, log *logging.Logger) *Auth {
	if log == nil {
		log = logging.NewLogger(nil)
	}
	return &Auth{secret: []byte(jwtSecret), log: log}
}

// Middleware rejects requests without a valid token.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.authenticate(r)
		if err != nil {
			a.log.LogSecurityEvent(r.Context(), "auth_failed", map[string]interface{}{
				"path":   r.URL.Path,
				"reason": err.Error(),
			})
			httputil.Unauthorized(w, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated callers that are not administrators.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logging.GetRole(r.Context()) != string(user.RoleAdmin) {
			httputil.WriteErrorResponse(w, r, http.StatusForbidden, "FORBIDDEN", "admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate parses the Authorization header and returns a context
// carrying the user id and role.
func (a *Auth) authenticate(r *http.Request) (context.Context, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("missing authorization header")
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header {
		return nil, fmt.Errorf("authorization header is not a bearer token")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return nil, fmt.Errorf("token missing user_id")
	}

	ctx := context.WithValue(r.Context(), logging.UserIDKey, userID)
	ctx = context.WithValue(ctx, logging.RoleKey, role)
	return ctx, nil
}
