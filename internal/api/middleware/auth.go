package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayo6706/payment-notification/internal/api/problem"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	operatorContextKey contextKey = "operator"
	traceContextKey    contextKey = "trace_id"
)

// OperatorRole is the role claim required on operator routes.
const OperatorRole = "operator"

type operatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// OperatorAuth verifies HS256 bearer tokens issued to operators.
type OperatorAuth struct {
	secret   []byte
	issuer   string
	audience string
}

func NewOperatorAuth(secret, issuer, audience string) *OperatorAuth {
	return &OperatorAuth{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(issuer),
		audience: strings.TrimSpace(audience),
	}
}

// Middleware rejects requests without a valid operator token and stores the token
// subject in the request context.
func (a *OperatorAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, r, "auth/authorization-header-required", "Authorization header required")
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			unauthorized(w, r, "auth/invalid-token-format", "Invalid token format")
			return
		}
		if len(a.secret) == 0 {
			problem.Write(w, r, http.StatusInternalServerError, "auth/misconfigured", "auth is not configured")
			return
		}

		claims := &operatorClaims{}
		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
		if a.issuer != "" {
			opts = append(opts, jwt.WithIssuer(a.issuer))
		}
		if a.audience != "" {
			opts = append(opts, jwt.WithAudience(a.audience))
		}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return a.secret, nil
		}, opts...)
		if err != nil || !token.Valid {
			unauthorized(w, r, "auth/invalid-token", "Invalid token")
			return
		}
		if claims.Subject == "" {
			unauthorized(w, r, "auth/invalid-token-claims", "Invalid token claims")
			return
		}
		if claims.Role != OperatorRole {
			problem.Write(w, r, http.StatusForbidden, "auth/insufficient-permissions", "operator role required")
			return
		}

		ctx := context.WithValue(r.Context(), operatorContextKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, slug, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="payment-notification"`)
	problem.Write(w, r, http.StatusUnauthorized, slug, detail)
}

// OperatorFromContext returns the authenticated operator subject.
func OperatorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(operatorContextKey).(string); ok {
		return v
	}
	return ""
}

// TraceIDFromContext returns the trace id for the request.
func TraceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceContextKey).(string); ok {
		return v
	}
	return ""
}
