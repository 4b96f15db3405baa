// Package httpapi implements the HTTP+SSE front-end: it streams
// Orchestrator.OnUserMessage's hook-delta events as text/event-stream and
// exposes Prometheus metrics. The /chat and /tasks routes are gated behind
// bearer-token auth; /metrics and /healthz are not. Grounded in the
// teacher's internal/auth JWT service and
// internal/gateway HTTP server.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthDisabled indicates the server was built without a JWT secret, in
// which case auth is a no-op (used for local/dev runs).
var ErrAuthDisabled = errors.New("httpapi: auth disabled, no secret configured")

// ErrInvalidToken indicates a bearer token failed validation.
var ErrInvalidToken = errors.New("httpapi: invalid token")

// Claims is the JWT payload: just a subject identifying the operator.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService signs and validates bearer tokens for the HTTP front-end.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

// NewJWTService builds a JWTService. An empty secret disables auth.
func NewJWTService(secret string, expiry time.Duration) *JWTService {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &JWTService{secret: []byte(secret), expiry: expiry}
}

// Enabled reports whether a secret was configured.
func (s *JWTService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Generate issues a signed token for subject.
func (s *JWTService) Generate(subject string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiry)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a bearer token, returning its subject.
func (s *JWTService) Validate(token string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

type subjectKey struct{}

// WithSubject stores the authenticated subject in ctx.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFrom retrieves the authenticated subject from ctx, if any.
func SubjectFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey{}).(string)
	return s, ok
}

// RequireAuth wraps handler with bearer-token enforcement. When jwtSvc has
// no secret configured, auth is a no-op (local/dev mode).
func RequireAuth(jwtSvc *JWTService, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !jwtSvc.Enabled() {
			handler.ServeHTTP(w, r)
			return
		}
		token := extractBearer(r.Header.Get("Authorization"))
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		subject, err := jwtSvc.Validate(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}

func extractBearer(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
