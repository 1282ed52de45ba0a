// Package auth guards the form endpoints with HS256 bearer tokens. Verified
// claims are exposed to visibility rules as extras ("subject", "roles").
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-formkit/pkg/reactive"
	"github.com/goliatone/go-formkit/pkg/visibility"
)

var ErrMissingToken = errors.New("auth: missing bearer token")

// Claims are the token claims.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// Extras returns the claims as visibility extras.
func (c *Claims) Extras() map[string]any {
	roles := make([]any, len(c.Roles))
	for i, role := range c.Roles {
		roles[i] = role
	}
	return map[string]any{"subject": c.Subject, "roles": roles}
}

// Sign issues a token for subject valid for ttl.
func Sign(subject string, roles []string, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims.
func Parse(token, secret string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	return claims, nil
}

// bearer extracts the token from an Authorization header value.
func bearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("auth: invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// Authenticate verifies the request's bearer token.
func Authenticate(r *http.Request, secret string) (*Claims, error) {
	token, err := bearer(r.Header.Get("Authorization"))
	if err != nil {
		return nil, reactive.StatusError{Code: http.StatusUnauthorized, Err: err}
	}
	claims, err := Parse(token, secret)
	if err != nil {
		return nil, reactive.StatusError{Code: http.StatusUnauthorized, Err: err}
	}
	return claims, nil
}

// Guard rejects requests without a valid token with 401.
func Guard(secret string) reactive.GuardFunc {
	return func(r *http.Request) error {
		_, err := Authenticate(r, secret)
		return err
	}
}

// RequireRole extends Guard with a role check answered by 403.
func RequireRole(secret, role string) reactive.GuardFunc {
	return func(r *http.Request) error {
		claims, err := Authenticate(r, secret)
		if err != nil {
			return err
		}
		for _, have := range claims.Roles {
			if have == role {
				return nil
			}
		}
		return reactive.StatusError{Code: http.StatusForbidden, Err: fmt.Errorf("auth: role %q required", role)}
	}
}

type claimsKey struct{}

// WithClaims attaches claims and their extras to ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey{}, claims)
	extras := map[string]any{}
	for k, v := range visibility.ExtrasFrom(ctx) {
		extras[k] = v
	}
	for k, v := range claims.Extras() {
		extras[k] = v
	}
	return visibility.WithExtras(ctx, extras)
}

// FromContext returns the claims stored by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Middleware authenticates requests and stores the claims in the request
// context. Unauthenticated requests get 401.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := Authenticate(r, secret)
			if err != nil {
				code := reactive.GuardStatus(err)
				http.Error(w, http.StatusText(code), code)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// FiberMiddleware is Middleware for Fiber routes. Claims travel in the user
// context.
func FiberMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing auth token")
		}
		claims, err := Parse(token, secret)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}
		c.SetUserContext(WithClaims(c.UserContext(), claims))
		return c.Next()
	}
}
