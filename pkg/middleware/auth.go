package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hienohelma/storefront/pkg/logger"
)

type contextKeyType string

const claimsKey contextKeyType = "customer_claims"

// Claims are the customer token claims the service reads. The customer id
// comes from "customer_id" when present, otherwise from "sub".
type Claims struct {
	CustomerID string `json:"customer_id,omitempty"`
	Email      string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Subject returns the customer id carried by the token.
func (c *Claims) Subject() string {
	if c.CustomerID != "" {
		return c.CustomerID
	}
	return c.RegisteredClaims.Subject
}

// JWTConfig configures customer token validation.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	// Leeway tolerates clock skew on exp/nbf.
	Leeway time.Duration
}

// ErrMissingToken is returned when no bearer token is present.
var ErrMissingToken = errors.New("missing bearer token")

// TokenParser validates HS256 customer tokens.
type TokenParser struct {
	cfg    JWTConfig
	parser *jwt.Parser
}

// NewTokenParser builds a parser that only accepts HMAC-SHA256 signatures.
func NewTokenParser(cfg JWTConfig) *TokenParser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &TokenParser{cfg: cfg, parser: jwt.NewParser(opts...)}
}

// Parse validates the token and returns its claims.
func (p *TokenParser) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := p.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(p.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject() == "" {
		return nil, errors.New("parse token: no customer id claim")
	}
	return claims, nil
}

// Sign issues a token for the given claims. Used by tests and local tooling.
func (p *TokenParser) Sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.Secret))
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}

// RequireCustomer rejects requests without a valid customer token with 401
// and stores the claims in the context otherwise.
func RequireCustomer(p *TokenParser, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
				return
			}
			claims, err := p.Parse(token)
			if err != nil {
				l.WarnContext(r.Context(), "invalid customer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalCustomer attaches claims when a valid token is present and lets
// anonymous requests through. A token that is present but invalid is still
// rejected.
func OptionalCustomer(p *TokenParser, l *slog.Logger) func(http.Handler) http.Handler {
	require := RequireCustomer(p, l)
	return func(next http.Handler) http.Handler {
		authed := require(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			authed.ServeHTTP(w, r)
		})
	}
}

func withClaims(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, c)
	return logger.WithCustomerID(ctx, c.Subject())
}

// ClaimsFromContext returns the customer claims, or nil for anonymous
// requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// CustomerIDFromContext returns the authenticated customer id, or "".
func CustomerIDFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.Subject()
	}
	return ""
}
