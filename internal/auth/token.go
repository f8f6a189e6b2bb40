package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/timmy/gemstore/internal/config"
)

// Roles carried in the token's role claim.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

const defaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail signature, expiry or issuer checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload: the subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager from auth configuration.
// Parameters:
//   - cfg: auth settings; the secret must be non-empty.
// Returns:
//   - *TokenManager: initialized manager.
//   - error: non-nil when no secret is configured.
func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("auth: jwt_secret is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenManager{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for userID with the given role.
func (m *TokenManager) Issue(userID, role string) (string, error) {
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its principal.
func (m *TokenManager) Parse(tokenString string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Principal{UserID: claims.Subject, Role: claims.Role}, nil
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored in ctx, or nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
