package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hirelens/joinscore/internal/store"
)

// ErrInvalidToken covers expired, malformed, and wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload carried on authenticated requests.
type Claims struct {
	UserID    string     `json:"user_id"`
	CompanyID string     `json:"company_id"`
	Role      store.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies access tokens.
type Manager struct {
	secret []byte
	expiry time.Duration
}

// NewManager creates a token manager with the given signing secret and
// token lifetime.
func NewManager(secret string, expiry time.Duration) *Manager {
	return &Manager{secret: []byte(secret), expiry: expiry}
}

// CreateToken issues a signed token for the user.
func (m *Manager) CreateToken(u *store.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    u.UserID,
		CompanyID: u.CompanyID,
		Role:      u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a signed token.
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type contextKey string

const claimsKey contextKey = "authClaims"

// ClaimsFromContext returns the claims attached by Middleware, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// Middleware rejects requests without a valid Bearer token. If roles are
// given, the token's role must be one of them.
func (m *Manager) Middleware(roles ...store.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := m.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if len(roles) > 0 && !roleAllowed(claims.Role, roles) {
				http.Error(w, "insufficient role", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func roleAllowed(role store.Role, allowed []store.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
