// Package auth signs operators, programmers and administrators in and carries
// their identity through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/edmtrack/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const issuer = "edmtrack"

// Principal is the signed-in user.
type Principal struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Can reports whether the principal holds one of roles. Administrators can do anything.
func (p Principal) Can(roles ...string) bool {
	if p.Role == store.RoleAdmin {
		return true
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Users looks accounts up by email.
type Users interface {
	UserByEmail(ctx context.Context, email string) (store.User, error)
}

// Service validates credentials and issues HS256 bearer tokens.
type Service struct {
	users  Users
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

// NewService returns a Service signing with secret; tokens live for ttl.
func NewService(users Users, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{users: users, secret: []byte(secret), ttl: ttl, Now: time.Now}
}

type claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
}

// Login checks the password and returns a token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, Principal, error) {
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", time.Time{}, Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, Principal{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", time.Time{}, Principal{}, ErrInvalidCredentials
	}
	p := Principal{Email: u.Email, Name: u.Name, Role: u.Role}
	token, expires, err := s.Issue(p)
	if err != nil {
		return "", time.Time{}, Principal{}, err
	}
	return token, expires, p, nil
}

// Issue signs a token for p.
func (s *Service) Issue(p Principal) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("token secret not configured")
	}
	now := s.Now()
	expires := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Name: p.Name,
		Role: p.Role,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a bearer token and returns its principal.
func (s *Service) Verify(token string) (Principal, error) {
	if len(s.secret) == 0 {
		return Principal{}, errors.New("token secret not configured")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.Now),
	)
	c := &claims{}
	parsed, err := parser.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if !parsed.Valid || c.Subject == "" || !store.ValidRole(c.Role) {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{Email: c.Subject, Name: c.Name, Role: c.Role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
