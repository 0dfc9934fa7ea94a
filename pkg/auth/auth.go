// Package auth implements the credential service: account registration with
// a hard account cap, password login, bearer token issuance on both, logout
// via a revocation list, and token verification for the HTTP middleware.
//
// Registration writes accounts to the primary store only; the mirror
// learns about accounts through the regular user resource endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/salonsync/salonsync/pkg/models"
)

// Sentinel errors the HTTP layer maps to status codes.
var (
	ErrMissingFields  = errors.New("username and password are required")
	ErrUserLimit      = errors.New("user limit reached")
	ErrUserExists     = errors.New("username already taken")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrDisabled       = errors.New("account is disabled")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenRevoked   = errors.New("token has been revoked")
)

// MaxUsers caps how many accounts can be registered.
const MaxUsers = 5

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

// UserStore is the slice of the primary store the credential service needs.
type UserStore interface {
	CountUsers(ctx context.Context) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// Claims is the token payload. UserID keeps the short "id" key so issued
// tokens stay compatible with earlier deployments.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and verifies bearer tokens.
type Service struct {
	users   UserStore
	revoked RevocationList
	secret  []byte

	// now is swappable for expiry tests.
	now func() time.Time
}

func NewService(users UserStore, revoked RevocationList, secret string) *Service {
	return &Service{
		users:   users,
		revoked: revoked,
		secret:  []byte(secret),
		now:     time.Now,
	}
}

// RegisterRequest carries the fields accepted at registration. Enabled is a
// pointer so an absent field defaults to true while an explicit false sticks.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Enabled  *bool  `json:"enabled"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// Register creates an account and signs the caller in, returning a bearer
// token alongside the new record. Fails with ErrUserLimit once MaxUsers
// accounts exist and with ErrUserExists when the username is taken.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, *models.User, error) {
	if req.Username == "" || req.Password == "" {
		return "", nil, ErrMissingFields
	}

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to count users: %w", err)
	}
	if count >= MaxUsers {
		return "", nil, ErrUserLimit
	}

	existing, err := s.users.FindUserByUsername(ctx, req.Username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if existing != nil {
		return "", nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	u := &models.User{
		Username: req.Username,
		Password: string(hash),
		Enabled:  enabled,
		Name:     req.Name,
		LastName: req.LastName,
		Phone:    req.Phone,
		Email:    req.Email,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return "", nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Login verifies the credentials and returns a signed bearer token. A
// disabled account fails with ErrDisabled even when the password is correct.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	if username == "" || password == "" {
		return "", nil, ErrMissingFields
	}

	u, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if u == nil {
		return "", nil, ErrBadCredentials
	}
	if !u.Enabled {
		return "", nil, ErrDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, ErrBadCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// issueToken signs a fresh bearer token for the account. Register and Login
// issue tokens of identical structure.
func (s *Service) issueToken(u *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Logout revokes the token. Verification is deliberately skipped: revoking a
// token that was never valid is harmless.
func (s *Service) Logout(token string) {
	s.revoked.Revoke(token)
}

// Authenticate verifies the bearer token and returns its claims.
func (s *Service) Authenticate(token string) (*Claims, error) {
	if s.revoked.IsRevoked(token) {
		return nil, ErrTokenRevoked
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
