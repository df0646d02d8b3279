package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"freshgrocer/internal/domain"
	"freshgrocer/internal/repos"
	"freshgrocer/internal/validate"
)

var ErrBadCreds = errors.New("invalid username or password")

const TokenTTL = 24 * time.Hour

type AuthService struct {
	Users  *repos.UserRepo
	Secret []byte
}

func NewAuthService(users *repos.UserRepo, secret string) *AuthService {
	return &AuthService{Users: users, Secret: []byte(secret)}
}

// RegisterInput mirrors the signup form.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
	Role      string
}

// Register creates a user and profile. Unknown roles become CUSTOMER.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name, ok := validate.Username(in.Username)
	if !ok {
		return nil, domain.Invalid("username", "username must be 3-32 letters, digits or ._@+-")
	}
	email := ""
	if strings.TrimSpace(in.Email) != "" {
		if email, ok = validate.Email(in.Email); !ok {
			return nil, domain.Invalid("email", "invalid email address")
		}
	}
	if !validate.Password(in.Password) {
		return nil, domain.Invalid("password", "password must be 8-72 characters")
	}
	if in.Password != in.Password2 {
		return nil, domain.Invalid("password2", "passwords do not match")
	}
	role := domain.ParseRole(in.Role)
	if role != domain.RoleFarmer {
		role = domain.RoleCustomer
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{ID: uuid.NewString(), Username: name, Email: email, Hash: string(hash), Role: role}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks credentials without touching any session.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.Users.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, sid, username, password string) (*domain.User, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.StartSession(ctx, sid, u); err != nil {
		return nil, err
	}
	return u, nil
}

// StartSession binds an already authenticated user to sid.
func (s *AuthService) StartSession(ctx context.Context, sid string, u *domain.User) error {
	return s.Users.BindSession(ctx, sid, u.ID)
}

// Logout detaches the user from sid and empties the session cart.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

// IssueToken signs an HS256 token whose subject is the user id.
func (s *AuthService) IssueToken(u *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// UserFromToken verifies a bearer token and loads its subject.
func (s *AuthService) UserFromToken(ctx context.Context, raw string) (*domain.User, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	u, err := s.Users.ByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	return u, err
}
