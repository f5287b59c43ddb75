// Package profiles handles accounts: signup, login, profile updates and the
// telegram contact link.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// Service manages user accounts and issues access tokens.
type Service struct {
	users     storage.UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *logger.Logger
	now       func() time.Time
}

// New creates the profiles service.
func New(users storage.UserStore, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("profiles")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
		now:       time.Now,
	}
}

// Signup registers a new account with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, email, name, password string) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, apperr.Validation("a valid email is required")
	}
	if name == "" {
		return user.User{}, apperr.Validation("name is required")
	}
	if len(password) < 8 {
		return user.User{}, apperr.Validation("password must be at least 8 characters")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return user.User{}, apperr.Conflict("an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return user.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, err
	}

	created, err := s.users.CreateUser(ctx, user.User{
		Email:        email,
		Name:         name,
		Role:         user.RoleUser,
		PasswordHash: string(hash),
	})
	if err != nil {
		return user.User{}, err
	}
	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// Login verifies credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, user.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return "", user.User{}, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return "", user.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", user.User{}, apperr.Unauthorized("invalid email or password")
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", user.User{}, err
	}
	s.log.WithField("user_id", u.ID).Info("user logged in")
	return token, u, nil
}

// Get returns one user by id.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, apperr.NotFound("user not found")
	}
	return u, err
}

// UpdateProfile changes the display name and telegram handle.
func (s *Service) UpdateProfile(ctx context.Context, id, name, telegramHandle string) (user.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return user.User{}, apperr.Validation("name is required")
	}
	u.Name = name
	u.TelegramHandle = strings.TrimPrefix(strings.TrimSpace(telegramHandle), "@")

	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	s.log.WithField("user_id", id).Info("profile updated")
	return updated, nil
}

// TelegramLink returns the t.me deep link for a user's handle, or "" when no
// handle is set.
func (s *Service) TelegramLink(u user.User) string {
	if u.TelegramHandle == "" {
		return ""
	}
	return "https://t.me/" + u.TelegramHandle
}

// issueToken signs an HS256 access token carrying the user id and role.
func (s *Service) issueToken(u user.User) (string, error) {
	now := s.now().UTC()
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    string(u.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperr.Internal("failed to sign token", err)
	}
	return signed, nil
}
