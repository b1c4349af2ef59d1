// Package auth creates accounts and verifies credentials against the profile
// store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/illegalcall/mentor-tracker/internal/apperr"
	"github.com/illegalcall/mentor-tracker/internal/config"
	"github.com/illegalcall/mentor-tracker/internal/models"
	"github.com/illegalcall/mentor-tracker/internal/store"
)

const TokenType = "Bearer"

type Service struct {
	store store.Accessor
	jwt   config.JWTConfig
}

func NewService(accessor store.Accessor, cfg config.JWTConfig) *Service {
	return &Service{store: accessor, jwt: cfg}
}

// Signup creates a profile with zero points and a hashed password.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (models.Profile, error) {
	const op = "auth.signup"

	req.Email = models.NormalizeEmail(req.Email)
	if msg := ValidateStruct(req); msg != "" {
		return models.Profile{}, apperr.Invalid(op, msg, nil)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return models.Profile{}, apperr.Invalid(op, fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes), err)
		}
		return models.Profile{}, fmt.Errorf("failed to hash password: %w", err)
	}

	p, err := s.store.InsertOne(ctx, models.Profile{
		Email:        req.Email,
		FullName:     req.FullName,
		AccountType:  req.AccountType,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Profile{}, apperr.Conflict(op, "User already exists", err)
		}
		return models.Profile{}, apperr.Store(op, err)
	}

	slog.Info("User signed up", "email", p.Email, "accountType", p.AccountType)
	return p, nil
}

// Login checks the password and issues a signed token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	const op = "auth.login"

	req.Email = models.NormalizeEmail(req.Email)
	if msg := ValidateStruct(req); msg != "" {
		return models.LoginResponse{}, apperr.Invalid(op, msg, nil)
	}

	slog.Info("Authentication attempt", "email", req.Email)

	p, err := s.store.FindOne(ctx, store.Where(models.FieldEmail, req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.LoginResponse{}, apperr.Unauthorized(op, "Invalid credentials")
		}
		return models.LoginResponse{}, apperr.Store(op, err)
	}
	if p.PasswordHash == "" || !VerifyPassword(p.PasswordHash, req.Password) {
		return models.LoginResponse{}, apperr.Unauthorized(op, "Invalid credentials")
	}

	token, err := s.IssueToken(p)
	if err != nil {
		return models.LoginResponse{}, err
	}

	slog.Info("User successfully authenticated", "email", p.Email)
	return models.LoginResponse{
		Message: "Login successful",
		User: models.UserSummary{
			ID:          p.ID,
			AccountType: p.AccountType,
			FullName:    p.FullName,
			Email:       p.Email,
		},
		Token:     token,
		TokenType: TokenType,
	}, nil
}

func (s *Service) IssueToken(p models.Profile) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   p.ID,
		"email": p.Email,
		"role":  p.AccountType,
		"exp":   now.Add(s.jwt.Expiration).Unix(),
		"iat":   now.Unix(),
	})

	signed, err := token.SignedString([]byte(s.jwt.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}
