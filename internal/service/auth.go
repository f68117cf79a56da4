package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"bingo-platform/internal/apperr"
	"bingo-platform/internal/model"
	"bingo-platform/internal/repository"
)

// AuthService handles registration, login and token verification.
type AuthService struct {
	users   UserStore
	wallets WalletStore
	secret  []byte
	ttl     time.Duration
}

// NewAuthService creates an AuthService instance.
func NewAuthService(users UserStore, wallets WalletStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, wallets: wallets, secret: []byte(secret), ttl: ttl}
}

// Register creates a user with a hashed password and an empty wallet.
func (s *AuthService) Register(ctx context.Context, email, password, alias string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, apperr.New(apperr.InvalidInput, "email and password are required")
	}
	if len(password) < 8 {
		return nil, apperr.New(apperr.InvalidInput, "password must be at least 8 characters")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.Conflict, "email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, string(hashed), alias)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if _, err := s.wallets.Create(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login verifies the credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, apperr.New(apperr.Forbidden, "invalid credentials")
		}
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", nil, apperr.New(apperr.Forbidden, "invalid credentials")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, user, nil
}

// ParseToken verifies a token and returns the user id it carries.
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperr.New(apperr.Forbidden, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperr.New(apperr.Forbidden, "invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", apperr.New(apperr.Forbidden, "invalid token")
	}
	return sub, nil
}