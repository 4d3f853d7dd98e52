package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
	"github.com/mathsia/memocard-service/internal/utils"
)

// TokenClaims are the JWT claims carried by both access and refresh tokens.
type TokenClaims struct {
	Role      models.UserRole     `json:"role"`
	Level     *models.SchoolLevel `json:"level,omitempty"`
	TokenType string              `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthService authenticates users and issues signed tokens.
type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*TokenPair, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ValidateAccessToken(tokenString string) (*TokenClaims, error)
}

type authService struct {
	repo       repositories.Repository
	logger     *slog.Logger
	validator  *utils.Validator
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	secret string,
	accessTTL, refreshTTL time.Duration,
) AuthService {
	return &authService{
		repo:       repo,
		logger:     logger,
		validator:  validator,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*TokenPair, *models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	user, err := s.repo.User().GetByUsername(ctx, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Login failed: unknown username", "username", req.Username)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("Login failed: wrong password", "username", req.Username)
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("Login failed: inactive account", "username", req.Username)
		return nil, nil, ErrUserInactive
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.repo.User().Update(ctx, user); err != nil {
		// The login itself succeeded; losing the timestamp is acceptable.
		s.logger.Warn("Failed to record last login", "user_id", user.ID, "error", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)

	return pair, user, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User().GetByID(ctx, claims.Subject)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return s.issueTokens(user)
}

func (s *authService) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "access" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.signToken(user, "access", s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.signToken(user, "refresh", s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

func (s *authService) signToken(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		Role:      user.Role,
		Level:     user.Level,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) parseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
