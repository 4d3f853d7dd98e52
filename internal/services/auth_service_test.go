package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/utils"
)

func newTestAuthService(repo *mockRepository) AuthService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewAuthService(repo, logger, utils.NewValidator(), "test-secret", 30*time.Minute, 7*24*time.Hour)
}

func userWithPassword(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	level := models.LevelTroisieme
	return &models.User{
		ID:           "user-1",
		Username:     "eleve",
		Email:        "eleve@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Level:        &level,
		IsActive:     true,
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials yield a usable token pair", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestAuthService(repo)

		user := userWithPassword(t, "motdepasse")
		repo.users.On("GetByUsername", ctx, user.Username).Return(user, nil)
		repo.users.On("Update", ctx, mock.AnythingOfType("*models.User")).Return(nil)

		pair, loggedIn, err := service.Login(ctx, &LoginRequest{Username: "eleve", Password: "motdepasse"})
		require.NoError(t, err)

		assert.Equal(t, user.ID, loggedIn.ID)
		assert.NotNil(t, loggedIn.LastLoginAt)
		assert.Equal(t, "bearer", pair.TokenType)
		assert.Equal(t, int((30 * time.Minute).Seconds()), pair.ExpiresIn)

		claims, err := service.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.Subject)
		assert.Equal(t, models.RoleStudent, claims.Role)
		require.NotNil(t, claims.Level)
		assert.Equal(t, models.LevelTroisieme, *claims.Level)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestAuthService(repo)

		repo.users.On("GetByUsername", ctx, "eleve").Return(userWithPassword(t, "motdepasse"), nil)

		_, _, err := service.Login(ctx, &LoginRequest{Username: "eleve", Password: "autre"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestAuthService(repo)

		repo.users.On("GetByUsername", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

		_, _, err := service.Login(ctx, &LoginRequest{Username: "ghost", Password: "x"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestAuthService(repo)

		user := userWithPassword(t, "motdepasse")
		user.IsActive = false
		repo.users.On("GetByUsername", ctx, user.Username).Return(user, nil)

		_, _, err := service.Login(ctx, &LoginRequest{Username: "eleve", Password: "motdepasse"})
		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestAuthService_Tokens(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh token cannot be used as access token", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestAuthService(repo)

		user := userWithPassword(t, "motdepasse")
		repo.users.On("GetByUsername", ctx, user.Username).Return(user, nil)
		repo.users.On("Update", ctx, mock.AnythingOfType("*models.User")).Return(nil)

		pair, _, err := service.Login(ctx, &LoginRequest{Username: "eleve", Password: "motdepasse"})
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh issues a new pair", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestAuthService(repo)

		user := userWithPassword(t, "motdepasse")
		repo.users.On("GetByUsername", ctx, user.Username).Return(user, nil)
		repo.users.On("GetByID", ctx, user.ID).Return(user, nil)
		repo.users.On("Update", ctx, mock.AnythingOfType("*models.User")).Return(nil)

		pair, _, err := service.Login(ctx, &LoginRequest{Username: "eleve", Password: "motdepasse"})
		require.NoError(t, err)

		next, err := service.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(next.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.Subject)
	})

	t.Run("garbage token", func(t *testing.T) {
		service := newTestAuthService(newMockRepository())

		_, err := service.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
