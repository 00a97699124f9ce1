package service

import (
	"context"
	"testing"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/modules/user/dto"
	"anoa.com/civicreport/internal/modules/user/repository"
	"anoa.com/civicreport/internal/testutil"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/password"
	"anoa.com/civicreport/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) (AuthService, token.Service, repository.UserRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	tokens, err := token.NewService("test-secret", 0)
	require.NoError(t, err)
	return NewAuthService(repo, password.NewBcryptHasher(bcrypt.MinCost), tokens), tokens, repo
}

func TestRegisterThenLogin(t *testing.T) {
	svc, tokens, repo := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, dto.RegisterInput{
		Username: "Budi",
		Email:    " Budi@Example.com ",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", user.Email)
	assert.False(t, user.IsAdmin)
	assert.Equal(t, entity.DefaultProfilePhotoURL, user.ProfilePhoto.URL)
	assert.Nil(t, user.ProfilePhoto.PublicID)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)

	res, err := svc.Login(ctx, dto.LoginInput{Email: "budi@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.ID)
	assert.Equal(t, "Budi", res.Username)
	assert.False(t, res.IsAdmin)

	claims, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	input := dto.RegisterInput{Username: "budi", Email: "budi@example.com", Password: "secret123"}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	input.Email = "BUDI@example.com"
	_, err = svc.Register(ctx, input)
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterInput{Username: "budi", Email: "budi@example.com", Password: "secret123"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input dto.LoginInput
	}{
		{"wrong password", dto.LoginInput{Email: "budi@example.com", Password: "secret124"}},
		{"unknown email", dto.LoginInput{Email: "nobody@example.com", Password: "secret123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.input)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, "invalid email or password", apperror.Message(err))
		})
	}
}

func TestRegister_UsernameLengthAfterSanitizing(t *testing.T) {
	svc, _, repo := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
	}{
		{"markup around a single letter", "<b>x</b>"},
		{"markup only", "<i></i>"},
		{"whitespace inside markup", "<p> </p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, dto.RegisterInput{Username: tt.username, Email: "budi@example.com", Password: "secret123"})
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, "username must be at least 2 characters", apperror.Message(err))
		})
	}

	exists, err := repo.ExistsByEmail(ctx, "budi@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	user, err := svc.Register(ctx, dto.RegisterInput{Username: "<b>Budi</b>", Email: "budi@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Budi", user.Username)
}

func TestRegister_ConcurrentDuplicateIsConflict(t *testing.T) {
	_, _, repo := newAuthService(t)
	ctx := context.Background()

	// a row written between the existence check and the insert
	require.NoError(t, repo.Create(ctx, &entity.User{Username: "budi", Email: "budi@example.com", PasswordHash: "x"}))
	err := repo.Create(ctx, &entity.User{Username: "budi2", Email: "budi@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
	assert.Equal(t, "user already exist", apperror.Message(err))
}
