package service

import (
	"context"
	"testing"

	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/internal/repository"
	"github.com/rakarizky/habitlink/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T) (*gorm.DB, repository.UserRepository, AuthService) {
	t.Helper()
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	return db, userRepo, NewAuthService(userRepo)
}

func registerRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		Email:    "ana@example.com",
		LoginID:  "ana_runs",
		Password: "hunter2hunter2",
		Nickname: "ana",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	_, _, auth := newAuthFixture(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.Equal(t, "ana", registered.User.Nickname)

	logged, err := auth.Login(ctx, dto.LoginRequest{LoginID: "ana_runs", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, logged.AccessToken)
	assert.Equal(t, registered.User.ID, logged.User.ID)
}

func TestRegisterDuplicates(t *testing.T) {
	_, _, auth := newAuthFixture(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*dto.RegisterRequest)
	}{
		{"email taken", func(r *dto.RegisterRequest) { r.LoginID = "other"; r.Nickname = "other" }},
		{"login id taken", func(r *dto.RegisterRequest) { r.Email = "other@example.com"; r.Nickname = "other" }},
		{"nickname taken", func(r *dto.RegisterRequest) { r.Email = "other@example.com"; r.LoginID = "other" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := registerRequest()
			tc.mutate(&req)
			_, err := auth.Register(ctx, req)
			assert.ErrorIs(t, err, apperror.ErrConflict)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	db, userRepo, auth := newAuthFixture(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)

	_, err = auth.Login(ctx, dto.LoginRequest{LoginID: "ana_runs", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = auth.Login(ctx, dto.LoginRequest{LoginID: "nobody", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	// a deactivated account cannot log in even with the right password
	require.NoError(t, db.Model(&model.User{}).
		Where("id = ?", registered.User.ID).
		Update("is_active", false).Error)
	_, err = auth.Login(ctx, dto.LoginRequest{LoginID: "ana_runs", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	user, err := userRepo.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	auth := NewAuthService(userRepo)
	users := NewUserService(userRepo)
	ctx := context.Background()

	registered, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)

	err = users.ChangePassword(ctx, registered.User.ID, dto.ChangePasswordRequest{
		CurrentPassword: "wrong-password",
		NewPassword:     "a-new-password",
	})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	err = users.ChangePassword(ctx, registered.User.ID, dto.ChangePasswordRequest{
		CurrentPassword: "hunter2hunter2",
		NewPassword:     "a-new-password",
	})
	require.NoError(t, err)

	user, err := userRepo.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("a-new-password")))

	_, err = auth.Login(ctx, dto.LoginRequest{LoginID: "ana_runs", Password: "a-new-password"})
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	auth := NewAuthService(userRepo)
	users := NewUserService(userRepo)
	ctx := context.Background()

	first, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)

	second := registerRequest()
	second.Email = "bo@example.com"
	second.LoginID = "bo_lifts"
	second.Nickname = "bo"
	_, err = auth.Register(ctx, second)
	require.NoError(t, err)

	nickname := "ana-v2"
	avatar := "https://cdn.example.com/avatars/ana.png"
	updated, err := users.UpdateProfile(ctx, first.User.ID, dto.UpdateProfileRequest{
		Nickname:  &nickname,
		AvatarURL: &avatar,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana-v2", updated.Nickname)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, avatar, *updated.AvatarURL)
	// email is untouched
	assert.Equal(t, "ana@example.com", updated.Email)

	// taking another user's nickname is a conflict
	taken := "bo"
	_, err = users.UpdateProfile(ctx, first.User.ID, dto.UpdateProfileRequest{Nickname: &taken})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	takenEmail := "bo@example.com"
	_, err = users.UpdateProfile(ctx, first.User.ID, dto.UpdateProfileRequest{Email: &takenEmail})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
