package service

import (
	"context"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	users map[string]*model.User
}

func (s *fakeUserStore) Create(_ context.Context, user *model.User) error {
	user.ID = uint(len(s.users) + 1)
	s.users[user.Email] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id uint) (*model.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestEnsureAdminAndLogin(t *testing.T) {
	users := &fakeUserStore{users: map[string]*model.User{}}
	cfg := &config.Config{
		JWT:   config.JWTConfig{Secret: "auth-test-secret", ExpireTime: time.Hour},
		Admin: config.AdminConfig{Email: "Admin@School.ru", Password: "s3cret-pass"},
	}
	svc := NewAuthService(users, cfg)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx))
	require.NoError(t, svc.EnsureAdmin(ctx))
	require.Len(t, users.users, 1)
	admin := users.users["admin@school.ru"]
	assert.Equal(t, model.Admin, admin.Role)
	assert.NotEqual(t, "s3cret-pass", admin.Password)

	res, err := svc.Login(ctx, " ADMIN@school.ru ", "s3cret-pass")
	require.NoError(t, err)
	claims, err := util.ParseJWT(res.Token, cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UserID)
	assert.Equal(t, model.Admin, claims.Role)

	_, err = svc.Login(ctx, "admin@school.ru", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@school.ru", "s3cret-pass")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.CreateTeacher(ctx, "Учитель", "admin@school.ru", "another-pass", model.Teacher)
	assert.True(t, util.IsValidationError(err))
	_, err = svc.CreateTeacher(ctx, "Учитель", "t@school.ru", "short", model.Teacher)
	assert.True(t, util.IsValidationError(err))
}
