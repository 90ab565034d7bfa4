package service

import (
	"context"
	"errors"
	"fmt"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/util"
	"school_quiz_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore 由 repository.UserRepository 实现
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type AuthService struct {
	UserRepo UserStore
	Cfg      *config.Config
}

func NewAuthService(userRepo UserStore, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login 仅教师和管理员有账号
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Disabled {
		return nil, util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

// CreateTeacher 管理员添加教师账号
func (s *AuthService) CreateTeacher(ctx context.Context, name, email, password string, role model.UserRole) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if role != model.Teacher && role != model.Admin {
		return nil, util.NewValidationError("unknown role %q", role)
	}
	if len(password) < 8 {
		return nil, util.NewValidationError("password must be at least 8 characters")
	}
	if _, err := s.UserRepo.FindByEmail(ctx, email); err == nil {
		return nil, util.NewValidationError("email %s is already registered", email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{Name: strings.TrimSpace(name), Email: email, Password: string(hashed), Role: role}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// EnsureAdmin 启动时按配置创建管理员账号，已存在则跳过
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	admin := s.Cfg.Admin
	if admin.Email == "" || admin.Password == "" {
		return nil
	}
	if _, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(admin.Email)); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	name := admin.Name
	if name == "" {
		name = "Administrator"
	}
	user, err := s.CreateTeacher(ctx, name, admin.Email, admin.Password, model.Admin)
	if err != nil {
		return err
	}
	logger.Log.Info("Admin account created", zap.String("email", user.Email))
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
