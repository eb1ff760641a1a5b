package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"mybox/models"
	"mybox/repositories"
	"mybox/utils"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Nickname string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type LoginOutput struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

type ProfileOutput struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (AuthUser, error)
	Login(ctx context.Context, in LoginInput) (LoginOutput, error)
	GetProfile(ctx context.Context, userID uint) (ProfileOutput, error)
}

type authService struct {
	users repositories.UserRepository
}

func NewAuthService(users repositories.UserRepository) AuthService {
	return &authService{users: users}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (AuthUser, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return AuthUser{}, newValidationError("username is required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return AuthUser{}, newValidationError("email is required")
	}
	if len(in.Password) < 8 {
		return AuthUser{}, newValidationError("password must be at least 8 characters")
	}

	count, err := s.users.CountByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return AuthUser{}, newInternalError("failed to check username", err)
	}
	if count > 0 {
		return AuthUser{}, newConflictError("username or email already registered")
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return AuthUser{}, newInternalError("failed to hash password", err)
	}

	user := models.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Nickname: in.Nickname,
	}
	if err := s.users.Create(ctx, nil, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return AuthUser{}, newConflictError("username or email already registered")
		}
		return AuthUser{}, newInternalError("failed to create user", err)
	}

	return AuthUser{ID: user.ID, Username: user.Username, Email: user.Email, Nickname: user.Nickname}, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	user, err := s.users.GetByUsername(ctx, nil, in.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginOutput{}, newUnauthorizedError("invalid username or password")
		}
		return LoginOutput{}, newInternalError("failed to query user", err)
	}

	if !utils.CheckPassword(in.Password, user.Password) {
		return LoginOutput{}, newUnauthorizedError("invalid username or password")
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		return LoginOutput{}, newInternalError("failed to generate token", err)
	}

	return LoginOutput{
		Token: token,
		User:  AuthUser{ID: user.ID, Username: user.Username, Email: user.Email, Nickname: user.Nickname},
	}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uint) (ProfileOutput, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProfileOutput{}, newNotFoundError("user not found")
		}
		return ProfileOutput{}, newInternalError("failed to query user", err)
	}

	return ProfileOutput{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Nickname:  user.Nickname,
		CreatedAt: user.CreatedAt,
	}, nil
}
